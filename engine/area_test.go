package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRectContains(t *testing.T) {
	r := Rect{X: 10, Y: 20, W: 30, H: 40}
	assert.True(t, r.Contains(10, 20))
	assert.True(t, r.Contains(39, 59))
	assert.False(t, r.Contains(40, 30)) // right edge is exclusive
	assert.False(t, r.Contains(20, 60))
	assert.False(t, r.Contains(9, 30))
}

func TestRectExpand(t *testing.T) {
	r := Rect{X: 100, Y: 100, W: 50, H: 20}.Expand(35, 35, 35, 35)
	assert.True(t, r.Contains(70, 90))
	assert.True(t, r.Contains(180, 150))
	assert.False(t, r.Contains(60, 90))
}

func TestRectLabel(t *testing.T) {
	assert.Equal(t, "target", Rect{Name: "target"}.Label())
	assert.Equal(t, "rect_10_20_40_60", Rect{X: 10, Y: 20, W: 30, H: 40}.Label())
}

func TestEllipseContains(t *testing.T) {
	e := Ellipse{X: 0, Y: 0, W: 200, H: 100}
	assert.True(t, e.Contains(100, 50)) // center
	assert.True(t, e.Contains(199, 50))
	assert.False(t, e.Contains(5, 5)) // bounding box corner
	assert.False(t, e.Contains(100, 101))
	assert.False(t, Ellipse{}.Contains(0, 0))
}
