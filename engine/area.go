package engine

import "fmt"

// Area is a labeled screen region. Gaze and pointer collectors use the
// containment predicate for acceptance decisions; the label is what ends up
// in the log when the area is the recorded response.
type Area interface {
	Contains(x, y float64) bool
	Label() string
}

// Rect is a rectangular interest area.
type Rect struct {
	X, Y, W, H float64
	Name       string
}

func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

func (r Rect) Label() string {
	if r.Name != "" {
		return r.Name
	}
	return fmt.Sprintf("rect_%g_%g_%g_%g", r.X, r.Y, r.X+r.W, r.Y+r.H)
}

// Expand grows the rectangle outwards on each side, e.g. to add a
// gaze-error buffer around a word.
func (r Rect) Expand(left, top, right, bottom float64) Rect {
	r.X -= left
	r.Y -= top
	r.W += left + right
	r.H += top + bottom
	return r
}

// Ellipse is an elliptical interest area given by its bounding box.
type Ellipse struct {
	X, Y, W, H float64
	Name       string
}

func (e Ellipse) Contains(x, y float64) bool {
	if e.W <= 0 || e.H <= 0 {
		return false
	}
	rx, ry := e.W/2, e.H/2
	dx := (x - (e.X + rx)) / rx
	dy := (y - (e.Y + ry)) / ry
	return dx*dx+dy*dy <= 1
}

func (e Ellipse) Label() string {
	if e.Name != "" {
		return e.Name
	}
	return fmt.Sprintf("ellipse_%g_%g_%g_%g", e.X, e.Y, e.X+e.W, e.Y+e.H)
}
