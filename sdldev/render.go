package sdldev

import (
	"fmt"

	"github.com/Zyko0/go-sdl3/img"
	"github.com/Zyko0/go-sdl3/sdl"
	"github.com/Zyko0/go-sdl3/ttf"

	"gazekit/engine"
)

// ParseColor reads an "R,G,B,A" string. Each component must be 0-255.
func ParseColor(s string) (sdl.Color, error) {
	var r, g, b, a uint8
	n, err := fmt.Sscanf(s, "%d,%d,%d,%d", &r, &g, &b, &a)
	if err != nil || n != 4 {
		return sdl.Color{}, fmt.Errorf("color %q: want R,G,B,A", s)
	}
	return sdl.Color{R: r, G: g, B: b, A: a}, nil
}

// Presenter builds engine Renderers over one SDL renderer. Each Renderer's
// Commit clears to the background color, draws, and presents; the engine
// measures the cost of that commit as the presentation's swap time.
type Presenter struct {
	Renderer *sdl.Renderer
	W, H     int
	Scale    float32
	BG       sdl.Color
}

func (p *Presenter) clear() {
	p.Renderer.SetDrawColor(p.BG.R, p.BG.G, p.BG.B, p.BG.A)
	p.Renderer.Clear()
}

// centered computes the destination rectangle for a texture of the given
// intrinsic size.
func (p *Presenter) centered(w, h float32) sdl.FRect {
	return sdl.FRect{
		X: (float32(p.W) - w*p.Scale) / 2.0,
		Y: (float32(p.H) - h*p.Scale) / 2.0,
		W: w * p.Scale,
		H: h * p.Scale,
	}
}

// Blank presents the bare background.
func (p *Presenter) Blank() engine.Renderer {
	return engine.RendererFunc(func() error {
		p.clear()
		p.Renderer.Present()
		return nil
	})
}

const crossSize = 20

// FixationCross presents a centered cross.
func (p *Presenter) FixationCross(color sdl.Color) engine.Renderer {
	return engine.RendererFunc(func() error {
		p.clear()
		p.Renderer.SetDrawColor(color.R, color.G, color.B, color.A)
		mx, my := float32(p.W)/2, float32(p.H)/2
		p.Renderer.RenderLine(mx-crossSize, my, mx+crossSize, my)
		p.Renderer.RenderLine(mx, my-crossSize, mx, my+crossSize)
		p.Renderer.Present()
		return nil
	})
}

// Texture presents a pre-built texture centered on screen.
func (p *Presenter) Texture(tex *sdl.Texture, w, h float32) engine.Renderer {
	return engine.RendererFunc(func() error {
		p.clear()
		dst := p.centered(w, h)
		p.Renderer.RenderTexture(tex, nil, &dst)
		p.Renderer.Present()
		return nil
	})
}

// Image loads an image file into a texture and returns its renderer. The
// caller owns the texture.
func (p *Presenter) Image(path string) (engine.Renderer, *sdl.Texture, error) {
	tex, err := img.LoadTexture(p.Renderer, path)
	if err != nil {
		return nil, nil, fmt.Errorf("load image %s: %w", path, err)
	}
	w, h, _ := tex.Size()
	return p.Texture(tex, w, h), tex, nil
}

// Text renders a string with the given font into a texture and returns its
// renderer along with the text's screen bounds (for building interest
// areas). The caller owns the texture.
func (p *Presenter) Text(font *ttf.Font, text string, color sdl.Color) (engine.Renderer, *sdl.Texture, engine.Rect, error) {
	surf, err := font.RenderTextBlended(text, color)
	if err != nil || surf == nil {
		return nil, nil, engine.Rect{}, fmt.Errorf("render text: %w", err)
	}
	defer surf.Destroy()
	tex, err := p.Renderer.CreateTextureFromSurface(surf)
	if err != nil {
		return nil, nil, engine.Rect{}, fmt.Errorf("texture from text: %w", err)
	}
	w, h := float32(surf.W), float32(surf.H)
	dst := p.centered(w, h)
	bounds := engine.Rect{
		X:    float64(dst.X),
		Y:    float64(dst.Y),
		W:    float64(dst.W),
		H:    float64(dst.H),
		Name: text,
	}
	return p.Texture(tex, w, h), tex, bounds, nil
}

// Splash shows an image and waits for any key. It returns false when the
// window was closed instead. Used outside trials, where tick-loop latency
// guarantees do not apply.
func (p *Presenter) Splash(path string) bool {
	if path == "" {
		return true
	}
	tex, err := img.LoadTexture(p.Renderer, path)
	if err != nil {
		return true
	}
	defer tex.Destroy()

	w, h, _ := tex.Size()
	dst := p.centered(w, h)
	p.clear()
	p.Renderer.RenderTexture(tex, nil, &dst)
	p.Renderer.Present()

	for {
		var event sdl.Event
		if err := sdl.WaitEvent(&event); err != nil {
			return true
		}
		if event.Type == sdl.EVENT_QUIT {
			return false
		}
		if event.Type == sdl.EVENT_KEY_DOWN {
			return true
		}
	}
}
