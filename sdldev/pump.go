package sdldev

import (
	"strings"

	"github.com/Zyko0/go-sdl3/sdl"

	"gazekit/engine"
)

// pointerButtonNames maps SDL button indices to the names collectors match
// against.
var pointerButtonNames = map[uint8]string{
	1: "left",
	2: "middle",
	3: "right",
	4: "x1",
	5: "x2",
}

// Pump drains the SDL event queue and converts keyboard and pointer input to
// engine events. It is the single consumer of SDL events in the process, so
// it handles both device kinds; register it once.
type Pump struct {
	clock engine.Clock
	// escapeKey is what a window-close request is reported as, so the
	// operator closing the window aborts like an escape press.
	escapeKey string
}

func NewPump(clock engine.Clock, escapeKey string) *Pump {
	return &Pump{clock: clock, escapeKey: escapeKey}
}

func (p *Pump) Kind() string { return "sdl" }

// keyName lowercases SDL's key names ("Escape" -> "escape") so acceptance
// sets and the configured escape key are case-insensitive to the backend.
func keyName(k sdl.Keycode) string {
	return strings.ToLower(k.KeyName())
}

func (p *Pump) Poll() []engine.Event {
	var events []engine.Event
	now := p.clock.Now()
	for {
		var ev sdl.Event
		if !sdl.PollEvent(&ev) {
			return events
		}
		switch ev.Type {
		case sdl.EVENT_QUIT:
			events = append(events, engine.Event{Kind: engine.KeyDown, Value: p.escapeKey, Time: now})
		case sdl.EVENT_KEY_DOWN:
			events = append(events, engine.Event{
				Kind:  engine.KeyDown,
				Value: keyName(ev.KeyboardEvent().Key),
				Time:  now,
			})
		case sdl.EVENT_KEY_UP:
			events = append(events, engine.Event{
				Kind:  engine.KeyUp,
				Value: keyName(ev.KeyboardEvent().Key),
				Time:  now,
			})
		case sdl.EVENT_MOUSE_BUTTON_DOWN, sdl.EVENT_MOUSE_BUTTON_UP:
			me := ev.MouseButtonEvent()
			kind := engine.PointerDown
			if ev.Type == sdl.EVENT_MOUSE_BUTTON_UP {
				kind = engine.PointerUp
			}
			events = append(events, engine.Event{
				Kind:  kind,
				Value: pointerButtonNames[me.Button],
				X:     float64(me.X),
				Y:     float64(me.Y),
				Time:  now,
			})
		case sdl.EVENT_MOUSE_MOTION:
			me := ev.MouseMotionEvent()
			events = append(events, engine.Event{
				Kind: engine.PointerMove,
				X:    float64(me.X),
				Y:    float64(me.Y),
				Time: now,
			})
		}
	}
}
