// Package sdldev provides the SDL3-backed collaborators of the engine: the
// millisecond clock, the keyboard/pointer event pump, texture renderers and
// the audio stream glue. Nothing in here makes timing or acceptance
// decisions; that is the engine's job.
package sdldev

import (
	"github.com/Zyko0/go-sdl3/sdl"
)

// Clock reads SDL's millisecond tick counter. All engine timestamps and
// recorder annotations share this baseline.
type Clock struct{}

func (Clock) Now() uint64 { return sdl.Ticks() }
