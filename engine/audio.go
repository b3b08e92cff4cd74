package engine

import (
	"sync"
	"unsafe"
)

const (
	maxActiveSounds = 16
)

// Sound is decoded PCM ready for the mixer: interleaved signed 16-bit
// little-endian stereo at 44100 Hz.
type Sound struct {
	Data []byte
}

type activeSound struct {
	sound  *Sound
	pos    int
	active bool
}

// Mixer sums up to maxActiveSounds concurrently playing sounds into an
// output buffer. Mix runs on the audio device's thread, so the slot table is
// mutex-guarded; everything else in the engine stays single-threaded.
type Mixer struct {
	mu    sync.Mutex
	slots [maxActiveSounds]activeSound
}

func NewMixer() *Mixer {
	return &Mixer{}
}

// Play starts a sound on a free slot. It reports false when all slots are
// busy.
func (m *Mixer) Play(s *Sound) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.slots {
		if !m.slots[i].active {
			m.slots[i] = activeSound{sound: s, active: true}
			return true
		}
	}
	return false
}

// StopAll silences every slot immediately. Trial aborts call this so no
// audio keeps streaming into the next attempt.
func (m *Mixer) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.slots {
		m.slots[i] = activeSound{}
	}
}

// Playing reports whether any slot is currently active.
func (m *Mixer) Playing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.slots {
		if m.slots[i].active {
			return true
		}
	}
	return false
}

// Mix fills out with the clipped sum of all active sounds. out must hold an
// even number of bytes; it is zeroed first, so silence comes out when
// nothing is playing.
func (m *Mixer) Mix(out []byte) {
	for i := range out {
		out[i] = 0
	}
	if len(out) < 2 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	dst := unsafe.Slice((*int16)(unsafe.Pointer(&out[0])), len(out)/2)
	for i := range m.slots {
		s := &m.slots[i]
		if !s.active {
			continue
		}
		remaining := len(s.sound.Data) - s.pos
		toMix := len(out)
		if toMix > remaining {
			toMix = remaining
		}
		if toMix >= 2 {
			src := unsafe.Slice((*int16)(unsafe.Pointer(&s.sound.Data[s.pos])), toMix/2)
			for j := range src {
				val := int32(dst[j]) + int32(src[j])
				if val > 32767 {
					val = 32767
				} else if val < -32768 {
					val = -32768
				}
				dst[j] = int16(val)
			}
		}
		s.pos += toMix
		if s.pos >= len(s.sound.Data) {
			*s = activeSound{}
		}
	}
}

// SoundRenderer presents a sound: Commit starts playback on the mixer.
func SoundRenderer(m *Mixer, s *Sound) Renderer {
	return RendererFunc(func() error {
		if !m.Play(s) {
			return ErrMixerBusy
		}
		return nil
	})
}
