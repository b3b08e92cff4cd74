package sdldev

import (
	"fmt"

	"github.com/Zyko0/go-sdl3/sdl"

	"gazekit/engine"
)

const audioScratchBytes = 4096

var targetSpec = sdl.AudioSpec{Format: sdl.AUDIO_S16, Channels: 2, Freq: 44100}

// OpenAudio opens the default playback device and feeds it from the mixer.
// The returned stream must be destroyed at session teardown.
func OpenAudio(m *engine.Mixer) (*sdl.AudioStream, error) {
	scratch := make([]byte, audioScratchBytes)
	cb := sdl.NewAudioStreamCallback(func(stream *sdl.AudioStream, additionalAmount, totalAmount int32) {
		remaining := int(additionalAmount)
		for remaining > 0 {
			chunk := remaining
			if chunk > audioScratchBytes {
				chunk = audioScratchBytes
			}
			m.Mix(scratch[:chunk])
			stream.PutData(scratch[:chunk])
			remaining -= chunk
		}
	})
	spec := targetSpec
	stream := sdl.AUDIO_DEVICE_DEFAULT_PLAYBACK.OpenAudioDeviceStream(&spec, cb)
	if stream == nil {
		return nil, fmt.Errorf("failed to open audio stream")
	}
	stream.ResumeDevice()
	return stream, nil
}

// LoadWAV reads a sound file and converts it to the mixer's format.
func LoadWAV(path string) (*engine.Sound, error) {
	spec := &sdl.AudioSpec{}
	data, err := sdl.LoadWAV(path, spec)
	if err != nil {
		return nil, fmt.Errorf("load sound %s: %w", path, err)
	}
	if spec.Format == targetSpec.Format && spec.Channels == targetSpec.Channels && spec.Freq == targetSpec.Freq {
		return &engine.Sound{Data: data}, nil
	}
	converted, err := sdl.ConvertAudioSamples(spec, data, &targetSpec)
	if err != nil {
		return nil, fmt.Errorf("convert sound %s: %w", path, err)
	}
	return &engine.Sound{Data: converted}, nil
}
