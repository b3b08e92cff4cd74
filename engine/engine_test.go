package engine

import (
	"io"
	"log/slog"
)

// Test doubles shared by the engine tests: a manually driven clock, a
// scripted input device and a scriptable tracker. The clock only moves when a
// test (or the step device, inside a scheduling loop) moves it, so every
// timing assertion is exact.

type tickClock struct {
	now uint64
}

func (c *tickClock) Now() uint64 { return c.now }

// stepDevice advances the clock by a fixed step on every poll and delivers
// the scripted events whose time has been reached. Registering one makes the
// engine's busy-wait loops terminate deterministically.
type stepDevice struct {
	clock  *tickClock
	step   uint64
	events []Event // sorted by Time
}

func (d *stepDevice) Kind() string { return "step" }

func (d *stepDevice) Poll() []Event {
	d.clock.now += d.step
	var out []Event
	for len(d.events) > 0 && d.events[0].Time <= d.clock.now {
		out = append(out, d.events[0])
		d.events = d.events[1:]
	}
	return out
}

// fakeTracker records every message and lets a test script gaze data through
// closures; anything left unset behaves like the hardware-less Stub.
type fakeTracker struct {
	Stub
	connected bool
	eye       Eye
	sample    func() (Sample, bool)
	fixation  func() (Fixation, bool)
	status    func() error
	drift     func(x, y float64) error
	waitErr   error

	messages   []string
	setupCalls int
	recStops   int
}

func (f *fakeTracker) Connected() bool { return f.connected }

func (f *fakeTracker) SendMessage(text string) { f.messages = append(f.messages, text) }

func (f *fakeTracker) EyeAvailable() Eye { return f.eye }

func (f *fakeTracker) NewestSample() (Sample, bool) {
	if f.sample == nil {
		return Sample{}, false
	}
	return f.sample()
}

func (f *fakeTracker) NextFixation() (Fixation, bool) {
	if f.fixation == nil {
		return Fixation{}, false
	}
	return f.fixation()
}

func (f *fakeTracker) RecordingStatus() error {
	if f.status == nil {
		return nil
	}
	return f.status()
}

func (f *fakeTracker) WaitForBlockStart(uint64) error { return f.waitErr }

func (f *fakeTracker) StopRecording() { f.recStops++ }

func (f *fakeTracker) Setup() error {
	f.setupCalls++
	return nil
}

func (f *fakeTracker) DriftCorrect(x, y float64) error {
	if f.drift == nil {
		return nil
	}
	return f.drift(x, y)
}

func (f *fakeTracker) hasMessage(text string) bool {
	for _, m := range f.messages {
		if m == text {
			return true
		}
	}
	return false
}

type fakeTrigger struct {
	sets   []string
	clears []string
}

func (f *fakeTrigger) Set(lines string) { f.sets = append(f.sets, lines) }

func (f *fakeTrigger) Clear(lines string) { f.clears = append(f.clears, lines) }

func newTestSession() (*Session, *tickClock, *fakeTracker) {
	clock := &tickClock{}
	tracker := &fakeTracker{eye: EyeBoth}
	s := NewSession(clock, tracker, DefaultParams(), nil)
	s.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return s, clock, tracker
}

func strptr(s string) *string { return &s }
