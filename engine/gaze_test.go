package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptGaze wires a connected tracker whose NextFixation/NewestSample return
// whatever the test last planted.
func scriptGaze(tracker *fakeTracker) (plantFix func(Fixation), plantSample func(Sample)) {
	var fix *Fixation
	var sample *Sample
	tracker.connected = true
	tracker.eye = EyeRight
	tracker.fixation = func() (Fixation, bool) {
		if fix == nil {
			return Fixation{}, false
		}
		f := *fix
		fix = nil
		return f, true
	}
	tracker.sample = func() (Sample, bool) {
		if sample == nil {
			return Sample{}, false
		}
		return *sample, true
	}
	return func(f Fixation) { fix = &f }, func(s Sample) { sample = &s }
}

func TestContinuousGazeConfirmsAfterDwell(t *testing.T) {
	s, clock, tracker := newTestSession()
	plantFix, plantSample := scriptGaze(tracker)
	s.recording = true
	target := Rect{X: 0, Y: 0, W: 200, H: 200, Name: "target"}

	g := NewContinuousGaze(s, CollectorConfig{
		Areas:    []Area{target},
		MinDwell: 300,
		Duration: Unbounded(),
	})
	clock.now = 900
	require.NoError(t, g.Start())

	// No gaze data yet.
	done, err := g.Respond(nil)
	require.NoError(t, err)
	assert.False(t, done)

	// A fixation enters the area at 1000.
	plantFix(Fixation{Kind: FixationStart, Eye: EyeRight, StartTime: 1000, StartX: 100, StartY: 100})
	clock.now = 1000
	done, err = g.Respond(nil)
	require.NoError(t, err)
	assert.False(t, done)

	// Dwelling, but short of the threshold.
	plantSample(Sample{Time: 1200, Eye: EyeRight, X: 120, Y: 90})
	clock.now = 1200
	done, err = g.Respond(nil)
	require.NoError(t, err)
	assert.False(t, done)
	assert.True(t, g.Running())

	// Threshold crossed.
	plantSample(Sample{Time: 1300, Eye: EyeRight, X: 110, Y: 95})
	clock.now = 1300
	done, err = g.Respond(nil)
	require.NoError(t, err)
	assert.True(t, done)
	assert.False(t, g.Running())

	resp, _ := g.Response()
	assert.Equal(t, "target", resp)
	// Reaction time counts from the area entry, not the confirming sample.
	rtTime, _ := g.RTTime()
	assert.Equal(t, uint64(1000), rtTime)
	rt, _ := g.RT()
	assert.Equal(t, uint64(100), rt)
	assert.True(t, tracker.hasMessage("gaze.END_RT"))
}

func TestContinuousGazeExitResetsDwell(t *testing.T) {
	s, clock, tracker := newTestSession()
	plantFix, plantSample := scriptGaze(tracker)
	s.recording = true
	target := Rect{X: 0, Y: 0, W: 200, H: 200, Name: "target"}

	g := NewContinuousGaze(s, CollectorConfig{
		Areas:    []Area{target},
		MinDwell: 300,
		Duration: Unbounded(),
	})
	require.NoError(t, g.Start())

	step := func(at uint64) bool {
		clock.now = at
		done, err := g.Respond(nil)
		require.NoError(t, err)
		return done
	}

	plantFix(Fixation{Kind: FixationStart, Eye: EyeRight, StartTime: 1000, StartX: 50, StartY: 50})
	assert.False(t, step(1000))

	// Gaze leaves the area 150 ms in; the dwell timer is discarded.
	plantSample(Sample{Time: 1150, Eye: EyeRight, X: 500, Y: 500})
	assert.False(t, step(1150))

	// Re-entry: the two 150 ms stints must not add up.
	plantFix(Fixation{Kind: FixationStart, Eye: EyeRight, StartTime: 1200, StartX: 60, StartY: 60})
	assert.False(t, step(1200))
	plantSample(Sample{Time: 1350, Eye: EyeRight, X: 70, Y: 70})
	assert.False(t, step(1350))

	// Full dwell from the second entry confirms.
	plantSample(Sample{Time: 1500, Eye: EyeRight, X: 70, Y: 70})
	assert.True(t, step(1500))
	rtTime, _ := g.RTTime()
	assert.Equal(t, uint64(1200), rtTime)
}

func TestContinuousGazeIgnoresOtherEye(t *testing.T) {
	s, clock, tracker := newTestSession()
	plantFix, _ := scriptGaze(tracker)
	s.recording = true
	target := Rect{X: 0, Y: 0, W: 200, H: 200, Name: "target"}

	g := NewContinuousGaze(s, CollectorConfig{
		Areas:    []Area{target},
		MinDwell: 100,
		Duration: Unbounded(),
	})
	require.NoError(t, g.Start())

	plantFix(Fixation{Kind: FixationStart, Eye: EyeLeft, StartTime: 100, StartX: 50, StartY: 50})
	clock.now = 100
	done, err := g.Respond(nil)
	require.NoError(t, err)
	assert.False(t, done)
	assert.True(t, g.Running())
	g.Stop()
}

func TestGazeSampleAcceptsImmediately(t *testing.T) {
	s, clock, tracker := newTestSession()
	_, plantSample := scriptGaze(tracker)
	s.recording = true
	target := Rect{X: 0, Y: 0, W: 200, H: 200, Name: "target"}

	g := NewGazeSample(s, CollectorConfig{Areas: []Area{target}, Duration: Unbounded()})
	clock.now = 500
	require.NoError(t, g.Start())

	plantSample(Sample{Time: 560, Eye: EyeRight, X: 400, Y: 400})
	clock.now = 560
	done, err := g.Respond(nil)
	require.NoError(t, err)
	assert.False(t, done) // outside every area

	plantSample(Sample{Time: 620, Eye: EyeRight, X: 100, Y: 100})
	clock.now = 620
	done, err = g.Respond(nil)
	require.NoError(t, err)
	assert.True(t, done)

	resp, _ := g.Response()
	assert.Equal(t, "target", resp)
	rtTime, _ := g.RTTime()
	assert.Equal(t, uint64(620), rtTime)
	rt, _ := g.RT()
	assert.Equal(t, uint64(120), rt)
	assert.True(t, tracker.hasMessage("gaze_sample.END_RT"))
}

func TestGazeStartResolvesEye(t *testing.T) {
	t.Run("binocular uses the configured eye", func(t *testing.T) {
		s, _, tracker := newTestSession()
		tracker.connected = true
		tracker.eye = EyeBoth
		s.recording = true

		g := NewContinuousGaze(s, CollectorConfig{Duration: Unbounded()})
		require.NoError(t, g.Start())
		assert.Equal(t, s.Params.EyeUsed, g.eye)
		g.Stop()
	})

	t.Run("no eye aborts into setup", func(t *testing.T) {
		s, _, tracker := newTestSession()
		tracker.connected = true
		tracker.eye = EyeNone
		s.recording = true

		g := NewContinuousGaze(s, CollectorConfig{Duration: Unbounded()})
		err := g.Start()
		abort, ok := AsAbort(err)
		require.True(t, ok)
		assert.Equal(t, SetupRequested, abort.Kind)
		g.Stop()
	})
}

func TestGazeStartRequiresRecording(t *testing.T) {
	s, _, tracker := newTestSession()
	tracker.connected = true
	tracker.eye = EyeRight

	g := NewContinuousGaze(s, CollectorConfig{Duration: Unbounded()})
	err := g.Start()
	assert.ErrorIs(t, err, errNotRecording)
	g.Stop()
}

func TestGazeStopsWhenRecordingEnds(t *testing.T) {
	s, clock, tracker := newTestSession()
	scriptGaze(tracker)
	s.recording = true

	g := NewContinuousGaze(s, CollectorConfig{Duration: Unbounded()})
	require.NoError(t, g.Start())

	s.recording = false
	clock.now = 100
	done, err := g.Respond(nil)
	require.NoError(t, err)
	assert.False(t, done)
	assert.False(t, g.Running())
}

func TestOfflineGazeFallback(t *testing.T) {
	s, clock, _ := newTestSession() // tracker not connected
	s.recording = true
	target := Rect{X: 0, Y: 0, W: 200, H: 200, Name: "left_word"}

	g := NewContinuousGaze(s, CollectorConfig{
		Areas:    []Area{target},
		MinDwell: 300,
		Duration: Unbounded(),
	})
	clock.now = 100
	require.NoError(t, g.Start())

	clock.now = 2099
	done, err := g.Respond(nil)
	require.NoError(t, err)
	assert.False(t, done)

	clock.now = 2100 // onset + OfflineGazeFallbackMS
	done, err = g.Respond(nil)
	require.NoError(t, err)
	assert.True(t, done)

	resp, _ := g.Response()
	assert.Equal(t, "left_word", resp)
	rtTime, _ := g.RTTime()
	assert.Equal(t, uint64(2100), rtTime)
}

func TestOfflineGazeFallbackDisabledAborts(t *testing.T) {
	s, clock, _ := newTestSession()
	s.Params.OfflineGazeFallbackMS = 0
	s.recording = true

	g := NewGazeSample(s, CollectorConfig{Duration: Unbounded()})
	require.NoError(t, g.Start())

	clock.now = 50
	_, err := g.Respond(nil)
	abort, ok := AsAbort(err)
	require.True(t, ok)
	assert.Equal(t, SetupRequested, abort.Kind)
	g.Stop()
}
