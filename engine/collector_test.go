package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyboardAcceptsConfiguredKey(t *testing.T) {
	s, clock, tracker := newTestSession()
	kb := NewKeyboard(s, CollectorConfig{Accept: []string{"f", "j"}, Correct: strptr("f")})

	clock.now = 1000
	require.NoError(t, kb.Start())
	require.True(t, kb.Running())

	clock.now = 1100
	done, err := kb.Respond([]Event{
		{Kind: KeyDown, Value: "x", Time: 1100},
		{Kind: KeyUp, Value: "f", Time: 1100},
	})
	require.NoError(t, err)
	assert.False(t, done)
	assert.True(t, kb.Running())

	clock.now = 1200
	done, err = kb.Respond([]Event{{Kind: KeyDown, Value: "j", Time: 1200}})
	require.NoError(t, err)
	assert.True(t, done)
	assert.False(t, kb.Running())

	resp, ok := kb.Response()
	require.True(t, ok)
	assert.Equal(t, "j", resp)
	rt, ok := kb.RT()
	require.True(t, ok)
	assert.Equal(t, uint64(200), rt)
	rtTime, ok := kb.RTTime()
	require.True(t, ok)
	assert.Equal(t, uint64(1200), rtTime)
	acc, ok := kb.Accuracy()
	require.True(t, ok)
	assert.Equal(t, 0, acc)
	assert.True(t, tracker.hasMessage("keyboard.END_RT"))
}

func TestKeyboardAnyAcceptsEverything(t *testing.T) {
	s, clock, _ := newTestSession()
	kb := NewKeyboard(s, CollectorConfig{Accept: []string{Any}})
	require.NoError(t, kb.Start())

	clock.now = 80
	done, err := kb.Respond([]Event{{Kind: KeyDown, Value: "q", Time: 80}})
	require.NoError(t, err)
	assert.True(t, done)
	resp, _ := kb.Response()
	assert.Equal(t, "q", resp)
}

func TestMinRTIgnoresEarlyInput(t *testing.T) {
	s, clock, _ := newTestSession()
	kb := NewKeyboard(s, CollectorConfig{Accept: []string{Any}, MinRT: 100})
	require.NoError(t, kb.Start())

	clock.now = 60
	done, err := kb.Respond([]Event{{Kind: KeyDown, Value: "f", Time: 60}})
	require.NoError(t, err)
	assert.False(t, done)
	_, ok := kb.Response()
	assert.False(t, ok)

	clock.now = 150
	done, err = kb.Respond([]Event{{Kind: KeyDown, Value: "f", Time: 150}})
	require.NoError(t, err)
	assert.True(t, done)
	rt, _ := kb.RT()
	assert.Equal(t, uint64(150), rt)
}

func TestFixedDurationTimesOut(t *testing.T) {
	s, clock, _ := newTestSession()
	kb := NewKeyboard(s, CollectorConfig{
		Accept:   []string{"f"},
		Correct:  strptr("f"),
		Duration: FixedDuration(500),
	})
	require.NoError(t, kb.Start())

	clock.now = 499
	done, err := kb.Respond(nil)
	require.NoError(t, err)
	assert.False(t, done)

	clock.now = 500
	done, err = kb.Respond(nil)
	require.NoError(t, err)
	assert.True(t, done)
	assert.False(t, kb.Running())

	_, ok := kb.Response()
	assert.False(t, ok)
	_, ok = kb.RT()
	assert.False(t, ok)
	acc, ok := kb.Accuracy()
	require.True(t, ok)
	assert.Equal(t, 0, acc)
}

func TestRespondNoneScoring(t *testing.T) {
	t.Run("withholding is correct", func(t *testing.T) {
		s, clock, _ := newTestSession()
		kb := NewKeyboard(s, CollectorConfig{
			Accept:   []string{Any},
			Correct:  strptr(RespondNone),
			Duration: FixedDuration(300),
		})
		require.NoError(t, kb.Start())
		clock.now = 300
		done, err := kb.Respond(nil)
		require.NoError(t, err)
		require.True(t, done)
		acc, ok := kb.Accuracy()
		require.True(t, ok)
		assert.Equal(t, 1, acc)
	})

	t.Run("any response is an error", func(t *testing.T) {
		s, clock, _ := newTestSession()
		kb := NewKeyboard(s, CollectorConfig{
			Accept:   []string{Any},
			Correct:  strptr(RespondNone),
			Duration: FixedDuration(300),
		})
		require.NoError(t, kb.Start())
		clock.now = 120
		done, err := kb.Respond([]Event{{Kind: KeyDown, Value: "f", Time: 120}})
		require.NoError(t, err)
		require.True(t, done)
		acc, ok := kb.Accuracy()
		require.True(t, ok)
		assert.Equal(t, 0, acc)
	})
}

func TestNilCorrectLeavesAccuracyUnset(t *testing.T) {
	s, clock, _ := newTestSession()
	kb := NewKeyboard(s, CollectorConfig{Accept: []string{Any}})
	require.NoError(t, kb.Start())
	clock.now = 90
	_, err := kb.Respond([]Event{{Kind: KeyDown, Value: "f", Time: 90}})
	require.NoError(t, err)

	_, ok := kb.Accuracy()
	assert.False(t, ok)
}

func TestStopWithoutStartIsNoop(t *testing.T) {
	s, _, _ := newTestSession()
	kb := NewKeyboard(s, CollectorConfig{Accept: []string{Any}, Correct: strptr("f")})
	kb.Stop()
	assert.False(t, kb.Running())
	assert.Empty(t, s.Log.CurrentData())
	_, ok := kb.Accuracy()
	assert.False(t, ok)
}

func TestStartResetsPriorResult(t *testing.T) {
	s, clock, _ := newTestSession()
	kb := NewKeyboard(s, CollectorConfig{Accept: []string{Any}, Logging: []string{}})
	require.NoError(t, kb.Start())
	clock.now = 70
	_, err := kb.Respond([]Event{{Kind: KeyDown, Value: "f", Time: 70}})
	require.NoError(t, err)
	_, ok := kb.Response()
	require.True(t, ok)

	clock.now = 1000
	require.NoError(t, kb.Start())
	assert.Equal(t, uint64(1000), kb.Onset())
	_, ok = kb.Response()
	assert.False(t, ok)
	kb.Stop()
}

func TestCollectorLogsConfiguredAttributes(t *testing.T) {
	s, clock, _ := newTestSession()
	kb := NewKeyboard(s, CollectorConfig{Name: "probe", Accept: []string{"f"}, Correct: strptr("f")})
	clock.now = 1000
	require.NoError(t, kb.Start())
	clock.now = 1350
	_, err := kb.Respond([]Event{{Kind: KeyDown, Value: "f", Time: 1350}})
	require.NoError(t, err)

	data := s.Log.CurrentData()
	assert.Equal(t, uint64(350), data["probe.rt"])
	assert.Equal(t, 1, data["probe.acc"])
	assert.Equal(t, "f", data["probe.resp"])
	assert.Equal(t, "f", data["probe.cresp"])
}

func TestEmptyLoggingSuppressesAttributes(t *testing.T) {
	s, clock, _ := newTestSession()
	kb := NewKeyboard(s, CollectorConfig{Accept: []string{Any}, Correct: strptr("f"), Logging: []string{}})
	require.NoError(t, kb.Start())
	clock.now = 200
	_, err := kb.Respond([]Event{{Kind: KeyDown, Value: "f", Time: 200}})
	require.NoError(t, err)

	assert.Empty(t, s.Log.CurrentData())
}

func TestButtonPanelPressThenRelease(t *testing.T) {
	s, clock, tracker := newTestSession()
	bp := NewButtonPanel(s, CollectorConfig{
		Accept:   []string{"1", "2"},
		Correct:  strptr("1"),
		Duration: Unbounded(),
	})
	require.NoError(t, bp.Start())

	clock.now = 100
	done, err := bp.Respond([]Event{{Kind: ButtonDown, Value: "1", Time: 100}})
	require.NoError(t, err)
	assert.True(t, done)
	// The press is the response; the collector stays active for the release.
	assert.True(t, bp.Running())
	assert.True(t, tracker.hasMessage("0 buttons.END_RT"))

	clock.now = 400
	_, err = bp.Respond([]Event{{Kind: ButtonUp, Value: "1", Time: 400}})
	require.NoError(t, err)
	assert.False(t, bp.Running())

	rt, _ := bp.RT()
	assert.Equal(t, uint64(100), rt)
	assert.Equal(t, uint64(400), bp.attrValue("rt_offset"))
	assert.Equal(t, uint64(400), bp.attrValue("rt_offset_time"))
	acc, _ := bp.Accuracy()
	assert.Equal(t, 1, acc)
}

func TestButtonPanelIgnoresUnmatchedRelease(t *testing.T) {
	s, clock, _ := newTestSession()
	bp := NewButtonPanel(s, CollectorConfig{Accept: []string{"1"}, Duration: Unbounded()})
	require.NoError(t, bp.Start())

	clock.now = 50
	done, err := bp.Respond([]Event{{Kind: ButtonUp, Value: "1", Time: 50}})
	require.NoError(t, err)
	assert.False(t, done)
	assert.True(t, bp.Running())
	bp.Stop()
}

func TestPointerClickPressReleaseInsideTarget(t *testing.T) {
	s, clock, _ := newTestSession()
	yes := Rect{X: 0, Y: 0, W: 100, H: 100, Name: "yes"}
	no := Rect{X: 200, Y: 0, W: 100, H: 100, Name: "no"}
	pc := NewPointerClick(s, CollectorConfig{Targets: []ClickTarget{
		{Button: "left", Area: yes},
		{Button: "left", Area: no},
	}})
	require.NoError(t, pc.Start())

	clock.now = 50
	done, err := pc.Respond([]Event{{Kind: PointerDown, Value: "left", X: 150, Y: 50, Time: 50}})
	require.NoError(t, err)
	assert.False(t, done) // press between the targets

	clock.now = 120
	done, err = pc.Respond([]Event{{Kind: PointerDown, Value: "left", X: 250, Y: 50, Time: 120}})
	require.NoError(t, err)
	assert.False(t, done) // armed, not yet confirmed

	clock.now = 180
	done, err = pc.Respond([]Event{{Kind: PointerUp, Value: "left", X: 260, Y: 60, Time: 180}})
	require.NoError(t, err)
	assert.True(t, done)
	assert.False(t, pc.Running())

	resp, _ := pc.Response()
	assert.Equal(t, "left no", resp)
	rt, _ := pc.RT()
	assert.Equal(t, uint64(120), rt)
	assert.Equal(t, uint64(180), pc.attrValue("rt_offset"))
}

func TestPointerDownUpRequiresFullClick(t *testing.T) {
	s, clock, _ := newTestSession()
	pc := NewPointerDownUp(s, CollectorConfig{Accept: []string{"right"}})
	require.NoError(t, pc.Start())

	clock.now = 30
	done, err := pc.Respond([]Event{{Kind: PointerUp, Value: "right", Time: 30}})
	require.NoError(t, err)
	assert.False(t, done) // release without a preceding press

	clock.now = 90
	done, err = pc.Respond([]Event{{Kind: PointerDown, Value: "right", Time: 90}})
	require.NoError(t, err)
	assert.False(t, done)

	clock.now = 160
	done, err = pc.Respond([]Event{{Kind: PointerUp, Value: "right", Time: 160}})
	require.NoError(t, err)
	assert.True(t, done)
	resp, _ := pc.Response()
	assert.Equal(t, "right", resp)
	rt, _ := pc.RT()
	assert.Equal(t, uint64(160), rt)
}

func TestSpeechStaysActiveAfterWord(t *testing.T) {
	s, clock, _ := newTestSession()
	sp := NewSpeech(s, CollectorConfig{Accept: []string{Any}, Duration: Unbounded()})
	require.NoError(t, sp.Start())

	clock.now = 640
	done, err := sp.Respond([]Event{{Kind: SpeechWord, Value: "cat", Time: 640}})
	require.NoError(t, err)
	assert.True(t, done)
	assert.True(t, sp.Running())

	sp.Stop()
	assert.False(t, sp.Running())
	resp, _ := sp.Response()
	assert.Equal(t, "cat", resp)
	rt, _ := sp.RT()
	assert.Equal(t, uint64(640), rt)
}
