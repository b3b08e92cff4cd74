package engine

import "errors"

// gazeChecker is the per-tick acceptance decision of a gaze collector. Gaze
// collectors do not read the event queue: they query the tracker directly.
type gazeChecker interface {
	checkGaze() (bool, error)
}

// gazeCollector holds the state shared by all gaze-driven collectors: the
// resolved eye, and the dwell state of the fixation currently being tracked.
type gazeCollector struct {
	*Collector
	checker gazeChecker

	eye Eye
	// fixArea is the candidate area gaze last entered; zero while no
	// in-area fixation is being tracked.
	fixArea Area
	// fixTime is the entry time of the tracked fixation.
	fixTime uint64
}

var errNotRecording = errors.New("gaze collection requires active recording")

// Start verifies the recording state and resolves which eye to monitor.
// A tracker reporting no available eye aborts the trial so the operator can
// recalibrate.
func (g *gazeCollector) Start() error {
	if err := g.Collector.Start(); err != nil {
		return err
	}
	if !g.session.recording {
		return errNotRecording
	}
	g.fixArea = nil
	g.fixTime = 0
	if !g.session.Tracker.Connected() {
		return nil
	}
	switch eye := g.session.Tracker.EyeAvailable(); eye {
	case EyeBoth:
		g.eye = g.session.Params.EyeUsed
	case EyeNone:
		return Abort(SetupRequested)
	default:
		g.eye = eye
	}
	return nil
}

// Respond runs the shared timeout/min-RT checks and then consults the
// tracker exactly once, whether or not any queue events arrived this tick.
func (g *gazeCollector) Respond([]Event) (bool, error) {
	return g.Collector.Respond([]Event{{}})
}

func (g *gazeCollector) handleEvent(Event) (bool, error) {
	if !g.session.recording {
		g.Stop()
		return false, nil
	}
	if g.session.Tracker.Connected() {
		return g.checker.checkGaze()
	}
	// No tracking hardware attached: after the configured fallback delay,
	// synthesize acceptance of the first candidate area so the rest of the
	// experiment can be exercised without the tracker.
	fallback := g.session.Params.OfflineGazeFallbackMS
	if fallback == 0 {
		return false, Abort(SetupRequested)
	}
	if g.session.Clock.Now() >= g.onset+fallback {
		resp := ""
		if len(g.cfg.Areas) > 0 {
			resp = g.cfg.Areas[0].Label()
		}
		g.accept(resp, g.onset+fallback)
		g.Stop()
		return true, nil
	}
	return false, nil
}

// sampleForEye reports whether the sample belongs to the monitored eye.
func (g *gazeCollector) sampleForEye(s Sample) bool {
	return s.Eye == g.eye || s.Eye == EyeBoth
}

// ContinuousGaze registers a response once gaze has remained continuously
// inside one of the candidate areas for at least MinDwell milliseconds.
// Leaving the area discards the dwell timer; gaze must re-enter and dwell
// the full threshold again.
type ContinuousGaze struct {
	gazeCollector
}

func NewContinuousGaze(s *Session, cfg CollectorConfig) *ContinuousGaze {
	g := &ContinuousGaze{}
	g.checker = g
	g.Collector = newCollector(s, cfg, g, "gaze")
	return g
}

func (g *ContinuousGaze) checkGaze() (bool, error) {
	t := g.session.Tracker
	if g.fixArea != nil {
		// Already tracking an in-area fixation: the freshest sample either
		// keeps the dwell alive, confirms it, or discards it.
		s, ok := t.NewestSample()
		if !ok || !g.sampleForEye(s) {
			return false, nil
		}
		if !g.fixArea.Contains(s.X, s.Y) {
			g.fixArea = nil
			return false, nil
		}
		if s.Time >= g.fixTime+g.cfg.MinDwell {
			// Reaction time counts from the fixation's entry, not from the
			// sample that happened to cross the threshold.
			g.accept(g.fixArea.Label(), g.fixTime)
			t.SendMessage(g.Name() + ".END_RT")
			g.Stop()
			return true, nil
		}
		return false, nil
	}

	fx, ok := t.NextFixation()
	if !ok || fx.Eye != g.eye {
		return false, nil
	}
	x, y := fx.AvgX, fx.AvgY
	if fx.Kind == FixationStart {
		x, y = fx.StartX, fx.StartY
	}
	for _, area := range g.cfg.Areas {
		if area.Contains(x, y) {
			g.fixArea = area
			g.fixTime = fx.StartTime
			break
		}
	}
	return false, nil
}

// GazeSample registers a response as soon as any sample falls inside a
// candidate area, with no dwell requirement.
type GazeSample struct {
	gazeCollector
}

func NewGazeSample(s *Session, cfg CollectorConfig) *GazeSample {
	g := &GazeSample{}
	g.checker = g
	g.Collector = newCollector(s, cfg, g, "gaze_sample")
	return g
}

func (g *GazeSample) checkGaze() (bool, error) {
	t := g.session.Tracker
	s, ok := t.NewestSample()
	if !ok || !g.sampleForEye(s) {
		return false, nil
	}
	for _, area := range g.cfg.Areas {
		if area.Contains(s.X, s.Y) {
			g.accept(area.Label(), s.Time)
			t.SendMessage(g.Name() + ".END_RT")
			g.Stop()
			return true, nil
		}
	}
	return false, nil
}
