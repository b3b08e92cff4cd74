package engine

import (
	"errors"
	"fmt"
)

// ErrMixerBusy is returned when a sound presentation finds no free mixer slot.
var ErrMixerBusy = errors.New("audio mixer: no free slot")

// Renderer commits a prepared stimulus to the output medium. The engine only
// measures the cost of the commit; what is rendered, and how, is the
// caller's concern.
type Renderer interface {
	Commit() error
}

// RendererFunc adapts a plain function to the Renderer interface.
type RendererFunc func() error

func (f RendererFunc) Commit() error { return f() }

// NopRenderer commits nothing, for presentations that only collect input.
var NopRenderer = RendererFunc(func() error { return nil })

// CollectorFactory builds a display's automatic response collector.
type CollectorFactory func(*Session, CollectorConfig) ResponseCollector

// DisplayConfig parameterizes one presentation.
type DisplayConfig struct {
	// Name prefixes the display's log attributes. Defaults to "display".
	Name string
	// Duration bounds the run loop; for displays the zero value means
	// unbounded (the presentation ends only through a collector response).
	Duration Duration
	// TriggerLine, when set, raises that TTL line at onset and clears it
	// when the run loop exits.
	TriggerLine string
	// Logging lists the attributes written when the run loop exits
	// (collector attributes plus "onset_time" and "swap_time"). nil selects
	// the default: rt/acc/resp/cresp when Correct is configured and the
	// collector was automatic.
	Logging []string

	// Accept, Correct and MinRT configure the automatic collector built
	// when no explicit collectors are passed.
	Accept  []string
	Correct *string
	MinRT   uint64
	// NewCollector overrides the automatic collector's kind; the default
	// builds a Keyboard.
	NewCollector CollectorFactory
}

// Display owns a stimulus and zero or more response collectors, schedules an
// exact onset, runs the scheduling loop until a collector responds or the
// duration elapses, and records the onset uncertainty. A Display is created
// per use and not reused across concurrent activations.
type Display struct {
	session    *Session
	cfg        DisplayConfig
	renderer   Renderer
	collectors []ResponseCollector
	// auto is set when the display built its own collector; result
	// accessors then fall through to it.
	auto ResponseCollector

	onset uint64
	swap  uint64
}

// NewDisplay builds a presentation. When no collectors are passed, one is
// created from the config's Accept/Correct/MinRT fields (a Keyboard unless
// NewCollector says otherwise), bound to the display's lifetime, and its
// results are exposed through the display's accessors.
func NewDisplay(s *Session, r Renderer, cfg DisplayConfig, collectors ...ResponseCollector) *Display {
	if cfg.Name == "" {
		cfg.Name = "display"
	}
	d := &Display{session: s, cfg: cfg, renderer: r, collectors: collectors}
	if len(collectors) == 0 {
		factory := cfg.NewCollector
		if factory == nil {
			factory = func(s *Session, c CollectorConfig) ResponseCollector {
				return NewKeyboard(s, c)
			}
		}
		accept := cfg.Accept
		if accept == nil {
			accept = []string{Any}
		}
		d.auto = factory(s, CollectorConfig{
			Name:    cfg.Name,
			Accept:  accept,
			Correct: cfg.Correct,
			MinRT:   cfg.MinRT,
			// The display logs the inherited results itself; the collector
			// logging nothing avoids duplicate rows.
			Logging: []string{},
		})
		d.collectors = []ResponseCollector{d.auto}
	}
	if d.cfg.Logging == nil && d.cfg.Correct != nil && d.auto != nil {
		d.cfg.Logging = []string{"rt", "acc", "resp", "cresp"}
	}
	return d
}

// Collectors returns the collectors owned by this display.
func (d *Display) Collectors() []ResponseCollector { return d.collectors }

// Onset is the timestamp the commit began.
func (d *Display) Onset() uint64 { return d.onset }

// SwapTime is the measured cost of the commit plus collector startup: the
// true onset lies in [Onset, Onset+SwapTime], and a measured reaction time
// may overestimate the true one by up to SwapTime.
func (d *Display) SwapTime() uint64 { return d.swap }

// Response, RT and Accuracy fall through to the automatic collector, or to
// the first owned collector when the caller supplied them.
func (d *Display) Response() (string, bool) { return d.resultCollector().Response() }

func (d *Display) RT() (uint64, bool) { return d.resultCollector().RT() }

func (d *Display) Accuracy() (int, bool) { return d.resultCollector().Accuracy() }

func (d *Display) resultCollector() ResponseCollector {
	if d.auto != nil {
		return d.auto
	}
	return d.collectors[0]
}

// Draw waits for the requested onset (while still ticking, so aborts are
// noticed), commits the stimulus, starts the owned collectors and records
// the swap time. A zero onset presents immediately.
func (d *Display) Draw(onset uint64) error {
	for d.session.Clock.Now() < onset {
		if _, err := d.session.CheckForResponse(); err != nil {
			return err
		}
	}
	d.onset = d.session.Clock.Now()
	if err := d.renderer.Commit(); err != nil {
		return err
	}
	if d.cfg.TriggerLine != "" && d.session.Trigger != nil {
		d.session.Trigger.Set(d.cfg.TriggerLine)
	}
	for _, rc := range d.collectors {
		if err := rc.Start(); err != nil {
			return err
		}
	}
	d.swap = d.session.Clock.Now() - d.onset
	d.session.Tracker.SendMessage(fmt.Sprintf("%s.SYNCTIME %d", d.cfg.Name, d.swap))
	return nil
}

// Run presents the stimulus and runs the scheduling loop until the display's
// duration elapses or any owned collector reaches a terminal outcome.
func (d *Display) Run(onset uint64) error {
	// Clear input buffered before the presentation.
	if _, err := d.session.CheckForResponse(); err != nil {
		return err
	}
	if d.cfg.TriggerLine != "" && d.session.Trigger != nil {
		// Lowered on every exit path: an abort mid-run must not leave the
		// line high into the next trial.
		defer d.session.Trigger.Clear(d.cfg.TriggerLine)
	}
	if err := d.Draw(onset); err != nil {
		return err
	}

loop:
	for {
		if d.cfg.Duration.isFixed() && d.session.Clock.Now() >= d.onset+d.cfg.Duration.MS {
			break
		}
		finished, err := d.session.CheckForResponse()
		if err != nil {
			return err
		}
		for _, done := range finished {
			for _, own := range d.collectors {
				if done == own {
					break loop
				}
			}
		}
	}

	for _, rc := range d.collectors {
		if rc.stimulusBound() {
			rc.Stop()
		}
	}
	// One final drain so late stop-triggering events (e.g. the release
	// matching an accepted press) are not lost before the next presentation.
	if _, err := d.session.CheckForResponse(); err != nil {
		return err
	}
	d.emitLog()
	return nil
}

func (d *Display) emitLog() {
	if len(d.cfg.Logging) == 0 {
		return
	}
	attrs := make(map[string]any, len(d.cfg.Logging))
	for _, name := range d.cfg.Logging {
		attrs[d.cfg.Name+"."+name] = d.attrValue(name)
	}
	d.session.Log.LogAttributes(attrs)
}

// attrValue checks the display's own fields first, then the result
// collector's.
func (d *Display) attrValue(name string) any {
	switch name {
	case "onset_time":
		return d.onset
	case "swap_time":
		return d.swap
	}
	return d.resultCollector().attrValue(name)
}
