package engine

// Any, as a member of an acceptance set, accepts every response the device
// can deliver.
const Any = "any"

// RespondNone, assigned to CollectorConfig.Correct, means the correct
// behavior is to not respond at all: any recorded response scores 0, a
// timeout with no response scores 1.
const RespondNone = "none"

type durationKind int

const (
	durStimulus durationKind = iota // tied to the owning presentation
	durInfinite
	durFixed
)

// Duration is a collector's or presentation's duration policy. The zero
// value ties a collector's lifetime to its owning presentation.
type Duration struct {
	kind durationKind
	MS   uint64
}

// FixedDuration bounds the activation to the given number of milliseconds.
func FixedDuration(ms uint64) Duration { return Duration{kind: durFixed, MS: ms} }

// Unbounded never times out on its own.
func Unbounded() Duration { return Duration{kind: durInfinite} }

// StimulusBound is force-stopped when the owning presentation's run loop
// exits. It is the default.
func StimulusBound() Duration { return Duration{kind: durStimulus} }

func (d Duration) isFixed() bool    { return d.kind == durFixed }
func (d Duration) isStimulus() bool { return d.kind == durStimulus }

// ClickTarget pairs a pointer button with a screen area for click collectors.
type ClickTarget struct {
	Button string // "left", "middle", "right", ...
	Area   Area
}

// CollectorConfig is the explicit, typed parameter set shared by all
// response collectors. Fields irrelevant to a given collector kind are
// ignored by it.
type CollectorConfig struct {
	// Name identifies the collector in log rows ("name.rt", "name.resp", ...).
	// Defaults to the collector kind.
	Name string
	// Accept lists the response values the collector reacts to; Any accepts
	// everything. Used by keyboard, button, pointer-release and speech
	// collectors.
	Accept []string
	// Targets lists button/area pairs for click collectors.
	Targets []ClickTarget
	// Areas lists candidate interest areas for gaze collectors.
	Areas []Area
	// Correct is the response scored as accurate. nil means no accuracy is
	// computed; RespondNone means any response is an error.
	Correct *string
	// MinRT is the time after onset during which all input is ignored.
	MinRT uint64
	// MinDwell is the continuous in-area time required by ContinuousGaze.
	MinDwell uint64
	// Duration bounds the activation; the zero value ties it to the owning
	// presentation.
	Duration Duration
	// Logging lists the attributes written when the collector stops
	// ("rt", "acc", "resp", "cresp", "rt_time", "onset_time", "rt_offset").
	// nil selects the default: rt/acc/resp/cresp when Correct is configured,
	// nothing otherwise. An empty non-nil slice logs nothing.
	Logging []string
}

// ResponseCollector is a state machine that watches the event queue and
// decides when a response has occurred, is accepted, or timed out. Its
// lifecycle is Idle -> Active (Start) -> Terminated (Stop), with at most one
// terminal outcome per activation.
type ResponseCollector interface {
	// Start records the onset timestamp, clears any prior response and
	// registers the collector as active.
	Start() error
	// Respond reacts to one tick's events. It reports true when the
	// collector reached a terminal outcome (response or timeout).
	Respond(events []Event) (bool, error)
	// Stop finalizes accuracy, emits the configured log attributes and
	// deregisters. Stopping an inactive collector is a no-op.
	Stop()
	Running() bool
	Name() string
	Onset() uint64
	Response() (string, bool)
	RT() (uint64, bool)
	RTTime() (uint64, bool)
	Accuracy() (int, bool)

	stimulusBound() bool
	attrValue(name string) any
}

// eventHandler is the collector-specific acceptance decision.
type eventHandler interface {
	handleEvent(ev Event) (bool, error)
}

type collectorImpl interface {
	ResponseCollector
	eventHandler
}

// Collector implements the shared state machine; concrete collectors embed
// it and provide handleEvent.
type Collector struct {
	session *Session
	cfg     CollectorConfig
	self    collectorImpl

	running bool
	onset   uint64
	resp    string
	hasResp bool
	rt      uint64
	rtTime  uint64
	acc     *int

	// rtOffset tracks the release following an accepted press, for devices
	// that report both edges.
	rtOffset     uint64
	rtOffsetTime uint64
	hasOffset    bool
}

func newCollector(s *Session, cfg CollectorConfig, self collectorImpl, defaultName string) *Collector {
	if cfg.Name == "" {
		cfg.Name = defaultName
	}
	if cfg.MinRT == 0 {
		cfg.MinRT = s.Params.MinRT
	}
	if cfg.Logging == nil && cfg.Correct != nil {
		cfg.Logging = []string{"rt", "acc", "resp", "cresp"}
	}
	return &Collector{session: s, cfg: cfg, self: self}
}

func (c *Collector) Name() string { return c.cfg.Name }

func (c *Collector) Running() bool { return c.running }

func (c *Collector) Onset() uint64 { return c.onset }

func (c *Collector) stimulusBound() bool { return c.cfg.Duration.isStimulus() }

// Config exposes the collector's effective configuration.
func (c *Collector) Config() CollectorConfig { return c.cfg }

func (c *Collector) Response() (string, bool) { return c.resp, c.hasResp }

func (c *Collector) RT() (uint64, bool) {
	if !c.hasResp {
		return 0, false
	}
	return c.rt, true
}

func (c *Collector) RTTime() (uint64, bool) {
	if !c.hasResp {
		return 0, false
	}
	return c.rtTime, true
}

func (c *Collector) Accuracy() (int, bool) {
	if c.acc == nil {
		return 0, false
	}
	return *c.acc, true
}

// Start moves the collector from Idle to Active.
func (c *Collector) Start() error {
	c.onset = c.session.Clock.Now()
	c.resp = ""
	c.hasResp = false
	c.rt = 0
	c.rtTime = 0
	c.acc = nil
	c.hasOffset = false
	c.session.activate(c.self)
	c.running = true
	return nil
}

// Respond updates the state machine for one tick's event batch.
func (c *Collector) Respond(events []Event) (bool, error) {
	if !c.running {
		return false, nil
	}
	now := c.session.Clock.Now()
	if c.cfg.Duration.isFixed() && now >= c.onset+c.cfg.Duration.MS {
		c.Stop()
		return true, nil
	}
	if now < c.onset+c.cfg.MinRT {
		return false, nil
	}
	accepted := false
	for _, ev := range events {
		ok, err := c.self.handleEvent(ev)
		if err != nil {
			return false, err
		}
		if ok {
			accepted = true
		}
	}
	if accepted {
		c.scoreAccuracy()
		return true, nil
	}
	return false, nil
}

// accept records a response. rtTime is the moment of acceptance on the clock
// baseline; reaction time is measured from onset.
func (c *Collector) accept(resp string, rtTime uint64) {
	c.resp = resp
	c.hasResp = true
	c.rtTime = rtTime
	c.rt = rtTime - c.onset
}

func (c *Collector) acceptOffset(t uint64) {
	c.rtOffsetTime = t
	c.rtOffset = t - c.onset
	c.hasOffset = true
}

// accepts checks a value against the acceptance set.
func (c *Collector) accepts(value string) bool {
	for _, v := range c.cfg.Accept {
		if v == Any || v == value {
			return true
		}
	}
	return false
}

func (c *Collector) scoreAccuracy() {
	if c.cfg.Correct == nil || c.acc != nil {
		return
	}
	acc := 0
	if *c.cfg.Correct == RespondNone {
		if !c.hasResp {
			acc = 1
		}
	} else if c.hasResp && c.resp == *c.cfg.Correct {
		acc = 1
	}
	c.acc = &acc
}

// Stop moves the collector from Active to Terminated. A collector that never
// started, or already stopped, is left untouched.
func (c *Collector) Stop() {
	if !c.running {
		return
	}
	c.session.deactivate(c.self)
	c.scoreAccuracy()
	c.emitLog()
	c.running = false
}

func (c *Collector) emitLog() {
	if len(c.cfg.Logging) == 0 {
		return
	}
	attrs := make(map[string]any, len(c.cfg.Logging))
	for _, name := range c.cfg.Logging {
		attrs[c.cfg.Name+"."+name] = c.self.attrValue(name)
	}
	c.session.Log.LogAttributes(attrs)
}

// attrValue resolves a logging attribute name against the collector's
// results. Unset values come out nil and render as the NA placeholder.
func (c *Collector) attrValue(name string) any {
	switch name {
	case "rt":
		if c.hasResp {
			return c.rt
		}
	case "rt_time":
		if c.hasResp {
			return c.rtTime
		}
	case "resp":
		if c.hasResp {
			return c.resp
		}
	case "acc":
		if c.acc != nil {
			return *c.acc
		}
	case "cresp":
		if c.cfg.Correct != nil {
			return *c.cfg.Correct
		}
	case "onset_time":
		return c.onset
	case "rt_offset":
		if c.hasOffset {
			return c.rtOffset
		}
	case "rt_offset_time":
		if c.hasOffset {
			return c.rtOffsetTime
		}
	}
	return nil
}

// handleEvent makes the bare Collector usable on its own as a pure timeout;
// concrete collectors override the acceptance decision.
func (c *Collector) handleEvent(Event) (bool, error) { return false, nil }
