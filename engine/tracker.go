package engine

// Eye identifies which eye a sample or fixation belongs to.
type Eye int

const (
	EyeLeft  Eye = 0
	EyeRight Eye = 1
	EyeBoth  Eye = 2
	EyeNone  Eye = -1
)

// FixationKind distinguishes the stages of fixation delivery. Trackers report
// a fixation as a start event followed by periodic updates and a final end
// event; the dwell detector accepts any of the three as evidence of entry.
type FixationKind int

const (
	FixationStart FixationKind = iota
	FixationUpdate
	FixationEnd
)

// Sample is a single gaze position report.
type Sample struct {
	Time uint64
	Eye  Eye
	X, Y float64
}

// Fixation is a parsed fixation event from the tracker's event stream.
type Fixation struct {
	Kind           FixationKind
	Eye            Eye
	StartTime      uint64
	StartX, StartY float64
	AvgX, AvgY     float64
}

// Tracker is the gaze tracking and recorder-annotation interface. The engine
// never talks to tracking hardware directly; a driver implements this and the
// Stub below stands in when no hardware is attached.
//
// SendMessage timestamps are on the Clock baseline, so annotations written to
// the recorder's data file line up with the engine's reaction times.
type Tracker interface {
	// Connected reports whether physical tracking hardware is attached.
	Connected() bool

	SendMessage(text string)
	SendCommand(cmd string)

	// EyeAvailable returns the eye(s) currently tracked, or EyeNone.
	EyeAvailable() Eye
	// NewestSample returns the freshest gaze sample, if any.
	NewestSample() (Sample, bool)
	// NextFixation pops the next buffered fixation event, if any.
	NextFixation() (Fixation, bool)

	// RecordingStatus returns nil while recording is healthy. An operator
	// action on the tracker host (abort, repeat, skip, setup) surfaces here
	// as a TrialAbort error.
	RecordingStatus() error

	StartRecording() error
	// WaitForBlockStart blocks until recorded data is arriving, or fails
	// after the given timeout.
	WaitForBlockStart(timeoutMS uint64) error
	StopRecording()

	// Setup enters the tracker's setup/calibration screen.
	Setup() error
	// DriftCorrect runs a drift check at the given screen position. A
	// SetupRequested abort means the operator escaped into setup.
	DriftCorrect(x, y float64) error

	SetOffline()
}

// Stub replaces the tracker when no hardware is attached, so sessions can be
// developed and tested on any machine. Gaze collectors detect the missing
// hardware via Connected and fall back to synthesized responses.
type Stub struct{}

func (Stub) Connected() bool { return false }

func (Stub) SendMessage(string) {}

func (Stub) SendCommand(string) {}

func (Stub) EyeAvailable() Eye { return EyeBoth }

func (Stub) NewestSample() (Sample, bool) { return Sample{}, false }

func (Stub) NextFixation() (Fixation, bool) { return Fixation{}, false }

func (Stub) RecordingStatus() error { return nil }

func (Stub) StartRecording() error { return nil }

func (Stub) WaitForBlockStart(uint64) error { return nil }

func (Stub) StopRecording() {}

func (Stub) Setup() error { return nil }

func (Stub) DriftCorrect(x, y float64) error { return nil }

func (Stub) SetOffline() {}
