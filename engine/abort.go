package engine

import "errors"

// AbortKind classifies a trial abort and determines how Trial.Record reacts
// to it.
type AbortKind int

const (
	// RepeatTrial re-runs the same trial body under a fresh trial number.
	RepeatTrial AbortKind = iota
	// SkipTrial abandons the trial; the session continues with the next one.
	SkipTrial
	// AbortExperiment terminates the session.
	AbortExperiment
	// SetupRequested sends the tracker to its setup/calibration screen and
	// then re-runs the trial.
	SetupRequested
	// UserEscape is the operator escape key; it terminates the session.
	UserEscape
)

func (k AbortKind) String() string {
	switch k {
	case RepeatTrial:
		return "repeat"
	case SkipTrial:
		return "skip"
	case AbortExperiment:
		return "abort"
	case SetupRequested:
		return "setup"
	case UserEscape:
		return "escape"
	}
	return "unknown"
}

// TrialAbort is the only cancellation signal in the engine. It is returned
// as an error from any point inside a trial body and unwinds, through
// ordinary error returns, to the single catch point in Trial.Record.
type TrialAbort struct {
	Kind AbortKind
}

func (a *TrialAbort) Error() string { return "trial abort: " + a.Kind.String() }

// Abort builds a TrialAbort error of the given kind.
func Abort(kind AbortKind) error { return &TrialAbort{Kind: kind} }

// AsAbort reports whether err carries a TrialAbort.
func AsAbort(err error) (*TrialAbort, bool) {
	var a *TrialAbort
	if errors.As(err, &a) {
		return a, true
	}
	return nil, false
}
