package engine

import (
	"log/slog"
)

// Trigger is a TTL output used to mark stimulus onsets on an external
// recorder. Lines are named "1" through "8".
type Trigger interface {
	Set(lines string)
	Clear(lines string)
}

// Session is the context every component of a running experiment shares:
// the clock, the tracker, the registered input devices, the process-wide
// event queue, the set of active response collectors and the event log.
//
// Scheduling is strictly single-threaded and cooperative. One logical tick
// (CheckForResponse) drains every device into the queue, hands the batch to
// every active collector and clears the queue. No component blocks except by
// repeatedly yielding through a tick, so an operator abort is observed within
// one tick's latency anywhere in a trial.
type Session struct {
	Clock   Clock
	Tracker Tracker
	Trigger Trigger // optional
	Mixer   *Mixer  // optional
	Params  Params
	Log     *EventLog
	Logger  *slog.Logger

	devices     []Device
	queue       []Event
	active      []ResponseCollector
	trialNumber int
	recording   bool
}

func NewSession(clock Clock, tracker Tracker, params Params, log *EventLog) *Session {
	if log == nil {
		log = NewEventLog(nil)
	}
	return &Session{
		Clock:   clock,
		Tracker: tracker,
		Params:  params,
		Log:     log,
		Logger:  slog.Default(),
	}
}

// RegisterDevice adds a device to the poll set. Registration is idempotent
// per device kind; a second device of an already registered kind is ignored.
func (s *Session) RegisterDevice(d Device) {
	for _, existing := range s.devices {
		if existing.Kind() == d.Kind() {
			return
		}
	}
	s.devices = append(s.devices, d)
}

// Device returns the registered device of the given kind, or nil.
func (s *Session) Device(kind string) Device {
	for _, d := range s.devices {
		if d.Kind() == kind {
			return d
		}
	}
	return nil
}

// TrialNumber is the ordinal of the most recently started trial attempt.
// Retries increment it again.
func (s *Session) TrialNumber() int { return s.trialNumber }

func (s *Session) nextTrialNumber() int {
	s.trialNumber++
	return s.trialNumber
}

// Recording reports whether tracker recording is active.
func (s *Session) Recording() bool { return s.recording }

func (s *Session) activate(rc ResponseCollector) {
	s.active = append(s.active, rc)
}

func (s *Session) deactivate(rc ResponseCollector) {
	for i, c := range s.active {
		if c == rc {
			s.active = append(s.active[:i], s.active[i+1:]...)
			return
		}
	}
}

// ActiveCollectors snapshots the currently running collectors.
func (s *Session) ActiveCollectors() []ResponseCollector {
	out := make([]ResponseCollector, len(s.active))
	copy(out, s.active)
	return out
}

// updateEvents polls every device in registration order, appending to the
// shared queue, after verifying the tracker is still recording healthily.
func (s *Session) updateEvents() error {
	if s.recording {
		if err := s.Tracker.RecordingStatus(); err != nil {
			return err
		}
	}
	for _, d := range s.devices {
		s.queue = append(s.queue, d.Poll()...)
	}
	return nil
}

// drain takes the pending events and clears the queue.
func (s *Session) drain() ([]Event, error) {
	if err := s.updateEvents(); err != nil {
		return nil, err
	}
	events := s.queue
	s.queue = nil
	return events, nil
}

// CheckForResponse is the tick operation. It drains all devices, checks for
// the operator escape key, lets every active collector react to the batch,
// and returns the collectors that reached a terminal outcome this tick.
func (s *Session) CheckForResponse() ([]ResponseCollector, error) {
	events, err := s.drain()
	if err != nil {
		return nil, err
	}
	if s.Params.EscapeKey != "" {
		for _, ev := range events {
			if ev.Kind == KeyDown && ev.Value == s.Params.EscapeKey {
				return nil, Abort(UserEscape)
			}
		}
	}
	var finished []ResponseCollector
	for _, rc := range s.ActiveCollectors() {
		done, err := rc.Respond(events)
		if err != nil {
			return finished, err
		}
		if done {
			finished = append(finished, rc)
		}
	}
	return finished, nil
}

// Wait keeps ticking for the given number of milliseconds, e.g. for
// inter-trial pauses. Aborts raised during the wait propagate.
func (s *Session) Wait(ms uint64) error {
	deadline := s.Clock.Now() + ms
	for s.Clock.Now() < deadline {
		if _, err := s.CheckForResponse(); err != nil {
			return err
		}
	}
	return nil
}

// Flush discards any input buffered since the last tick without letting
// collectors see it.
func (s *Session) Flush() error {
	_, err := s.drain()
	return err
}
