package engine

import (
	"fmt"
)

// Trial composes presentations into a retryable unit of work. The Body runs
// under a fresh log scope and trial number; any TrialAbort it returns unwinds
// to Record, which decides whether to retry, skip, or terminate the session.
type Trial struct {
	// Name identifies the trial kind in operator diagnostics.
	Name string
	// Metadata is logged at the trial level, once per attempt.
	Metadata map[string]any
	// RTPeriod optionally names the two recorder messages bracketing the
	// reaction-time window, for post-hoc filtering.
	RTPeriod [2]string
	// ScreenImage optionally names the image file the analysis tool draws
	// behind this trial's gaze data.
	ScreenImage string
	// InterestAreaFile optionally names the interest-area set the analysis
	// tool overlays on this trial.
	InterestAreaFile string
	// Body defines what the subject sees and does.
	Body func(*Session) error
}

// Record runs the trial with abort handling. The returned error is nil on
// completion or skip; RepeatTrial and SetupRequested are resolved internally
// by re-running the body; AbortExperiment, UserEscape and non-abort errors
// propagate to the caller.
func (t *Trial) Record(s *Session) error {
	for {
		if err := s.Flush(); err != nil {
			return err
		}
		num := s.nextTrialNumber()
		s.Log.Push(map[string]any{"trial_number": num})
		s.Log.LogAttributes(t.Metadata)
		s.Tracker.SendMessage(fmt.Sprintf("TRIALID %d", num))
		s.Tracker.SendCommand(fmt.Sprintf("record_status_message 'TRIALID %d'", num))
		if t.RTPeriod[0] != "" && t.RTPeriod[1] != "" {
			s.Tracker.SendMessage(fmt.Sprintf("!V V_CRT MESSAGE %s %s", t.RTPeriod[0], t.RTPeriod[1]))
		}
		if t.ScreenImage != "" {
			s.Tracker.SendMessage(fmt.Sprintf("!V IMGLOAD FILL %s", t.ScreenImage))
		}
		if t.InterestAreaFile != "" {
			s.Tracker.SendMessage(fmt.Sprintf("!V IAREA FILE %s", t.InterestAreaFile))
		}

		err := t.Body(s)
		if err == nil {
			s.Log.LogAttributes(map[string]any{"trial_abort": "none"})
			t.exportTrialVars(s)
			if err := s.Log.Pop(); err != nil {
				return err
			}
			s.Tracker.SendMessage("TRIAL_RESULT 0")
			return nil
		}

		t.cleanup(s)
		abort, isAbort := AsAbort(err)
		if isAbort {
			s.Log.LogAttributes(map[string]any{"trial_abort": abort.Kind.String()})
		} else {
			s.Log.LogAttributes(map[string]any{"trial_abort": "error"})
		}
		t.exportTrialVars(s)
		if popErr := s.Log.Pop(); popErr != nil {
			return popErr
		}
		if !isAbort {
			// Programming or configuration error: never retried.
			s.Tracker.SendMessage("TRIAL_RESULT -1")
			return err
		}
		s.Tracker.SendMessage(fmt.Sprintf("TRIAL_RESULT %d", int(abort.Kind)+1))

		switch abort.Kind {
		case RepeatTrial:
			s.Logger.Warn("trial aborted, repeating", "trial", num, "name", t.Name)
		case SetupRequested:
			s.Logger.Warn("trial aborted for tracker setup", "trial", num, "name", t.Name)
			if setupErr := s.Tracker.Setup(); setupErr != nil {
				return setupErr
			}
		case SkipTrial:
			s.Logger.Warn("trial skipped", "trial", num, "name", t.Name)
			return nil
		default:
			return err
		}
	}
}

// cleanup brings the session back to a quiescent state after an abort: every
// active collector is stopped, in-flight audio is silenced and recording is
// marked inactive, before the retry decision runs.
func (t *Trial) cleanup(s *Session) {
	for _, rc := range s.ActiveCollectors() {
		rc.Stop()
	}
	if s.Mixer != nil {
		s.Mixer.StopAll()
	}
	if s.recording {
		s.Tracker.StopRecording()
		s.recording = false
	}
}

// exportTrialVars mirrors the trial's effective log attributes to the
// recorder so its analysis tools see the same metadata.
func (t *Trial) exportTrialVars(s *Session) {
	for key, value := range s.Log.CurrentData() {
		s.Tracker.SendMessage(fmt.Sprintf("!V TRIAL_VAR %s %v", key, value))
	}
}

// StartRecording begins tracker recording and verifies data is arriving.
// Failure to see data within a second aborts the trial into tracker setup.
func StartRecording(s *Session) error {
	if err := s.Tracker.StartRecording(); err != nil {
		return err
	}
	s.recording = true
	if err := s.Tracker.WaitForBlockStart(1000); err != nil {
		s.Logger.Error("link data not received", "err", err)
		s.Tracker.StopRecording()
		s.recording = false
		return Abort(SetupRequested)
	}
	return nil
}

// StopRecording ends tracker recording if it is active.
func StopRecording(s *Session) {
	if !s.recording {
		return
	}
	s.Tracker.StopRecording()
	s.recording = false
}

// DriftCorrect runs a drift check at the given position between trials,
// looping through tracker setup whenever the operator escapes into it.
func DriftCorrect(s *Session, x, y float64) error {
	if s.recording {
		return fmt.Errorf("drift correct while recording in progress")
	}
	for {
		err := s.Tracker.DriftCorrect(x, y)
		if err == nil {
			return nil
		}
		if abort, ok := AsAbort(err); ok && abort.Kind == SetupRequested {
			if err := s.Tracker.Setup(); err != nil {
				return err
			}
			continue
		}
		return err
	}
}

// GazeFixation blocks until the subject has fixated inside the area for
// minDwell milliseconds (the session's MinFixationMS when zero), ticking
// throughout so aborts are noticed. The usual use is a gaze-contingent
// fixation check before the critical stimulus.
func GazeFixation(s *Session, area Area, minDwell uint64) error {
	if minDwell == 0 {
		minDwell = s.Params.MinFixationMS
	}
	rc := NewContinuousGaze(s, CollectorConfig{
		Name:     "gc_fixation",
		Areas:    []Area{area},
		MinDwell: minDwell,
		Duration: Unbounded(),
		Logging:  []string{},
	})
	if err := rc.Start(); err != nil {
		rc.Stop()
		return err
	}
	for rc.Running() {
		if _, err := s.CheckForResponse(); err != nil {
			rc.Stop()
			return err
		}
	}
	return nil
}
