package engine

// Clock is a monotonic millisecond time source. Timestamps drawn from it are
// on the same baseline as the messages sent to the recorder, so reaction
// times and tracker data can be correlated offline.
type Clock interface {
	Now() uint64
}

// EventKind identifies the semantic input kind of an Event.
type EventKind int

const (
	KeyDown EventKind = iota
	KeyUp
	ButtonDown
	ButtonUp
	PointerDown
	PointerUp
	PointerMove
	SpeechWord
)

// Event is a single timestamped input observation. Events are created by a
// Device at poll time and are immutable afterwards.
type Event struct {
	Kind  EventKind
	Value string  // key name, button label, or recognized word
	X, Y  float64 // pointer position, when applicable
	Time  uint64  // ms, clock-sourced at detection
}

// Device polls one input channel. Poll is called once per scheduling tick and
// returns the events observed since the previous call; it must not block
// beyond the cost of the hardware read and must never fail (a hardware error
// is reported as an empty result).
type Device interface {
	Kind() string
	Poll() []Event
}

// SpeechFeed adapts an external speech recognizer to the Device contract.
// The recognizer pushes words from its own thread through Submit; the tick
// loop drains them in order with Poll.
type SpeechFeed struct {
	clock Clock
	words chan string
}

func NewSpeechFeed(clock Clock, buffer int) *SpeechFeed {
	if buffer <= 0 {
		buffer = 16
	}
	return &SpeechFeed{clock: clock, words: make(chan string, buffer)}
}

func (f *SpeechFeed) Kind() string { return "speech" }

// Submit queues a recognized word. It never blocks; when the buffer is full
// the word is dropped and Submit reports false.
func (f *SpeechFeed) Submit(word string) bool {
	select {
	case f.words <- word:
		return true
	default:
		return false
	}
}

func (f *SpeechFeed) Poll() []Event {
	var events []Event
	for {
		select {
		case w := <-f.words:
			events = append(events, Event{Kind: SpeechWord, Value: w, Time: f.clock.Now()})
		default:
			return events
		}
	}
}
