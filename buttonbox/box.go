package buttonbox

import (
	"strconv"
	"time"

	"go.bug.st/serial"

	"gazekit/engine"
)

// cedrusKeys maps the high bits of a Cedrus status byte to the physical
// button number.
var cedrusKeys = [8]int{4, 5, 1, 7, 6, 2, 3, 8}

// Box is a Cedrus-style serial response box exposed as an input Device.
// Each status byte encodes one button edge: bits 5-7 select the button,
// bit 4 is the press/release flag.
type Box struct {
	port  serial.Port
	clock engine.Clock
	buf   []byte
}

// Open configures the serial port for polling. The read timeout is kept
// near zero so Poll never stalls the tick loop.
func Open(device string, baudrate int, clock engine.Clock) (*Box, error) {
	mode := &serial.Mode{
		BaudRate: baudrate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, err
	}
	if err := port.SetReadTimeout(time.Millisecond); err != nil {
		port.Close()
		return nil, err
	}
	return &Box{port: port, clock: clock, buf: make([]byte, 64)}, nil
}

func (b *Box) Kind() string { return "buttonbox" }

// Poll drains the bytes buffered since the last tick and converts them to
// button events. Read errors yield an empty result; the engine treats that
// as "no event this tick".
func (b *Box) Poll() []engine.Event {
	n, err := b.port.Read(b.buf)
	if err != nil || n == 0 {
		return nil
	}
	now := b.clock.Now()
	events := make([]engine.Event, 0, n)
	for _, raw := range b.buf[:n] {
		kind := engine.ButtonUp
		if (raw>>4)&1 == 1 {
			kind = engine.ButtonDown
		}
		events = append(events, engine.Event{
			Kind:  kind,
			Value: strconv.Itoa(cedrusKeys[raw>>5]),
			Time:  now,
		})
	}
	return events
}

func (b *Box) Close() error {
	return b.port.Close()
}
