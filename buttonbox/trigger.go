// Package buttonbox drives the serial response and sync hardware: a
// DLP-IO8-G TTL line driver for recorder sync pulses, and a Cedrus-style
// response box polled as an input device.
package buttonbox

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// Trigger is a DLP-IO8-G line driver. Setting a line writes the line's digit
// character; clearing it writes the matching letter from the device's
// protocol.
type Trigger struct {
	port serial.Port
}

// OpenTrigger opens and pings the device, then switches it to binary mode.
func OpenTrigger(device string, baudrate int) (*Trigger, error) {
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

	t := &Trigger{port: port}
	if !t.Ping() {
		port.Close()
		return nil, fmt.Errorf("trigger device %s did not respond to ping", device)
	}

	// Binary mode
	if _, err := port.Write([]byte{0x5C}); err != nil {
		port.Close()
		return nil, err
	}
	return t, nil
}

func (t *Trigger) Close() error {
	if t.port == nil {
		return nil
	}
	return t.port.Close()
}

// Ping checks the device is still responsive.
func (t *Trigger) Ping() bool {
	if _, err := t.port.Write([]byte{0x27}); err != nil {
		return false
	}
	buf := make([]byte, 1)
	n, err := t.port.Read(buf)
	return err == nil && n == 1 && buf[0] == 'Q'
}

// Set raises the given lines ("1" through "8").
func (t *Trigger) Set(lines string) {
	if _, err := t.port.Write([]byte(lines)); err != nil {
		fmt.Printf("write error in trigger Set: %v\n", err)
	}
}

// Clear lowers the given lines.
func (t *Trigger) Clear(lines string) {
	cmd := []byte(lines)
	for i := range cmd {
		switch cmd[i] {
		case '1':
			cmd[i] = 'Q'
		case '2':
			cmd[i] = 'W'
		case '3':
			cmd[i] = 'E'
		case '4':
			cmd[i] = 'R'
		case '5':
			cmd[i] = 'T'
		case '6':
			cmd[i] = 'Y'
		case '7':
			cmd[i] = 'U'
		case '8':
			cmd[i] = 'I'
		}
	}
	if _, err := t.port.Write(cmd); err != nil {
		fmt.Printf("write error in trigger Clear: %v\n", err)
	}
}

// Pulse raises the lines for the given duration, e.g. to mark a sound onset.
func (t *Trigger) Pulse(lines string, d time.Duration) {
	t.Set(lines)
	time.Sleep(d)
	t.Clear(lines)
}
