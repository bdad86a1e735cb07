// Package port provides serial port access for the updater: a small
// Port/Opener abstraction the protocol engine talks through, a concrete
// implementation on go.bug.st/serial, and a process-wide claim registry
// that rejects concurrent sessions against the same device.
package port

import (
	"fmt"
	"io"
	"sync"
	"time"

	"go.bug.st/serial"
)

// DefaultBaudRate is the baud rate used when none is configured.
const DefaultBaudRate = 115200

// Port is a byte-oriented connection to the device. go.bug.st/serial
// ports satisfy it directly; tests substitute scripted implementations.
type Port interface {
	io.ReadWriteCloser

	// SetReadTimeout bounds subsequent Read calls. A Read that expires
	// returns n == 0 with a nil error.
	SetReadTimeout(t time.Duration) error

	// ResetInputBuffer discards unread input, e.g. boot chatter from
	// the application before update mode is entered.
	ResetInputBuffer() error
}

// Opener opens the connection to a device. The updater holds an Opener
// rather than a Port so it can reacquire the device across the
// reboot-induced disconnect.
type Opener interface {
	// Open opens the port. Fails with ErrPortBusy if another session in
	// this process already holds it.
	Open() (Port, error)

	// Name identifies the device, e.g. "/dev/ttyACM0" or "COM3".
	Name() string
}

// Serial opens a physical serial port via go.bug.st/serial.
type Serial struct {
	// Device is the port name, e.g. "/dev/ttyACM0" or "COM3"
	Device string

	// Baud is the baud rate; DefaultBaudRate when zero
	Baud int
}

// Name returns the device name.
func (s *Serial) Name() string { return s.Device }

// Open opens the device at 8N1 with the configured baud rate and raises
// DTR and RTS. Some USB-serial adapters and their Windows drivers don't
// pass data until both lines are asserted.
func (s *Serial) Open() (Port, error) {
	if err := claim(s.Device); err != nil {
		return nil, err
	}

	baud := s.Baud
	if baud == 0 {
		baud = DefaultBaudRate
	}

	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	p, err := serial.Open(s.Device, mode)
	if err != nil {
		release(s.Device)
		return nil, fmt.Errorf("failed to open %s: %w", s.Device, err)
	}

	_ = p.SetDTR(true)
	_ = p.SetRTS(true)

	return &serialPort{Port: p, device: s.Device}, nil
}

// serialPort wraps a go.bug.st/serial port so that closing it also
// releases the claim, exactly once.
type serialPort struct {
	serial.Port
	device      string
	releaseOnce sync.Once
}

func (p *serialPort) Close() error {
	err := p.Port.Close()
	p.releaseOnce.Do(func() { release(p.device) })
	return err
}
