package updater

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/looplab/fsm"

	"github.com/openfirmware/go-uartboot/firmware"
	"github.com/openfirmware/go-uartboot/port"
	"github.com/openfirmware/go-uartboot/protocol"
)

// errReadTimeout marks a bounded read that expired without a complete
// response frame. Distinct from transport errors so the retry policy can
// treat a silent device like a Nack.
var errReadTimeout = errors.New("timed out waiting for device response")

// session is the transient state of one upload attempt. Owned and
// mutated exclusively by Updater.Run; destroyed when the session ends.
type session struct {
	updater *Updater
	machine *fsm.FSM

	port      port.Port
	image     *firmware.Image
	chunkSize int

	// bytesSent counts payload bytes through the last acknowledged
	// chunk boundary. Retries never move it backwards.
	bytesSent int

	// retry is the per-chunk retry state, reset for every chunk
	retry retryState

	started time.Time
}

// retryState tracks transmission attempts for the chunk currently in
// flight.
type retryState struct {
	attempts int
	limit    int
	lastErr  error
}

// reset prepares the state for a new chunk.
func (r *retryState) reset(limit int) {
	r.attempts = 0
	r.limit = limit
	r.lastErr = nil
}

// again records a failed attempt and reports whether another attempt is
// allowed.
func (r *retryState) again(err error) bool {
	r.attempts++
	r.lastErr = err
	return r.attempts <= r.limit
}

// close releases the serial port. Safe to call on any exit path,
// including after the reboot sequence has already swapped ports.
func (s *session) close() {
	if s.port != nil {
		_ = s.port.Close()
		s.port = nil
	}
}

// exchange sends one command frame and blocks for the device's response,
// bounded by readTimeout. A frame transmit/receive pair is atomic: it is
// never interrupted once started.
func (s *session) exchange(op string, frame []byte, readTimeout time.Duration) (statusCode byte, data []byte, err error) {
	if err := s.writeAll(frame); err != nil {
		return 0, nil, fmt.Errorf("%s: write frame: %w", op, err)
	}

	response, err := s.readFrame(readTimeout)
	if err != nil {
		return 0, nil, fmt.Errorf("%s: %w", op, err)
	}

	statusCode, data, err = protocol.ParseResponse(response)
	if err != nil {
		return 0, nil, fmt.Errorf("%s: %w", op, err)
	}
	return statusCode, data, nil
}

// writeAll writes the whole frame, looping over short writes.
func (s *session) writeAll(frame []byte) error {
	for len(frame) > 0 {
		n, err := s.port.Write(frame)
		if err != nil {
			return err
		}
		frame = frame[n:]
	}
	return nil
}

// readFrame reads one complete response frame within budget. Serial
// reads may deliver partial frames, so bytes are accumulated until the
// length field says the frame is whole.
func (s *session) readFrame(budget time.Duration) ([]byte, error) {
	deadline := time.Now().Add(budget)
	buf := make([]byte, 0, protocol.MinFrameSize)
	tmp := make([]byte, 256)
	need := protocol.MinFrameSize

	for len(buf) < need {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, errReadTimeout
		}
		if err := s.port.SetReadTimeout(remaining); err != nil {
			return nil, fmt.Errorf("set read timeout: %w", err)
		}

		n, err := s.port.Read(tmp)
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		if n == 0 {
			// go.bug.st/serial reports an expired read timeout as a
			// zero-byte read with a nil error.
			return nil, errReadTimeout
		}
		buf = append(buf, tmp[:n]...)

		if len(buf) >= 4 {
			dataLen := binary.LittleEndian.Uint16(buf[2:4])
			need = protocol.MinFrameSize + int(dataLen)
		}
	}

	return buf[:need], nil
}
