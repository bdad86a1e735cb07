package updater

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/openfirmware/go-uartboot/firmware"
	"github.com/openfirmware/go-uartboot/port"
	"github.com/openfirmware/go-uartboot/protocol"
)

// probeReadTimeout bounds a single identification exchange. Kept short:
// the surrounding backoff poll supplies the overall budget.
const probeReadTimeout = 500 * time.Millisecond

// Updater drives a firmware update session against the bootloader: it
// decodes the image, optionally reboots the running application into
// update mode, transfers the image in acknowledged chunks, and verifies
// the transfer with a CRC-32 finalize exchange.
//
// One Updater runs one session at a time; the port claim rejects a
// second session against the same device.
type Updater struct {
	opener port.Opener
	config Config
}

// Result reports the terminal state of a session. Returned for failed
// sessions too, so callers can surface how far the transfer got.
type Result struct {
	// State is the terminal session state: StateCompleted or StateFailed
	State string

	// BytesSent is the number of payload bytes acknowledged by the device
	BytesSent int

	// Elapsed is the total session duration
	Elapsed time.Duration
}

// New creates an Updater that connects through the given opener.
//
// Example:
//
//	opener := &port.Serial{Device: "/dev/ttyACM0", Baud: 115200}
//	u := updater.New(opener,
//	    updater.WithReboot(true),
//	    updater.WithChunkSize(4096),
//	)
func New(opener port.Opener, opts ...Option) *Updater {
	if opener == nil {
		panic("opener cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Updater{
		opener: opener,
		config: cfg,
	}
}

// Run performs one complete update session:
//  1. Decode the firmware file (.hex or .bin, by extension)
//  2. Optionally reboot the running application into the bootloader
//  3. Await the bootloader's identification response
//  4. Transfer the image in acknowledged chunks with per-chunk retries
//  5. Finalize with the CRC-32 integrity value and await verification
//
// All decoding errors are reported before the device is opened. The
// session can be cancelled via context between chunks; a single frame
// exchange is atomic and is not interrupted once started.
//
// The returned Result is non-nil even on failure and carries the
// terminal state and the bytes acknowledged so far.
func (u *Updater) Run(ctx context.Context, path string) (*Result, error) {
	s := &session{
		updater:   u,
		machine:   newSessionFSM(),
		chunkSize: u.config.ChunkSize,
		started:   time.Now(),
	}

	// Idle -> Decoding. Fail fast on a bad image: no device I/O has
	// happened yet, so a parse error leaves no hardware side effects.
	s.advance(ctx, eventStart)
	s.report(PhaseDecoding)

	img, err := firmware.Parse(path, u.config.BinLoadAddress)
	if err != nil {
		return s.fail(ctx, err)
	}
	s.image = img
	u.logInfo("image decoded",
		"segments", len(img.Segments),
		"bytes", img.TotalSize(),
	)

	p, err := u.opener.Open()
	if err != nil {
		return s.fail(ctx, fmt.Errorf("open %s: %w", u.opener.Name(), err))
	}
	s.port = p
	defer s.close()

	// Decoding -> RebootPending, only when requested.
	if u.config.Reboot {
		s.advance(ctx, eventReboot)
		s.report(PhaseRebooting)
		if err := s.rebootIntoBootloader(ctx); err != nil {
			return s.fail(ctx, err)
		}
	}

	// -> AwaitingBootloader. Presence is verified here regardless of
	// whether a reboot was sequenced: the reboot is best-effort
	// signaling and is never trusted on its own.
	s.advance(ctx, eventProbe)
	s.report(PhaseSyncing)
	info, err := s.probe(ctx, u.config.SyncTimeout)
	if err != nil {
		return s.fail(ctx, &BootloaderNotFoundError{Device: u.opener.Name(), Err: err})
	}
	u.logInfo("bootloader identified",
		"protocol", fmt.Sprintf("%d.%d", info.VersionMajor, info.VersionMinor),
		"buffer_size", info.BufferSize,
	)
	if info.BufferSize > 0 && s.chunkSize > int(info.BufferSize) {
		u.logDebug("clamping chunk size to device buffer",
			"configured", s.chunkSize,
			"device", info.BufferSize,
		)
		s.chunkSize = int(info.BufferSize)
	}

	// AwaitingBootloader -> Transferring.
	s.advance(ctx, eventTransfer)
	if err := s.transfer(ctx); err != nil {
		return s.fail(ctx, err)
	}

	// Transferring -> Verifying.
	s.advance(ctx, eventFinalize)
	s.report(PhaseVerifying)
	if err := s.finalize(); err != nil {
		return s.fail(ctx, err)
	}

	// Verifying -> Completed.
	s.advance(ctx, eventComplete)
	s.report(PhaseComplete)
	u.logInfo("update complete",
		"bytes", s.bytesSent,
		"elapsed", time.Since(s.started).String(),
	)

	return s.result(), nil
}

// rebootIntoBootloader sends the reboot command to the running
// application, rides out the disconnect/re-enumeration, and waits for
// the bootloader's ready indicator. Device reappearance latency varies
// across host operating systems, so both waits are bounded backoff polls
// rather than fixed sleeps.
func (s *session) rebootIntoBootloader(ctx context.Context) error {
	u := s.updater
	u.logInfo("sending reboot command")

	if err := s.writeAll([]byte(protocol.RebootCommand)); err != nil {
		return fmt.Errorf("send reboot command: %w", err)
	}

	// The device drops off the bus; close our side and reacquire.
	_ = s.port.Close()
	s.port = nil

	rebootStart := time.Now()
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxInterval = time.Second
	bo.MaxElapsedTime = u.config.RebootTimeout

	var reopened port.Port
	reopen := func() error {
		p, err := u.opener.Open()
		if err != nil {
			return err
		}
		reopened = p
		return nil
	}
	notify := func(err error, next time.Duration) {
		u.logDebug("port not back yet", "error", err, "retry_in", next.String())
	}
	if err := backoff.RetryNotify(reopen, backoff.WithContext(bo, ctx), notify); err != nil {
		return &PortReacquisitionError{Device: u.opener.Name(), Err: err}
	}
	s.port = reopened

	remaining := u.config.RebootTimeout - time.Since(rebootStart)
	if remaining <= 0 {
		return &RebootTimeoutError{Device: u.opener.Name(), Timeout: u.config.RebootTimeout}
	}
	if _, err := s.probe(ctx, remaining); err != nil {
		return &RebootTimeoutError{Device: u.opener.Name(), Timeout: u.config.RebootTimeout}
	}
	return nil
}

// probe polls for the bootloader's identification response within
// budget. Each attempt flushes stale input, nudges the device into
// update mode, and sends an ident frame.
func (s *session) probe(ctx context.Context, budget time.Duration) (*protocol.DeviceInfo, error) {
	u := s.updater

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxInterval = time.Second
	bo.MaxElapsedTime = budget

	var info *protocol.DeviceInfo
	attempt := func() error {
		_ = s.port.ResetInputBuffer()
		if err := s.writeAll([]byte{protocol.UpdateTrigger}); err != nil {
			return backoff.Permanent(fmt.Errorf("send update trigger: %w", err))
		}

		statusCode, data, err := s.exchange("ident", protocol.BuildIdentCmd(), probeReadTimeout)
		if err != nil {
			return err
		}
		if statusCode != protocol.StatusAck {
			return &protocol.ProtocolError{Operation: "ident", StatusCode: statusCode}
		}

		info, err = protocol.ParseIdentResponse(data)
		return err
	}
	notify := func(err error, next time.Duration) {
		u.logDebug("bootloader not ready", "error", err, "retry_in", next.String())
	}
	if err := backoff.RetryNotify(attempt, backoff.WithContext(bo, ctx), notify); err != nil {
		return nil, err
	}
	return info, nil
}

// transfer sends every segment of the image in acknowledged chunks.
// Cancellation is checked between chunks only.
func (s *session) transfer(ctx context.Context) error {
	for _, seg := range s.image.Segments {
		addr := seg.Address
		data := seg.Data
		for len(data) > 0 {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("cancelled: %w", err)
			}

			n := min(s.chunkSize, len(data))
			if err := s.sendChunk(addr, data[:n]); err != nil {
				return err
			}

			s.bytesSent += n
			addr += uint32(n)
			data = data[n:]
			s.report(PhaseTransferring)
		}
	}
	return nil
}

// sendChunk transmits one chunk and waits for its acknowledgement,
// retrying the same chunk on Nack or timeout up to the retry limit.
// The forward progress counter only advances on an Ack, so a retry never
// re-sends already-acknowledged chunks.
func (s *session) sendChunk(addr uint32, data []byte) error {
	u := s.updater

	frame, err := protocol.BuildWriteChunkCmd(addr, data)
	if err != nil {
		return err
	}

	s.retry.reset(u.config.Retries)
	for {
		statusCode, _, err := s.exchange("write chunk", frame, u.config.ReadTimeout)
		if err == nil && statusCode == protocol.StatusAck {
			return nil
		}
		if err == nil {
			err = &protocol.ProtocolError{Operation: "write chunk", StatusCode: statusCode}
		}

		if !s.retry.again(err) {
			return &TransferAbortedError{
				Address:   addr,
				Attempts:  s.retry.attempts,
				BytesSent: s.bytesSent,
				Err:       s.retry.lastErr,
			}
		}
		u.logDebug("retrying chunk",
			"address", fmt.Sprintf("0x%08X", addr),
			"attempt", s.retry.attempts,
			"error", err,
		)
	}
}

// finalize sends the integrity record and waits for the device's
// verdict. A Nack means the device's CRC-32 over what it received
// doesn't match; that is never retried here, since the image or the link
// is suspect and only a fresh session can help.
func (s *session) finalize() error {
	u := s.updater

	payload := s.image.Bytes()
	checksum := protocol.ImageChecksum(payload)
	u.logInfo("finalizing transfer",
		"length", len(payload),
		"crc32", fmt.Sprintf("0x%08X", checksum),
	)

	frame := protocol.BuildFinalizeCmd(uint32(len(payload)), checksum)
	statusCode, _, err := s.exchange("finalize", frame, u.config.ReadTimeout)
	if err != nil {
		return &TransferAbortedError{
			Attempts:  1,
			BytesSent: s.bytesSent,
			Err:       err,
		}
	}
	if statusCode != protocol.StatusAck {
		return &IntegrityMismatchError{Checksum: checksum, StatusCode: statusCode}
	}
	return nil
}

// advance fires a session event. Transitions are statically valid, so a
// rejection indicates a bug and is only logged.
func (s *session) advance(ctx context.Context, event string) {
	if err := s.machine.Event(ctx, event); err != nil {
		s.updater.logError("state transition rejected", "event", event, "error", err)
	}
}

// fail moves the session to the terminal Failed state and returns the
// diagnostic result alongside the error.
func (s *session) fail(ctx context.Context, err error) (*Result, error) {
	if s.machine.Can(eventFail) {
		s.advance(ctx, eventFail)
	}
	s.report(PhaseFailed)
	s.updater.logError("update failed",
		"error", err,
		"bytes_sent", s.bytesSent,
	)
	return s.result(), err
}

// result snapshots the session outcome.
func (s *session) result() *Result {
	return &Result{
		State:     s.machine.Current(),
		BytesSent: s.bytesSent,
		Elapsed:   time.Since(s.started),
	}
}

// report calls the progress callback if configured.
func (s *session) report(phase string) {
	cb := s.updater.config.ProgressCallback
	if cb == nil {
		return
	}

	total := 0
	if s.image != nil {
		total = s.image.TotalSize()
	}
	pct := 0.0
	if total > 0 {
		pct = float64(s.bytesSent) / float64(total) * 100
	}
	if phase == PhaseComplete {
		pct = 100
	}

	cb(Progress{
		Phase:       phase,
		BytesSent:   s.bytesSent,
		TotalBytes:  total,
		Percentage:  pct,
		ElapsedTime: time.Since(s.started),
	})
}

// logDebug logs a debug message if a logger is configured.
func (u *Updater) logDebug(msg string, keysAndValues ...interface{}) {
	if u.config.Logger != nil {
		u.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (u *Updater) logInfo(msg string, keysAndValues ...interface{}) {
	if u.config.Logger != nil {
		u.config.Logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (u *Updater) logError(msg string, keysAndValues ...interface{}) {
	if u.config.Logger != nil {
		u.config.Logger.Error(msg, keysAndValues...)
	}
}
