package updater

import (
	"fmt"
	"time"
)

// RebootTimeoutError indicates the bootloader's ready indicator never
// appeared after the reboot command was sent. The device may not have
// acted on the command; retry manually, possibly without the reboot step
// if the device is already in bootloader mode.
type RebootTimeoutError struct {
	Device  string
	Timeout time.Duration
}

func (e *RebootTimeoutError) Error() string {
	return fmt.Sprintf("bootloader on %s not ready within %s after reboot command", e.Device, e.Timeout)
}

// PortReacquisitionError indicates the serial device could not be
// reopened after the reboot-induced disconnect.
type PortReacquisitionError struct {
	Device string
	Err    error
}

func (e *PortReacquisitionError) Error() string {
	return fmt.Sprintf("failed to reacquire port %s after reboot: %v", e.Device, e.Err)
}

func (e *PortReacquisitionError) Unwrap() error { return e.Err }

// BootloaderNotFoundError indicates the bootloader never answered the
// identification probe within the sync budget.
type BootloaderNotFoundError struct {
	Device string
	Err    error
}

func (e *BootloaderNotFoundError) Error() string {
	return fmt.Sprintf("no bootloader responding on %s: %v", e.Device, e.Err)
}

func (e *BootloaderNotFoundError) Unwrap() error { return e.Err }

// TransferAbortedError indicates a chunk exhausted its retry budget.
// BytesSent reports forward progress up to the last acknowledged chunk
// boundary.
type TransferAbortedError struct {
	// Address is the target address of the chunk that failed
	Address uint32

	// Attempts is the number of transmission attempts made
	Attempts int

	// BytesSent is the number of bytes acknowledged before the abort
	BytesSent int

	// Err is the last error observed for the chunk
	Err error
}

func (e *TransferAbortedError) Error() string {
	return fmt.Sprintf("transfer aborted at address 0x%08X after %d attempts (%d bytes sent): %v",
		e.Address, e.Attempts, e.BytesSent, e.Err)
}

func (e *TransferAbortedError) Unwrap() error { return e.Err }

// IntegrityMismatchError indicates the device's CRC-32 over the received
// image doesn't match the finalize frame. Never retried automatically:
// the image may be corrupt or the link unreliable, so a fresh session is
// required.
type IntegrityMismatchError struct {
	// Checksum is the host-side CRC-32 sent in the finalize frame
	Checksum uint32

	// StatusCode is the status byte from the device's Nack
	StatusCode byte
}

func (e *IntegrityMismatchError) Error() string {
	return fmt.Sprintf("device rejected image checksum 0x%08X (status 0x%02X): re-run the update",
		e.Checksum, e.StatusCode)
}
