package protocol

import "fmt"

// ProtocolError represents a negative acknowledgement from the
// bootloader. Contains the status code from the response frame.
type ProtocolError struct {
	// Operation is the command that was rejected
	Operation string

	// StatusCode is the status byte from the bootloader response
	StatusCode byte
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s rejected: %s (0x%02X)", e.Operation, getStatusName(e.StatusCode), e.StatusCode)
}

// IsProtocolError returns true if the error is a ProtocolError.
func IsProtocolError(err error) bool {
	_, ok := err.(*ProtocolError)
	return ok
}

// getStatusName returns a human-readable name for a status code.
func getStatusName(code byte) string {
	switch code {
	case StatusAck:
		return "acknowledged"
	case ErrChecksum:
		return "frame checksum mismatch"
	case ErrAddress:
		return "address out of range"
	case ErrWrite:
		return "flash write failed"
	case ErrIntegrity:
		return "image integrity mismatch"
	case ErrBusy:
		return "device busy"
	case ErrUnknown:
		return "unknown error"
	default:
		return fmt.Sprintf("unknown status code 0x%02X", code)
	}
}
