package updater

import "time"

// Progress phases reported to the ProgressCallback.
const (
	PhaseDecoding     = "decoding"
	PhaseRebooting    = "rebooting"
	PhaseSyncing      = "syncing"
	PhaseTransferring = "transferring"
	PhaseVerifying    = "verifying"
	PhaseComplete     = "complete"
	PhaseFailed       = "failed"
)

// Progress contains information about the update session's progress.
// Passed to ProgressCallback as the session advances.
type Progress struct {
	// Phase is one of the Phase* constants
	Phase string

	// BytesSent is the number of payload bytes acknowledged so far
	BytesSent int

	// TotalBytes is the total payload size of the image
	TotalBytes int

	// Percentage is the completion percentage (0.0 to 100.0)
	Percentage float64

	// ElapsedTime is the time elapsed since the session started
	ElapsedTime time.Duration
}

// ProgressCallback is called as the session advances. Implementations
// should return quickly to avoid stalling the transfer.
//
// Example:
//
//	u := updater.New(opener,
//	    updater.WithProgressCallback(func(p updater.Progress) {
//	        fmt.Printf("[%s] %.1f%% (%d/%d bytes)\n",
//	            p.Phase, p.Percentage, p.BytesSent, p.TotalBytes)
//	    }),
//	)
type ProgressCallback func(Progress)

// Logger is an optional logging interface for session diagnostics.
// This allows integration with any logging framework.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}
