package updater

import (
	"time"

	"github.com/openfirmware/go-uartboot/protocol"
)

// Config holds the updater configuration.
type Config struct {
	// Reboot sends the reboot command to the running application before
	// the transfer, so the device restarts into its bootloader
	Reboot bool

	// ChunkSize is the maximum payload size per chunk frame. Clamped to
	// the buffer size the device reports during identification.
	ChunkSize int

	// Retries is the number of additional transmission attempts for a
	// chunk that was Nacked or timed out
	Retries int

	// ReadTimeout bounds each wait for a chunk or finalize response
	ReadTimeout time.Duration

	// RebootTimeout bounds the whole reboot sequence: port
	// reacquisition plus the wait for the bootloader ready indicator
	RebootTimeout time.Duration

	// SyncTimeout bounds the bootloader identification poll
	SyncTimeout time.Duration

	// BinLoadAddress is the load address assigned to raw .bin images
	BinLoadAddress uint32

	// ProgressCallback is called as the session advances (optional)
	ProgressCallback ProgressCallback

	// Logger is used for session diagnostics (optional)
	Logger Logger
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		ChunkSize:     protocol.DefaultChunkSize,
		Retries:       3,
		ReadTimeout:   5 * time.Second,
		RebootTimeout: 15 * time.Second,
		SyncTimeout:   10 * time.Second,
	}
}

// Option is a functional option for configuring the Updater.
type Option func(*Config)

// WithReboot enables or disables the pre-transfer reboot command.
// Default is false: the device is assumed to already be in, or able to
// enter, bootloader mode.
func WithReboot(reboot bool) Option {
	return func(c *Config) {
		c.Reboot = reboot
	}
}

// WithChunkSize sets the maximum payload size per chunk frame.
//
// Example:
//
//	u := updater.New(opener, updater.WithChunkSize(1024))
func WithChunkSize(size int) Option {
	return func(c *Config) {
		if size > 0 && size <= protocol.MaxChunkSize {
			c.ChunkSize = size
		}
	}
}

// WithRetries sets the number of retry attempts for a Nacked or timed
// out chunk.
func WithRetries(retries int) Option {
	return func(c *Config) {
		if retries >= 0 {
			c.Retries = retries
		}
	}
}

// WithReadTimeout sets the per-exchange response timeout.
func WithReadTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.ReadTimeout = timeout
	}
}

// WithRebootTimeout bounds the reboot-and-reconnect sequence.
func WithRebootTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.RebootTimeout = timeout
	}
}

// WithSyncTimeout bounds the bootloader identification poll.
func WithSyncTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.SyncTimeout = timeout
	}
}

// WithBinLoadAddress sets the load address for raw .bin images, which
// carry no address information of their own.
//
// Example:
//
//	u := updater.New(opener, updater.WithBinLoadAddress(0x10010100))
func WithBinLoadAddress(addr uint32) Option {
	return func(c *Config) {
		c.BinLoadAddress = addr
	}
}

// WithProgressCallback sets a callback function to track session
// progress.
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for session diagnostics.
//
// Example:
//
//	u := updater.New(opener, updater.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}
