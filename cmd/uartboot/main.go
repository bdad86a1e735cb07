// Command uartboot uploads a firmware image to a device running the
// uartboot serial bootloader.
//
// Usage:
//
//	uartboot <port> <file> [--reboot] [--baud 115200]
//
// The file may be an Intel HEX (.hex) or raw binary (.bin) image. Exit
// status is 0 when the session completes and non-zero on any failure.
package main

import (
	"errors"
	goflag "flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/openfirmware/go-uartboot/port"
	"github.com/openfirmware/go-uartboot/updater"
)

var (
	reboot      bool
	baud        int
	chunkSize   int
	retries     int
	readTimeout time.Duration
	loadAddress string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "uartboot <port> <file>",
	Short: "Upload a firmware image over the uartboot serial bootloader",
	Long: `uartboot transfers a .hex or .bin firmware image to a device running
the uartboot serial bootloader, verifies the transfer with a CRC-32
exchange, and reports the outcome.

Examples:
  uartboot /dev/ttyACM0 app.hex --reboot     # reboot the app first
  uartboot COM3 app.bin -b 921600            # raw binary, custom baud`,
	Args:          cobra.ExactArgs(2),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func run(cmd *cobra.Command, args []string) error {
	device, file := args[0], args[1]

	loadAddr, err := strconv.ParseUint(loadAddress, 0, 32)
	if err != nil {
		return fmt.Errorf("invalid --load-address %q: %w", loadAddress, err)
	}

	opts := []updater.Option{
		updater.WithReboot(reboot),
		updater.WithChunkSize(chunkSize),
		updater.WithRetries(retries),
		updater.WithReadTimeout(readTimeout),
		updater.WithBinLoadAddress(uint32(loadAddr)),
		updater.WithLogger(glogLogger{}),
	}
	if !verbose {
		opts = append(opts, updater.WithProgressCallback(printProgress))
	}

	u := updater.New(&port.Serial{Device: device, Baud: baud}, opts...)

	result, err := u.Run(cmd.Context(), file)
	if !verbose {
		fmt.Println()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "update failed (%s, %d bytes sent): %v\n",
			result.State, result.BytesSent, err)
		printGuidance(err)
		return err
	}

	fmt.Printf("update complete: %d bytes in %s\n", result.BytesSent, result.Elapsed.Round(time.Millisecond))
	return nil
}

// printProgress renders a single-line progress indicator.
func printProgress(p updater.Progress) {
	if p.TotalBytes == 0 {
		fmt.Printf("\r[%-12s]", p.Phase)
		return
	}
	fmt.Printf("\r[%-12s] %5.1f%% (%d/%d bytes)", p.Phase, p.Percentage, p.BytesSent, p.TotalBytes)
}

// printGuidance adds a recovery hint for error kinds with a known
// manual remedy.
func printGuidance(err error) {
	var rebootErr *updater.RebootTimeoutError
	var notFoundErr *updater.BootloaderNotFoundError
	var integrityErr *updater.IntegrityMismatchError

	switch {
	case errors.As(err, &rebootErr), errors.As(err, &notFoundErr):
		fmt.Fprintln(os.Stderr, "hint: if the device is already in bootloader mode, retry without --reboot")
	case errors.As(err, &integrityErr):
		fmt.Fprintln(os.Stderr, "hint: verification failures are not retried automatically; re-run the update")
	case errors.Is(err, port.ErrPortBusy):
		fmt.Fprintln(os.Stderr, "hint: another update session is using this port; wait for it to finish")
	}
}

// glogLogger adapts the updater's Logger interface to glog.
type glogLogger struct{}

func (glogLogger) Debug(msg string, kv ...interface{}) {
	glog.V(1).Infoln(append([]interface{}{msg}, kv...)...)
}

func (glogLogger) Info(msg string, kv ...interface{}) {
	glog.V(1).Infoln(append([]interface{}{msg}, kv...)...)
}

func (glogLogger) Error(msg string, kv ...interface{}) {
	glog.Errorln(append([]interface{}{msg}, kv...)...)
}

func init() {
	rootCmd.Flags().BoolVarP(&reboot, "reboot", "r", false, "send the reboot command to the running application first")
	rootCmd.Flags().IntVarP(&baud, "baud", "b", port.DefaultBaudRate, "serial baud rate")
	rootCmd.Flags().IntVarP(&chunkSize, "chunk-size", "c", 4096, "maximum chunk payload size in bytes")
	rootCmd.Flags().IntVar(&retries, "retries", 3, "retry attempts per chunk")
	rootCmd.Flags().DurationVar(&readTimeout, "timeout", 5*time.Second, "per-exchange response timeout")
	rootCmd.Flags().StringVar(&loadAddress, "load-address", "0x0", "load address for raw .bin images")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose diagnostics instead of the progress bar")
}

func main() {
	// glog wants flag.Parse before first use; cobra owns the real
	// arguments, so parse an empty set and route output to stderr.
	_ = goflag.CommandLine.Parse([]string{})
	_ = goflag.Set("logtostderr", "true")

	cobra.OnInitialize(func() {
		if verbose {
			_ = goflag.Set("v", "1")
		}
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
