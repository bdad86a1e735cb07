// Package updater drives firmware update sessions against the uartboot
// serial bootloader.
//
// # Overview
//
// A session is one sequential flow of blocking request/response
// exchanges over a single serial link:
//   - Decode the firmware file into an address-mapped layout
//   - Optionally reboot the running application into the bootloader
//   - Await the bootloader's identification response
//   - Transfer the image in acknowledged chunks, retrying per chunk
//   - Finalize with a CRC-32 integrity value the device verifies
//
// The session advances through an explicit state machine (idle,
// decoding, reboot_pending, awaiting_bootloader, transferring,
// verifying, completed) with a terminal failed state reachable from
// every non-terminal state. There is no automatic recovery from a
// terminal failure; start a new session.
//
// # Basic Usage
//
//	opener := &port.Serial{Device: "/dev/ttyACM0", Baud: 115200}
//	u := updater.New(opener, updater.WithReboot(true))
//
//	result, err := u.Run(context.Background(), "app.hex")
//	if err != nil {
//	    log.Fatalf("%v (state=%s, sent=%d bytes)", err, result.State, result.BytesSent)
//	}
//
// # Progress and Logging
//
//	u := updater.New(opener,
//	    updater.WithProgressCallback(func(p updater.Progress) {
//	        fmt.Printf("[%s] %.1f%%\n", p.Phase, p.Percentage)
//	    }),
//	    updater.WithLogger(myLogger),
//	)
//
// # Error Handling
//
// Failures carry the specific error kind:
//   - firmware decode errors: detected before any device I/O
//   - RebootTimeoutError / PortReacquisitionError: reboot sequencing
//   - BootloaderNotFoundError: identification poll exhausted
//   - TransferAbortedError: chunk retry budget exhausted; reports bytes
//     acknowledged so far
//   - IntegrityMismatchError: device-side CRC-32 verification failed;
//     never retried automatically
//
// The serial port is released on every exit path, including across the
// reboot-induced reconnect. Two sessions against the same port fail
// fast with port.ErrPortBusy instead of interleaving frames.
package updater
