// Package firmware parses firmware image files into an address-mapped
// byte layout.
//
// # Supported Formats
//
// Two input formats are supported, selected by file extension:
//
//   - Intel HEX (.hex): a sequence of ASCII records, each carrying a byte
//     count, a 16-bit address, a record type, data, and a checksum.
//     Extended segment/linear address records relocate subsequent data.
//   - Raw binary (.bin): the whole stream becomes a single segment at a
//     caller-supplied load address.
//
// # Image Model
//
// Decoding produces an Image: an ordered list of Segments, each a
// contiguous run of bytes at a base address. Segments never overlap, are
// never empty, and are ordered by ascending address. Data records at
// contiguous addresses are coalesced, so the resulting layout is
// independent of how many records were used to describe a run.
//
// # Usage
//
//	img, err := firmware.Parse("app.hex", 0)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, seg := range img.Segments {
//	    fmt.Printf("0x%08X: %d bytes\n", seg.Address, len(seg.Data))
//	}
//
// # Error Handling
//
// All decoding failures are detected before any device communication:
//   - RecordChecksumError: a record's checksum doesn't match its contents
//   - ErrMissingEndRecord: input ended without an end-of-file record
//   - UnsupportedRecordTypeError: unrecognized record type
//   - RecordOrderError: data overlaps previously decoded addresses
//   - ErrEmptyImage: no data records decoded
//   - UnsupportedFileTypeError: file extension maps to no known format
//
// Decoding is all-or-nothing; a failed parse never returns a partial
// image. The package performs no device I/O and is fully testable
// without hardware.
package firmware
