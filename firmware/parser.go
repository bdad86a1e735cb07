package firmware

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Constants for Intel HEX record parsing.
const (
	// RecordMarker is the character every record starts with
	RecordMarker = ':'

	// MinRecordBytes is the minimum decoded record size:
	// count(1) + address(2) + type(1) + checksum(1)
	MinRecordBytes = 5

	// DefaultBinLoadAddress is the load address assigned to raw binary
	// images, which carry no address information of their own
	DefaultBinLoadAddress = 0x00000000
)

// Intel HEX record types recognized by the decoder.
const (
	recordData                   = 0x00
	recordEndOfFile              = 0x01
	recordExtendedSegmentAddress = 0x02
	recordStartSegmentAddress    = 0x03
	recordExtendedLinearAddress  = 0x04
	recordStartLinearAddress     = 0x05
)

// Parse reads a firmware file and decodes it according to its extension:
// .hex files are decoded as Intel HEX, .bin files as raw binary placed at
// loadAddr. Any other extension fails with UnsupportedFileTypeError
// before the file is even opened.
//
// Example:
//
//	img, err := firmware.Parse("app.hex", 0)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d segments, %d bytes\n", len(img.Segments), img.TotalSize())
func Parse(path string, loadAddr uint32) (*Image, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".hex" && ext != ".bin" {
		return nil, &UnsupportedFileTypeError{Path: path}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if ext == ".hex" {
		return ParseHex(f)
	}
	return ParseBin(f, loadAddr)
}

// ParseBin decodes a raw binary stream into an image containing a single
// segment at loadAddr.
func ParseBin(r io.Reader, loadAddr uint32) (*Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}

	return &Image{Segments: []*Segment{{Address: loadAddr, Data: data}}}, nil
}

// ParseHex decodes an Intel HEX stream into an Image.
//
// Data records at contiguous addresses are coalesced into a single
// segment; an address gap starts a new segment. Extended segment (02) and
// extended linear (04) address records update the base address for
// subsequent data records. Start address records (03, 05) are accepted
// and ignored since they don't affect the image layout. Any other record
// type fails with UnsupportedRecordTypeError.
//
// Decoding is all-or-nothing: any malformed record aborts with an error
// and no partial image is returned.
func ParseHex(r io.Reader) (*Image, error) {
	scanner := bufio.NewScanner(r)

	img := &Image{}
	var current *Segment
	base := uint32(0)
	sawEOF := false

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}

		rec, err := parseRecord(line, lineNum)
		if err != nil {
			return nil, err
		}

		switch rec.typ {
		case recordData:
			target := base + uint32(rec.addr)
			current, err = appendData(img, current, target, rec.data, lineNum)
			if err != nil {
				return nil, err
			}

		case recordEndOfFile:
			sawEOF = true

		case recordExtendedSegmentAddress:
			if len(rec.data) != 2 {
				return nil, fmt.Errorf("line %d: extended segment address record must carry 2 bytes, got %d", lineNum, len(rec.data))
			}
			base = (uint32(rec.data[0])<<8 | uint32(rec.data[1])) << 4

		case recordExtendedLinearAddress:
			if len(rec.data) != 2 {
				return nil, fmt.Errorf("line %d: extended linear address record must carry 2 bytes, got %d", lineNum, len(rec.data))
			}
			base = (uint32(rec.data[0])<<8 | uint32(rec.data[1])) << 16

		case recordStartSegmentAddress, recordStartLinearAddress:
			// Entry point hints; irrelevant to the image layout.

		default:
			return nil, &UnsupportedRecordTypeError{Line: lineNum, Type: rec.typ}
		}

		if sawEOF {
			break
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if !sawEOF {
		return nil, ErrMissingEndRecord
	}
	if len(img.Segments) == 0 {
		return nil, ErrEmptyImage
	}

	return img, nil
}

// record holds the decoded fields of one Intel HEX line.
type record struct {
	addr uint16
	typ  byte
	data []byte
}

// parseRecord decodes and checksum-verifies a single record line.
//
// Record format (after the ':' marker, hex-encoded):
//
//	[COUNT(1)][ADDRESS(2, big-endian)][TYPE(1)][DATA(COUNT)][CHECKSUM(1)]
//
// The checksum is the two's complement of the low byte of the sum of all
// preceding record bytes.
func parseRecord(line string, lineNum int) (*record, error) {
	if line[0] != RecordMarker {
		return nil, fmt.Errorf("line %d: record must start with ':'", lineNum)
	}

	raw, err := hex.DecodeString(line[1:])
	if err != nil {
		return nil, fmt.Errorf("line %d: invalid hex data: %w", lineNum, err)
	}
	if len(raw) < MinRecordBytes {
		return nil, fmt.Errorf("line %d: record too short: got %d bytes, minimum is %d", lineNum, len(raw), MinRecordBytes)
	}

	count := int(raw[0])
	if len(raw) != MinRecordBytes+count {
		return nil, fmt.Errorf("line %d: record length mismatch: got %d bytes, byte count declares %d", lineNum, len(raw), MinRecordBytes+count)
	}

	expected := recordChecksum(raw[:len(raw)-1])
	actual := raw[len(raw)-1]
	if actual != expected {
		return nil, &RecordChecksumError{Line: lineNum, Expected: expected, Actual: actual}
	}

	rec := &record{
		addr: uint16(raw[1])<<8 | uint16(raw[2]),
		typ:  raw[3],
		data: raw[4 : 4+count],
	}
	return rec, nil
}

// appendData places a data record into the image, coalescing it into the
// current segment when contiguous and starting a new segment otherwise.
// Returns the segment now accepting contiguous data.
func appendData(img *Image, current *Segment, target uint32, data []byte, lineNum int) (*Segment, error) {
	if len(data) == 0 {
		// Zero-length data records are legal and carry nothing.
		return current, nil
	}

	if current != nil && target == current.End() {
		current.Data = append(current.Data, data...)
		return current, nil
	}

	// A new segment must lie strictly past everything decoded so far,
	// otherwise the image's ordering invariant would be violated.
	if last := len(img.Segments) - 1; last >= 0 && target < img.Segments[last].End() {
		return nil, &RecordOrderError{Line: lineNum, Address: target}
	}

	seg := &Segment{Address: target, Data: append([]byte(nil), data...)}
	img.Segments = append(img.Segments, seg)
	return seg, nil
}

// recordChecksum computes the Intel HEX record checksum: the two's
// complement of the low byte of the sum of all record bytes.
func recordChecksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return ^sum + 1
}
