package firmware

import (
	"errors"
	"fmt"
)

// ErrMissingEndRecord indicates the input ended before an end-of-file
// record (type 01) was seen.
var ErrMissingEndRecord = errors.New("missing end-of-file record")

// ErrEmptyImage indicates the decoded image contains no data.
var ErrEmptyImage = errors.New("image contains no data")

// RecordChecksumError indicates a record's checksum byte doesn't match
// the record contents. Decoding aborts; no partial image is returned.
type RecordChecksumError struct {
	Line     int
	Expected byte
	Actual   byte
}

func (e *RecordChecksumError) Error() string {
	return fmt.Sprintf("record checksum mismatch on line %d: got 0x%02X, expected 0x%02X",
		e.Line, e.Actual, e.Expected)
}

// UnsupportedRecordTypeError indicates a record type this decoder does
// not recognize.
type UnsupportedRecordTypeError struct {
	Line int
	Type byte
}

func (e *UnsupportedRecordTypeError) Error() string {
	return fmt.Sprintf("unsupported record type 0x%02X on line %d", e.Type, e.Line)
}

// RecordOrderError indicates a data record that moves backwards into, or
// overlaps, an address range already covered by a previous record.
type RecordOrderError struct {
	Line    int
	Address uint32
}

func (e *RecordOrderError) Error() string {
	return fmt.Sprintf("data record on line %d targets address 0x%08X, which overlaps previously decoded data",
		e.Line, e.Address)
}

// UnsupportedFileTypeError indicates a file whose extension maps to no
// known firmware format.
type UnsupportedFileTypeError struct {
	Path string
}

func (e *UnsupportedFileTypeError) Error() string {
	return fmt.Sprintf("unsupported file type %q: expected a .hex or .bin file", e.Path)
}
