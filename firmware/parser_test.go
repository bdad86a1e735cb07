package firmware

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseHexSingleDataRecord(t *testing.T) {
	// One 3-byte data record at address 0, plus the EOF record.
	input := ":0300000034121A9D\n:00000001FF\n"

	img, err := ParseHex(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseHex() error = %v", err)
	}

	if len(img.Segments) != 1 {
		t.Fatalf("got %d segments, want 1", len(img.Segments))
	}
	seg := img.Segments[0]
	if seg.Address != 0 {
		t.Errorf("Address = 0x%08X, want 0", seg.Address)
	}
	if !bytes.Equal(seg.Data, []byte{0x34, 0x12, 0x1A}) {
		t.Errorf("Data = % X, want 34 12 1A", seg.Data)
	}
}

func TestParseHexCoalescing(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []*Segment
	}{
		{
			name:  "contiguous records coalesce into one segment",
			input: ":020000000102FB\n:020002000304F5\n:00000001FF\n",
			want:  []*Segment{{Address: 0, Data: []byte{1, 2, 3, 4}}},
		},
		{
			name:  "one record describing the same run",
			input: ":0400000001020304F2\n:00000001FF\n",
			want:  []*Segment{{Address: 0, Data: []byte{1, 2, 3, 4}}},
		},
		{
			name:  "address gap starts a new segment",
			input: ":020000000102FB\n:020010000506E3\n:00000001FF\n",
			want: []*Segment{
				{Address: 0x0000, Data: []byte{1, 2}},
				{Address: 0x0010, Data: []byte{5, 6}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := ParseHex(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("ParseHex() error = %v", err)
			}
			assertSegments(t, img, tt.want)
		})
	}
}

// The decoded layout must not depend on how many records described a
// contiguous run.
func TestParseHexRecordGranularityEquivalence(t *testing.T) {
	oneRecord := ":0400000001020304F2\n:00000001FF\n"
	twoRecords := ":020000000102FB\n:020002000304F5\n:00000001FF\n"

	a, err := ParseHex(strings.NewReader(oneRecord))
	if err != nil {
		t.Fatalf("ParseHex(oneRecord) error = %v", err)
	}
	b, err := ParseHex(strings.NewReader(twoRecords))
	if err != nil {
		t.Fatalf("ParseHex(twoRecords) error = %v", err)
	}

	if len(a.Segments) != len(b.Segments) {
		t.Fatalf("segment counts differ: %d vs %d", len(a.Segments), len(b.Segments))
	}
	for i := range a.Segments {
		if a.Segments[i].Address != b.Segments[i].Address || !bytes.Equal(a.Segments[i].Data, b.Segments[i].Data) {
			t.Errorf("segment %d differs: %+v vs %+v", i, a.Segments[i], b.Segments[i])
		}
	}
}

func TestParseHexBaseAddressRecords(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []*Segment
	}{
		{
			name:  "extended linear address relocates data",
			input: ":020000040001F9\n:020000000102FB\n:00000001FF\n",
			want:  []*Segment{{Address: 0x00010000, Data: []byte{1, 2}}},
		},
		{
			name:  "extended segment address relocates data",
			input: ":020000021000EC\n:020000000102FB\n:00000001FF\n",
			want:  []*Segment{{Address: 0x00010000, Data: []byte{1, 2}}},
		},
		{
			name:  "start linear address is ignored",
			input: ":0400000500000000F7\n:020000000102FB\n:00000001FF\n",
			want:  []*Segment{{Address: 0, Data: []byte{1, 2}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := ParseHex(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("ParseHex() error = %v", err)
			}
			assertSegments(t, img, tt.want)
		})
	}
}

func TestParseHexErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		errType interface{}
		errIs   error
	}{
		{
			name:    "corrupted record checksum",
			input:   ":0300000034121A9E\n:00000001FF\n",
			errType: &RecordChecksumError{},
		},
		{
			name:  "missing end-of-file record",
			input: ":0300000034121A9D\n",
			errIs: ErrMissingEndRecord,
		},
		{
			name:    "unsupported record type",
			input:   ":020000060000F8\n:00000001FF\n",
			errType: &UnsupportedRecordTypeError{},
		},
		{
			name:  "no data records",
			input: ":00000001FF\n",
			errIs: ErrEmptyImage,
		},
		{
			name:    "overlapping data records",
			input:   ":020000000102FB\n:01000100AA54\n:00000001FF\n",
			errType: &RecordOrderError{},
		},
		{
			name:  "missing record marker",
			input: "0300000034121A9D\n:00000001FF\n",
		},
		{
			name:  "invalid hex characters",
			input: ":03000000ZZ121A9D\n:00000001FF\n",
		},
		{
			name:  "byte count mismatch",
			input: ":050000000102FB\n:00000001FF\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := ParseHex(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("ParseHex() succeeded, want error")
			}
			if img != nil {
				t.Error("ParseHex() returned a partial image alongside the error")
			}

			if tt.errIs != nil && !errors.Is(err, tt.errIs) {
				t.Errorf("error = %v, want %v", err, tt.errIs)
			}
			switch want := tt.errType.(type) {
			case *RecordChecksumError:
				var got *RecordChecksumError
				if !errors.As(err, &got) {
					t.Errorf("error = %v, want RecordChecksumError", err)
				}
			case *UnsupportedRecordTypeError:
				var got *UnsupportedRecordTypeError
				if !errors.As(err, &got) {
					t.Errorf("error = %v, want UnsupportedRecordTypeError", err)
				} else if got.Type != 0x06 {
					t.Errorf("Type = 0x%02X, want 0x06", got.Type)
				}
			case *RecordOrderError:
				var got *RecordOrderError
				if !errors.As(err, &got) {
					t.Errorf("error = %v, want RecordOrderError", err)
				}
			case nil:
			default:
				t.Fatalf("unhandled errType %T", want)
			}
		})
	}
}

func TestParseHexChecksumErrorDetails(t *testing.T) {
	_, err := ParseHex(strings.NewReader(":0300000034121A9E\n:00000001FF\n"))

	var checksumErr *RecordChecksumError
	if !errors.As(err, &checksumErr) {
		t.Fatalf("error = %v, want RecordChecksumError", err)
	}
	if checksumErr.Line != 1 {
		t.Errorf("Line = %d, want 1", checksumErr.Line)
	}
	if checksumErr.Expected != 0x9D || checksumErr.Actual != 0x9E {
		t.Errorf("Expected/Actual = 0x%02X/0x%02X, want 0x9D/0x9E", checksumErr.Expected, checksumErr.Actual)
	}
}

func TestParseBin(t *testing.T) {
	data := []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x42}

	img, err := ParseBin(bytes.NewReader(data), 0x10010100)
	if err != nil {
		t.Fatalf("ParseBin() error = %v", err)
	}

	assertSegments(t, img, []*Segment{{Address: 0x10010100, Data: data}})
}

func TestParseBinEmpty(t *testing.T) {
	_, err := ParseBin(bytes.NewReader(nil), 0)
	if !errors.Is(err, ErrEmptyImage) {
		t.Errorf("error = %v, want ErrEmptyImage", err)
	}
}

func TestParseDispatchByExtension(t *testing.T) {
	dir := t.TempDir()

	hexPath := filepath.Join(dir, "app.hex")
	if err := os.WriteFile(hexPath, []byte(":0300000034121A9D\n:00000001FF\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	binPath := filepath.Join(dir, "app.bin")
	if err := os.WriteFile(binPath, []byte{1, 2, 3}, 0o644); err != nil {
		t.Fatal(err)
	}
	elfPath := filepath.Join(dir, "app.elf")
	if err := os.WriteFile(elfPath, []byte{0x7F, 'E', 'L', 'F'}, 0o644); err != nil {
		t.Fatal(err)
	}

	t.Run("hex", func(t *testing.T) {
		img, err := Parse(hexPath, 0)
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if img.TotalSize() != 3 {
			t.Errorf("TotalSize() = %d, want 3", img.TotalSize())
		}
	})

	t.Run("bin", func(t *testing.T) {
		img, err := Parse(binPath, 0x2000)
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		assertSegments(t, img, []*Segment{{Address: 0x2000, Data: []byte{1, 2, 3}}})
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := Parse(elfPath, 0)
		var typeErr *UnsupportedFileTypeError
		if !errors.As(err, &typeErr) {
			t.Fatalf("error = %v, want UnsupportedFileTypeError", err)
		}
	})
}

func TestImageBytes(t *testing.T) {
	img := &Image{Segments: []*Segment{
		{Address: 0x0000, Data: []byte{1, 2}},
		{Address: 0x1000, Data: []byte{3, 4, 5}},
	}}

	if img.TotalSize() != 5 {
		t.Errorf("TotalSize() = %d, want 5", img.TotalSize())
	}
	if !bytes.Equal(img.Bytes(), []byte{1, 2, 3, 4, 5}) {
		t.Errorf("Bytes() = % X, want 01 02 03 04 05", img.Bytes())
	}
}

func assertSegments(t *testing.T, img *Image, want []*Segment) {
	t.Helper()

	if len(img.Segments) != len(want) {
		t.Fatalf("got %d segments, want %d", len(img.Segments), len(want))
	}
	for i, seg := range img.Segments {
		if seg.Address != want[i].Address {
			t.Errorf("segment %d: Address = 0x%08X, want 0x%08X", i, seg.Address, want[i].Address)
		}
		if !bytes.Equal(seg.Data, want[i].Data) {
			t.Errorf("segment %d: Data = % X, want % X", i, seg.Data, want[i].Data)
		}
		if len(seg.Data) == 0 {
			t.Errorf("segment %d: empty data violates the image invariant", i)
		}
	}
}
