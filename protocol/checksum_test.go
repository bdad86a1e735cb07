package protocol

import "testing"

func TestImageChecksumKnownVectors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want uint32
	}{
		{
			// The standard CRC-32 check value.
			name: "check string",
			data: []byte("123456789"),
			want: 0xCBF43926,
		},
		{
			name: "empty payload",
			data: nil,
			want: 0x00000000,
		},
		{
			name: "single zero byte",
			data: []byte{0x00},
			want: 0xD202EF8D,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ImageChecksum(tt.data); got != tt.want {
				t.Errorf("ImageChecksum() = 0x%08X, want 0x%08X", got, tt.want)
			}
		})
	}
}

func TestImageChecksumDeterministic(t *testing.T) {
	data := []byte{0x34, 0x12, 0x1A, 0xDE, 0xAD, 0xBE, 0xEF}

	first := ImageChecksum(data)
	for i := 0; i < 10; i++ {
		if got := ImageChecksum(data); got != first {
			t.Fatalf("call %d: ImageChecksum() = 0x%08X, want 0x%08X", i, got, first)
		}
	}
}

// Every single-bit flip must change the checksum: no false negative on
// single-bit corruption.
func TestImageChecksumDetectsSingleBitFlips(t *testing.T) {
	data := []byte{0x34, 0x12, 0x1A, 0x00, 0xFF, 0x55}
	original := ImageChecksum(data)

	for i := range data {
		for bit := 0; bit < 8; bit++ {
			flipped := make([]byte, len(data))
			copy(flipped, data)
			flipped[i] ^= 1 << bit

			if got := ImageChecksum(flipped); got == original {
				t.Errorf("flip of byte %d bit %d left checksum unchanged at 0x%08X", i, bit, got)
			}
		}
	}
}

func TestCalculateFrameChecksum(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want uint16
	}{
		{
			name: "empty",
			data: nil,
			want: 0x0000,
		},
		{
			name: "single byte",
			data: []byte{0x01},
			want: 0xFFFF,
		},
		{
			name: "ident command body",
			data: []byte{CmdIdent, 0x00, 0x00},
			want: 1 + (0xFFFF ^ uint16(CmdIdent)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := calculateFrameChecksum(tt.data); got != tt.want {
				t.Errorf("calculateFrameChecksum() = 0x%04X, want 0x%04X", got, tt.want)
			}
		})
	}
}
