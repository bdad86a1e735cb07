package protocol

import "hash/crc32"

// ChecksumMask is the 16-bit mask used in frame checksum calculations.
const ChecksumMask = 0xFFFF

// calculateFrameChecksum computes the 16-bit checksum for a frame.
// Basic summation: sum all bytes, then 2's complement.
//
// The checksum covers all bytes from CMD/STATUS through DATA, excluding
// the SOF, CHECKSUM, and EOF fields.
func calculateFrameChecksum(data []byte) uint16 {
	var sum uint16
	for _, b := range data {
		sum += uint16(b)
	}
	return 1 + (ChecksumMask ^ sum)
}

// ImageChecksum computes the 32-bit integrity value over a firmware
// payload: standard reflected CRC-32 (polynomial 0xEDB88320), initial
// value all-ones, final value inverted. The bootloader recomputes the
// same value over the bytes it received and compares it against the
// finalize frame.
func ImageChecksum(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}
