// Package protocol implements the bootloader wire protocol: frame
// construction and parsing, the per-frame checksum, and the CRC-32
// integrity value used to verify the whole transfer.
//
// # Frame Format
//
// Every exchange is a single framed message:
//
//	[SOF][CMD/STATUS][LEN_L][LEN_H][DATA...][CHECKSUM_L][CHECKSUM_H][EOF]
//
// The 16-bit checksum is the 2's complement of the sum of all bytes from
// CMD/STATUS through DATA. The length field is little-endian.
//
// # Commands
//
//   - Ident: probe the bootloader; the response carries the protocol
//     version and the device's chunk buffer size
//   - Write Chunk: a firmware chunk with its explicit target address
//   - Finalize: total image length plus CRC-32; the device recomputes
//     the checksum over what it received and Acks only on a match
//
// The device answers every frame with a short response whose status byte
// is StatusAck on success; any other status is a negative
// acknowledgement, surfaced as a ProtocolError.
//
// This package builds and parses byte slices only; it performs no I/O.
package protocol
