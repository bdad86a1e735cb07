package protocol

import (
	"encoding/binary"
	"fmt"
)

// buildFrame assembles a complete command frame around a data payload.
//
// Frame structure:
//
//	[SOF][CMD][LEN_L][LEN_H][DATA...][CHECKSUM_L][CHECKSUM_H][EOF]
func buildFrame(cmd byte, data []byte) []byte {
	frame := make([]byte, 0, MinFrameSize+len(data))

	frame = append(frame, StartOfFrame)
	frame = append(frame, cmd)

	lenBytes := make([]byte, 2)
	binary.LittleEndian.PutUint16(lenBytes, uint16(len(data)))
	frame = append(frame, lenBytes...)

	frame = append(frame, data...)

	checksum := calculateFrameChecksum(frame[1:])
	checksumBytes := make([]byte, 2)
	binary.LittleEndian.PutUint16(checksumBytes, checksum)
	frame = append(frame, checksumBytes...)

	frame = append(frame, EndOfFrame)

	return frame
}

// BuildIdentCmd constructs an Ident command frame. The bootloader
// answers with its protocol version and chunk buffer size; a valid
// response is also the bootloader's ready indicator.
//
// Frame structure:
//
//	[SOF][CMD][LEN_L][LEN_H][CHECKSUM_L][CHECKSUM_H][EOF]
func BuildIdentCmd() []byte {
	return buildFrame(CmdIdent, nil)
}

// BuildWriteChunkCmd constructs a Write Chunk command frame carrying a
// chunk of firmware for the given target address.
//
// Frame structure:
//
//	[SOF][CMD][LEN_L][LEN_H][ADDR(4, LE)][DATA...][CHECKSUM_L][CHECKSUM_H][EOF]
//
// Returns an error if the chunk is empty or exceeds MaxChunkSize.
func BuildWriteChunkCmd(address uint32, data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("chunk data cannot be empty")
	}
	if len(data) > MaxChunkSize {
		return nil, fmt.Errorf("chunk length %d exceeds maximum %d bytes", len(data), MaxChunkSize)
	}

	payload := make([]byte, 0, WriteChunkHeaderSize+len(data))
	addrBytes := make([]byte, 4)
	binary.LittleEndian.PutUint32(addrBytes, address)
	payload = append(payload, addrBytes...)
	payload = append(payload, data...)

	return buildFrame(CmdWriteChunk, payload), nil
}

// BuildFinalizeCmd constructs a Finalize command frame carrying the total
// image length and the CRC-32 integrity value. The bootloader recomputes
// the checksum over everything it received and Acks only on a match.
//
// Frame structure:
//
//	[SOF][CMD][LEN_L][LEN_H][LENGTH(4, LE)][CRC32(4, LE)][CHECKSUM_L][CHECKSUM_H][EOF]
func BuildFinalizeCmd(length uint32, checksum uint32) []byte {
	payload := make([]byte, FinalizePayloadSize)
	binary.LittleEndian.PutUint32(payload[0:4], length)
	binary.LittleEndian.PutUint32(payload[4:8], checksum)

	return buildFrame(CmdFinalize, payload)
}
