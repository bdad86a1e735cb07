package protocol

import (
	"encoding/binary"
	"fmt"
)

// ParseResponse extracts the status code and data payload from a
// response frame. Validates frame structure, length, and checksum.
//
// Response frame structure:
//
//	[SOF][STATUS][LEN_L][LEN_H][DATA...][CHECKSUM_L][CHECKSUM_H][EOF]
func ParseResponse(frame []byte) (statusCode byte, data []byte, err error) {
	if len(frame) < MinFrameSize {
		return 0, nil, fmt.Errorf("frame too short: got %d bytes, minimum is %d", len(frame), MinFrameSize)
	}

	if frame[0] != StartOfFrame {
		return 0, nil, fmt.Errorf("invalid start of frame: got 0x%02X, expected 0x%02X", frame[0], StartOfFrame)
	}

	if frame[len(frame)-1] != EndOfFrame {
		return 0, nil, fmt.Errorf("invalid end of frame: got 0x%02X, expected 0x%02X", frame[len(frame)-1], EndOfFrame)
	}

	statusCode = frame[1]
	dataLen := binary.LittleEndian.Uint16(frame[2:4])

	expectedLen := int(MinFrameSize + dataLen)
	if len(frame) != expectedLen {
		return 0, nil, fmt.Errorf("frame length mismatch: got %d bytes, expected %d", len(frame), expectedLen)
	}

	checksumExpected := binary.LittleEndian.Uint16(frame[len(frame)-3 : len(frame)-1])
	checksumActual := calculateFrameChecksum(frame[1 : len(frame)-3])
	if checksumExpected != checksumActual {
		return 0, nil, fmt.Errorf("frame checksum mismatch: got 0x%04X, expected 0x%04X",
			checksumActual, checksumExpected)
	}

	if dataLen > 0 {
		data = frame[4 : 4+dataLen]
	}

	return statusCode, data, nil
}

// ParseIdentResponse parses the Ident command response payload.
//
// Data format (IdentResponseSize bytes):
//
//	[VER_MAJOR(1)][VER_MINOR(1)][BUFFER_SIZE(2, LE)]
func ParseIdentResponse(data []byte) (*DeviceInfo, error) {
	if len(data) != IdentResponseSize {
		return nil, fmt.Errorf("invalid data length for Ident response: got %d bytes, expected %d", len(data), IdentResponseSize)
	}

	info := &DeviceInfo{
		VersionMajor: data[0],
		VersionMinor: data[1],
		BufferSize:   binary.LittleEndian.Uint16(data[2:4]),
	}

	return info, nil
}
