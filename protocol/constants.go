package protocol

// ProtocolVersion is the bootloader wire protocol version implemented by
// this library, as reported in the ident response.
const ProtocolVersion = "1.0"

// Frame structure constants.
const (
	// StartOfFrame is the frame start marker (0x01)
	StartOfFrame = 0x01

	// EndOfFrame is the frame end marker (0x17)
	EndOfFrame = 0x17

	// MinFrameSize is the minimum frame size in bytes:
	// SOF(1) + CMD/STATUS(1) + LEN(2) + CHECKSUM(2) + EOF(1)
	MinFrameSize = 7
)

// Command codes understood by the bootloader.
const (
	// CmdIdent requests bootloader identification: protocol version and
	// the device's chunk buffer size. Doubles as the ready probe.
	CmdIdent = 0x30

	// CmdWriteChunk writes a chunk of firmware at an explicit address
	CmdWriteChunk = 0x39

	// CmdFinalize ends the transfer, carrying total length and CRC-32
	// for device-side verification
	CmdFinalize = 0x3B
)

// Status codes returned by the bootloader. StatusAck acknowledges the
// previous frame; every other value is a negative acknowledgement.
const (
	// StatusAck indicates the frame was received and executed
	StatusAck = 0x00

	// ErrChecksum indicates the frame checksum didn't match
	ErrChecksum = 0x08

	// ErrAddress indicates the chunk address is outside writable flash
	ErrAddress = 0x0A

	// ErrWrite indicates the flash write itself failed
	ErrWrite = 0x0B

	// ErrIntegrity indicates the device-side CRC-32 over the received
	// image doesn't match the finalize frame
	ErrIntegrity = 0x0C

	// ErrBusy indicates the device cannot accept the frame right now
	ErrBusy = 0x0D

	// ErrUnknown indicates an unspecified device-side failure
	ErrUnknown = 0x0F
)

// Application-mode control sequences, sent to the running firmware
// rather than to the bootloader.
const (
	// RebootCommand asks the running application to reboot into the
	// bootloader
	RebootCommand = "reboot\r\n"

	// UpdateTrigger tells a freshly booted device to enter update mode
	// and start answering bootloader frames
	UpdateTrigger = 'u'
)

// Chunk sizing.
const (
	// DefaultChunkSize is the chunk size used until the device reports
	// its own buffer size via the ident response
	DefaultChunkSize = 4096

	// MaxChunkSize is the hard upper bound on a single chunk payload
	MaxChunkSize = 32768
)

// Payload sizes for specific frames.
const (
	// IdentResponseSize is the ident response payload:
	// version major(1) + version minor(1) + buffer size(2)
	IdentResponseSize = 4

	// WriteChunkHeaderSize is the per-chunk overhead inside the data
	// field: target address (4 bytes, little-endian)
	WriteChunkHeaderSize = 4

	// FinalizePayloadSize is the finalize frame payload:
	// image length(4) + CRC-32(4), both little-endian
	FinalizePayloadSize = 8
)
