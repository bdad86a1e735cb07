package protocol

// DeviceInfo holds the bootloader identification returned by the Ident
// command.
type DeviceInfo struct {
	// VersionMajor is the bootloader protocol major version
	VersionMajor byte

	// VersionMinor is the bootloader protocol minor version
	VersionMinor byte

	// BufferSize is the device's receive buffer size in bytes; chunks
	// must not exceed it
	BufferSize uint16
}
