package firmware

// Image represents a complete parsed firmware image, laid out as an
// address-ordered set of segments.
type Image struct {
	// Segments contains the firmware data, ordered by ascending base
	// address. Segments never overlap and are never empty.
	Segments []*Segment
}

// Segment is a contiguous run of firmware bytes destined for one base
// memory address.
type Segment struct {
	// Address is the base memory address the data is written to
	Address uint32

	// Data is the firmware payload for this segment
	Data []byte
}

// End returns the first address past the segment's data.
func (s *Segment) End() uint32 {
	return s.Address + uint32(len(s.Data))
}

// TotalSize returns the number of payload bytes across all segments.
func (img *Image) TotalSize() int {
	total := 0
	for _, seg := range img.Segments {
		total += len(seg.Data)
	}
	return total
}

// Bytes returns the concatenation of all segment data in address order.
// This is the byte range the transfer checksum is computed over.
func (img *Image) Bytes() []byte {
	buf := make([]byte, 0, img.TotalSize())
	for _, seg := range img.Segments {
		buf = append(buf, seg.Data...)
	}
	return buf
}
