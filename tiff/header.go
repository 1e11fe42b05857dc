package tiff

import (
	"encoding/binary"
	"fmt"
)

const (
	markerLittleEndian uint16 = 0x4949 // "II"
	markerBigEndian    uint16 = 0x4d4d // "MM"

	markerClassic uint16 = 0x002A
	markerBigTiff uint16 = 0x002B
)

// FileHeader is the decoded 8-byte classic or 16-byte BigTIFF file header.
type FileHeader struct {
	IsBigEndian    bool
	IsBigTiff      bool
	OffsetWidth    int // 4 for classic, 8 for BigTIFF
	FirstIFDOffset uint64
}

// readHeader parses the file header from the start of r and validates the
// magic bytes, format marker, and (for BigTIFF) the offset-size and
// reserved fields. Any deviation is ErrBadMagic.
func readHeader(r *ByteOrderReader) (FileHeader, error) {
	var h FileHeader

	if err := r.Seek(0); err != nil {
		return h, err
	}

	identifier, err := r.ReadUint16()
	if err != nil {
		return h, err
	}
	switch identifier {
	case markerLittleEndian:
		h.IsBigEndian = false
	case markerBigEndian:
		h.IsBigEndian = true
	default:
		return h, fmt.Errorf("%w: bad byte-order marker 0x%04x", ErrBadMagic, identifier)
	}

	order := binary.ByteOrder(binary.LittleEndian)
	if h.IsBigEndian {
		order = binary.BigEndian
	}
	r.Order = order

	version, err := r.ReadUint16()
	if err != nil {
		return h, err
	}

	switch version {
	case markerClassic:
		h.IsBigTiff = false
		h.OffsetWidth = 4
		offset, err := r.ReadUint32()
		if err != nil {
			return h, err
		}
		h.FirstIFDOffset = uint64(offset)
	case markerBigTiff:
		h.IsBigTiff = true
		h.OffsetWidth = 8

		offsetSize, err := r.ReadUint16()
		if err != nil {
			return h, err
		}
		if offsetSize != 8 {
			return h, fmt.Errorf("%w: BigTIFF offset size %d, expected 8", ErrBadMagic, offsetSize)
		}
		reserved, err := r.ReadUint16()
		if err != nil {
			return h, err
		}
		if reserved != 0 {
			return h, fmt.Errorf("%w: BigTIFF reserved field is %d, expected 0", ErrBadMagic, reserved)
		}
		offset, err := r.ReadUint64()
		if err != nil {
			return h, err
		}
		h.FirstIFDOffset = offset
	default:
		return h, fmt.Errorf("%w: unsupported version marker 0x%04x", ErrBadMagic, version)
	}

	return h, nil
}
