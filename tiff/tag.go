package tiff

import (
	"encoding/binary"
	"fmt"
)

// inlineCapacity is 4 bytes for classic TIFF, 8 for BigTIFF.
const (
	classicInlineCapacity = 4
	bigtiffInlineCapacity = 8
	classicRawTagSize     = 12
	bigtiffRawTagSize     = 20
)

// Tag is the normalised, endian-corrected view of one 12-byte (classic) or
// 20-byte (BigTIFF) tag record. It exists only while an Ifd is being built.
type Tag struct {
	Code     TagID
	Type     DataType
	Count    uint64
	inline   [8]byte // valid data_size bytes, zero-padded, little-endian
	offset   uint64
	isInline bool
}

// InlineUint32 interprets the inline buffer as a single unsigned integer
// widened to 32 bits; used for scalar tags like ImageWidth that may legally
// be stored as either SHORT or LONG. decodeTag has already normalised the
// inline buffer to little-endian layout regardless of the source file's
// endianness, so this always reads with binary.LittleEndian.
func (t *Tag) InlineUint32() uint32 {
	switch t.Type.FieldSize() {
	case 1:
		return uint32(t.inline[0])
	case 2:
		return uint32(binary.LittleEndian.Uint16(t.inline[:2]))
	default:
		return binary.LittleEndian.Uint32(t.inline[:4])
	}
}

// InlineUint16Pair reads two consecutive 16-bit values out of the
// (already-normalised) inline buffer, used for YCbCrSubSampling.
func (t *Tag) InlineUint16Pair() (uint16, uint16) {
	return binary.LittleEndian.Uint16(t.inline[0:2]), binary.LittleEndian.Uint16(t.inline[2:4])
}

// decodeTag builds a normalised Tag from raw field values already extracted
// from a classic or BigTIFF tag record, applying the inline/offset split and
// endian normalisation exactly once as required by the spec.
func decodeTag(order binary.ByteOrder, isBigEndian, isBigTiff bool, code uint16, dataType uint16, count uint64, rawInlineOrOffset []byte) Tag {
	dt := DataType(dataType)
	fieldSize := dt.FieldSize()
	if fieldSize == 0 && dt != 0 {
		Logger.Printf("tag %d has unrecognised data type %d, treating as opaque bytes", code, dataType)
	}

	inlineCapacity := classicInlineCapacity
	if isBigTiff {
		inlineCapacity = bigtiffInlineCapacity
	}

	tag := Tag{Code: TagID(code), Type: dt, Count: count}
	dataSize := uint64(fieldSize) * count

	if dataSize <= uint64(inlineCapacity) {
		tag.isInline = true
		if fieldSize == 0 {
			copy(tag.inline[:], rawInlineOrOffset)
		} else {
			copy(tag.inline[:dataSize], rawInlineOrOffset)
		}
		normaliseInlineField(tag.inline[:inlineCapacity], dt, isBigEndian)
	} else {
		if isBigTiff {
			tag.offset = order.Uint64(rawInlineOrOffset)
		} else {
			tag.offset = uint64(order.Uint32(rawInlineOrOffset))
		}
	}

	return tag
}

// normaliseInlineField swaps an inline value buffer in place according to
// its field size, applied exactly once at decode time. RATIONAL/SRATIONAL
// swap their two 4-byte halves independently.
func normaliseInlineField(buf []byte, dt DataType, isBigEndian bool) {
	if !isBigEndian {
		return
	}
	fieldSize := dt.FieldSize()
	if fieldSize <= 1 {
		return
	}
	unit := fieldSize
	if dt == RationalT || dt == SRational {
		unit = 4
	}
	for pos := 0; pos+unit <= len(buf); pos += unit {
		swapBytes(buf[pos : pos+unit])
	}
}

func swapBytes(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}

// ReadIntegers widens the tag's payload to a slice of uint64, per §4.2:
// inline values yield a single-element slice; offset values are read from
// the file and zero-extended per-element according to their field size.
func (t *Tag) ReadIntegers(r *ByteOrderReader) ([]uint64, error) {
	if t.isInline {
		return []uint64{t.inlineUint64()}, nil
	}

	fieldSize := t.Type.FieldSize()
	raw := make([]byte, t.Count*uint64(fieldSize))
	if err := r.ReadAt(int64(t.offset), raw); err != nil {
		return nil, err
	}

	result := make([]uint64, t.Count)
	switch fieldSize {
	case 8:
		for i := range result {
			v := r.Order.Uint64(raw[i*8 : i*8+8])
			result[i] = v
		}
	case 4:
		for i := range result {
			result[i] = uint64(r.Order.Uint32(raw[i*4 : i*4+4]))
		}
	case 2:
		for i := range result {
			result[i] = uint64(r.Order.Uint16(raw[i*2 : i*2+2]))
		}
	case 1:
		for i := range result {
			result[i] = uint64(raw[i])
		}
	default:
		return nil, fmt.Errorf("%w: field size %d for tag %d", ErrBadFieldSize, fieldSize, t.Code)
	}
	return result, nil
}

// inlineUint64 reinterprets the (already little-endian-normalised) inline
// buffer as a plain unsigned integer of the tag's own field width.
func (t *Tag) inlineUint64() uint64 {
	switch t.Type.FieldSize() {
	case 1:
		return uint64(t.inline[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(t.inline[:2]))
	case 4:
		return uint64(binary.LittleEndian.Uint32(t.inline[:4]))
	default:
		return binary.LittleEndian.Uint64(t.inline[:8])
	}
}

// ReadASCII realises the ASCII/opaque payload of a tag: max(8, count+1)
// zero-initialised bytes so a trailing NUL always exists, regardless of
// whether the file itself terminated the string.
func (t *Tag) ReadASCII(r *ByteOrderReader) ([]byte, error) {
	size := t.Count + 1
	if size < 8 {
		size = 8
	}
	buf := make([]byte, size)

	if t.isInline {
		copy(buf, t.inline[:t.Count])
		return buf, nil
	}

	if err := r.ReadAt(int64(t.offset), buf[:t.Count]); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadRationals reads the tag's payload as an array of Rational values.
func (t *Tag) ReadRationals(r *ByteOrderReader) ([]Rational, error) {
	rationals := make([]Rational, t.Count)

	if t.isInline {
		rationals[0] = Rational{
			Numerator:   binary.LittleEndian.Uint32(t.inline[0:4]),
			Denominator: binary.LittleEndian.Uint32(t.inline[4:8]),
		}
		return rationals, nil
	}

	raw := make([]byte, t.Count*8)
	if err := r.ReadAt(int64(t.offset), raw); err != nil {
		return nil, err
	}
	for i := range rationals {
		a := r.Order.Uint32(raw[i*8 : i*8+4])
		b := r.Order.Uint32(raw[i*8+4 : i*8+8])
		rationals[i] = Rational{Numerator: a, Denominator: b}
	}
	return rationals, nil
}
