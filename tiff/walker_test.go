package tiff

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// closingReader adapts a *bytes.Reader to the readSeekCloser interface used
// by openReader, so tests can drive the walker off an in-memory buffer.
type closingReader struct {
	*bytes.Reader
}

func (closingReader) Close() error { return nil }

// buildClassicTIFF assembles a minimal single-IFD, little-endian classic
// TIFF: one 16x16, single-tile level carrying description as its
// ImageDescription tag.
func buildClassicTIFF(t *testing.T, description string) []byte {
	t.Helper()
	return buildTIFFFile(t, description, binary.LittleEndian, false, false)
}

// buildBigTiffIFD assembles the BigTIFF counterpart of buildClassicTIFF: a
// 16-byte header, 8-byte tag count, and 20-byte tag records, in the given
// byte order.
func buildBigTiffIFD(t *testing.T, description string, order binary.ByteOrder, bigEndian bool) []byte {
	t.Helper()
	return buildTIFFFile(t, description, order, bigEndian, true)
}

// tiffFixtureTag describes one tag record to emit; value is either an
// inline scalar or, for TagImageDescription, overwritten with the computed
// string offset.
type tiffFixtureTag struct {
	code  TagID
	dtype DataType
	count uint64
	value uint64
}

// buildTIFFFile assembles a minimal single-IFD TIFF or BigTIFF file for the
// given byte order and format: one 16x16, single-tile level carrying
// description as its ImageDescription tag. It exists so classic and BigTIFF
// fixtures, in either endianness, share one source of truth for the byte
// layout instead of four near-duplicate builders.
func buildTIFFFile(t *testing.T, description string, order binary.ByteOrder, bigEndian, bigTiff bool) []byte {
	t.Helper()

	tags := []tiffFixtureTag{
		{TagImageWidth, Short, 1, 16},
		{TagImageLength, Short, 1, 16},
		{TagCompression, Short, 1, 1},
		{TagPhotometricInterpretation, Short, 1, 2},
		{TagImageDescription, Ascii, uint64(len(description) + 1), 0},
		{TagTileWidth, Short, 1, 16},
		{TagTileLength, Short, 1, 16},
		{TagTileOffsets, Long, 1, 1000},
		{TagTileByteCounts, Long, 1, 200},
	}

	headerSize, tagRecordSize, offsetFieldSize, countFieldSize := 8, 12, 4, 2
	if bigTiff {
		headerSize, tagRecordSize, offsetFieldSize, countFieldSize = 16, 20, 8, 8
	}
	ifdHeaderSize := countFieldSize + len(tags)*tagRecordSize + offsetFieldSize
	descOffset := uint64(headerSize + ifdHeaderSize)

	var buf bytes.Buffer
	if bigEndian {
		buf.Write([]byte{0x4D, 0x4D})
	} else {
		buf.Write([]byte{0x49, 0x49})
	}
	if bigTiff {
		binary.Write(&buf, order, uint16(0x002B))
		binary.Write(&buf, order, uint16(8)) // offset size
		binary.Write(&buf, order, uint16(0)) // reserved
		binary.Write(&buf, order, uint64(headerSize))
		binary.Write(&buf, order, uint64(len(tags)))
	} else {
		binary.Write(&buf, order, uint16(0x002A))
		binary.Write(&buf, order, uint32(headerSize))
		binary.Write(&buf, order, uint16(len(tags)))
	}

	for _, tag := range tags {
		binary.Write(&buf, order, uint16(tag.code))
		binary.Write(&buf, order, uint16(tag.dtype))
		if bigTiff {
			binary.Write(&buf, order, tag.count)
		} else {
			binary.Write(&buf, order, uint32(tag.count))
		}

		field := make([]byte, offsetFieldSize)
		if tag.code == TagImageDescription {
			// Always stored by offset in these fixtures: the description
			// text is longer than either inline capacity.
			if bigTiff {
				order.PutUint64(field, descOffset)
			} else {
				order.PutUint32(field, uint32(descOffset))
			}
		} else {
			writeInlineValue(order, field, DataType(tag.dtype), tag.value)
		}
		buf.Write(field)
	}

	if bigTiff {
		binary.Write(&buf, order, uint64(0)) // next IFD offset: none
	} else {
		binary.Write(&buf, order, uint32(0))
	}

	buf.WriteString(description)
	buf.WriteByte(0)

	return buf.Bytes()
}

// writeInlineValue writes value into the left-justified fieldSize()-wide
// prefix of buf, matching how TIFF stores an inline value in a wider value
// field: the encoded bytes start at the low-numbered end regardless of the
// value field's total capacity.
func writeInlineValue(order binary.ByteOrder, buf []byte, dt DataType, value uint64) {
	switch dt.FieldSize() {
	case 1:
		buf[0] = byte(value)
	case 2:
		order.PutUint16(buf[0:2], uint16(value))
	case 4:
		order.PutUint32(buf[0:4], uint32(value))
	case 8:
		order.PutUint64(buf[0:8], value)
	}
}

func openTestFile(t *testing.T, data []byte) *File {
	t.Helper()
	r := closingReader{bytes.NewReader(data)}
	f, err := openReader(r, nil)
	qt.New(t).Assert(err, qt.IsNil)
	return f
}

func TestOpenParsesSingleLevelSlide(t *testing.T) {
	c := qt.New(t)

	desc := "16x16 (16x16) JPEG/RGB Q=30|MPP=0.5000|AppMag=10"
	f := openTestFile(t, buildClassicTIFF(t, desc))

	c.Assert(f.Header.IsBigTiff, qt.IsFalse)
	c.Assert(f.Header.IsBigEndian, qt.IsFalse)
	c.Assert(len(f.IFDs), qt.Equals, 1)

	ifd := f.IFDs[0]
	c.Assert(ifd.ImageWidth, qt.Equals, uint32(16))
	c.Assert(ifd.ImageHeight, qt.Equals, uint32(16))
	c.Assert(ifd.TileWidth, qt.Equals, uint32(16))
	c.Assert(ifd.TileHeight, qt.Equals, uint32(16))
	c.Assert(ifd.WidthInTiles, qt.Equals, uint32(1))
	c.Assert(ifd.HeightInTiles, qt.Equals, uint32(1))
	c.Assert(ifd.TileOffsets, qt.DeepEquals, []uint64{1000})
	c.Assert(ifd.TileByteCounts, qt.DeepEquals, []uint64{200})
	c.Assert(ifd.ImageDescription, qt.Equals, desc)
	c.Assert(ifd.SubimageType, qt.Equals, SubimageLevel)

	c.Assert(f.LevelCount, qt.Equals, 1)
	c.Assert(f.MppX, qt.Equals, 0.5)
	c.Assert(f.MppY, qt.Equals, 0.5)
	c.Assert(ifd.LevelMagnification, qt.Equals, 10.0)
}

func TestOpenDefaultsMPPWithoutHint(t *testing.T) {
	c := qt.New(t)

	f := openTestFile(t, buildClassicTIFF(t, "no hints here"))
	c.Assert(f.MppX, qt.Equals, 0.25)
	c.Assert(f.MppY, qt.Equals, 0.25)
}

func TestOpenMissingFileReturnsIOError(t *testing.T) {
	c := qt.New(t)

	_, err := Open("/nonexistent/path/to/a/slide.tiff")
	c.Assert(err, qt.Not(qt.IsNil))
	c.Assert(err, qt.ErrorIs, ErrIO)
}

func TestOpenRejectsBadMagic(t *testing.T) {
	c := qt.New(t)

	bad := []byte{0x00, 0x00, 0x2A, 0x00, 0, 0, 0, 0}
	r := closingReader{bytes.NewReader(bad)}
	_, err := openReader(r, nil)
	c.Assert(err, qt.ErrorIs, ErrBadMagic)
}

func TestOpenTruncatedHeaderIsUnexpectedEOF(t *testing.T) {
	c := qt.New(t)

	r := closingReader{bytes.NewReader([]byte{0x49, 0x49})}
	_, err := openReader(r, nil)
	c.Assert(err, qt.ErrorIs, ErrUnexpectedEOF)
}

func TestOpenTileByteCountsMismatchIsRejected(t *testing.T) {
	c := qt.New(t)

	data := buildClassicTIFF(t, "16x16")
	// Corrupt the TileByteCounts tag's count field (index 8) from 1 to 2,
	// so it no longer matches the TileOffsets count of 1.
	const ifdOffset = 8
	tileByteCountsRecordOffset := ifdOffset + 2 + 8*12
	binary.LittleEndian.PutUint32(data[tileByteCountsRecordOffset+4:tileByteCountsRecordOffset+8], 2)

	r := closingReader{bytes.NewReader(data)}
	_, err := openReader(r, nil)
	c.Assert(err, qt.ErrorIs, ErrTileCountMismatch)
}

// TestOpenParsesBigTiffLittleEndianSlide exercises the BigTIFF-specific
// branches of header.go, walker.go and tag.go (8-byte tag count, 20-byte
// tag records, 8-byte inline capacity and offset width) that
// TestOpenParsesSingleLevelSlide never reaches.
func TestOpenParsesBigTiffLittleEndianSlide(t *testing.T) {
	c := qt.New(t)

	desc := "16x16 (16x16) JPEG/RGB Q=30|MPP=0.5000|AppMag=10"
	f := openTestFile(t, buildBigTiffIFD(t, desc, binary.LittleEndian, false))

	c.Assert(f.Header.IsBigTiff, qt.IsTrue)
	c.Assert(f.Header.IsBigEndian, qt.IsFalse)
	c.Assert(f.Header.OffsetWidth, qt.Equals, 8)
	c.Assert(len(f.IFDs), qt.Equals, 1)

	ifd := f.IFDs[0]
	c.Assert(ifd.ImageWidth, qt.Equals, uint32(16))
	c.Assert(ifd.ImageHeight, qt.Equals, uint32(16))
	c.Assert(ifd.TileWidth, qt.Equals, uint32(16))
	c.Assert(ifd.TileHeight, qt.Equals, uint32(16))
	c.Assert(ifd.WidthInTiles, qt.Equals, uint32(1))
	c.Assert(ifd.HeightInTiles, qt.Equals, uint32(1))
	c.Assert(ifd.TileOffsets, qt.DeepEquals, []uint64{1000})
	c.Assert(ifd.TileByteCounts, qt.DeepEquals, []uint64{200})
	c.Assert(ifd.ImageDescription, qt.Equals, desc)
	c.Assert(ifd.SubimageType, qt.Equals, SubimageLevel)

	c.Assert(f.LevelCount, qt.Equals, 1)
	c.Assert(f.MppX, qt.Equals, 0.5)
	c.Assert(f.MppY, qt.Equals, 0.5)
	c.Assert(ifd.LevelMagnification, qt.Equals, 10.0)
}

// TestOpenParsesBigTiffBigEndianSlide is the same fixture as
// TestOpenParsesBigTiffLittleEndianSlide, written big-endian, confirming the
// BigTIFF branches also normalise inline fields correctly when combined
// with a big-endian byte order.
func TestOpenParsesBigTiffBigEndianSlide(t *testing.T) {
	c := qt.New(t)

	desc := "16x16 (16x16) JPEG/RGB Q=30|MPP=0.5000|AppMag=10"
	f := openTestFile(t, buildBigTiffIFD(t, desc, binary.BigEndian, true))

	c.Assert(f.Header.IsBigTiff, qt.IsTrue)
	c.Assert(f.Header.IsBigEndian, qt.IsTrue)
	c.Assert(f.Header.OffsetWidth, qt.Equals, 8)

	ifd := f.IFDs[0]
	c.Assert(ifd.ImageWidth, qt.Equals, uint32(16))
	c.Assert(ifd.ImageHeight, qt.Equals, uint32(16))
	c.Assert(ifd.TileOffsets, qt.DeepEquals, []uint64{1000})
	c.Assert(ifd.TileByteCounts, qt.DeepEquals, []uint64{200})
	c.Assert(ifd.ImageDescription, qt.Equals, desc)
}

// TestEndianTransparency asserts the spec's endian-transparency law: an
// otherwise-identical big-endian and little-endian file must parse to the
// same Ifd values, differing only in Header.IsBigEndian.
func TestEndianTransparency(t *testing.T) {
	c := qt.New(t)

	desc := "16x16 (16x16) JPEG/RGB Q=30|MPP=0.5000|AppMag=10"
	little := openTestFile(t, buildBigTiffIFD(t, desc, binary.LittleEndian, false))
	big := openTestFile(t, buildBigTiffIFD(t, desc, binary.BigEndian, true))

	headerOpts := cmpopts.IgnoreFields(FileHeader{}, "IsBigEndian")
	c.Assert(cmp.Diff(little.Header, big.Header, headerOpts), qt.Equals, "")
	c.Assert(cmp.Diff(little.IFDs, big.IFDs, cmpopts.IgnoreFields(Ifd{}, "ReferenceBlackWhite")), qt.Equals, "")
}

// TestReadHeaderAcceptsLiteralBigTiffScenario reproduces spec scenario 1
// verbatim: a bare 16-byte BigTIFF header, with no IFD data following it,
// must parse to the documented field values.
func TestReadHeaderAcceptsLiteralBigTiffScenario(t *testing.T) {
	c := qt.New(t)

	raw := []byte{0x4D, 0x4D, 0x00, 0x2B, 0x00, 0x08, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x10}
	r := NewByteOrderReader(closingReader{bytes.NewReader(raw)}, binary.LittleEndian)

	h, err := readHeader(r)
	c.Assert(err, qt.IsNil)
	c.Assert(h.IsBigEndian, qt.IsTrue)
	c.Assert(h.IsBigTiff, qt.IsTrue)
	c.Assert(h.OffsetWidth, qt.Equals, 8)
	c.Assert(h.FirstIFDOffset, qt.Equals, uint64(16))
}

// TestReadHeaderRejectsOffsetWidthMismatch is the reject half of scenario
// 1: byte 5 changed from 0x08 to 0x09 must be rejected as a bad magic,
// since BigTIFF only ever declares an 8-byte offset width.
func TestReadHeaderRejectsOffsetWidthMismatch(t *testing.T) {
	c := qt.New(t)

	raw := []byte{0x4D, 0x4D, 0x00, 0x2B, 0x00, 0x09, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x10}
	r := NewByteOrderReader(closingReader{bytes.NewReader(raw)}, binary.LittleEndian)

	_, err := readHeader(r)
	c.Assert(errors.Is(err, ErrBadMagic), qt.IsTrue)
}
