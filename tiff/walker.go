package tiff

import (
	"encoding/binary"
	"fmt"
	"os"
	"strings"
)

// tagDispatch lists the tag codes this package interprets; every other
// code is silently ignored, per §4.3.
var tagDispatch = map[TagID]bool{
	TagNewSubfileType:            true,
	TagImageWidth:                true,
	TagImageLength:               true,
	TagBitsPerSample:             true,
	TagCompression:               true,
	TagPhotometricInterpretation: true,
	TagImageDescription:          true,
	TagTileWidth:                 true,
	TagTileLength:                true,
	TagTileOffsets:               true,
	TagTileByteCounts:            true,
	TagJPEGTables:                true,
	TagYCbCrSubSampling:          true,
	TagReferenceBlackWhite:       true,
}

// Open reads the TIFF/BigTIFF header at path, walks the IFD chain, decodes
// every tag this package understands, and classifies each IFD as a pyramid
// level, macro image, label image, or unknown. The returned File owns the
// open file handle; call Close when done.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}

	file, err := openReader(f, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return file, nil
}

// readSeekCloser is satisfied by *os.File; factored out so tests can drive
// the walker off an in-memory buffer without touching the filesystem.
type readSeekCloser interface {
	Seek(offset int64, whence int) (int64, error)
	Read(p []byte) (int, error)
	Close() error
}

func openReader(rsc readSeekCloser, sizer interface{ Stat() (os.FileInfo, error) }) (*File, error) {
	var fileSize int64
	if sizer != nil {
		if info, err := sizer.Stat(); err == nil {
			fileSize = info.Size()
		}
	}

	// The byte-order marker itself repeats the same byte twice ("II"/"MM"),
	// so the order used to read it doesn't matter; readHeader fixes up
	// r.Order for everything that follows.
	r := NewByteOrderReader(rsc, binary.LittleEndian)
	header, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	file := &File{
		Header:   header,
		FileSize: fileSize,
		closer:   rsc,
		reader:   r,
	}

	offset := header.FirstIFDOffset
	index := 0
	for offset != 0 {
		ifd, nextOffset, err := readIfd(r, header, index, offset)
		if err != nil {
			return nil, err
		}
		file.IFDs = append(file.IFDs, ifd)
		offset = nextOffset
		index++
	}

	postProcess(file)

	return file, nil
}

// maxTagCount bounds the tag count read from an IFD header, guarding
// against a corrupt or hostile file forcing a huge allocation.
const maxTagCount = 1 << 20

// readIfd parses one IFD starting at offset and returns it along with the
// offset of the next IFD in the chain (0 terminates the chain).
func readIfd(r *ByteOrderReader, header FileHeader, index int, offset uint64) (*Ifd, uint64, error) {
	if err := r.Seek(int64(offset)); err != nil {
		return nil, 0, err
	}

	var tagCount uint64
	if header.IsBigTiff {
		v, err := r.ReadUint64()
		if err != nil {
			return nil, 0, err
		}
		tagCount = v
	} else {
		v, err := r.ReadUint16()
		if err != nil {
			return nil, 0, err
		}
		tagCount = uint64(v)
	}

	if tagCount > maxTagCount {
		return nil, 0, formatErrorf(fmt.Sprintf("IFD %d claims %d tags", index, tagCount), nil)
	}

	rawTagSize := classicRawTagSize
	if header.IsBigTiff {
		rawTagSize = bigtiffRawTagSize
	}
	raw := make([]byte, tagCount*uint64(rawTagSize))
	if err := r.ReadFull(raw); err != nil {
		return nil, 0, err
	}

	ifd := &Ifd{
		Index:      index,
		ColorSpace: PhotometricRGB,
	}

	for i := uint64(0); i < tagCount; i++ {
		rec := raw[i*uint64(rawTagSize) : (i+1)*uint64(rawTagSize)]
		tag := decodeRawTagRecord(r.Order, header, rec)
		if err := applyTag(ifd, r, header, &tag); err != nil {
			return nil, 0, err
		}
	}

	var nextOffset uint64
	if header.IsBigTiff {
		v, err := r.ReadUint64()
		if err != nil {
			return nil, 0, err
		}
		nextOffset = v
	} else {
		v, err := r.ReadUint32()
		if err != nil {
			return nil, 0, err
		}
		nextOffset = uint64(v)
	}

	finishIfdGeometry(ifd)
	classifySubimage(ifd)

	return ifd, nextOffset, nil
}

// decodeRawTagRecord splits a raw 12- or 20-byte tag record into its
// (code, type, count, inline-or-offset) fields and hands off to decodeTag.
func decodeRawTagRecord(order binary.ByteOrder, header FileHeader, rec []byte) Tag {
	code := order.Uint16(rec[0:2])
	dataType := order.Uint16(rec[2:4])

	if header.IsBigTiff {
		count := order.Uint64(rec[4:12])
		return decodeTag(order, header.IsBigEndian, true, code, dataType, count, rec[12:20])
	}
	count := uint64(order.Uint32(rec[4:8]))
	return decodeTag(order, header.IsBigEndian, false, code, dataType, count, rec[8:12])
}

func applyTag(ifd *Ifd, r *ByteOrderReader, header FileHeader, tag *Tag) error {
	if !tagDispatch[tag.Code] {
		return nil
	}

	switch tag.Code {
	case TagNewSubfileType:
		ifd.SubfileType = tag.InlineUint32()
	case TagImageWidth:
		ifd.ImageWidth = tag.InlineUint32()
	case TagImageLength:
		ifd.ImageHeight = tag.InlineUint32()
	case TagBitsPerSample:
		// Ignored: the viewer requires 8 bits per sample and does not
		// otherwise interpret this tag.
	case TagCompression:
		ifd.Compression = uint16(tag.InlineUint32())
	case TagPhotometricInterpretation:
		ifd.ColorSpace = uint16(tag.InlineUint32())
	case TagImageDescription:
		desc, err := tag.ReadASCII(r)
		if err != nil {
			return err
		}
		ifd.ImageDescription = cToGoString(desc, tag.Count)
	case TagTileWidth:
		ifd.TileWidth = tag.InlineUint32()
	case TagTileLength:
		ifd.TileHeight = tag.InlineUint32()
	case TagTileOffsets:
		ifd.TileCount = tag.Count
		offsets, err := tag.ReadIntegers(r)
		if err != nil {
			return err
		}
		ifd.TileOffsets = offsets
	case TagTileByteCounts:
		if tag.Count != ifd.TileCount {
			return fmt.Errorf("%w: TileByteCounts has %d entries, TileOffsets has %d", ErrTileCountMismatch, tag.Count, ifd.TileCount)
		}
		counts, err := tag.ReadIntegers(r)
		if err != nil {
			return err
		}
		ifd.TileByteCounts = counts
	case TagJPEGTables:
		data, err := tag.ReadASCII(r)
		if err != nil {
			return err
		}
		ifd.JPEGTables = data[:tag.Count]
	case TagYCbCrSubSampling:
		h, v := tag.InlineUint16Pair()
		ifd.ChromaSubsamplingHorizontal = h
		ifd.ChromaSubsamplingVertical = v
	case TagReferenceBlackWhite:
		rationals, err := tag.ReadRationals(r)
		if err != nil {
			return err
		}
		ifd.ReferenceBlackWhite = rationals
	}

	return nil
}

// cToGoString trims the ASCII buffer to its declared element count and
// drops every trailing NUL, matching how a null-terminated TIFF ASCII
// field is conventionally consumed.
func cToGoString(buf []byte, count uint64) string {
	s := buf[:count]
	for len(s) > 0 && s[len(s)-1] == 0 {
		s = s[:len(s)-1]
	}
	return string(s)
}

func finishIfdGeometry(ifd *Ifd) {
	if ifd.TileWidth > 0 {
		ifd.WidthInTiles = ceilDiv(ifd.ImageWidth, ifd.TileWidth)
	}
	if ifd.TileHeight > 0 {
		ifd.HeightInTiles = ceilDiv(ifd.ImageHeight, ifd.TileHeight)
	}
}

func ceilDiv(a, b uint32) uint32 {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}

// classifySubimage decides what an IFD represents. The heuristic, in order:
//  1. an explicit "Macro"/"Label"/"level" prefix on ImageDescription;
//  2. otherwise, if the IFD is tiled and is either the very first IFD in the
//     file or has the REDUCEDIMAGE subfile-type bit set, assume it's a
//     pyramid level;
//  3. otherwise leave it Unknown.
// This substring matching on free-form English text is inherently
// heuristic; files that don't follow the Aperio/Philips convention will
// fall through to rule 2 or remain Unknown.
func classifySubimage(ifd *Ifd) {
	switch {
	case strings.HasPrefix(ifd.ImageDescription, "Macro"):
		ifd.SubimageType = SubimageMacro
	case strings.HasPrefix(ifd.ImageDescription, "Label"):
		ifd.SubimageType = SubimageLabel
	case strings.HasPrefix(ifd.ImageDescription, "level"):
		ifd.SubimageType = SubimageLevel
	}

	if ifd.SubimageType == SubimageUnknown && ifd.TileWidth > 0 {
		if ifd.Index == 0 || ifd.SubfileType&SubfileReducedImage != 0 {
			ifd.SubimageType = SubimageLevel
		}
	}
}
