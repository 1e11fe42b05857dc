package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/pierrec/lz4/v4"

	"github.com/jesperkers/slideviewer/tiff"
)

// contentLengthWidth is the width, in decimal digits, reserved for the
// Content-Length value in the HTTP-style prefix; the value is zero-padded
// to this width, so the prefix has the same length whatever the payload
// size. Serialize formats the prefix once, after it has chosen between the
// compressed and uncompressed payload, so the value is always that
// payload's final length.
const contentLengthWidth = 16

// Serialize encodes a tiff.File into the wire format: an HTTP-response-style
// header followed by a sequence of length-framed blocks, optionally wrapped
// in a single LZ4-compressed envelope block. No pixel data is included.
func Serialize(f *tiff.File) ([]byte, error) {
	body, err := buildBody(f)
	if err != nil {
		return nil, err
	}

	payload := body
	if compressed, ok := tryCompress(body); ok {
		payload = compressed
	}

	header := fmt.Sprintf(
		"HTTP/1.1 200 OK\r\nConnection: close\r\nContent-Type: application/octet-stream\r\nContent-Length: %0*d\r\n\r\n",
		contentLengthWidth, len(payload),
	)

	out := make([]byte, 0, len(header)+len(payload))
	out = append(out, header...)
	out = append(out, payload...)
	return out, nil
}

// buildBody writes the uncompressed block stream: HEADER_AND_META, IFDS,
// then per-IFD ImageDescription/TileOffsets/TileByteCounts/JPEGTables
// blocks in IFD order, terminated by a TERMINATOR block.
func buildBody(f *tiff.File) ([]byte, error) {
	var buf bytes.Buffer

	sh := SerialHeader{
		FileSize:        uint64(f.FileSize),
		IfdCount:        uint32(len(f.IFDs)),
		MainImageIndex:  uint32(f.MainImageIndex),
		MacroImageIndex: uint32(f.MacroImageIndex),
		LabelImageIndex: uint32(f.LabelImageIndex),
		LevelImageIndex: uint32(f.LevelImageIndex),
		LevelCount:      uint32(f.LevelCount),
		OffsetWidth:     uint32(f.Header.OffsetWidth),
		IsBigTiff:       boolToUint32(f.Header.IsBigTiff),
		IsBigEndian:     boolToUint32(f.Header.IsBigEndian),
		MppX:            f.MppX,
		MppY:            f.MppY,
	}
	if err := writeBlock(&buf, blockHeaderAndMeta, 0, sh); err != nil {
		return nil, err
	}

	serialIfds := make([]SerialIfd, len(f.IFDs))
	for i, ifd := range f.IFDs {
		serialIfds[i] = SerialIfd{
			ImageWidth:                  ifd.ImageWidth,
			ImageHeight:                 ifd.ImageHeight,
			TileWidth:                   ifd.TileWidth,
			TileHeight:                  ifd.TileHeight,
			WidthInTiles:                ifd.WidthInTiles,
			HeightInTiles:               ifd.HeightInTiles,
			TileCount:                   ifd.TileCount,
			ImageDescriptionLength:      uint64(len(ifd.ImageDescription)),
			JPEGTablesLength:            uint64(len(ifd.JPEGTables)),
			Compression:                 uint32(ifd.Compression),
			ColorSpace:                  uint32(ifd.ColorSpace),
			ChromaSubsamplingHorizontal: uint32(ifd.ChromaSubsamplingHorizontal),
			ChromaSubsamplingVertical:   uint32(ifd.ChromaSubsamplingVertical),
			SubimageType:                uint32(ifd.SubimageType),
			SubfileType:                 ifd.SubfileType,
			LevelMagnification:          ifd.LevelMagnification,
			UmPerPixelX:                 ifd.UmPerPixelX,
			UmPerPixelY:                 ifd.UmPerPixelY,
			XTileSideInUm:               ifd.XTileSideInUm,
			YTileSideInUm:               ifd.YTileSideInUm,
		}
	}
	if err := writeBlock(&buf, blockIFDs, 0, serialIfds); err != nil {
		return nil, err
	}

	for i, ifd := range f.IFDs {
		index := uint32(i)
		if err := writeRawBlock(&buf, blockImageDescription, index, []byte(ifd.ImageDescription)); err != nil {
			return nil, err
		}
		if err := writeBlock(&buf, blockTileOffsets, index, ifd.TileOffsets); err != nil {
			return nil, err
		}
		if err := writeBlock(&buf, blockTileByteCounts, index, ifd.TileByteCounts); err != nil {
			return nil, err
		}
		if err := writeRawBlock(&buf, blockJPEGTables, index, ifd.JPEGTables); err != nil {
			return nil, err
		}
	}

	if err := writeRawBlock(&buf, blockTerminator, 0, nil); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// writeBlock frames a fixed-size payload (a struct, or a slice of
// fixed-size elements) with a SerialBlock header.
func writeBlock(buf *bytes.Buffer, blockType, index uint32, payload interface{}) error {
	var payloadBuf bytes.Buffer
	if err := binary.Write(&payloadBuf, byteOrder, payload); err != nil {
		return fmt.Errorf("wire: encoding block %d: %w", blockType, err)
	}
	return writeRawBlock(buf, blockType, index, payloadBuf.Bytes())
}

// writeRawBlock frames an already-encoded byte payload with a SerialBlock
// header.
func writeRawBlock(buf *bytes.Buffer, blockType, index uint32, payload []byte) error {
	block := SerialBlock{Type: blockType, Index: index, Length: uint64(len(payload))}
	if err := binary.Write(buf, byteOrder, block); err != nil {
		return fmt.Errorf("wire: encoding block header %d: %w", blockType, err)
	}
	buf.Write(payload)
	return nil
}

// tryCompress attempts to LZ4-compress body, returning the single
// LZ4_COMPRESSED_DATA block that wraps it. Compression is best-effort: any
// failure falls back to shipping body uncompressed. Matching
// tiff_serialize in the C original, a successful compression is used
// unconditionally, even if it doesn't shrink the payload.
func tryCompress(body []byte) ([]byte, bool) {
	dst := make([]byte, lz4.CompressBlockBound(len(body)))
	var compressor lz4.Compressor
	n, err := compressor.CompressBlock(body, dst)
	if err != nil || n <= 0 {
		return nil, false
	}

	var buf bytes.Buffer
	block := SerialBlock{Type: blockLZ4Compressed, Index: uint32(len(body)), Length: uint64(n)}
	if err := binary.Write(&buf, byteOrder, block); err != nil {
		return nil, false
	}
	buf.Write(dst[:n])
	return buf.Bytes(), true
}

func boolToUint32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
