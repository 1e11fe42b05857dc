package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/pierrec/lz4/v4"

	"github.com/jesperkers/slideviewer/tiff"
)

// httpHeaderTerminator marks the end of the HTTP-style prefix that Serialize
// writes ahead of the block stream.
var httpHeaderTerminator = []byte("\r\n\r\n")

// Deserialize decodes a buffer produced by Serialize back into a tiff.File.
// The returned File holds no open file handle; Close is a no-op on it.
func Deserialize(data []byte) (*tiff.File, error) {
	body := data
	if i := bytes.Index(data, httpHeaderTerminator); i >= 0 {
		body = data[i+len(httpHeaderTerminator):]
	}

	pos := 0
	block, payload, err := popBlock(body, &pos)
	if err != nil {
		return nil, err
	}

	if block.Type == blockLZ4Compressed {
		decoded := make([]byte, block.Index)
		n, err := lz4.UncompressBlock(payload, decoded)
		if err != nil || uint32(n) != block.Index {
			return nil, fmt.Errorf("%w: %v", ErrDecompressionFailed, err)
		}
		body = decoded
		pos = 0
		block, payload, err = popBlock(body, &pos)
		if err != nil {
			return nil, err
		}
	}

	if block.Type != blockHeaderAndMeta {
		return nil, fmt.Errorf("%w: expected HEADER_AND_META block, got type %d", ErrMalformedStream, block.Type)
	}
	var sh SerialHeader
	if err := binary.Read(bytes.NewReader(payload), byteOrder, &sh); err != nil {
		return nil, fmt.Errorf("%w: decoding header block: %v", ErrMalformedStream, err)
	}

	block, payload, err = popBlock(body, &pos)
	if err != nil {
		return nil, err
	}
	if block.Type != blockIFDs {
		return nil, fmt.Errorf("%w: expected IFDS block, got type %d", ErrMalformedStream, block.Type)
	}
	if len(payload) != int(sh.IfdCount)*ifdSize {
		return nil, fmt.Errorf("%w: IFDS block has %d bytes, expected %d for %d IFDs", ErrMalformedStream, len(payload), int(sh.IfdCount)*ifdSize, sh.IfdCount)
	}
	serialIfds := make([]SerialIfd, sh.IfdCount)
	if err := binary.Read(bytes.NewReader(payload), byteOrder, &serialIfds); err != nil {
		return nil, fmt.Errorf("%w: decoding IFDS block: %v", ErrMalformedStream, err)
	}

	ifds := make([]*tiff.Ifd, sh.IfdCount)
	seen := make(map[uint32]map[uint32]bool)
	for i, si := range serialIfds {
		ifds[i] = &tiff.Ifd{
			Index:                       i,
			ImageWidth:                  si.ImageWidth,
			ImageHeight:                 si.ImageHeight,
			TileWidth:                   si.TileWidth,
			TileHeight:                  si.TileHeight,
			WidthInTiles:                si.WidthInTiles,
			HeightInTiles:               si.HeightInTiles,
			TileCount:                   si.TileCount,
			Compression:                 uint16(si.Compression),
			ColorSpace:                  uint16(si.ColorSpace),
			ChromaSubsamplingHorizontal: uint16(si.ChromaSubsamplingHorizontal),
			ChromaSubsamplingVertical:   uint16(si.ChromaSubsamplingVertical),
			SubimageType:                tiff.SubimageType(si.SubimageType),
			SubfileType:                 si.SubfileType,
			LevelMagnification:          si.LevelMagnification,
			UmPerPixelX:                 si.UmPerPixelX,
			UmPerPixelY:                 si.UmPerPixelY,
			XTileSideInUm:               si.XTileSideInUm,
			YTileSideInUm:               si.YTileSideInUm,
		}
	}

	for {
		block, payload, err = popBlock(body, &pos)
		if err != nil {
			return nil, err
		}
		if block.Type == blockTerminator {
			break
		}
		if block.Type == blockHeaderAndMeta || block.Type == blockIFDs {
			return nil, fmt.Errorf("%w: unexpected repeated block type %d", ErrMalformedStream, block.Type)
		}

		switch block.Type {
		case blockImageDescription, blockTileOffsets, blockTileByteCounts, blockJPEGTables:
			if block.Index >= sh.IfdCount {
				return nil, fmt.Errorf("%w: block type %d references IFD %d, have %d IFDs", ErrMalformedStream, block.Type, block.Index, sh.IfdCount)
			}
			if seen[block.Type] == nil {
				seen[block.Type] = make(map[uint32]bool)
			}
			if seen[block.Type][block.Index] {
				return nil, fmt.Errorf("%w: block type %d for IFD %d", ErrDuplicateBlock, block.Type, block.Index)
			}
			seen[block.Type][block.Index] = true

			ifd := ifds[block.Index]
			si := serialIfds[block.Index]
			switch block.Type {
			case blockImageDescription:
				if uint64(len(payload)) != si.ImageDescriptionLength {
					return nil, fmt.Errorf("%w: IFD %d ImageDescription block is %d bytes, header declared %d", ErrMalformedStream, block.Index, len(payload), si.ImageDescriptionLength)
				}
				ifd.ImageDescription = string(payload)
			case blockTileOffsets:
				if uint64(len(payload)) != si.TileCount*8 {
					return nil, fmt.Errorf("%w: IFD %d TileOffsets block has %d bytes, expected %d for %d tiles", ErrMalformedStream, block.Index, len(payload), si.TileCount*8, si.TileCount)
				}
				if len(payload) > 0 {
					ifd.TileOffsets = make([]uint64, len(payload)/8)
					if err := binary.Read(bytes.NewReader(payload), byteOrder, &ifd.TileOffsets); err != nil {
						return nil, fmt.Errorf("%w: decoding TileOffsets for IFD %d: %v", ErrMalformedStream, block.Index, err)
					}
				}
			case blockTileByteCounts:
				if uint64(len(payload)) != si.TileCount*8 {
					return nil, fmt.Errorf("%w: IFD %d TileByteCounts block has %d bytes, expected %d for %d tiles", ErrMalformedStream, block.Index, len(payload), si.TileCount*8, si.TileCount)
				}
				if len(payload) > 0 {
					ifd.TileByteCounts = make([]uint64, len(payload)/8)
					if err := binary.Read(bytes.NewReader(payload), byteOrder, &ifd.TileByteCounts); err != nil {
						return nil, fmt.Errorf("%w: decoding TileByteCounts for IFD %d: %v", ErrMalformedStream, block.Index, err)
					}
				}
			case blockJPEGTables:
				if uint64(len(payload)) != si.JPEGTablesLength {
					return nil, fmt.Errorf("%w: IFD %d JPEGTables block is %d bytes, header declared %d", ErrMalformedStream, block.Index, len(payload), si.JPEGTablesLength)
				}
				ifd.JPEGTables = append([]byte(nil), payload...)
			}
		default:
			// Unknown block type: forward-compatible readers skip it, since
			// the length prefix always lets us find the next block.
		}
	}

	f := &tiff.File{
		Header: tiff.FileHeader{
			IsBigEndian:    sh.IsBigEndian != 0,
			IsBigTiff:      sh.IsBigTiff != 0,
			OffsetWidth:    int(sh.OffsetWidth),
			FirstIFDOffset: 0,
		},
		FileSize:        int64(sh.FileSize),
		IFDs:            ifds,
		MainImageIndex:  int(sh.MainImageIndex),
		MacroImageIndex: int(sh.MacroImageIndex),
		LabelImageIndex: int(sh.LabelImageIndex),
		LevelImageIndex: int(sh.LevelImageIndex),
		LevelCount:      int(sh.LevelCount),
		MppX:            sh.MppX,
		MppY:            sh.MppY,
	}
	return f, nil
}

// popBlock reads one SerialBlock header at *pos and returns it along with
// its payload slice, advancing *pos past the payload.
func popBlock(buf []byte, pos *int) (SerialBlock, []byte, error) {
	const blockHeaderSize = 16 // uint32 + uint32 + uint64, no padding
	if *pos+blockHeaderSize > len(buf) {
		return SerialBlock{}, nil, fmt.Errorf("%w: truncated block header at offset %d", ErrMalformedStream, *pos)
	}
	var block SerialBlock
	if err := binary.Read(bytes.NewReader(buf[*pos:*pos+blockHeaderSize]), byteOrder, &block); err != nil {
		return SerialBlock{}, nil, fmt.Errorf("%w: %v", ErrMalformedStream, err)
	}
	*pos += blockHeaderSize

	end := *pos + int(block.Length)
	if block.Length > uint64(len(buf)) || end > len(buf) || end < *pos {
		return SerialBlock{}, nil, fmt.Errorf("%w: block type %d claims %d bytes, only %d remain", ErrMalformedStream, block.Type, block.Length, len(buf)-*pos)
	}
	payload := buf[*pos:end]
	*pos = end

	return block, payload, nil
}
