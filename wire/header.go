package wire

import "encoding/binary"

// SerialHeader is the fixed-size HEADER_AND_META block payload: everything
// about the slide that isn't per-IFD. Every field is a fixed-width numeric
// type so the struct can be read and written with encoding/binary without
// any manual offset bookkeeping.
type SerialHeader struct {
	FileSize        uint64
	IfdCount        uint32
	MainImageIndex  uint32
	MacroImageIndex uint32
	LabelImageIndex uint32
	LevelImageIndex uint32
	LevelCount      uint32
	OffsetWidth     uint32
	IsBigTiff       uint32
	IsBigEndian     uint32
	MppX            float64
	MppY            float64
}

// SerialIfd is one fixed-size record of the IFDS block: the geometry and
// scalar tags of a single IFD. Variable-length payloads (ImageDescription,
// TileOffsets, TileByteCounts, JPEGTables) travel as their own blocks,
// indexed back to a SerialIfd by position.
type SerialIfd struct {
	ImageWidth    uint32
	ImageHeight   uint32
	TileWidth     uint32
	TileHeight    uint32
	WidthInTiles  uint32
	HeightInTiles uint32
	TileCount     uint64

	ImageDescriptionLength uint64
	JPEGTablesLength       uint64

	Compression                 uint32
	ColorSpace                  uint32
	ChromaSubsamplingHorizontal uint32
	ChromaSubsamplingVertical   uint32

	SubimageType uint32
	SubfileType  uint32

	LevelMagnification float64
	UmPerPixelX        float64
	UmPerPixelY        float64
	XTileSideInUm      float64
	YTileSideInUm      float64
}

// headerSize and ifdSize are the on-wire sizes of SerialHeader and
// SerialIfd. Every field of both structs is a fixed-width numeric type, so
// binary.Size reports their packed size with no padding.
var (
	headerSize = binary.Size(SerialHeader{})
	ifdSize    = binary.Size(SerialIfd{})
)
