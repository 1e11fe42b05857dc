// Package wire implements the block-framed, HTTP-prefixed, optionally
// LZ4-compressed transfer codec used to ship a parsed tiff.File between the
// process that opened the slide and the process that renders it, without
// shipping any pixel data.
package wire

import "encoding/binary"

// byteOrder is the wire encoding's byte order. It is independent of the
// endianness of the TIFF file being described, which travels only as a
// flag inside SerialHeader.
var byteOrder = binary.LittleEndian

// Block type codes. These numeric assignments are part of the wire
// contract and must never be renumbered once shipped.
const (
	blockHeaderAndMeta    uint32 = 1
	blockIFDs             uint32 = 2
	blockImageDescription uint32 = 3
	blockTileOffsets      uint32 = 4
	blockTileByteCounts   uint32 = 5
	blockJPEGTables       uint32 = 6
	blockTerminator       uint32 = 7
	blockLZ4Compressed    uint32 = 8
)

// SerialBlock is the framing record that precedes every chunk of payload in
// the wire format: a type, an index (meaning depends on the block type —
// usually an IFD index, but the general-purpose decompressed-size field for
// an LZ4_COMPRESSED_DATA block), and a payload length in bytes.
type SerialBlock struct {
	Type   uint32
	Index  uint32
	Length uint64
}
