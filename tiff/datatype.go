package tiff

// DataType is a TIFF field type as stored in a tag record.
type DataType uint16

const (
	Byte      DataType = 1
	Ascii     DataType = 2
	Short     DataType = 3
	Long      DataType = 4
	RationalT DataType = 5 // named RationalT to avoid clashing with the Rational struct
	SByte     DataType = 6
	Undefined DataType = 7
	SShort    DataType = 8
	SLong     DataType = 9
	SRational DataType = 10
	Float     DataType = 11
	Double    DataType = 12
	IfdType   DataType = 13
	Long8     DataType = 16
	SLong8    DataType = 17
	Ifd8      DataType = 18
)

var dataTypeNames = map[DataType]string{
	Byte:      "BYTE",
	Ascii:     "ASCII",
	Short:     "SHORT",
	Long:      "LONG",
	RationalT: "RATIONAL",
	SByte:     "SBYTE",
	Undefined: "UNDEFINED",
	SShort:    "SSHORT",
	SLong:     "SLONG",
	SRational: "SRATIONAL",
	Float:     "FLOAT",
	Double:    "DOUBLE",
	IfdType:   "IFD",
	Long8:     "LONG8",
	SLong8:    "SLONG8",
	Ifd8:      "IFD8",
}

func (d DataType) String() string {
	if name, ok := dataTypeNames[d]; ok {
		return name
	}
	return "UNKNOWN"
}

// FieldSize returns the number of bytes occupied by one element of d.
// Unrecognised types report 0; callers surface those as opaque bytes and
// log a warning rather than failing the parse.
func (d DataType) FieldSize() int {
	switch d {
	case Byte, SByte, Ascii, Undefined:
		return 1
	case Short, SShort:
		return 2
	case Long, SLong, IfdType, Float:
		return 4
	case RationalT, SRational:
		return 8
	case Double, Long8, SLong8, Ifd8:
		return 8
	default:
		return 0
	}
}

// TagID identifies a TIFF tag code. Only the codes in tagDispatch are
// interpreted; everything else is tolerated and ignored.
type TagID uint16

const (
	TagNewSubfileType             TagID = 254
	TagImageWidth                 TagID = 256
	TagImageLength                TagID = 257
	TagBitsPerSample              TagID = 258
	TagCompression                TagID = 259
	TagPhotometricInterpretation  TagID = 262
	TagImageDescription           TagID = 270
	TagTileWidth                  TagID = 322
	TagTileLength                 TagID = 323
	TagTileOffsets                TagID = 324
	TagTileByteCounts             TagID = 325
	TagJPEGTables                 TagID = 347
	TagYCbCrSubSampling           TagID = 530
	TagReferenceBlackWhite        TagID = 532
)

// SubfileType bits recognised in the NewSubfileType tag.
const (
	SubfileReducedImage uint32 = 1 << 0
)
