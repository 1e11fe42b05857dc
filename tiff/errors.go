package tiff

import "errors"

// Sentinel errors returned by the directory parser. Wrap with fmt.Errorf's
// %w verb so callers can still errors.Is/errors.As against these.
var (
	ErrIO                = errors.New("tiff: io error")
	ErrUnexpectedEOF     = errors.New("tiff: unexpected short read")
	ErrBadMagic          = errors.New("tiff: not a TIFF/BigTIFF file")
	ErrBadFieldSize      = errors.New("tiff: tag has an unreadable field size")
	ErrTileCountMismatch = errors.New("tiff: TileByteCounts disagrees with TileOffsets")
)

// FormatError is returned for structural problems that don't fit one of the
// sentinels above but still need a descriptive message attached.
type FormatError struct {
	msg string
	err error
}

func (e *FormatError) Error() string {
	if e.err != nil {
		return "tiff: " + e.msg + ": " + e.err.Error()
	}
	return "tiff: " + e.msg
}

func (e *FormatError) Unwrap() error { return e.err }

func formatErrorf(msg string, err error) error {
	return &FormatError{msg: msg, err: err}
}
