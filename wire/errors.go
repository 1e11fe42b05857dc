package wire

import "errors"

var (
	// ErrMalformedStream is returned when the buffer is too short for the
	// framing it claims to have, or a mandatory block is missing or
	// out of order.
	ErrMalformedStream = errors.New("wire: malformed stream")

	// ErrDuplicateBlock is returned when two payload blocks of the same
	// kind target the same IFD index.
	ErrDuplicateBlock = errors.New("wire: duplicate block")

	// ErrDecompressionFailed is returned when an LZ4_COMPRESSED_DATA block
	// fails to inflate to its declared decompressed size.
	ErrDecompressionFailed = errors.New("wire: lz4 decompression failed")
)
