package tiff

import (
	"encoding/binary"
	"fmt"
	"io"
)

// ByteOrderReader wraps a seekable byte source and reads fixed-width
// unsigned integers in a chosen endianness. ReadAt is the only operation
// that seeks; it always restores the prior file position before returning,
// so a single ByteOrderReader must not be driven from more than one
// goroutine at a time.
type ByteOrderReader struct {
	r     io.ReadSeeker
	Order binary.ByteOrder
}

// NewByteOrderReader wraps r for little- or big-endian fixed-width reads.
func NewByteOrderReader(r io.ReadSeeker, order binary.ByteOrder) *ByteOrderReader {
	return &ByteOrderReader{r: r, Order: order}
}

func (b *ByteOrderReader) wrapErr(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return fmt.Errorf("%w: %v", ErrUnexpectedEOF, err)
	}
	return fmt.Errorf("%w: %v", ErrIO, err)
}

// ReadFull reads len(buf) bytes from the current position.
func (b *ByteOrderReader) ReadFull(buf []byte) error {
	if _, err := io.ReadFull(b.r, buf); err != nil {
		return b.wrapErr(err)
	}
	return nil
}

// ReadUint16 reads a two-byte unsigned integer in the reader's byte order.
func (b *ByteOrderReader) ReadUint16() (uint16, error) {
	var buf [2]byte
	if err := b.ReadFull(buf[:]); err != nil {
		return 0, err
	}
	return b.Order.Uint16(buf[:]), nil
}

// ReadUint32 reads a four-byte unsigned integer in the reader's byte order.
func (b *ByteOrderReader) ReadUint32() (uint32, error) {
	var buf [4]byte
	if err := b.ReadFull(buf[:]); err != nil {
		return 0, err
	}
	return b.Order.Uint32(buf[:]), nil
}

// ReadUint64 reads an eight-byte unsigned integer in the reader's byte order.
func (b *ByteOrderReader) ReadUint64() (uint64, error) {
	var buf [8]byte
	if err := b.ReadFull(buf[:]); err != nil {
		return 0, err
	}
	return b.Order.Uint64(buf[:]), nil
}

// Position reports the reader's current offset.
func (b *ByteOrderReader) Position() (int64, error) {
	pos, err := b.r.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, b.wrapErr(err)
	}
	return pos, nil
}

// Seek moves the current position to offset from the start of the source.
func (b *ByteOrderReader) Seek(offset int64) error {
	if _, err := b.r.Seek(offset, io.SeekStart); err != nil {
		return b.wrapErr(err)
	}
	return nil
}

// ReadAt reads len(buf) bytes starting at the absolute offset, restoring the
// prior read position before returning (successfully or not). This is the
// sole seeking primitive used while decoding offset-addressed tag payloads,
// so parsing never has to reason about the walker's own cursor.
func (b *ByteOrderReader) ReadAt(offset int64, buf []byte) error {
	prev, err := b.Position()
	if err != nil {
		return err
	}
	defer b.r.Seek(prev, io.SeekStart)

	if err := b.Seek(offset); err != nil {
		return err
	}
	return b.ReadFull(buf)
}
