package flv

import (
	"errors"
)

// ErrTruncated reports a read whose range lies outside the buffer.
var ErrTruncated = errors.New("flv: read past end of buffer")

// Buffer is a read-only view of a complete FLV stream held in memory.
// All multi-byte reads are big-endian, matching the container format.
type Buffer struct {
	data []byte
}

// NewBuffer wraps data in a Buffer. The data is not copied; callers must not
// modify it while the buffer is in use.
func NewBuffer(data []byte) *Buffer {
	return &Buffer{data: data}
}

// Len returns the total length of the underlying data.
func (b *Buffer) Len() int {
	return len(b.data)
}

// U8 reads the byte at off.
func (b *Buffer) U8(off int) (byte, error) {
	if off < 0 || off >= len(b.data) {
		return 0, ErrTruncated
	}
	return b.data[off], nil
}

// U16 reads a big-endian 16-bit value at off.
func (b *Buffer) U16(off int) (uint16, error) {
	if off < 0 || off+2 > len(b.data) {
		return 0, ErrTruncated
	}
	return uint16(b.data[off])<<8 | uint16(b.data[off+1]), nil
}

// U24 reads a big-endian 24-bit value at off.
func (b *Buffer) U24(off int) (uint32, error) {
	if off < 0 || off+3 > len(b.data) {
		return 0, ErrTruncated
	}
	return uint32(b.data[off])<<16 | uint32(b.data[off+1])<<8 | uint32(b.data[off+2]), nil
}

// U32 reads a big-endian 32-bit value at off as a signed number. The
// container treats the high bit of these fields as a sign bit; timestamps on
// very long streams depend on that.
func (b *Buffer) U32(off int) (int32, error) {
	if off < 0 || off+4 > len(b.data) {
		return 0, ErrTruncated
	}
	v := uint32(b.data[off])<<24 | uint32(b.data[off+1])<<16 | uint32(b.data[off+2])<<8 | uint32(b.data[off+3])
	return int32(v), nil
}

// Bytes returns the n bytes starting at off. The returned slice aliases the
// buffer and must be treated as read-only.
func (b *Buffer) Bytes(off, n int) ([]byte, error) {
	if off < 0 || n < 0 || off+n > len(b.data) {
		return nil, ErrTruncated
	}
	return b.data[off : off+n], nil
}
