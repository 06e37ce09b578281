package buffer

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// A BitStream is a fixed-capacity sequence of bytes, written and read as 16-bit little-endian words.
// It keeps a cursor and the end of the written data.
// Writes always move the end of data to the cursor, so a BitStream is append-only as long as the cursor is left at the end.
type BitStream struct {
	data []byte
	pos  int // cursor
	end  int // end of written data
}

// NewBitStream returns an empty BitStream that can hold capacity bytes.
func NewBitStream(capacity int) *BitStream {
	if capacity < 0 {
		capacity = 0
	}
	return &BitStream{data: make([]byte, capacity)}
}

// Cap returns the capacity in bytes.
func (bs *BitStream) Cap() int { return len(bs.data) }

// Len returns the number of bytes written.
func (bs *BitStream) Len() int { return bs.end }

// LengthInBits returns the number of bits written.
func (bs *BitStream) LengthInBits() int { return bs.end << 3 }

// Bytes returns the written bytes. The slice aliases the stream's storage.
func (bs *BitStream) Bytes() []byte { return bs.data[:bs.end] }

// Offset returns the cursor position in bytes.
func (bs *BitStream) Offset() int { return bs.pos }

// More reports whether the cursor has not reached the end of the written data.
func (bs *BitStream) More() bool { return bs.pos != bs.end }

// AtStart reports whether the cursor is at the start of the buffer.
func (bs *BitStream) AtStart() bool { return bs.pos == 0 }

// Rewind moves the cursor to the start of the buffer.
func (bs *BitStream) Rewind() { bs.pos = 0 }

// SeekEnd moves the cursor to the end of the written data.
func (bs *BitStream) SeekEnd() { bs.pos = bs.end }

// Reset discards all written data.
func (bs *BitStream) Reset() {
	bs.pos = 0
	bs.end = 0
}

// Write copies p at the cursor, advances it and marks the new cursor as the end of data.
func (bs *BitStream) Write(p []byte) error {
	if len(p) > len(bs.data)-bs.pos {
		return errors.Wrapf(ErrCapacityExceeded, "write of %d bytes at offset %d, capacity %d", len(p), bs.pos, len(bs.data))
	}
	copy(bs.data[bs.pos:], p)
	bs.pos += len(p)
	bs.end = bs.pos
	return nil
}

// WriteWord writes w as two little-endian bytes.
func (bs *BitStream) WriteWord(w uint16) error {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], w)
	return bs.Write(b[:])
}

// WriteUint32 writes v as four little-endian bytes.
func (bs *BitStream) WriteUint32(v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return bs.Write(b[:])
}

// Read fills p from the cursor and advances it.
func (bs *BitStream) Read(p []byte) error {
	if len(p) > bs.end-bs.pos {
		return errors.Wrapf(ErrTruncatedStream, "read of %d bytes at offset %d, %d bytes written", len(p), bs.pos, bs.end)
	}
	copy(p, bs.data[bs.pos:bs.pos+len(p)])
	bs.pos += len(p)
	return nil
}

// ReadWord reads a little-endian word.
func (bs *BitStream) ReadWord() (uint16, error) {
	var b [2]byte
	if err := bs.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}

// ReadUint32 reads a little-endian 32-bit integer.
func (bs *BitStream) ReadUint32() (uint32, error) {
	var b [4]byte
	if err := bs.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

// ReadReverse moves the cursor back by len(p) bytes and then fills p from the new cursor.
// The bytes in p keep their forward order.
func (bs *BitStream) ReadReverse(p []byte) error {
	if len(p) > bs.pos {
		return errors.Wrapf(ErrTruncatedStream, "reverse read of %d bytes at offset %d", len(p), bs.pos)
	}
	if bs.pos > bs.end {
		return errors.Wrapf(ErrTruncatedStream, "cursor %d past end of data %d", bs.pos, bs.end)
	}
	bs.pos -= len(p)
	copy(p, bs.data[bs.pos:bs.pos+len(p)])
	return nil
}

// ReadWordReverse reads the word that ends at the cursor and moves the cursor before it.
func (bs *BitStream) ReadWordReverse() (uint16, error) {
	var b [2]byte
	if err := bs.ReadReverse(b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}

// ReadUint32Reverse reads the 32-bit integer that ends at the cursor and moves the cursor before it.
func (bs *BitStream) ReadUint32Reverse() (uint32, error) {
	var b [4]byte
	if err := bs.ReadReverse(b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}
