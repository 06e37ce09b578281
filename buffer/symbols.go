package buffer

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
)

// A Position is a combined byte and bit cursor inside a SymbolBlock.
type Position struct {
	Byte int
	Bit  uint // always < 8
}

func (p Position) bits() int { return p.Byte<<3 + int(p.Bit) }

func positionOf(bits int) Position { return Position{Byte: bits >> 3, Bit: uint(bits & 7)} }

// A SymbolBlock is a fixed-capacity container of symbols that are width bits wide.
// Symbols are packed densely, least significant bits first within each byte.
type SymbolBlock struct {
	data  []byte
	width uint
	cur   Position
	end   int // end of data in bits
}

// NewSymbolBlock returns an empty block of capacity bytes holding width-bit symbols.
// Width must be 1, 2, 4 or 8.
func NewSymbolBlock(capacity int, width uint) (*SymbolBlock, error) {
	switch width {
	case 1, 2, 4, 8:
	default:
		return nil, errors.Wrapf(ErrInvalidWidth, "%d", width)
	}
	if capacity < 0 {
		return nil, errors.Wrapf(ErrCapacityExceeded, "negative capacity %d", capacity)
	}
	return &SymbolBlock{data: make([]byte, capacity), width: width}, nil
}

// Width returns the symbol width in bits.
func (b *SymbolBlock) Width() uint { return b.width }

// Cap returns the capacity in bytes.
func (b *SymbolBlock) Cap() int { return len(b.data) }

// Len returns the number of bytes holding data, counting a partially filled last byte.
func (b *SymbolBlock) Len() int { return (b.end + 7) >> 3 }

// BitCount returns the number of data bits.
func (b *SymbolBlock) BitCount() int { return b.end }

// MaxBitCount returns the capacity in bits.
func (b *SymbolBlock) MaxBitCount() int { return len(b.data) << 3 }

// SymbolCount returns the number of symbols in the block.
func (b *SymbolBlock) SymbolCount() int { return b.end / int(b.width) }

// MaxSymbolCount returns how many symbols fit in the block.
func (b *SymbolBlock) MaxSymbolCount() int { return b.MaxBitCount() / int(b.width) }

// Bytes returns the data bytes. The slice aliases the block's storage.
func (b *SymbolBlock) Bytes() []byte { return b.data[:b.Len()] }

// More reports whether the cursor has not reached the end of data.
func (b *SymbolBlock) More() bool { return b.cur.bits() < b.end }

// AtStart reports whether the cursor is at the first symbol.
func (b *SymbolBlock) AtStart() bool { return b.cur.Byte == 0 && b.cur.Bit == 0 }

// Position returns the cursor.
func (b *SymbolBlock) Position() Position { return b.cur }

// SetPosition moves the cursor to p, which must lie within the capacity on a symbol boundary.
func (b *SymbolBlock) SetPosition(p Position) error {
	if p.Bit >= 8 || p.Byte < 0 || p.bits() > b.MaxBitCount() || p.Bit%b.width != 0 {
		return errors.Wrapf(ErrCapacityExceeded, "invalid position %+v", p)
	}
	b.cur = p
	return nil
}

// Rewind moves the cursor to the first symbol.
func (b *SymbolBlock) Rewind() { b.cur = Position{} }

// Reset clears the block.
func (b *SymbolBlock) Reset() {
	for i := range b.data {
		b.data[i] = 0
	}
	b.cur = Position{}
	b.end = 0
}

// PrepareFull clears the block, sets its size to the full capacity and moves the cursor to the end.
// It makes the block a target for WriteSymbolReverse.
func (b *SymbolBlock) PrepareFull() {
	b.Reset()
	b.end = b.MaxBitCount()
	b.cur = positionOf(b.end)
}

// PrepareSymbols is PrepareFull for a block holding exactly n symbols.
func (b *SymbolBlock) PrepareSymbols(n int) error {
	if n < 0 || n > b.MaxSymbolCount() {
		return errors.Wrapf(ErrCapacityExceeded, "%d symbols, block holds %d", n, b.MaxSymbolCount())
	}
	b.Reset()
	b.end = n * int(b.width)
	b.cur = positionOf(b.end)
	return nil
}

func (b *SymbolBlock) mask() byte { return byte(1)<<b.width - 1 }

func (b *SymbolBlock) put(v byte) {
	shift := b.cur.Bit
	b.data[b.cur.Byte] &^= b.mask() << shift
	b.data[b.cur.Byte] |= (v & b.mask()) << shift
}

func (b *SymbolBlock) advance() {
	b.cur.Bit += b.width
	if b.cur.Bit == 8 {
		b.cur.Bit = 0
		b.cur.Byte++
	}
}

func (b *SymbolBlock) retreat() {
	if b.cur.Bit == 0 {
		b.cur.Byte--
		b.cur.Bit = 8
	}
	b.cur.Bit -= b.width
}

// WriteSymbol writes the low width bits of v at the cursor, advances it and marks the new cursor as the end of data.
func (b *SymbolBlock) WriteSymbol(v byte) error {
	if b.cur.bits()+int(b.width) > b.MaxBitCount() {
		return errors.Wrapf(ErrCapacityExceeded, "symbol %d of a block holding %d", b.cur.bits()/int(b.width), b.MaxSymbolCount())
	}
	b.put(v)
	b.advance()
	b.end = b.cur.bits()
	return nil
}

// WriteSymbolReverse moves the cursor back by one symbol and writes the low width bits of v there.
// The end of data is left unchanged.
func (b *SymbolBlock) WriteSymbolReverse(v byte) error {
	if b.AtStart() {
		return errors.Wrap(ErrCapacityExceeded, "reverse write before the first symbol")
	}
	b.retreat()
	b.put(v)
	return nil
}

// ReadSymbol returns the symbol at the cursor and advances it.
func (b *SymbolBlock) ReadSymbol() (byte, error) {
	if b.cur.bits()+int(b.width) > b.end {
		return 0, errors.Wrapf(ErrTruncatedStream, "symbol %d of %d", b.cur.bits()/int(b.width), b.SymbolCount())
	}
	v := (b.data[b.cur.Byte] >> b.cur.Bit) & b.mask()
	b.advance()
	return v, nil
}

// Load clears the block and fills it with up to Cap() bytes read from the file at path.
// The bytes are taken as a dense stream of width-bit symbols; anything past the capacity is ignored.
func (b *SymbolBlock) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(ErrFileUnavailable, err.Error())
	}
	defer f.Close()
	if err := b.Fill(f); err != nil {
		return errors.Wrap(err, path)
	}
	return nil
}

// Fill clears the block and fills it with up to Cap() bytes from r.
func (b *SymbolBlock) Fill(r io.Reader) error {
	b.Reset()
	n, err := io.ReadFull(r, b.data)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return errors.Wrap(err, "")
	}
	b.end = n << 3
	return nil
}

// Equal reports whether both blocks hold the same symbols of the same width.
func (b *SymbolBlock) Equal(other *SymbolBlock) bool {
	if b.width != other.width || b.end != other.end {
		return false
	}
	return bytes.Equal(b.Bytes(), other.Bytes())
}
