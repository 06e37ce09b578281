package rans

import (
	"encoding/binary"
	"io"
	"log"
	"os"

	"github.com/pkg/errors"

	"github.com/xann16/simple-rans/buffer"
	"github.com/xann16/simple-rans/model"
)

const (
	magic   = "rANS"
	version = 1

	// containerHeaderSize is magic, version, width, precision, kind, symbol count and stream length.
	containerHeaderSize = 4 + 4 + 4 + 4

	// MaxBlockSize is the largest file, in bytes, Compress accepts and Decompress restores.
	MaxBlockSize = 64 << 20
)

// ErrInvalidContainer is returned by Decompress when its input is not a compressed file.
var ErrInvalidContainer = errors.New("invalid container")

// StreamCapacity returns a capacity in bytes large enough for the coded words and header of
// n symbols of the given width.
func StreamCapacity(n int, width uint) int {
	// At most one word per symbol, two flush words and the header.
	return 2*n + 4 + 2<<width
}

// Compress compresses the named file as a sequence of width-bit symbols and writes the result to w.
func Compress(w io.Writer, name string, width uint, cfg Config) (Stats, error) {
	fi, err := os.Stat(name)
	if err != nil {
		return Stats{}, errors.Wrap(buffer.ErrFileUnavailable, err.Error())
	}
	if fi.Size() > MaxBlockSize {
		return Stats{}, errors.Wrapf(buffer.ErrCapacityExceeded, "%s: %d bytes, at most %d", name, fi.Size(), MaxBlockSize)
	}
	blk, err := buffer.NewSymbolBlock(int(fi.Size()), width)
	if err != nil {
		return Stats{}, err
	}
	if err := blk.Load(name); err != nil {
		return Stats{}, err
	}

	c, err := New(cfg)
	if err != nil {
		return Stats{}, err
	}
	bs := buffer.NewBitStream(StreamCapacity(blk.SymbolCount(), width))
	st, err := c.Encode(blk, bs)
	if err != nil {
		return Stats{}, errors.Wrap(err, name)
	}
	if cfg.Verbose {
		log.Printf("%s: %d bytes, %d symbols, %d bytes coded", name, blk.Len(), st.SymbolCount, bs.Len())
	}

	hdr := make([]byte, containerHeaderSize)
	copy(hdr, magic)
	hdr[4] = version
	hdr[5] = byte(width)
	hdr[6] = byte(cfg.Precision)
	hdr[7] = byte(cfg.Model)
	binary.LittleEndian.PutUint32(hdr[8:], uint32(st.SymbolCount))
	binary.LittleEndian.PutUint32(hdr[12:], uint32(bs.Len()))
	if _, err := w.Write(hdr); err != nil {
		return Stats{}, errors.Wrap(err, "")
	}
	if _, err := w.Write(bs.Bytes()); err != nil {
		return Stats{}, errors.Wrap(err, "")
	}
	return st, nil
}

// Decompress reads a file written by Compress from r and writes the original bytes to w.
func Decompress(w io.Writer, r io.Reader) error {
	hdr := make([]byte, containerHeaderSize)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return errors.Wrap(ErrInvalidContainer, err.Error())
	}
	if string(hdr[:4]) != magic {
		return errors.Wrapf(ErrInvalidContainer, "magic %q", hdr[:4])
	}
	if hdr[4] != version {
		return errors.Wrapf(ErrInvalidContainer, "version %d", hdr[4])
	}
	width := uint(hdr[5])
	switch width {
	case 1, 2, 4, 8:
	default:
		return errors.Wrapf(ErrInvalidContainer, "%d-bit symbols", width)
	}
	cfg := Config{Precision: uint(hdr[6]), Model: model.Kind(hdr[7])}
	n := int(binary.LittleEndian.Uint32(hdr[8:]))
	size := int(binary.LittleEndian.Uint32(hdr[12:]))

	c, err := New(cfg)
	if err != nil {
		return err
	}
	if uint64(n)*uint64(width) > 8*MaxBlockSize {
		return errors.Wrapf(ErrInvalidContainer, "%d %d-bit symbols, at most %d bytes", n, width, MaxBlockSize)
	}
	if size > StreamCapacity(n, width) {
		return errors.Wrapf(ErrInvalidContainer, "%d byte stream for %d symbols", size, n)
	}
	stream := make([]byte, size)
	if _, err := io.ReadFull(r, stream); err != nil {
		return errors.Wrap(buffer.ErrTruncatedStream, err.Error())
	}
	bs := buffer.NewBitStream(size)
	if err := bs.Write(stream); err != nil {
		return err
	}

	blk, err := buffer.NewSymbolBlock((n*int(width)+7)/8, width)
	if err != nil {
		return err
	}
	if err := blk.PrepareSymbols(n); err != nil {
		return err
	}
	if _, err := c.Decode(bs, blk); err != nil {
		return err
	}

	if _, err := w.Write(blk.Bytes()); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}
