// Package rans provides an implementation of the range variant of Asymmetric Numeral Systems (rANS),
// an entropy coder that keeps its whole state in a single integer.
// Symbols of 1, 2, 4 or 8 bits are read from a buffer.SymbolBlock and coded into a buffer.BitStream
// of 16-bit words, followed by the model the block was coded with.
//
// Below is an example of using this package to compress Lincoln's Gettysburg address:
//    go run compress/main.go gettysburg.txt > gettys.rans
//    cat gettys.rans | go run decompress/main.go > gettys.drans
//    diff gettysburg.txt gettys.drans
//
// Reference:
// J. Duda, Asymmetric numeral systems: entropy coding combining speed of Huffman coding with compression rate of arithmetic coding, arXiv:1311.2540.
package rans

import (
	"log"
	"time"

	"github.com/pkg/errors"

	"github.com/xann16/simple-rans/buffer"
	"github.com/xann16/simple-rans/model"
)

const (
	// wordBits is the size of the words the coder state is renormalized by.
	wordBits = 16

	// stateBits bounds the coder state after every encoding step.
	stateBits = 32
)

var (
	// ErrUnsupportedModel is returned for a model kind that cannot be coded, such as model.Adaptive.
	ErrUnsupportedModel = errors.New("model kind not supported by the codec")

	// ErrStreamNotEmpty is returned by Encode when its destination already holds data.
	// The decoder consumes every word down to the start of the stream.
	ErrStreamNotEmpty = errors.New("stream not empty")
)

// A Codec encodes and decodes whole blocks.
type Codec struct {
	cfg Config
}

// New returns a Codec for cfg.
func New(cfg Config) (*Codec, error) {
	if err := cfg.Validate(0); err != nil {
		return nil, err
	}
	return &Codec{cfg: cfg}, nil
}

// Config returns the configuration of the codec.
func (c *Codec) Config() Config { return c.cfg }

// Encode codes every symbol written to src and writes the coded words and the model header to dst,
// which must be empty.
//
// The model is derived from src in one pass before coding starts.
// An empty block is coded with a uniform model and produces the header only.
func (c *Codec) Encode(src *buffer.SymbolBlock, dst *buffer.BitStream) (Stats, error) {
	start := time.Now()
	if err := c.cfg.Validate(src.Width()); err != nil {
		return Stats{}, err
	}
	if dst.Len() != 0 {
		return Stats{}, errors.Wrapf(ErrStreamNotEmpty, "%d bytes", dst.Len())
	}
	dst.Rewind()
	m, err := c.derive(src)
	if err != nil {
		return Stats{}, err
	}

	n := m.Precision()
	src.Rewind()
	var x uint64
	for src.More() {
		s, err := src.ReadSymbol()
		if err != nil {
			return Stats{}, errors.Wrap(err, "")
		}
		f := uint64(m.Frequency(s))
		if f == 0 {
			return Stats{}, errors.Wrapf(model.ErrDegenerateModel, "symbol %d has no mass", s)
		}

		// Renormalize.
		if x >= f<<(stateBits-n) {
			if err := dst.WriteWord(uint16(x)); err != nil {
				return Stats{}, errors.Wrap(err, "renormalize")
			}
			if c.cfg.Verbose {
				log.Printf("encode: word %#04x, state %d", uint16(x), x)
			}
			x >>= wordBits
		}

		x = (x/f)<<n + m.EncodeAdjust(s, x)
		if c.cfg.Verbose {
			log.Printf("encode: symbol %d, state %d", s, x)
		}
	}

	// Flush the state, low word first.
	for x > 0 {
		if err := dst.WriteWord(uint16(x)); err != nil {
			return Stats{}, errors.Wrap(err, "flush")
		}
		x >>= wordBits
	}
	raw := dst.Offset()

	if err := m.WriteHeader(dst); err != nil {
		return Stats{}, err
	}

	st := Stats{
		SymbolCount:         m.SymbolCount(),
		HeaderBits:          m.HeaderLength(),
		RawEncodedBits:      raw << 3,
		BitsPerSymbolTheory: m.BitsPerSymbolTheory(),
		EncodeDuration:      time.Since(start),
	}
	st.EncodedBits = st.RawEncodedBits + st.HeaderBits
	if c.cfg.Verbose {
		log.Printf("encode: %d symbols, %d coded bits, %d header bits", st.SymbolCount, st.RawEncodedBits, st.HeaderBits)
	}
	return st, nil
}

func (c *Codec) derive(src *buffer.SymbolBlock) (model.Coder, error) {
	if src.SymbolCount() == 0 {
		return model.Uniform(c.cfg.Model, src.Width(), c.cfg.params())
	}
	return model.Derive(c.cfg.Model, src, c.cfg.params())
}

// Decode decodes the block whose coded words and header end at the end of the data of src.
//
// Symbols are written backwards from the cursor of dst, which must be prepared with
// PrepareSymbols for the number of symbols that were encoded.
// Positions left over once the coder state is exhausted hold the symbol of the lowest value,
// which is the only symbol that encodes without changing an empty state.
func (c *Codec) Decode(src *buffer.BitStream, dst *buffer.SymbolBlock) (time.Duration, error) {
	start := time.Now()
	if err := c.cfg.Validate(dst.Width()); err != nil {
		return 0, err
	}

	src.SeekEnd()
	m, err := model.ReadHeaderReverse(c.cfg.Model, src, dst.Width(), c.cfg.Precision)
	if err != nil {
		return 0, err
	}
	d := decoder{m: m, dst: dst, verbose: c.cfg.Verbose}

	// The final state was flushed in at most two words.
	for d.x < 1<<wordBits && !src.AtStart() {
		if err := d.refill(src); err != nil {
			return 0, err
		}
	}

	for !src.AtStart() {
		if err := d.step(); err != nil {
			return 0, err
		}
		// Renormalize.
		if d.x < 1<<wordBits {
			if err := d.refill(src); err != nil {
				return 0, err
			}
		}
	}

	// Symbols coded before the first renormalization.
	for d.x > 0 {
		if err := d.step(); err != nil {
			return 0, err
		}
	}

	lead := m.Symbol(0)
	for !dst.AtStart() {
		if err := dst.WriteSymbolReverse(lead); err != nil {
			return 0, err
		}
	}

	elapsed := time.Since(start)
	if c.cfg.Verbose {
		log.Printf("decode: %d symbols in %v", dst.SymbolCount(), elapsed)
	}
	return elapsed, nil
}

type decoder struct {
	m       model.Coder
	dst     *buffer.SymbolBlock
	x       uint64
	verbose bool
}

func (d *decoder) refill(src *buffer.BitStream) error {
	w, err := src.ReadWordReverse()
	if err != nil {
		return errors.Wrap(err, "renormalize")
	}
	d.x = d.x<<wordBits | uint64(w)
	if d.verbose {
		log.Printf("decode: word %#04x, state %d", w, d.x)
	}
	return nil
}

func (d *decoder) step() error {
	n := d.m.Precision()
	v := d.x & uint64(d.m.TotalMass()-1)
	s := d.m.Symbol(uint32(v))
	if err := d.dst.WriteSymbolReverse(s); err != nil {
		return errors.Wrap(err, "decoded more symbols than the block holds")
	}
	f, c := d.m.DecodeAdjust(s, v)
	d.x = f*(d.x>>n) + v - c
	if d.verbose {
		log.Printf("decode: symbol %d, state %d", s, d.x)
	}
	return nil
}
