// Package model implements the symbol frequency models used by the rANS coder.
//
// Every model describes a distribution over the 2^width symbols of a buffer.SymbolBlock.
// ExactFrequencyTable keeps raw counts and floating point probabilities and is used for entropy estimates.
// QuantizedCDFTable scales the cumulative counts to a total mass of 2^precision, which is what the coder needs.
// AliasQuantizedCDFTable adds an alias table to QuantizedCDFTable so that symbol lookup takes constant time.
// AdaptiveQuantizedCDFTable starts uniform and moves its CDF towards every symbol it observes.
package model

import (
	"github.com/pkg/errors"

	"github.com/xann16/simple-rans/buffer"
)

const (
	// MaxPrecision is the largest supported total mass exponent.
	// Header entries are 16 bits wide and a CDF value may equal the total mass.
	MaxPrecision = 15

	// DefaultPrecision is the total mass exponent used when none is configured.
	DefaultPrecision = 12

	// DefaultRate is the adaptation rate of AdaptiveQuantizedCDFTable when none is configured.
	DefaultRate = 3
)

var (
	// ErrDegenerateModel is returned when a model cannot represent its block:
	// the block is empty, or a symbol present in the block quantizes to a zero frequency.
	ErrDegenerateModel = errors.New("degenerate model")

	// ErrInvalidHeader is returned when a serialized model is not a valid CDF.
	ErrInvalidHeader = errors.New("invalid model header")

	// ErrInvalidPrecision is returned when the total mass exponent is outside [width, MaxPrecision].
	ErrInvalidPrecision = errors.New("invalid precision")
)

// A Model is a probability distribution over the symbols of a block.
type Model interface {
	// AlphabetSize returns the number of distinct symbols, 2^width.
	AlphabetSize() int

	// SymbolCount returns the number of symbols the model was derived from.
	SymbolCount() int

	// TotalMass returns the sum of all frequencies.
	TotalMass() uint32

	// Frequency returns the frequency of symbol s.
	Frequency(s byte) uint32

	// Cumulative returns the sum of the frequencies of all symbols below s.
	Cumulative(s byte) uint32

	// BitsPerSymbolTheory returns the Shannon entropy of the model in bits per symbol.
	BitsPerSymbolTheory() float64

	// HeaderLength returns the length of the serialized model in bits.
	HeaderLength() int

	// WriteHeader serializes the model at the cursor of bs.
	WriteHeader(bs *buffer.BitStream) error
}

// A Coder is a Model with a power of two total mass, usable by the rANS codec.
type Coder interface {
	Model

	// Precision returns the total mass exponent.
	Precision() uint

	// Symbol returns the symbol whose interval contains value, which must be below TotalMass.
	Symbol(value uint32) byte

	// EncodeAdjust returns the low precision bits of the coder state after encoding s on state x.
	EncodeAdjust(s byte, x uint64) uint64

	// DecodeAdjust returns the frequency and the offset to subtract when decoding s from the low bits value.
	DecodeAdjust(s byte, value uint64) (f, c uint64)
}

// Params configures model derivation.
type Params struct {
	// Precision is the total mass exponent N; quantized models sum to 2^N.
	Precision uint

	// Smooth gives every symbol present in the block at least one unit of mass
	// instead of failing with ErrDegenerateModel.
	Smooth bool

	// Rate is the adaptation rate of AdaptiveQuantizedCDFTable.
	// Each update moves the CDF by 1/2^Rate of the distance to its target.
	Rate uint
}

func (p Params) validate(width uint) error {
	if p.Precision < width || p.Precision > MaxPrecision {
		return errors.Wrapf(ErrInvalidPrecision, "%d for %d-bit symbols, want [%d, %d]", p.Precision, width, width, MaxPrecision)
	}
	return nil
}

// count returns the occurrences of every symbol in blk.
// The whole block is read; the cursor is restored afterwards.
func count(blk *buffer.SymbolBlock) ([]uint32, int, error) {
	freqs := make([]uint32, 1<<blk.Width())
	pos := blk.Position()
	blk.Rewind()
	n := 0
	for blk.More() {
		s, err := blk.ReadSymbol()
		if err != nil {
			return nil, 0, err
		}
		freqs[s]++
		n++
	}
	if err := blk.SetPosition(pos); err != nil {
		return nil, 0, err
	}
	return freqs, n, nil
}
