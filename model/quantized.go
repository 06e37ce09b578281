package model

import (
	"github.com/pkg/errors"

	"github.com/xann16/simple-rans/buffer"
)

// A QuantizedCDFTable is a CDF over the symbols of a block, scaled to a total mass of 2^precision.
// It is derived once and never changes afterwards.
type QuantizedCDFTable struct {
	cdfTable
}

// NewQuantizedCDFTable derives the table from all symbols written to blk.
// The cursor of blk is left where it was.
func NewQuantizedCDFTable(blk *buffer.SymbolBlock, p Params) (*QuantizedCDFTable, error) {
	if err := p.validate(blk.Width()); err != nil {
		return nil, err
	}
	freqs, n, err := count(blk)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	cdf, err := quantize(freqs, n, p.Precision, p.Smooth)
	if err != nil {
		return nil, err
	}
	t := &QuantizedCDFTable{cdfTable{width: blk.Width(), precision: p.Precision, cdf: cdf, count: n}}
	t.entropy = shannon(freqs, uint64(n))
	return t, nil
}

// NewQuantizedCDFTableFromCDF returns the table described by cdf, which must hold 2^width+1 entries.
func NewQuantizedCDFTableFromCDF(width, precision uint, cdf []uint32) (*QuantizedCDFTable, error) {
	t, err := fromCDF(width, precision, cdf)
	if err != nil {
		return nil, err
	}
	return &QuantizedCDFTable{t}, nil
}

// ReadQuantizedCDFTable reads a header forwards from the cursor of bs.
func ReadQuantizedCDFTable(bs *buffer.BitStream, width, precision uint) (*QuantizedCDFTable, error) {
	if err := (Params{Precision: precision}).validate(width); err != nil {
		return nil, err
	}
	cdf, err := readCDF(bs, width, precision)
	if err != nil {
		return nil, err
	}
	return &QuantizedCDFTable{newCDFTable(width, precision, cdf)}, nil
}

// ReadQuantizedCDFTableReverse reads the header that ends at the cursor of bs, leaving the cursor before it.
func ReadQuantizedCDFTableReverse(bs *buffer.BitStream, width, precision uint) (*QuantizedCDFTable, error) {
	if err := (Params{Precision: precision}).validate(width); err != nil {
		return nil, err
	}
	cdf, err := readCDFReverse(bs, width, precision)
	if err != nil {
		return nil, err
	}
	return &QuantizedCDFTable{newCDFTable(width, precision, cdf)}, nil
}

// Symbol finds the symbol for value with a linear scan of the CDF.
func (t *QuantizedCDFTable) Symbol(value uint32) byte { return t.linearSymbol(value) }

func (t *QuantizedCDFTable) EncodeAdjust(s byte, x uint64) uint64 {
	return x%uint64(t.Frequency(s)) + uint64(t.Cumulative(s))
}

func (t *QuantizedCDFTable) DecodeAdjust(s byte, value uint64) (f, c uint64) {
	return uint64(t.Frequency(s)), uint64(t.Cumulative(s))
}

// Equal reports whether both tables hold the same CDF.
func (t *QuantizedCDFTable) Equal(other *QuantizedCDFTable) bool { return t.equal(&other.cdfTable) }

func newCDFTable(width, precision uint, cdf []uint32) cdfTable {
	return cdfTable{width: width, precision: precision, cdf: cdf, entropy: cdfEntropy(cdf)}
}

func fromCDF(width, precision uint, cdf []uint32) (cdfTable, error) {
	if err := (Params{Precision: precision}).validate(width); err != nil {
		return cdfTable{}, err
	}
	if len(cdf) != 1<<width+1 {
		return cdfTable{}, errors.Wrapf(ErrInvalidHeader, "%d cdf entries for %d-bit symbols", len(cdf), width)
	}
	if err := validCDF(cdf, precision); err != nil {
		return cdfTable{}, err
	}
	own := make([]uint32, len(cdf))
	copy(own, cdf)
	return newCDFTable(width, precision, own), nil
}
