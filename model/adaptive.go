package model

import (
	"github.com/pkg/errors"

	"github.com/xann16/simple-rans/buffer"
)

// An AdaptiveQuantizedCDFTable is a quantized CDF that starts uniform and is updated after every symbol.
//
// An update for symbol s moves every entry cdf[i], i > 0, by 1/2^rate of the distance to its target:
// the total mass for i > s and zero otherwise.
// Replaying the same symbols on a fresh table reproduces the same sequence of CDFs,
// so the table has no header.
type AdaptiveQuantizedCDFTable struct {
	cdfTable
	rate uint

	// OnUpdate, if set, is called after every update with the step number (starting at 1) and the observed symbol.
	OnUpdate func(step int, s byte, t *AdaptiveQuantizedCDFTable)
}

// NewAdaptiveQuantizedCDFTable returns a uniform table for width-bit symbols.
func NewAdaptiveQuantizedCDFTable(width uint, p Params) (*AdaptiveQuantizedCDFTable, error) {
	if err := p.validate(width); err != nil {
		return nil, err
	}
	if p.Rate == 0 || p.Rate > p.Precision {
		return nil, errors.Errorf("adaptation rate %d, want [1, %d]", p.Rate, p.Precision)
	}
	t := &AdaptiveQuantizedCDFTable{rate: p.Rate}
	t.cdfTable = newCDFTable(width, p.Precision, uniformCDF(width, p.Precision))
	return t, nil
}

// Rate returns the adaptation rate.
func (t *AdaptiveQuantizedCDFTable) Rate() uint { return t.rate }

// Update moves the CDF towards symbol s.
func (t *AdaptiveQuantizedCDFTable) Update(s byte) {
	mass := int32(t.TotalMass())
	n := t.AlphabetSize()
	for i := 1; i < n; i++ {
		var target int32
		if i > int(s) {
			target = mass
		}
		c := int32(t.cdf[i])
		t.cdf[i] = uint32(c + (target-c)>>t.rate)
	}
	t.count++
	t.entropy = cdfEntropy(t.cdf)
	if t.OnUpdate != nil {
		t.OnUpdate(t.count, s, t)
	}
}

// Observe updates the table with every symbol written to blk, in order.
// The cursor of blk is left where it was.
func (t *AdaptiveQuantizedCDFTable) Observe(blk *buffer.SymbolBlock) error {
	if blk.Width() != t.width {
		return errors.Errorf("%d-bit block for a %d-bit table", blk.Width(), t.width)
	}
	pos := blk.Position()
	blk.Rewind()
	for blk.More() {
		s, err := blk.ReadSymbol()
		if err != nil {
			return errors.Wrap(err, "")
		}
		t.Update(s)
	}
	return errors.Wrap(blk.SetPosition(pos), "")
}

// Probabilities returns the current probability of every symbol.
func (t *AdaptiveQuantizedCDFTable) Probabilities() []float64 {
	p := make([]float64, t.AlphabetSize())
	for i := range p {
		p[i] = t.P(byte(i))
	}
	return p
}

// HeaderLength is zero: the decoder rebuilds the table by replaying symbols.
func (t *AdaptiveQuantizedCDFTable) HeaderLength() int { return 0 }

// WriteHeader writes nothing.
func (t *AdaptiveQuantizedCDFTable) WriteHeader(bs *buffer.BitStream) error { return nil }

// Equal reports whether both tables hold the same CDF.
func (t *AdaptiveQuantizedCDFTable) Equal(other *AdaptiveQuantizedCDFTable) bool {
	return t.rate == other.rate && t.equal(&other.cdfTable)
}
