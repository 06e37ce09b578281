package model

import (
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	"github.com/xann16/simple-rans/buffer"
)

// An ExactFrequencyTable holds the raw symbol counts of a block and their floating point CDF.
// It is used to estimate entropy; its header does not fit the codec.
type ExactFrequencyTable struct {
	width uint
	freqs []uint32
	count uint32
	cdf   []float64
}

// NewExactFrequencyTable counts all symbols written to blk.
func NewExactFrequencyTable(blk *buffer.SymbolBlock) (*ExactFrequencyTable, error) {
	freqs, n, err := count(blk)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	if n == 0 {
		return nil, errors.Wrap(ErrDegenerateModel, "empty block")
	}
	return newExact(blk.Width(), freqs, uint32(n)), nil
}

// ReadExactFrequencyTable reads a header forwards from the cursor of bs.
func ReadExactFrequencyTable(bs *buffer.BitStream, width uint) (*ExactFrequencyTable, error) {
	vals := make([]uint32, 1<<width+1)
	for i := range vals {
		v, err := bs.ReadUint32()
		if err != nil {
			return nil, errors.Wrap(err, "frequency header")
		}
		vals[i] = v
	}
	return exactFromHeader(width, vals)
}

// ReadExactFrequencyTableReverse reads the header that ends at the cursor of bs, leaving the cursor before it.
func ReadExactFrequencyTableReverse(bs *buffer.BitStream, width uint) (*ExactFrequencyTable, error) {
	vals := make([]uint32, 1<<width+1)
	for i := len(vals) - 1; i >= 0; i-- {
		v, err := bs.ReadUint32Reverse()
		if err != nil {
			return nil, errors.Wrap(err, "frequency header")
		}
		vals[i] = v
	}
	return exactFromHeader(width, vals)
}

func exactFromHeader(width uint, vals []uint32) (*ExactFrequencyTable, error) {
	size := len(vals) - 1
	var sum uint64
	for _, f := range vals[:size] {
		sum += uint64(f)
	}
	if sum != uint64(vals[size]) {
		return nil, errors.Wrapf(ErrInvalidHeader, "frequencies sum to %d, count is %d", sum, vals[size])
	}
	return newExact(width, vals[:size], vals[size]), nil
}

func newExact(width uint, freqs []uint32, n uint32) *ExactFrequencyTable {
	t := &ExactFrequencyTable{width: width, freqs: freqs, count: n}
	t.cdf = make([]float64, len(freqs)+1)
	if n == 0 {
		return t
	}
	for i, f := range freqs {
		t.cdf[i+1] = t.cdf[i] + float64(f)/float64(n)
	}
	return t
}

func (t *ExactFrequencyTable) AlphabetSize() int { return 1 << t.width }

func (t *ExactFrequencyTable) SymbolCount() int { return int(t.count) }

// TotalMass is the raw symbol count.
func (t *ExactFrequencyTable) TotalMass() uint32 { return t.count }

func (t *ExactFrequencyTable) Frequency(s byte) uint32 { return t.freqs[s] }

func (t *ExactFrequencyTable) Cumulative(s byte) uint32 {
	var c uint32
	for _, f := range t.freqs[:s] {
		c += f
	}
	return c
}

// P returns the probability of symbol s.
func (t *ExactFrequencyTable) P(s byte) float64 { return t.cdf[int(s)+1] - t.cdf[s] }

// PCDF returns the probability of all symbols below s.
func (t *ExactFrequencyTable) PCDF(s byte) float64 { return t.cdf[s] }

func (t *ExactFrequencyTable) BitsPerSymbolTheory() float64 {
	return shannon(t.freqs, uint64(t.count))
}

// Symbol returns the first symbol s with p < PCDF(s+1), or the last symbol if there is none.
func (t *ExactFrequencyTable) Symbol(p float64) byte {
	n := t.AlphabetSize()
	for i := 0; i < n-1; i++ {
		if p < t.cdf[i+1] {
			return byte(i)
		}
	}
	return byte(n - 1)
}

// HeaderLength is the raw frequencies plus the symbol count, all 32 bits wide.
func (t *ExactFrequencyTable) HeaderLength() int { return (t.AlphabetSize() + 1) * 32 }

func (t *ExactFrequencyTable) WriteHeader(bs *buffer.BitStream) error {
	for _, f := range t.freqs {
		if err := bs.WriteUint32(f); err != nil {
			return errors.Wrap(err, "frequency header")
		}
	}
	if err := bs.WriteUint32(t.count); err != nil {
		return errors.Wrap(err, "frequency header")
	}
	return nil
}

// Equal reports whether both tables hold the same counts.
func (t *ExactFrequencyTable) Equal(other *ExactFrequencyTable) bool {
	return t.width == other.width && t.count == other.count && slices.Equal(t.freqs, other.freqs)
}
