package model

import (
	"math"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	"github.com/xann16/simple-rans/buffer"
)

// cdfTable is an integer CDF over 2^width symbols summing to 2^precision.
// It is shared by all quantized models.
type cdfTable struct {
	width     uint
	precision uint
	cdf       []uint32 // len 2^width + 1, cdf[0] = 0, cdf[2^width] = 2^precision
	count     int
	entropy   float64
}

func (t *cdfTable) AlphabetSize() int { return 1 << t.width }

func (t *cdfTable) Width() uint { return t.width }

func (t *cdfTable) Precision() uint { return t.precision }

func (t *cdfTable) TotalMass() uint32 { return 1 << t.precision }

// Mask returns TotalMass()-1.
func (t *cdfTable) Mask() uint32 { return t.TotalMass() - 1 }

func (t *cdfTable) SymbolCount() int { return t.count }

func (t *cdfTable) BitsPerSymbolTheory() float64 { return t.entropy }

func (t *cdfTable) Cumulative(s byte) uint32 { return t.cdf[s] }

func (t *cdfTable) Frequency(s byte) uint32 { return t.cdf[int(s)+1] - t.cdf[s] }

// P returns the probability of symbol s.
func (t *cdfTable) P(s byte) float64 {
	return float64(t.Frequency(s)) / float64(t.TotalMass())
}

// PCDF returns the probability of all symbols below s.
func (t *cdfTable) PCDF(s byte) float64 {
	return float64(t.Cumulative(s)) / float64(t.TotalMass())
}

// CDF returns a copy of the cumulative table, including the final total mass entry.
func (t *cdfTable) CDF() []uint32 { return slices.Clone(t.cdf) }

func (t *cdfTable) HeaderLength() int { return t.AlphabetSize() * 16 }

// WriteHeader writes the CDF without its last entry, which is always the total mass.
func (t *cdfTable) WriteHeader(bs *buffer.BitStream) error {
	hdr := make([]byte, 0, 2*t.AlphabetSize())
	for _, c := range t.cdf[:t.AlphabetSize()] {
		hdr = append(hdr, byte(c), byte(c>>8))
	}
	if err := bs.Write(hdr); err != nil {
		return errors.Wrap(err, "model header")
	}
	return nil
}

// linearSymbol scans the CDF for the interval containing value.
func (t *cdfTable) linearSymbol(value uint32) byte {
	n := t.AlphabetSize()
	for i := 1; i < n; i++ {
		if value < t.cdf[i] {
			return byte(i - 1)
		}
	}
	return byte(n - 1)
}

func (t *cdfTable) equal(other *cdfTable) bool {
	return t.width == other.width && t.precision == other.precision && slices.Equal(t.cdf, other.cdf)
}

// quantize scales raw symbol counts to a CDF summing to 2^precision.
func quantize(freqs []uint32, n int, precision uint, smooth bool) ([]uint32, error) {
	if n == 0 {
		return nil, errors.Wrap(ErrDegenerateModel, "empty block")
	}
	size := len(freqs)
	mass := uint64(1) << precision
	cdf := make([]uint32, size+1)
	var raw uint64
	for i := 1; i < size; i++ {
		raw += uint64(freqs[i-1])
		cdf[i] = uint32(raw * mass / uint64(n))
	}
	cdf[size] = uint32(mass)

	var starved []int
	for i := 0; i < size; i++ {
		if freqs[i] > 0 && cdf[i+1] == cdf[i] {
			starved = append(starved, i)
		}
	}
	if len(starved) == 0 {
		return cdf, nil
	}
	if !smooth {
		return nil, errors.Wrapf(ErrDegenerateModel, "symbol %d occurs %d times but quantizes to zero width at precision %d", starved[0], freqs[starved[0]], precision)
	}
	return smoothCDF(cdf, starved), nil
}

// smoothCDF gives every starved symbol one unit, taking each unit from the currently largest frequency.
func smoothCDF(cdf []uint32, starved []int) []uint32 {
	size := len(cdf) - 1
	f := make([]uint32, size)
	for i := range f {
		f[i] = cdf[i+1] - cdf[i]
	}
	for _, s := range starved {
		f[s] = 1
		largest := 0
		for i := range f {
			if f[i] > f[largest] {
				largest = i
			}
		}
		f[largest]--
	}
	out := make([]uint32, size+1)
	for i := 0; i < size; i++ {
		out[i+1] = out[i] + f[i]
	}
	return out
}

// validCDF checks the invariants of a CDF read from a header.
func validCDF(cdf []uint32, precision uint) error {
	if cdf[0] != 0 {
		return errors.Wrapf(ErrInvalidHeader, "cdf[0] = %d", cdf[0])
	}
	for i := 1; i < len(cdf); i++ {
		if cdf[i] < cdf[i-1] {
			return errors.Wrapf(ErrInvalidHeader, "cdf[%d] = %d < cdf[%d] = %d", i, cdf[i], i-1, cdf[i-1])
		}
	}
	if last := cdf[len(cdf)-1]; last != 1<<precision {
		return errors.Wrapf(ErrInvalidHeader, "total mass %d, want %d", last, 1<<precision)
	}
	return nil
}

func decodeCDF(hdr []byte, precision uint) ([]uint32, error) {
	size := len(hdr) / 2
	cdf := make([]uint32, size+1)
	for i := 0; i < size; i++ {
		cdf[i] = uint32(hdr[2*i]) | uint32(hdr[2*i+1])<<8
	}
	cdf[size] = 1 << precision
	if err := validCDF(cdf, precision); err != nil {
		return nil, err
	}
	return cdf, nil
}

func readCDF(bs *buffer.BitStream, width, precision uint) ([]uint32, error) {
	hdr := make([]byte, 2<<width)
	if err := bs.Read(hdr); err != nil {
		return nil, errors.Wrap(err, "model header")
	}
	return decodeCDF(hdr, precision)
}

func readCDFReverse(bs *buffer.BitStream, width, precision uint) ([]uint32, error) {
	hdr := make([]byte, 2<<width)
	if err := bs.ReadReverse(hdr); err != nil {
		return nil, errors.Wrap(err, "model header")
	}
	return decodeCDF(hdr, precision)
}

func uniformCDF(width, precision uint) []uint32 {
	size := 1 << width
	step := uint32(1) << (precision - width)
	cdf := make([]uint32, size+1)
	for i := 1; i <= size; i++ {
		cdf[i] = cdf[i-1] + step
	}
	return cdf
}

// shannon returns -sum p*log2(p) over the given weights.
func shannon(weights []uint32, total uint64) float64 {
	if total == 0 {
		return 0
	}
	h := 0.0
	for _, w := range weights {
		if w == 0 {
			continue
		}
		p := float64(w) / float64(total)
		h -= p * math.Log2(p)
	}
	return h
}

func cdfEntropy(cdf []uint32) float64 {
	size := len(cdf) - 1
	f := make([]uint32, size)
	for i := range f {
		f[i] = cdf[i+1] - cdf[i]
	}
	return shannon(f, uint64(cdf[size]))
}
