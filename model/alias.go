package model

import (
	"github.com/pkg/errors"

	"github.com/xann16/simple-rans/buffer"
)

// An AliasQuantizedCDFTable is a QuantizedCDFTable with an alias table for constant time symbol lookup.
//
// The value range [0, 2^precision) is split into 2^width buckets of equal size.
// Bucket i holds symbol i below dividers[i] and symbol aliases[i] above it.
// Because this layout orders values differently from the CDF, encoding goes through remap,
// which takes a value in CDF order to its place in the bucket layout,
// and decoding uses the per-slot frequency and offset pairs.
type AliasQuantizedCDFTable struct {
	cdfTable

	dividers []uint32
	aliases  []byte
	remap    []uint32 // len 2^precision

	// Two slots per bucket: the primary symbol and the alias.
	slotFreq   []uint32
	slotOffset []uint32
}

// NewAliasQuantizedCDFTable derives the table from all symbols written to blk.
func NewAliasQuantizedCDFTable(blk *buffer.SymbolBlock, p Params) (*AliasQuantizedCDFTable, error) {
	q, err := NewQuantizedCDFTable(blk, p)
	if err != nil {
		return nil, err
	}
	return newAlias(q.cdfTable)
}

// NewAliasQuantizedCDFTableFromCDF returns the table described by cdf, which must hold 2^width+1 entries.
func NewAliasQuantizedCDFTableFromCDF(width, precision uint, cdf []uint32) (*AliasQuantizedCDFTable, error) {
	t, err := fromCDF(width, precision, cdf)
	if err != nil {
		return nil, err
	}
	return newAlias(t)
}

// ReadAliasQuantizedCDFTable reads a header forwards from the cursor of bs.
func ReadAliasQuantizedCDFTable(bs *buffer.BitStream, width, precision uint) (*AliasQuantizedCDFTable, error) {
	q, err := ReadQuantizedCDFTable(bs, width, precision)
	if err != nil {
		return nil, err
	}
	return newAlias(q.cdfTable)
}

// ReadAliasQuantizedCDFTableReverse reads the header that ends at the cursor of bs, leaving the cursor before it.
func ReadAliasQuantizedCDFTableReverse(bs *buffer.BitStream, width, precision uint) (*AliasQuantizedCDFTable, error) {
	q, err := ReadQuantizedCDFTableReverse(bs, width, precision)
	if err != nil {
		return nil, err
	}
	return newAlias(q.cdfTable)
}

func newAlias(base cdfTable) (*AliasQuantizedCDFTable, error) {
	t := &AliasQuantizedCDFTable{cdfTable: base}
	t.balance()
	if err := t.buildRemap(); err != nil {
		return nil, err
	}
	return t, nil
}

// BucketSize returns the size of each alias bucket, TotalMass()/AlphabetSize().
func (t *AliasQuantizedCDFTable) BucketSize() uint32 { return 1 << (t.precision - t.width) }

// Divider returns the part of bucket i held by symbol i.
func (t *AliasQuantizedCDFTable) Divider(i byte) uint32 { return t.dividers[i] }

// Alias returns the symbol holding the rest of bucket i.
func (t *AliasQuantizedCDFTable) Alias(i byte) byte { return t.aliases[i] }

// Coverage returns, for every symbol, the total bucket space assigned to it.
// It equals Frequency for every symbol.
func (t *AliasQuantizedCDFTable) Coverage() []uint32 {
	cov := make([]uint32, t.AlphabetSize())
	bs := t.BucketSize()
	for i := range t.dividers {
		cov[i] += t.dividers[i]
		cov[t.aliases[i]] += bs - t.dividers[i]
	}
	return cov
}

// balance fills the buckets with the large/small worklist procedure.
func (t *AliasQuantizedCDFTable) balance() {
	n := t.AlphabetSize()
	bs := t.BucketSize()
	t.dividers = make([]uint32, n)
	t.aliases = make([]byte, n)

	large := make([]byte, 0, n)
	small := make([]byte, 0, n)
	for i := 0; i < n; i++ {
		t.dividers[i] = t.Frequency(byte(i))
		if t.dividers[i] > bs {
			large = append(large, byte(i))
		} else {
			small = append(small, byte(i))
		}
	}

	for len(large) > 0 && len(small) > 0 {
		sm := small[len(small)-1]
		small = small[:len(small)-1]
		lg := large[len(large)-1]
		large = large[:len(large)-1]

		t.aliases[sm] = lg
		t.dividers[lg] -= bs - t.dividers[sm]
		if t.dividers[lg] > bs {
			large = append(large, lg)
		} else {
			small = append(small, lg)
		}
	}
}

// buildRemap lays every symbol's CDF interval out over the buckets it occupies, in bucket order.
func (t *AliasQuantizedCDFTable) buildRemap() error {
	n := t.AlphabetSize()
	bs := t.BucketSize()
	t.remap = make([]uint32, t.TotalMass())
	t.slotFreq = make([]uint32, 2*n)
	t.slotOffset = make([]uint32, 2*n)

	used := make([]uint32, n)
	var err error
	place := func(slot int, s byte, begin, size uint32) {
		if used[s]+size > t.Frequency(s) {
			err = errors.Wrapf(ErrDegenerateModel, "alias table overfills symbol %d", s)
			return
		}
		t.slotFreq[slot] = t.Frequency(s)
		t.slotOffset[slot] = begin - used[s]
		orig := t.Cumulative(s) + used[s]
		for k := uint32(0); k < size; k++ {
			t.remap[orig+k] = begin + k
		}
		used[s] += size
	}
	for i := 0; i < n; i++ {
		begin := uint32(i) * bs
		place(2*i, byte(i), begin, t.dividers[i])
		place(2*i+1, t.aliases[i], begin+t.dividers[i], bs-t.dividers[i])
	}
	if err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		if used[i] != t.Frequency(byte(i)) {
			return errors.Wrapf(ErrDegenerateModel, "alias table covers %d units of symbol %d, want %d", used[i], i, t.Frequency(byte(i)))
		}
	}
	return nil
}

// Symbol finds the symbol for value in constant time.
func (t *AliasQuantizedCDFTable) Symbol(value uint32) byte {
	bucket, offset := t.locate(uint64(value))
	if offset < t.dividers[bucket] {
		return byte(bucket)
	}
	return t.aliases[bucket]
}

func (t *AliasQuantizedCDFTable) locate(value uint64) (int, uint32) {
	shift := t.precision - t.width
	return int(value >> shift), uint32(value) & (t.BucketSize() - 1)
}

func (t *AliasQuantizedCDFTable) EncodeAdjust(s byte, x uint64) uint64 {
	return uint64(t.remap[x%uint64(t.Frequency(s))+uint64(t.Cumulative(s))])
}

func (t *AliasQuantizedCDFTable) DecodeAdjust(s byte, value uint64) (f, c uint64) {
	bucket, offset := t.locate(value)
	slot := 2 * bucket
	if offset >= t.dividers[bucket] {
		slot++
	}
	return uint64(t.slotFreq[slot]), uint64(t.slotOffset[slot])
}

// Equal reports whether both tables hold the same CDF.
func (t *AliasQuantizedCDFTable) Equal(other *AliasQuantizedCDFTable) bool {
	return t.equal(&other.cdfTable)
}
