package model

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pkg/errors"

	"github.com/xann16/simple-rans/buffer"
)

// skewed returns n symbols of the given width drawn from a roughly exponential distribution.
func skewed(width uint, n int, seed int64) []byte {
	r := rand.New(rand.NewSource(seed))
	size := 1 << width
	syms := make([]byte, n)
	for i := range syms {
		s := int(r.ExpFloat64() * float64(size) / 6)
		if s >= size {
			s = size - 1
		}
		syms[i] = byte(s)
	}
	return syms
}

func block(t *testing.T, width uint, syms []byte) *buffer.SymbolBlock {
	blk, err := buffer.NewSymbolBlock((len(syms)*int(width)+7)/8, width)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	for _, s := range syms {
		if err := blk.WriteSymbol(s); err != nil {
			t.Fatalf("%+v", err)
		}
	}
	return blk
}

func checkCDF(t *testing.T, name string, cdf []uint32, mass uint32) {
	if cdf[0] != 0 {
		t.Errorf("%s: cdf[0] = %d", name, cdf[0])
	}
	if last := cdf[len(cdf)-1]; last != mass {
		t.Errorf("%s: cdf[last] = %d, want %d", name, last, mass)
	}
	for i := 1; i < len(cdf); i++ {
		if cdf[i] < cdf[i-1] {
			t.Errorf("%s: cdf[%d] = %d < cdf[%d] = %d", name, i, cdf[i], i-1, cdf[i-1])
		}
	}
}

func TestQuantizedCDFTable(t *testing.T) {
	for _, width := range []uint{1, 2, 4, 8} {
		syms := skewed(width, 4000, int64(width))
		blk := block(t, width, syms)
		blk.Rewind()
		pos := blk.Position()

		ft, err := NewQuantizedCDFTable(blk, Params{Precision: 12})
		if err != nil {
			t.Fatalf("%+v", err)
		}
		if blk.Position() != pos {
			t.Errorf("width %d: cursor moved to %+v", width, blk.Position())
		}
		if ft.SymbolCount() != len(syms) {
			t.Errorf("width %d: %d symbols", width, ft.SymbolCount())
		}
		checkCDF(t, "quantized", ft.CDF(), 1<<12)

		present := make([]bool, ft.AlphabetSize())
		for _, s := range syms {
			present[s] = true
		}
		for s := 0; s < ft.AlphabetSize(); s++ {
			if present[s] != (ft.Frequency(byte(s)) > 0) {
				t.Errorf("width %d: symbol %d present %v, frequency %d", width, s, present[s], ft.Frequency(byte(s)))
			}
		}

		for v := uint32(0); v < ft.TotalMass(); v++ {
			s := ft.Symbol(v)
			if v < ft.Cumulative(s) || v >= ft.Cumulative(s)+ft.Frequency(s) {
				t.Fatalf("width %d: value %d mapped to %d with interval [%d, %d)", width, v, s, ft.Cumulative(s), ft.Cumulative(s)+ft.Frequency(s))
			}
		}
	}
}

func TestQuantizedHeader(t *testing.T) {
	blk := block(t, 4, skewed(4, 1000, 7))
	ft, err := NewQuantizedCDFTable(blk, Params{Precision: 12})
	if err != nil {
		t.Fatalf("%+v", err)
	}

	bs := buffer.NewBitStream(128)
	if err := ft.WriteHeader(bs); err != nil {
		t.Fatalf("%+v", err)
	}
	if bs.LengthInBits() != ft.HeaderLength() {
		t.Errorf("%d != %d", bs.LengthInBits(), ft.HeaderLength())
	}

	bs.Rewind()
	fwd, err := ReadQuantizedCDFTable(bs, 4, 12)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if !ft.Equal(fwd) {
		t.Errorf("%v != %v", ft.CDF(), fwd.CDF())
	}

	rev, err := ReadQuantizedCDFTableReverse(bs, 4, 12)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if !ft.Equal(rev) {
		t.Errorf("%v != %v", ft.CDF(), rev.CDF())
	}
	if !bs.AtStart() {
		t.Errorf("cursor at %d", bs.Offset())
	}

	if _, err := ReadQuantizedCDFTableReverse(bs, 4, 12); errors.Cause(err) != buffer.ErrTruncatedStream {
		t.Errorf("%v", err)
	}
}

func TestQuantizedInvalidHeader(t *testing.T) {
	bs := buffer.NewBitStream(16)
	for _, w := range []uint16{0, 300, 200, 400} {
		if err := bs.WriteWord(w); err != nil {
			t.Fatalf("%+v", err)
		}
	}
	if _, err := ReadQuantizedCDFTableReverse(bs, 2, 10); errors.Cause(err) != ErrInvalidHeader {
		t.Errorf("%v", err)
	}
}

func TestQuantizedDegenerate(t *testing.T) {
	var syms []byte
	for i := 0; i < 5; i++ {
		syms = append(syms, 0)
	}
	syms = append(syms, 1)
	for i := 0; i < 4; i++ {
		syms = append(syms, 3)
	}
	blk := block(t, 2, syms)

	if _, err := NewQuantizedCDFTable(blk, Params{Precision: 2}); errors.Cause(err) != ErrDegenerateModel {
		t.Errorf("%v", err)
	}

	ft, err := NewQuantizedCDFTable(blk, Params{Precision: 2, Smooth: true})
	if err != nil {
		t.Fatalf("%+v", err)
	}
	want := []uint32{0, 1, 2, 2, 4}
	got := ft.CDF()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("%v != %v", got, want)
		}
	}

	empty := block(t, 2, nil)
	if _, err := NewQuantizedCDFTable(empty, Params{Precision: 12}); errors.Cause(err) != ErrDegenerateModel {
		t.Errorf("%v", err)
	}
	if _, err := NewExactFrequencyTable(empty); errors.Cause(err) != ErrDegenerateModel {
		t.Errorf("%v", err)
	}
}

func TestInvalidPrecision(t *testing.T) {
	blk := block(t, 8, []byte{1, 2, 3})
	for _, p := range []uint{4, 16} {
		if _, err := NewQuantizedCDFTable(blk, Params{Precision: p}); errors.Cause(err) != ErrInvalidPrecision {
			t.Errorf("%d: %v", p, err)
		}
	}
}

func TestAliasQuantizedCDFTable(t *testing.T) {
	for _, width := range []uint{1, 2, 4, 8} {
		blk := block(t, width, skewed(width, 3000, 10+int64(width)))
		at, err := NewAliasQuantizedCDFTable(blk, Params{Precision: 12})
		if err != nil {
			t.Fatalf("%+v", err)
		}
		checkCDF(t, "alias", at.CDF(), 1<<12)

		cov := at.Coverage()
		for s := 0; s < at.AlphabetSize(); s++ {
			if cov[s] != at.Frequency(byte(s)) {
				t.Errorf("width %d: symbol %d covers %d, frequency %d", width, s, cov[s], at.Frequency(byte(s)))
			}
			if at.Divider(byte(s)) > at.BucketSize() {
				t.Errorf("width %d: bucket %d divider %d", width, s, at.Divider(byte(s)))
			}
		}

		hits := make([]uint32, at.AlphabetSize())
		for v := uint32(0); v < at.TotalMass(); v++ {
			hits[at.Symbol(v)]++
		}
		for s := range hits {
			if hits[s] != at.Frequency(byte(s)) {
				t.Errorf("width %d: symbol %d looked up %d times, frequency %d", width, s, hits[s], at.Frequency(byte(s)))
			}
		}
	}
}

func TestAliasAdjust(t *testing.T) {
	for _, width := range []uint{2, 4, 8} {
		blk := block(t, width, skewed(width, 2000, 20+int64(width)))
		at, err := NewAliasQuantizedCDFTable(blk, Params{Precision: 12})
		if err != nil {
			t.Fatalf("%+v", err)
		}
		for s := 0; s < at.AlphabetSize(); s++ {
			f := uint64(at.Frequency(byte(s)))
			if f == 0 {
				continue
			}
			for x := uint64(0); x < 2*f+3; x++ {
				v := at.EncodeAdjust(byte(s), x)
				if got := at.Symbol(uint32(v)); got != byte(s) {
					t.Fatalf("width %d: symbol %d, x %d: value %d decodes to %d", width, s, x, v, got)
				}
				df, c := at.DecodeAdjust(byte(s), v)
				if df != f || v-c != x%f {
					t.Fatalf("width %d: symbol %d, x %d: f %d c %d", width, s, x, df, c)
				}
			}
		}
	}
}

func TestAliasHeader(t *testing.T) {
	blk := block(t, 4, skewed(4, 1500, 3))
	at, err := NewAliasQuantizedCDFTable(blk, Params{Precision: 12})
	if err != nil {
		t.Fatalf("%+v", err)
	}
	bs := buffer.NewBitStream(64)
	if err := at.WriteHeader(bs); err != nil {
		t.Fatalf("%+v", err)
	}
	rev, err := ReadAliasQuantizedCDFTableReverse(bs, 4, 12)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if !at.Equal(rev) {
		t.Errorf("%v != %v", at.CDF(), rev.CDF())
	}
	fwd, err := ReadAliasQuantizedCDFTable(bs, 4, 12)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	for v := uint32(0); v < at.TotalMass(); v++ {
		if at.Symbol(v) != fwd.Symbol(v) {
			t.Fatalf("value %d: %d != %d", v, at.Symbol(v), fwd.Symbol(v))
		}
	}
}

func TestExactFrequencyTable(t *testing.T) {
	blk := block(t, 2, []byte{0, 0, 1, 3, 3, 3, 3, 1})
	ft, err := NewExactFrequencyTable(blk)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if ft.TotalMass() != 8 || ft.Frequency(3) != 4 || ft.Cumulative(3) != 4 {
		t.Errorf("%d %d %d", ft.TotalMass(), ft.Frequency(3), ft.Cumulative(3))
	}
	if math.Abs(ft.BitsPerSymbolTheory()-1.5) > 1e-12 {
		t.Errorf("%f", ft.BitsPerSymbolTheory())
	}
	for _, c := range []struct {
		p    float64
		want byte
	}{{0, 0}, {0.2, 0}, {0.25, 1}, {0.49, 1}, {0.5, 3}, {0.99, 3}, {1, 3}} {
		if got := ft.Symbol(c.p); got != c.want {
			t.Errorf("%f: %d != %d", c.p, got, c.want)
		}
	}

	bs := buffer.NewBitStream(64)
	if err := ft.WriteHeader(bs); err != nil {
		t.Fatalf("%+v", err)
	}
	if bs.LengthInBits() != ft.HeaderLength() {
		t.Errorf("%d != %d", bs.LengthInBits(), ft.HeaderLength())
	}
	rev, err := ReadExactFrequencyTableReverse(bs, 2)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if !ft.Equal(rev) {
		t.Errorf("reverse header mismatch")
	}
	fwd, err := ReadExactFrequencyTable(bs, 2)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if !ft.Equal(fwd) {
		t.Errorf("forward header mismatch")
	}
}

func TestEntropyBound(t *testing.T) {
	for _, width := range []uint{1, 2, 4, 8} {
		for seed := int64(0); seed < 3; seed++ {
			blk := block(t, width, skewed(width, 2048, seed))
			bound := float64(width) + 1e-9

			exact, err := NewExactFrequencyTable(blk)
			if err != nil {
				t.Fatalf("%+v", err)
			}
			quant, err := NewQuantizedCDFTable(blk, Params{Precision: 12})
			if err != nil {
				t.Fatalf("%+v", err)
			}
			adapt, err := NewAdaptiveQuantizedCDFTable(width, Params{Precision: 12, Rate: 4})
			if err != nil {
				t.Fatalf("%+v", err)
			}
			if err := adapt.Observe(blk); err != nil {
				t.Fatalf("%+v", err)
			}
			for _, m := range []Model{exact, quant, adapt} {
				if h := m.BitsPerSymbolTheory(); h < 0 || h > bound {
					t.Errorf("width %d: %T entropy %f", width, m, h)
				}
			}
		}
	}

	uni, err := Uniform(Quantized, 4, Params{Precision: 12})
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if math.Abs(uni.BitsPerSymbolTheory()-4) > 1e-9 {
		t.Errorf("%f", uni.BitsPerSymbolTheory())
	}
}

func TestAdaptiveQuantizedCDFTable(t *testing.T) {
	syms := skewed(2, 500, 5)
	blk := block(t, 2, syms)

	var steps int
	a, err := NewAdaptiveQuantizedCDFTable(2, Params{Precision: 12, Rate: 3})
	if err != nil {
		t.Fatalf("%+v", err)
	}
	checkCDF(t, "uniform", a.CDF(), 1<<12)
	if a.Frequency(0) != 1024 {
		t.Errorf("%d", a.Frequency(0))
	}
	a.OnUpdate = func(step int, s byte, tbl *AdaptiveQuantizedCDFTable) {
		steps++
		if step != steps || s != syms[step-1] {
			t.Errorf("step %d: symbol %d", step, s)
		}
		checkCDF(t, "adaptive", tbl.CDF(), 1<<12)
	}
	if err := a.Observe(blk); err != nil {
		t.Fatalf("%+v", err)
	}
	if steps != len(syms) || a.SymbolCount() != len(syms) {
		t.Errorf("%d steps, %d symbols", steps, a.SymbolCount())
	}

	b, err := NewAdaptiveQuantizedCDFTable(2, Params{Precision: 12, Rate: 3})
	if err != nil {
		t.Fatalf("%+v", err)
	}
	for _, s := range syms {
		b.Update(s)
	}
	if !a.Equal(b) {
		t.Errorf("%v != %v", a.CDF(), b.CDF())
	}
	// A symbol that stops occurring decays to zero mass, so the table cannot drive rANS.
	if _, ok := Model(a).(Coder); ok {
		t.Errorf("adaptive table implements Coder")
	}
	if a.HeaderLength() != 0 {
		t.Errorf("%d", a.HeaderLength())
	}

	c, err := NewAdaptiveQuantizedCDFTable(2, Params{Precision: 12, Rate: 3})
	if err != nil {
		t.Fatalf("%+v", err)
	}
	c.Update(2)
	// cdf[1], cdf[2] decay towards 0, cdf[3] grows towards 4096.
	want := []uint32{0, 1024 - 128, 2048 - 256, 3072 + 128, 4096}
	got := c.CDF()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("%v != %v", got, want)
		}
	}
	for i := 0; i < 100; i++ {
		c.Update(2)
	}
	if p := c.Probabilities(); p[2] < 0.9 {
		t.Errorf("%v", p)
	}
}

func TestKind(t *testing.T) {
	for _, k := range []Kind{Quantized, Alias, Adaptive, Exact} {
		got, err := ParseKind(k.String())
		if err != nil {
			t.Fatalf("%+v", err)
		}
		if got != k {
			t.Errorf("%v != %v", got, k)
		}
	}
	var k Kind
	if err := k.UnmarshalText([]byte("ALIAS")); err != nil || k != Alias {
		t.Errorf("%v %v", k, err)
	}
	if _, err := ParseKind("huffman"); err == nil {
		t.Errorf("expected error")
	}

	blk := block(t, 8, []byte("abracadabra"))
	for _, k := range []Kind{Exact, Adaptive} {
		if _, err := Derive(k, blk, Params{Precision: 12, Rate: DefaultRate}); err == nil {
			t.Errorf("%v table accepted as a coder", k)
		}
		if _, err := Uniform(k, 8, Params{Precision: 12, Rate: DefaultRate}); err == nil {
			t.Errorf("uniform %v table accepted as a coder", k)
		}
	}
	for _, k := range []Kind{Quantized, Alias} {
		m, err := Derive(k, blk, Params{Precision: 12})
		if err != nil {
			t.Fatalf("%+v", err)
		}
		if m.SymbolCount() != 11 {
			t.Errorf("%v: %d", k, m.SymbolCount())
		}
	}
}
