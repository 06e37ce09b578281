package ac

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/xann16/simple-rans/buffer"
	"github.com/xann16/simple-rans/model"
)

// A SymbolModel presents an adaptive symbol model as a model on the bits of its symbols, most significant bit first.
// The probability of a bit is the mass of the symbols it leads to, relative to the symbols still possible.
// Once all bits of a symbol are observed, the table is updated with it.
type SymbolModel struct {
	t *model.AdaptiveQuantizedCDFTable

	// Symbols in [lo, hi) agree with the bits observed so far.
	lo, hi int
}

// NewSymbolModel returns a SymbolModel driving t.
func NewSymbolModel(t *model.AdaptiveQuantizedCDFTable) *SymbolModel {
	return &SymbolModel{t: t, hi: t.AlphabetSize()}
}

// Table returns the underlying table.
func (m *SymbolModel) Table() *model.AdaptiveQuantizedCDFTable { return m.t }

func (m *SymbolModel) cum(s int) uint32 {
	if s == m.t.AlphabetSize() {
		return m.t.TotalMass()
	}
	return m.t.Cumulative(byte(s))
}

func (m *SymbolModel) Prob0() float64 {
	mid := (m.lo + m.hi) / 2
	total := m.cum(m.hi) - m.cum(m.lo)
	if total == 0 {
		return 0.5
	}
	return float64(m.cum(mid)-m.cum(m.lo)) / float64(total)
}

func (m *SymbolModel) Observe(bit int) {
	mid := (m.lo + m.hi) / 2
	if bit == 0 {
		m.hi = mid
	} else {
		m.lo = mid
	}
	if m.hi-m.lo == 1 {
		m.t.Update(byte(m.lo))
		m.lo, m.hi = 0, m.t.AlphabetSize()
	}
}

// EncodeBlock codes all symbols written to blk with m and returns the coded bits.
func EncodeBlock(blk *buffer.SymbolBlock, m Model) ([]int, error) {
	src := make(chan int, 64)
	var readErr error
	go func() {
		defer close(src)
		blk.Rewind()
		for blk.More() {
			s, err := blk.ReadSymbol()
			if err != nil {
				readErr = err
				return
			}
			for i := int(blk.Width()) - 1; i >= 0; i-- {
				src <- int(s>>uint(i)) & 1
			}
		}
	}()

	encoded := []int{}
	dst := make(chan int, 64)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for b := range dst {
			encoded = append(encoded, b)
		}
	}()

	Encode(dst, src, m)
	wg.Wait()
	if readErr != nil {
		return nil, errors.Wrap(readErr, "")
	}
	return encoded, nil
}

// DecodeBlock decodes n symbols from encoded with m and writes them to dst, which is reset first.
func DecodeBlock(dst *buffer.SymbolBlock, encoded []int, n int, m Model) error {
	width := int(dst.Width())
	src := make(chan int, 64)
	done := make(chan struct{})
	go func() {
		defer close(src)
		for _, b := range encoded {
			select {
			case src <- b:
			case <-done:
				return
			}
		}
	}()
	defer close(done)

	bits := make(chan int, 64)
	errc := make(chan error, 1)
	go func() {
		errc <- Decode(bits, src, m, int64(n)*int64(width))
	}()

	dst.Reset()
	var s byte
	var k int
	var writeErr error
	for b := range bits {
		s = s<<1 | byte(b)
		k++
		if k < width {
			continue
		}
		if writeErr == nil {
			writeErr = dst.WriteSymbol(s)
		}
		s, k = 0, 0
	}
	if err := <-errc; err != nil {
		return err
	}
	return writeErr
}
