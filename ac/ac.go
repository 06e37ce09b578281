// Package ac implements the arithmetic coding algorithm described in
// Witten, Ian H.; Neal, Radford M.; Cleary, John G. (June 1987). "Arithmetic Coding for Data Compression". Communications of the ACM 30 (6): 520–540.
//
// Unlike rANS, arithmetic coding decodes in the order it encodes,
// so it can be driven by a model that adapts to every symbol, such as model.AdaptiveQuantizedCDFTable.
package ac

import (
	"github.com/pkg/errors"
)

const (
	codeValueBits = 32
	topValue      = (uint64(1) << codeValueBits) - 1
	firstQtr      = topValue/4 + 1
	half          = 2 * firstQtr
	thirdQtr      = 3 * firstQtr

	topValueDbl = float64(topValue)

	// minProb keeps both halves of the coding range non-empty.
	minProb = 1.0 / (1 << 16)
)

// ErrDecodeInsufficientBits is returned when there are insufficient bits sent to Decode to reconstruct the original data.
var ErrDecodeInsufficientBits = errors.New("insufficient bits sent to decoder")

// A Model is a probabilistic model on a sequence of binary data.
type Model interface {
	// Prob0 returns the probability that the next bit will be zero.
	Prob0() float64

	// Observe informs the Model that a bit is observed from the sequence.
	Observe(bit int)
}

func clamp(p float64) float64 {
	if p < minProb {
		return minProb
	}
	if p > 1-minProb {
		return 1 - minProb
	}
	return p
}

// An encoder carries the coding range and the number of pending opposite bits.
type encoder struct {
	low, high uint64
	pending   uint64
	dst       chan<- int
}

// emit sends bit followed by the pending opposite bits.
func (e *encoder) emit(bit int) {
	e.dst <- bit
	for ; e.pending > 0; e.pending-- {
		e.dst <- 1 - bit
	}
}

func (e *encoder) encode(bit int, prob0 float64) {
	split := e.low + (e.high-e.low+1)*uint64(prob0*topValueDbl)/topValue
	if bit == 1 {
		e.low = split
	} else {
		e.high = split - 1
	}

	for {
		switch {
		case e.high < half:
			e.emit(0)
		case e.low >= half:
			e.emit(1)
			e.low -= half
			e.high -= half
		case e.low >= firstQtr && e.high < thirdQtr:
			e.pending++
			e.low -= firstQtr
			e.high -= firstQtr
		default:
			return
		}
		e.low = 2 * e.low
		e.high = 2*e.high + 1
	}
}

// finish emits enough bits to select a value inside the final range.
func (e *encoder) finish() {
	e.pending++
	if e.low < firstQtr {
		e.emit(0)
	} else {
		e.emit(1)
	}
}

// Encode performs arithmetic coding on a stream of bits given a binary probabilistic model.
// The input bits should be sent through src, which Encode consumes until it is closed.
// The output bits can be received from dst. Encode will block when dst if full and is not read from.
// Encode closes dst when the encoding is complete and there are no more bits to be sent to it.
func Encode(dst chan<- int, src <-chan int, model Model) {
	defer close(dst)
	e := &encoder{high: topValue, dst: dst}
	for bit := range src {
		prob0 := clamp(model.Prob0())
		model.Observe(bit)
		e.encode(bit, prob0)
	}
	e.finish()
}

type decoder struct {
	low, high uint64
	value     uint64
	src       <-chan int
	garbage   int
}

// next returns the next coded bit.
// Past the end of src it returns ones, as long as they cannot influence the decoded bits.
func (d *decoder) next() (uint64, error) {
	b, ok := <-d.src
	if ok {
		return uint64(b), nil
	}
	d.garbage++
	if d.garbage > codeValueBits-2 {
		return 0, errors.WithStack(ErrDecodeInsufficientBits)
	}
	return 1, nil
}

func (d *decoder) decode(prob0 float64) (int, error) {
	split := d.low + (d.high-d.low+1)*uint64(prob0*topValueDbl)/topValue
	bit := 1
	if d.value < split {
		bit = 0
		d.high = split - 1
	} else {
		d.low = split
	}

	for {
		switch {
		case d.high < half:
		case d.low >= half:
			d.value -= half
			d.low -= half
			d.high -= half
		case d.low >= firstQtr && d.high < thirdQtr:
			d.value -= firstQtr
			d.low -= firstQtr
			d.high -= firstQtr
		default:
			return bit, nil
		}
		d.low = 2 * d.low
		d.high = 2*d.high + 1
		inb, err := d.next()
		if err != nil {
			return 0, err
		}
		d.value = 2*d.value + inb
	}
}

// Decode decodes originalSize bits encoded by Encode with an identical model.
// Decode consumes bits from src until either it is closed, or when it has decoded originalSize number of bits,
// so callers must not block indefinitely when sending to src.
// Decode closes dst when the decoding is complete.
func Decode(dst chan<- int, src <-chan int, model Model, originalSize int64) error {
	defer close(dst)

	d := &decoder{high: topValue, src: src}
	for i := 0; i < codeValueBits; i++ {
		inb, err := d.next()
		if err != nil {
			return err
		}
		d.value = 2*d.value + inb
	}

	for i := int64(0); i < originalSize; i++ {
		bit, err := d.decode(clamp(model.Prob0()))
		if err != nil {
			return err
		}
		dst <- bit
		model.Observe(bit)
	}
	return nil
}
