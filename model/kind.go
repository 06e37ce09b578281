package model

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/xann16/simple-rans/buffer"
)

// Kind names a model variant.
type Kind uint8

const (
	Quantized Kind = iota
	Alias
	Adaptive
	Exact
)

var kindNames = [...]string{
	Quantized: "quantized",
	Alias:     "alias",
	Adaptive:  "adaptive",
	Exact:     "exact",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// ParseKind returns the Kind named s.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if strings.EqualFold(s, name) {
			return Kind(k), nil
		}
	}
	return 0, errors.Errorf("unknown model %q", s)
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Derive builds a Coder of kind k from all symbols written to blk.
// Only Quantized and Alias models are Coders; an Adaptive table may leave symbols without mass.
func Derive(k Kind, blk *buffer.SymbolBlock, p Params) (Coder, error) {
	switch k {
	case Quantized:
		t, err := NewQuantizedCDFTable(blk, p)
		if err != nil {
			return nil, err
		}
		return t, nil
	case Alias:
		t, err := NewAliasQuantizedCDFTable(blk, p)
		if err != nil {
			return nil, err
		}
		return t, nil
	}
	return nil, errors.Errorf("%v is not a coding model", k)
}

// Uniform returns a Coder of kind k that gives every symbol the same mass.
func Uniform(k Kind, width uint, p Params) (Coder, error) {
	if err := p.validate(width); err != nil {
		return nil, err
	}
	cdf := uniformCDF(width, p.Precision)
	switch k {
	case Quantized:
		t, err := NewQuantizedCDFTableFromCDF(width, p.Precision, cdf)
		if err != nil {
			return nil, err
		}
		return t, nil
	case Alias:
		t, err := NewAliasQuantizedCDFTableFromCDF(width, p.Precision, cdf)
		if err != nil {
			return nil, err
		}
		return t, nil
	}
	return nil, errors.Errorf("%v is not a coding model", k)
}

// ReadHeaderReverse reads the header of a Coder of kind k that ends at the cursor of bs.
func ReadHeaderReverse(k Kind, bs *buffer.BitStream, width, precision uint) (Coder, error) {
	switch k {
	case Quantized:
		t, err := ReadQuantizedCDFTableReverse(bs, width, precision)
		if err != nil {
			return nil, err
		}
		return t, nil
	case Alias:
		t, err := ReadAliasQuantizedCDFTableReverse(bs, width, precision)
		if err != nil {
			return nil, err
		}
		return t, nil
	}
	return nil, errors.Errorf("%v has no header to read", k)
}
