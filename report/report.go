// Package report presents the measurements of encoded blocks.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	rans "github.com/xann16/simple-rans"
)

// A Report describes one block coded with one configuration.
type Report struct {
	Name  string
	Width uint
	Model string

	// DecodedBytes is the size of the block before encoding.
	DecodedBytes int

	rans.Stats
}

// EncodedBytes returns the size of the coded words and header, rounded up to whole bytes.
func (r Report) EncodedBytes() int { return (r.EncodedBits + 7) / 8 }

// RawEncodedBytes returns the size of the coded words alone.
func (r Report) RawEncodedBytes() int { return (r.RawEncodedBits + 7) / 8 }

// CompressionRate is EncodedBytes over DecodedBytes.
func (r Report) CompressionRate() float64 { return ratio(r.EncodedBits, 8*r.DecodedBytes) }

// RawCompressionRate is CompressionRate without the header.
func (r Report) RawCompressionRate() float64 { return ratio(r.RawEncodedBits, 8*r.DecodedBytes) }

func (r Report) BitsPerSymbol() float64 { return ratio(r.EncodedBits, r.SymbolCount) }

func (r Report) RawBitsPerSymbol() float64 { return ratio(r.RawEncodedBits, r.SymbolCount) }

// Redundancy is the number of bits per symbol spent above the entropy.
func (r Report) Redundancy() float64 { return r.BitsPerSymbol() - r.BitsPerSymbolTheory }

func (r Report) RawRedundancy() float64 { return r.RawBitsPerSymbol() - r.BitsPerSymbolTheory }

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}

// Fprint writes the reports to w as a table, one row per report.
func Fprint(w io.Writer, reports []Report) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "name\twidth\tmodel\tsymbols\tdecoded\tencoded\traw\theader\trate\traw rate\tbps\traw bps\ttheory\tredundancy\traw redundancy\tencode\tdecode\t")
	for _, r := range reports {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%d\t%d\t%d\t%d\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\t%v\t%v\t\n",
			r.Name, r.Width, r.Model, r.SymbolCount,
			r.DecodedBytes, r.EncodedBytes(), r.RawEncodedBytes(), r.HeaderBits/8,
			r.CompressionRate(), r.RawCompressionRate(),
			r.BitsPerSymbol(), r.RawBitsPerSymbol(), r.BitsPerSymbolTheory,
			r.Redundancy(), r.RawRedundancy(),
			r.EncodeDuration.Round(time.Microsecond), r.DecodeDuration.Round(time.Microsecond))
	}
	return tw.Flush()
}
