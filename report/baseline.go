package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/klauspost/compress/fse"
	"github.com/klauspost/compress/huff0"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// A Baseline is the size a reference compressor reaches on a block.
type Baseline struct {
	Name  string
	Bytes int

	// Err is set when the compressor refused the block.
	Err error
}

// Rate is Bytes over the size of the original block.
func (b Baseline) Rate(decoded int) float64 { return ratio(b.Bytes, decoded) }

var zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))

// Baselines compresses src with byte oriented entropy coders and general purpose compressors.
func Baselines(src []byte) []Baseline {
	out := make([]Baseline, 0, 4)

	b := Baseline{Name: "fse"}
	if enc, err := fse.Compress(src, &fse.Scratch{}); err != nil {
		b.Err = entropyErr(err)
	} else {
		b.Bytes = len(enc)
	}
	out = append(out, b)

	b = Baseline{Name: "huff0"}
	if enc, _, err := huff0.Compress1X(src, &huff0.Scratch{}); err != nil {
		b.Err = entropyErr(err)
	} else {
		b.Bytes = len(enc)
	}
	out = append(out, b)

	out = append(out, Baseline{Name: "zstd", Bytes: len(zstdEncoder.EncodeAll(src, nil))})
	out = append(out, Baseline{Name: "s2", Bytes: len(s2.Encode(nil, src))})
	return out
}

func entropyErr(err error) error {
	switch err {
	case fse.ErrIncompressible, huff0.ErrIncompressible:
		return errors.Wrap(err, "incompressible")
	case fse.ErrUseRLE, huff0.ErrUseRLE:
		return errors.Wrap(err, "single symbol")
	}
	return errors.Wrap(err, "")
}

// FprintBaselines writes the baselines of a block of decoded bytes to w as a table.
func FprintBaselines(w io.Writer, decoded int, baselines []Baseline) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "baseline\tencoded\trate\t")
	for _, b := range baselines {
		if b.Err != nil {
			fmt.Fprintf(tw, "%s\t-\t%v\t\n", b.Name, errors.Cause(b.Err))
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%.4f\t\n", b.Name, b.Bytes, b.Rate(decoded))
	}
	return tw.Flush()
}
