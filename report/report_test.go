package report

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/huff0"
	"github.com/pkg/errors"

	rans "github.com/xann16/simple-rans"
	"github.com/xann16/simple-rans/buffer"
)

func TestReport(t *testing.T) {
	r := Report{
		Name:         "test",
		Width:        8,
		Model:        "alias",
		DecodedBytes: 100,
		Stats: rans.Stats{
			SymbolCount:         100,
			HeaderBits:          4096,
			RawEncodedBits:      400,
			EncodedBits:         4496,
			BitsPerSymbolTheory: 3.5,
			EncodeDuration:      time.Millisecond,
		},
	}
	for _, c := range []struct {
		name      string
		got, want float64
	}{
		{"rate", r.CompressionRate(), 5.62},
		{"raw rate", r.RawCompressionRate(), 0.5},
		{"bps", r.BitsPerSymbol(), 44.96},
		{"raw bps", r.RawBitsPerSymbol(), 4},
		{"redundancy", r.Redundancy(), 41.46},
		{"raw redundancy", r.RawRedundancy(), 0.5},
	} {
		if math.Abs(c.got-c.want) > 1e-9 {
			t.Errorf("%s: %f != %f", c.name, c.got, c.want)
		}
	}
	if r.EncodedBytes() != 562 || r.RawEncodedBytes() != 50 {
		t.Errorf("%d %d", r.EncodedBytes(), r.RawEncodedBytes())
	}

	var empty Report
	if empty.CompressionRate() != 0 || empty.BitsPerSymbol() != 0 {
		t.Errorf("%f %f", empty.CompressionRate(), empty.BitsPerSymbol())
	}

	var buf bytes.Buffer
	if err := Fprint(&buf, []Report{r}); err != nil {
		t.Fatalf("%v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || !strings.Contains(lines[1], "alias") || !strings.Contains(lines[1], "5.6200") {
		t.Errorf("%s", buf.String())
	}
}

func TestBaselines(t *testing.T) {
	src := bytes.Repeat([]byte("four score and seven years ago "), 64)
	bl := Baselines(src)
	if len(bl) != 4 {
		t.Fatalf("%v", bl)
	}
	for _, b := range bl {
		if b.Err != nil {
			t.Errorf("%s: %v", b.Name, b.Err)
			continue
		}
		if b.Bytes == 0 || b.Bytes >= len(src) {
			t.Errorf("%s: %d bytes", b.Name, b.Bytes)
		}
	}

	rle := Baselines(bytes.Repeat([]byte{'a'}, 1000))
	if errors.Cause(rle[1].Err) != huff0.ErrUseRLE {
		t.Errorf("%v", rle[1].Err)
	}

	var buf bytes.Buffer
	if err := FprintBaselines(&buf, 1000, rle); err != nil {
		t.Fatalf("%v", err)
	}
	if !strings.Contains(buf.String(), "zstd") {
		t.Errorf("%s", buf.String())
	}
}

func TestDigest(t *testing.T) {
	a, err := buffer.NewSymbolBlock(8, 4)
	if err != nil {
		t.Fatalf("%v", err)
	}
	b, err := buffer.NewSymbolBlock(8, 4)
	if err != nil {
		t.Fatalf("%v", err)
	}
	for _, s := range []byte{1, 2, 3, 4, 5} {
		if err := a.WriteSymbol(s); err != nil {
			t.Fatalf("%v", err)
		}
		if err := b.WriteSymbol(s); err != nil {
			t.Fatalf("%v", err)
		}
	}
	if Digest(a) != Digest(b) {
		t.Errorf("%x != %x", Digest(a), Digest(b))
	}
	if err := b.WriteSymbol(6); err != nil {
		t.Fatalf("%v", err)
	}
	if Digest(a) == Digest(b) {
		t.Errorf("%x", Digest(a))
	}
}
