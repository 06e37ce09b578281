// Command bench codes files at every symbol width with every model and prints the measurements.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"

	rans "github.com/xann16/simple-rans"
	"github.com/xann16/simple-rans/ac"
	"github.com/xann16/simple-rans/buffer"
	"github.com/xann16/simple-rans/model"
	"github.com/xann16/simple-rans/report"
)

var (
	flagConfig = flag.String("c", `{
		"files": ["gettysburg.txt"],
		"widths": [1, 2, 4, 8],
		"models": ["quantized", "alias", "adaptive"],
		"precision": 12,
		"rate": 3
		}`, "configuration")
)

type Config struct {
	Files     []string     `json:"files"`
	Widths    []uint       `json:"widths"`
	Models    []model.Kind `json:"models"`
	Precision uint         `json:"precision"`
	Smooth    bool         `json:"smooth"`

	// Rate is the adaptation rate of adaptive models.
	Rate uint `json:"rate"`

	// History, if set, is the prefix of the files the probabilities of adaptive models are written to, one row per step.
	History string `json:"history"`

	Verbose bool `json:"verbose"`
}

func parseConfig() (Config, error) {
	config := Config{}
	if err := yaml.Unmarshal([]byte(*flagConfig), &config); err != nil {
		return Config{}, errors.Wrap(err, "")
	}
	configB, err := yaml.Marshal(config)
	if err != nil {
		return Config{}, errors.Wrap(err, "")
	}
	log.Printf("config: %s", configB)
	return config, nil
}

func load(name string, width uint) (*buffer.SymbolBlock, error) {
	fi, err := os.Stat(name)
	if err != nil {
		return nil, errors.Wrap(buffer.ErrFileUnavailable, err.Error())
	}
	blk, err := buffer.NewSymbolBlock(int(fi.Size()), width)
	if err != nil {
		return nil, err
	}
	if err := blk.Load(name); err != nil {
		return nil, err
	}
	return blk, nil
}

// code encodes and decodes blk and checks that the decoded block is the same.
func code(config Config, kind model.Kind, blk *buffer.SymbolBlock) (rans.Stats, error) {
	c, err := rans.New(rans.Config{Precision: config.Precision, Model: kind, Smooth: config.Smooth, Verbose: config.Verbose})
	if err != nil {
		return rans.Stats{}, err
	}
	bs := buffer.NewBitStream(rans.StreamCapacity(blk.SymbolCount(), blk.Width()))
	st, err := c.Encode(blk, bs)
	if err != nil {
		return rans.Stats{}, err
	}

	dst, err := buffer.NewSymbolBlock(blk.Cap(), blk.Width())
	if err != nil {
		return rans.Stats{}, err
	}
	if err := dst.PrepareSymbols(st.SymbolCount); err != nil {
		return rans.Stats{}, err
	}
	st.DecodeDuration, err = c.Decode(bs, dst)
	if err != nil {
		return rans.Stats{}, err
	}
	if !blk.Equal(dst) {
		return rans.Stats{}, errors.Errorf("decoded block differs: digest %x, want %x", report.Digest(dst), report.Digest(blk))
	}
	return st, nil
}

// adapt codes blk with an adaptive model and arithmetic coding, writing the model history if configured.
func adapt(config Config, name string, blk *buffer.SymbolBlock) (rans.Stats, error) {
	params := model.Params{Precision: config.Precision, Rate: config.Rate}
	t, err := model.NewAdaptiveQuantizedCDFTable(blk.Width(), params)
	if err != nil {
		return rans.Stats{}, err
	}
	if config.History != "" {
		base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
		path := fmt.Sprintf("%s-%s-w%d.tsv", config.History, base, blk.Width())
		f, err := os.Create(path)
		if err != nil {
			return rans.Stats{}, errors.Wrap(err, "")
		}
		defer f.Close()
		w := bufio.NewWriter(f)
		defer w.Flush()
		t.OnUpdate = func(step int, s byte, tbl *model.AdaptiveQuantizedCDFTable) {
			fmt.Fprintf(w, "%d\t%d", step, s)
			for _, p := range tbl.Probabilities() {
				fmt.Fprintf(w, "\t%.6f", p)
			}
			fmt.Fprintln(w)
		}
	}

	start := time.Now()
	encoded, err := ac.EncodeBlock(blk, ac.NewSymbolModel(t))
	if err != nil {
		return rans.Stats{}, err
	}
	st := rans.Stats{
		SymbolCount:         t.SymbolCount(),
		RawEncodedBits:      len(encoded),
		EncodedBits:         len(encoded),
		BitsPerSymbolTheory: t.BitsPerSymbolTheory(),
		EncodeDuration:      time.Since(start),
	}

	start = time.Now()
	replay, err := model.NewAdaptiveQuantizedCDFTable(blk.Width(), params)
	if err != nil {
		return rans.Stats{}, err
	}
	dst, err := buffer.NewSymbolBlock(blk.Cap(), blk.Width())
	if err != nil {
		return rans.Stats{}, err
	}
	if err := ac.DecodeBlock(dst, encoded, st.SymbolCount, ac.NewSymbolModel(replay)); err != nil {
		return rans.Stats{}, err
	}
	st.DecodeDuration = time.Since(start)
	if !blk.Equal(dst) {
		return rans.Stats{}, errors.Errorf("decoded block differs: digest %x, want %x", report.Digest(dst), report.Digest(blk))
	}
	return st, nil
}

func run(config Config) error {
	runID := uuid.New()
	fmt.Printf("run %s\n", runID)

	for _, name := range config.Files {
		var reports []report.Report
		var size int
		for _, width := range config.Widths {
			blk, err := load(name, width)
			if err != nil {
				return err
			}
			size = blk.Len()

			exact, err := model.NewExactFrequencyTable(blk)
			if err != nil {
				return errors.Wrap(err, name)
			}
			reports = append(reports, report.Report{
				Name: name, Width: width, Model: model.Exact.String(), DecodedBytes: blk.Len(),
				Stats: rans.Stats{SymbolCount: exact.SymbolCount(), BitsPerSymbolTheory: exact.BitsPerSymbolTheory()},
			})

			for _, kind := range config.Models {
				var st rans.Stats
				switch kind {
				case model.Adaptive:
					st, err = adapt(config, name, blk)
				case model.Exact:
					continue
				default:
					st, err = code(config, kind, blk)
				}
				if err != nil {
					return errors.Wrapf(err, "%s %d-bit %v", name, width, kind)
				}
				reports = append(reports, report.Report{Name: name, Width: width, Model: kind.String(), DecodedBytes: blk.Len(), Stats: st})
			}
			log.Printf("%s: %d-bit symbols done, digest %x", name, width, report.Digest(blk))
		}

		if err := report.Fprint(os.Stdout, reports); err != nil {
			return errors.Wrap(err, "")
		}
		src, err := os.ReadFile(name)
		if err != nil {
			return errors.Wrap(err, "")
		}
		if err := report.FprintBaselines(os.Stdout, size, report.Baselines(src)); err != nil {
			return errors.Wrap(err, "")
		}
		fmt.Println()
	}
	return nil
}

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	config, err := parseConfig()
	if err != nil {
		log.Fatalf("%+v", err)
	}
	if err := run(config); err != nil {
		log.Fatalf("%+v", err)
	}
}
