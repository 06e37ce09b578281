package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"

	rans "github.com/xann16/simple-rans"
)

var (
	width      = flag.Uint("width", 8, "symbol width in bits: 1, 2, 4 or 8")
	flagConfig = flag.String("c", `{"precision": 12, "model": "alias"}`, "configuration")
)

func parseConfig() (rans.Config, error) {
	config := rans.DefaultConfig()
	if err := yaml.Unmarshal([]byte(*flagConfig), &config); err != nil {
		return rans.Config{}, errors.Wrap(err, "")
	}
	if err := config.Validate(*width); err != nil {
		return rans.Config{}, err
	}
	configB, err := yaml.Marshal(config)
	if err != nil {
		return rans.Config{}, errors.Wrap(err, "")
	}
	if config.Verbose {
		log.Printf("config: %s", configB)
	}
	return config, nil
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] filename\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	name := flag.Arg(0)
	if name == "" {
		flag.Usage()
		os.Exit(1)
	}

	config, err := parseConfig()
	if err != nil {
		log.Fatalf("%+v", err)
	}
	if _, err := rans.Compress(os.Stdout, name, *width, config); err != nil {
		log.Fatalf("%+v", err)
	}
}
