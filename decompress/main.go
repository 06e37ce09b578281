package main

import (
	"bufio"
	"flag"
	"log"
	"os"

	"github.com/pkg/errors"

	rans "github.com/xann16/simple-rans"
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	w := bufio.NewWriter(os.Stdout)
	if err := rans.Decompress(w, bufio.NewReader(os.Stdin)); err != nil {
		log.Fatalf("%+v", err)
	}
	if err := w.Flush(); err != nil {
		log.Fatalf("%+v", errors.Wrap(err, ""))
	}
}
