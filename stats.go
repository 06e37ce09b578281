package rans

import "time"

// Stats are the measurements of one encoded block.
type Stats struct {
	SymbolCount int

	// HeaderBits is the length of the model header.
	HeaderBits int

	// RawEncodedBits is the length of the coded words, without the header.
	RawEncodedBits int

	// EncodedBits is RawEncodedBits plus HeaderBits.
	EncodedBits int

	// BitsPerSymbolTheory is the entropy of the block's symbol counts.
	BitsPerSymbolTheory float64

	EncodeDuration time.Duration
	DecodeDuration time.Duration
}
