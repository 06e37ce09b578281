package report

import (
	"github.com/dchest/siphash"

	"github.com/xann16/simple-rans/buffer"
)

// Digest fingerprints the data of blk, so that blocks can be compared after they are gone.
func Digest(blk *buffer.SymbolBlock) uint64 {
	return siphash.Hash(0, uint64(blk.Width()), blk.Bytes())
}
