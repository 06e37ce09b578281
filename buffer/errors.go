// Package buffer provides the fixed-capacity containers the rANS coder works on:
// a BitStream of 16-bit words and a SymbolBlock of fixed-width symbols.
//
// Both containers own their storage exclusively and are meant to be used by a single
// goroutine at a time. Every cursor movement is bounds checked; a write past the
// capacity fails with ErrCapacityExceeded and a read past the written data fails with
// ErrTruncatedStream.
package buffer

import (
	"github.com/pkg/errors"
)

var (
	// ErrCapacityExceeded is returned when a write would not fit in the fixed capacity of a container.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrTruncatedStream is returned when a read would cross the end of the written data or the start of the buffer.
	ErrTruncatedStream = errors.New("truncated stream")

	// ErrFileUnavailable is returned when a block cannot be loaded from its source file.
	ErrFileUnavailable = errors.New("file unavailable")

	// ErrInvalidWidth is returned for symbol widths other than 1, 2, 4 and 8 bits.
	ErrInvalidWidth = errors.New("invalid symbol width")
)
