// Package rw provides the low-level building blocks shared by the RenderWare
// binary formats: the 12-byte chunk envelope, library version ids and a
// little-endian cursor for fixed-width records.
package rw

import "errors"

// Decoding errors.
var (
	ErrTruncatedInput      = errors.New("truncated input")
	ErrUnexpectedChunkType = errors.New("unexpected chunk type")
	ErrInvalidVersion      = errors.New("invalid library version id")
)
