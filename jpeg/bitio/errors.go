package bitio

import "errors"

var (
	// ErrMissingCode reports an attempt to emit a symbol that has no
	// assigned Huffman code. It indicates a corrupt or mismatched table.
	ErrMissingCode = errors.New("missing Huffman code for symbol")

	// ErrBadBitCount reports an EmitBits/GetBits size outside [0,16].
	ErrBadBitCount = errors.New("bit count out of range")

	// ErrBadRestartMarker reports that the bytes at a restart position
	// were not the expected RSTn marker.
	ErrBadRestartMarker = errors.New("unexpected or out-of-sequence restart marker")
)
