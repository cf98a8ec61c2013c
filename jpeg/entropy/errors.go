package entropy

import "errors"

var (
	ErrBadCoefValue = errors.New("DCT coefficient out of range")
	ErrBadDiffValue = errors.New("sample difference out of range")
	ErrBadSymbol    = errors.New("corrupt entropy data: bad Huffman symbol")
)
