package common

// Sizes fixed by the JPEG standard.
const (
	DCTSize  = 8  // data unit is 8x8 samples in DCT-based modes
	DCTSize2 = 64 // coefficients per block

	NumHuffTables  = 4 // Huffman table slots per class
	NumQuantTables = 4 // quantization table slots

	MaxComponents  = 10 // components per frame
	MaxCompsInScan = 4  // components per interleaved scan
	MaxSampFactor  = 4  // sampling factor range is [1,4]
	MaxBlocksInMCU = 10 // data units per MCU

	// MaxDimension bounds width and height. Kept slightly under 2^16 so
	// dimension arithmetic in data units cannot overflow 16-bit fields.
	MaxDimension = 65500
)

// Block is one data unit of DCT coefficients in natural (row-major) order.
type Block [DCTSize2]int32

// NaturalOrder maps a zigzag index to the natural (row-major) coefficient
// position. NaturalOrder[0] is the DC coefficient.
var NaturalOrder = [DCTSize2]int{
	0, 1, 8, 16, 9, 2, 3, 10,
	17, 24, 32, 25, 18, 11, 4, 5,
	12, 19, 26, 33, 40, 48, 41, 34,
	27, 20, 13, 6, 7, 14, 21, 28,
	35, 42, 49, 56, 57, 50, 43, 36,
	29, 22, 15, 23, 30, 37, 44, 51,
	58, 59, 52, 45, 38, 31, 39, 46,
	53, 60, 61, 54, 47, 55, 62, 63,
}

// QuantTable holds one quantization table in natural order.
type QuantTable [DCTSize2]uint16
