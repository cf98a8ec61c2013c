// Package entropy implements the Huffman entropy codecs of the three
// coding processes: sequential DCT, progressive DCT (spectral selection
// and successive approximation) and lossless prediction. Encoders run
// in either statistics-gathering or emission mode so a master pass
// controller can drive Huffman optimization; decoders are resumable at
// MCU granularity.
package entropy

import "github.com/cocosip/go-jpeg12/jpeg/common"

const (
	// maxCoefBits is the widest magnitude category of an AC coefficient
	// for 12-bit data. DC differences may use one bit more.
	maxCoefBits = 14

	// maxDiffBits is the widest magnitude category of a lossless sample
	// difference (mod 2^16 arithmetic).
	maxDiffBits = 16

	// maxCorrBits bounds the correction bits buffered between forced
	// end-of-band flushes in AC refinement scans.
	maxCorrBits = 1000

	// maxEOBRun is the longest representable end-of-band run.
	maxEOBRun = 0x7FFF
)

// deriveEncode derives an encoding table from a table slot, reporting a
// missing slot distinctly from a corrupt one.
func deriveEncode(tbl *common.HuffmanTable, maxSymbol int) (*common.DerivedEncodeTable, error) {
	if tbl == nil {
		return nil, common.ErrNoHuffmanTable
	}
	return tbl.DeriveEncode(maxSymbol)
}

// deriveDecode is the decoding-side counterpart of deriveEncode.
func deriveDecode(tbl *common.HuffmanTable, maxSymbol int) (*common.DerivedDecodeTable, error) {
	if tbl == nil {
		return nil, common.ErrNoHuffmanTable
	}
	return tbl.DeriveDecode(maxSymbol)
}
