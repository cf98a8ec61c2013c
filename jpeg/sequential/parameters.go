package sequential

import (
	"github.com/cocosip/go-jpeg12/jpeg/common"
	"github.com/cocosip/go-jpeg12/jpeg/frame"
)

// Options controls sequential encoding.
type Options struct {
	// RestartInterval inserts a restart marker every N MCUs; 0 disables.
	RestartInterval int

	// RestartInRows expresses the restart interval in MCU rows instead.
	// Takes precedence over RestartInterval when nonzero.
	RestartInRows int

	// Optimize generates image-optimal Huffman tables in a statistics
	// pass. Strongly recommended above 8-bit precision: the default
	// table constants do not cover the larger magnitude categories.
	Optimize bool

	// Scans supplies a custom scan script. Nil encodes one fully
	// interleaved scan.
	Scans []frame.ScanInfo

	// QuantTables are written as DQT segments, indexed by table id; nil
	// entries are skipped. The encoder codes the coefficients exactly as
	// given and does not apply these tables.
	QuantTables []*common.QuantTable
}

// Component holds one component's coefficient blocks in row-major
// block order.
type Component struct {
	H, V     int
	QuantIdx int

	WidthInBlocks  int
	HeightInBlocks int
	Blocks         []common.Block
}

// Image is a frame of quantized DCT coefficients: the input of Encode
// and the output of Decode. Forward and inverse DCT belong to the
// caller.
type Image struct {
	Width      int
	Height     int
	Precision  int
	Components []Component
}
