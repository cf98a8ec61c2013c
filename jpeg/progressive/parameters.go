package progressive

import (
	"github.com/cocosip/go-jpeg12/jpeg/common"
	"github.com/cocosip/go-jpeg12/jpeg/frame"
)

// Options controls progressive encoding. Huffman optimization is not a
// choice here: progressive scans always get image-optimal tables.
type Options struct {
	// RestartInterval inserts a restart marker every N MCUs; 0 disables.
	RestartInterval int

	// RestartInRows expresses the restart interval in MCU rows instead.
	// Takes precedence over RestartInterval when nonzero.
	RestartInRows int

	// Scans supplies a custom scan script. Nil uses DefaultScript.
	Scans []frame.ScanInfo

	// QuantTables are written as DQT segments, indexed by table id; nil
	// entries are skipped. Decoders need them for block smoothing.
	QuantTables []*common.QuantTable
}

// DecodeOptions controls progressive decoding.
type DecodeOptions struct {
	// DisableSmoothing turns off the low-order AC estimation that is
	// otherwise applied when the stream left coefficients partially
	// refined.
	DisableSmoothing bool
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

	// Smoothed reports that Decode estimated low-order AC coefficients
	// of a partially refined stream.
	Smoothed bool
}
