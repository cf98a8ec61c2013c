// Package frame holds the descriptors shared by every stage of the
// codec: image and component geometry, scan parameters, Huffman and
// quantization table slots, and the per-scan MCU layout computations.
package frame

import "github.com/cocosip/go-jpeg12/jpeg/common"

// Process identifies the coding process of a frame.
type Process int

const (
	Sequential Process = iota
	Progressive
	Lossless
)

// String returns the conventional name of the process.
func (p Process) String() string {
	switch p {
	case Sequential:
		return "sequential"
	case Progressive:
		return "progressive"
	case Lossless:
		return "lossless"
	}
	return "unknown"
}

// Component describes one image component. The geometry fields are filled
// by Setup; the MCU fields are refreshed by PerScanSetup for each scan.
type Component struct {
	Index int // position in FrameInfo.Components
	ID    int // identifier written in SOF/SOS

	H, V int // sampling factors, [1,4]

	QuantIdx int // quantization table selector
	DCTable  int // DC (or lossless difference) table selector
	ACTable  int // AC table selector

	WidthInUnits  int // component width in data units
	HeightInUnits int // component height in data units

	DownsampledWidth  int
	DownsampledHeight int

	// Per-scan MCU layout.
	MCUWidth       int
	MCUHeight      int
	MCUDataUnits   int
	MCUSampleWidth int
	LastColWidth   int // non-dummy data units in the rightmost MCU column
	LastRowHeight  int // non-dummy data unit rows in the bottom iMCU row
}

// FrameInfo carries the whole-image state plus the parameters of the scan
// currently being coded. One FrameInfo drives exactly one image.
type FrameInfo struct {
	Width     int
	Height    int
	Precision int
	Process   Process

	// DataUnit is the sample span of one data unit: 1 for lossless,
	// DCTSize otherwise. Set by Setup.
	DataUnit int

	Components []*Component

	MaxH, MaxV    int
	TotaliMCURows int

	RestartInterval int // in MCUs; 0 disables restarts
	RestartInRows   int // restart interval specified in MCU rows

	// Table slots.
	DCTables    [common.NumHuffTables]*common.HuffmanTable
	ACTables    [common.NumHuffTables]*common.HuffmanTable
	QuantTables [common.NumQuantTables]*common.QuantTable

	// Current scan parameters, established by SelectScan/PerScanSetup.
	CompsInScan   int
	CurComps      [common.MaxCompsInScan]*Component
	Ss, Se        int
	Ah, Al        int
	MCUsPerRow    int
	MCURowsInScan int
	BlocksInMCU   int
	MCUMembership [common.MaxBlocksInMCU]int
}

// Setup validates frame parameters and computes the derived geometry.
// It must run before any scan selection.
func (f *FrameInfo) Setup() error {
	if f.Width <= 0 || f.Height <= 0 || len(f.Components) == 0 {
		return ErrEmptyImage
	}
	if f.Width > common.MaxDimension || f.Height > common.MaxDimension {
		return ErrImageTooBig
	}
	if f.Precision < 2 || f.Precision > 16 {
		return ErrBadPrecision
	}
	if len(f.Components) > common.MaxComponents {
		return ErrComponentCount
	}

	if f.Process == Lossless {
		f.DataUnit = 1
	} else {
		f.DataUnit = common.DCTSize
	}

	f.MaxH, f.MaxV = 1, 1
	for _, c := range f.Components {
		if c.H < 1 || c.H > common.MaxSampFactor || c.V < 1 || c.V > common.MaxSampFactor {
			return ErrBadSampling
		}
		f.MaxH = max(f.MaxH, c.H)
		f.MaxV = max(f.MaxV, c.V)
	}

	for i, c := range f.Components {
		c.Index = i
		c.WidthInUnits = divRoundUp(f.Width*c.H, f.MaxH*f.DataUnit)
		c.HeightInUnits = divRoundUp(f.Height*c.V, f.MaxV*f.DataUnit)
		c.DownsampledWidth = divRoundUp(f.Width*c.H, f.MaxH)
		c.DownsampledHeight = divRoundUp(f.Height*c.V, f.MaxV)
	}

	f.TotaliMCURows = divRoundUp(f.Height, f.MaxV*f.DataUnit)
	return nil
}

// divRoundUp computes ceil(a/b) for positive b.
func divRoundUp(a, b int) int {
	return (a + b - 1) / b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
