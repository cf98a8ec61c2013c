package control

import (
	"github.com/cocosip/go-jpeg12/jpeg/common"
	"github.com/cocosip/go-jpeg12/jpeg/frame"
)

// MCUEncoder is the encode-side entropy contract the coefficient
// controller drives.
type MCUEncoder interface {
	EncodeMCU(blocks []*common.Block) error
}

// MCUDecoder is the decode-side contract. ok=false reports suspension;
// the same MCU is retried when more data is available.
type MCUDecoder interface {
	DecodeMCU(blocks []*common.Block) (bool, error)
}

// EncodeCoefController walks the current scan of a coefficient buffer
// and feeds each MCU to an entropy encoder. The buffer must have been
// edge-padded first.
type EncodeCoefController struct {
	fi  *frame.FrameInfo
	buf *BlockBuffer
}

// NewEncodeCoefController creates a controller over buf.
func NewEncodeCoefController(fi *frame.FrameInfo, buf *BlockBuffer) *EncodeCoefController {
	return &EncodeCoefController{fi: fi, buf: buf}
}

// EncodeScan runs one full pass over the current scan. It serves both
// statistics and output passes; the encoder's mode decides which.
func (c *EncodeCoefController) EncodeScan(enc MCUEncoder) error {
	var mcu [common.MaxBlocksInMCU]*common.Block
	for row := 0; row < c.fi.MCURowsInScan; row++ {
		for col := 0; col < c.fi.MCUsPerRow; col++ {
			assembleMCU(c.fi, c.buf, row, col, mcu[:])
			if err := enc.EncodeMCU(mcu[:c.fi.BlocksInMCU]); err != nil {
				return err
			}
		}
	}
	return nil
}

// DecodeCoefController assembles decoded MCUs into a coefficient
// buffer. It keeps its position across suspensions so a scan can be
// consumed incrementally.
type DecodeCoefController struct {
	fi  *frame.FrameInfo
	buf *BlockBuffer

	row, col int
}

// NewDecodeCoefController creates a controller filling buf.
func NewDecodeCoefController(fi *frame.FrameInfo, buf *BlockBuffer) *DecodeCoefController {
	return &DecodeCoefController{fi: fi, buf: buf}
}

// StartScan resets the walk for a new scan.
func (c *DecodeCoefController) StartScan() {
	c.row, c.col = 0, 0
}

// DecodeScan consumes MCUs until the scan completes or the decoder
// suspends (ok=false). Sequential scans get their blocks re-zeroed
// before every attempt, as the entropy decoder requires; progressive
// scans refine the block contents accumulated by earlier scans.
func (c *DecodeCoefController) DecodeScan(dec MCUDecoder) (bool, error) {
	var mcu [common.MaxBlocksInMCU]*common.Block
	zero := c.fi.Process == frame.Sequential
	for ; c.row < c.fi.MCURowsInScan; c.row++ {
		for ; c.col < c.fi.MCUsPerRow; c.col++ {
			assembleMCU(c.fi, c.buf, c.row, c.col, mcu[:])
			if zero {
				for i := 0; i < c.fi.BlocksInMCU; i++ {
					*mcu[i] = common.Block{}
				}
			}
			ok, err := dec.DecodeMCU(mcu[:c.fi.BlocksInMCU])
			if err != nil {
				return true, err
			}
			if !ok {
				return false, nil
			}
		}
		c.col = 0
	}
	return true, nil
}
