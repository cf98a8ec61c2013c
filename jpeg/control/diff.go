package control

import "github.com/cocosip/go-jpeg12/jpeg/frame"

// MCUsEncoder is the count-based encode contract of the lossless
// entropy layer: code nMCU MCUs from the difference row windows.
type MCUsEncoder interface {
	EncodeMCUs(diffs [][][]int32, mcuCol, nMCU int) (int, error)
}

// MCUsDecoder is the decode-side counterpart; it reports how many of
// the requested MCUs were completed before the source suspended.
type MCUsDecoder interface {
	DecodeMCUs(diffs [][][]int32, mcuCol, nMCU int) (int, error)
}

// Differencer converts one sample row into prediction differences.
// Implementations carry the causal prediction state; Reset returns them
// to the start-of-scan state, which restart boundaries require.
type Differencer interface {
	DiffRow(ci int, row int, diffs []int32)
	Reset()
}

// Undifferencer is the inverse: it reconstructs one sample row from its
// differences.
type Undifferencer interface {
	UndiffRow(ci int, row int, diffs []int32)
	Reset()
}

// restartRows converts the scan's restart interval to MCU rows. The
// lossless row pipeline requires the interval to be row-aligned.
func restartRows(fi *frame.FrameInfo) (int, error) {
	if fi.RestartInterval == 0 {
		return 0, nil
	}
	if fi.RestartInterval%fi.MCUsPerRow != 0 {
		return 0, ErrBadRestartInterval
	}
	return fi.RestartInterval / fi.MCUsPerRow, nil
}

// DiffEncodeController runs the compression side of the lossless row
// pipeline: difference each component's sample rows of one MCU row,
// hand them to the entropy encoder, and reset predictions at restart
// boundaries.
type DiffEncodeController struct {
	fi    *frame.FrameInfo
	diffs [][][]int32

	restartRows int
	rowsToGo    int
}

// NewDiffEncodeController creates a controller for the current scan.
func NewDiffEncodeController(fi *frame.FrameInfo) (*DiffEncodeController, error) {
	rr, err := restartRows(fi)
	if err != nil {
		return nil, err
	}
	c := &DiffEncodeController{fi: fi, restartRows: rr, rowsToGo: rr}
	c.diffs = make([][][]int32, fi.CompsInScan)
	for ci := 0; ci < fi.CompsInScan; ci++ {
		comp := fi.CurComps[ci]
		c.diffs[ci] = make([][]int32, comp.MCUHeight)
		for y := range c.diffs[ci] {
			c.diffs[ci][y] = make([]int32, fi.MCUsPerRow*comp.MCUWidth)
		}
	}
	return c, nil
}

// EncodeScan differences and entropy-codes every MCU row of the scan.
func (c *DiffEncodeController) EncodeScan(differ Differencer, enc MCUsEncoder) error {
	for mcuRow := 0; mcuRow < c.fi.MCURowsInScan; mcuRow++ {
		if c.restartRows != 0 && c.rowsToGo == 0 {
			// The entropy layer emits the marker by MCU count; the
			// prediction state resets here in lockstep.
			differ.Reset()
			c.rowsToGo = c.restartRows
		}

		for ci := 0; ci < c.fi.CompsInScan; ci++ {
			comp := c.fi.CurComps[ci]
			for y := 0; y < comp.MCUHeight; y++ {
				differ.DiffRow(ci, mcuRow*comp.MCUHeight+y, c.diffs[ci][y])
			}
		}
		if _, err := enc.EncodeMCUs(c.diffs, 0, c.fi.MCUsPerRow); err != nil {
			return err
		}

		if c.restartRows != 0 {
			c.rowsToGo--
		}
	}
	return nil
}

// DiffDecodeController is the decompression side: entropy-decode one
// MCU row of differences, then undifference it into sample rows.
type DiffDecodeController struct {
	fi    *frame.FrameInfo
	diffs [][][]int32

	restartRows int
	rowsToGo    int
}

// NewDiffDecodeController creates a controller for the current scan.
func NewDiffDecodeController(fi *frame.FrameInfo) (*DiffDecodeController, error) {
	rr, err := restartRows(fi)
	if err != nil {
		return nil, err
	}
	c := &DiffDecodeController{fi: fi, restartRows: rr, rowsToGo: rr}
	c.diffs = make([][][]int32, fi.CompsInScan)
	for ci := 0; ci < fi.CompsInScan; ci++ {
		comp := fi.CurComps[ci]
		c.diffs[ci] = make([][]int32, comp.MCUHeight)
		for y := range c.diffs[ci] {
			c.diffs[ci][y] = make([]int32, fi.MCUsPerRow*comp.MCUWidth)
		}
	}
	return c, nil
}

// DecodeScan decodes every MCU row of the scan. A suspension inside an
// MCU row is treated as truncated data: the row pipeline keeps no
// partial-row resume state, matching the all-in-memory sources the
// public codecs use.
func (c *DiffDecodeController) DecodeScan(dec MCUsDecoder, undiffer Undifferencer) error {
	for mcuRow := 0; mcuRow < c.fi.MCURowsInScan; mcuRow++ {
		if c.restartRows != 0 && c.rowsToGo == 0 {
			undiffer.Reset()
			c.rowsToGo = c.restartRows
		}

		done := 0
		for done < c.fi.MCUsPerRow {
			n, err := dec.DecodeMCUs(c.diffs, done, c.fi.MCUsPerRow-done)
			if err != nil {
				return err
			}
			if n == 0 {
				return ErrTruncatedScan
			}
			done += n
		}

		for ci := 0; ci < c.fi.CompsInScan; ci++ {
			comp := c.fi.CurComps[ci]
			for y := 0; y < comp.MCUHeight; y++ {
				undiffer.UndiffRow(ci, mcuRow*comp.MCUHeight+y, c.diffs[ci][y])
			}
		}

		if c.restartRows != 0 {
			c.rowsToGo--
		}
	}
	return nil
}
