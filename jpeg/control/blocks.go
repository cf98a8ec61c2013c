// Package control provides the buffer controllers that sit between the
// per-process codecs and the entropy layer: whole-image coefficient and
// sample buffers padded out to MCU boundaries, scan walkers that feed
// MCUs to an entropy codec, block smoothing for partially decoded
// progressive images, and the compression pass scheduler.
package control

import (
	"github.com/cocosip/go-jpeg12/jpeg/common"
	"github.com/cocosip/go-jpeg12/jpeg/frame"
)

// BlockBuffer holds every DCT coefficient block of an image, one padded
// grid per component. The padding extends each component to whole MCUs
// of the fully interleaved layout so scan walkers never index off the
// edge.
type BlockBuffer struct {
	fi    *frame.FrameInfo
	comps [][][]common.Block // [component][blockRow][blockCol]
}

// NewBlockBuffer allocates a zeroed buffer for the frame. Setup must
// have run on fi.
func NewBlockBuffer(fi *frame.FrameInfo) *BlockBuffer {
	b := &BlockBuffer{fi: fi}
	mcuCols := divRoundUp(fi.Width, fi.MaxH*fi.DataUnit)
	b.comps = make([][][]common.Block, len(fi.Components))
	for i, c := range fi.Components {
		w := mcuCols * c.H
		h := fi.TotaliMCURows * c.V
		rows := make([][]common.Block, h)
		for r := range rows {
			rows[r] = make([]common.Block, w)
		}
		b.comps[i] = rows
	}
	return b
}

// Block returns the addressable block at the given component grid
// position.
func (b *BlockBuffer) Block(ci, row, col int) *common.Block {
	return &b.comps[ci][row][col]
}

// Rows returns the component's full padded block grid.
func (b *BlockBuffer) Rows(ci int) [][]common.Block {
	return b.comps[ci]
}

// PadEdges fills the dummy blocks beyond each component's real extent
// with data that entropy-codes to almost nothing: zero AC, DC copied
// from the nearest real block.
func (b *BlockBuffer) PadEdges() {
	for i, c := range b.fi.Components {
		rows := b.comps[i]
		realW, realH := c.WidthInUnits, c.HeightInUnits
		for r := 0; r < realH; r++ {
			for col := realW; col < len(rows[r]); col++ {
				rows[r][col] = common.Block{}
				rows[r][col][0] = rows[r][col-1][0]
			}
		}
		for r := realH; r < len(rows); r++ {
			for col := range rows[r] {
				rows[r][col] = common.Block{}
				rows[r][col][0] = rows[r-1][col][0]
			}
		}
	}
}

// assembleMCU gathers pointers to the blocks of one MCU of the current
// scan, in MCU membership order.
func assembleMCU(fi *frame.FrameInfo, buf *BlockBuffer, mcuRow, mcuCol int, mcu []*common.Block) {
	blkn := 0
	for ci := 0; ci < fi.CompsInScan; ci++ {
		c := fi.CurComps[ci]
		for y := 0; y < c.MCUHeight; y++ {
			row := mcuRow*c.MCUHeight + y
			for x := 0; x < c.MCUWidth; x++ {
				mcu[blkn] = buf.Block(c.Index, row, mcuCol*c.MCUWidth+x)
				blkn++
			}
		}
	}
}

func divRoundUp(a, b int) int {
	return (a + b - 1) / b
}
