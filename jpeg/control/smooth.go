package control

import (
	"github.com/cocosip/go-jpeg12/jpeg/common"
	"github.com/cocosip/go-jpeg12/jpeg/frame"
)

// savedCoefs is how many low-order coefficients the smoother estimates:
// the DC term plus the five lowest AC terms.
const savedCoefs = 6

// Natural-order positions of the five estimated AC coefficients.
var smoothPos = [savedCoefs]int{0, 1, 8, 16, 9, 2}

// Smoother applies the K.8 closed-form estimates to the low-order AC
// coefficients of a partially decoded progressive image: a still-zero
// coefficient whose scans have not fully arrived is predicted from the
// 3x3 neighborhood of DC values. The source buffer is never modified;
// estimates go into the caller's output block.
type Smoother struct {
	fi  *frame.FrameInfo
	buf *BlockBuffer

	// latch[ci][k] is the Al at which coefficient k was last coded,
	// captured when the smoother is built so later scans cannot shift
	// the estimates mid-pass.
	latch [][savedCoefs]int
}

// NewSmoother builds a smoother if smoothing is applicable and useful:
// progressive process, every component's quantization table present
// with nonzero low-order entries, DC at least partly known, and some
// estimated AC coefficient still inaccurate. coefBits[ci][k] is the Al
// of coefficient k's most recent scan, or -1 if never coded.
func NewSmoother(fi *frame.FrameInfo, buf *BlockBuffer, coefBits [][common.DCTSize2]int) (*Smoother, bool) {
	if fi.Process != frame.Progressive || coefBits == nil {
		return nil, false
	}

	s := &Smoother{fi: fi, buf: buf, latch: make([][savedCoefs]int, len(fi.Components))}
	useful := false
	for ci, c := range fi.Components {
		q := fi.QuantTables[c.QuantIdx]
		if q == nil {
			return nil, false
		}
		for _, pos := range smoothPos {
			if q[pos] == 0 {
				return nil, false
			}
		}
		if coefBits[ci][0] < 0 {
			return nil, false
		}
		for k := 1; k < savedCoefs; k++ {
			s.latch[ci][k] = coefBits[ci][k]
			if coefBits[ci][k] != 0 {
				useful = true
			}
		}
	}
	if !useful {
		return nil, false
	}
	return s, true
}

// Smooth copies the block at (ci,row,col) into dst with K.8 estimates
// filled into the still-zero low-order AC coefficients.
func (s *Smoother) Smooth(ci, row, col int, dst *common.Block) {
	c := s.fi.Components[ci]
	rows := s.buf.Rows(ci)
	lastRow := c.HeightInUnits - 1
	lastCol := c.WidthInUnits - 1

	*dst = rows[row][col]

	dcAt := func(r, cl int) int32 {
		if r < 0 {
			r = 0
		} else if r > lastRow {
			r = lastRow
		}
		if cl < 0 {
			cl = 0
		} else if cl > lastCol {
			cl = lastCol
		}
		return rows[r][cl][0]
	}

	dc1, dc2, dc3 := dcAt(row-1, col-1), dcAt(row-1, col), dcAt(row-1, col+1)
	dc4, dc5, dc6 := dcAt(row, col-1), dcAt(row, col), dcAt(row, col+1)
	dc7, dc8, dc9 := dcAt(row+1, col-1), dcAt(row+1, col), dcAt(row+1, col+1)

	q := s.fi.QuantTables[c.QuantIdx]
	q00 := int64(q[0])
	latch := &s.latch[ci]

	estimate := func(k int, qk int64, num int64) {
		al := latch[k]
		pos := smoothPos[k]
		if al == 0 || dst[pos] != 0 {
			return
		}
		var pred int64
		if num >= 0 {
			pred = ((qk << 7) + num) / (qk << 8)
			if al > 0 && pred >= 1<<uint(al) {
				pred = 1<<uint(al) - 1
			}
		} else {
			pred = ((qk << 7) - num) / (qk << 8)
			if al > 0 && pred >= 1<<uint(al) {
				pred = 1<<uint(al) - 1
			}
			pred = -pred
		}
		dst[pos] = int32(pred)
	}

	estimate(1, int64(q[1]), 36*q00*int64(dc4-dc6))       // AC01
	estimate(2, int64(q[8]), 36*q00*int64(dc2-dc8))       // AC10
	estimate(3, int64(q[16]), 9*q00*int64(dc2+dc8-2*dc5)) // AC20
	estimate(4, int64(q[9]), 5*q00*int64(dc1-dc3-dc7+dc9)) // AC11
	estimate(5, int64(q[2]), 9*q00*int64(dc4+dc6-2*dc5))  // AC02
}
