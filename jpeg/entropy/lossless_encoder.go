package entropy

import (
	"github.com/cocosip/go-jpeg12/jpeg/bitio"
	"github.com/cocosip/go-jpeg12/jpeg/common"
	"github.com/cocosip/go-jpeg12/jpeg/frame"
)

// sampleRef locates one MCU sample inside a per-component difference
// row window: component index, row offset and column offset within the
// MCU, and the MCU's width in samples for that component.
type sampleRef struct {
	ci    int
	yoff  int
	xoff  int
	width int
}

// losslessSampleMap flattens the current scan's MCU layout into the
// order samples are entropy-coded: component by component, row-major
// within each component's share of the MCU.
func losslessSampleMap(fi *frame.FrameInfo) []sampleRef {
	refs := make([]sampleRef, 0, fi.BlocksInMCU)
	for ci := 0; ci < fi.CompsInScan; ci++ {
		c := fi.CurComps[ci]
		for y := 0; y < c.MCUHeight; y++ {
			for x := 0; x < c.MCUWidth; x++ {
				refs = append(refs, sampleRef{ci: ci, yoff: y, xoff: x, width: c.MCUWidth})
			}
		}
	}
	return refs
}

// LosslessEncoder codes prediction differences per section H.1.2.2.
// Differences arrive reduced modulo 2^16: the low 16 bits of each value
// hold the two's-complement difference, so a magnitude of exactly 32768
// is representable and coded as category 16 with no appended bits.
type LosslessEncoder struct {
	fi *frame.FrameInfo
	w  *bitio.Writer

	gather  bool
	samples []sampleRef

	derived [common.NumHuffTables]*common.DerivedEncodeTable
	counts  [common.NumHuffTables]*common.FreqCounts

	restartsToGo int
	nextRestart  int
}

// NewLosslessEncoder creates an encoder for the frame's current scan,
// emitting into w.
func NewLosslessEncoder(fi *frame.FrameInfo, w *bitio.Writer) *LosslessEncoder {
	return &LosslessEncoder{fi: fi, w: w}
}

// StartPass prepares one pass over the scan. Difference categories use
// the DC table slots, extended to symbol 16.
func (e *LosslessEncoder) StartPass(gather bool) error {
	e.gather = gather
	e.samples = losslessSampleMap(e.fi)
	for ci := 0; ci < e.fi.CompsInScan; ci++ {
		c := e.fi.CurComps[ci]
		if gather {
			if e.counts[c.DCTable] == nil {
				e.counts[c.DCTable] = &common.FreqCounts{}
			} else {
				*e.counts[c.DCTable] = common.FreqCounts{}
			}
		} else {
			var err error
			e.derived[c.DCTable], err = deriveEncode(e.fi.DCTables[c.DCTable], 16)
			if err != nil {
				return err
			}
		}
	}
	e.restartsToGo = e.fi.RestartInterval
	e.nextRestart = 0
	return nil
}

// EncodeMCUs codes nMCU consecutive MCUs starting at mcuCol from the
// per-component difference row windows diffs[ci][yoff][col]. It returns
// the number of MCUs completed (always nMCU unless an error occurs).
func (e *LosslessEncoder) EncodeMCUs(diffs [][][]int32, mcuCol, nMCU int) (int, error) {
	for m := 0; m < nMCU; m++ {
		if e.fi.RestartInterval != 0 && e.restartsToGo == 0 && !e.gather {
			if err := e.w.EmitRestartMarker(e.nextRestart); err != nil {
				return m, err
			}
		}

		col := mcuCol + m
		for _, ref := range e.samples {
			c := e.fi.CurComps[ref.ci]
			v := diffs[ref.ci][ref.yoff][col*ref.width+ref.xoff]

			temp := int(v) & 0xFFFF
			var mag, temp2 int
			if temp&0x8000 != 0 {
				mag = (-temp) & 0x7FFF
				if mag == 0 { // magnitude is exactly 32768
					mag = 0x8000
				}
				temp2 = ^mag
			} else {
				mag = temp
				temp2 = temp
			}

			nbits := 0
			for t := mag; t != 0; t >>= 1 {
				nbits++
			}
			if nbits > maxDiffBits {
				return m, ErrBadDiffValue
			}

			if e.gather {
				e.counts[c.DCTable][nbits]++
				continue
			}
			d := e.derived[c.DCTable]
			if err := e.w.EmitBits(d.Code[nbits], d.Size[nbits]); err != nil {
				return m, err
			}
			// Category 16 appends no bits: the magnitude is implied.
			if nbits != 0 && nbits != 16 {
				if err := e.w.EmitBits(uint32(temp2), nbits); err != nil {
					return m, err
				}
			}
		}

		if e.fi.RestartInterval != 0 {
			if e.restartsToGo == 0 {
				e.restartsToGo = e.fi.RestartInterval
				e.nextRestart = (e.nextRestart + 1) & 7
			}
			e.restartsToGo--
		}
	}
	return nMCU, nil
}

// FinishPass flushes the bit buffer, or in gather mode builds optimal
// tables into the scan's DC table slots.
func (e *LosslessEncoder) FinishPass() error {
	if !e.gather {
		return e.w.FlushBits()
	}
	var did [common.NumHuffTables]bool
	for ci := 0; ci < e.fi.CompsInScan; ci++ {
		c := e.fi.CurComps[ci]
		if did[c.DCTable] {
			continue
		}
		tbl, err := e.counts[c.DCTable].Optimal()
		if err != nil {
			return err
		}
		e.fi.DCTables[c.DCTable] = tbl
		did[c.DCTable] = true
	}
	return nil
}
