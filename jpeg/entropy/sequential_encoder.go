package entropy

import (
	"github.com/cocosip/go-jpeg12/jpeg/bitio"
	"github.com/cocosip/go-jpeg12/jpeg/common"
	"github.com/cocosip/go-jpeg12/jpeg/frame"
)

// SequentialEncoder codes whole coefficient blocks in a single scan,
// section F.1.2 of the standard. In gather mode it only accumulates
// symbol frequencies so FinishPass can build optimal tables.
type SequentialEncoder struct {
	fi *frame.FrameInfo
	w  *bitio.Writer

	gather bool
	lastDC [common.MaxCompsInScan]int32

	dcDerived [common.NumHuffTables]*common.DerivedEncodeTable
	acDerived [common.NumHuffTables]*common.DerivedEncodeTable
	dcCounts  [common.NumHuffTables]*common.FreqCounts
	acCounts  [common.NumHuffTables]*common.FreqCounts

	restartsToGo int
	nextRestart  int
}

// NewSequentialEncoder creates an encoder for the frame's current scan,
// emitting into w.
func NewSequentialEncoder(fi *frame.FrameInfo, w *bitio.Writer) *SequentialEncoder {
	return &SequentialEncoder{fi: fi, w: w}
}

// StartPass prepares one pass over the scan. With gather set, no bits
// are produced; symbol frequencies accumulate instead.
func (e *SequentialEncoder) StartPass(gather bool) error {
	e.gather = gather
	for ci := 0; ci < e.fi.CompsInScan; ci++ {
		c := e.fi.CurComps[ci]
		if gather {
			if e.dcCounts[c.DCTable] == nil {
				e.dcCounts[c.DCTable] = &common.FreqCounts{}
			} else {
				*e.dcCounts[c.DCTable] = common.FreqCounts{}
			}
			if e.acCounts[c.ACTable] == nil {
				e.acCounts[c.ACTable] = &common.FreqCounts{}
			} else {
				*e.acCounts[c.ACTable] = common.FreqCounts{}
			}
		} else {
			var err error
			e.dcDerived[c.DCTable], err = deriveEncode(e.fi.DCTables[c.DCTable], 15)
			if err != nil {
				return err
			}
			e.acDerived[c.ACTable], err = deriveEncode(e.fi.ACTables[c.ACTable], 255)
			if err != nil {
				return err
			}
		}
		e.lastDC[ci] = 0
	}
	e.restartsToGo = e.fi.RestartInterval
	e.nextRestart = 0
	return nil
}

// EncodeMCU codes one MCU of coefficient blocks, emitting any due
// restart marker first.
func (e *SequentialEncoder) EncodeMCU(blocks []*common.Block) error {
	if e.fi.RestartInterval != 0 && e.restartsToGo == 0 {
		if !e.gather {
			if err := e.w.EmitRestartMarker(e.nextRestart); err != nil {
				return err
			}
		}
		for ci := 0; ci < e.fi.CompsInScan; ci++ {
			e.lastDC[ci] = 0
		}
	}

	for blkn := 0; blkn < e.fi.BlocksInMCU; blkn++ {
		ci := e.fi.MCUMembership[blkn]
		c := e.fi.CurComps[ci]
		blk := blocks[blkn]
		var err error
		if e.gather {
			err = e.countBlock(blk, e.lastDC[ci], e.dcCounts[c.DCTable], e.acCounts[c.ACTable])
		} else {
			err = e.emitBlock(blk, e.lastDC[ci], e.dcDerived[c.DCTable], e.acDerived[c.ACTable])
		}
		if err != nil {
			return err
		}
		e.lastDC[ci] = blk[0]
	}

	if e.fi.RestartInterval != 0 {
		if e.restartsToGo == 0 {
			e.restartsToGo = e.fi.RestartInterval
			e.nextRestart = (e.nextRestart + 1) & 7
		}
		e.restartsToGo--
	}
	return nil
}

// FinishPass flushes the bit buffer, or in gather mode replaces the
// scan's table slots with optimal tables built from the counts.
func (e *SequentialEncoder) FinishPass() error {
	if !e.gather {
		return e.w.FlushBits()
	}
	var didDC, didAC [common.NumHuffTables]bool
	for ci := 0; ci < e.fi.CompsInScan; ci++ {
		c := e.fi.CurComps[ci]
		if !didDC[c.DCTable] {
			tbl, err := e.dcCounts[c.DCTable].Optimal()
			if err != nil {
				return err
			}
			e.fi.DCTables[c.DCTable] = tbl
			didDC[c.DCTable] = true
		}
		if !didAC[c.ACTable] {
			tbl, err := e.acCounts[c.ACTable].Optimal()
			if err != nil {
				return err
			}
			e.fi.ACTables[c.ACTable] = tbl
			didAC[c.ACTable] = true
		}
	}
	return nil
}

// emitBlock codes one block per section F.1.2: DC difference category
// plus magnitude bits, then run/size coded AC coefficients in zigzag
// order with ZRL and EOB symbols.
func (e *SequentialEncoder) emitBlock(blk *common.Block, lastDC int32, dc, ac *common.DerivedEncodeTable) error {
	temp := blk[0] - lastDC
	temp2 := temp
	if temp < 0 {
		temp = -temp
		temp2-- // one's complement of the magnitude
	}
	nbits := 0
	for temp != 0 {
		nbits++
		temp >>= 1
	}
	if nbits > maxCoefBits+1 {
		return ErrBadCoefValue
	}
	if err := e.w.EmitBits(dc.Code[nbits], dc.Size[nbits]); err != nil {
		return err
	}
	if nbits != 0 {
		if err := e.w.EmitBits(uint32(temp2), nbits); err != nil {
			return err
		}
	}

	r := 0
	for k := 1; k < common.DCTSize2; k++ {
		temp = blk[common.NaturalOrder[k]]
		if temp == 0 {
			r++
			continue
		}
		for r > 15 {
			if err := e.w.EmitBits(ac.Code[0xF0], ac.Size[0xF0]); err != nil {
				return err
			}
			r -= 16
		}
		temp2 = temp
		if temp < 0 {
			temp = -temp
			temp2--
		}
		nbits = 1 // there must be at least one bit
		for temp >>= 1; temp != 0; temp >>= 1 {
			nbits++
		}
		if nbits > maxCoefBits {
			return ErrBadCoefValue
		}
		sym := (r << 4) + nbits
		if err := e.w.EmitBits(ac.Code[sym], ac.Size[sym]); err != nil {
			return err
		}
		if err := e.w.EmitBits(uint32(temp2), nbits); err != nil {
			return err
		}
		r = 0
	}
	if r > 0 { // EOB
		if err := e.w.EmitBits(ac.Code[0], ac.Size[0]); err != nil {
			return err
		}
	}
	return nil
}

// countBlock walks a block exactly like emitBlock but only bumps symbol
// frequencies.
func (e *SequentialEncoder) countBlock(blk *common.Block, lastDC int32, dc, ac *common.FreqCounts) error {
	temp := blk[0] - lastDC
	if temp < 0 {
		temp = -temp
	}
	nbits := 0
	for temp != 0 {
		nbits++
		temp >>= 1
	}
	if nbits > maxCoefBits+1 {
		return ErrBadCoefValue
	}
	dc[nbits]++

	r := 0
	for k := 1; k < common.DCTSize2; k++ {
		temp = blk[common.NaturalOrder[k]]
		if temp == 0 {
			r++
			continue
		}
		for r > 15 {
			ac[0xF0]++
			r -= 16
		}
		if temp < 0 {
			temp = -temp
		}
		nbits = 1
		for temp >>= 1; temp != 0; temp >>= 1 {
			nbits++
		}
		if nbits > maxCoefBits {
			return ErrBadCoefValue
		}
		ac[(r<<4)+nbits]++
		r = 0
	}
	if r > 0 {
		ac[0]++
	}
	return nil
}
