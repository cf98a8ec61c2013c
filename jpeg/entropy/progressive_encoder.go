package entropy

import (
	"github.com/cocosip/go-jpeg12/jpeg/bitio"
	"github.com/cocosip/go-jpeg12/jpeg/common"
	"github.com/cocosip/go-jpeg12/jpeg/frame"
)

// ProgressiveEncoder codes one spectral-selection / successive-
// approximation scan (section G.1). The variant is chosen from the
// current scan's Ss and Ah: DC or AC band, first pass or refinement.
//
// End-of-band runs and the correction bits of refinement scans are
// buffered until a nonzero coefficient, a restart, or the pass end
// forces them out.
type ProgressiveEncoder struct {
	fi *frame.FrameInfo
	w  *bitio.Writer

	gather bool

	lastDC [common.MaxCompsInScan]int32
	eobrun uint32

	// bits holds buffered correction bits; the first be of them belong
	// to the pending end-of-band run, the rest to the current block.
	bits []byte
	be   int

	derived [common.NumHuffTables]*common.DerivedEncodeTable
	counts  [common.NumHuffTables]*common.FreqCounts
	acTblNo int

	restartsToGo int
	nextRestart  int
}

// NewProgressiveEncoder creates an encoder for the frame's current scan,
// emitting into w.
func NewProgressiveEncoder(fi *frame.FrameInfo, w *bitio.Writer) *ProgressiveEncoder {
	return &ProgressiveEncoder{fi: fi, w: w}
}

// StartPass prepares one pass over the scan. DC refinement scans use no
// Huffman table at all, so they never run in gather mode.
func (e *ProgressiveEncoder) StartPass(gather bool) error {
	e.gather = gather
	isDCBand := e.fi.Ss == 0

	for ci := 0; ci < e.fi.CompsInScan; ci++ {
		c := e.fi.CurComps[ci]
		var tblno, maxSymbol int
		if isDCBand {
			if e.fi.Ah != 0 {
				continue // refinement bits are raw, no table
			}
			tblno, maxSymbol = c.DCTable, 15
		} else {
			tblno, maxSymbol = c.ACTable, 255
			e.acTblNo = tblno
		}
		if gather {
			if e.counts[tblno] == nil {
				e.counts[tblno] = &common.FreqCounts{}
			} else {
				*e.counts[tblno] = common.FreqCounts{}
			}
		} else {
			var (
				src *common.HuffmanTable
				err error
			)
			if isDCBand {
				src = e.fi.DCTables[tblno]
			} else {
				src = e.fi.ACTables[tblno]
			}
			e.derived[tblno], err = deriveEncode(src, maxSymbol)
			if err != nil {
				return err
			}
		}
		e.lastDC[ci] = 0
	}

	e.eobrun = 0
	e.bits = e.bits[:0]
	e.be = 0
	e.restartsToGo = e.fi.RestartInterval
	e.nextRestart = 0
	return nil
}

// emitSymbol codes one Huffman symbol from the given table slot, or
// counts it in gather mode.
func (e *ProgressiveEncoder) emitSymbol(tblno, sym int) error {
	if e.gather {
		e.counts[tblno][sym]++
		return nil
	}
	d := e.derived[tblno]
	return e.w.EmitBits(d.Code[sym], d.Size[sym])
}

// emitRaw codes raw value bits; a no-op in gather mode.
func (e *ProgressiveEncoder) emitRaw(code uint32, size int) error {
	if e.gather {
		return nil
	}
	return e.w.EmitBits(code, size)
}

// flushRunBits emits the correction bits buffered by the current block
// and drops them from the buffer.
func (e *ProgressiveEncoder) flushRunBits() error {
	if !e.gather {
		for _, b := range e.bits[e.be:] {
			if err := e.w.EmitBits(uint32(b), 1); err != nil {
				return err
			}
		}
	}
	e.bits = e.bits[:e.be]
	return nil
}

// emitEOBRun forces out any pending end-of-band run together with the
// correction bits committed to it.
func (e *ProgressiveEncoder) emitEOBRun() error {
	if e.eobrun == 0 {
		return nil
	}
	temp := e.eobrun
	nbits := 0
	for temp >>= 1; temp != 0; temp >>= 1 {
		nbits++
	}
	// EOB runs this long cannot be represented as a symbol.
	if nbits > 14 {
		return bitio.ErrMissingCode
	}
	if err := e.emitSymbol(e.acTblNo, nbits<<4); err != nil {
		return err
	}
	if nbits != 0 {
		if err := e.emitRaw(e.eobrun, nbits); err != nil {
			return err
		}
	}
	e.eobrun = 0

	if !e.gather {
		for _, b := range e.bits[:e.be] {
			if err := e.w.EmitBits(uint32(b), 1); err != nil {
				return err
			}
		}
	}
	e.bits = append(e.bits[:0], e.bits[e.be:]...)
	e.be = 0
	return nil
}

// emitRestart flushes pending state and writes a restart marker, then
// resets the per-interval predictions.
func (e *ProgressiveEncoder) emitRestart() error {
	if err := e.emitEOBRun(); err != nil {
		return err
	}
	if !e.gather {
		if err := e.w.EmitRestartMarker(e.nextRestart); err != nil {
			return err
		}
	}
	if e.fi.Ss == 0 {
		for ci := 0; ci < e.fi.CompsInScan; ci++ {
			e.lastDC[ci] = 0
		}
	} else {
		e.eobrun = 0
		e.bits = e.bits[:0]
		e.be = 0
	}
	return nil
}

// EncodeMCU codes one MCU, emitting any due restart marker first.
func (e *ProgressiveEncoder) EncodeMCU(blocks []*common.Block) error {
	if e.fi.RestartInterval != 0 && e.restartsToGo == 0 {
		if err := e.emitRestart(); err != nil {
			return err
		}
	}

	var err error
	switch {
	case e.fi.Ss == 0 && e.fi.Ah == 0:
		err = e.encodeDCFirst(blocks)
	case e.fi.Ss == 0:
		err = e.encodeDCRefine(blocks)
	case e.fi.Ah == 0:
		err = e.encodeACFirst(blocks[0])
	default:
		err = e.encodeACRefine(blocks[0])
	}
	if err != nil {
		return err
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

// encodeDCFirst codes the first pass of the DC band: point-transformed
// DC differences, section G.1.2.1.
func (e *ProgressiveEncoder) encodeDCFirst(blocks []*common.Block) error {
	al := uint(e.fi.Al)
	for blkn := 0; blkn < e.fi.BlocksInMCU; blkn++ {
		ci := e.fi.MCUMembership[blkn]
		c := e.fi.CurComps[ci]

		// Arithmetic shift keeps the point transform correct for
		// negative DC values.
		cur := blocks[blkn][0] >> al
		temp := cur - e.lastDC[ci]
		e.lastDC[ci] = cur

		temp2 := temp
		if temp < 0 {
			temp = -temp
			temp2--
		}
		nbits := 0
		for temp != 0 {
			nbits++
			temp >>= 1
		}
		if nbits > maxCoefBits+1 {
			return ErrBadCoefValue
		}
		if err := e.emitSymbol(c.DCTable, nbits); err != nil {
			return err
		}
		if nbits != 0 {
			if err := e.emitRaw(uint32(temp2), nbits); err != nil {
				return err
			}
		}
	}
	return nil
}

// encodeDCRefine codes one more bit of each DC coefficient. No Huffman
// coding is involved.
func (e *ProgressiveEncoder) encodeDCRefine(blocks []*common.Block) error {
	al := uint(e.fi.Al)
	for blkn := 0; blkn < e.fi.BlocksInMCU; blkn++ {
		if err := e.emitRaw(uint32(blocks[blkn][0]>>al), 1); err != nil {
			return err
		}
	}
	return nil
}

// encodeACFirst codes the first pass of an AC band, section G.1.2.2.
func (e *ProgressiveEncoder) encodeACFirst(blk *common.Block) error {
	al := uint(e.fi.Al)
	r := 0
	for k := e.fi.Ss; k <= e.fi.Se; k++ {
		temp := blk[common.NaturalOrder[k]]
		if temp == 0 {
			r++
			continue
		}
		// Point transform on the absolute value; the sign stays in the
		// one's complement of the shifted magnitude.
		var temp2 int32
		if temp < 0 {
			temp = -temp
			temp >>= al
			temp2 = ^temp
		} else {
			temp >>= al
			temp2 = temp
		}
		if temp == 0 { // zeroed by the point transform
			r++
			continue
		}

		if e.eobrun > 0 {
			if err := e.emitEOBRun(); err != nil {
				return err
			}
		}
		for r > 15 {
			if err := e.emitSymbol(e.acTblNo, 0xF0); err != nil {
				return err
			}
			r -= 16
		}

		nbits := 1
		for temp >>= 1; temp != 0; temp >>= 1 {
			nbits++
		}
		if nbits > maxCoefBits {
			return ErrBadCoefValue
		}
		if err := e.emitSymbol(e.acTblNo, (r<<4)+nbits); err != nil {
			return err
		}
		if err := e.emitRaw(uint32(temp2), nbits); err != nil {
			return err
		}
		r = 0
	}

	if r > 0 {
		e.eobrun++
		if e.eobrun == maxEOBRun {
			return e.emitEOBRun()
		}
	}
	return nil
}

// encodeACRefine codes a refinement pass of an AC band, section
// G.1.2.3. Correction bits of already-nonzero coefficients ride along
// with the next emitted symbol or end-of-band run.
func (e *ProgressiveEncoder) encodeACRefine(blk *common.Block) error {
	al := uint(e.fi.Al)

	// Precompute shifted magnitudes; eob marks the last coefficient
	// that becomes newly nonzero in this pass.
	var absvalues [common.DCTSize2]int32
	eob := 0
	for k := e.fi.Ss; k <= e.fi.Se; k++ {
		temp := blk[common.NaturalOrder[k]]
		if temp < 0 {
			temp = -temp
		}
		temp >>= al
		absvalues[k] = temp
		if temp == 1 {
			eob = k
		}
	}

	r := 0
	for k := e.fi.Ss; k <= e.fi.Se; k++ {
		temp := absvalues[k]
		if temp == 0 {
			r++
			continue
		}

		// ZRLs are emitted only when they cannot fold into an EOB run.
		for r > 15 && k <= eob {
			if err := e.emitEOBRun(); err != nil {
				return err
			}
			if err := e.emitSymbol(e.acTblNo, 0xF0); err != nil {
				return err
			}
			r -= 16
			if err := e.flushRunBits(); err != nil {
				return err
			}
		}

		// Already-nonzero coefficients contribute a correction bit. If
		// r > 15 here then k > eob, so this coefficient cannot be 1.
		if temp > 1 {
			e.bits = append(e.bits, byte(temp&1))
			continue
		}

		if err := e.emitEOBRun(); err != nil {
			return err
		}
		if err := e.emitSymbol(e.acTblNo, (r<<4)+1); err != nil {
			return err
		}
		sign := uint32(1)
		if blk[common.NaturalOrder[k]] < 0 {
			sign = 0
		}
		if err := e.emitRaw(sign, 1); err != nil {
			return err
		}
		if err := e.flushRunBits(); err != nil {
			return err
		}
		r = 0
	}

	if r > 0 || len(e.bits) > e.be {
		e.eobrun++
		e.be = len(e.bits)
		// Force out the run before the buffered bits can outgrow what a
		// single block may add.
		if e.eobrun == maxEOBRun || e.be > maxCorrBits-common.DCTSize2+1 {
			return e.emitEOBRun()
		}
	}
	return nil
}

// FinishPass flushes pending state; in gather mode it instead builds
// optimal tables into the scan's table slots.
func (e *ProgressiveEncoder) FinishPass() error {
	if err := e.emitEOBRun(); err != nil {
		return err
	}
	if !e.gather {
		return e.w.FlushBits()
	}

	isDCBand := e.fi.Ss == 0
	var did [common.NumHuffTables]bool
	for ci := 0; ci < e.fi.CompsInScan; ci++ {
		c := e.fi.CurComps[ci]
		var tblno int
		if isDCBand {
			if e.fi.Ah != 0 {
				continue
			}
			tblno = c.DCTable
		} else {
			tblno = c.ACTable
		}
		if did[tblno] {
			continue
		}
		tbl, err := e.counts[tblno].Optimal()
		if err != nil {
			return err
		}
		if isDCBand {
			e.fi.DCTables[tblno] = tbl
		} else {
			e.fi.ACTables[tblno] = tbl
		}
		did[tblno] = true
	}
	return nil
}
