package entropy

import (
	"github.com/cocosip/go-jpeg12/jpeg/bitio"
	"github.com/cocosip/go-jpeg12/jpeg/common"
	"github.com/cocosip/go-jpeg12/jpeg/frame"
)

// SequentialDecoder decodes whole coefficient blocks, section F.2.1.
// DecodeMCU is atomic: when the source suspends mid-MCU the reader and
// DC predictions roll back so the caller can retry the same MCU.
type SequentialDecoder struct {
	fi *frame.FrameInfo
	r  *bitio.Reader

	lastDC [common.MaxCompsInScan]int32

	dcDerived [common.NumHuffTables]*common.DerivedDecodeTable
	acDerived [common.NumHuffTables]*common.DerivedDecodeTable

	restartsToGo int
	nextRestart  int
}

// NewSequentialDecoder creates a decoder for the frame's current scan,
// consuming from r.
func NewSequentialDecoder(fi *frame.FrameInfo, r *bitio.Reader) *SequentialDecoder {
	return &SequentialDecoder{fi: fi, r: r}
}

// StartPass derives the scan's decoding tables and resets predictions.
func (d *SequentialDecoder) StartPass() error {
	for ci := 0; ci < d.fi.CompsInScan; ci++ {
		c := d.fi.CurComps[ci]
		var err error
		d.dcDerived[c.DCTable], err = deriveDecode(d.fi.DCTables[c.DCTable], 15)
		if err != nil {
			return err
		}
		d.acDerived[c.ACTable], err = deriveDecode(d.fi.ACTables[c.ACTable], 255)
		if err != nil {
			return err
		}
		d.lastDC[ci] = 0
	}
	d.restartsToGo = d.fi.RestartInterval
	d.nextRestart = 0
	d.r.Mark()
	return nil
}

// processRestart resynchronizes at a restart marker and resets the DC
// predictions. ok=false means suspended.
func (d *SequentialDecoder) processRestart() (bool, error) {
	ok, err := d.r.SyncRestart(d.nextRestart)
	if err != nil || !ok {
		return ok, err
	}
	for ci := 0; ci < d.fi.CompsInScan; ci++ {
		d.lastDC[ci] = 0
	}
	d.restartsToGo = d.fi.RestartInterval
	d.nextRestart = (d.nextRestart + 1) & 7
	d.r.Commit()
	return true, nil
}

// DecodeMCU fills one MCU of blocks. The caller must supply zeroed
// blocks; coefficients skipped by run lengths stay zero. ok=false means
// the source suspended and the MCU must be retried after zeroing again.
func (d *SequentialDecoder) DecodeMCU(blocks []*common.Block) (bool, error) {
	if d.fi.RestartInterval != 0 && d.restartsToGo == 0 {
		ok, err := d.processRestart()
		if err != nil || !ok {
			return ok, err
		}
	}

	d.r.Mark()
	saved := d.lastDC

	for blkn := 0; blkn < d.fi.BlocksInMCU; blkn++ {
		ci := d.fi.MCUMembership[blkn]
		c := d.fi.CurComps[ci]
		blk := blocks[blkn]

		// DC difference, section F.2.2.1.
		s, ok, err := d.r.Decode(d.dcDerived[c.DCTable])
		if err != nil {
			return true, err
		}
		if !ok {
			d.r.Rollback()
			d.lastDC = saved
			return false, nil
		}
		diff := int32(0)
		if s != 0 {
			diff, ok = d.r.ReceiveExtend(int(s))
			if !ok {
				d.r.Rollback()
				d.lastDC = saved
				return false, nil
			}
		}
		d.lastDC[ci] += diff
		blk[0] = d.lastDC[ci]

		// AC coefficients, section F.2.2.2.
		for k := 1; k < common.DCTSize2; k++ {
			sym, ok, err := d.r.Decode(d.acDerived[c.ACTable])
			if err != nil {
				return true, err
			}
			if !ok {
				d.r.Rollback()
				d.lastDC = saved
				return false, nil
			}
			run := int(sym >> 4)
			size := int(sym & 15)
			if size != 0 {
				k += run
				if k >= common.DCTSize2 {
					return true, ErrBadSymbol
				}
				val, ok := d.r.ReceiveExtend(size)
				if !ok {
					d.r.Rollback()
					d.lastDC = saved
					return false, nil
				}
				blk[common.NaturalOrder[k]] = val
			} else {
				if run != 15 {
					break // EOB
				}
				k += 15
			}
		}
	}

	d.r.Commit()
	if d.fi.RestartInterval != 0 {
		d.restartsToGo--
	}
	return true, nil
}

// Consumed reports how many scan bytes the decoder has taken from its
// source, locating the marker that follows the entropy data.
func (d *SequentialDecoder) Consumed() int {
	return d.r.Consumed()
}
