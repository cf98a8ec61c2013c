package entropy

import (
	"github.com/cocosip/go-jpeg12/jpeg/bitio"
	"github.com/cocosip/go-jpeg12/jpeg/common"
	"github.com/cocosip/go-jpeg12/jpeg/frame"
)

// ProgressiveDecoder decodes one spectral-selection / successive-
// approximation scan (section G.2). The variant is chosen from the
// current scan's Ss and Ah.
//
// DecodeMCU is atomic: a suspension rolls back the reader, the saved
// predictions and, in AC refinement, any coefficients made newly
// nonzero, so the caller retries the same MCU later.
type ProgressiveDecoder struct {
	fi *frame.FrameInfo
	r  *bitio.Reader

	lastDC [common.MaxCompsInScan]int32
	eobrun uint32

	dcDerived [common.NumHuffTables]*common.DerivedDecodeTable
	acDerived *common.DerivedDecodeTable

	restartsToGo int
	nextRestart  int
}

// NewProgressiveDecoder creates a decoder for the frame's current scan,
// consuming from r.
func NewProgressiveDecoder(fi *frame.FrameInfo, r *bitio.Reader) *ProgressiveDecoder {
	return &ProgressiveDecoder{fi: fi, r: r}
}

// StartPass derives the tables the scan variant needs and resets the
// band state.
func (d *ProgressiveDecoder) StartPass() error {
	if d.fi.Ss == 0 {
		if d.fi.Ah == 0 {
			for ci := 0; ci < d.fi.CompsInScan; ci++ {
				c := d.fi.CurComps[ci]
				var err error
				d.dcDerived[c.DCTable], err = deriveDecode(d.fi.DCTables[c.DCTable], 15)
				if err != nil {
					return err
				}
			}
		}
		// DC refinement reads raw bits only.
	} else {
		c := d.fi.CurComps[0]
		var err error
		d.acDerived, err = deriveDecode(d.fi.ACTables[c.ACTable], 255)
		if err != nil {
			return err
		}
	}

	for ci := range d.lastDC {
		d.lastDC[ci] = 0
	}
	d.eobrun = 0
	d.restartsToGo = d.fi.RestartInterval
	d.nextRestart = 0
	d.r.Mark()
	return nil
}

// processRestart resynchronizes at a restart marker and resets the
// predictions and any end-of-band run. ok=false means suspended.
func (d *ProgressiveDecoder) processRestart() (bool, error) {
	ok, err := d.r.SyncRestart(d.nextRestart)
	if err != nil || !ok {
		return ok, err
	}
	for ci := range d.lastDC {
		d.lastDC[ci] = 0
	}
	d.eobrun = 0
	d.restartsToGo = d.fi.RestartInterval
	d.nextRestart = (d.nextRestart + 1) & 7
	d.r.Commit()
	return true, nil
}

// DecodeMCU processes one MCU. First-pass variants require zeroed
// blocks; refinement variants update the blocks decoded by earlier
// scans in place. ok=false means suspended.
func (d *ProgressiveDecoder) DecodeMCU(blocks []*common.Block) (bool, error) {
	if d.fi.RestartInterval != 0 && d.restartsToGo == 0 {
		ok, err := d.processRestart()
		if err != nil || !ok {
			return ok, err
		}
	}

	var (
		ok  bool
		err error
	)
	switch {
	case d.fi.Ss == 0 && d.fi.Ah == 0:
		ok, err = d.decodeDCFirst(blocks)
	case d.fi.Ss == 0:
		ok, err = d.decodeDCRefine(blocks)
	case d.fi.Ah == 0:
		ok, err = d.decodeACFirst(blocks[0])
	default:
		ok, err = d.decodeACRefine(blocks[0])
	}
	if err != nil || !ok {
		return ok, err
	}

	d.r.Commit()
	if d.fi.RestartInterval != 0 {
		d.restartsToGo--
	}
	return true, nil
}

func (d *ProgressiveDecoder) decodeDCFirst(blocks []*common.Block) (bool, error) {
	al := uint(d.fi.Al)
	d.r.Mark()
	saved := d.lastDC

	for blkn := 0; blkn < d.fi.BlocksInMCU; blkn++ {
		ci := d.fi.MCUMembership[blkn]
		c := d.fi.CurComps[ci]

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
		blocks[blkn][0] = d.lastDC[ci] << al
	}
	return true, nil
}

func (d *ProgressiveDecoder) decodeDCRefine(blocks []*common.Block) (bool, error) {
	p1 := int32(1) << uint(d.fi.Al)
	d.r.Mark()

	for blkn := 0; blkn < d.fi.BlocksInMCU; blkn++ {
		if !d.r.EnsureBits(1) {
			d.r.Rollback()
			return false, nil
		}
		if d.r.GetBits(1) != 0 {
			blocks[blkn][0] |= p1
		}
		// The |= makes redecoding after a rollback idempotent.
	}
	return true, nil
}

func (d *ProgressiveDecoder) decodeACFirst(blk *common.Block) (bool, error) {
	al := uint(d.fi.Al)

	if d.eobrun > 0 { // inside a band of zeroes, nothing to read
		d.eobrun--
		return true, nil
	}

	d.r.Mark()
	savedEOB := d.eobrun

	for k := d.fi.Ss; k <= d.fi.Se; k++ {
		sym, ok, err := d.r.Decode(d.acDerived)
		if err != nil {
			return true, err
		}
		if !ok {
			d.r.Rollback()
			d.eobrun = savedEOB
			return false, nil
		}
		run := int(sym >> 4)
		size := int(sym & 15)
		if size != 0 {
			k += run
			if k > d.fi.Se {
				return true, ErrBadSymbol
			}
			val, ok := d.r.ReceiveExtend(size)
			if !ok {
				d.r.Rollback()
				d.eobrun = savedEOB
				return false, nil
			}
			blk[common.NaturalOrder[k]] = val << al
		} else {
			if run == 15 {
				k += 15 // ZRL
				continue
			}
			// EOBr: run length is 2^r plus appended bits.
			eob := uint32(1) << uint(run)
			if run != 0 {
				if !d.r.EnsureBits(run) {
					d.r.Rollback()
					d.eobrun = savedEOB
					return false, nil
				}
				eob += d.r.GetBits(run)
			}
			d.eobrun = eob - 1 // this band is handled now
			break
		}
	}
	return true, nil
}

func (d *ProgressiveDecoder) decodeACRefine(blk *common.Block) (bool, error) {
	p1 := int32(1) << uint(d.fi.Al)
	m1 := int32(-1) << uint(d.fi.Al)

	d.r.Mark()
	savedEOB := d.eobrun

	// Coefficients made newly nonzero must be re-zeroed if we suspend,
	// or the retry would mistake them for previously transmitted ones.
	var newnz [common.DCTSize2]int
	numNewnz := 0
	undo := func() (bool, error) {
		for numNewnz > 0 {
			numNewnz--
			blk[newnz[numNewnz]] = 0
		}
		d.r.Rollback()
		d.eobrun = savedEOB
		return false, nil
	}

	k := d.fi.Ss
	if d.eobrun == 0 {
		for ; k <= d.fi.Se; k++ {
			sym, ok, err := d.r.Decode(d.acDerived)
			if err != nil {
				return true, err
			}
			if !ok {
				return undo()
			}
			run := int(sym >> 4)
			size := int(sym & 15)
			var newval int32
			if size != 0 {
				// A newly nonzero coefficient always has size 1 in a
				// refinement scan; tolerate corrupt sizes like any
				// other bad symbol would be tolerated downstream.
				if !d.r.EnsureBits(1) {
					return undo()
				}
				if d.r.GetBits(1) != 0 {
					newval = p1
				} else {
					newval = m1
				}
			} else {
				if run != 15 {
					eob := uint32(1) << uint(run)
					if run != 0 {
						if !d.r.EnsureBits(run) {
							return undo()
						}
						eob += d.r.GetBits(run)
					}
					d.eobrun = eob
					break // rest of the band is EOB logic
				}
				// run == 15, newval == 0: plain ZRL.
			}

			// Advance over run still-zero coefficients, appending a
			// correction bit to every already-nonzero one on the way.
			for k <= d.fi.Se {
				coef := &blk[common.NaturalOrder[k]]
				if *coef != 0 {
					if !d.r.EnsureBits(1) {
						return undo()
					}
					if d.r.GetBits(1) != 0 && *coef&p1 == 0 {
						if *coef >= 0 {
							*coef += p1
						} else {
							*coef += m1
						}
					}
				} else {
					run--
					if run < 0 {
						break // reached the target zero coefficient
					}
				}
				k++
			}
			if newval != 0 {
				if k > d.fi.Se {
					return true, ErrBadSymbol
				}
				pos := common.NaturalOrder[k]
				blk[pos] = newval
				newnz[numNewnz] = pos
				numNewnz++
			}
		}
	}

	if d.eobrun > 0 {
		// Append correction bits to the already-nonzero coefficients
		// left after the last newly nonzero one.
		for ; k <= d.fi.Se; k++ {
			coef := &blk[common.NaturalOrder[k]]
			if *coef == 0 {
				continue
			}
			if !d.r.EnsureBits(1) {
				return undo()
			}
			if d.r.GetBits(1) != 0 && *coef&p1 == 0 {
				if *coef >= 0 {
					*coef += p1
				} else {
					*coef += m1
				}
			}
		}
		d.eobrun--
	}
	return true, nil
}

// AtMarker reports whether the decoder has consumed all entropy data
// and reached the trailing marker.
func (d *ProgressiveDecoder) AtMarker() bool {
	return d.r.AtMarker()
}

// Consumed reports how many scan bytes have been taken from the source.
func (d *ProgressiveDecoder) Consumed() int {
	return d.r.Consumed()
}
