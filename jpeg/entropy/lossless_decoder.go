package entropy

import (
	"github.com/cocosip/go-jpeg12/jpeg/bitio"
	"github.com/cocosip/go-jpeg12/jpeg/common"
	"github.com/cocosip/go-jpeg12/jpeg/frame"
)

// LosslessDecoder decodes prediction differences, the inverse of
// LosslessEncoder. Suspension is counted in whole MCUs: DecodeMCUs
// reports how many of the requested MCUs it completed, and the caller
// resumes at the first incomplete one.
type LosslessDecoder struct {
	fi *frame.FrameInfo
	r  *bitio.Reader

	samples []sampleRef
	derived [common.NumHuffTables]*common.DerivedDecodeTable

	restartsToGo int
	nextRestart  int
}

// NewLosslessDecoder creates a decoder for the frame's current scan,
// consuming from r.
func NewLosslessDecoder(fi *frame.FrameInfo, r *bitio.Reader) *LosslessDecoder {
	return &LosslessDecoder{fi: fi, r: r}
}

// StartPass derives the scan's difference tables.
func (d *LosslessDecoder) StartPass() error {
	d.samples = losslessSampleMap(d.fi)
	for ci := 0; ci < d.fi.CompsInScan; ci++ {
		c := d.fi.CurComps[ci]
		var err error
		d.derived[c.DCTable], err = deriveDecode(d.fi.DCTables[c.DCTable], 16)
		if err != nil {
			return err
		}
	}
	d.restartsToGo = d.fi.RestartInterval
	d.nextRestart = 0
	d.r.Mark()
	return nil
}

// processRestart resynchronizes at a restart marker. Prediction resets
// belong to the undifferencer, not the entropy layer.
func (d *LosslessDecoder) processRestart() (bool, error) {
	ok, err := d.r.SyncRestart(d.nextRestart)
	if err != nil || !ok {
		return ok, err
	}
	d.restartsToGo = d.fi.RestartInterval
	d.nextRestart = (d.nextRestart + 1) & 7
	d.r.Commit()
	return true, nil
}

// DecodeMCUs fills nMCU consecutive MCUs starting at mcuCol of the
// per-component difference row windows diffs[ci][yoff][col]. It returns
// the number of MCUs completed before the source suspended.
func (d *LosslessDecoder) DecodeMCUs(diffs [][][]int32, mcuCol, nMCU int) (int, error) {
	for m := 0; m < nMCU; m++ {
		if d.fi.RestartInterval != 0 && d.restartsToGo == 0 {
			ok, err := d.processRestart()
			if err != nil {
				return m, err
			}
			if !ok {
				return m, nil
			}
		}

		d.r.Mark()
		col := mcuCol + m
		for _, ref := range d.samples {
			c := d.fi.CurComps[ref.ci]
			s, ok, err := d.r.Decode(d.derived[c.DCTable])
			if err != nil {
				return m, err
			}
			if !ok {
				d.r.Rollback()
				return m, nil
			}

			var diff int32
			switch {
			case s == 0:
				diff = 0
			case s == 16: // magnitude 32768, no appended bits
				diff = 32768
			default:
				diff, ok = d.r.ReceiveExtend(int(s))
				if !ok {
					d.r.Rollback()
					return m, nil
				}
			}
			diffs[ref.ci][ref.yoff][col*ref.width+ref.xoff] = diff
		}

		d.r.Commit()
		if d.fi.RestartInterval != 0 {
			d.restartsToGo--
		}
	}
	return nMCU, nil
}

// Consumed reports how many scan bytes have been taken from the source.
func (d *LosslessDecoder) Consumed() int {
	return d.r.Consumed()
}
