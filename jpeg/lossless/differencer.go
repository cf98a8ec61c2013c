package lossless

import "github.com/cocosip/go-jpeg12/jpeg/frame"

// plane holds one component's samples, row-major, already in the
// point-transformed domain (input samples shifted right by Al).
type plane struct {
	width  int
	height int
	pix    []uint16
}

func newPlane(width, height int) *plane {
	return &plane{width: width, height: height, pix: make([]uint16, width*height)}
}

func (p *plane) row(y int) []uint16 {
	if y >= p.height {
		y = p.height - 1
	}
	return p.pix[y*p.width : (y+1)*p.width]
}

// differencer turns sample rows into prediction differences. The first
// row of a scan, and the first row after each restart, predicts the
// initial sample from the precision midpoint and the rest from their
// left neighbor; other rows use the scan's selected predictor.
type differencer struct {
	sel    int // predictor selection value (Ss)
	midval int // 1 << (precision - pt - 1)

	planes  []*plane // in scan component order
	fresh   []bool   // next row is a prediction restart
}

func newDifferencer(fi *frame.FrameInfo, planes []*plane) *differencer {
	d := &differencer{
		sel:    fi.Ss,
		midval: 1 << uint(fi.Precision-fi.Al-1),
		planes: make([]*plane, fi.CompsInScan),
		fresh:  make([]bool, fi.CompsInScan),
	}
	for i := 0; i < fi.CompsInScan; i++ {
		d.planes[i] = planes[fi.CurComps[i].Index]
		d.fresh[i] = true
	}
	return d
}

// Reset restarts prediction, as required at restart marker boundaries.
func (d *differencer) Reset() {
	for i := range d.fresh {
		d.fresh[i] = true
	}
}

// DiffRow computes the differences for one sample row. Columns past the
// component's real width are dummies and difference to zero.
func (d *differencer) DiffRow(ci int, row int, diffs []int32) {
	p := d.planes[ci]
	cur := p.row(row)

	if row == 0 || d.fresh[ci] {
		d.fresh[ci] = false
		diffs[0] = int32(cur[0]) - int32(d.midval)
		for col := 1; col < len(cur); col++ {
			diffs[col] = int32(cur[col]) - int32(cur[col-1])
		}
	} else {
		prev := p.row(row - 1)
		diffs[0] = int32(cur[0]) - int32(prev[0])
		for col := 1; col < len(cur); col++ {
			pred := Predictor(d.sel, int(cur[col-1]), int(prev[col]), int(prev[col-1]))
			diffs[col] = int32(cur[col]) - int32(pred)
		}
	}
	for col := len(cur); col < len(diffs); col++ {
		diffs[col] = 0
	}
}

// undifferencer reconstructs sample rows from decoded differences.
// Reconstruction is modulo 2^16, matching the encoder's reduction of
// differences to 16 bits.
type undifferencer struct {
	sel    int
	midval int

	planes []*plane
	fresh  []bool
}

func newUndifferencer(fi *frame.FrameInfo, planes []*plane) *undifferencer {
	u := &undifferencer{
		sel:    fi.Ss,
		midval: 1 << uint(fi.Precision-fi.Al-1),
		planes: make([]*plane, fi.CompsInScan),
		fresh:  make([]bool, fi.CompsInScan),
	}
	for i := 0; i < fi.CompsInScan; i++ {
		u.planes[i] = planes[fi.CurComps[i].Index]
		u.fresh[i] = true
	}
	return u
}

// Reset restarts prediction at a restart boundary.
func (u *undifferencer) Reset() {
	for i := range u.fresh {
		u.fresh[i] = true
	}
}

// UndiffRow reconstructs one sample row in place. Dummy rows below the
// component's real height are discarded.
func (u *undifferencer) UndiffRow(ci int, row int, diffs []int32) {
	p := u.planes[ci]
	if row >= p.height {
		return
	}
	cur := p.row(row)

	if row == 0 || u.fresh[ci] {
		u.fresh[ci] = false
		cur[0] = uint16((int32(u.midval) + diffs[0]) & 0xFFFF)
		for col := 1; col < len(cur); col++ {
			cur[col] = uint16((int32(cur[col-1]) + diffs[col]) & 0xFFFF)
		}
	} else {
		prev := p.row(row - 1)
		cur[0] = uint16((int32(prev[0]) + diffs[0]) & 0xFFFF)
		for col := 1; col < len(cur); col++ {
			pred := Predictor(u.sel, int(cur[col-1]), int(prev[col]), int(prev[col-1]))
			cur[col] = uint16((int32(pred) + diffs[col]) & 0xFFFF)
		}
	}
}
