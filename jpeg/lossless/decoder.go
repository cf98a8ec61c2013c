package lossless

import (
	"encoding/binary"

	"github.com/cocosip/go-jpeg12/jpeg/bitio"
	"github.com/cocosip/go-jpeg12/jpeg/common"
	"github.com/cocosip/go-jpeg12/jpeg/control"
	"github.com/cocosip/go-jpeg12/jpeg/entropy"
	"github.com/cocosip/go-jpeg12/jpeg/frame"
)

// Decode decodes a lossless JPEG (SOF3) stream. The returned pixel data
// is interleaved, little-endian for samples wider than 8 bits.
func Decode(jpegData []byte) (pixelData []byte, width, height, components, bitDepth int, err error) {
	fi := &frame.FrameInfo{}
	parser := frame.NewHeaderParser(fi, jpegData)

	var (
		planes   []*plane
		compAl   []int
		compSent []bool
	)

	for {
		scan, done, err := parser.NextScan()
		if err != nil {
			return nil, 0, 0, 0, 0, err
		}
		if done {
			break
		}

		if planes == nil {
			if fi.Process != frame.Lossless {
				return nil, 0, 0, 0, 0, common.ErrUnsupportedFormat
			}
			if len(fi.Components) != 1 && len(fi.Components) != 3 {
				return nil, 0, 0, 0, 0, common.ErrInvalidComponents
			}
			for _, c := range fi.Components {
				// Subsampled lossless components cannot be re-interleaved
				// into a uniform pixel grid.
				if c.H != 1 || c.V != 1 {
					return nil, 0, 0, 0, 0, common.ErrUnsupportedFormat
				}
			}
			planes = make([]*plane, len(fi.Components))
			for i, c := range fi.Components {
				planes[i] = newPlane(c.DownsampledWidth, c.DownsampledHeight)
			}
			compAl = make([]int, len(fi.Components))
			compSent = make([]bool, len(fi.Components))
		}

		if scan.Ss < 1 || scan.Ss > 7 || scan.Se != 0 || scan.Ah != 0 ||
			scan.Al < 0 || scan.Al >= fi.Precision {
			return nil, 0, 0, 0, 0, common.ErrInvalidSOS
		}
		for i := 0; i < scan.CompsInScan; i++ {
			idx := scan.ComponentIndex[i]
			if compSent[idx] {
				return nil, 0, 0, 0, 0, common.ErrInvalidSOS
			}
			compSent[idx] = true
			compAl[idx] = scan.Al
		}

		if err := fi.SelectScan(scan); err != nil {
			return nil, 0, 0, 0, 0, err
		}
		if err := fi.PerScanSetup(); err != nil {
			return nil, 0, 0, 0, 0, err
		}

		r := bitio.NewReader(bitio.NewBytesSource(parser.EntropyData()))
		dec := entropy.NewLosslessDecoder(fi, r)
		if err := dec.StartPass(); err != nil {
			return nil, 0, 0, 0, 0, err
		}
		ctrl, err := control.NewDiffDecodeController(fi)
		if err != nil {
			return nil, 0, 0, 0, 0, err
		}
		if err := ctrl.DecodeScan(dec, newUndifferencer(fi, planes)); err != nil {
			return nil, 0, 0, 0, 0, err
		}
	}

	if planes == nil {
		return nil, 0, 0, 0, 0, common.ErrInvalidSOF
	}
	for _, ok := range compSent {
		if !ok {
			return nil, 0, 0, 0, 0, common.ErrInvalidData
		}
	}

	pixelData = storePixels(fi, planes, compAl)
	return pixelData, fi.Width, fi.Height, len(fi.Components), fi.Precision, nil
}

// storePixels interleaves the decoded planes into output pixel bytes,
// undoing each component's point transform.
func storePixels(fi *frame.FrameInfo, planes []*plane, compAl []int) []byte {
	components := len(planes)
	bytesPerSample := (fi.Precision + 7) / 8
	mask := uint16(1)<<uint(fi.Precision) - 1

	out := make([]byte, fi.Width*fi.Height*components*bytesPerSample)
	n := fi.Width * fi.Height
	for i := 0; i < n; i++ {
		for c := 0; c < components; c++ {
			v := (planes[c].pix[i] << uint(compAl[c])) & mask
			if bytesPerSample == 1 {
				out[i*components+c] = byte(v)
			} else {
				binary.LittleEndian.PutUint16(out[2*(i*components+c):], v)
			}
		}
	}
	return out
}
