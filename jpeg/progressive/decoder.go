package progressive

import (
	"github.com/cocosip/go-jpeg12/jpeg/bitio"
	"github.com/cocosip/go-jpeg12/jpeg/common"
	"github.com/cocosip/go-jpeg12/jpeg/control"
	"github.com/cocosip/go-jpeg12/jpeg/entropy"
	"github.com/cocosip/go-jpeg12/jpeg/frame"
)

// Decode parses a progressive JPEG stream and returns its coefficient
// image, applying block smoothing when the stream left low-order AC
// coefficients partially refined.
func Decode(jpegData []byte) (*Image, error) {
	return DecodeWithOptions(jpegData, DecodeOptions{})
}

// DecodeWithOptions is Decode with explicit decoding options.
func DecodeWithOptions(jpegData []byte, opts DecodeOptions) (*Image, error) {
	fi := &frame.FrameInfo{}
	parser := frame.NewHeaderParser(fi, jpegData)

	var (
		buf      *control.BlockBuffer
		coefBits [][common.DCTSize2]int
	)

	for {
		scan, done, err := parser.NextScan()
		if err != nil {
			return nil, err
		}
		if done {
			break
		}

		if buf == nil {
			if fi.Process != frame.Progressive {
				return nil, common.ErrUnsupportedFormat
			}
			buf = control.NewBlockBuffer(fi)
			coefBits = make([][common.DCTSize2]int, len(fi.Components))
			for ci := range coefBits {
				for k := range coefBits[ci] {
					coefBits[ci][k] = -1
				}
			}
		}

		if err := checkScan(fi, scan, coefBits); err != nil {
			return nil, err
		}
		for i := 0; i < scan.CompsInScan; i++ {
			bits := &coefBits[scan.ComponentIndex[i]]
			for k := scan.Ss; k <= scan.Se; k++ {
				bits[k] = scan.Al
			}
		}

		if err := fi.SelectScan(scan); err != nil {
			return nil, err
		}
		if err := fi.PerScanSetup(); err != nil {
			return nil, err
		}

		r := bitio.NewReader(bitio.NewBytesSource(parser.EntropyData()))
		dec := entropy.NewProgressiveDecoder(fi, r)
		if err := dec.StartPass(); err != nil {
			return nil, err
		}
		ctrl := control.NewDecodeCoefController(fi, buf)
		ctrl.StartScan()
		ok, err := ctrl.DecodeScan(dec)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, common.ErrUnexpectedEOF
		}
	}

	if buf == nil {
		return nil, common.ErrInvalidSOF
	}
	for ci := range coefBits {
		// Some DC data is required per component; AC may be absent.
		if coefBits[ci][0] < 0 {
			return nil, common.ErrInvalidData
		}
	}

	img := &Image{
		Width:      fi.Width,
		Height:     fi.Height,
		Precision:  fi.Precision,
		Components: make([]Component, len(fi.Components)),
	}

	var smoother *control.Smoother
	if !opts.DisableSmoothing {
		smoother, img.Smoothed = control.NewSmoother(fi, buf, coefBits)
	}

	for i, c := range fi.Components {
		out := Component{
			H:              c.H,
			V:              c.V,
			QuantIdx:       c.QuantIdx,
			WidthInBlocks:  c.WidthInUnits,
			HeightInBlocks: c.HeightInUnits,
			Blocks:         make([]common.Block, c.WidthInUnits*c.HeightInUnits),
		}
		for r := 0; r < c.HeightInUnits; r++ {
			for col := 0; col < c.WidthInUnits; col++ {
				dst := &out.Blocks[r*c.WidthInUnits+col]
				if smoother != nil {
					smoother.Smooth(i, r, col, dst)
				} else {
					*dst = *buf.Block(i, r, col)
				}
			}
		}
		img.Components[i] = out
	}
	return img, nil
}

// checkScan enforces the progressive scan constraints the entropy layer
// relies on: band and approximation ranges, DC/AC separation, AC scans
// single-component and preceded by that component's DC scan, and
// refinements arriving one bit at a time.
func checkScan(fi *frame.FrameInfo, scan *frame.ScanInfo, coefBits [][common.DCTSize2]int) error {
	if scan.Ss < 0 || scan.Ss >= common.DCTSize2 ||
		scan.Se < scan.Ss || scan.Se >= common.DCTSize2 ||
		scan.Ah < 0 || scan.Al < 0 {
		return common.ErrInvalidSOS
	}
	if scan.Ss == 0 {
		if scan.Se != 0 {
			return common.ErrInvalidSOS
		}
	} else if scan.CompsInScan != 1 {
		return common.ErrInvalidSOS
	}
	for i := 0; i < scan.CompsInScan; i++ {
		bits := &coefBits[scan.ComponentIndex[i]]
		if scan.Ss != 0 && bits[0] < 0 {
			return common.ErrInvalidSOS
		}
		for k := scan.Ss; k <= scan.Se; k++ {
			if bits[k] < 0 {
				if scan.Ah != 0 {
					return common.ErrInvalidSOS
				}
			} else if scan.Ah != bits[k] || scan.Al != scan.Ah-1 {
				return common.ErrInvalidSOS
			}
		}
	}
	return nil
}
