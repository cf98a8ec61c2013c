package sequential

import (
	"github.com/cocosip/go-jpeg12/jpeg/bitio"
	"github.com/cocosip/go-jpeg12/jpeg/common"
	"github.com/cocosip/go-jpeg12/jpeg/control"
	"github.com/cocosip/go-jpeg12/jpeg/entropy"
	"github.com/cocosip/go-jpeg12/jpeg/frame"
)

// Decode parses a sequential JPEG stream and returns its coefficient
// image. The inverse DCT belongs to the caller.
func Decode(jpegData []byte) (*Image, error) {
	fi := &frame.FrameInfo{}
	parser := frame.NewHeaderParser(fi, jpegData)

	var (
		buf      *control.BlockBuffer
		compSent []bool
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
			if fi.Process != frame.Sequential {
				return nil, common.ErrUnsupportedFormat
			}
			buf = control.NewBlockBuffer(fi)
			compSent = make([]bool, len(fi.Components))
		}

		if scan.Ss != 0 || scan.Se != common.DCTSize2-1 || scan.Ah != 0 || scan.Al != 0 {
			return nil, common.ErrInvalidSOS
		}
		for i := 0; i < scan.CompsInScan; i++ {
			idx := scan.ComponentIndex[i]
			if compSent[idx] {
				return nil, common.ErrInvalidSOS
			}
			compSent[idx] = true
		}

		if err := fi.SelectScan(scan); err != nil {
			return nil, err
		}
		if err := fi.PerScanSetup(); err != nil {
			return nil, err
		}

		r := bitio.NewReader(bitio.NewBytesSource(parser.EntropyData()))
		dec := entropy.NewSequentialDecoder(fi, r)
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
	for _, ok := range compSent {
		if !ok {
			return nil, common.ErrInvalidData
		}
	}

	return extractImage(fi, buf), nil
}

// extractImage copies the real (unpadded) block extent of each
// component out of the decode buffer.
func extractImage(fi *frame.FrameInfo, buf *control.BlockBuffer) *Image {
	img := &Image{
		Width:      fi.Width,
		Height:     fi.Height,
		Precision:  fi.Precision,
		Components: make([]Component, len(fi.Components)),
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
				out.Blocks[r*c.WidthInUnits+col] = *buf.Block(i, r, col)
			}
		}
		img.Components[i] = out
	}
	return img
}
