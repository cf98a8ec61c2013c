// Package lossless implements the JPEG lossless process (SOF3): a
// predictive codec for 2- to 16-bit samples with selectable predictor,
// point transform and restart intervals. Difference statistics are
// always gathered in a first pass so the emitted Huffman tables are
// optimal for the image.
package lossless

import (
	"bytes"
	"encoding/binary"

	"github.com/cocosip/go-jpeg12/jpeg/bitio"
	"github.com/cocosip/go-jpeg12/jpeg/common"
	"github.com/cocosip/go-jpeg12/jpeg/control"
	"github.com/cocosip/go-jpeg12/jpeg/entropy"
	"github.com/cocosip/go-jpeg12/jpeg/frame"
)

// Options controls lossless encoding beyond the required geometry.
type Options struct {
	// Predictor is the prediction selection value (1-7); 0 picks the
	// predictor with the lowest prediction error variance.
	Predictor int

	// PointTransform shifts samples right by this many bits before
	// prediction, trading precision for compression. Must be less than
	// the bit depth.
	PointTransform int

	// RestartInRows inserts a restart marker every N MCU rows; 0
	// disables restarts.
	RestartInRows int
}

// Encode encodes interleaved pixel data to a lossless JPEG stream.
// predictor is 0 for auto-select or 1-7 for a specific predictor.
func Encode(pixelData []byte, width, height, components, bitDepth, predictor int) ([]byte, error) {
	return EncodeOptions(pixelData, width, height, components, bitDepth,
		Options{Predictor: predictor})
}

// EncodeOptions encodes interleaved pixel data to a lossless JPEG
// stream. Samples wider than 8 bits are read little-endian.
func EncodeOptions(pixelData []byte, width, height, components, bitDepth int, opts Options) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, common.ErrInvalidDimensions
	}
	if components != 1 && components != 3 {
		return nil, common.ErrInvalidComponents
	}
	if bitDepth < 2 || bitDepth > 16 {
		return nil, common.ErrInvalidBitDepth
	}
	if opts.Predictor < 0 || opts.Predictor > 7 {
		return nil, common.ErrInvalidPredictor
	}
	if opts.PointTransform < 0 || opts.PointTransform >= bitDepth {
		return nil, common.ErrInvalidPrecision
	}

	bytesPerSample := (bitDepth + 7) / 8
	if len(pixelData) < width*height*components*bytesPerSample {
		return nil, common.ErrBufferTooSmall
	}

	fi := &frame.FrameInfo{
		Width:         width,
		Height:        height,
		Precision:     bitDepth,
		Process:       frame.Lossless,
		RestartInRows: opts.RestartInRows,
	}
	fi.Components = make([]*frame.Component, components)
	for i := range fi.Components {
		tbl := 0
		if i > 0 {
			tbl = 1
		}
		fi.Components[i] = &frame.Component{ID: i + 1, H: 1, V: 1, DCTable: tbl}
	}
	if err := fi.Setup(); err != nil {
		return nil, err
	}

	planes := loadPlanes(pixelData, width, height, components, bytesPerSample,
		bitDepth, opts.PointTransform)

	sel := opts.Predictor
	if sel == 0 {
		flat := make([][]uint16, len(planes))
		for i, p := range planes {
			flat[i] = p.pix
		}
		sel = SelectBestPredictor(flat, width, height)
	}

	scans := []frame.ScanInfo{{
		CompsInScan: components,
		Ss:          sel,
		Al:          opts.PointTransform,
	}}
	for i := 0; i < components; i++ {
		scans[0].ComponentIndex[i] = i
	}
	if _, err := fi.ValidateScript(scans, true); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := common.NewWriter(&buf)
	if err := w.WriteMarker(common.MarkerSOI); err != nil {
		return nil, err
	}
	if err := frame.WriteFrameHeader(w, fi); err != nil {
		return nil, err
	}

	var sent frame.SentTables
	driWritten := false
	for _, pass := range control.PlanCompression(fi, scans, true) {
		if err := fi.SelectScan(&scans[pass.ScanIndex]); err != nil {
			return nil, err
		}
		if err := fi.PerScanSetup(); err != nil {
			return nil, err
		}

		bw := bitio.NewWriter(&buf)
		enc := entropy.NewLosslessEncoder(fi, bw)
		ctrl, err := control.NewDiffEncodeController(fi)
		if err != nil {
			return nil, err
		}

		if pass.Kind == control.PassOutput {
			if err := frame.WriteScanHuffmanTables(w, fi, &sent); err != nil {
				return nil, err
			}
			if fi.RestartInterval > 0 && !driWritten {
				if err := frame.WriteRestartInterval(w, fi.RestartInterval); err != nil {
					return nil, err
				}
				driWritten = true
			}
			if err := frame.WriteScanHeader(w, fi); err != nil {
				return nil, err
			}
		}

		if err := enc.StartPass(pass.Kind == control.PassHuffOpt); err != nil {
			return nil, err
		}
		if err := ctrl.EncodeScan(newDifferencer(fi, planes), enc); err != nil {
			return nil, err
		}
		if err := enc.FinishPass(); err != nil {
			return nil, err
		}
		if pass.Kind == control.PassOutput {
			if _, err := bw.Drain(); err != nil {
				return nil, err
			}
		}
	}

	if err := w.WriteMarker(common.MarkerEOI); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// loadPlanes de-interleaves the input into per-component planes,
// masking each sample to the stated precision and applying the point
// transform.
func loadPlanes(pixelData []byte, width, height, components, bytesPerSample, bitDepth, pt int) []*plane {
	mask := uint16(1)<<uint(bitDepth) - 1
	planes := make([]*plane, components)
	for c := range planes {
		planes[c] = newPlane(width, height)
	}
	n := width * height
	for i := 0; i < n; i++ {
		for c := 0; c < components; c++ {
			var v uint16
			if bytesPerSample == 1 {
				v = uint16(pixelData[i*components+c])
			} else {
				v = binary.LittleEndian.Uint16(pixelData[2*(i*components+c):])
			}
			planes[c].pix[i] = (v & mask) >> uint(pt)
		}
	}
	return planes
}
