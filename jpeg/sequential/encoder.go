// Package sequential implements the sequential DCT JPEG entropy codec
// (SOF0 baseline and SOF1 extended, 2- to 16-bit precision) over
// caller-supplied coefficient blocks.
package sequential

import (
	"bytes"

	"github.com/cocosip/go-jpeg12/jpeg/bitio"
	"github.com/cocosip/go-jpeg12/jpeg/common"
	"github.com/cocosip/go-jpeg12/jpeg/control"
	"github.com/cocosip/go-jpeg12/jpeg/entropy"
	"github.com/cocosip/go-jpeg12/jpeg/frame"
)

// Encode entropy-codes a coefficient image into a sequential JPEG
// stream.
func Encode(img *Image, opts Options) ([]byte, error) {
	fi, err := setupFrame(img, frame.Sequential, opts.RestartInterval, opts.RestartInRows)
	if err != nil {
		return nil, err
	}

	buf, err := fillBuffer(fi, img)
	if err != nil {
		return nil, err
	}

	scans := opts.Scans
	if scans == nil {
		scans = defaultScan(fi)
	}
	proc, err := fi.ValidateScript(scans, false)
	if err != nil {
		return nil, err
	}
	if proc != frame.Sequential {
		return nil, frame.ErrBadScanScript
	}

	if !opts.Optimize {
		installDefaultTables(fi)
	}

	var out bytes.Buffer
	w := common.NewWriter(&out)
	if err := w.WriteMarker(common.MarkerSOI); err != nil {
		return nil, err
	}
	if err := writeQuantTables(w, fi, opts.QuantTables); err != nil {
		return nil, err
	}
	if err := frame.WriteFrameHeader(w, fi); err != nil {
		return nil, err
	}

	var sent frame.SentTables
	driWritten := false
	for _, pass := range control.PlanCompression(fi, scans, opts.Optimize) {
		if err := fi.SelectScan(&scans[pass.ScanIndex]); err != nil {
			return nil, err
		}
		if err := fi.PerScanSetup(); err != nil {
			return nil, err
		}

		bw := bitio.NewWriter(&out)
		enc := entropy.NewSequentialEncoder(fi, bw)
		ctrl := control.NewEncodeCoefController(fi, buf)

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
		if err := ctrl.EncodeScan(enc); err != nil {
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
	return out.Bytes(), nil
}

// setupFrame builds and validates a FrameInfo from the image geometry.
// Table slot assignment follows the usual luma/chroma split: the first
// component uses slot 0, the rest slot 1.
func setupFrame(img *Image, proc frame.Process, restartInterval, restartInRows int) (*frame.FrameInfo, error) {
	fi := &frame.FrameInfo{
		Width:           img.Width,
		Height:          img.Height,
		Precision:       img.Precision,
		Process:         proc,
		RestartInterval: restartInterval,
		RestartInRows:   restartInRows,
	}
	fi.Components = make([]*frame.Component, len(img.Components))
	for i := range img.Components {
		c := &img.Components[i]
		tbl := 0
		if i > 0 {
			tbl = 1
		}
		fi.Components[i] = &frame.Component{
			ID:       i + 1,
			H:        c.H,
			V:        c.V,
			QuantIdx: c.QuantIdx,
			DCTable:  tbl,
			ACTable:  tbl,
		}
	}
	if err := fi.Setup(); err != nil {
		return nil, err
	}
	return fi, nil
}

// fillBuffer copies the caller's blocks into a padded coefficient
// buffer and synthesizes the edge dummies.
func fillBuffer(fi *frame.FrameInfo, img *Image) (*control.BlockBuffer, error) {
	buf := control.NewBlockBuffer(fi)
	for i, c := range fi.Components {
		blocks := img.Components[i].Blocks
		if len(blocks) != c.WidthInUnits*c.HeightInUnits {
			return nil, common.ErrBufferTooSmall
		}
		for r := 0; r < c.HeightInUnits; r++ {
			for col := 0; col < c.WidthInUnits; col++ {
				*buf.Block(i, r, col) = blocks[r*c.WidthInUnits+col]
			}
		}
	}
	buf.PadEdges()
	return buf, nil
}

// defaultScan builds the single fully interleaved scan.
func defaultScan(fi *frame.FrameInfo) []frame.ScanInfo {
	s := frame.ScanInfo{
		CompsInScan: len(fi.Components),
		Se:          common.DCTSize2 - 1,
	}
	for i := range fi.Components {
		s.ComponentIndex[i] = i
	}
	return []frame.ScanInfo{s}
}

// installDefaultTables fills empty table slots 0 and 1 with the
// standard constants for a non-optimizing encode. Above 8-bit precision
// the wider DC constants are used; AC symbols beyond the standard
// tables surface as ErrMissingCode during coding.
func installDefaultTables(fi *frame.FrameInfo) {
	if fi.DCTables[0] == nil {
		if fi.Precision > 8 {
			fi.DCTables[0] = common.BuildStandardHuffmanTable(
				common.ExtendedDCLuminanceBits, common.ExtendedDCLuminanceValues)
		} else {
			fi.DCTables[0] = common.BuildStandardHuffmanTable(
				common.StandardDCLuminanceBits, common.StandardDCLuminanceValues)
		}
	}
	if fi.DCTables[1] == nil {
		if fi.Precision > 8 {
			fi.DCTables[1] = common.BuildStandardHuffmanTable(
				common.ExtendedDCChrominanceBits, common.ExtendedDCChrominanceValues)
		} else {
			fi.DCTables[1] = common.BuildStandardHuffmanTable(
				common.StandardDCChrominanceBits, common.StandardDCChrominanceValues)
		}
	}
	if fi.ACTables[0] == nil {
		fi.ACTables[0] = common.BuildStandardHuffmanTable(
			common.StandardACLuminanceBits, common.StandardACLuminanceValues)
	}
	if fi.ACTables[1] == nil {
		fi.ACTables[1] = common.BuildStandardHuffmanTable(
			common.StandardACChrominanceBits, common.StandardACChrominanceValues)
	}
}

// writeQuantTables emits DQT segments and records the tables in the
// frame's slots.
func writeQuantTables(w *common.Writer, fi *frame.FrameInfo, tables []*common.QuantTable) error {
	for id, t := range tables {
		if t == nil {
			continue
		}
		if id >= common.NumQuantTables {
			return common.ErrInvalidDQT
		}
		if err := common.WriteQuantTable(w, byte(id), t); err != nil {
			return err
		}
		fi.QuantTables[id] = t
	}
	return nil
}
