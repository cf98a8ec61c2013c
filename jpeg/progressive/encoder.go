// Package progressive implements the progressive DCT JPEG entropy
// codec (SOF2): spectral selection and successive approximation over
// caller-supplied coefficient blocks, with block smoothing on decode
// of partially refined streams.
package progressive

import (
	"bytes"

	"github.com/cocosip/go-jpeg12/jpeg/bitio"
	"github.com/cocosip/go-jpeg12/jpeg/common"
	"github.com/cocosip/go-jpeg12/jpeg/control"
	"github.com/cocosip/go-jpeg12/jpeg/entropy"
	"github.com/cocosip/go-jpeg12/jpeg/frame"
)

// Encode entropy-codes a coefficient image into a progressive JPEG
// stream.
func Encode(img *Image, opts Options) ([]byte, error) {
	fi := &frame.FrameInfo{
		Width:           img.Width,
		Height:          img.Height,
		Precision:       img.Precision,
		Process:         frame.Progressive,
		RestartInterval: opts.RestartInterval,
		RestartInRows:   opts.RestartInRows,
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

	scans := opts.Scans
	if scans == nil {
		scans = DefaultScript(len(fi.Components))
	}
	proc, err := fi.ValidateScript(scans, false)
	if err != nil {
		return nil, err
	}
	if proc != frame.Progressive {
		return nil, frame.ErrBadScanScript
	}

	var out bytes.Buffer
	w := common.NewWriter(&out)
	if err := w.WriteMarker(common.MarkerSOI); err != nil {
		return nil, err
	}
	for id, t := range opts.QuantTables {
		if t == nil {
			continue
		}
		if id >= common.NumQuantTables {
			return nil, common.ErrInvalidDQT
		}
		if err := common.WriteQuantTable(w, byte(id), t); err != nil {
			return nil, err
		}
		fi.QuantTables[id] = t
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

		bw := bitio.NewWriter(&out)
		enc := entropy.NewProgressiveEncoder(fi, bw)
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
