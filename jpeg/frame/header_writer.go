package frame

import "github.com/cocosip/go-jpeg12/jpeg/common"

// SOFMarker returns the frame marker matching the process and
// precision.
func (f *FrameInfo) SOFMarker() uint16 {
	switch f.Process {
	case Progressive:
		return common.MarkerSOF2
	case Lossless:
		return common.MarkerSOF3
	default:
		if f.Precision > 8 {
			return common.MarkerSOF1
		}
		return common.MarkerSOF0
	}
}

// WriteFrameHeader writes the SOF segment.
func WriteFrameHeader(w *common.Writer, f *FrameInfo) error {
	data := make([]byte, 6+3*len(f.Components))
	data[0] = byte(f.Precision)
	data[1] = byte(f.Height >> 8)
	data[2] = byte(f.Height)
	data[3] = byte(f.Width >> 8)
	data[4] = byte(f.Width)
	data[5] = byte(len(f.Components))
	for i, c := range f.Components {
		data[6+3*i] = byte(c.ID)
		data[7+3*i] = byte(c.H<<4 | c.V)
		data[8+3*i] = byte(c.QuantIdx)
	}
	return w.WriteSegment(f.SOFMarker(), data)
}

// WriteScanHeader writes the SOS segment for the current scan.
func WriteScanHeader(w *common.Writer, f *FrameInfo) error {
	data := make([]byte, 1+2*f.CompsInScan+3)
	data[0] = byte(f.CompsInScan)
	for i := 0; i < f.CompsInScan; i++ {
		c := f.CurComps[i]
		data[1+2*i] = byte(c.ID)
		data[2+2*i] = byte(c.DCTable<<4 | c.ACTable)
	}
	data[1+2*f.CompsInScan] = byte(f.Ss)
	data[2+2*f.CompsInScan] = byte(f.Se)
	data[3+2*f.CompsInScan] = byte(f.Ah<<4 | f.Al)
	return w.WriteSegment(common.MarkerSOS, data)
}

// WriteRestartInterval writes a DRI segment.
func WriteRestartInterval(w *common.Writer, interval int) error {
	return w.WriteSegment(common.MarkerDRI, []byte{byte(interval >> 8), byte(interval)})
}

// SentTables tracks which Huffman tables have already been defined in
// the stream, so regenerated tables are re-sent and unchanged ones are
// not repeated.
type SentTables [2][common.NumHuffTables]*common.HuffmanTable

// WriteScanHuffmanTables writes DHT segments for the table slots the
// current scan selects, consulting and updating sent.
func WriteScanHuffmanTables(w *common.Writer, f *FrameInfo, sent *SentTables) error {
	needDC := !(f.Process == Progressive && f.Ss != 0)
	needAC := f.Process != Lossless && !(f.Process == Progressive && f.Ss == 0)
	if f.Process == Progressive && f.Ss == 0 && f.Ah != 0 {
		needDC = false // DC refinement codes raw bits
	}

	for i := 0; i < f.CompsInScan; i++ {
		c := f.CurComps[i]
		if needDC {
			t := f.DCTables[c.DCTable]
			if t == nil {
				return common.ErrNoHuffmanTable
			}
			if sent[0][c.DCTable] != t {
				if err := common.WriteHuffmanTable(w, 0, byte(c.DCTable), t); err != nil {
					return err
				}
				sent[0][c.DCTable] = t
			}
		}
		if needAC {
			t := f.ACTables[c.ACTable]
			if t == nil {
				return common.ErrNoHuffmanTable
			}
			if sent[1][c.ACTable] != t {
				if err := common.WriteHuffmanTable(w, 1, byte(c.ACTable), t); err != nil {
					return err
				}
				sent[1][c.ACTable] = t
			}
		}
	}
	return nil
}
