package frame

import "github.com/cocosip/go-jpeg12/jpeg/common"

// HeaderParser walks a complete JPEG stream held in memory, filling a
// FrameInfo from the SOF/DHT/DQT/DRI segments and surfacing each SOS
// in turn. The entropy data that follows a SOS is taken as a slice of
// the input, restart markers included.
type HeaderParser struct {
	data []byte
	pos  int
	f    *FrameInfo

	sawSOI bool
	sawSOF bool
}

// NewHeaderParser creates a parser over data that fills f.
func NewHeaderParser(f *FrameInfo, data []byte) *HeaderParser {
	return &HeaderParser{data: data, f: f}
}

func (p *HeaderParser) readMarker() (uint16, error) {
	if p.pos+1 >= len(p.data) {
		return 0, common.ErrUnexpectedEOF
	}
	if p.data[p.pos] != 0xFF {
		return 0, common.ErrInvalidMarker
	}
	p.pos++
	// Fill bytes before a marker code are legal.
	for p.pos < len(p.data) && p.data[p.pos] == 0xFF {
		p.pos++
	}
	if p.pos >= len(p.data) {
		return 0, common.ErrUnexpectedEOF
	}
	b := p.data[p.pos]
	p.pos++
	if b == 0x00 {
		return 0, common.ErrInvalidMarker
	}
	return 0xFF00 | uint16(b), nil
}

func (p *HeaderParser) readSegment() ([]byte, error) {
	if p.pos+2 > len(p.data) {
		return nil, common.ErrUnexpectedEOF
	}
	length := int(p.data[p.pos])<<8 | int(p.data[p.pos+1])
	if length < 2 || p.pos+length > len(p.data) {
		return nil, common.ErrInvalidData
	}
	seg := p.data[p.pos+2 : p.pos+length]
	p.pos += length
	return seg, nil
}

// NextScan consumes markers up to the next SOS, returning its scan
// parameters. done=true means EOI was reached instead. Table-defining
// segments met on the way update the FrameInfo in place.
func (p *HeaderParser) NextScan() (*ScanInfo, bool, error) {
	for {
		marker, err := p.readMarker()
		if err != nil {
			return nil, false, err
		}

		if !p.sawSOI {
			if marker != common.MarkerSOI {
				return nil, false, common.ErrInvalidSOI
			}
			p.sawSOI = true
			continue
		}

		switch {
		case marker == common.MarkerSOI:
			return nil, false, common.ErrInvalidMarker

		case common.IsSOF(marker):
			if err := p.parseSOF(marker); err != nil {
				return nil, false, err
			}

		case marker == common.MarkerDHT:
			seg, err := p.readSegment()
			if err != nil {
				return nil, false, err
			}
			err = common.ParseHuffmanTables(seg, func(class, id byte, t *common.HuffmanTable) error {
				if class == 0 {
					p.f.DCTables[id] = t
				} else {
					p.f.ACTables[id] = t
				}
				return nil
			})
			if err != nil {
				return nil, false, err
			}

		case marker == common.MarkerDQT:
			seg, err := p.readSegment()
			if err != nil {
				return nil, false, err
			}
			err = common.ParseQuantTables(seg, func(id byte, t *common.QuantTable) error {
				p.f.QuantTables[id] = t
				return nil
			})
			if err != nil {
				return nil, false, err
			}

		case marker == common.MarkerDRI:
			seg, err := p.readSegment()
			if err != nil {
				return nil, false, err
			}
			if len(seg) != 2 {
				return nil, false, common.ErrInvalidData
			}
			p.f.RestartInterval = int(seg[0])<<8 | int(seg[1])

		case marker == common.MarkerSOS:
			scan, err := p.parseSOS()
			if err != nil {
				return nil, false, err
			}
			return scan, false, nil

		case marker == common.MarkerEOI:
			return nil, true, nil

		case common.IsRST(marker):
			return nil, false, common.ErrInvalidMarker

		default:
			if common.HasLength(marker) {
				if _, err := p.readSegment(); err != nil {
					return nil, false, err
				}
			}
		}
	}
}

// EntropyData returns the stream from the entropy-coded data that
// follows the scan header just parsed, advancing the parser past the
// span. The slice runs to the end of the stream rather than stopping at
// the trailing marker: a bitio.Reader must see that marker to switch to
// synthesizing zero bits when the scan's final symbols end mid-byte.
func (p *HeaderParser) EntropyData() []byte {
	d := p.data[p.pos:]
	p.pos += common.EntropySpan(p.data, p.pos)
	return d
}

func (p *HeaderParser) parseSOF(marker uint16) error {
	if p.sawSOF {
		return common.ErrInvalidSOF
	}
	seg, err := p.readSegment()
	if err != nil {
		return err
	}
	if len(seg) < 6 {
		return common.ErrInvalidSOF
	}

	switch marker {
	case common.MarkerSOF0, common.MarkerSOF1:
		p.f.Process = Sequential
	case common.MarkerSOF2:
		p.f.Process = Progressive
	case common.MarkerSOF3:
		p.f.Process = Lossless
	default:
		return common.ErrUnsupportedFormat
	}

	p.f.Precision = int(seg[0])
	p.f.Height = int(seg[1])<<8 | int(seg[2])
	p.f.Width = int(seg[3])<<8 | int(seg[4])
	n := int(seg[5])
	if len(seg) != 6+3*n {
		return common.ErrInvalidSOF
	}

	p.f.Components = make([]*Component, n)
	for i := 0; i < n; i++ {
		p.f.Components[i] = &Component{
			ID:       int(seg[6+3*i]),
			H:        int(seg[7+3*i] >> 4),
			V:        int(seg[7+3*i] & 0x0F),
			QuantIdx: int(seg[8+3*i]),
		}
	}
	if err := p.f.Setup(); err != nil {
		return err
	}
	p.sawSOF = true
	return nil
}

func (p *HeaderParser) parseSOS() (*ScanInfo, error) {
	if !p.sawSOF {
		return nil, common.ErrInvalidSOS
	}
	seg, err := p.readSegment()
	if err != nil {
		return nil, err
	}
	if len(seg) < 1 {
		return nil, common.ErrInvalidSOS
	}
	n := int(seg[0])
	if n < 1 || n > common.MaxCompsInScan || len(seg) != 1+2*n+3 {
		return nil, common.ErrInvalidSOS
	}

	scan := &ScanInfo{CompsInScan: n}
	for i := 0; i < n; i++ {
		id := int(seg[1+2*i])
		sel := seg[2+2*i]
		idx := -1
		for j, c := range p.f.Components {
			if c.ID == id {
				idx = j
				break
			}
		}
		if idx < 0 {
			return nil, common.ErrInvalidSOS
		}
		scan.ComponentIndex[i] = idx
		p.f.Components[idx].DCTable = int(sel >> 4)
		p.f.Components[idx].ACTable = int(sel & 0x0F)
		if p.f.Components[idx].DCTable >= common.NumHuffTables ||
			p.f.Components[idx].ACTable >= common.NumHuffTables {
			return nil, common.ErrInvalidSOS
		}
	}
	scan.Ss = int(seg[1+2*n])
	scan.Se = int(seg[2+2*n])
	scan.Ah = int(seg[3+2*n] >> 4)
	scan.Al = int(seg[3+2*n] & 0x0F)
	return scan, nil
}
