package frame

import "github.com/cocosip/go-jpeg12/jpeg/common"

// maxApproxBit bounds Ah/Al for progressive scans. Values above 10 can
// produce out-of-range DC reconstructions for 8-bit data, but for the
// 12-bit-capable pipeline the wider bound applies.
const maxApproxBit = 13

// ValidateScript checks a scan script for structural legality before any
// scheduling happens, and determines which process the script describes.
// lossless forces the lossless interpretation of Ss (predictor selector).
func (f *FrameInfo) ValidateScript(scans []ScanInfo, lossless bool) (Process, error) {
	if len(scans) == 0 {
		return 0, ErrBadScanScript
	}

	var process Process
	componentSent := make([]bool, len(f.Components))

	// lastBitPos[c][k] is -1 until coefficient k of component c has been
	// transmitted, then the Al of its most recent scan.
	var lastBitPos [][common.DCTSize2]int

	switch {
	case lossless:
		process = Lossless
	case scans[0].Ss != 0 || scans[0].Se != common.DCTSize2-1:
		process = Progressive
		lastBitPos = make([][common.DCTSize2]int, len(f.Components))
		for ci := range lastBitPos {
			for k := range lastBitPos[ci] {
				lastBitPos[ci][k] = -1
			}
		}
	default:
		process = Sequential
	}

	for scanno := range scans {
		s := &scans[scanno]
		if s.CompsInScan <= 0 || s.CompsInScan > common.MaxCompsInScan {
			return 0, ErrComponentCount
		}
		for ci := 0; ci < s.CompsInScan; ci++ {
			idx := s.ComponentIndex[ci]
			if idx < 0 || idx >= len(f.Components) {
				return 0, ErrBadScanScript
			}
			// Components must appear in SOF order within each scan.
			if ci > 0 && idx <= s.ComponentIndex[ci-1] {
				return 0, ErrBadScanScript
			}
		}

		ss, se, ah, al := s.Ss, s.Se, s.Ah, s.Al
		switch process {
		case Lossless:
			// Al (point transform) ranges over the data precision; the
			// nominal 0..15 of the format overshoots for narrow samples.
			if ss < 1 || ss > 7 || se != 0 || ah != 0 ||
				al < 0 || al >= f.Precision {
				return 0, ErrBadLosslessScript
			}
			for ci := 0; ci < s.CompsInScan; ci++ {
				idx := s.ComponentIndex[ci]
				if componentSent[idx] {
					return 0, ErrBadScanScript
				}
				componentSent[idx] = true
			}

		case Progressive:
			if ss < 0 || ss >= common.DCTSize2 || se < ss || se >= common.DCTSize2 ||
				ah < 0 || ah > maxApproxBit || al < 0 || al > maxApproxBit {
				return 0, ErrBadProgScript
			}
			if ss == 0 {
				if se != 0 { // DC and AC together not OK
					return 0, ErrBadProgScript
				}
			} else if s.CompsInScan != 1 { // AC scans are single-component
				return 0, ErrBadProgScript
			}
			for ci := 0; ci < s.CompsInScan; ci++ {
				bitpos := &lastBitPos[s.ComponentIndex[ci]]
				if ss != 0 && bitpos[0] < 0 { // AC without prior DC scan
					return 0, ErrBadProgScript
				}
				for k := ss; k <= se; k++ {
					if bitpos[k] < 0 {
						// First scan of this coefficient.
						if ah != 0 {
							return 0, ErrBadProgScript
						}
					} else {
						// Refinements must step one bit at a time.
						if ah != bitpos[k] || al != ah-1 {
							return 0, ErrBadProgScript
						}
					}
					bitpos[k] = al
				}
			}

		default: // Sequential
			if ss != 0 || se != common.DCTSize2-1 || ah != 0 || al != 0 {
				return 0, ErrBadProgScript
			}
			for ci := 0; ci < s.CompsInScan; ci++ {
				idx := s.ComponentIndex[ci]
				if componentSent[idx] {
					return 0, ErrBadScanScript
				}
				componentSent[idx] = true
			}
		}
	}

	// Everything must have been sent. Progressive mode only requires some
	// DC data per component; trailing coefficient bits may be omitted.
	if process == Progressive {
		for ci := range f.Components {
			if lastBitPos[ci][0] < 0 {
				return 0, ErrMissingData
			}
		}
	} else {
		for ci := range f.Components {
			if !componentSent[ci] {
				return 0, ErrMissingData
			}
		}
	}

	return process, nil
}
