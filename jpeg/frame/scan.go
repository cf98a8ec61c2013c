package frame

import "github.com/cocosip/go-jpeg12/jpeg/common"

// ScanInfo describes one scan of a multi-scan script. For progressive
// scans Ss/Se/Ah/Al carry spectral selection and successive approximation;
// for lossless scans Ss is the predictor selector and Al the point
// transform.
type ScanInfo struct {
	CompsInScan    int
	ComponentIndex [common.MaxCompsInScan]int
	Ss, Se         int
	Ah, Al         int
}

// SelectScan establishes scan parameters from a script entry.
// The script must already have been validated.
func (f *FrameInfo) SelectScan(s *ScanInfo) error {
	if s.CompsInScan < 1 || s.CompsInScan > common.MaxCompsInScan {
		return ErrComponentCount
	}
	f.CompsInScan = s.CompsInScan
	for i := 0; i < s.CompsInScan; i++ {
		idx := s.ComponentIndex[i]
		if idx < 0 || idx >= len(f.Components) {
			return ErrBadScanScript
		}
		f.CurComps[i] = f.Components[idx]
	}
	f.Ss, f.Se, f.Ah, f.Al = s.Ss, s.Se, s.Ah, s.Al
	return nil
}

// SelectDefaultScan establishes the single full-interleave sequential scan
// used when no script is supplied. Lossless frames always need a script.
func (f *FrameInfo) SelectDefaultScan() error {
	if f.Process == Lossless {
		return ErrNoScanScript
	}
	if len(f.Components) > common.MaxCompsInScan {
		return ErrComponentCount
	}
	f.CompsInScan = len(f.Components)
	for i, c := range f.Components {
		f.CurComps[i] = c
	}
	f.Ss, f.Se, f.Ah, f.Al = 0, common.DCTSize2-1, 0, 0
	return nil
}

// PerScanSetup computes the MCU layout for the current scan: overall MCU
// grid, each component's share of an MCU, edge-clipping values, and the
// membership order of data units within an MCU.
func (f *FrameInfo) PerScanSetup() error {
	if f.CompsInScan == 1 {
		// Noninterleaved scan: one data unit per MCU.
		c := f.CurComps[0]
		f.MCUsPerRow = c.WidthInUnits
		f.MCURowsInScan = c.HeightInUnits

		c.MCUWidth = 1
		c.MCUHeight = 1
		c.MCUDataUnits = 1
		c.MCUSampleWidth = f.DataUnit
		c.LastColWidth = 1
		// Convenient definition: data unit rows present in the last iMCU row.
		tmp := c.HeightInUnits % c.V
		if tmp == 0 {
			tmp = c.V
		}
		c.LastRowHeight = tmp

		f.BlocksInMCU = 1
		f.MCUMembership[0] = 0
	} else {
		if f.CompsInScan < 1 || f.CompsInScan > common.MaxCompsInScan {
			return ErrComponentCount
		}

		f.MCUsPerRow = divRoundUp(f.Width, f.MaxH*f.DataUnit)
		f.MCURowsInScan = divRoundUp(f.Height, f.MaxV*f.DataUnit)

		f.BlocksInMCU = 0
		for ci := 0; ci < f.CompsInScan; ci++ {
			c := f.CurComps[ci]
			c.MCUWidth = c.H
			c.MCUHeight = c.V
			c.MCUDataUnits = c.MCUWidth * c.MCUHeight
			c.MCUSampleWidth = c.MCUWidth * f.DataUnit

			tmp := c.WidthInUnits % c.MCUWidth
			if tmp == 0 {
				tmp = c.MCUWidth
			}
			c.LastColWidth = tmp
			tmp = c.HeightInUnits % c.MCUHeight
			if tmp == 0 {
				tmp = c.MCUHeight
			}
			c.LastRowHeight = tmp

			if f.BlocksInMCU+c.MCUDataUnits > common.MaxBlocksInMCU {
				return ErrBadMCUSize
			}
			for n := 0; n < c.MCUDataUnits; n++ {
				f.MCUMembership[f.BlocksInMCU] = ci
				f.BlocksInMCU++
			}
		}
	}

	// A restart interval given in rows converts to an MCU count, clamped
	// to the 16-bit DRI field.
	if f.RestartInRows > 0 {
		nominal := f.RestartInRows * f.MCUsPerRow
		if nominal > 65535 {
			nominal = 65535
		}
		f.RestartInterval = nominal
	}
	return nil
}
