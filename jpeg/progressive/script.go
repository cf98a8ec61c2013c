package progressive

import (
	"github.com/cocosip/go-jpeg12/jpeg/common"
	"github.com/cocosip/go-jpeg12/jpeg/frame"
)

// DefaultScript builds a simple spectral-selection plus successive-
// approximation script for n components: an interleaved DC-first scan
// at one bit of approximation, a full AC band per component at the same
// approximation, then the DC and AC refinement scans.
func DefaultScript(n int) []frame.ScanInfo {
	scans := make([]frame.ScanInfo, 0, 2+2*n)

	dcFirst := frame.ScanInfo{CompsInScan: n, Ss: 0, Se: 0, Ah: 0, Al: 1}
	for i := 0; i < n; i++ {
		dcFirst.ComponentIndex[i] = i
	}
	scans = append(scans, dcFirst)

	for i := 0; i < n; i++ {
		scans = append(scans, frame.ScanInfo{
			CompsInScan:    1,
			ComponentIndex: [common.MaxCompsInScan]int{i},
			Ss:             1, Se: common.DCTSize2 - 1, Ah: 0, Al: 1,
		})
	}

	dcRefine := frame.ScanInfo{CompsInScan: n, Ss: 0, Se: 0, Ah: 1, Al: 0}
	for i := 0; i < n; i++ {
		dcRefine.ComponentIndex[i] = i
	}
	scans = append(scans, dcRefine)

	for i := 0; i < n; i++ {
		scans = append(scans, frame.ScanInfo{
			CompsInScan:    1,
			ComponentIndex: [common.MaxCompsInScan]int{i},
			Ss:             1, Se: common.DCTSize2 - 1, Ah: 1, Al: 0,
		})
	}
	return scans
}
