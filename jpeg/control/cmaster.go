package control

import "github.com/cocosip/go-jpeg12/jpeg/frame"

// PassKind distinguishes the two per-scan pass types of an encode.
type PassKind int

const (
	// PassHuffOpt gathers symbol statistics and replaces the scan's
	// table slots with optimal tables; it emits nothing.
	PassHuffOpt PassKind = iota
	// PassOutput writes the scan's headers and entropy data.
	PassOutput
)

// Pass is one scheduled pass over one scan.
type Pass struct {
	ScanIndex int
	Kind      PassKind
}

// PlanCompression schedules the encoding passes for a scan script:
// optionally a statistics pass, then an output pass, per scan.
//
// Optimization is forced on for the progressive and lossless processes
// regardless of the caller's choice: at 12-bit precision the default
// table constants do not cover those symbol sets. A DC refinement scan
// codes raw bits only, so its statistics pass is skipped and the pass
// numbering collapses around it.
func PlanCompression(fi *frame.FrameInfo, scans []frame.ScanInfo, optimize bool) []Pass {
	if fi.Process == frame.Progressive || fi.Process == frame.Lossless {
		optimize = true
	}

	passes := make([]Pass, 0, 2*len(scans))
	for i := range scans {
		if optimize && scanNeedsOptimization(fi, &scans[i]) {
			passes = append(passes, Pass{ScanIndex: i, Kind: PassHuffOpt})
		}
		passes = append(passes, Pass{ScanIndex: i, Kind: PassOutput})
	}
	return passes
}

// scanNeedsOptimization reports whether a scan uses Huffman tables at
// all. Only progressive DC refinement scans do not.
func scanNeedsOptimization(fi *frame.FrameInfo, s *frame.ScanInfo) bool {
	if fi.Process == frame.Progressive && s.Ss == 0 && s.Ah != 0 {
		return false
	}
	return true
}
