package frame

import (
	"bytes"
	"testing"

	"github.com/cocosip/go-jpeg12/jpeg/common"
)

// subsampledFrame builds a 35x17 two-component DCT frame with 2x2 and
// 1x1 sampling, exercising edge clipping in both directions.
func subsampledFrame(process Process) *FrameInfo {
	return &FrameInfo{
		Width:     35,
		Height:    17,
		Precision: 8,
		Process:   process,
		Components: []*Component{
			{ID: 1, H: 2, V: 2},
			{ID: 2, H: 1, V: 1, QuantIdx: 1, DCTable: 1, ACTable: 1},
		},
	}
}

func TestSetupGeometry(t *testing.T) {
	fi := subsampledFrame(Sequential)
	if err := fi.Setup(); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	if fi.DataUnit != common.DCTSize {
		t.Errorf("DataUnit: got %d, want %d", fi.DataUnit, common.DCTSize)
	}
	if fi.MaxH != 2 || fi.MaxV != 2 {
		t.Errorf("MaxH/MaxV: got %d/%d, want 2/2", fi.MaxH, fi.MaxV)
	}
	if fi.TotaliMCURows != 2 {
		t.Errorf("TotaliMCURows: got %d, want 2", fi.TotaliMCURows)
	}

	c0, c1 := fi.Components[0], fi.Components[1]
	if c0.WidthInUnits != 5 || c0.HeightInUnits != 3 {
		t.Errorf("Component 0 units: got %dx%d, want 5x3", c0.WidthInUnits, c0.HeightInUnits)
	}
	if c0.DownsampledWidth != 35 || c0.DownsampledHeight != 17 {
		t.Errorf("Component 0 downsampled: got %dx%d, want 35x17",
			c0.DownsampledWidth, c0.DownsampledHeight)
	}
	if c1.WidthInUnits != 3 || c1.HeightInUnits != 2 {
		t.Errorf("Component 1 units: got %dx%d, want 3x2", c1.WidthInUnits, c1.HeightInUnits)
	}
	if c1.DownsampledWidth != 18 || c1.DownsampledHeight != 9 {
		t.Errorf("Component 1 downsampled: got %dx%d, want 18x9",
			c1.DownsampledWidth, c1.DownsampledHeight)
	}
}

func TestSetupLosslessUsesSampleUnits(t *testing.T) {
	fi := &FrameInfo{
		Width:      5,
		Height:     3,
		Precision:  12,
		Process:    Lossless,
		Components: []*Component{{ID: 1, H: 1, V: 1}},
	}
	if err := fi.Setup(); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if fi.DataUnit != 1 {
		t.Errorf("DataUnit: got %d, want 1", fi.DataUnit)
	}
	c := fi.Components[0]
	if c.WidthInUnits != 5 || c.HeightInUnits != 3 {
		t.Errorf("Units: got %dx%d, want 5x3", c.WidthInUnits, c.HeightInUnits)
	}
	if fi.TotaliMCURows != 3 {
		t.Errorf("TotaliMCURows: got %d, want 3", fi.TotaliMCURows)
	}
}

func TestSetupRejectsBadFrames(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(fi *FrameInfo)
		want   error
	}{
		{"ZeroWidth", func(fi *FrameInfo) { fi.Width = 0 }, ErrEmptyImage},
		{"NoComponents", func(fi *FrameInfo) { fi.Components = nil }, ErrEmptyImage},
		{"TooWide", func(fi *FrameInfo) { fi.Width = common.MaxDimension + 1 }, ErrImageTooBig},
		{"PrecisionTooLow", func(fi *FrameInfo) { fi.Precision = 1 }, ErrBadPrecision},
		{"PrecisionTooHigh", func(fi *FrameInfo) { fi.Precision = 17 }, ErrBadPrecision},
		{"SamplingTooBig", func(fi *FrameInfo) { fi.Components[0].H = 5 }, ErrBadSampling},
		{"SamplingZero", func(fi *FrameInfo) { fi.Components[1].V = 0 }, ErrBadSampling},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fi := subsampledFrame(Sequential)
			tt.mutate(fi)
			if err := fi.Setup(); err != tt.want {
				t.Errorf("Got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPerScanSetupInterleaved(t *testing.T) {
	fi := subsampledFrame(Sequential)
	if err := fi.Setup(); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if err := fi.SelectDefaultScan(); err != nil {
		t.Fatalf("SelectDefaultScan failed: %v", err)
	}
	if err := fi.PerScanSetup(); err != nil {
		t.Fatalf("PerScanSetup failed: %v", err)
	}

	if fi.MCUsPerRow != 3 || fi.MCURowsInScan != 2 {
		t.Errorf("MCU grid: got %dx%d, want 3x2", fi.MCUsPerRow, fi.MCURowsInScan)
	}
	if fi.BlocksInMCU != 5 {
		t.Errorf("BlocksInMCU: got %d, want 5", fi.BlocksInMCU)
	}
	wantMembership := []int{0, 0, 0, 0, 1}
	for i, want := range wantMembership {
		if fi.MCUMembership[i] != want {
			t.Errorf("MCUMembership[%d]: got %d, want %d", i, fi.MCUMembership[i], want)
		}
	}

	c0, c1 := fi.Components[0], fi.Components[1]
	if c0.MCUDataUnits != 4 || c0.MCUSampleWidth != 16 {
		t.Errorf("Component 0 MCU: got %d units/%d samples, want 4/16",
			c0.MCUDataUnits, c0.MCUSampleWidth)
	}
	if c0.LastColWidth != 1 || c0.LastRowHeight != 1 {
		t.Errorf("Component 0 edges: got %d/%d, want 1/1", c0.LastColWidth, c0.LastRowHeight)
	}
	if c1.MCUDataUnits != 1 || c1.LastColWidth != 1 || c1.LastRowHeight != 1 {
		t.Errorf("Component 1 MCU: got %d units, edges %d/%d, want 1, 1/1",
			c1.MCUDataUnits, c1.LastColWidth, c1.LastRowHeight)
	}
}

func TestPerScanSetupNoninterleaved(t *testing.T) {
	fi := subsampledFrame(Sequential)
	if err := fi.Setup(); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	scan := &ScanInfo{CompsInScan: 1, ComponentIndex: [common.MaxCompsInScan]int{1},
		Se: common.DCTSize2 - 1}
	if err := fi.SelectScan(scan); err != nil {
		t.Fatalf("SelectScan failed: %v", err)
	}
	if err := fi.PerScanSetup(); err != nil {
		t.Fatalf("PerScanSetup failed: %v", err)
	}

	if fi.MCUsPerRow != 3 || fi.MCURowsInScan != 2 {
		t.Errorf("MCU grid: got %dx%d, want 3x2", fi.MCUsPerRow, fi.MCURowsInScan)
	}
	if fi.BlocksInMCU != 1 {
		t.Errorf("BlocksInMCU: got %d, want 1", fi.BlocksInMCU)
	}
}

func TestRestartInRowsConversion(t *testing.T) {
	fi := subsampledFrame(Sequential)
	fi.RestartInRows = 2
	if err := fi.Setup(); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if err := fi.SelectDefaultScan(); err != nil {
		t.Fatalf("SelectDefaultScan failed: %v", err)
	}
	if err := fi.PerScanSetup(); err != nil {
		t.Fatalf("PerScanSetup failed: %v", err)
	}
	if fi.RestartInterval != 6 {
		t.Errorf("RestartInterval: got %d, want 6 (2 rows of 3 MCUs)", fi.RestartInterval)
	}
}

func TestSelectDefaultScanLossless(t *testing.T) {
	fi := &FrameInfo{
		Width: 4, Height: 4, Precision: 12, Process: Lossless,
		Components: []*Component{{ID: 1, H: 1, V: 1}},
	}
	if err := fi.Setup(); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if err := fi.SelectDefaultScan(); err != ErrNoScanScript {
		t.Errorf("Got %v, want ErrNoScanScript", err)
	}
}

func TestValidateScript(t *testing.T) {
	seq := func() *FrameInfo {
		fi := subsampledFrame(Sequential)
		fi.Setup()
		return fi
	}
	losslessFrame := func() *FrameInfo {
		fi := &FrameInfo{
			Width: 8, Height: 8, Precision: 12, Process: Lossless,
			Components: []*Component{{ID: 1, H: 1, V: 1}, {ID: 2, H: 1, V: 1}},
		}
		fi.Setup()
		return fi
	}
	fullBand := common.DCTSize2 - 1

	tests := []struct {
		name     string
		fi       *FrameInfo
		scans    []ScanInfo
		lossless bool
		process  Process
		wantErr  error
	}{
		{
			name:    "SequentialInterleaved",
			fi:      seq(),
			scans:   []ScanInfo{{CompsInScan: 2, ComponentIndex: [4]int{0, 1}, Se: fullBand}},
			process: Sequential,
		},
		{
			name: "SequentialSplitScans",
			fi:   seq(),
			scans: []ScanInfo{
				{CompsInScan: 1, ComponentIndex: [4]int{0}, Se: fullBand},
				{CompsInScan: 1, ComponentIndex: [4]int{1}, Se: fullBand},
			},
			process: Sequential,
		},
		{
			name: "SequentialComponentTwice",
			fi:   seq(),
			scans: []ScanInfo{
				{CompsInScan: 2, ComponentIndex: [4]int{0, 1}, Se: fullBand},
				{CompsInScan: 1, ComponentIndex: [4]int{0}, Se: fullBand},
			},
			wantErr: ErrBadScanScript,
		},
		{
			name:    "SequentialComponentMissing",
			fi:      seq(),
			scans:   []ScanInfo{{CompsInScan: 1, ComponentIndex: [4]int{0}, Se: fullBand}},
			wantErr: ErrMissingData,
		},
		{
			name:    "ComponentsOutOfOrder",
			fi:      seq(),
			scans:   []ScanInfo{{CompsInScan: 2, ComponentIndex: [4]int{1, 0}, Se: fullBand}},
			wantErr: ErrBadScanScript,
		},
		{
			name: "ProgressiveSpectralSelection",
			fi:   seq(),
			scans: []ScanInfo{
				{CompsInScan: 2, ComponentIndex: [4]int{0, 1}, Ss: 0, Se: 0},
				{CompsInScan: 1, ComponentIndex: [4]int{0}, Ss: 1, Se: 5},
				{CompsInScan: 1, ComponentIndex: [4]int{0}, Ss: 6, Se: fullBand},
				{CompsInScan: 1, ComponentIndex: [4]int{1}, Ss: 1, Se: fullBand},
			},
			process: Progressive,
		},
		{
			name: "ProgressiveRefinement",
			fi:   seq(),
			scans: []ScanInfo{
				{CompsInScan: 2, ComponentIndex: [4]int{0, 1}, Ss: 0, Se: 0, Al: 1},
				{CompsInScan: 2, ComponentIndex: [4]int{0, 1}, Ss: 0, Se: 0, Ah: 1, Al: 0},
			},
			process: Progressive,
		},
		{
			name: "ProgressiveDCAndACTogether",
			fi:   seq(),
			scans: []ScanInfo{
				{CompsInScan: 1, ComponentIndex: [4]int{0}, Ss: 0, Se: 5},
			},
			wantErr: ErrBadProgScript,
		},
		{
			name: "ProgressiveMultiComponentAC",
			fi:   seq(),
			scans: []ScanInfo{
				{CompsInScan: 2, ComponentIndex: [4]int{0, 1}, Ss: 0, Se: 0},
				{CompsInScan: 2, ComponentIndex: [4]int{0, 1}, Ss: 1, Se: fullBand},
			},
			wantErr: ErrBadProgScript,
		},
		{
			name: "ProgressiveACBeforeDC",
			fi:   seq(),
			scans: []ScanInfo{
				{CompsInScan: 1, ComponentIndex: [4]int{0}, Ss: 1, Se: fullBand},
			},
			wantErr: ErrBadProgScript,
		},
		{
			name: "ProgressiveRefinementSkipsBit",
			fi:   seq(),
			scans: []ScanInfo{
				{CompsInScan: 2, ComponentIndex: [4]int{0, 1}, Ss: 0, Se: 0, Al: 2},
				{CompsInScan: 2, ComponentIndex: [4]int{0, 1}, Ss: 0, Se: 0, Ah: 2, Al: 0},
			},
			wantErr: ErrBadProgScript,
		},
		{
			name: "ProgressiveMissingDC",
			fi:   seq(),
			scans: []ScanInfo{
				{CompsInScan: 1, ComponentIndex: [4]int{0}, Ss: 0, Se: 0},
			},
			wantErr: ErrMissingData,
		},
		{
			name:     "LosslessBothComponents",
			fi:       losslessFrame(),
			scans:    []ScanInfo{{CompsInScan: 2, ComponentIndex: [4]int{0, 1}, Ss: 4, Al: 2}},
			lossless: true,
			process:  Lossless,
		},
		{
			name:     "LosslessPredictorZero",
			fi:       losslessFrame(),
			scans:    []ScanInfo{{CompsInScan: 2, ComponentIndex: [4]int{0, 1}, Ss: 0}},
			lossless: true,
			wantErr:  ErrBadLosslessScript,
		},
		{
			name:     "LosslessPredictorTooBig",
			fi:       losslessFrame(),
			scans:    []ScanInfo{{CompsInScan: 2, ComponentIndex: [4]int{0, 1}, Ss: 8}},
			lossless: true,
			wantErr:  ErrBadLosslessScript,
		},
		{
			name:     "LosslessPointTransformTooBig",
			fi:       losslessFrame(),
			scans:    []ScanInfo{{CompsInScan: 2, ComponentIndex: [4]int{0, 1}, Ss: 1, Al: 12}},
			lossless: true,
			wantErr:  ErrBadLosslessScript,
		},
		{
			name: "LosslessComponentTwice",
			fi:   losslessFrame(),
			scans: []ScanInfo{
				{CompsInScan: 2, ComponentIndex: [4]int{0, 1}, Ss: 1},
				{CompsInScan: 1, ComponentIndex: [4]int{0}, Ss: 1},
			},
			lossless: true,
			wantErr:  ErrBadScanScript,
		},
		{
			name:     "EmptyScript",
			fi:       seq(),
			scans:    nil,
			wantErr:  ErrBadScanScript,
			lossless: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proc, err := tt.fi.ValidateScript(tt.scans, tt.lossless)
			if err != tt.wantErr {
				t.Fatalf("Got error %v, want %v", err, tt.wantErr)
			}
			if err == nil && proc != tt.process {
				t.Errorf("Got process %v, want %v", proc, tt.process)
			}
		})
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	fi := subsampledFrame(Sequential)
	fi.Precision = 12
	if err := fi.Setup(); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if err := fi.SelectDefaultScan(); err != nil {
		t.Fatalf("SelectDefaultScan failed: %v", err)
	}
	if err := fi.PerScanSetup(); err != nil {
		t.Fatalf("PerScanSetup failed: %v", err)
	}
	fi.DCTables[0] = common.BuildStandardHuffmanTable(
		common.ExtendedDCLuminanceBits, common.ExtendedDCLuminanceValues)
	fi.DCTables[1] = common.BuildStandardHuffmanTable(
		common.ExtendedDCChrominanceBits, common.ExtendedDCChrominanceValues)
	fi.ACTables[0] = common.BuildStandardHuffmanTable(
		common.StandardACLuminanceBits, common.StandardACLuminanceValues)
	fi.ACTables[1] = common.BuildStandardHuffmanTable(
		common.StandardACChrominanceBits, common.StandardACChrominanceValues)

	var buf bytes.Buffer
	w := common.NewWriter(&buf)
	if err := w.WriteMarker(common.MarkerSOI); err != nil {
		t.Fatalf("WriteMarker failed: %v", err)
	}
	if err := WriteFrameHeader(w, fi); err != nil {
		t.Fatalf("WriteFrameHeader failed: %v", err)
	}
	if err := WriteRestartInterval(w, 100); err != nil {
		t.Fatalf("WriteRestartInterval failed: %v", err)
	}
	var sent SentTables
	if err := WriteScanHuffmanTables(w, fi, &sent); err != nil {
		t.Fatalf("WriteScanHuffmanTables failed: %v", err)
	}
	if err := WriteScanHeader(w, fi); err != nil {
		t.Fatalf("WriteScanHeader failed: %v", err)
	}
	entropy := []byte{0x12, 0x34, 0x56}
	if err := w.WriteBytes(entropy); err != nil {
		t.Fatalf("WriteBytes failed: %v", err)
	}
	if err := w.WriteMarker(common.MarkerEOI); err != nil {
		t.Fatalf("WriteMarker failed: %v", err)
	}

	parsed := &FrameInfo{}
	p := NewHeaderParser(parsed, buf.Bytes())
	scan, done, err := p.NextScan()
	if err != nil {
		t.Fatalf("NextScan failed: %v", err)
	}
	if done {
		t.Fatal("NextScan reported EOI before the scan")
	}

	if parsed.Process != Sequential || parsed.Precision != 12 ||
		parsed.Width != 35 || parsed.Height != 17 {
		t.Errorf("Frame: got %v %d-bit %dx%d, want sequential 12-bit 35x17",
			parsed.Process, parsed.Precision, parsed.Width, parsed.Height)
	}
	if len(parsed.Components) != 2 {
		t.Fatalf("Got %d components, want 2", len(parsed.Components))
	}
	if parsed.Components[0].H != 2 || parsed.Components[0].V != 2 ||
		parsed.Components[1].H != 1 || parsed.Components[1].V != 1 {
		t.Error("Sampling factors did not survive the round trip")
	}
	if parsed.RestartInterval != 100 {
		t.Errorf("RestartInterval: got %d, want 100", parsed.RestartInterval)
	}
	if parsed.DCTables[0] == nil || parsed.DCTables[1] == nil ||
		parsed.ACTables[0] == nil || parsed.ACTables[1] == nil {
		t.Error("Huffman tables not parsed")
	}
	if scan.CompsInScan != 2 || scan.Ss != 0 || scan.Se != common.DCTSize2-1 {
		t.Errorf("Scan: got %d comps Ss=%d Se=%d, want 2 comps full band",
			scan.CompsInScan, scan.Ss, scan.Se)
	}
	if parsed.Components[1].DCTable != 1 || parsed.Components[1].ACTable != 1 {
		t.Error("Table selectors did not survive the round trip")
	}

	// The entropy slice must run through the trailing marker (a bit
	// reader needs to see it to zero-fill the final symbols), while the
	// parser itself advances only past the coded span.
	got := p.EntropyData()
	if !bytes.HasPrefix(got, entropy) {
		t.Errorf("EntropyData: got % X, want prefix % X", got, entropy)
	}
	if want := append(append([]byte{}, entropy...), 0xFF, 0xD9); !bytes.Equal(got, want) {
		t.Errorf("EntropyData tail: got % X, want % X", got, want)
	}
	if _, done, err := p.NextScan(); err != nil || !done {
		t.Errorf("Final NextScan: got done=%v err=%v, want EOI", done, err)
	}
}

func TestSOFMarkerSelection(t *testing.T) {
	tests := []struct {
		process   Process
		precision int
		want      uint16
	}{
		{Sequential, 8, common.MarkerSOF0},
		{Sequential, 12, common.MarkerSOF1},
		{Progressive, 8, common.MarkerSOF2},
		{Progressive, 12, common.MarkerSOF2},
		{Lossless, 16, common.MarkerSOF3},
	}
	for _, tt := range tests {
		fi := &FrameInfo{Process: tt.process, Precision: tt.precision}
		if got := fi.SOFMarker(); got != tt.want {
			t.Errorf("%v/%d-bit: got %04X, want %04X", tt.process, tt.precision, got, tt.want)
		}
	}
}
