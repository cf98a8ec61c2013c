package entropy

import (
	"bytes"
	"testing"

	"github.com/cocosip/go-jpeg12/jpeg/bitio"
	"github.com/cocosip/go-jpeg12/jpeg/common"
	"github.com/cocosip/go-jpeg12/jpeg/frame"
)

// grayFrame builds a one-component frame of wUnits x hUnits data units
// with the scan already selected and laid out.
func grayFrame(t *testing.T, process frame.Process, precision, wUnits, hUnits int) *frame.FrameInfo {
	t.Helper()
	unit := common.DCTSize
	if process == frame.Lossless {
		unit = 1
	}
	fi := &frame.FrameInfo{
		Width:      wUnits * unit,
		Height:     hUnits * unit,
		Precision:  precision,
		Process:    process,
		Components: []*frame.Component{{ID: 1, H: 1, V: 1}},
	}
	if err := fi.Setup(); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	return fi
}

func selectScan(t *testing.T, fi *frame.FrameInfo, scan *frame.ScanInfo) {
	t.Helper()
	if err := fi.SelectScan(scan); err != nil {
		t.Fatalf("SelectScan failed: %v", err)
	}
	if err := fi.PerScanSetup(); err != nil {
		t.Fatalf("PerScanSetup failed: %v", err)
	}
}

func TestSequentialMCURoundTrip(t *testing.T) {
	for _, restart := range []int{0, 3} {
		name := "Plain"
		if restart > 0 {
			name = "Restarted"
		}
		t.Run(name, func(t *testing.T) {
			fi := grayFrame(t, frame.Sequential, 12, 4, 2)
			fi.RestartInterval = restart
			selectScan(t, fi, &frame.ScanInfo{CompsInScan: 1, Se: common.DCTSize2 - 1})
			fi.DCTables[0] = common.BuildStandardHuffmanTable(
				common.ExtendedDCLuminanceBits, common.ExtendedDCLuminanceValues)
			fi.ACTables[0] = common.BuildStandardHuffmanTable(
				common.StandardACLuminanceBits, common.StandardACLuminanceValues)

			blocks := make([]common.Block, 8)
			for i := range blocks {
				blocks[i][0] = int32(i*700 - 2000) // DC swings across categories
				blocks[i][1] = int32(i - 4)
				blocks[i][9] = 4095
				if i%2 == 0 {
					blocks[i][60] = -1 // long zero run before a trailing value
				}
			}

			var out bytes.Buffer
			bw := bitio.NewWriter(&out)
			enc := NewSequentialEncoder(fi, bw)
			if err := enc.StartPass(false); err != nil {
				t.Fatalf("StartPass failed: %v", err)
			}
			for i := range blocks {
				if err := enc.EncodeMCU([]*common.Block{&blocks[i]}); err != nil {
					t.Fatalf("EncodeMCU %d failed: %v", i, err)
				}
			}
			if err := enc.FinishPass(); err != nil {
				t.Fatalf("FinishPass failed: %v", err)
			}
			if done, err := bw.Drain(); err != nil || !done {
				t.Fatalf("Drain: done=%v err=%v", done, err)
			}

			if restart > 0 {
				if !bytes.Contains(out.Bytes(), []byte{0xFF, 0xD0}) ||
					!bytes.Contains(out.Bytes(), []byte{0xFF, 0xD1}) {
					t.Error("Expected RST0 and RST1 in the restarted stream")
				}
			}

			dec := NewSequentialDecoder(fi, bitio.NewReader(bitio.NewBytesSource(out.Bytes())))
			if err := dec.StartPass(); err != nil {
				t.Fatalf("Decoder StartPass failed: %v", err)
			}
			for i := range blocks {
				var blk common.Block
				ok, err := dec.DecodeMCU([]*common.Block{&blk})
				if err != nil {
					t.Fatalf("DecodeMCU %d failed: %v", i, err)
				}
				if !ok {
					t.Fatalf("DecodeMCU %d suspended on complete data", i)
				}
				if blk != blocks[i] {
					t.Fatalf("Block %d differs:\ngot  %v\nwant %v", i, blk, blocks[i])
				}
			}
		})
	}
}

func TestSequentialMissingTable(t *testing.T) {
	fi := grayFrame(t, frame.Sequential, 8, 1, 1)
	selectScan(t, fi, &frame.ScanInfo{CompsInScan: 1, Se: common.DCTSize2 - 1})
	// No tables installed.
	enc := NewSequentialEncoder(fi, bitio.NewWriter(&bytes.Buffer{}))
	if err := enc.StartPass(false); err != common.ErrNoHuffmanTable {
		t.Errorf("Got %v, want ErrNoHuffmanTable", err)
	}
}

func TestLosslessDifferenceCoding(t *testing.T) {
	// Differences spanning every interesting category, including the
	// +/-32768 extreme that is coded as category 16 with no appended
	// bits. Values are compared modulo 2^16, the arithmetic the
	// reconstruction runs in.
	diffs := []int32{0, 1, -1, 2, -3, 255, -256, 4095, 32767, -32767, -32768, 32768, -2, 7, -100, 0}

	fi := grayFrame(t, frame.Lossless, 16, len(diffs), 1)
	selectScan(t, fi, &frame.ScanInfo{CompsInScan: 1, Ss: 1})

	in := [][][]int32{{diffs}}
	var out bytes.Buffer
	bw := bitio.NewWriter(&out)
	enc := NewLosslessEncoder(fi, bw)

	// Statistics pass builds the difference table, emission pass uses it.
	if err := enc.StartPass(true); err != nil {
		t.Fatalf("StartPass(gather) failed: %v", err)
	}
	if _, err := enc.EncodeMCUs(in, 0, len(diffs)); err != nil {
		t.Fatalf("Gather EncodeMCUs failed: %v", err)
	}
	if err := enc.FinishPass(); err != nil {
		t.Fatalf("Gather FinishPass failed: %v", err)
	}
	if err := enc.StartPass(false); err != nil {
		t.Fatalf("StartPass failed: %v", err)
	}
	if _, err := enc.EncodeMCUs(in, 0, len(diffs)); err != nil {
		t.Fatalf("EncodeMCUs failed: %v", err)
	}
	if err := enc.FinishPass(); err != nil {
		t.Fatalf("FinishPass failed: %v", err)
	}
	if done, err := bw.Drain(); err != nil || !done {
		t.Fatalf("Drain: done=%v err=%v", done, err)
	}

	got := [][][]int32{{make([]int32, len(diffs))}}
	dec := NewLosslessDecoder(fi, bitio.NewReader(bitio.NewBytesSource(out.Bytes())))
	if err := dec.StartPass(); err != nil {
		t.Fatalf("Decoder StartPass failed: %v", err)
	}
	n, err := dec.DecodeMCUs(got, 0, len(diffs))
	if err != nil {
		t.Fatalf("DecodeMCUs failed: %v", err)
	}
	if n != len(diffs) {
		t.Fatalf("Decoded %d MCUs, want %d", n, len(diffs))
	}
	for i, want := range diffs {
		if uint16(got[0][0][i]) != uint16(want) {
			t.Errorf("Difference %d: got %d, want %d (mod 2^16)", i, got[0][0][i], want)
		}
	}
}

func TestLosslessDecoderSuspension(t *testing.T) {
	diffs := []int32{100, -200, 300, -400}
	fi := grayFrame(t, frame.Lossless, 16, len(diffs), 1)
	selectScan(t, fi, &frame.ScanInfo{CompsInScan: 1, Ss: 1})
	fi.DCTables[0] = common.BuildStandardHuffmanTable(
		common.LosslessDCLuminanceBits, common.LosslessDCLuminanceValues)

	in := [][][]int32{{diffs}}
	var out bytes.Buffer
	bw := bitio.NewWriter(&out)
	enc := NewLosslessEncoder(fi, bw)
	if err := enc.StartPass(false); err != nil {
		t.Fatalf("StartPass failed: %v", err)
	}
	if _, err := enc.EncodeMCUs(in, 0, len(diffs)); err != nil {
		t.Fatalf("EncodeMCUs failed: %v", err)
	}
	if err := enc.FinishPass(); err != nil {
		t.Fatalf("FinishPass failed: %v", err)
	}
	if done, err := bw.Drain(); err != nil || !done {
		t.Fatalf("Drain: done=%v err=%v", done, err)
	}

	// Feed only the first byte: the decoder must stop cleanly at an MCU
	// boundary, then finish once the rest arrives.
	data := out.Bytes()
	src := &trickleSource{chunks: [][]byte{data[:1], nil, data[1:]}}
	got := [][][]int32{{make([]int32, len(diffs))}}
	dec := NewLosslessDecoder(fi, bitio.NewReader(src))
	if err := dec.StartPass(); err != nil {
		t.Fatalf("Decoder StartPass failed: %v", err)
	}

	done := 0
	for done < len(diffs) {
		n, err := dec.DecodeMCUs(got, done, len(diffs)-done)
		if err != nil {
			t.Fatalf("DecodeMCUs failed: %v", err)
		}
		if n == 0 && src.i >= len(src.chunks) {
			t.Fatal("Decoder stuck with all data delivered")
		}
		done += n
	}
	for i, want := range diffs {
		if uint16(got[0][0][i]) != uint16(want) {
			t.Errorf("Difference %d: got %d, want %d", i, got[0][0][i], want)
		}
	}
}

type trickleSource struct {
	chunks [][]byte
	i      int
}

func (s *trickleSource) Fill() ([]byte, bool) {
	if s.i >= len(s.chunks) {
		return nil, false
	}
	c := s.chunks[s.i]
	s.i++
	if c == nil {
		return nil, false
	}
	return c, true
}

func TestProgressiveACBandRoundTrip(t *testing.T) {
	// A sparse AC band: long end-of-band runs across blocks plus a ZRL
	// run inside one block.
	const nBlocks = 16
	blocks := make([]common.Block, nBlocks)
	blocks[0][common.NaturalOrder[1]] = 5
	blocks[0][common.NaturalOrder[40]] = -7 // 38 zeros before it
	blocks[9][common.NaturalOrder[63]] = 1
	blocks[15][common.NaturalOrder[2]] = -2047

	fi := grayFrame(t, frame.Progressive, 12, nBlocks, 1)
	selectScan(t, fi, &frame.ScanInfo{CompsInScan: 1, Ss: 1, Se: common.DCTSize2 - 1})

	var out bytes.Buffer
	bw := bitio.NewWriter(&out)
	enc := NewProgressiveEncoder(fi, bw)
	for _, gather := range []bool{true, false} {
		if err := enc.StartPass(gather); err != nil {
			t.Fatalf("StartPass(%v) failed: %v", gather, err)
		}
		for i := range blocks {
			if err := enc.EncodeMCU([]*common.Block{&blocks[i]}); err != nil {
				t.Fatalf("EncodeMCU %d failed: %v", i, err)
			}
		}
		if err := enc.FinishPass(); err != nil {
			t.Fatalf("FinishPass failed: %v", err)
		}
	}
	if done, err := bw.Drain(); err != nil || !done {
		t.Fatalf("Drain: done=%v err=%v", done, err)
	}

	dec := NewProgressiveDecoder(fi, bitio.NewReader(bitio.NewBytesSource(out.Bytes())))
	if err := dec.StartPass(); err != nil {
		t.Fatalf("Decoder StartPass failed: %v", err)
	}
	for i := range blocks {
		var blk common.Block
		ok, err := dec.DecodeMCU([]*common.Block{&blk})
		if err != nil {
			t.Fatalf("DecodeMCU %d failed: %v", i, err)
		}
		if !ok {
			t.Fatalf("DecodeMCU %d suspended on complete data", i)
		}
		if blk != blocks[i] {
			t.Fatalf("Block %d differs:\ngot  %v\nwant %v", i, blk, blocks[i])
		}
	}
}
