package common

import (
	"bytes"
	"testing"
)

func TestDeriveEncodeCanonicalCodes(t *testing.T) {
	tbl := BuildStandardHuffmanTable(StandardDCLuminanceBits, StandardDCLuminanceValues)
	enc, err := tbl.DeriveEncode(15)
	if err != nil {
		t.Fatalf("DeriveEncode failed: %v", err)
	}

	// Canonical codes for the standard DC luminance table (Annex K.3.1).
	want := []struct {
		sym  byte
		code uint32
		size int
	}{
		{0, 0x000, 2},
		{1, 0x002, 3},
		{2, 0x003, 3},
		{5, 0x006, 3},
		{6, 0x00E, 4},
		{7, 0x01E, 5},
		{11, 0x1FE, 9},
	}
	for _, w := range want {
		if enc.Code[w.sym] != w.code || enc.Size[w.sym] != w.size {
			t.Errorf("Symbol %d: got code %X/%d bits, want %X/%d bits",
				w.sym, enc.Code[w.sym], enc.Size[w.sym], w.code, w.size)
		}
	}
	if enc.Size[12] != 0 {
		t.Error("Symbol 12 has a code but is not in the table")
	}
}

func TestDeriveRejectsBadTables(t *testing.T) {
	tests := []struct {
		name      string
		table     *HuffmanTable
		maxSymbol int
	}{
		{
			name: "OverfullLevel",
			table: &HuffmanTable{
				Bits:   [16]int{3},
				Values: []byte{0, 1, 2},
			},
			maxSymbol: 255,
		},
		{
			name: "CountValueMismatch",
			table: &HuffmanTable{
				Bits:   [16]int{0, 2},
				Values: []byte{0},
			},
			maxSymbol: 255,
		},
		{
			name: "DuplicateSymbol",
			table: &HuffmanTable{
				Bits:   [16]int{0, 2},
				Values: []byte{4, 4},
			},
			maxSymbol: 255,
		},
		{
			name: "SymbolOutOfRange",
			table: &HuffmanTable{
				Bits:   [16]int{0, 2},
				Values: []byte{0, 16},
			},
			maxSymbol: 15,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.table.DeriveEncode(tt.maxSymbol); err != ErrBadHuffmanTable {
				t.Errorf("DeriveEncode: got %v, want ErrBadHuffmanTable", err)
			}
		})
	}
}

func TestDeriveDecodeLookahead(t *testing.T) {
	tbl := BuildStandardHuffmanTable(StandardDCLuminanceBits, StandardDCLuminanceValues)
	enc, err := tbl.DeriveEncode(15)
	if err != nil {
		t.Fatalf("DeriveEncode failed: %v", err)
	}
	dec, err := tbl.DeriveDecode(15)
	if err != nil {
		t.Fatalf("DeriveDecode failed: %v", err)
	}

	// Every code short enough for the fast path must resolve through the
	// lookahead tables, whatever bits follow it.
	for _, sym := range tbl.Values {
		size := enc.Size[sym]
		if size > LookaheadBits {
			continue
		}
		base := int(enc.Code[sym]) << uint(LookaheadBits-size)
		for fill := 0; fill < 1<<uint(LookaheadBits-size); fill++ {
			look := base + fill
			if dec.LookNBits[look] != size || dec.LookSym[look] != sym {
				t.Fatalf("Lookahead %08b: got symbol %d/%d bits, want %d/%d bits",
					look, dec.LookSym[look], dec.LookNBits[look], sym, size)
			}
		}
	}
}

func TestFreqCountsOptimal(t *testing.T) {
	var freq FreqCounts
	counts := map[byte]int64{0: 1000, 1: 500, 2: 100, 3: 10, 4: 1}
	for sym, n := range counts {
		freq[sym] = n
	}

	tbl, err := freq.Optimal()
	if err != nil {
		t.Fatalf("Optimal failed: %v", err)
	}
	enc, err := tbl.DeriveEncode(255)
	if err != nil {
		t.Fatalf("Derived table invalid: %v", err)
	}

	for sym := byte(0); sym <= 4; sym++ {
		if enc.Size[sym] == 0 {
			t.Fatalf("Symbol %d got no code", sym)
		}
		if enc.Size[sym] > 16 {
			t.Fatalf("Symbol %d code length %d exceeds 16", sym, enc.Size[sym])
		}
		// The reserved symbol keeps the all-ones pattern out of real codes.
		if enc.Code[sym] == 1<<uint(enc.Size[sym])-1 {
			t.Errorf("Symbol %d was assigned the all-ones code", sym)
		}
	}
	// More frequent symbols never get longer codes.
	for sym := byte(1); sym <= 4; sym++ {
		if enc.Size[sym-1] > enc.Size[sym] {
			t.Errorf("Symbol %d (freq %d) coded longer than symbol %d (freq %d)",
				sym-1, counts[sym-1], sym, counts[sym])
		}
	}

	if freq != (FreqCounts{}) {
		t.Error("Counts not consumed by Optimal")
	}
}

func TestFreqCountsSingleSymbol(t *testing.T) {
	var freq FreqCounts
	freq[7] = 42
	tbl, err := freq.Optimal()
	if err != nil {
		t.Fatalf("Optimal failed: %v", err)
	}
	enc, err := tbl.DeriveEncode(255)
	if err != nil {
		t.Fatalf("Derived table invalid: %v", err)
	}
	if enc.Size[7] == 0 {
		t.Fatal("The only symbol got no code")
	}
}

func TestHuffmanTableSegmentRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	tbl := BuildStandardHuffmanTable(StandardACLuminanceBits, StandardACLuminanceValues)
	if err := WriteHuffmanTable(w, 1, 2, tbl); err != nil {
		t.Fatalf("WriteHuffmanTable failed: %v", err)
	}

	r := NewReader(&buf)
	marker, err := r.ReadMarker()
	if err != nil {
		t.Fatalf("ReadMarker failed: %v", err)
	}
	if marker != MarkerDHT {
		t.Fatalf("Got marker %04X, want DHT", marker)
	}
	payload, err := r.ReadSegment()
	if err != nil {
		t.Fatalf("ReadSegment failed: %v", err)
	}

	seen := 0
	err = ParseHuffmanTables(payload, func(class, id byte, got *HuffmanTable) error {
		seen++
		if class != 1 || id != 2 {
			t.Errorf("Got class %d id %d, want 1/2", class, id)
		}
		if got.Bits != tbl.Bits || !bytes.Equal(got.Values, tbl.Values) {
			t.Error("Parsed table differs from the written one")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("ParseHuffmanTables failed: %v", err)
	}
	if seen != 1 {
		t.Errorf("Parsed %d tables, want 1", seen)
	}
}
