package common

// HuffmanTable represents a canonical JPEG Huffman table: Bits[i] is the
// number of codes of length i+1 bits, Values lists the symbols in code order.
type HuffmanTable struct {
	Bits   [16]int
	Values []byte
}

// maxCodeLength is the longest code the canonical generator may produce
// before the lengths are squeezed into the 16-bit limit the JPEG format
// allows (section K.2 of the standard).
const maxCodeLength = 32

// LookaheadBits is the width of the fast decode lookup.
const LookaheadBits = 8

// codeLengths expands Bits/Values into per-symbol codes and code lengths
// following Figures C.1 and C.2 of the JPEG standard.
func (t *HuffmanTable) codeLengths() (codes []int32, sizes []int, err error) {
	sizes = make([]int, 0, 257)
	for l := 1; l <= 16; l++ {
		n := t.Bits[l-1]
		if n < 0 || len(sizes)+n > 256 {
			return nil, nil, ErrBadHuffmanTable
		}
		for i := 0; i < n; i++ {
			sizes = append(sizes, l)
		}
	}
	if len(sizes) != len(t.Values) {
		return nil, nil, ErrBadHuffmanTable
	}

	codes = make([]int32, len(sizes))
	code := int32(0)
	si := 0
	if len(sizes) > 0 {
		si = sizes[0]
	}
	for p := 0; p < len(sizes); {
		for p < len(sizes) && sizes[p] == si {
			codes[p] = code
			code++
			p++
		}
		// The next code value must still fit in si bits.
		if code > int32(1)<<uint(si) {
			return nil, nil, ErrBadHuffmanTable
		}
		code <<= 1
		si++
	}
	return codes, sizes, nil
}

// DerivedEncodeTable holds per-symbol code/length pairs ready for emission.
// A Size of zero marks a symbol with no assigned code.
type DerivedEncodeTable struct {
	Code [257]uint32
	Size [257]int
}

// DeriveEncode builds the encoding side lookup. maxSymbol bounds the legal
// symbol values (15 for DCT DC tables, 16 for lossless difference tables,
// 255 for AC tables); anything beyond it is a corrupt table.
func (t *HuffmanTable) DeriveEncode(maxSymbol int) (*DerivedEncodeTable, error) {
	codes, sizes, err := t.codeLengths()
	if err != nil {
		return nil, err
	}
	d := &DerivedEncodeTable{}
	for p, sym := range t.Values {
		if int(sym) > maxSymbol || d.Size[sym] != 0 {
			return nil, ErrBadHuffmanTable
		}
		d.Code[sym] = uint32(codes[p])
		d.Size[sym] = sizes[p]
	}
	return d, nil
}

// DerivedDecodeTable holds the decode side lookup: a fast table covering
// codes of up to LookaheadBits bits, plus min/max code bounds per length
// for the slow path.
type DerivedDecodeTable struct {
	MinCode [17]int32
	MaxCode [18]int32 // MaxCode[17] is a can't-happen sentinel
	ValPtr  [17]int
	Values  []byte

	LookNBits [1 << LookaheadBits]int
	LookSym   [1 << LookaheadBits]byte
}

// DeriveDecode builds the decoding side lookup.
func (t *HuffmanTable) DeriveDecode(maxSymbol int) (*DerivedDecodeTable, error) {
	codes, _, err := t.codeLengths()
	if err != nil {
		return nil, err
	}
	for _, sym := range t.Values {
		if int(sym) > maxSymbol {
			return nil, ErrBadHuffmanTable
		}
	}

	d := &DerivedDecodeTable{Values: t.Values}
	p := 0
	for l := 1; l <= 16; l++ {
		if t.Bits[l-1] > 0 {
			d.ValPtr[l] = p
			d.MinCode[l] = codes[p]
			p += t.Bits[l-1]
			d.MaxCode[l] = codes[p-1]
		} else {
			d.MaxCode[l] = -1
		}
	}
	d.MaxCode[17] = 0xFFFFF

	p = 0
	for l := 1; l <= LookaheadBits; l++ {
		for i := 0; i < t.Bits[l-1]; i++ {
			// Fill every lookahead entry whose leading bits match this code.
			lookbits := int(codes[p]) << uint(LookaheadBits-l)
			for ctr := 1 << uint(LookaheadBits-l); ctr > 0; ctr-- {
				d.LookNBits[lookbits] = l
				d.LookSym[lookbits] = t.Values[p]
				lookbits++
			}
			p++
		}
	}
	return d, nil
}

// FreqCounts accumulates symbol frequencies during a statistics pass.
// Entry 256 is reserved: it is forced nonzero before code generation so
// every table contains at least one code and no real symbol is assigned
// the all-ones code pattern.
type FreqCounts [257]int64

// Optimal generates the canonical Huffman table minimizing the coded
// length of the recorded frequencies (JPEG section K.2). The receiver is
// consumed: code generation destroys the counts and the method zeroes
// what is left, so deriving twice from the same counts fails loudly
// instead of producing a garbage table.
func (f *FreqCounts) Optimal() (*HuffmanTable, error) {
	f[256] = 1

	var codesize [257]int
	var others [257]int
	for i := range others {
		others[i] = -1
	}

	// Huffman's algorithm, keeping chains of merged symbols in others[].
	// Ties go to the larger symbol value so the reserved symbol sinks to
	// the longest code.
	for {
		c1 := -1
		v := int64(1) << 62
		for i := 0; i <= 256; i++ {
			if f[i] != 0 && f[i] <= v {
				v = f[i]
				c1 = i
			}
		}
		c2 := -1
		v = int64(1) << 62
		for i := 0; i <= 256; i++ {
			if f[i] != 0 && f[i] <= v && i != c1 {
				v = f[i]
				c2 = i
			}
		}
		if c2 < 0 {
			break
		}

		f[c1] += f[c2]
		f[c2] = 0

		codesize[c1]++
		for others[c1] >= 0 {
			c1 = others[c1]
			codesize[c1]++
		}
		others[c1] = c2
		codesize[c2]++
		for others[c2] >= 0 {
			c2 = others[c2]
			codesize[c2]++
		}
	}

	var bits [maxCodeLength + 1]int
	for i := 0; i <= 256; i++ {
		if codesize[i] > 0 {
			if codesize[i] > maxCodeLength {
				return nil, ErrBadHuffmanTable
			}
			bits[codesize[i]]++
		}
	}

	// Squeeze codes longer than 16 bits into the allowed range by moving
	// symbol pairs up the tree (JPEG section K.2).
	for i := maxCodeLength; i > 16; i-- {
		for bits[i] > 0 {
			j := i - 2
			for bits[j] == 0 {
				j--
			}
			bits[i] -= 2
			bits[i-1]++
			bits[j+1] += 2
			bits[j]--
		}
	}

	// Remove the code assigned to the reserved symbol.
	i := 16
	for bits[i] == 0 {
		i--
	}
	bits[i]--

	tbl := &HuffmanTable{}
	copy(tbl.Bits[:], bits[1:17])
	for l := 1; l <= maxCodeLength; l++ {
		for sym := 0; sym <= 255; sym++ {
			if codesize[sym] == l {
				tbl.Values = append(tbl.Values, byte(sym))
			}
		}
	}

	*f = FreqCounts{} // consumed
	return tbl, nil
}
