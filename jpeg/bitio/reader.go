package bitio

import "github.com/cocosip/go-jpeg12/jpeg/common"

// Source supplies entropy-coded bytes to the Reader. Fill returns the
// next chunk of data, or ok=false when nothing is available right now
// (the reader then suspends; the same data must not be returned twice).
type Source interface {
	Fill() ([]byte, bool)
}

// BytesSource is a Source over an in-memory byte slice, delivered whole.
type BytesSource struct {
	data []byte
	done bool
}

// NewBytesSource creates a Source that hands out data in a single chunk.
func NewBytesSource(data []byte) *BytesSource {
	return &BytesSource{data: data}
}

// Fill returns the remaining data once, then reports exhaustion.
func (s *BytesSource) Fill() ([]byte, bool) {
	if s.done {
		return nil, false
	}
	s.done = true
	return s.data, true
}

// Reader unpacks entropy-coded bits: it strips the 0x00 stuffing byte
// after literal 0xFF data bytes and stops consuming at the first real
// marker, feeding zero bits from then on (the way the reference decoder
// handles truncated entropy segments).
//
// Mark/Rollback bracket one MCU: a suspension mid-MCU rolls the read
// position and bit state back so the whole MCU is retried when more data
// arrives.
type Reader struct {
	src     Source
	buf     []byte
	pos     int
	drained int // bytes discarded from buf by Commit

	acc      uint32
	nbits    int
	zeroFill bool // a marker follows; synthesize zero bits

	mPos   int
	mAcc   uint32
	mNBits int
	mZero  bool
}

// NewReader creates a Reader over src.
func NewReader(src Source) *Reader {
	return &Reader{src: src}
}

// rawByte returns the next byte without unstuffing. ok=false means the
// source has nothing right now (suspend).
func (r *Reader) rawByte() (byte, bool) {
	for r.pos >= len(r.buf) {
		chunk, ok := r.src.Fill()
		if !ok {
			return 0, false
		}
		if len(chunk) > 0 {
			r.buf = append(r.buf, chunk...)
		}
	}
	b := r.buf[r.pos]
	r.pos++
	return b, true
}

// peekByte is rawByte without consuming.
func (r *Reader) peekByte() (byte, bool) {
	b, ok := r.rawByte()
	if ok {
		r.pos--
	}
	return b, ok
}

// EnsureBits tops the accumulator up to at least n bits, unstuffing as it
// goes. It reports ok=false when the source suspends. After a marker is
// reached, zero bits are synthesized instead.
func (r *Reader) EnsureBits(n int) bool {
	for r.nbits < n {
		if r.zeroFill {
			r.acc <<= 8
			r.nbits += 8
			continue
		}

		b, ok := r.rawByte()
		if !ok {
			return false
		}
		if b == 0xFF {
			b2, ok := r.peekByte()
			if !ok {
				r.pos-- // un-consume the 0xFF
				return false
			}
			if b2 != 0x00 {
				// A real marker: stop here and feed zeros.
				r.pos--
				r.zeroFill = true
				continue
			}
			r.pos++ // swallow the stuffing byte
		}
		r.acc = (r.acc << 8) | uint32(b)
		r.nbits += 8
	}
	return true
}

// GetBits consumes n bits (the caller must have ensured them).
func (r *Reader) GetBits(n int) uint32 {
	if n == 0 {
		return 0
	}
	r.nbits -= n
	return (r.acc >> uint(r.nbits)) & ((1 << uint(n)) - 1)
}

// PeekBits returns the next n bits without consuming them.
func (r *Reader) PeekBits(n int) uint32 {
	return (r.acc >> uint(r.nbits-n)) & ((1 << uint(n)) - 1)
}

// Decode reads one Huffman symbol. ok=false means suspended.
func (r *Reader) Decode(tbl *common.DerivedDecodeTable) (sym byte, ok bool, err error) {
	if !r.EnsureBits(common.LookaheadBits) {
		return 0, false, nil
	}

	look := r.PeekBits(common.LookaheadBits)
	if nb := tbl.LookNBits[look]; nb != 0 {
		r.GetBits(nb)
		return tbl.LookSym[look], true, nil
	}

	// Slow path for codes longer than the lookahead.
	l := common.LookaheadBits
	code := int32(r.GetBits(l))
	for code > tbl.MaxCode[l] {
		if !r.EnsureBits(1) {
			return 0, false, nil
		}
		code = (code << 1) | int32(r.GetBits(1))
		l++
		if l > 16 {
			return 0, true, common.ErrHuffmanDecode
		}
	}

	idx := tbl.ValPtr[l] + int(code-tbl.MinCode[l])
	if idx < 0 || idx >= len(tbl.Values) {
		return 0, true, common.ErrHuffmanDecode
	}
	return tbl.Values[idx], true, nil
}

// ReceiveExtend reads nbits magnitude bits and sign-extends them per the
// JPEG EXTEND procedure. ok=false means suspended.
func (r *Reader) ReceiveExtend(nbits int) (val int32, ok bool) {
	if nbits == 0 {
		return 0, true
	}
	if !r.EnsureBits(nbits) {
		return 0, false
	}
	v := int32(r.GetBits(nbits))
	if v < int32(1)<<uint(nbits-1) {
		v += (int32(-1) << uint(nbits)) + 1
	}
	return v, true
}

// Mark records the read position and bit state for MCU-level retry.
func (r *Reader) Mark() {
	r.mPos = r.pos
	r.mAcc = r.acc
	r.mNBits = r.nbits
	r.mZero = r.zeroFill
}

// Rollback restores the state recorded by the last Mark.
func (r *Reader) Rollback() {
	r.pos = r.mPos
	r.acc = r.mAcc
	r.nbits = r.mNBits
	r.zeroFill = r.mZero
}

// Commit discards buffered bytes that can no longer be rolled back to.
func (r *Reader) Commit() {
	if r.pos > 1<<12 {
		r.buf = append(r.buf[:0], r.buf[r.pos:]...)
		r.drained += r.pos
		r.pos = 0
	}
	r.Mark()
}

// SyncRestart discards the partial byte and any pending bit state, then
// consumes the expected RSTn marker. ok=false means suspended.
func (r *Reader) SyncRestart(expected int) (ok bool, err error) {
	r.acc = 0
	r.nbits = 0
	r.zeroFill = false

	start := r.pos
	b, ok := r.rawByte()
	if !ok {
		r.pos = start
		return false, nil
	}
	if b != 0xFF {
		return true, ErrBadRestartMarker
	}
	// Tolerate 0xFF fill bytes before the marker code.
	for {
		b, ok = r.rawByte()
		if !ok {
			r.pos = start
			return false, nil
		}
		if b != 0xFF {
			break
		}
	}
	if b != 0xD0+byte(expected&7) {
		return true, ErrBadRestartMarker
	}
	return true, nil
}

// AtMarker reports whether the reader has reached a marker and is
// synthesizing zero bits.
func (r *Reader) AtMarker() bool {
	return r.zeroFill
}

// Consumed reports how many source bytes have been consumed so far.
// After the scan completes this locates the trailing marker.
func (r *Reader) Consumed() int {
	return r.drained + r.pos
}
