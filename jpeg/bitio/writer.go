// Package bitio implements the entropy-coded bit layer of the JPEG
// format: MSB-first bit packing with 0xFF byte stuffing on the way out,
// and unstuffing with marker awareness on the way in. Both directions are
// resumable: when the sink or source cannot move data right now, the
// caller gets a distinct "suspended" outcome and may retry later without
// losing or duplicating bits.
package bitio

// Sink receives entropy-coded bytes. Write returns the number of bytes
// accepted; a short count with a nil error means the sink has no more
// room right now and the writer should suspend.
type Sink interface {
	Write(p []byte) (int, error)
}

// Writer packs bits into bytes with JPEG byte stuffing. Bytes that the
// sink has not yet accepted stay queued inside the Writer, so a suspended
// drain is retried without re-encoding anything.
//
// Mark/Rollback give the entropy layer whole-MCU atomicity: a failed or
// abandoned MCU leaves no trace in the queued output or the accumulator.
type Writer struct {
	sink    Sink
	pending []byte

	acc   uint32 // accumulator, left-justified in 24 bits
	nbits int

	markAcc   uint32
	markNBits int
	markLen   int
}

// NewWriter creates a Writer draining into sink.
func NewWriter(sink Sink) *Writer {
	return &Writer{sink: sink}
}

// EmitBits appends the size low bits of code, most significant first.
// size must be in [1,16]; a zero size means the caller looked up a symbol
// with no assigned code, which is reported as ErrMissingCode.
func (w *Writer) EmitBits(code uint32, size int) error {
	if size == 0 {
		return ErrMissingCode
	}
	if size < 0 || size > 16 {
		return ErrBadBitCount
	}

	put := code & ((1 << uint(size)) - 1)
	n := w.nbits + size
	put <<= uint(24 - n)
	put |= w.acc

	for n >= 8 {
		b := byte(put >> 16)
		w.pending = append(w.pending, b)
		if b == 0xFF {
			w.pending = append(w.pending, 0x00)
		}
		put = (put << 8) & 0xFFFFFF
		n -= 8
	}
	w.acc = put
	w.nbits = n
	return nil
}

// FlushBits pads the current partial byte with 1-bits and resets the
// accumulator. Used at end of scan and before each restart marker.
func (w *Writer) FlushBits() error {
	if err := w.EmitBits(0x7F, 7); err != nil {
		return err
	}
	w.acc = 0
	w.nbits = 0
	return nil
}

// EmitRestartMarker flushes the bit buffer and appends an RSTn marker.
// Markers are written raw: no stuffing applies to them.
func (w *Writer) EmitRestartMarker(n int) error {
	if err := w.FlushBits(); err != nil {
		return err
	}
	w.pending = append(w.pending, 0xFF, 0xD0+byte(n&7))
	return nil
}

// Mark records the current output position and bit state.
func (w *Writer) Mark() {
	w.markAcc = w.acc
	w.markNBits = w.nbits
	w.markLen = len(w.pending)
}

// Rollback restores the state recorded by the last Mark. It is only valid
// if Drain has not run since the Mark.
func (w *Writer) Rollback() {
	w.acc = w.markAcc
	w.nbits = w.markNBits
	w.pending = w.pending[:w.markLen]
}

// Drain pushes queued bytes to the sink. It reports false (suspended)
// when the sink stops accepting data before the queue is empty; the
// remaining bytes stay queued and a later Drain resumes exactly there.
func (w *Writer) Drain() (bool, error) {
	for len(w.pending) > 0 {
		n, err := w.sink.Write(w.pending)
		if err != nil {
			return false, err
		}
		if n <= 0 {
			return false, nil
		}
		w.pending = w.pending[n:]
	}
	w.pending = w.pending[:0]
	return true, nil
}

// Pending reports how many bytes are queued but not yet accepted.
func (w *Writer) Pending() int {
	return len(w.pending)
}
