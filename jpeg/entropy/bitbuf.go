package entropy

import "errors"

// ErrBitBufOverflow is returned by Push when the buffer is already at capacity.
var ErrBitBufOverflow = errors.New("entropy: bit buffer overflow")

// BitBufCapacity is the number of BitGroups a BitBuf can hold.
const BitBufCapacity = 1024

// BitGroup is a variable-length code fragment: the low Len bits of Bits,
// sent MSB-first. Len is in [0, 16].
type BitGroup struct {
	Bits uint16
	Len  uint16
}

// BitBuf stages BitGroups before they are flushed to a BitWriter.
//
// A BitBuf is owned by a single encoder and is not safe for concurrent use.
// The zero value is an empty buffer ready to use.
type BitBuf struct {
	size int
	data [BitBufCapacity]BitGroup
}

// Push appends one group. It fails with ErrBitBufOverflow, leaving the
// buffer unchanged, if the buffer is full.
func (b *BitBuf) Push(g BitGroup) error {
	if b.size >= BitBufCapacity {
		return ErrBitBufOverflow
	}
	b.data[b.size] = g
	b.size++
	return nil
}

// PushCode appends a Huffman code followed by its magnitude bits.
// Zero-length magnitudes are not staged.
func (b *BitBuf) PushCode(code, bits BitGroup) error {
	n := 1
	if bits.Len > 0 {
		n = 2
	}
	if b.size+n > BitBufCapacity {
		return ErrBitBufOverflow
	}
	b.data[b.size] = code
	if n == 2 {
		b.data[b.size+1] = bits
	}
	b.size += n
	return nil
}

// pushAll appends gs as one unit: either every group is staged or, with
// ErrBitBufOverflow, none is.
func (b *BitBuf) pushAll(gs ...BitGroup) error {
	if b.size+len(gs) > BitBufCapacity {
		return ErrBitBufOverflow
	}
	b.size += copy(b.data[b.size:], gs)
	return nil
}

// Full reports whether fewer than Capacity/2 slots remain. The half-capacity
// reserve covers one full MCU (three blocks of at most MaxGroupsPerBlock).
func (b *BitBuf) Full() bool {
	return b.FullWithReserve(BitBufCapacity / 2)
}

// FullWithReserve reports whether Len()+reserve >= Capacity().
func (b *BitBuf) FullWithReserve(reserve int) bool {
	return b.size+reserve >= BitBufCapacity
}

// Remaining returns the number of free slots.
func (b *BitBuf) Remaining() int {
	return BitBufCapacity - b.size
}

// Len returns the number of staged groups.
func (b *BitBuf) Len() int {
	return b.size
}

// Capacity returns BitBufCapacity.
func (b *BitBuf) Capacity() int {
	return BitBufCapacity
}

// Groups returns the staged groups in push order. The slice aliases the
// buffer and is only valid until the next Push or Clear.
func (b *BitBuf) Groups() []BitGroup {
	return b.data[:b.size:b.size]
}

// Clear empties the buffer. Called right after a flush.
func (b *BitBuf) Clear() {
	b.size = 0
}
