package entropy

import "io"

// GroupObserver sees every batch of groups a BitWriter drains, before the
// BitBuf is cleared. Used for tracing and fingerprinting a scan.
type GroupObserver interface {
	ObserveGroups(groups []BitGroup)
}

// BitWriter packs BitGroups MSB-first into an entropy-coded segment,
// inserting a 0x00 after every 0xFF byte.
type BitWriter struct {
	w         io.Writer
	acc       uint64
	nBits     uint
	out       []byte
	written   int64
	observers []GroupObserver
}

// NewBitWriter creates a BitWriter writing to w.
func NewBitWriter(w io.Writer, observers ...GroupObserver) *BitWriter {
	return &BitWriter{
		w:         w,
		out:       make([]byte, 0, 2*BitBufCapacity),
		observers: observers,
	}
}

// Drain packs all staged groups of buf, writes the completed bytes and
// clears buf.
func (e *BitWriter) Drain(buf *BitBuf) error {
	groups := buf.Groups()
	for _, o := range e.observers {
		o.ObserveGroups(groups)
	}
	e.pack(groups)
	buf.Clear()
	return e.writeOut()
}

func (e *BitWriter) pack(groups []BitGroup) {
	for _, g := range groups {
		if g.Len == 0 {
			continue
		}
		n := uint(g.Len)
		e.acc = e.acc<<n | uint64(g.Bits)&(1<<n-1)
		e.nBits += n

		for e.nBits >= 8 {
			e.nBits -= 8
			b := byte(e.acc >> e.nBits)
			e.out = append(e.out, b)
			if b == 0xFF {
				e.out = append(e.out, 0x00)
			}
		}
	}
}

// Pad fills the last partial byte with 1 bits and writes it. Called at the
// end of the scan and before each restart marker.
func (e *BitWriter) Pad() error {
	if e.nBits > 0 {
		pad := 8 - e.nBits
		e.pack([]BitGroup{{Bits: 1<<pad - 1, Len: uint16(pad)}})
	}
	e.acc = 0
	return e.writeOut()
}

func (e *BitWriter) writeOut() error {
	if len(e.out) == 0 {
		return nil
	}
	n, err := e.w.Write(e.out)
	e.written += int64(n)
	e.out = e.out[:0]
	return err
}

// Written returns the number of bytes written to the underlying writer.
func (e *BitWriter) Written() int64 {
	return e.written
}
