package common

import (
	"encoding/binary"
	"io"
)

// Writer writes JPEG markers and length-prefixed segments.
type Writer struct {
	w   io.Writer
	buf [2]byte
}

// NewWriter creates a new JPEG writer
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteUint16 writes a 16-bit big-endian value
func (w *Writer) WriteUint16(v uint16) error {
	binary.BigEndian.PutUint16(w.buf[:2], v)
	_, err := w.w.Write(w.buf[:2])
	return err
}

// WriteMarker writes a JPEG marker
func (w *Writer) WriteMarker(marker uint16) error {
	return w.WriteUint16(marker)
}

// WriteSegment writes a segment with length
// The length field is automatically calculated and includes itself (2 bytes)
func (w *Writer) WriteSegment(marker uint16, data []byte) error {
	if len(data)+2 > 0xFFFF {
		return ErrInvalidData
	}
	if err := w.WriteMarker(marker); err != nil {
		return err
	}

	if err := w.WriteUint16(uint16(len(data) + 2)); err != nil {
		return err
	}

	_, err := w.w.Write(data)
	return err
}

// WriteHuffmanTable writes a DHT segment for one table.
// class: ClassDC or ClassAC, id: destination 0 or 1.
func (w *Writer) WriteHuffmanTable(class, id byte, bits [16]int, values []byte) error {
	data := make([]byte, 1+16+len(values))
	data[0] = (class << 4) | id

	for i := 0; i < 16; i++ {
		data[1+i] = byte(bits[i])
	}
	copy(data[17:], values)

	return w.WriteSegment(MarkerDHT, data)
}

// Write writes raw bytes
func (w *Writer) Write(data []byte) (int, error) {
	return w.w.Write(data)
}
