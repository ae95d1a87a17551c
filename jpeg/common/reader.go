package common

import (
	"bufio"
	"encoding/binary"
	"io"
)

// Reader reads JPEG markers, segments and entropy-coded data.
type Reader struct {
	r   *bufio.Reader
	buf [2]byte
}

// NewReader creates a new JPEG reader
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// ReadByte reads a single byte
func (r *Reader) ReadByte() (byte, error) {
	return r.r.ReadByte()
}

// ReadUint16 reads a 16-bit big-endian value
func (r *Reader) ReadUint16() (uint16, error) {
	if _, err := io.ReadFull(r.r, r.buf[:2]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(r.buf[:2]), nil
}

// ReadMarker reads the next JPEG marker, including the 0xFF prefix.
func (r *Reader) ReadMarker() (uint16, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	if b != 0xFF {
		return 0, ErrInvalidMarker
	}

	// Fill bytes
	for b == 0xFF {
		if b, err = r.ReadByte(); err != nil {
			return 0, err
		}
	}

	// 0x00 is a stuffed byte, not a marker
	if b == 0x00 {
		return 0, ErrInvalidMarker
	}

	return uint16(0xFF00) | uint16(b), nil
}

// ReadSegment reads a segment with its length
// Returns the segment data (without the length field)
func (r *Reader) ReadSegment() ([]byte, error) {
	length, err := r.ReadUint16()
	if err != nil {
		return nil, err
	}

	// Length includes itself (2 bytes)
	if length < 2 {
		return nil, ErrInvalidData
	}

	data := make([]byte, length-2)
	if _, err = io.ReadFull(r.r, data); err != nil {
		return nil, err
	}

	return data, nil
}

// ReadEntropySegment collects entropy-coded bytes up to the next non-RST
// marker. Stuffed 0xFF 0x00 pairs are kept for HuffmanDecoder; restart
// markers are dropped and reported through rst as the byte offset at which
// each one occurred. The terminating marker is returned as next (0 on EOF).
func (r *Reader) ReadEntropySegment() (data []byte, rst []int, next uint16, err error) {
	for {
		b, err := r.r.ReadByte()
		if err == io.EOF {
			return data, rst, 0, nil
		}
		if err != nil {
			return nil, nil, 0, err
		}
		if b != 0xFF {
			data = append(data, b)
			continue
		}

		b2, err := r.r.ReadByte()
		if err == io.EOF {
			return append(data, b), rst, 0, nil
		}
		if err != nil {
			return nil, nil, 0, err
		}

		switch m := uint16(0xFF00) | uint16(b2); {
		case b2 == 0x00:
			data = append(data, b, b2)
		case IsRST(m):
			rst = append(rst, len(data))
		case b2 == 0xFF:
			// Fill byte before a marker
			if err := r.r.UnreadByte(); err != nil {
				return nil, nil, 0, err
			}
		default:
			return data, rst, m, nil
		}
	}
}
