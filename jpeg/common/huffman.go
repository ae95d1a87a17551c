package common

import "io"

// Code is one canonical Huffman code: symbol Sym is sent as the low Len bits
// of Bits, MSB first.
type Code struct {
	Sym  byte
	Bits uint16
	Len  uint8
}

// CanonicalCodes assigns the codes of a DHT bits/values pair in order of
// increasing length (JPEG Annex C). Both the encoder code tables and
// HuffmanTable are built from its result.
func CanonicalCodes(bits [16]int, values []byte) ([]Code, error) {
	total := 0
	for _, n := range bits {
		if n < 0 {
			return nil, ErrInvalidDHT
		}
		total += n
	}
	if total > len(values) || total > 256 {
		return nil, ErrInvalidDHT
	}

	codes := make([]Code, 0, total)
	code := 0
	for l := 1; l <= 16; l++ {
		for i := 0; i < bits[l-1]; i++ {
			if code >= 1<<l {
				return nil, ErrInvalidDHT
			}
			codes = append(codes, Code{Sym: values[len(codes)], Bits: uint16(code), Len: uint8(l)})
			code++
		}
		code <<= 1
	}
	return codes, nil
}

// lookupBits is the code length resolved by a single table probe.
const lookupBits = 8

// HuffmanTable is the decode side of one DHT table.
type HuffmanTable struct {
	Bits   [16]int
	Values []byte

	// lookup maps the next lookupBits bits to len<<8|sym; 0 means the code
	// is longer than lookupBits.
	lookup [1 << lookupBits]uint16

	// Per code length l: the first and last code and the index of the
	// first code in values. maxCode[l] is -1 when no code has length l.
	minCode [17]int32
	maxCode [17]int32
	valPtr  [17]int32
}

// Build derives the decode tables from Bits and Values.
func (h *HuffmanTable) Build() error {
	codes, err := CanonicalCodes(h.Bits, h.Values)
	if err != nil {
		return err
	}

	h.lookup = [1 << lookupBits]uint16{}
	for l := range h.maxCode {
		h.maxCode[l] = -1
	}
	for i, c := range codes {
		l := int(c.Len)
		if h.maxCode[l] < 0 {
			h.minCode[l] = int32(c.Bits)
			h.valPtr[l] = int32(i)
		}
		h.maxCode[l] = int32(c.Bits)

		if l <= lookupBits {
			shift := lookupBits - l
			first := int(c.Bits) << shift
			for j := 0; j < 1<<shift; j++ {
				h.lookup[first+j] = uint16(l)<<8 | uint16(c.Sym)
			}
		}
	}
	return nil
}

// HuffmanDecoder reads Huffman symbols and magnitude bits from one
// entropy-coded interval. Stuffed 0x00 bytes after 0xFF are skipped; any
// other byte after 0xFF ends the data.
type HuffmanDecoder struct {
	data []byte
	pos  int
	acc  uint32 // the low n bits are unread
	n    int
	err  error
}

// NewHuffmanDecoder returns a decoder over data.
func NewHuffmanDecoder(data []byte) *HuffmanDecoder {
	return &HuffmanDecoder{data: data}
}

func (d *HuffmanDecoder) fill() {
	for d.n <= 24 && d.err == nil {
		if d.pos >= len(d.data) {
			return
		}
		b := d.data[d.pos]
		d.pos++
		if b == 0xFF {
			if d.pos >= len(d.data) || d.data[d.pos] != 0x00 {
				// Marker inside the interval
				d.err = ErrInvalidData
				return
			}
			d.pos++
		}
		d.acc = d.acc<<8 | uint32(b)
		d.n += 8
	}
}

// peek returns the next l bits, zero-filled past the end of the data.
func (d *HuffmanDecoder) peek(l int) uint32 {
	if d.n >= l {
		return d.acc >> uint(d.n-l) & (1<<uint(l) - 1)
	}
	return d.acc << uint(l-d.n) & (1<<uint(l) - 1)
}

func (d *HuffmanDecoder) short() error {
	if d.err != nil {
		return d.err
	}
	return io.ErrUnexpectedEOF
}

// Decode reads the next symbol coded with table.
func (d *HuffmanDecoder) Decode(table *HuffmanTable) (byte, error) {
	d.fill()

	if e := table.lookup[d.peek(lookupBits)]; e != 0 {
		l := int(e >> 8)
		if l > d.n {
			return 0, d.short()
		}
		d.n -= l
		return byte(e), nil
	}

	for l := lookupBits + 1; l <= 16; l++ {
		if l > d.n {
			return 0, d.short()
		}
		if code := int32(d.peek(l)); code <= table.maxCode[l] {
			d.n -= l
			return table.Values[table.valPtr[l]+code-table.minCode[l]], nil
		}
	}
	return 0, ErrHuffmanDecode
}

// ReceiveExtend reads ssss magnitude bits and sign-extends them
// (RECEIVE and EXTEND of JPEG Annex F).
func (d *HuffmanDecoder) ReceiveExtend(ssss int) (int, error) {
	if ssss == 0 {
		return 0, nil
	}
	if ssss > 16 {
		return 0, ErrHuffmanDecode
	}
	d.fill()
	if ssss > d.n {
		return 0, d.short()
	}

	v := int(d.peek(ssss))
	d.n -= ssss
	if v < 1<<uint(ssss-1) {
		v += -1<<uint(ssss) + 1
	}
	return v, nil
}
