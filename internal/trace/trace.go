// Package trace records the bit-group sequence of an entropy-coded scan so
// two encoder runs (for example two backends) can be compared offline.
//
// A trace file is a 16-byte header followed by the payload:
//
//	magic "JCTR" | version u8 | codec u8 | reserved u16 | groups u32 | raw size u32
//
// The payload is the group sequence as 4-byte records (bits u16, len u16,
// big-endian), compressed with the header's codec.
package trace

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/cocosip/jpegcore/jpeg/entropy"
)

const (
	magic      = "JCTR"
	version    = 1
	headerSize = 16
	recordSize = 4
)

var (
	// ErrInvalidTrace is returned when a trace header or payload is malformed.
	ErrInvalidTrace = errors.New("trace: invalid trace")
)

// Recorder collects every group drained by a BitWriter. It implements
// entropy.GroupObserver.
type Recorder struct {
	codec Codec
	raw   []byte
	n     int
}

// NewRecorder returns a Recorder that compresses with codec when written.
func NewRecorder(codec Codec) *Recorder {
	return &Recorder{codec: codec}
}

// ObserveGroups implements entropy.GroupObserver.
func (r *Recorder) ObserveGroups(groups []entropy.BitGroup) {
	for _, g := range groups {
		r.raw = binary.BigEndian.AppendUint16(r.raw, g.Bits)
		r.raw = binary.BigEndian.AppendUint16(r.raw, g.Len)
	}
	r.n += len(groups)
}

// Len returns the number of recorded groups.
func (r *Recorder) Len() int {
	return r.n
}

// WriteTo writes the trace file to w.
func (r *Recorder) WriteTo(w io.Writer) (int64, error) {
	codec := r.codec
	payload, err := compress(codec, r.raw)
	if errors.Is(err, errIncompressible) {
		codec, payload = CodecNone, r.raw
	} else if err != nil {
		return 0, err
	}

	var hdr [headerSize]byte
	copy(hdr[:4], magic)
	hdr[4] = version
	hdr[5] = byte(codec)
	binary.BigEndian.PutUint32(hdr[8:12], uint32(r.n))
	binary.BigEndian.PutUint32(hdr[12:16], uint32(len(r.raw)))

	n, err := w.Write(hdr[:])
	total := int64(n)
	if err != nil {
		return total, err
	}
	n, err = w.Write(payload)
	total += int64(n)
	return total, err
}

// Trace is a decoded trace file.
type Trace struct {
	Codec  Codec
	Groups []entropy.BitGroup
}

// Read decodes a trace file.
func Read(rd io.Reader) (*Trace, error) {
	var hdr [headerSize]byte
	if _, err := io.ReadFull(rd, hdr[:]); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrInvalidTrace, err)
	}
	if string(hdr[:4]) != magic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrInvalidTrace, hdr[:4])
	}
	if hdr[4] != version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidTrace, hdr[4])
	}
	codec := Codec(hdr[5])
	count := int(binary.BigEndian.Uint32(hdr[8:12]))
	size := int(binary.BigEndian.Uint32(hdr[12:16]))
	if size != count*recordSize {
		return nil, fmt.Errorf("%w: %d groups in %d bytes", ErrInvalidTrace, count, size)
	}

	payload, err := io.ReadAll(rd)
	if err != nil {
		return nil, err
	}
	raw, err := decompress(codec, payload, size)
	if err != nil {
		return nil, err
	}
	if len(raw) != size {
		return nil, fmt.Errorf("%w: payload %d bytes, want %d", ErrInvalidTrace, len(raw), size)
	}

	t := &Trace{Codec: codec, Groups: make([]entropy.BitGroup, count)}
	for i := range t.Groups {
		rec := raw[i*recordSize:]
		t.Groups[i] = entropy.BitGroup{
			Bits: binary.BigEndian.Uint16(rec[0:2]),
			Len:  binary.BigEndian.Uint16(rec[2:4]),
		}
	}
	return t, nil
}

// FirstDivergence returns the index of the first group at which a and b
// differ, or -1 if they are identical.
func FirstDivergence(a, b []entropy.BitGroup) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	if len(a) != len(b) {
		return n
	}
	return -1
}
