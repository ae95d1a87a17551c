package trace

import (
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec identifies how a trace payload is compressed.
type Codec uint8

const (
	CodecNone Codec = iota
	CodecZstd
	CodecS2
	CodecLZ4
)

// ErrUnknownCodec is returned for an unrecognised codec name or id.
var ErrUnknownCodec = errors.New("trace: unknown codec")

func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecZstd:
		return "zstd"
	case CodecS2:
		return "s2"
	case CodecLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("codec(%d)", uint8(c))
	}
}

// ParseCodec maps a name as printed by String back to a Codec.
func ParseCodec(name string) (Codec, error) {
	for c := CodecNone; c <= CodecLZ4; c++ {
		if c.String() == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
}

var zstdEncoderPool = sync.Pool{
	New: func() any {
		enc, err := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.SpeedDefault),
			zstd.WithEncoderCRC(false),
		)
		if err != nil {
			panic(fmt.Sprintf("trace: zstd encoder: %v", err))
		}
		return enc
	},
}

var zstdDecoderPool = sync.Pool{
	New: func() any {
		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		if err != nil {
			panic(fmt.Sprintf("trace: zstd decoder: %v", err))
		}
		return dec
	},
}

func compress(c Codec, raw []byte) ([]byte, error) {
	if len(raw) == 0 && c <= CodecLZ4 {
		return nil, nil
	}
	switch c {
	case CodecNone:
		return raw, nil
	case CodecZstd:
		enc := zstdEncoderPool.Get().(*zstd.Encoder)
		defer zstdEncoderPool.Put(enc)
		return enc.EncodeAll(raw, nil), nil
	case CodecS2:
		return s2.Encode(nil, raw), nil
	case CodecLZ4:
		dst := make([]byte, lz4.CompressBlockBound(len(raw)))
		var lc lz4.Compressor
		n, err := lc.CompressBlock(raw, dst)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			// Incompressible input; lz4 leaves it to the caller to store raw.
			return nil, errIncompressible
		}
		return dst[:n], nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCodec, uint8(c))
	}
}

var errIncompressible = errors.New("trace: payload incompressible")

// Expansion bounds per input byte. An lz4 length byte adds at most 255
// output bytes; a zstd RLE block turns 4 bytes into at most 128 KiB.
const (
	lz4MaxRatio  = 255
	zstdMaxRatio = 1 << 15
)

// decompress restores a payload whose uncompressed size is known from the
// trace header. The header size is checked against what payload can
// actually expand to before anything is allocated.
func decompress(c Codec, payload []byte, size int) ([]byte, error) {
	if size == 0 && c <= CodecLZ4 {
		return nil, nil
	}
	if err := checkDecodedSize(c, payload, size); err != nil {
		return nil, err
	}
	switch c {
	case CodecNone:
		return payload, nil
	case CodecZstd:
		dec := zstdDecoderPool.Get().(*zstd.Decoder)
		defer zstdDecoderPool.Put(dec)
		raw, err := dec.DecodeAll(payload, make([]byte, 0, size))
		if err != nil {
			return nil, fmt.Errorf("trace: zstd: %w", err)
		}
		return raw, nil
	case CodecS2:
		raw, err := s2.Decode(nil, payload)
		if err != nil {
			return nil, fmt.Errorf("trace: s2: %w", err)
		}
		return raw, nil
	case CodecLZ4:
		raw := make([]byte, size)
		n, err := lz4.UncompressBlock(payload, raw)
		if err != nil {
			return nil, fmt.Errorf("trace: lz4: %w", err)
		}
		return raw[:n], nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCodec, uint8(c))
	}
}

func checkDecodedSize(c Codec, payload []byte, size int) error {
	var bound int
	switch c {
	case CodecNone:
		bound = len(payload)
	case CodecZstd:
		var h zstd.Header
		if err := h.Decode(payload); err != nil {
			return fmt.Errorf("%w: zstd header: %v", ErrInvalidTrace, err)
		}
		if h.HasFCS && h.FrameContentSize != uint64(size) {
			return fmt.Errorf("%w: zstd frame holds %d bytes, header claims %d", ErrInvalidTrace, h.FrameContentSize, size)
		}
		// Small frames are written without a content size.
		bound = len(payload) * zstdMaxRatio
	case CodecS2:
		n, err := s2.DecodedLen(payload)
		if err != nil {
			return fmt.Errorf("trace: s2: %w", err)
		}
		bound = n
	case CodecLZ4:
		bound = len(payload) * lz4MaxRatio
	default:
		return nil
	}
	if size > bound {
		return fmt.Errorf("%w: header claims %d bytes, payload holds at most %d", ErrInvalidTrace, size, bound)
	}
	return nil
}
