// Package backend dispatches the per-block hot paths (pixel conversion,
// magnitude coding, block entropy coding) to one of several
// implementations chosen once per encoding session.
//
// The portable backend is always available. Lane backends process the
// same work in fixed-width batches and are registered by the per-arch
// files when the CPU probe passes. Every backend produces output
// identical to the portable one; Verify checks that.
package backend

import (
	"github.com/cocosip/jpegcore/jpeg/entropy"
	"github.com/cocosip/jpegcore/jpeg/pixel"
)

// Backend names.
const (
	NamePortable = "portable"
	NameAVX2     = "avx2"
	NameAVX512BW = "avx512bw"
	NameNEON     = "neon"
)

// Backend is one implementation of the encoder hot paths. Values are
// immutable and safe for concurrent use; per-session state lives in the
// BitBuf passed to EncodeBlock.
type Backend interface {
	// Name returns the registered backend name.
	Name() string

	// ConvertColor fills level-shifted YCbCr blocks from RGB planes.
	// See pixel.ConvertColor for the addressing rules.
	ConvertColor(r, g, b []byte, stride, height, width int, y, u, v []float32, size int)

	// ConvertGray fills a level-shifted luma block from a gray plane.
	ConvertGray(g []byte, stride, height, width int, y []float32, size int)

	// EncodeMagnitude returns the category-coded form of v.
	EncodeMagnitude(v int32) entropy.BitGroup

	// EncodeBlock stages one quantized block (natural order) into buf and
	// returns the next DC predictor.
	EncodeBlock(buf *entropy.BitBuf, coefs *[64]int32, pred int32, dc, ac *entropy.CodeTable) (int32, error)

	// Tables returns the code and zigzag tables the backend reads.
	Tables() *entropy.Tables
}

type portable struct {
	enc entropy.BlockEncoder[entropy.DefaultMagnitude]
	mag entropy.DefaultMagnitude
}

var portableBackend = &portable{enc: entropy.NewBlockEncoder[entropy.DefaultMagnitude]()}

// Portable returns the reference backend.
func Portable() Backend {
	return portableBackend
}

func (*portable) Name() string { return NamePortable }

func (*portable) ConvertColor(r, g, b []byte, stride, height, width int, y, u, v []float32, size int) {
	pixel.ConvertColor(r, g, b, stride, height, width, y, u, v, size)
}

func (*portable) ConvertGray(g []byte, stride, height, width int, y []float32, size int) {
	pixel.ConvertGray(g, stride, height, width, y, size)
}

func (p *portable) EncodeMagnitude(v int32) entropy.BitGroup {
	return p.mag.Encode(v)
}

func (p *portable) EncodeBlock(buf *entropy.BitBuf, coefs *[64]int32, pred int32, dc, ac *entropy.CodeTable) (int32, error) {
	return p.enc.Encode(buf, coefs, pred, dc, ac)
}

func (*portable) Tables() *entropy.Tables {
	return entropy.StandardTables()
}
