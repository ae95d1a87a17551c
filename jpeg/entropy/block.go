package entropy

import "errors"

// ErrCoefficientRange is returned by Encode for an AC coefficient whose
// category has no code in the AC tables.
var ErrCoefficientRange = errors.New("entropy: AC coefficient out of range")

// MaxGroupsPerBlock bounds the groups one EncodeBlock call can stage:
// DC code+bits, code+bits for each of the 63 AC positions, and an EOB.
// A ZRL stands in for 16 zero coefficients, which would otherwise stage
// nothing, so it never raises the bound.
const MaxGroupsPerBlock = 2 + 2*63 + 1

// Symbols of the AC tables with a special meaning.
const (
	SymbolEOB = 0x00
	SymbolZRL = 0xF0
)

// BlockEncoder stages the entropy codes of one 8x8 block using magnitude
// strategy M.
type BlockEncoder[M Magnitude] struct {
	mag M
}

// NewBlockEncoder returns an encoder for strategy M.
func NewBlockEncoder[M Magnitude]() BlockEncoder[M] {
	return BlockEncoder[M]{}
}

// Encode stages the DC difference against pred and the run-length coded
// AC coefficients of coefs (natural order, already quantized, AC within
// ±MaxACMagnitude). It returns the DC value to use as the next predictor.
//
// The caller checks Full before each MCU; Encode reports ErrBitBufOverflow
// if that was skipped and the buffer ran out.
func (e BlockEncoder[M]) Encode(buf *BitBuf, coefs *[64]int32, pred int32, dc, ac *CodeTable) (int32, error) {
	diff := e.mag.Encode(coefs[0] - pred)
	if err := buf.PushCode(dc.Code(uint8(diff.Len)), diff); err != nil {
		return pred, err
	}

	run := 0
	for k := 1; k < 64; k++ {
		v := coefs[zigZag[k]]
		if v == 0 {
			run++
			continue
		}
		for ; run >= 16; run -= 16 {
			if err := buf.Push(ac.Code(SymbolZRL)); err != nil {
				return pred, err
			}
		}
		m := e.mag.Encode(v)
		if m.Len > MaxACCategory {
			return pred, ErrCoefficientRange
		}
		if err := buf.PushCode(ac.Code(uint8(run<<4)|uint8(m.Len)), m); err != nil {
			return pred, err
		}
		run = 0
	}
	if run > 0 {
		if err := buf.Push(ac.Code(SymbolEOB)); err != nil {
			return pred, err
		}
	}

	return coefs[0], nil
}

// EmitGrayChromaPlaceholders stages an empty block (zero DC difference, EOB)
// for each of the two chroma components, so a grayscale source can be
// carried in a three-component scan. Order: chroma DC, chroma AC, chroma DC,
// chroma AC.
func EmitGrayChromaPlaceholders(buf *BitBuf) error {
	dc := codeTables[ChromaDC].codes[0]
	ac := codeTables[ChromaAC].codes[SymbolEOB]
	return buf.pushAll(dc, ac, dc, ac)
}
