package backend

import (
	"math/bits"

	"github.com/cocosip/jpegcore/jpeg/entropy"
	"github.com/cocosip/jpegcore/jpeg/pixel"
)

// maxLanes is the widest batch any lane backend uses.
const maxLanes = 16

// yuvCoef feeds the conversion kernels, in pixel.YUV's order: the luma
// weights, the level shift, then the chroma weights with their signs as
// applied (u = k4*r - k5*g + k6*b, v = k6*r - k7*g - k8*b).
const yuvCoefs = 9

var yuvCoef = [yuvCoefs]float32{
	0.29900, 0.58700, 0.11400, 128,
	-0.16874, 0.33126, 0.50000, 0.41869, 0.08131,
}

// stageMax is the largest block the kernels convert from stack buffers.
const stageMax = 16 * 16

// kernels are the vector routines of one lane backend. A nil routine falls
// back to the batched Go loop. Every routine processes a multiple of step
// elements.
type kernels struct {
	step   int
	yuv    func(r, g, b *byte, y, u, v *float32, n int, k *[yuvCoefs]float32)
	gray   func(g *byte, y *float32, n int, k *[yuvCoefs]float32)
	groups func(coefs, zz *[64]int32, out *[64]entropy.BitGroup) uint64
}

// lanes batches the hot paths width samples or coefficients at a time.
// The arithmetic per element is the same as the portable backend, only the
// traversal differs.
type lanes struct {
	name  string
	width int
	k     kernels
	zz    [64]int32
	mag   entropy.DefaultMagnitude
}

func newLanes(name string, width int, k kernels) *lanes {
	return &lanes{
		name:  name,
		width: width,
		k:     k,
		zz:    entropy.StandardTables().ZigZag32(),
	}
}

func (l *lanes) Name() string { return l.name }

func (l *lanes) Tables() *entropy.Tables { return entropy.StandardTables() }

func (l *lanes) EncodeMagnitude(v int32) entropy.BitGroup {
	return l.mag.Encode(v)
}

// stage copies the size x size block at the plane origin into dst, row by
// row, repeating the last valid row and column.
func stage(dst, src []byte, stride, height, width, size int) {
	w := min(width, size)
	offs := 0
	for row := 0; row < size; {
		d := dst[row*size : (row+1)*size]
		copy(d, src[offs:offs+w])
		for col := w; col < size; col++ {
			d[col] = d[w-1]
		}
		if row++; row < height {
			offs += stride
		}
	}
}

func (l *lanes) ConvertColor(r, g, b []byte, stride, height, width int, y, u, v []float32, size int) {
	n := size * size
	if l.k.yuv == nil || n < l.k.step {
		l.convertColor(r, g, b, stride, height, width, y, u, v, size)
		return
	}
	_, _, _ = y[n-1], u[n-1], v[n-1]

	var rs, gs, bs [stageMax]byte
	rb, gb, bb := rs[:], gs[:], bs[:]
	if n > stageMax {
		rb, gb, bb = make([]byte, n), make([]byte, n), make([]byte, n)
	}
	stage(rb, r, stride, height, width, size)
	stage(gb, g, stride, height, width, size)
	stage(bb, b, stride, height, width, size)

	m := n - n%l.k.step
	l.k.yuv(&rb[0], &gb[0], &bb[0], &y[0], &u[0], &v[0], m, &yuvCoef)
	for i := m; i < n; i++ {
		y[i], u[i], v[i] = pixel.YUV(float32(rb[i]), float32(gb[i]), float32(bb[i]))
	}
}

func (l *lanes) convertColor(r, g, b []byte, stride, height, width int, y, u, v []float32, size int) {
	var rl, gl, bl [maxLanes]float32
	offs := 0
	for row := 0; row < size; {
		for col := 0; col < size; col += l.width {
			n := min(l.width, size-col)
			for i := 0; i < n; i++ {
				o := offs + min(col+i, width-1)
				rl[i], gl[i], bl[i] = float32(r[o]), float32(g[o]), float32(b[o])
			}
			for i := 0; i < n; i++ {
				y[col+i], u[col+i], v[col+i] = pixel.YUV(rl[i], gl[i], bl[i])
			}
		}
		if row++; row < height {
			offs += stride
		}
		y, u, v = y[size:], u[size:], v[size:]
	}
}

func (l *lanes) ConvertGray(g []byte, stride, height, width int, y []float32, size int) {
	n := size * size
	if l.k.gray == nil || n < l.k.step {
		l.convertGray(g, stride, height, width, y, size)
		return
	}
	_ = y[n-1]

	var gs [stageMax]byte
	gb := gs[:]
	if n > stageMax {
		gb = make([]byte, n)
	}
	stage(gb, g, stride, height, width, size)

	m := n - n%l.k.step
	l.k.gray(&gb[0], &y[0], m, &yuvCoef)
	for i := m; i < n; i++ {
		y[i] = pixel.Gray(gb[i])
	}
}

func (l *lanes) convertGray(g []byte, stride, height, width int, y []float32, size int) {
	offs := 0
	for row := 0; row < size; {
		for col := 0; col < size; col += l.width {
			n := min(l.width, size-col)
			for i := 0; i < n; i++ {
				y[col+i] = pixel.Gray(g[offs+min(col+i, width-1)])
			}
		}
		if row++; row < height {
			offs += stride
		}
		y = y[size:]
	}
}

// groups codes all 64 coefficients in zigzag order and returns the bitmap
// of non-zero scan positions.
func (l *lanes) groups(coefs *[64]int32, out *[64]entropy.BitGroup) uint64 {
	if l.k.groups != nil {
		return l.k.groups(coefs, &l.zz, out)
	}
	var nonzero uint64
	for k := 0; k < 64; k += l.width {
		for i := k; i < k+l.width; i++ {
			v := coefs[l.zz[i]]
			out[i] = l.mag.Encode(v)
			if v != 0 {
				nonzero |= 1 << uint(i)
			}
		}
	}
	return nonzero
}

// EncodeBlock gathers the block in zigzag order, codes every AC magnitude
// in batches, then walks the bitmap of non-zero positions to emit the
// run/size symbols.
func (l *lanes) EncodeBlock(buf *entropy.BitBuf, coefs *[64]int32, pred int32, dc, ac *entropy.CodeTable) (int32, error) {
	diff := l.mag.Encode(coefs[0] - pred)
	if err := buf.PushCode(dc.Code(uint8(diff.Len)), diff); err != nil {
		return pred, err
	}

	var groups [64]entropy.BitGroup
	nonzero := l.groups(coefs, &groups) &^ 1

	last := 0
	for nonzero != 0 {
		k := bits.TrailingZeros64(nonzero)
		nonzero &= nonzero - 1

		run := k - last - 1
		for ; run >= 16; run -= 16 {
			if err := buf.Push(ac.Code(entropy.SymbolZRL)); err != nil {
				return pred, err
			}
		}
		m := groups[k]
		if m.Len > entropy.MaxACCategory {
			return pred, entropy.ErrCoefficientRange
		}
		if err := buf.PushCode(ac.Code(uint8(run<<4)|uint8(m.Len)), m); err != nil {
			return pred, err
		}
		last = k
	}
	if last < 63 {
		if err := buf.Push(ac.Code(entropy.SymbolEOB)); err != nil {
			return pred, err
		}
	}

	return coefs[0], nil
}
