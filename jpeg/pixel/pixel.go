// Package pixel produces planar, level-shifted sample blocks from 8-bit
// image planes.
//
// Blocks that extend past the right or bottom image edge are filled by
// repeating the last valid column and row, the padding JPEG expects when
// the image size is not a multiple of the block size.
package pixel

// BlockSize is the edge of the blocks the entropy coder consumes.
const BlockSize = 8

// Block is a BlockSize x BlockSize planar block in row-major order.
type Block [BlockSize * BlockSize]float32

// YUV converts one RGB sample to level-shifted YCbCr. Every product and sum
// is rounded to float32 explicitly, so the result does not depend on
// whether the compiler fuses multiply-adds.
func YUV(r, g, b float32) (y, u, v float32) {
	y = float32(float32(float32(0.29900*r)+float32(0.58700*g))+float32(0.11400*b)) - 128.0
	u = float32(float32(float32(-0.16874*r)-float32(0.33126*g)) + float32(0.50000*b))
	v = float32(float32(float32(0.50000*r)-float32(0.41869*g)) - float32(0.08131*b))
	return y, u, v
}

// Gray converts one gray sample to a level-shifted luma value.
func Gray(g byte) float32 {
	return float32(g) - 128.0
}

// ConvertColor fills the size x size blocks y, u and v from the R, G and B
// planes. The planes start at the block origin and are addressed with
// stride; height and width are the samples remaining below and right of the
// origin (both >= 1). Out-of-range rows and columns repeat the last valid one.
func ConvertColor(r, g, b []byte, stride, height, width int, y, u, v []float32, size int) {
	offs := 0
	for row := 0; row < size; {
		for col := 0; col < size; col++ {
			o := offs + min(col, width-1)
			y[col], u[col], v[col] = YUV(float32(r[o]), float32(g[o]), float32(b[o]))
		}
		if row++; row < height {
			offs += stride
		}
		y, u, v = y[size:], u[size:], v[size:]
	}
}

// ConvertGray fills the size x size block y from the gray plane g with the
// same addressing and edge rules as ConvertColor.
func ConvertGray(g []byte, stride, height, width int, y []float32, size int) {
	offs := 0
	for row := 0; row < size; {
		for col := 0; col < size; col++ {
			y[col] = Gray(g[offs+min(col, width-1)])
		}
		if row++; row < height {
			offs += stride
		}
		y = y[size:]
	}
}

// SplitRGB separates interleaved RGB samples into three planes of
// width*height bytes each.
func SplitRGB(rgb []byte, width, height int) (r, g, b []byte) {
	n := width * height
	r = make([]byte, n)
	g = make([]byte, n)
	b = make([]byte, n)
	for i := 0; i < n; i++ {
		r[i] = rgb[3*i]
		g[i] = rgb[3*i+1]
		b[i] = rgb[3*i+2]
	}
	return r, g, b
}
