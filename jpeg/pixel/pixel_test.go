package pixel

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestYUVKnownColors(t *testing.T) {
	cases := []struct {
		name    string
		r, g, b float32
		y, u, v float32
	}{
		{"black", 0, 0, 0, -128, 0, 0},
		{"white", 255, 255, 255, 127, 0, 0},
		{"red", 255, 0, 0, 76.245 - 128, -43.0287, 127.5},
		{"blue", 0, 0, 255, 29.07 - 128, 127.5, -20.73405},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			y, u, v := YUV(c.r, c.g, c.b)
			require.InDelta(t, c.y, y, 1e-3)
			require.InDelta(t, c.u, u, 1e-3)
			require.InDelta(t, c.v, v, 1e-3)
		})
	}
}

func TestConvertColorInterior(t *testing.T) {
	const stride = 16
	rnd := rand.New(rand.NewSource(7))
	r, g, b := make([]byte, stride*16), make([]byte, stride*16), make([]byte, stride*16)
	rnd.Read(r)
	rnd.Read(g)
	rnd.Read(b)

	var y, u, v Block
	ConvertColor(r, g, b, stride, 16, 16, y[:], u[:], v[:], BlockSize)

	for row := 0; row < BlockSize; row++ {
		for col := 0; col < BlockSize; col++ {
			o := row*stride + col
			fr, fg, fb := float64(r[o]), float64(g[o]), float64(b[o])
			i := row*BlockSize + col
			require.InDelta(t, 0.299*fr+0.587*fg+0.114*fb-128, float64(y[i]), 1e-3)
			require.InDelta(t, -0.16874*fr-0.33126*fg+0.5*fb, float64(u[i]), 1e-3)
			require.InDelta(t, 0.5*fr-0.41869*fg-0.08131*fb, float64(v[i]), 1e-3)
		}
	}
}

func TestConvertColorEdgeReplication(t *testing.T) {
	// 3x2 image, samples are 10*row+col.
	const stride, width, height = 3, 3, 2
	plane := make([]byte, stride*height)
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			plane[row*stride+col] = byte(10*row + col)
		}
	}

	var y, u, v Block
	ConvertColor(plane, plane, plane, stride, height, width, y[:], u[:], v[:], BlockSize)

	for row := 0; row < BlockSize; row++ {
		for col := 0; col < BlockSize; col++ {
			want := float32(10*min(row, height-1)+min(col, width-1)) - 128
			i := row*BlockSize + col
			require.InDelta(t, want, y[i], 1e-3, "row %d col %d", row, col)
			require.InDelta(t, 0, u[i], 1e-3)
			require.InDelta(t, 0, v[i], 1e-3)
		}
	}
}

func TestConvertGray(t *testing.T) {
	const stride = 5
	g := []byte{
		0, 1, 2, 3, 200,
		10, 11, 12, 13, 201,
	}

	var y Block
	ConvertGray(g, stride, 2, 4, y[:], BlockSize)

	for row := 0; row < BlockSize; row++ {
		for col := 0; col < BlockSize; col++ {
			want := float32(g[min(row, 1)*stride+min(col, 3)]) - 128
			require.Equal(t, want, y[row*BlockSize+col], "row %d col %d", row, col)
		}
	}
}

func TestConvertSingleSample(t *testing.T) {
	var y Block
	ConvertGray([]byte{255}, 1, 1, 1, y[:], BlockSize)
	for i := range y {
		require.Equal(t, float32(127), y[i])
	}
}

func TestYUVDeterministic(t *testing.T) {
	// Every intermediate is float32, so a float64 evaluation rounded at the
	// same points gives the same bits.
	for r := 0; r < 256; r += 17 {
		for g := 0; g < 256; g += 13 {
			for b := 0; b < 256; b += 11 {
				y, _, _ := YUV(float32(r), float32(g), float32(b))
				p := float32(float32(0.29900) * float32(r))
				q := float32(float32(0.58700) * float32(g))
				s := float32(float32(0.11400) * float32(b))
				want := float32(float32(p+q)+s) - 128
				require.Equal(t, math.Float32bits(want), math.Float32bits(y))
			}
		}
	}
}

func TestSplitRGB(t *testing.T) {
	rgb := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	r, g, b := SplitRGB(rgb, 2, 2)
	require.Equal(t, []byte{1, 4, 7, 10}, r)
	require.Equal(t, []byte{2, 5, 8, 11}, g)
	require.Equal(t, []byte{3, 6, 9, 12}, b)
}

func BenchmarkConvertColor(b *testing.B) {
	plane := make([]byte, 64)
	var y, u, v Block
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		ConvertColor(plane, plane, plane, 8, 8, 8, y[:], u[:], v[:], BlockSize)
	}
}
