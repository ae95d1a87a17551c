package backend

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cocosip/jpegcore/jpeg/entropy"
	"github.com/cocosip/jpegcore/jpeg/pixel"
)

// checkKernels compares the vector routines of k with pixel.YUV, pixel.Gray
// and the Scan magnitude strategy element by element.
func checkKernels(t *testing.T, k kernels) {
	t.Helper()

	t.Run("yuv", func(t *testing.T) {
		const n = 256
		var r, g, b [n]byte
		var y, u, v [n]float32
		for _, bv := range []byte{0, 1, 127, 128, 254, 255} {
			for rv := 0; rv < 256; rv++ {
				for i := range g {
					r[i], g[i], b[i] = byte(rv), byte(i), bv
				}
				k.yuv(&r[0], &g[0], &b[0], &y[0], &u[0], &v[0], n, &yuvCoef)
				for i := range y {
					wy, wu, wv := pixel.YUV(float32(r[i]), float32(g[i]), float32(b[i]))
					require.Equal(t, math.Float32bits(wy), math.Float32bits(y[i]), "y(%d,%d,%d)", r[i], g[i], b[i])
					require.Equal(t, math.Float32bits(wu), math.Float32bits(u[i]), "u(%d,%d,%d)", r[i], g[i], b[i])
					require.Equal(t, math.Float32bits(wv), math.Float32bits(v[i]), "v(%d,%d,%d)", r[i], g[i], b[i])
				}
			}
		}
	})

	t.Run("gray", func(t *testing.T) {
		var g [256]byte
		var y [256]float32
		for i := range g {
			g[i] = byte(i)
		}
		y[k.step] = 42
		k.gray(&g[0], &y[0], k.step, &yuvCoef)
		for i := 0; i < k.step; i++ {
			require.Equal(t, pixel.Gray(g[i]), y[i])
		}
		require.Equal(t, float32(42), y[k.step], "wrote past n")

		k.gray(&g[0], &y[0], len(g), &yuvCoef)
		for i := range g {
			require.Equal(t, pixel.Gray(g[i]), y[i])
		}
	})

	t.Run("groups", func(t *testing.T) {
		var s entropy.Scan
		zz := entropy.StandardTables().ZigZag32()
		check := func(coefs *[64]int32) {
			var out [64]entropy.BitGroup
			nonzero := k.groups(coefs, &zz, &out)
			for i := range out {
				v := coefs[zz[i]]
				require.Equal(t, s.Encode(v), out[i], "v=%d", v)
				require.Equal(t, v != 0, nonzero&(1<<uint(i)) != 0, "bitmap at %d", i)
			}
		}

		var coefs [64]int32
		for v := int32(1 - entropy.MagnitudeRange); v < entropy.MagnitudeRange; v += 64 {
			for i := range coefs {
				coefs[i] = v + int32(i)
			}
			check(&coefs)
		}

		rng := rand.New(rand.NewSource(7))
		for iter := 0; iter < 1000; iter++ {
			for i := range coefs {
				coefs[i] = 0
				if rng.Intn(3) == 0 {
					coefs[i] = rng.Int31n(2*entropy.MagnitudeRange-1) - (entropy.MagnitudeRange - 1)
				}
			}
			check(&coefs)
		}
	})
}

// checkKernelLanes runs a kernel-backed lane backend against the portable
// one on block sizes and plane shapes that need staging.
func checkKernelLanes(t *testing.T, name string, width int, k kernels) {
	t.Helper()
	b := newLanes(name, width, k)
	require.NoError(t, Verify(b, DefaultCorpus()))

	rng := rand.New(rand.NewSource(3))
	ref := Portable()
	for _, size := range []int{8, 16} {
		for _, shape := range [][2]int{{1, 1}, {3, 7}, {size, size}, {size + 5, size + 1}} {
			w, h := shape[0], shape[1]
			stride := w + 1
			r := make([]byte, stride*h)
			g := make([]byte, stride*h)
			bl := make([]byte, stride*h)
			rng.Read(r)
			rng.Read(g)
			rng.Read(bl)

			n := size * size
			got := make([]float32, 3*n)
			want := make([]float32, 3*n)
			b.ConvertColor(r, g, bl, stride, h, w, got[:n], got[n:2*n], got[2*n:], size)
			ref.ConvertColor(r, g, bl, stride, h, w, want[:n], want[n:2*n], want[2*n:], size)
			require.Equal(t, want, got, "color size %d shape %v", size, shape)

			b.ConvertGray(g, stride, h, w, got[:n], size)
			ref.ConvertGray(g, stride, h, w, want[:n], size)
			require.Equal(t, want[:n], got[:n], "gray size %d shape %v", size, shape)
		}
	}
}

func TestEncodeBlockRejectsACCategory11(t *testing.T) {
	tables := entropy.StandardTables()
	for _, b := range append(allLaneBackends(), Portable()) {
		for _, v := range []int32{entropy.MaxACMagnitude + 1, -entropy.MaxACMagnitude - 1} {
			var coefs [64]int32
			coefs[tables.ZigZag(9)] = v
			var buf entropy.BitBuf
			pred, err := b.EncodeBlock(&buf, &coefs, 5, tables.DC(false), tables.AC(false))
			require.ErrorIs(t, err, entropy.ErrCoefficientRange, b.Name())
			require.Equal(t, int32(5), pred)
		}
	}
}

func BenchmarkEncodeBlock(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	var coefs [64]int32
	for k := range coefs {
		if rng.Intn(3) == 0 {
			coefs[k] = int32(rng.Intn(255) - 127)
		}
	}
	tables := entropy.StandardTables()
	for _, name := range Available() {
		be, err := Lookup(name)
		require.NoError(b, err)
		b.Run(name, func(b *testing.B) {
			var buf entropy.BitBuf
			for i := 0; i < b.N; i++ {
				buf.Clear()
				_, _ = be.EncodeBlock(&buf, &coefs, 0, tables.DC(false), tables.AC(false))
			}
		})
	}
}

func BenchmarkConvertColor(b *testing.B) {
	const size = 16
	r := make([]byte, size*size)
	g := make([]byte, size*size)
	bl := make([]byte, size*size)
	y := make([]float32, size*size)
	u := make([]float32, size*size)
	v := make([]float32, size*size)
	for _, name := range Available() {
		be, err := Lookup(name)
		require.NoError(b, err)
		b.Run(name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				be.ConvertColor(r, g, bl, size, size, size, y, u, v, size)
			}
		})
	}
}
