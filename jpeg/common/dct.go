package common

import "math"

// dctCos[x][u] = C(u)/2 * cos((2x+1)uπ/16), C(0) = 1/√2, C(u>0) = 1.
var dctCos [8][8]float64

func init() {
	for x := 0; x < 8; x++ {
		for u := 0; u < 8; u++ {
			c := 0.5
			if u == 0 {
				c = 0.5 / math.Sqrt2
			}
			dctCos[x][u] = c * math.Cos(float64(2*x+1)*float64(u)*math.Pi/16)
		}
	}
}

// FDCT performs the forward 8x8 DCT on a level-shifted planar block.
// Input and output are in natural (row-major) order.
func FDCT(block []float32, coef *[64]float64) {
	var tmp [64]float64

	// Rows
	for y := 0; y < 8; y++ {
		row := block[y*8 : y*8+8]
		for u := 0; u < 8; u++ {
			var s float64
			for x := 0; x < 8; x++ {
				s += float64(row[x]) * dctCos[x][u]
			}
			tmp[y*8+u] = s
		}
	}

	// Columns
	for u := 0; u < 8; u++ {
		for v := 0; v < 8; v++ {
			var s float64
			for y := 0; y < 8; y++ {
				s += tmp[y*8+u] * dctCos[y][v]
			}
			coef[v*8+u] = s
		}
	}
}

// Quantize divides DCT coefficients by a natural-order quantization table,
// rounding to nearest. AC results are clamped to ±1023 (category 10, the
// largest the AC tables code) and DC to [-1024, 1023], which keeps every DC
// difference inside category 11.
func Quantize(coef *[64]float64, qtable *[64]int32, out *[64]int32) {
	out[0] = int32(Clamp(math.Round(coef[0]/float64(qtable[0])), -1024, 1023))
	for i := 1; i < 64; i++ {
		q := math.Round(coef[i] / float64(qtable[i]))
		out[i] = int32(Clamp(q, -1023, 1023))
	}
}
