package common

import "math"

// IDCT performs the inverse 8x8 DCT on dequantized natural-order
// coefficients, adds the +128 level shift and writes clamped samples.
func IDCT(coef *[64]int32, out []byte, stride int) {
	var tmp [64]float64

	// Columns
	for u := 0; u < 8; u++ {
		for y := 0; y < 8; y++ {
			var s float64
			for v := 0; v < 8; v++ {
				s += float64(coef[v*8+u]) * dctCos[y][v]
			}
			tmp[y*8+u] = s
		}
	}

	// Rows
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			var s float64
			for u := 0; u < 8; u++ {
				s += tmp[y*8+u] * dctCos[x][u]
			}
			out[y*stride+x] = byte(Clamp(math.Round(s+128), 0, 255))
		}
	}
}
