//go:build arm64 && !noasm

package backend

import "github.com/cocosip/jpegcore/jpeg/entropy"

// NEON kernels, implemented in kernels_arm64.s. The conversions take eight
// samples per iteration; NEON has no gather, so the coefficient kernel
// reads a block that is already in scan order.

//go:noescape
func yuvNEON(r, gr, b *byte, y, u, v *float32, n int, k *[yuvCoefs]float32)

//go:noescape
func grayNEON(gr *byte, y *float32, n int, k *[yuvCoefs]float32)

//go:noescape
func groupsNEON(scan *[64]int32, out *[64]entropy.BitGroup)

func groupsNEONScan(coefs, zz *[64]int32, out *[64]entropy.BitGroup) uint64 {
	var scan [64]int32
	var nonzero uint64
	for i, z := range zz {
		v := coefs[z&63]
		scan[i] = v
		if v != 0 {
			nonzero |= 1 << uint(i)
		}
	}
	groupsNEON(&scan, out)
	return nonzero
}

func neonKernels() kernels {
	return kernels{step: 8, yuv: yuvNEON, gray: grayNEON, groups: groupsNEONScan}
}
