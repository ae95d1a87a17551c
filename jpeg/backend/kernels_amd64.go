//go:build amd64 && !noasm

package backend

import "github.com/cocosip/jpegcore/jpeg/entropy"

// AVX2 kernels, eight 32-bit lanes. Implemented in kernels_amd64.s.

//go:noescape
func yuvAVX2(r, gr, b *byte, y, u, v *float32, n int, k *[yuvCoefs]float32)

//go:noescape
func grayAVX2(gr *byte, y *float32, n int, k *[yuvCoefs]float32)

//go:noescape
func groupsAVX2(coefs, zz *[64]int32, out *[64]entropy.BitGroup) (nonzero uint64)

// AVX-512 kernels, sixteen 32-bit lanes.

//go:noescape
func yuvAVX512(r, gr, b *byte, y, u, v *float32, n int, k *[yuvCoefs]float32)

//go:noescape
func grayAVX512(gr *byte, y *float32, n int, k *[yuvCoefs]float32)

//go:noescape
func groupsAVX512(coefs, zz *[64]int32, out *[64]entropy.BitGroup) (nonzero uint64)

func avx2Kernels() kernels {
	return kernels{step: 8, yuv: yuvAVX2, gray: grayAVX2, groups: groupsAVX2}
}

func avx512Kernels() kernels {
	return kernels{step: 16, yuv: yuvAVX512, gray: grayAVX512, groups: groupsAVX512}
}
