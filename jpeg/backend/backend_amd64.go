//go:build amd64

package backend

import "golang.org/x/sys/cpu"

func init() {
	register(newLanes(NameAVX2, 8, avx2Kernels()), 8, func() bool {
		return cpu.X86.HasAVX2
	})
	register(newLanes(NameAVX512BW, 16, avx512Kernels()), 16, func() bool {
		return cpu.X86.HasAVX512F && cpu.X86.HasAVX512BW
	})
}
