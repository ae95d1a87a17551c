//go:build arm64

package backend

import "golang.org/x/sys/cpu"

func init() {
	register(newLanes(NameNEON, 4, neonKernels()), 4, func() bool {
		return cpu.ARM64.HasASIMD
	})
}
