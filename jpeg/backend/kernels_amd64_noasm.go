//go:build amd64 && noasm

package backend

// With noasm the amd64 variants run the batched Go loops.

func avx2Kernels() kernels { return kernels{} }

func avx512Kernels() kernels { return kernels{} }
