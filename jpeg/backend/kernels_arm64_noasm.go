//go:build arm64 && noasm

package backend

// With noasm the neon variant runs the batched Go loops.

func neonKernels() kernels { return kernels{} }
