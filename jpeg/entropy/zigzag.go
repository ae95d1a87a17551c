package entropy

// zigZag[k] is the natural (row-major) index of zigzag scan position k.
var zigZag = [64]uint8{
	0, 1, 8, 16, 9, 2, 3, 10,
	17, 24, 32, 25, 18, 11, 4, 5,
	12, 19, 26, 33, 40, 48, 41, 34,
	27, 20, 13, 6, 7, 14, 21, 28,
	35, 42, 49, 56, 57, 50, 43, 36,
	29, 22, 15, 23, 30, 37, 44, 51,
	58, 59, 52, 45, 38, 31, 39, 46,
	53, 60, 61, 54, 47, 55, 62, 63,
}

// Coefficient blocks are handed to the entropy coder in natural order, so
// the widened gather table is built from zigZag. zigZagT is the scan table
// for a transform that emits its output transposed; zigZagPos inverts
// zigZag.
var (
	zigZagPos [64]uint8 // natural index -> scan position
	zigZagT   [64]uint8 // scan position -> index in a transposed block
	zigZag32  [64]int32 // zigZag widened for lane gathers
)

func initZigZag() {
	for k, n := range zigZag {
		zigZagPos[n] = uint8(k)
		zigZagT[k] = (n&7)<<3 | n>>3
		zigZag32[k] = int32(n)
	}
}

// ZigZag returns the scan-order to natural-order permutation.
func ZigZag() [64]uint8 { return zigZag }
