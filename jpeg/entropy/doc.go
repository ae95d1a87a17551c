// Package entropy implements the baseline JPEG entropy-coding core.
//
// Quantized 8x8 coefficient blocks are turned into BitGroups, the
// (bits, length) fragments that a BitWriter later packs MSB-first into the
// scan. Groups are staged in a fixed-capacity BitBuf; callers check Full
// once per MCU and flush lazily.
//
// The Huffman code tables and zigzag permutations are built once at package
// initialisation and never change afterwards, so they can be shared by any
// number of concurrent encoders without locking.
//
// Magnitude (category) coding has three interchangeable strategies that
// trade static memory for branches: Scan, CategoryTable and FullTable.
// DefaultMagnitude is selected at build time:
//
//	go build                         // FullTable
//	go build -tags jpeg_bits_category // CategoryTable
//	go build -tags jpeg_bits_scan    // Scan
package entropy
