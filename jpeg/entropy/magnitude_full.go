//go:build !jpeg_bits_scan && !jpeg_bits_category

package entropy

// DefaultMagnitude is the build's magnitude strategy.
type DefaultMagnitude = FullTable

// DefaultMagnitudeName names DefaultMagnitude.
const DefaultMagnitudeName = "full-table"
