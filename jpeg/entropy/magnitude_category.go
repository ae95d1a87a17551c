//go:build jpeg_bits_category && !jpeg_bits_scan

package entropy

// DefaultMagnitude is the build's magnitude strategy.
type DefaultMagnitude = CategoryTable

// DefaultMagnitudeName names DefaultMagnitude.
const DefaultMagnitudeName = "category-table"
