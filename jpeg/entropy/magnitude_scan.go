//go:build jpeg_bits_scan

package entropy

// DefaultMagnitude is the build's magnitude strategy.
type DefaultMagnitude = Scan

// DefaultMagnitudeName names DefaultMagnitude.
const DefaultMagnitudeName = "scan"
