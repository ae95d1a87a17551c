package entropy

// MagnitudeRange is the bound R of the table strategies: they accept
// |v| < MagnitudeRange. Quantized coefficients of 8-bit sources stay well
// inside it.
const MagnitudeRange = 2048

// The AC tables only carry run/size symbols up to MaxACCategory, so AC
// coefficients must satisfy |v| <= MaxACMagnitude. DC differences may use
// the whole MagnitudeRange (category 11).
const (
	MaxACCategory  = 10
	MaxACMagnitude = 1<<MaxACCategory - 1
)

// Magnitude converts a signed coefficient into its category-coded form:
// Len is the category (0 for 0, else floor(log2|v|)+1) and Bits holds the
// Len low bits of v, or of v-1 when v is negative.
type Magnitude interface {
	Encode(v int32) BitGroup
}

// Scan computes the category with a shift loop. No tables, any int32 input
// whose magnitude fits 16 bits.
type Scan struct{}

// Encode implements Magnitude.
func (Scan) Encode(v int32) BitGroup {
	if v == 0 {
		return BitGroup{}
	}
	tmp := v
	if v < 0 {
		tmp = -v
		v--
	}
	n := uint16(1)
	for tmp >>= 1; tmp != 0; tmp >>= 1 {
		n++
	}
	return BitGroup{Bits: uint16(v) & (1<<n - 1), Len: n}
}

// CategoryTable looks the category up in a MagnitudeRange-entry table and
// folds the sign inline. Input must satisfy |v| < MagnitudeRange.
type CategoryTable struct{}

var categoryTable [MagnitudeRange]uint8

// Encode implements Magnitude.
func (CategoryTable) Encode(v int32) BitGroup {
	tmp := v
	if v < 0 {
		tmp = -v
		v--
	}
	n := uint16(categoryTable[tmp])
	return BitGroup{Bits: uint16(v) & (1<<n - 1), Len: n}
}

// FullTable resolves the complete group with one probe into a
// 2*MagnitudeRange-entry table indexed by v+MagnitudeRange. Input must
// satisfy -MagnitudeRange <= v < MagnitudeRange.
type FullTable struct{}

var fullTable [2 * MagnitudeRange]BitGroup

// Encode implements Magnitude.
func (FullTable) Encode(v int32) BitGroup {
	return fullTable[v+MagnitudeRange]
}

func init() {
	var s Scan
	for i := range categoryTable {
		categoryTable[i] = uint8(s.Encode(int32(i)).Len)
	}
	for i := range fullTable {
		fullTable[i] = s.Encode(int32(i - MagnitudeRange))
	}
}

// Extend decodes a (bits, category) pair back to the signed value
// (the EXTEND procedure of JPEG Annex F).
func Extend(g BitGroup) int32 {
	if g.Len == 0 {
		return 0
	}
	v := int32(g.Bits)
	if v < 1<<(g.Len-1) {
		v += -1<<g.Len + 1
	}
	return v
}
