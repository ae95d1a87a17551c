package entropy

import (
	"fmt"

	"github.com/cocosip/jpegcore/jpeg/common"
)

// Role identifies one of the four standard baseline Huffman tables.
type Role uint8

const (
	LumaDC Role = iota
	ChromaDC
	LumaAC
	ChromaAC
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case LumaDC:
		return "luma-dc"
	case ChromaDC:
		return "chroma-dc"
	case LumaAC:
		return "luma-ac"
	case ChromaAC:
		return "chroma-ac"
	default:
		return "unknown"
	}
}

// Class returns the DHT table class (common.ClassDC or common.ClassAC).
func (r Role) Class() byte {
	if r == LumaDC || r == ChromaDC {
		return common.ClassDC
	}
	return common.ClassAC
}

// ID returns the DHT destination id: 0 for luminance, 1 for chrominance.
func (r Role) ID() byte {
	if r == LumaDC || r == LumaAC {
		return 0
	}
	return 1
}

// CodeTable maps a symbol (DC category, or AC run/size byte) to its
// canonical Huffman code. Symbols without a code map to the zero BitGroup.
type CodeTable struct {
	role  Role
	codes [256]BitGroup
}

// Code returns the code for symbol sym.
func (t *CodeTable) Code(sym uint8) BitGroup {
	return t.codes[sym]
}

// Role returns which standard table this is.
func (t *CodeTable) Role() Role {
	return t.role
}

// Spec returns the DHT bits/values pair the table was derived from.
func (t *CodeTable) Spec() (bits [16]int, values []byte) {
	return common.StandardSpec(t.role.Class(), t.role.ID())
}

var codeTables [4]CodeTable

func init() {
	for r := LumaDC; r <= ChromaAC; r++ {
		bits, values := common.StandardSpec(r.Class(), r.ID())
		codeTables[r] = buildCodeTable(r, bits, values)
	}
	initZigZag()
}

// buildCodeTable indexes the canonical codes of a bits/values pair by
// symbol. The decoder derives its tables from the same common.CanonicalCodes
// pass.
func buildCodeTable(role Role, bits [16]int, values []byte) CodeTable {
	t := CodeTable{role: role}

	codes, err := common.CanonicalCodes(bits, values)
	if err != nil {
		panic(fmt.Sprintf("entropy: standard %s table: %v", role, err))
	}
	for _, c := range codes {
		t.codes[c.Sym] = BitGroup{Bits: c.Bits, Len: uint16(c.Len)}
	}

	return t
}

// Table returns the shared standard table for role.
func Table(role Role) *CodeTable {
	return &codeTables[role&3]
}

// Tables bundles the standard code tables and zigzag permutations handed to
// a backend. It has no mutating methods.
type Tables struct{}

var standardTables Tables

// StandardTables returns the process-wide table set.
func StandardTables() *Tables {
	return &standardTables
}

// DC returns the DC table for luma (chroma == false) or chroma.
func (*Tables) DC(chroma bool) *CodeTable {
	if chroma {
		return &codeTables[ChromaDC]
	}
	return &codeTables[LumaDC]
}

// AC returns the AC table for luma (chroma == false) or chroma.
func (*Tables) AC(chroma bool) *CodeTable {
	if chroma {
		return &codeTables[ChromaAC]
	}
	return &codeTables[LumaAC]
}

// ZigZag returns the natural index of scan position k.
func (*Tables) ZigZag(k int) int {
	return int(zigZag[k])
}

// ZigZag32 returns the widened gather table used by lane backends.
// The returned array is a copy.
func (*Tables) ZigZag32() [64]int32 {
	return zigZag32
}
