package entropy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStandardCodes(t *testing.T) {
	cases := []struct {
		role Role
		sym  uint8
		want BitGroup
	}{
		{LumaDC, 0, BitGroup{Bits: 0b00, Len: 2}},
		{LumaDC, 1, BitGroup{Bits: 0b010, Len: 3}},
		{LumaDC, 6, BitGroup{Bits: 0b1110, Len: 4}},
		{LumaDC, 11, BitGroup{Bits: 0b111111110, Len: 9}},
		{ChromaDC, 0, BitGroup{Bits: 0b00, Len: 2}},
		{ChromaDC, 3, BitGroup{Bits: 0b110, Len: 3}},
		{ChromaDC, 11, BitGroup{Bits: 0b11111111110, Len: 11}},
		{LumaAC, SymbolEOB, BitGroup{Bits: 0b1010, Len: 4}},
		{LumaAC, 0x01, BitGroup{Bits: 0b00, Len: 2}},
		{LumaAC, SymbolZRL, BitGroup{Bits: 0b11111111001, Len: 11}},
		{ChromaAC, SymbolEOB, BitGroup{Bits: 0b00, Len: 2}},
		{ChromaAC, SymbolZRL, BitGroup{Bits: 0b1111111010, Len: 10}},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, Table(tc.role).Code(tc.sym), "%s symbol %#x", tc.role, tc.sym)
	}
}

func TestCodeTablesArePrefixFree(t *testing.T) {
	for r := LumaDC; r <= ChromaAC; r++ {
		table := Table(r)
		require.Equal(t, r, table.Role())

		bits, values := table.Spec()
		total := 0
		for _, n := range bits {
			total += n
		}
		require.Len(t, values, total)

		var codes []BitGroup
		for _, v := range values {
			g := table.Code(v)
			require.NotZero(t, g.Len, "%s symbol %#x has no code", r, v)
			codes = append(codes, g)
		}
		for i, a := range codes {
			for j, b := range codes {
				if i == j || a.Len > b.Len {
					continue
				}
				require.NotEqual(t, a.Bits, b.Bits>>(b.Len-a.Len),
					"%s: code %d is a prefix of code %d", r, i, j)
			}
		}
	}
}

func TestRoleDHTMapping(t *testing.T) {
	require.Equal(t, byte(0), LumaDC.Class())
	require.Equal(t, byte(1), ChromaAC.Class())
	require.Equal(t, byte(0), LumaAC.ID())
	require.Equal(t, byte(1), ChromaDC.ID())
	require.Equal(t, "chroma-ac", ChromaAC.String())

	tables := StandardTables()
	require.Same(t, Table(LumaDC), tables.DC(false))
	require.Same(t, Table(ChromaAC), tables.AC(true))
}

func TestZigZagPermutations(t *testing.T) {
	zz := ZigZag()
	pos := zigZagPos
	zt := zigZagT
	z32 := StandardTables().ZigZag32()

	seen := make(map[uint8]bool)
	for k := 0; k < 64; k++ {
		n := zz[k]
		require.False(t, seen[n], "natural index %d repeated", n)
		seen[n] = true
		require.Equal(t, uint8(k), pos[n])
		require.Equal(t, int32(n), z32[k])
		require.Equal(t, (n%8)*8+n/8, zt[k])
		require.Equal(t, int(n), StandardTables().ZigZag(k))
	}

	// First diagonals
	require.Equal(t, []uint8{0, 1, 8, 16, 9, 2}, zz[:6])
	require.Equal(t, uint8(63), zz[63])
}
