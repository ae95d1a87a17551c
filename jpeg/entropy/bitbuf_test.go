package entropy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBitBufFullReserve(t *testing.T) {
	var buf BitBuf
	require.Equal(t, BitBufCapacity, buf.Capacity())

	for size := 0; size <= BitBufCapacity; size++ {
		for _, reserve := range []int{0, 1, 4, BitBufCapacity / 2, BitBufCapacity} {
			want := size+reserve >= BitBufCapacity
			require.Equal(t, want, buf.FullWithReserve(reserve), "size=%d reserve=%d", size, reserve)
		}
		require.Equal(t, size+BitBufCapacity/2 >= BitBufCapacity, buf.Full())
		require.Equal(t, BitBufCapacity-size, buf.Remaining())
		if size < BitBufCapacity {
			require.NoError(t, buf.Push(BitGroup{Bits: uint16(size), Len: 16}))
		}
	}
}

func TestBitBufPushToCapacityKeepsEverything(t *testing.T) {
	var buf BitBuf
	for i := 0; i < BitBufCapacity; i++ {
		require.NoError(t, buf.Push(BitGroup{Bits: uint16(i), Len: uint16(i % 17)}))
	}
	require.Equal(t, BitBufCapacity, buf.Len())

	groups := buf.Groups()
	require.Len(t, groups, BitBufCapacity)
	for i, g := range groups {
		require.Equal(t, BitGroup{Bits: uint16(i), Len: uint16(i % 17)}, g)
	}

	err := buf.Push(BitGroup{Len: 1})
	require.True(t, errors.Is(err, ErrBitBufOverflow))
	require.Equal(t, BitBufCapacity, buf.Len())

	buf.Clear()
	require.Zero(t, buf.Len())
	require.Empty(t, buf.Groups())
}

func TestBitBufPushCode(t *testing.T) {
	var buf BitBuf
	code := BitGroup{Bits: 0b1010, Len: 4}

	require.NoError(t, buf.PushCode(code, BitGroup{}))
	require.Equal(t, 1, buf.Len())

	require.NoError(t, buf.PushCode(code, BitGroup{Bits: 3, Len: 2}))
	require.Equal(t, []BitGroup{code, code, {Bits: 3, Len: 2}}, buf.Groups())

	for buf.Len() < BitBufCapacity-1 {
		require.NoError(t, buf.Push(code))
	}
	require.ErrorIs(t, buf.PushCode(code, BitGroup{Bits: 1, Len: 1}), ErrBitBufOverflow)
	require.Equal(t, BitBufCapacity-1, buf.Len())
	require.NoError(t, buf.PushCode(code, BitGroup{}))
	require.Equal(t, BitBufCapacity, buf.Len())
}
