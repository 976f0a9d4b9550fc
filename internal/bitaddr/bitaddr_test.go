package bitaddr_test

import (
	"net/netip"
	"testing"

	"github.com/deploymenttheory/go-ipqsdb/internal/bitaddr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fromU32(v uint32) *bitaddr.Bits {
	return bitaddr.From(netip.AddrFrom4([4]byte{
		byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v),
	}))
}

func toU32(a *bitaddr.Bits) uint32 {
	var v uint32
	for i := 0; i < 32; i++ {
		v <<= 1
		if a.At(i) {
			v |= 1
		}
	}
	return v
}

func TestAtAllZero(t *testing.T) {
	a := fromU32(0)
	for i := 0; i < 32; i++ {
		assert.False(t, a.At(i), "position = %d", i)
	}
}

func TestAtAllOne(t *testing.T) {
	a := fromU32(0xffffffff)
	for i := 0; i < 32; i++ {
		assert.True(t, a.At(i), "position = %d", i)
	}
}

func TestAtLeadingBit(t *testing.T) {
	a := fromU32(0x80000000)
	assert.True(t, a.At(0))
	for i := 1; i < 32; i++ {
		assert.False(t, a.At(i), "position = %d", i)
	}
}

func TestAtTrailingBit(t *testing.T) {
	a := fromU32(1)
	for i := 0; i < 31; i++ {
		assert.False(t, a.At(i), "position = %d", i)
	}
	assert.True(t, a.At(31))
}

func TestBacktrack(t *testing.T) {
	a := fromU32(0b10000000_00000000_10000000_00000000)
	pos, ok := a.Backtrack(31)
	require.True(t, ok)
	assert.Equal(t, 16, pos)
	assert.Equal(t, uint32(0b10000000_00000000_01111111_11111111), toU32(a))

	a = fromU32(0b10000000_00000000_10000000_00000000)
	pos, ok = a.Backtrack(16)
	require.True(t, ok)
	assert.Equal(t, 16, pos)
	assert.Equal(t, uint32(0b10000000_00000000_01111111_11111111), toU32(a))

	a = fromU32(0b10000000_00000000_10000000_00000000)
	pos, ok = a.Backtrack(15)
	require.True(t, ok)
	assert.Equal(t, 0, pos)
	assert.Equal(t, uint32(0b01111111_11111111_11111111_11111111), toU32(a))

	a = fromU32(0)
	_, ok = a.Backtrack(31)
	assert.False(t, ok)
}

func TestLenByFamily(t *testing.T) {
	v4 := bitaddr.From(netip.MustParseAddr("8.8.8.8"))
	assert.Equal(t, 32, v4.Len())

	v6 := bitaddr.From(netip.MustParseAddr("2001:4860:4860::8844"))
	assert.Equal(t, 128, v6.Len())
}
