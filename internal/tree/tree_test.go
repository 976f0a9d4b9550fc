package tree_test

import (
	"encoding/binary"
	"net/netip"
	"testing"

	"github.com/deploymenttheory/go-ipqsdb/internal/bitaddr"
	"github.com/deploymenttheory/go-ipqsdb/internal/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(left, right uint32) [8]byte {
	var n [8]byte
	binary.LittleEndian.PutUint32(n[0:4], left)
	binary.LittleEndian.PutUint32(n[4:8], right)
	return n
}

func TestClassify(t *testing.T) {
	n := node(10, 20)
	isLeaf, isInternal, v := tree.Classify(false, n, 10, 100)
	assert.False(t, isLeaf)
	assert.True(t, isInternal)
	assert.Equal(t, uint64(10), v)

	isLeaf, isInternal, v = tree.Classify(true, n, 10, 100)
	assert.False(t, isLeaf)
	assert.True(t, isInternal)
	assert.Equal(t, uint64(20), v)

	n = node(0, 200)
	isLeaf, isInternal, _ = tree.Classify(false, n, 10, 100)
	assert.False(t, isLeaf)
	assert.False(t, isInternal)

	isLeaf, isInternal, v = tree.Classify(true, n, 10, 100)
	assert.True(t, isLeaf)
	assert.False(t, isInternal)
	assert.Equal(t, uint64(200), v)
}

// memSource is a fixed table of 8-byte nodes keyed by absolute offset,
// used to drive Walk without any file I/O.
type memSource map[uint64][8]byte

func (m memSource) ReadNode(offset uint64) ([8]byte, error) {
	n, ok := m[offset]
	if !ok {
		return [8]byte{}, assertUnreachable{offset}
	}
	return n, nil
}

type assertUnreachable struct{ offset uint64 }

func (a assertUnreachable) Error() string { return "no node at offset" }

const (
	treeStart = 100
	treeEnd   = 1000
)

func addrFromU32(v uint32) *bitaddr.Bits {
	return bitaddr.From(netip.AddrFrom4([4]byte{
		byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v),
	}))
}

func TestWalkDirectLeaf(t *testing.T) {
	root := treeStart + 5
	src := memSource{
		uint64(root): node(1500, 0), // bit0=0 -> leaf at 1500
	}
	addr := addrFromU32(0x00000000) // bit0 = 0
	offset, err := tree.Walk(src, treeStart, treeEnd, addr, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(1500), offset)
}

func TestWalkHoleFallbackFindsEnclosingRecord(t *testing.T) {
	// A 1-branch at depth 0 leads to an internal node whose 0-child is a
	// record R; depth-1's 1-child is a hole. Querying an address with
	// bits (1, 1, ...) must fall back to R: the hole at bit 1 backs up to
	// the nearest set bit at or before it (bit 1 itself), flips it to 0,
	// and re-reads the depth-1 node, landing on its 0-child leaf.
	root := uint64(treeStart + 5)
	depth1 := root + 8

	src := memSource{
		root:   node(9999, uint32(depth1)), // bit0=0 -> leaf 9999, a distinct record never reached here; bit0=1 -> depth1
		depth1: node(3000, 0),              // bit1=0 -> leaf 3000 (R); bit1=1 -> hole
	}

	addr := addrFromU32(0b11000000_00000000_00000000_00000000) // bits: 1,1,...
	offset, err := tree.Walk(src, treeStart, treeEnd, addr, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(3000), offset)
}

func TestWalkBlacklistMissingIsNotFound(t *testing.T) {
	root := uint64(treeStart + 5)
	src := memSource{
		root: node(0, 0), // both children are holes
	}
	addr := addrFromU32(0)
	_, err := tree.Walk(src, treeStart, treeEnd, addr, true)
	assert.ErrorIs(t, err, tree.ErrNotFound)
}

func TestWalkNonBlacklistTotalMissIsAddressExhausted(t *testing.T) {
	root := uint64(treeStart + 5)
	src := memSource{
		root: node(0, 0), // both children are holes, no prior 1-bit to backtrack to
	}
	addr := addrFromU32(0)
	_, err := tree.Walk(src, treeStart, treeEnd, addr, false)
	var terr *tree.Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, tree.KindAddressExhausted, terr.Kind)
}
