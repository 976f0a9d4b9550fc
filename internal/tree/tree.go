// Package tree implements the binary prefix-tree walk: classifying an
// 8-byte node's child pointers and descending the tree bit by bit,
// including the hole-fallback traversal that returns the nearest
// enclosing prefix when an address falls into a hole.
package tree

import (
	"fmt"

	"github.com/deploymenttheory/go-ipqsdb/internal/bitaddr"
)

// maxDepth is the hard ceiling on tree descent iterations. It bounds
// both address families (128 bits is the deepest real descent) with
// headroom for the hole-fallback backtracking this walk performs.
const maxDepth = 257

// Kind identifies why a lookup failed to classify a leaf.
type Kind int

const (
	KindAddressExhausted Kind = iota
	KindTreeTooDeep
	KindNotFound
)

// Error reports a lookup-time failure from the tree walker.
type Error struct {
	Kind Kind
	msg  string
}

func (e *Error) Error() string { return e.msg }

func newErr(kind Kind, msg string) *Error {
	return &Error{Kind: kind, msg: msg}
}

// ErrNotFound is returned when a blacklist file has no record covering
// the queried address. Non-blacklist files never return this: hole
// fallback either finds an enclosing record or raises AddressExhausted.
var ErrNotFound = newErr(KindNotFound, "address not found")

// classification is the three-way outcome of reading one child pointer
// out of an 8-byte node.
type classification int

const (
	missing classification = iota
	internal
	leaf
)

func classify(value, treeStart, treeEnd uint64) (classification, uint64) {
	switch {
	case value < treeStart:
		return missing, 0
	case value >= treeEnd:
		return leaf, value
	default:
		return internal, value
	}
}

// ChildPointers decodes an 8-byte tree node into its two little-endian
// u32 child pointers (0-child, then 1-child).
func ChildPointers(node [8]byte) (zeroChild, oneChild uint32) {
	zeroChild = uint32(node[0]) | uint32(node[1])<<8 | uint32(node[2])<<16 | uint32(node[3])<<24
	oneChild = uint32(node[4]) | uint32(node[5])<<8 | uint32(node[6])<<16 | uint32(node[7])<<24
	return
}

// Classify classifies the child pointer of node selected by bit b
// (false picks the 0-child, true the 1-child) against the tree's
// [treeStart, treeEnd) bounds.
func Classify(b bool, node [8]byte, treeStart, treeEnd uint64) (isLeaf bool, isInternal bool, value uint64) {
	zero, one := ChildPointers(node)
	var v uint64
	if b {
		v = uint64(one)
	} else {
		v = uint64(zero)
	}
	kind, out := classify(v, treeStart, treeEnd)
	return kind == leaf, kind == internal, out
}

// NodeSource reads the 8-byte tree node located at an absolute file
// offset. Both reader facades implement it over their own backing
// store (seek+read for streaming, slicing for resident).
type NodeSource interface {
	ReadNode(offset uint64) ([8]byte, error)
}

// Walk descends the prefix tree rooted at treeStart+5 looking for the
// leaf that covers addr, performing hole fallback unless isBlacklist is
// set (in which case a hole immediately ends the walk with ErrNotFound).
// It returns the absolute file offset of the matching leaf record.
func Walk(src NodeSource, treeStart, treeEnd uint64, addr *bitaddr.Bits, isBlacklist bool) (uint64, error) {
	bitIndex := 0
	nodeOffset := treeStart + 5
	var previous [bitaddr.MaxBits]uint64

	for i := 0; i < maxDepth; i++ {
		if bitIndex >= addr.Len() {
			return 0, newErr(KindAddressExhausted, "address exhausted before a leaf was reached")
		}

		previous[bitIndex] = nodeOffset

		node, err := src.ReadNode(nodeOffset)
		if err != nil {
			return 0, fmt.Errorf("reading tree node at offset %d: %w", nodeOffset, err)
		}

		isLeaf, isInternal, value := Classify(addr.At(bitIndex), node, treeStart, treeEnd)

		switch {
		case isLeaf:
			return value, nil
		case isInternal:
			nodeOffset = value
			bitIndex++
		case isBlacklist:
			return 0, ErrNotFound
		default:
			newPos, ok := addr.Backtrack(bitIndex)
			if !ok {
				return 0, newErr(KindAddressExhausted, "address exhausted before a leaf was reached")
			}
			bitIndex = newPos
			nodeOffset = previous[bitIndex]
		}
	}

	return 0, newErr(KindTreeTooDeep, "tree walk exceeded maximum depth")
}
