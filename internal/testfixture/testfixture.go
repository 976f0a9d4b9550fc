// Package testfixture synthesizes valid flat-file databases in memory,
// for tests that need a real file to open rather than hand-built
// structs. No production-sized .ipqs file ships with this module, so
// both the streaming and resident reader facades' tests build their
// fixtures here instead.
package testfixture

import (
	"encoding/binary"
	"math"

	"github.com/deploymenttheory/go-ipqsdb/internal/columns"
	"github.com/deploymenttheory/go-ipqsdb/internal/flags"
)

// ColumnSpec describes one column to include in the synthesized file.
type ColumnSpec struct {
	Name string
	Kind columns.Kind
}

// Value holds exactly one of the scalar kinds a column can carry.
type Value struct {
	Str *string
	U32 *uint32
	F32 *float32
}

// Str builds a string Value.
func Str(s string) Value { return Value{Str: &s} }

// U32 builds an integer or small-integer Value.
func U32(v uint32) Value { return Value{U32: &v} }

// F32 builds a float Value.
func F32(v float32) Value { return Value{F32: &v} }

// RecordSpec is one leaf record to place in the tree, reached by
// walking Path from the root (false = 0-child, true = 1-child). Path
// may be shorter than the address family's full bit width: the record
// becomes the covering prefix for every address sharing that path.
type RecordSpec struct {
	Path          []bool
	Binary1       byte
	Binary2       byte
	Common        byte
	Fields        map[string]Value
}

// Options describes the whole synthetic file.
type Options struct {
	IsV6        bool
	IsBlacklist bool
	BinaryData  bool
	Columns     []ColumnSpec
	Records     []RecordSpec
}

// Build synthesizes a complete, valid flat-file database from opts and
// returns its bytes.
func Build(opts Options) []byte {
	descs := make([]columns.Descriptor, len(opts.Columns))
	for i, c := range opts.Columns {
		descs[i] = columns.Descriptor{Name: c.Name, TypeFlags: typeFlagFor(c.Kind)}
	}
	layout := columns.Build(descs, opts.BinaryData)

	recordWidth := 1
	if opts.BinaryData {
		recordWidth = 3
	}
	for _, c := range layout.Columns {
		recordWidth += c.Width
	}

	columnsBytes := encodeColumnBlock(opts.Columns)
	treeStart := uint64(11 + len(columnsBytes))

	nodes, offsets, treeSize := buildTrie(opts.Records, treeStart+5)
	treeEnd := treeStart + 5 + treeSize

	leafOffsets := make([]uint64, len(opts.Records))
	for i := range opts.Records {
		leafOffsets[i] = treeEnd + uint64(i)*uint64(recordWidth)
	}

	treeBytes := make([]byte, treeSize)
	for _, n := range nodes {
		pos := offsets[n] - (treeStart + 5)
		zero := childValue(n.zeroChild, offsets, leafOffsets)
		one := childValue(n.oneChild, offsets, leafOffsets)
		binary.LittleEndian.PutUint32(treeBytes[pos:pos+4], zero)
		binary.LittleEndian.PutUint32(treeBytes[pos+4:pos+8], one)
	}

	leafBytes := make([]byte, 0, len(opts.Records)*recordWidth)
	poolBytes := make([]byte, 0, 64)
	poolBase := treeEnd + uint64(len(opts.Records))*uint64(recordWidth)

	for _, rs := range opts.Records {
		rec := make([]byte, recordWidth)
		cursor := 0
		if opts.BinaryData {
			rec[0] = rs.Binary1
			rec[1] = rs.Binary2
			cursor = 2
		}
		rec[cursor] = rs.Common

		for _, col := range layout.Columns {
			offset, ok := layout.Offsets[columns.Name(col.Name)]
			if !ok {
				continue
			}
			v, ok := rs.Fields[col.Name]
			if !ok {
				continue
			}
			switch col.Kind {
			case columns.KindString:
				s := ""
				if v.Str != nil {
					s = *v.Str
				}
				poolOffset := poolBase + uint64(len(poolBytes))
				poolBytes = append(poolBytes, byte(len(s)))
				poolBytes = append(poolBytes, []byte(s)...)
				binary.LittleEndian.PutUint32(rec[offset:offset+4], uint32(poolOffset))
			case columns.KindInt:
				val := uint32(0)
				if v.U32 != nil {
					val = *v.U32
				}
				binary.LittleEndian.PutUint32(rec[offset:offset+4], val)
			case columns.KindFloat:
				val := float32(0)
				if v.F32 != nil {
					val = *v.F32
				}
				binary.LittleEndian.PutUint32(rec[offset:offset+4], math.Float32bits(val))
			case columns.KindSmallInt, columns.KindUnknown:
				val := uint32(0)
				if v.U32 != nil {
					val = *v.U32
				}
				rec[offset] = byte(val)
			}
		}
		leafBytes = append(leafBytes, rec...)
	}

	totalLen := int(poolBase) + len(poolBytes)
	out := make([]byte, totalLen)

	out[0] = optionByte(opts)
	out[1] = 0x01
	copy(out[2:5], padVarint(treeStart, 3))
	copy(out[5:7], padVarint(uint64(recordWidth), 2))
	binary.LittleEndian.PutUint32(out[7:11], uint32(totalLen))

	copy(out[11:], columnsBytes)

	copy(out[treeStart:treeStart+5], treeHeaderBytes(treeSize))
	copy(out[treeStart+5:treeEnd], treeBytes)

	copy(out[treeEnd:poolBase], leafBytes)
	copy(out[poolBase:], poolBytes)

	return out
}

func optionByte(opts Options) byte {
	b := flags.IPv4Map
	if opts.IsV6 {
		b = flags.IPv6Map
	}
	if opts.IsBlacklist {
		b |= flags.BlacklistFile
	}
	if opts.BinaryData {
		b |= flags.BinaryData
	}
	return b
}

func treeHeaderBytes(size uint64) []byte {
	b := make([]byte, 5)
	b[0] = flags.TreeData
	binary.LittleEndian.PutUint32(b[1:5], uint32(size))
	return b
}

func typeFlagFor(k columns.Kind) byte {
	switch k {
	case columns.KindString:
		return flags.StringData
	case columns.KindInt:
		return flags.IntData
	case columns.KindFloat:
		return flags.FloatData
	case columns.KindSmallInt:
		return flags.SmallIntData
	default:
		return 0
	}
}

func encodeColumnBlock(specs []ColumnSpec) []byte {
	out := make([]byte, 0, len(specs)*24)
	for _, s := range specs {
		entry := make([]byte, 24)
		copy(entry, []byte(s.Name))
		entry[23] = typeFlagFor(s.Kind)
		out = append(out, entry...)
	}
	return out
}

// padVarint base-128 encodes v (protobuf/LEB128 style, matching
// internal/varint's decoder) and pads the result to n bytes. The
// decoder only consumes as many bytes as the varint needs and ignores
// the rest, so trailing zero padding is safe.
func padVarint(v uint64, n int) []byte {
	out := make([]byte, 0, n)
	for v >= 0x80 {
		out = append(out, byte(v)|0x80)
		v >>= 7
	}
	out = append(out, byte(v))
	for len(out) < n {
		out = append(out, 0)
	}
	return out
}

// trieNode is one internal node of the synthetic prefix tree being
// assembled. Each child slot is either empty (a hole), an internal
// node, or a leaf reference by record index.
type trieNode struct {
	zeroChild, oneChild child
}

type child struct {
	node     *trieNode
	leafIdx  int
	hasLeaf  bool
	hasChild bool
}

// buildTrie inserts every record's bit path into a trie, assigns each
// node an absolute file offset starting at nodeBase (the root's
// offset, i.e. treeStart+5), and returns the nodes in offset order,
// their offset map, and the total tree size in bytes.
func buildTrie(records []RecordSpec, nodeBase uint64) ([]*trieNode, map[*trieNode]uint64, uint64) {
	root := &trieNode{}
	for i, rs := range records {
		cur := root
		for depth, bit := range rs.Path {
			last := depth == len(rs.Path)-1
			c := &cur.zeroChild
			if bit {
				c = &cur.oneChild
			}
			if last {
				c.hasLeaf = true
				c.leafIdx = i
				c.hasChild = false
				c.node = nil
			} else {
				if c.node == nil {
					c.node = &trieNode{}
					c.hasChild = true
				}
				cur = c.node
			}
		}
	}

	var order []*trieNode
	offsets := map[*trieNode]uint64{}
	next := nodeBase

	order = append(order, root)
	offsets[root] = next
	next += 8

	queue := []*trieNode{root}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, c := range []*child{&n.zeroChild, &n.oneChild} {
			if c.hasChild && c.node != nil {
				if _, seen := offsets[c.node]; !seen {
					offsets[c.node] = next
					next += 8
					order = append(order, c.node)
					queue = append(queue, c.node)
				}
			}
		}
	}

	return order, offsets, uint64(len(order)) * 8
}

func childValue(c child, offsets map[*trieNode]uint64, leafOffsets []uint64) uint32 {
	switch {
	case c.hasLeaf:
		return uint32(leafOffsets[c.leafIdx])
	case c.hasChild && c.node != nil:
		return uint32(offsets[c.node])
	default:
		return 0
	}
}
