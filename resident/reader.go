// Package resident implements the whole-file-in-memory reader facade:
// the entire database is held in one contiguous byte slice and every
// Fetch slices directly into it. Record accessors borrow from that
// slice rather than copying, so a Record returned by this package must
// not outlive its Reader.
package resident

import (
	"encoding/binary"
	"fmt"
	"math"
	"net/netip"
	"os"

	ipqsdb "github.com/deploymenttheory/go-ipqsdb"
	"github.com/deploymenttheory/go-ipqsdb/internal/bitaddr"
	"github.com/deploymenttheory/go-ipqsdb/internal/columns"
	"github.com/deploymenttheory/go-ipqsdb/internal/header"
	"github.com/deploymenttheory/go-ipqsdb/internal/maperr"
	"github.com/deploymenttheory/go-ipqsdb/internal/tree"
)

// Reader is a resident database reader: the whole file lives in data,
// and Fetch returns Record values that borrow directly from it.
type Reader struct {
	data        []byte
	binaryData  bool
	isV6        bool
	isBlacklist bool
	treeStart   uint64
	treeEnd     uint64
	recordBytes int
	layout      columns.Layout
}

// Option configures Open or New.
type Option func(*options)

type options struct {
	maxLeafBytes int
}

// WithMaxLeafBytes rejects the file at construction time if its header
// declares a leaf record size larger than n bytes, guarding against a
// corrupt or hostile header steering later reads far past any
// plausible record. n <= 0 (the default) applies no limit.
func WithMaxLeafBytes(n int) Option {
	return func(o *options) { o.maxLeafBytes = n }
}

// Open reads path in its entirety and builds a Reader over it.
func Open(path string, opts ...Option) (*Reader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ipqsdb.NewOpenError(ipqsdb.KindIoOpenFailed, 0, err)
	}
	return New(data, opts...)
}

// New builds a Reader over data, which the Reader takes ownership of:
// callers must not mutate it afterwards, since Record values returned
// by Fetch borrow from it directly.
func New(data []byte, opts ...Option) (*Reader, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if len(data) < header.FileHeaderLength {
		return nil, ipqsdb.NewOpenError(ipqsdb.KindTruncatedFile, 1, fmt.Errorf("file too short for header"))
	}

	fh, err := header.ParseFileHeader(data[:header.FileHeaderLength])
	if err != nil {
		return nil, maperr.Open(err)
	}
	if o.maxLeafBytes > 0 && fh.RecordBytesLength > o.maxLeafBytes {
		return nil, ipqsdb.NewOpenError(ipqsdb.KindBadRecordSize, 6, fmt.Errorf("declared record size %d exceeds configured maximum %d", fh.RecordBytesLength, o.maxLeafBytes))
	}

	columnsEnd := header.FileHeaderLength + fh.ColumnsBytesLength
	if len(data) < columnsEnd {
		return nil, ipqsdb.NewOpenError(ipqsdb.KindTruncatedFile, 4, fmt.Errorf("file too short for column block"))
	}
	descriptors, err := header.ParseColumnDescriptors(data[header.FileHeaderLength:columnsEnd])
	if err != nil {
		return nil, maperr.Open(err)
	}

	if uint64(len(data)) < fh.TreeStart+header.TreeHeaderLength {
		return nil, ipqsdb.NewOpenError(ipqsdb.KindTruncatedFile, 7, fmt.Errorf("file too short for tree header"))
	}
	th, err := header.ParseTreeHeader(fh, data[fh.TreeStart:fh.TreeStart+header.TreeHeaderLength])
	if err != nil {
		return nil, maperr.Open(err)
	}
	if th.TreeEnd > uint64(len(data)) {
		return nil, ipqsdb.NewOpenError(ipqsdb.KindTruncatedFile, 8, fmt.Errorf("declared tree end %d exceeds file size %d", th.TreeEnd, len(data)))
	}

	layout := columns.Build(toDescriptors(descriptors), fh.BinaryData)

	return &Reader{
		data:        data,
		binaryData:  fh.BinaryData,
		isV6:        fh.IsV6,
		isBlacklist: fh.IsBlacklist,
		treeStart:   fh.TreeStart,
		treeEnd:     th.TreeEnd,
		recordBytes: fh.RecordBytesLength,
		layout:      layout,
	}, nil
}

func toDescriptors(descs []header.ColumnDescriptor) []columns.Descriptor {
	out := make([]columns.Descriptor, len(descs))
	for i, d := range descs {
		out[i] = columns.Descriptor{Name: d.Name, TypeFlags: d.TypeFlags}
	}
	return out
}

// IsIPv6 reports whether the file stores IPv6 addresses (false means IPv4).
func (r *Reader) IsIPv6() bool { return r.isV6 }

// IsBlacklist reports whether the file is a blacklist file: a hole in
// the tree returns a LookupError of kind KindNotFound instead of
// falling back to the nearest enclosing prefix.
func (r *Reader) IsBlacklist() bool { return r.isBlacklist }

// ReadNode implements tree.NodeSource by slicing directly into data.
func (r *Reader) ReadNode(offset uint64) ([8]byte, error) {
	var node [8]byte
	if offset+8 > uint64(len(r.data)) {
		return node, fmt.Errorf("tree node offset %d out of range (file size %d)", offset, len(r.data))
	}
	copy(node[:], r.data[offset:offset+8])
	return node, nil
}

// Fetch looks up addr and returns the covering leaf record. The
// returned Record borrows from the Reader's backing buffer and must
// not be used after the Reader is discarded.
func (r *Reader) Fetch(addr netip.Addr) (ipqsdb.Record, error) {
	addr = addr.Unmap()
	if r.isV6 && addr.Is4() {
		return nil, ipqsdb.NewLookupError(ipqsdb.KindWrongFamily, 0, fmt.Errorf("file stores IPv6 addresses, got IPv4"))
	}
	if !r.isV6 && addr.Is6() {
		return nil, ipqsdb.NewLookupError(ipqsdb.KindWrongFamily, 0, fmt.Errorf("file stores IPv4 addresses, got IPv6"))
	}

	bits := bitaddr.From(addr)
	offset, err := tree.Walk(r, r.treeStart, r.treeEnd, bits, r.isBlacklist)
	if err != nil {
		return nil, maperr.Lookup(err)
	}

	if offset+uint64(r.recordBytes) > uint64(len(r.data)) {
		return nil, ipqsdb.NewLookupError(ipqsdb.KindTruncatedLeaf, 0, fmt.Errorf("leaf record at offset %d exceeds file size %d", offset, len(r.data)))
	}

	return &record{reader: r, offset: offset}, nil
}

func (r *Reader) getInt(offset int) uint64 {
	return uint64(binary.LittleEndian.Uint32(r.data[offset : offset+4]))
}

func (r *Reader) getSmallInt(offset int) uint32 {
	return uint32(r.data[offset])
}

func (r *Reader) getFloat(offset int) float32 {
	bits := binary.LittleEndian.Uint32(r.data[offset : offset+4])
	return math.Float32frombits(bits)
}

// getString reads the 4-byte little-endian pool offset at offset, then
// the length-prefixed ASCII string it points to. It reports ok=false
// (rather than an error) for any out-of-range or malformed read,
// matching the resident reader's borrow-only, error-free accessors.
func (r *Reader) getString(offset int) (string, bool) {
	if offset+4 > len(r.data) {
		return "", false
	}
	poolOffset := binary.LittleEndian.Uint32(r.data[offset : offset+4])
	if int(poolOffset) >= len(r.data) {
		return "", false
	}
	strLen := int(r.data[poolOffset])
	start := int(poolOffset) + 1
	end := start + strLen
	if end > len(r.data) {
		return "", false
	}
	return string(r.data[start:end]), true
}
