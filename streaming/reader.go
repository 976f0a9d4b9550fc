// Package streaming implements the seek/read reader facade: the file
// stays on disk (or behind any io.ReadSeeker) and each Fetch reads only
// the bytes it needs — the tree nodes walked and the one leaf record
// found, plus any string-pool entries that leaf references. Unlike
// package resident, the Record values it returns own their data and
// remain valid after the Reader is closed.
//
// A Reader is not safe for concurrent use: every Fetch moves the read
// position of the shared io.ReadSeeker. Concurrent callers need one
// Reader each.
package streaming

import (
	"encoding/binary"
	"fmt"
	"io"
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

// Reader is a streaming database reader: it holds an io.ReadSeeker and
// reads from it on demand rather than buffering the whole file.
type Reader struct {
	rs          io.ReadSeeker
	closer      io.Closer
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

// Open opens path and builds a Reader that reads from it on demand.
// The returned Reader owns the file and must be closed with Close.
func Open(path string, opts ...Option) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ipqsdb.NewOpenError(ipqsdb.KindIoOpenFailed, 0, err)
	}
	r, err := New(f, opts...)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// New builds a Reader over rs, reading just enough of it to validate
// the file header, column descriptors, and tree header.
func New(rs io.ReadSeeker, opts ...Option) (*Reader, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	fileHeaderBuf, err := readAt(rs, 0, header.FileHeaderLength)
	if err != nil {
		return nil, ipqsdb.NewOpenError(ipqsdb.KindTruncatedFile, 1, err)
	}
	fh, err := header.ParseFileHeader(fileHeaderBuf)
	if err != nil {
		return nil, maperr.Open(err)
	}
	if o.maxLeafBytes > 0 && fh.RecordBytesLength > o.maxLeafBytes {
		return nil, ipqsdb.NewOpenError(ipqsdb.KindBadRecordSize, 6, fmt.Errorf("declared record size %d exceeds configured maximum %d", fh.RecordBytesLength, o.maxLeafBytes))
	}

	colBuf, err := readAt(rs, header.FileHeaderLength, fh.ColumnsBytesLength)
	if err != nil {
		return nil, ipqsdb.NewOpenError(ipqsdb.KindTruncatedFile, 4, err)
	}
	descriptors, err := header.ParseColumnDescriptors(colBuf)
	if err != nil {
		return nil, maperr.Open(err)
	}

	treeHeaderBuf, err := readAt(rs, fh.TreeStart, header.TreeHeaderLength)
	if err != nil {
		return nil, ipqsdb.NewOpenError(ipqsdb.KindTruncatedFile, 7, err)
	}
	th, err := header.ParseTreeHeader(fh, treeHeaderBuf)
	if err != nil {
		return nil, maperr.Open(err)
	}

	layout := columns.Build(toDescriptors(descriptors), fh.BinaryData)

	return &Reader{
		rs:          rs,
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

func readAt(rs io.ReadSeeker, offset uint64, n int) ([]byte, error) {
	if _, err := rs.Seek(int64(offset), io.SeekStart); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(rs, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// IsIPv6 reports whether the file stores IPv6 addresses (false means IPv4).
func (r *Reader) IsIPv6() bool { return r.isV6 }

// IsBlacklist reports whether the file is a blacklist file: a hole in
// the tree returns a LookupError of kind KindNotFound instead of
// falling back to the nearest enclosing prefix.
func (r *Reader) IsBlacklist() bool { return r.isBlacklist }

// ReadNode implements tree.NodeSource by seeking to offset and reading
// 8 bytes.
func (r *Reader) ReadNode(offset uint64) ([8]byte, error) {
	var node [8]byte
	buf, err := readAt(r.rs, offset, 8)
	if err != nil {
		return node, fmt.Errorf("reading tree node at offset %d: %w", offset, err)
	}
	copy(node[:], buf)
	return node, nil
}

// Fetch looks up addr and eagerly decodes the covering leaf record,
// including every string field it references, into a self-contained
// Record that remains valid after the Reader is closed.
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

	return r.decodeLeaf(offset)
}

// Close closes the underlying file when the Reader was built with
// Open. It is a no-op when built with New over a caller-owned
// io.ReadSeeker.
func (r *Reader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

func (r *Reader) decodeLeaf(offset uint64) (*record, error) {
	buf, err := readAt(r.rs, offset, r.recordBytes)
	if err != nil {
		return nil, ipqsdb.NewLookupError(ipqsdb.KindTruncatedLeaf, 0, fmt.Errorf("reading leaf record at offset %d: %w", offset, err))
	}

	rec := &record{}

	cursor := 0
	if r.binaryData {
		rec.hasBinaryData = true
		rec.firstByte = buf[0]
		rec.secondByte = buf[1]
		cursor = 2
	}
	rec.commonByte = buf[cursor]
	cursor++

	rec.extra = make([]columns.Value, 0, len(r.layout.Columns))

	for _, col := range r.layout.Columns {
		colOffset := cursor
		cursor += col.Width
		name := columns.Name(col.Name)

		switch col.Kind {
		case columns.KindInt:
			v := uint64(binary.LittleEndian.Uint32(buf[colOffset : colOffset+4]))
			rec.extra = append(rec.extra, columns.Value{Name: col.Name, Kind: col.Kind, Raw: fmt.Sprintf("%d", v)})
			if name == columns.NameASN {
				rec.asn, rec.asnOk = v, true
			}
		case columns.KindFloat:
			v := math.Float32frombits(binary.LittleEndian.Uint32(buf[colOffset : colOffset+4]))
			rec.extra = append(rec.extra, columns.Value{Name: col.Name, Kind: col.Kind, Raw: fmt.Sprintf("%g", v)})
			switch name {
			case columns.NameLatitude:
				rec.latitude, rec.latitudeOk = v, true
			case columns.NameLongitude:
				rec.longitude, rec.longitudeOk = v, true
			}
		case columns.KindSmallInt, columns.KindUnknown:
			v := uint32(buf[colOffset])
			rec.extra = append(rec.extra, columns.Value{Name: col.Name, Kind: col.Kind, Raw: fmt.Sprintf("%d", v)})
			switch name {
			case columns.NameZeroFraudScore:
				rec.fraudScore[0], rec.fraudScoreOk[0] = v, true
			case columns.NameOneFraudScore:
				rec.fraudScore[1], rec.fraudScoreOk[1] = v, true
			case columns.NameTwoFraudScore:
				rec.fraudScore[2], rec.fraudScoreOk[2] = v, true
			case columns.NameThreeFraudScore:
				rec.fraudScore[3], rec.fraudScoreOk[3] = v, true
			}
		case columns.KindString:
			s, sok, serr := r.readPoolString(buf, colOffset)
			if serr != nil {
				return nil, ipqsdb.NewLookupError(ipqsdb.KindBadString, 0, fmt.Errorf("decoding column %s: %w", name, serr))
			}
			rec.extra = append(rec.extra, columns.Value{Name: col.Name, Kind: col.Kind, Raw: s})
			switch name {
			case columns.NameCountry:
				rec.country, rec.countryOk = s, sok
			case columns.NameCity:
				rec.city, rec.cityOk = s, sok
			case columns.NameRegion:
				rec.region, rec.regionOk = s, sok
			case columns.NameISP:
				rec.isp, rec.ispOk = s, sok
			case columns.NameOrganization:
				rec.organization, rec.organizationOk = s, sok
			case columns.NameTimezone:
				rec.timezone, rec.timezoneOk = s, sok
			}
		}
	}

	return rec, nil
}

// readPoolString reads the 4-byte little-endian pool offset at
// colOffset within buf, then the length-prefixed ASCII string it
// points to elsewhere in the file.
func (r *Reader) readPoolString(buf []byte, colOffset int) (string, bool, error) {
	poolOffset := binary.LittleEndian.Uint32(buf[colOffset : colOffset+4])
	lenBuf, err := readAt(r.rs, uint64(poolOffset), 1)
	if err != nil {
		return "", false, err
	}
	strLen := int(lenBuf[0])
	strBuf, err := readAt(r.rs, uint64(poolOffset)+1, strLen)
	if err != nil {
		return "", false, err
	}
	return string(strBuf), true, nil
}
