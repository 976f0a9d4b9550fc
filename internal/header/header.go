// Package header decodes the fixed-layout parts of the flat-file
// database: the 11-byte file header, the column descriptor block that
// follows it, and the 5-byte tree header that follows that. All three
// are validated against the structural invariants the format requires;
// a reader facade refuses to open a file that fails any of them.
package header

import (
	"fmt"
	"unicode/utf8"

	"github.com/deploymenttheory/go-ipqsdb/internal/flags"
	"github.com/deploymenttheory/go-ipqsdb/internal/varint"
)

// Kind identifies a structural validation failure. Callers should
// compare against the exported Kind constants, not the error string.
type Kind int

const (
	KindBadMagic Kind = iota
	KindBadVersion
	KindBadHeaderSize
	KindNoColumns
	KindBadColumnBlockLength
	KindBadRecordSize
	KindMalformedVarint
	KindBadColumnName
	KindBadTreeFlag
	KindEmptyTree
)

// Error reports a structural validation failure, carrying the EID code
// used in the format's reference decoder for operator triage.
type Error struct {
	Kind Kind
	EID  int
	msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (EID %d)", e.msg, e.EID)
}

func newErr(kind Kind, eid int, msg string) *Error {
	return &Error{Kind: kind, EID: eid, msg: msg}
}

// FileHeaderLength is the fixed size, in bytes, of the file header.
const FileHeaderLength = 11

// ColumnDescriptorLength is the fixed size, in bytes, of a single
// column descriptor within the column descriptor block.
const ColumnDescriptorLength = 24

// TreeHeaderLength is the fixed size, in bytes, of the tree header.
const TreeHeaderLength = 5

// currentVersion is the only format version byte value go-ipqsdb accepts.
const currentVersion byte = 0x01

// FileHeader is the decoded 11-byte file header.
type FileHeader struct {
	BinaryData         bool
	IsV6               bool
	IsBlacklist        bool
	TreeStart          uint64
	ColumnsBytesLength int
	RecordBytesLength  int
}

// ParseFileHeader validates and decodes the first FileHeaderLength
// bytes of the file.
func ParseFileHeader(b []byte) (FileHeader, error) {
	if len(b) < FileHeaderLength {
		return FileHeader{}, newErr(KindBadHeaderSize, 1, "file too short for header")
	}

	option := b[0]
	isV4 := flags.Has(option, flags.IPv4Map)
	isV6 := flags.Has(option, flags.IPv6Map)
	if isV4 == isV6 {
		// exactly one of the two address-family bits must be set
		return FileHeader{}, newErr(KindBadMagic, 1, "invalid file format, invalid first byte")
	}
	isBlacklist := flags.Has(option, flags.BlacklistFile)
	binaryData := flags.Has(option, flags.BinaryData)

	if b[1] != currentVersion {
		return FileHeader{}, newErr(KindBadVersion, 2, "invalid file version")
	}

	treeStart, _, err := varint.Decode(b[2:5])
	if err != nil {
		return FileHeader{}, newErr(KindMalformedVarint, 3, "invalid file format, invalid header bytes")
	}
	if treeStart == 0 {
		return FileHeader{}, newErr(KindBadHeaderSize, 3, "invalid file format, invalid header bytes")
	}
	if treeStart < FileHeaderLength {
		return FileHeader{}, newErr(KindBadHeaderSize, 3, "invalid file format, invalid header bytes")
	}

	columnsBytesLength := int(treeStart) - FileHeaderLength
	if columnsBytesLength == 0 {
		return FileHeader{}, newErr(KindNoColumns, 4, "file appears to be invalid, no column data found")
	}
	if columnsBytesLength%ColumnDescriptorLength != 0 {
		return FileHeader{}, newErr(KindBadColumnBlockLength, 5, "invalid column data, too many or too few bytes")
	}

	recordBytes, _, err := varint.Decode(b[5:7])
	if err != nil {
		return FileHeader{}, newErr(KindMalformedVarint, 6, "invalid file format, invalid record bytes")
	}
	if recordBytes == 0 {
		return FileHeader{}, newErr(KindBadRecordSize, 6, "invalid file format, invalid record bytes")
	}

	return FileHeader{
		BinaryData:         binaryData,
		IsV6:               isV6,
		IsBlacklist:        isBlacklist,
		TreeStart:          treeStart,
		ColumnsBytesLength: columnsBytesLength,
		RecordBytesLength:  int(recordBytes),
	}, nil
}

// ColumnDescriptor is one 24-byte entry of the column descriptor block:
// a NUL-padded ASCII name and a record-type flag byte.
type ColumnDescriptor struct {
	Name      string
	TypeFlags byte
}

// ParseColumnDescriptors decodes the column descriptor block that
// follows the file header. b's length must already have been validated
// as a positive multiple of ColumnDescriptorLength (FileHeader.ColumnsBytesLength).
func ParseColumnDescriptors(b []byte) ([]ColumnDescriptor, error) {
	n := len(b) / ColumnDescriptorLength
	out := make([]ColumnDescriptor, 0, n)
	for i := 0; i < n; i++ {
		start := i * ColumnDescriptorLength
		nameBytes := b[start : start+ColumnDescriptorLength-1]
		typeFlags := b[start+ColumnDescriptorLength-1]

		if !utf8.Valid(nameBytes) {
			return nil, newErr(KindBadColumnName, 11, "invalid column name encoding")
		}
		name := trimTrailingNUL(string(nameBytes))

		out = append(out, ColumnDescriptor{Name: name, TypeFlags: typeFlags})
	}
	return out, nil
}

func trimTrailingNUL(s string) string {
	i := len(s)
	for i > 0 && s[i-1] == 0x00 {
		i--
	}
	return s[:i]
}

// TreeHeader is the decoded 5-byte tree header.
type TreeHeader struct {
	TreeEnd uint64
}

// ParseTreeHeader validates and decodes the 5-byte tree header located
// at fh.TreeStart.
func ParseTreeHeader(fh FileHeader, b []byte) (TreeHeader, error) {
	if len(b) < TreeHeaderLength {
		return TreeHeader{}, newErr(KindBadTreeFlag, 7, "file does not appear to be valid, bad binary tree")
	}
	if !flags.Has(b[0], flags.TreeData) {
		return TreeHeader{}, newErr(KindBadTreeFlag, 7, "file does not appear to be valid, bad binary tree")
	}

	size := uint64(b[1]) | uint64(b[2])<<8 | uint64(b[3])<<16 | uint64(b[4])<<24
	if size == 0 {
		return TreeHeader{}, newErr(KindEmptyTree, 8, "file does not appear to be valid, tree size is too small")
	}

	return TreeHeader{TreeEnd: fh.TreeStart + size}, nil
}
