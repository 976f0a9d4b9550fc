// Package columns computes how a leaf record's bytes map to column
// values. From the ordered column descriptors parsed out of the file,
// it derives either an ordered decoding plan (used by the streaming
// reader, which decodes a leaf's columns sequentially as it reads them)
// or a byte-offset index keyed by recognized column name (used by the
// resident reader, which slices directly into its backing buffer).
package columns

import "github.com/deploymenttheory/go-ipqsdb/internal/flags"

// Kind is the decoded width/shape of a column's fixed-width field.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindSmallInt
	KindUnknown
)

// Name is the set of column names the decoder gives a typed, named
// accessor to. Any other column name is still walked (to advance the
// cursor correctly) but is not exposed through a named accessor.
type Name string

const (
	NameASN             Name = "ASN"
	NameLatitude        Name = "Latitude"
	NameLongitude       Name = "Longitude"
	NameZeroFraudScore  Name = "ZeroFraudScore"
	NameOneFraudScore   Name = "OneFraudScore"
	NameTwoFraudScore   Name = "TwoFraudScore"
	NameThreeFraudScore Name = "ThreeFraudScore"
	NameCountry         Name = "Country"
	NameCity            Name = "City"
	NameRegion          Name = "Region"
	NameISP             Name = "ISP"
	NameOrganization    Name = "Organization"
	NameTimezone        Name = "Timezone"
)

// Descriptor is the minimal input columns needs from a parsed column
// descriptor block: the declared name and its record-type flag byte.
type Descriptor struct {
	Name      string
	TypeFlags byte
}

// Column is one column in declaration order, with its decoded Kind and
// its byte width within a leaf record.
type Column struct {
	Name  string
	Kind  Kind
	Width int // bytes this column occupies in a leaf record
}

// Value is one column's decoded value from a single leaf record,
// formatted as a string regardless of its underlying Kind. It backs
// the streaming reader's Columns() introspection accessor, which
// reports every column a file declares — including ones with no named
// accessor — the way the original reference implementation's generic
// column bag does.
type Value struct {
	Name string
	Kind Kind
	Raw  string
}

// kindOf maps a descriptor's type-flags byte to a Kind and byte width.
func kindOf(typeFlags byte) (Kind, int) {
	switch {
	case flags.Has(typeFlags, flags.StringData):
		return KindString, 4
	case flags.Has(typeFlags, flags.IntData):
		return KindInt, 4
	case flags.Has(typeFlags, flags.FloatData):
		return KindFloat, 4
	case flags.Has(typeFlags, flags.SmallIntData):
		return KindSmallInt, 1
	default:
		return KindUnknown, 1
	}
}

// Layout is the fully-resolved column layout for a file: the ordered
// column list (for sequential streaming decode) and, for each
// recognized column name, its byte offset within a leaf record (for
// direct resident-reader slicing).
type Layout struct {
	Columns []Column
	Offsets map[Name]int
}

// Build computes the layout from the column descriptors in declaration
// order and whether the file carries the two binary-data flag bytes.
func Build(descriptors []Descriptor, binaryData bool) Layout {
	cursor := 1 // the common byte
	if binaryData {
		cursor += 2
	}

	cols := make([]Column, 0, len(descriptors))
	offsets := make(map[Name]int, len(descriptors))

	for _, d := range descriptors {
		kind, width := kindOf(d.TypeFlags)
		cols = append(cols, Column{Name: d.Name, Kind: kind, Width: width})

		if isRecognized(d.Name) {
			offsets[Name(d.Name)] = cursor
		}
		cursor += width
	}

	return Layout{Columns: cols, Offsets: offsets}
}

func isRecognized(name string) bool {
	switch Name(name) {
	case NameASN, NameLatitude, NameLongitude,
		NameZeroFraudScore, NameOneFraudScore, NameTwoFraudScore, NameThreeFraudScore,
		NameCountry, NameCity, NameRegion, NameISP, NameOrganization, NameTimezone:
		return true
	default:
		return false
	}
}

// FraudScoreNames indexes the four strictness levels to their column
// names, in strictness order (0 through 3).
var FraudScoreNames = [4]Name{
	NameZeroFraudScore, NameOneFraudScore, NameTwoFraudScore, NameThreeFraudScore,
}
