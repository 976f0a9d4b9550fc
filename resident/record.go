package resident

import (
	ipqsdb "github.com/deploymenttheory/go-ipqsdb"
	"github.com/deploymenttheory/go-ipqsdb/internal/columns"
	"github.com/deploymenttheory/go-ipqsdb/internal/flags"
)

// record is a borrow-only handle onto a single leaf: it holds no bytes
// of its own, only a reader and an offset, and decodes fields lazily on
// each accessor call by slicing into the reader's backing buffer.
type record struct {
	reader *Reader
	offset uint64
}

func (rec *record) firstByte() (byte, bool) {
	if !rec.reader.binaryData {
		return 0, false
	}
	return rec.reader.data[rec.offset], true
}

func (rec *record) secondByte() (byte, bool) {
	if !rec.reader.binaryData {
		return 0, false
	}
	return rec.reader.data[rec.offset+1], true
}

func (rec *record) commonByte() byte {
	off := rec.offset
	if rec.reader.binaryData {
		off += 2
	}
	return rec.reader.data[off]
}

func flagBit(rec *record, byteFn func(*record) (byte, bool), mask byte) (bool, bool) {
	b, ok := byteFn(rec)
	if !ok {
		return false, false
	}
	return flags.Has(b, mask), true
}

func (rec *record) IsProxy() (bool, bool)     { return flagBit(rec, (*record).firstByte, flags.IsProxy) }
func (rec *record) IsVPN() (bool, bool)       { return flagBit(rec, (*record).firstByte, flags.IsVPN) }
func (rec *record) IsTor() (bool, bool)       { return flagBit(rec, (*record).firstByte, flags.IsTor) }
func (rec *record) IsCrawler() (bool, bool)   { return flagBit(rec, (*record).firstByte, flags.IsCrawler) }
func (rec *record) IsBot() (bool, bool)       { return flagBit(rec, (*record).firstByte, flags.IsBot) }
func (rec *record) RecentAbuse() (bool, bool) { return flagBit(rec, (*record).firstByte, flags.RecentAbuse) }
func (rec *record) IsBlacklisted() (bool, bool) {
	return flagBit(rec, (*record).firstByte, flags.IsBlacklisted)
}
func (rec *record) IsPrivate() (bool, bool) { return flagBit(rec, (*record).firstByte, flags.IsPrivate) }

func (rec *record) IsMobile() (bool, bool) { return flagBit(rec, (*record).secondByte, flags.IsMobile) }
func (rec *record) HasOpenPorts() (bool, bool) {
	return flagBit(rec, (*record).secondByte, flags.HasOpenPorts)
}
func (rec *record) IsHostingProvider() (bool, bool) {
	return flagBit(rec, (*record).secondByte, flags.IsHostingProvider)
}
func (rec *record) ActiveVPN() (bool, bool) { return flagBit(rec, (*record).secondByte, flags.ActiveVPN) }
func (rec *record) ActiveTor() (bool, bool) { return flagBit(rec, (*record).secondByte, flags.ActiveTor) }
func (rec *record) PublicAccessPoint() (bool, bool) {
	return flagBit(rec, (*record).secondByte, flags.PublicAccessPoint)
}

func (rec *record) ConnectionType() string { return flags.ConnectionType(rec.commonByte()) }
func (rec *record) AbuseVelocity() string  { return flags.AbuseVelocity(rec.commonByte()) }

func (rec *record) column(name columns.Name) (int, bool) {
	offset, ok := rec.reader.layout.Offsets[name]
	if !ok {
		return 0, false
	}
	return int(rec.offset) + offset, true
}

func (rec *record) Country() (string, bool) {
	off, ok := rec.column(columns.NameCountry)
	if !ok {
		return "", false
	}
	return rec.reader.getString(off)
}

func (rec *record) City() (string, bool) {
	off, ok := rec.column(columns.NameCity)
	if !ok {
		return "", false
	}
	return rec.reader.getString(off)
}

func (rec *record) Region() (string, bool) {
	off, ok := rec.column(columns.NameRegion)
	if !ok {
		return "", false
	}
	return rec.reader.getString(off)
}

func (rec *record) ISP() (string, bool) {
	off, ok := rec.column(columns.NameISP)
	if !ok {
		return "", false
	}
	return rec.reader.getString(off)
}

func (rec *record) Organization() (string, bool) {
	off, ok := rec.column(columns.NameOrganization)
	if !ok {
		return "", false
	}
	return rec.reader.getString(off)
}

func (rec *record) Timezone() (string, bool) {
	off, ok := rec.column(columns.NameTimezone)
	if !ok {
		return "", false
	}
	return rec.reader.getString(off)
}

func (rec *record) ASN() (uint64, bool) {
	off, ok := rec.column(columns.NameASN)
	if !ok {
		return 0, false
	}
	return rec.reader.getInt(off), true
}

func (rec *record) Latitude() (float32, bool) {
	off, ok := rec.column(columns.NameLatitude)
	if !ok {
		return 0, false
	}
	return rec.reader.getFloat(off), true
}

func (rec *record) Longitude() (float32, bool) {
	off, ok := rec.column(columns.NameLongitude)
	if !ok {
		return 0, false
	}
	return rec.reader.getFloat(off), true
}

func (rec *record) FraudScore(s ipqsdb.Strictness) (uint32, bool) {
	if s < ipqsdb.StrictnessZero || s > ipqsdb.StrictnessThree {
		return 0, false
	}
	off, ok := rec.column(columns.FraudScoreNames[s])
	if !ok {
		return 0, false
	}
	return rec.reader.getSmallInt(off), true
}

func (rec *record) String() string { return ipqsdb.Render(rec) }
