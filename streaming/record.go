package streaming

import (
	ipqsdb "github.com/deploymenttheory/go-ipqsdb"
	"github.com/deploymenttheory/go-ipqsdb/internal/columns"
	"github.com/deploymenttheory/go-ipqsdb/internal/flags"
)

// record is a fully materialized leaf: every field streaming.Fetch
// decoded is copied here, so a record remains valid after the Reader
// that produced it is closed.
type record struct {
	hasBinaryData bool
	firstByte     byte
	secondByte    byte
	commonByte    byte

	country, city, region, isp, organization, timezone             string
	countryOk, cityOk, regionOk, ispOk, organizationOk, timezoneOk bool

	asn   uint64
	asnOk bool

	latitude, longitude     float32
	latitudeOk, longitudeOk bool

	fraudScore   [4]uint32
	fraudScoreOk [4]bool

	// extra holds every column the file declared, in declaration
	// order, including columns with no named accessor above.
	extra []columns.Value
}

// Columns reports every column the file declared, in declaration
// order, each with its raw decoded value. Named columns (ASN, Country,
// and so on) appear here too, alongside any column name the reader has
// no dedicated accessor for.
func (rec *record) Columns() []columns.Value { return rec.extra }

func (rec *record) firstByteFlag(mask byte) (bool, bool) {
	if !rec.hasBinaryData {
		return false, false
	}
	return flags.Has(rec.firstByte, mask), true
}

func (rec *record) secondByteFlag(mask byte) (bool, bool) {
	if !rec.hasBinaryData {
		return false, false
	}
	return flags.Has(rec.secondByte, mask), true
}

func (rec *record) IsProxy() (bool, bool)       { return rec.firstByteFlag(flags.IsProxy) }
func (rec *record) IsVPN() (bool, bool)         { return rec.firstByteFlag(flags.IsVPN) }
func (rec *record) IsTor() (bool, bool)         { return rec.firstByteFlag(flags.IsTor) }
func (rec *record) IsCrawler() (bool, bool)     { return rec.firstByteFlag(flags.IsCrawler) }
func (rec *record) IsBot() (bool, bool)         { return rec.firstByteFlag(flags.IsBot) }
func (rec *record) RecentAbuse() (bool, bool)   { return rec.firstByteFlag(flags.RecentAbuse) }
func (rec *record) IsBlacklisted() (bool, bool) { return rec.firstByteFlag(flags.IsBlacklisted) }
func (rec *record) IsPrivate() (bool, bool)     { return rec.firstByteFlag(flags.IsPrivate) }

func (rec *record) IsMobile() (bool, bool)          { return rec.secondByteFlag(flags.IsMobile) }
func (rec *record) HasOpenPorts() (bool, bool)      { return rec.secondByteFlag(flags.HasOpenPorts) }
func (rec *record) IsHostingProvider() (bool, bool) { return rec.secondByteFlag(flags.IsHostingProvider) }
func (rec *record) ActiveVPN() (bool, bool)         { return rec.secondByteFlag(flags.ActiveVPN) }
func (rec *record) ActiveTor() (bool, bool)         { return rec.secondByteFlag(flags.ActiveTor) }
func (rec *record) PublicAccessPoint() (bool, bool) {
	return rec.secondByteFlag(flags.PublicAccessPoint)
}

func (rec *record) ConnectionType() string { return flags.ConnectionType(rec.commonByte) }
func (rec *record) AbuseVelocity() string  { return flags.AbuseVelocity(rec.commonByte) }

func (rec *record) Country() (string, bool)      { return rec.country, rec.countryOk }
func (rec *record) City() (string, bool)         { return rec.city, rec.cityOk }
func (rec *record) Region() (string, bool)       { return rec.region, rec.regionOk }
func (rec *record) ISP() (string, bool)          { return rec.isp, rec.ispOk }
func (rec *record) Organization() (string, bool) { return rec.organization, rec.organizationOk }
func (rec *record) Timezone() (string, bool)     { return rec.timezone, rec.timezoneOk }

func (rec *record) ASN() (uint64, bool)       { return rec.asn, rec.asnOk }
func (rec *record) Latitude() (float32, bool)  { return rec.latitude, rec.latitudeOk }
func (rec *record) Longitude() (float32, bool) { return rec.longitude, rec.longitudeOk }

func (rec *record) FraudScore(s ipqsdb.Strictness) (uint32, bool) {
	if s < ipqsdb.StrictnessZero || s > ipqsdb.StrictnessThree {
		return 0, false
	}
	return rec.fraudScore[s], rec.fraudScoreOk[s]
}

func (rec *record) String() string { return ipqsdb.Render(rec) }
