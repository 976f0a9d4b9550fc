package ipqsdb

import "fmt"

// Strictness selects one of four precomputed fraud scores a record may
// carry. Not every file populates every strictness level; a missing
// level is reported through FraudScore's second return value.
type Strictness int

const (
	StrictnessZero Strictness = iota
	StrictnessOne
	StrictnessTwo
	StrictnessThree
)

func (s Strictness) String() string {
	switch s {
	case StrictnessZero:
		return "0"
	case StrictnessOne:
		return "1"
	case StrictnessTwo:
		return "2"
	case StrictnessThree:
		return "3"
	default:
		return "invalid"
	}
}

// Record is the decoded view of a single leaf: the fixed connection
// type and abuse velocity, plus every column-dependent field as an
// optional accessor (ok is false when the file's column set omits that
// field). Both the streaming and resident reader facades return values
// satisfying Record, and must agree on every accessor for the same
// file and address.
type Record interface {
	IsProxy() (value, ok bool)
	IsVPN() (value, ok bool)
	IsTor() (value, ok bool)
	IsCrawler() (value, ok bool)
	IsBot() (value, ok bool)
	RecentAbuse() (value, ok bool)
	IsBlacklisted() (value, ok bool)
	IsPrivate() (value, ok bool)
	IsMobile() (value, ok bool)
	HasOpenPorts() (value, ok bool)
	IsHostingProvider() (value, ok bool)
	ActiveVPN() (value, ok bool)
	ActiveTor() (value, ok bool)
	PublicAccessPoint() (value, ok bool)

	// ConnectionType and AbuseVelocity are always present: every leaf
	// carries a common byte regardless of column set.
	ConnectionType() string
	AbuseVelocity() string

	Country() (value string, ok bool)
	City() (value string, ok bool)
	Region() (value string, ok bool)
	ISP() (value string, ok bool)
	Organization() (value string, ok bool)
	Timezone() (value string, ok bool)

	ASN() (value uint64, ok bool)
	Latitude() (value float32, ok bool)
	Longitude() (value float32, ok bool)

	FraudScore(s Strictness) (value uint32, ok bool)

	fmt.Stringer
}

// Render produces the fixed, labeled, human-readable block documented
// for Record.String(): one field per line, in this exact order. Both
// reader facades' Record implementations delegate String() to this so
// the rendering stays identical regardless of which facade produced r.
func Render(r Record) string {
	optBool := func(v, ok bool) string {
		if !ok {
			return "<nil>"
		}
		return fmt.Sprintf("%v", v)
	}
	optStr := func(v string, ok bool) string {
		if !ok {
			return "<nil>"
		}
		return v
	}
	optU64 := func(v uint64, ok bool) string {
		if !ok {
			return "<nil>"
		}
		return fmt.Sprintf("%d", v)
	}
	optF32 := func(v float32, ok bool) string {
		if !ok {
			return "<nil>"
		}
		return fmt.Sprintf("%v", v)
	}
	optU32 := func(v uint32, ok bool) string {
		if !ok {
			return "<nil>"
		}
		return fmt.Sprintf("%d", v)
	}

	return fmt.Sprintf(
		`Connection Type: %s
Abuse Velocity: %s
Country: %s
City: %s
Region: %s
ISP: %s
Organization: %s
ASN: %s
Timezone: %s
Latitude: %s
Longitude: %s
Fraud Score:
    Strictness (0): %s
    Strictness (1): %s
    Strictness (2): %s
    Strictness (3): %s
Is Proxy: %s
Is VPN: %s
Is Tor: %s
Is Crawler: %s
Is Bot: %s
Recent Abuse: %s
Is Blacklisted: %s
Is Private: %s
Is Mobile: %s
Has Open Ports: %s
Is Hosting Provider: %s
Active VPN: %s
Active Tor: %s
Public Access Point: %s`,
		r.ConnectionType(),
		r.AbuseVelocity(),
		optStr(r.Country()),
		optStr(r.City()),
		optStr(r.Region()),
		optStr(r.ISP()),
		optStr(r.Organization()),
		optU64(r.ASN()),
		optStr(r.Timezone()),
		optF32(r.Latitude()),
		optF32(r.Longitude()),
		optU32(r.FraudScore(StrictnessZero)),
		optU32(r.FraudScore(StrictnessOne)),
		optU32(r.FraudScore(StrictnessTwo)),
		optU32(r.FraudScore(StrictnessThree)),
		optBool(r.IsProxy()),
		optBool(r.IsVPN()),
		optBool(r.IsTor()),
		optBool(r.IsCrawler()),
		optBool(r.IsBot()),
		optBool(r.RecentAbuse()),
		optBool(r.IsBlacklisted()),
		optBool(r.IsPrivate()),
		optBool(r.IsMobile()),
		optBool(r.HasOpenPorts()),
		optBool(r.IsHostingProvider()),
		optBool(r.ActiveVPN()),
		optBool(r.ActiveTor()),
		optBool(r.PublicAccessPoint()),
	)
}
