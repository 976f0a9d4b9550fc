package resident_test

import (
	"net/netip"
	"testing"

	ipqsdb "github.com/deploymenttheory/go-ipqsdb"
	"github.com/deploymenttheory/go-ipqsdb/internal/columns"
	"github.com/deploymenttheory/go-ipqsdb/internal/flags"
	"github.com/deploymenttheory/go-ipqsdb/internal/testfixture"
	"github.com/deploymenttheory/go-ipqsdb/resident"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bitsFromByte returns the 8 most-significant-bit-first bits of b, the
// record path covering the /8 network b.0.0.0/8.
func bitsFromByte(b byte) []bool {
	bits := make([]bool, 8)
	for i := 0; i < 8; i++ {
		bits[i] = b&(0x80>>uint(i)) != 0
	}
	return bits
}

func googleDNSFixture(isBlacklist bool) []byte {
	return testfixture.Build(testfixture.Options{
		IsBlacklist: isBlacklist,
		BinaryData:  true,
		Columns: []testfixture.ColumnSpec{
			{Name: "ASN", Kind: columns.KindInt},
			{Name: "Country", Kind: columns.KindString},
			{Name: "City", Kind: columns.KindString},
			{Name: "ZeroFraudScore", Kind: columns.KindSmallInt},
			{Name: "Latitude", Kind: columns.KindFloat},
		},
		Records: []testfixture.RecordSpec{
			{
				Path:    bitsFromByte(8),
				Binary1: flags.IsProxy | flags.RecentAbuse,
				Binary2: flags.IsMobile,
				Common:  byte(0b0010_0000 | 0b0100_0000), // Residential, medium abuse velocity
				Fields: map[string]testfixture.Value{
					"ASN":            testfixture.U32(15169),
					"Country":        testfixture.Str("US"),
					"City":           testfixture.Str("Mountain View"),
					"ZeroFraudScore": testfixture.U32(25),
					"Latitude":       testfixture.F32(37.4056),
				},
			},
		},
	})
}

func TestFetchDecodesAllFields(t *testing.T) {
	r, err := resident.New(googleDNSFixture(false))
	require.NoError(t, err)

	rec, err := r.Fetch(netip.MustParseAddr("8.8.8.8"))
	require.NoError(t, err)

	assert.Equal(t, "Residential", rec.ConnectionType())
	assert.Equal(t, "medium", rec.AbuseVelocity())

	asn, ok := rec.ASN()
	assert.True(t, ok)
	assert.EqualValues(t, 15169, asn)

	country, ok := rec.Country()
	assert.True(t, ok)
	assert.Equal(t, "US", country)

	city, ok := rec.City()
	assert.True(t, ok)
	assert.Equal(t, "Mountain View", city)

	lat, ok := rec.Latitude()
	assert.True(t, ok)
	assert.InDelta(t, 37.4056, lat, 0.001)

	score, ok := rec.FraudScore(ipqsdb.StrictnessZero)
	assert.True(t, ok)
	assert.EqualValues(t, 25, score)

	_, ok = rec.FraudScore(ipqsdb.StrictnessOne)
	assert.False(t, ok)

	proxy, ok := rec.IsProxy()
	assert.True(t, ok)
	assert.True(t, proxy)

	vpn, ok := rec.IsVPN()
	assert.True(t, ok)
	assert.False(t, vpn)

	mobile, ok := rec.IsMobile()
	assert.True(t, ok)
	assert.True(t, mobile)

	openPorts, ok := rec.HasOpenPorts()
	assert.True(t, ok)
	assert.False(t, openPorts)

	_, ok = rec.Region()
	assert.False(t, ok)
}

func TestFetchMatchesAnyAddressInCoveredNetwork(t *testing.T) {
	r, err := resident.New(googleDNSFixture(false))
	require.NoError(t, err)

	rec, err := r.Fetch(netip.MustParseAddr("8.255.255.255"))
	require.NoError(t, err)

	asn, ok := rec.ASN()
	assert.True(t, ok)
	assert.EqualValues(t, 15169, asn)
}

func TestFetchWrongFamily(t *testing.T) {
	r, err := resident.New(googleDNSFixture(false))
	require.NoError(t, err)

	_, err = r.Fetch(netip.MustParseAddr("2001:4860:4860::8888"))
	require.Error(t, err)
	assert.True(t, ipqsdb.Is(err, ipqsdb.KindWrongFamily))
}

func TestFetchBlacklistMiss(t *testing.T) {
	r, err := resident.New(googleDNSFixture(true))
	require.NoError(t, err)

	_, err = r.Fetch(netip.MustParseAddr("1.1.1.1"))
	require.Error(t, err)
	assert.True(t, ipqsdb.Is(err, ipqsdb.KindNotFound))
}

func TestFetchNonBlacklistTotalMissIsAddressExhausted(t *testing.T) {
	data := testfixture.Build(testfixture.Options{
		Columns: []testfixture.ColumnSpec{
			{Name: "ASN", Kind: columns.KindInt},
		},
		Records: []testfixture.RecordSpec{
			{Path: bitsFromByte(8), Fields: map[string]testfixture.Value{}},
		},
	})
	r, err := resident.New(data)
	require.NoError(t, err)

	_, err = r.Fetch(netip.MustParseAddr("1.1.1.1"))
	require.Error(t, err)
	assert.True(t, ipqsdb.Is(err, ipqsdb.KindAddressExhausted))
}

func TestOpenRejectsTruncatedFile(t *testing.T) {
	_, err := resident.New([]byte{0x01, 0x02})
	require.Error(t, err)
	var oerr *ipqsdb.OpenError
	require.ErrorAs(t, err, &oerr)
}

func TestOpenRejectsRecordSizeOverMax(t *testing.T) {
	data := googleDNSFixture(false)
	_, err := resident.New(data, resident.WithMaxLeafBytes(1))
	require.Error(t, err)
	assert.True(t, ipqsdb.Is(err, ipqsdb.KindBadRecordSize))
}

func TestOpenAllowsRecordSizeUnderMax(t *testing.T) {
	data := googleDNSFixture(false)
	_, err := resident.New(data, resident.WithMaxLeafBytes(1<<20))
	require.NoError(t, err)
}

func TestRecordStringRendersFixedFieldOrder(t *testing.T) {
	r, err := resident.New(googleDNSFixture(false))
	require.NoError(t, err)

	rec, err := r.Fetch(netip.MustParseAddr("8.8.8.8"))
	require.NoError(t, err)

	s := rec.String()
	assert.Contains(t, s, "Connection Type: Residential")
	assert.Contains(t, s, "Abuse Velocity: medium")
	assert.Contains(t, s, "Country: US")
	assert.Contains(t, s, "Region: <nil>")
}
