package ipqsdb_test

import (
	"bytes"
	"net/netip"
	"testing"

	ipqsdb "github.com/deploymenttheory/go-ipqsdb"
	"github.com/deploymenttheory/go-ipqsdb/internal/columns"
	"github.com/deploymenttheory/go-ipqsdb/internal/flags"
	"github.com/deploymenttheory/go-ipqsdb/internal/testfixture"
	"github.com/deploymenttheory/go-ipqsdb/resident"
	"github.com/deploymenttheory/go-ipqsdb/streaming"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bitsFromBytes(bs ...byte) []bool {
	var bits []bool
	for _, b := range bs {
		for i := 0; i < 8; i++ {
			bits = append(bits, b&(0x80>>uint(i)) != 0)
		}
	}
	return bits
}

// level3NetworkFixture reproduces the documented end-to-end lookup of
// 8.8.0.0: a Level 3 Communications network in Monroe, Louisiana, with
// a Corporate connection type, no abuse velocity, flagged as a proxy
// and a VPN with a public access point.
func level3NetworkFixture() []byte {
	return testfixture.Build(testfixture.Options{
		BinaryData: true,
		Columns: []testfixture.ColumnSpec{
			{Name: "Country", Kind: columns.KindString},
			{Name: "City", Kind: columns.KindString},
			{Name: "Region", Kind: columns.KindString},
			{Name: "ISP", Kind: columns.KindString},
			{Name: "Organization", Kind: columns.KindString},
			{Name: "ASN", Kind: columns.KindInt},
			{Name: "Timezone", Kind: columns.KindString},
			{Name: "Latitude", Kind: columns.KindFloat},
			{Name: "Longitude", Kind: columns.KindFloat},
			{Name: "ZeroFraudScore", Kind: columns.KindSmallInt},
			{Name: "OneFraudScore", Kind: columns.KindSmallInt},
		},
		Records: []testfixture.RecordSpec{
			{
				Path:    bitsFromBytes(8, 8),
				Binary1: flags.IsProxy | flags.IsVPN,
				Binary2: flags.PublicAccessPoint,
				Common:  byte(0b0011_0000), // Corporate, no abuse velocity
				Fields: map[string]testfixture.Value{
					"Country":        testfixture.Str("US"),
					"City":           testfixture.Str("Monroe"),
					"Region":         testfixture.Str("Louisiana"),
					"ISP":            testfixture.Str("Level 3 Communications"),
					"Organization":   testfixture.Str("Level 3 Communications"),
					"ASN":            testfixture.U32(3356),
					"Timezone":       testfixture.Str("America/Chicago"),
					"Latitude":       testfixture.F32(32.51),
					"Longitude":      testfixture.F32(-92.12),
					"ZeroFraudScore": testfixture.U32(75),
					"OneFraudScore":  testfixture.U32(75),
				},
			},
		},
	})
}

func assertLevel3Record(t *testing.T, rec ipqsdb.Record) {
	t.Helper()

	proxy, ok := rec.IsProxy()
	assert.True(t, ok)
	assert.True(t, proxy)

	vpn, ok := rec.IsVPN()
	assert.True(t, ok)
	assert.True(t, vpn)

	tor, ok := rec.IsTor()
	assert.True(t, ok)
	assert.False(t, tor)

	pap, ok := rec.PublicAccessPoint()
	assert.True(t, ok)
	assert.True(t, pap)

	assert.Equal(t, "Corporate", rec.ConnectionType())
	assert.Equal(t, "none", rec.AbuseVelocity())

	country, _ := rec.Country()
	assert.Equal(t, "US", country)
	city, _ := rec.City()
	assert.Equal(t, "Monroe", city)
	region, _ := rec.Region()
	assert.Equal(t, "Louisiana", region)
	isp, _ := rec.ISP()
	assert.Equal(t, "Level 3 Communications", isp)
	org, _ := rec.Organization()
	assert.Equal(t, "Level 3 Communications", org)
	tz, _ := rec.Timezone()
	assert.Equal(t, "America/Chicago", tz)

	asn, ok := rec.ASN()
	assert.True(t, ok)
	assert.EqualValues(t, 3356, asn)

	lat, ok := rec.Latitude()
	assert.True(t, ok)
	assert.InDelta(t, 32.51, lat, 0.01)

	lon, ok := rec.Longitude()
	assert.True(t, ok)
	assert.InDelta(t, -92.12, lon, 0.01)

	zero, ok := rec.FraudScore(ipqsdb.StrictnessZero)
	assert.True(t, ok)
	assert.EqualValues(t, 75, zero)

	one, ok := rec.FraudScore(ipqsdb.StrictnessOne)
	assert.True(t, ok)
	assert.EqualValues(t, 75, one)
}

func TestLevel3NetworkScenarioResident(t *testing.T) {
	data := level3NetworkFixture()
	r, err := resident.New(data)
	require.NoError(t, err)

	rec, err := r.Fetch(netip.MustParseAddr("8.8.0.0"))
	require.NoError(t, err)
	assertLevel3Record(t, rec)
}

func TestLevel3NetworkScenarioStreaming(t *testing.T) {
	data := level3NetworkFixture()
	r, err := streaming.New(bytes.NewReader(data))
	require.NoError(t, err)

	rec, err := r.Fetch(netip.MustParseAddr("8.8.0.0"))
	require.NoError(t, err)
	assertLevel3Record(t, rec)
}

// TestStreamingResidentParity fetches the same set of addresses from
// both facades over an identical file and asserts they render
// identically: the two readers must never disagree for any address.
func TestStreamingResidentParity(t *testing.T) {
	data := level3NetworkFixture()

	sr, err := streaming.New(bytes.NewReader(data))
	require.NoError(t, err)
	rr, err := resident.New(data)
	require.NoError(t, err)

	addrs := []string{"8.8.0.0", "8.8.255.255", "8.8.1.1", "8.8.0.1"}
	for _, a := range addrs {
		addr := netip.MustParseAddr(a)

		sRec, sErr := sr.Fetch(addr)
		rRec, rErr := rr.Fetch(addr)

		require.NoError(t, sErr, a)
		require.NoError(t, rErr, a)
		assert.Equal(t, rRec.String(), sRec.String(), a)
	}
}

// TestStreamingResidentParityMiss asserts both facades raise the same
// error kind for an address outside the covered network.
func TestStreamingResidentParityMiss(t *testing.T) {
	data := level3NetworkFixture()

	sr, err := streaming.New(bytes.NewReader(data))
	require.NoError(t, err)
	rr, err := resident.New(data)
	require.NoError(t, err)

	addr := netip.MustParseAddr("1.1.1.1")

	_, sErr := sr.Fetch(addr)
	_, rErr := rr.Fetch(addr)

	require.Error(t, sErr)
	require.Error(t, rErr)
	assert.True(t, ipqsdb.Is(sErr, ipqsdb.KindAddressExhausted))
	assert.True(t, ipqsdb.Is(rErr, ipqsdb.KindAddressExhausted))
}

// TestFetchIPv6Succeeds exercises a lookup against an IPv6 file; the
// format makes no field-level guarantee beyond a successful decode.
func TestFetchIPv6Succeeds(t *testing.T) {
	data := testfixture.Build(testfixture.Options{
		IsV6: true,
		Columns: []testfixture.ColumnSpec{
			{Name: "ASN", Kind: columns.KindInt},
		},
		Records: []testfixture.RecordSpec{
			{
				Path:   bitsFromBytes(0x20, 0x01, 0x48, 0x60), // 2001:4860::/32
				Fields: map[string]testfixture.Value{"ASN": testfixture.U32(15169)},
			},
		},
	})

	r, err := resident.New(data)
	require.NoError(t, err)

	rec, err := r.Fetch(netip.MustParseAddr("2001:4860:4860::8844"))
	require.NoError(t, err)
	asn, ok := rec.ASN()
	assert.True(t, ok)
	assert.EqualValues(t, 15169, asn)
}
