package main

import (
	"encoding/json"
	"net/netip"

	"github.com/spf13/cobra"

	ipqsdb "github.com/deploymenttheory/go-ipqsdb"
)

// lookupResult is the JSON shape of a lookup, field-for-field
// alongside the Record interface's accessors.
type lookupResult struct {
	Address    string `json:"address"`
	Connection string `json:"connection_type"`
	Abuse      string `json:"abuse_velocity"`

	Country      *string `json:"country,omitempty"`
	City         *string `json:"city,omitempty"`
	Region       *string `json:"region,omitempty"`
	ISP          *string `json:"isp,omitempty"`
	Organization *string `json:"organization,omitempty"`
	Timezone     *string `json:"timezone,omitempty"`

	ASN       *uint64  `json:"asn,omitempty"`
	Latitude  *float32 `json:"latitude,omitempty"`
	Longitude *float32 `json:"longitude,omitempty"`

	FraudScores map[string]uint32 `json:"fraud_scores,omitempty"`

	IsProxy           *bool `json:"is_proxy,omitempty"`
	IsVPN             *bool `json:"is_vpn,omitempty"`
	IsTor             *bool `json:"is_tor,omitempty"`
	IsCrawler         *bool `json:"is_crawler,omitempty"`
	IsBot             *bool `json:"is_bot,omitempty"`
	RecentAbuse       *bool `json:"recent_abuse,omitempty"`
	IsBlacklisted     *bool `json:"is_blacklisted,omitempty"`
	IsPrivate         *bool `json:"is_private,omitempty"`
	IsMobile          *bool `json:"is_mobile,omitempty"`
	HasOpenPorts      *bool `json:"has_open_ports,omitempty"`
	IsHostingProvider *bool `json:"is_hosting_provider,omitempty"`
	ActiveVPN         *bool `json:"active_vpn,omitempty"`
	ActiveTor         *bool `json:"active_tor,omitempty"`
	PublicAccessPoint *bool `json:"public_access_point,omitempty"`
}

func optBoolPtr(v, ok bool) *bool {
	if !ok {
		return nil
	}
	return &v
}

func optStrPtr(v string, ok bool) *string {
	if !ok {
		return nil
	}
	return &v
}

func toLookupResult(addr netip.Addr, rec ipqsdb.Record) lookupResult {
	res := lookupResult{
		Address:    addr.String(),
		Connection: rec.ConnectionType(),
		Abuse:      rec.AbuseVelocity(),
	}

	res.Country = optStrPtr(rec.Country())
	res.City = optStrPtr(rec.City())
	res.Region = optStrPtr(rec.Region())
	res.ISP = optStrPtr(rec.ISP())
	res.Organization = optStrPtr(rec.Organization())
	res.Timezone = optStrPtr(rec.Timezone())

	if asn, ok := rec.ASN(); ok {
		res.ASN = &asn
	}
	if lat, ok := rec.Latitude(); ok {
		res.Latitude = &lat
	}
	if lon, ok := rec.Longitude(); ok {
		res.Longitude = &lon
	}

	scores := map[string]uint32{}
	for _, s := range []ipqsdb.Strictness{ipqsdb.StrictnessZero, ipqsdb.StrictnessOne, ipqsdb.StrictnessTwo, ipqsdb.StrictnessThree} {
		if v, ok := rec.FraudScore(s); ok {
			scores[s.String()] = v
		}
	}
	if len(scores) > 0 {
		res.FraudScores = scores
	}

	res.IsProxy = optBoolPtr(rec.IsProxy())
	res.IsVPN = optBoolPtr(rec.IsVPN())
	res.IsTor = optBoolPtr(rec.IsTor())
	res.IsCrawler = optBoolPtr(rec.IsCrawler())
	res.IsBot = optBoolPtr(rec.IsBot())
	res.RecentAbuse = optBoolPtr(rec.RecentAbuse())
	res.IsBlacklisted = optBoolPtr(rec.IsBlacklisted())
	res.IsPrivate = optBoolPtr(rec.IsPrivate())
	res.IsMobile = optBoolPtr(rec.IsMobile())
	res.HasOpenPorts = optBoolPtr(rec.HasOpenPorts())
	res.IsHostingProvider = optBoolPtr(rec.IsHostingProvider())
	res.ActiveVPN = optBoolPtr(rec.ActiveVPN())
	res.ActiveTor = optBoolPtr(rec.ActiveTor())
	res.PublicAccessPoint = optBoolPtr(rec.PublicAccessPoint())

	return res
}

func printLookupJSON(cmd *cobra.Command, addr netip.Addr, rec ipqsdb.Record) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(toLookupResult(addr, rec))
}
