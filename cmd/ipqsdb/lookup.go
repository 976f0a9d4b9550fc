package main

import (
	"fmt"
	"net/netip"

	"github.com/spf13/cobra"

	ipqsdb "github.com/deploymenttheory/go-ipqsdb"
	"github.com/deploymenttheory/go-ipqsdb/resident"
	"github.com/deploymenttheory/go-ipqsdb/streaming"
)

// dbReader is the surface cmd/ipqsdb needs from either reader facade.
type dbReader interface {
	Fetch(addr netip.Addr) (ipqsdb.Record, error)
	IsIPv6() bool
	IsBlacklist() bool
}

func openReader(path string, useResidentReader bool) (dbReader, func() error, error) {
	if path == "" {
		return nil, nil, fmt.Errorf("no database path given (use --db or set database_path in config)")
	}

	maxLeafBytes := 0
	if cfg != nil {
		maxLeafBytes = cfg.MaxLeafBytes
	}

	if useResidentReader {
		r, err := resident.Open(path, resident.WithMaxLeafBytes(maxLeafBytes))
		if err != nil {
			return nil, nil, err
		}
		return r, func() error { return nil }, nil
	}

	r, err := streaming.Open(path, streaming.WithMaxLeafBytes(maxLeafBytes))
	if err != nil {
		return nil, nil, err
	}
	return r, r.Close, nil
}

var lookupCmd = &cobra.Command{
	Use:   "lookup <address>",
	Short: "Look up an IPv4 or IPv6 address in the database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		correlationID := newCorrelationID()
		logVerbose(correlationID, "opening %s (resident=%v)", dbPath, useResident)

		addr, err := netip.ParseAddr(args[0])
		if err != nil {
			return fmt.Errorf("invalid address %q: %w", args[0], err)
		}

		r, closeFn, err := openReader(dbPath, useResident)
		if err != nil {
			return err
		}
		defer closeFn()

		logVerbose(correlationID, "fetching %s (isV6=%v, blacklist=%v)", addr, r.IsIPv6(), r.IsBlacklist())

		rec, err := r.Fetch(addr)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", addr, err)
		}

		switch outputFormat {
		case "json":
			return printLookupJSON(cmd, addr, rec)
		default:
			fmt.Fprintln(cmd.OutOrStdout(), rec.String())
			return nil
		}
	},
}
