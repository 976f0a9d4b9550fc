package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print the address family and flags of a database file",
	RunE: func(cmd *cobra.Command, args []string) error {
		correlationID := newCorrelationID()
		logVerbose(correlationID, "opening %s (resident=%v)", dbPath, useResident)

		r, closeFn, err := openReader(dbPath, useResident)
		if err != nil {
			return err
		}
		defer closeFn()

		family := "IPv4"
		if r.IsIPv6() {
			family = "IPv6"
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Address family: %s\n", family)
		fmt.Fprintf(cmd.OutOrStdout(), "Blacklist file: %v\n", r.IsBlacklist())
		return nil
	},
}
