package main

import (
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-ipqsdb/internal/config"
)

var (
	verbose      bool
	quiet        bool
	outputFormat string
	dbPath       string
	useResident  bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "ipqsdb",
	Short: "Read-only client for the flat-file IP reputation database",
	Long: `ipqsdb looks up IPv4 and IPv6 addresses against a flat-file IP
reputation database, using either a streaming reader (seek/read on
demand) or a resident reader (whole file held in memory). Both readers
must agree on every field for the same file and address.`,
	Version: "0.1.0-dev",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
		cfg = loaded

		if dbPath == "" {
			dbPath = cfg.DatabasePath
		}
		if !cmd.Flags().Changed("resident") {
			useResident = cfg.Resident
		}
		return nil
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress verbose log output, even with --verbose")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "output format (text, json)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to the .ipqsdb file")
	rootCmd.PersistentFlags().BoolVar(&useResident, "resident", false, "use the resident (whole-file-in-memory) reader instead of streaming")

	rootCmd.AddCommand(lookupCmd, inspectCmd)
}

// newCorrelationID returns a fresh request identifier for verbose
// logging, so a single invocation's log lines can be grepped together.
func newCorrelationID() string {
	return uuid.NewString()
}

func logVerbose(correlationID, format string, args ...any) {
	if !verbose || quiet {
		return
	}
	log.Printf("[%s] "+format, append([]any{correlationID}, args...)...)
}
