// Package config loads go-ipqsdb's CLI configuration using Viper,
// following the same config-file-plus-environment-plus-defaults layering
// the rest of this domain's tooling uses.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the settings the ipqsdb command-line tool reads at
// startup, layered from defaults, an optional config file, and
// IPQSDB_-prefixed environment variables, in that order of increasing
// precedence.
type Config struct {
	// DatabasePath is the default .ipqsdb file to open when a command
	// doesn't specify one with --db.
	DatabasePath string `mapstructure:"database_path"`

	// Resident selects the resident (whole-file-in-memory) reader
	// facade by default instead of streaming.
	Resident bool `mapstructure:"resident"`

	// MaxLeafBytes caps how large a single leaf record is allowed to
	// be: both reader facades refuse to open a file whose header
	// declares a larger record size, guarding against a corrupt header
	// steering reads past any plausible record bound. See
	// resident.WithMaxLeafBytes and streaming.WithMaxLeafBytes.
	MaxLeafBytes int `mapstructure:"max_leaf_bytes"`
}

// Load reads ipqsdb configuration from (in increasing precedence)
// built-in defaults, an "ipqsdb-config" file on the search path, and
// IPQSDB_-prefixed environment variables.
func Load() (*Config, error) {
	viper.SetConfigName("ipqsdb-config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("$HOME/.ipqsdb")
	viper.AddConfigPath("/etc/ipqsdb")

	viper.SetDefault("database_path", "")
	viper.SetDefault("resident", false)
	viper.SetDefault("max_leaf_bytes", 4096)

	viper.SetEnvPrefix("IPQSDB")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}
