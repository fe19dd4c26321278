// Package config holds the TOML-backed runtime configuration for an index
// build or processor pipeline: the hash engine to use, the index size cap,
// and the log verbosity, following the host library's toml-tagged Config
// struct and pelletier/go-toml loader.
package config

import (
	"os"

	"github.com/columnfold/tupleproc/errors"
	toml "github.com/pelletier/go-toml"
)

const (
	// DefaultHashAlgorithm names the hash.Visitor engine used when a
	// Config does not specify one.
	DefaultHashAlgorithm = "xxhash"
	// DefaultIndexMaxEntries mirrors index.DefaultMaxEntries without
	// importing the index package, to keep config dependency-free of the
	// domain packages it configures.
	DefaultIndexMaxEntries = 64 * 1024 * 1024
	// DefaultLogLevel names the default log verbosity.
	DefaultLogLevel = "info"
)

// Config is the top-level, TOML-deserializable configuration for a
// tupleproc deployment.
type Config struct {
	// HashAlgorithm selects the hash.Visitor engine ("xxhash" or "blake3").
	HashAlgorithm string `toml:"hash-algorithm"`
	// IndexMaxEntries caps the number of rows any single Index may hold.
	IndexMaxEntries uint64 `toml:"index-max-entries"`
	// LogLevel names the minimum severity the logger emits at.
	LogLevel string `toml:"log-level"`

	Stats StatsConfig `toml:"stats"`
}

// StatsConfig configures the stats.StatsClient backend.
type StatsConfig struct {
	// Backend names the stats client implementation: "nop" or
	// "prometheus".
	Backend string `toml:"backend"`
}

// NewDefaultConfig returns a Config populated with the library defaults.
func NewDefaultConfig() *Config {
	return &Config{
		HashAlgorithm:   DefaultHashAlgorithm,
		IndexMaxEntries: DefaultIndexMaxEntries,
		LogLevel:        DefaultLogLevel,
		Stats:           StatsConfig{Backend: "nop"},
	}
}

// Load reads and decodes a TOML config file at path over the defaults,
// so an on-disk file only needs to specify the fields it overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "config: reading %s", path)
	}
	cfg := NewDefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "config: parsing %s", path)
	}
	return cfg, nil
}

// Validate checks that the configured values are usable, catching typos in
// an on-disk config before it reaches the packages that trust it.
func (c *Config) Validate() error {
	switch c.HashAlgorithm {
	case "", "xxhash", "blake3":
	default:
		return errors.Errorf("config: unknown hash-algorithm %q", c.HashAlgorithm)
	}
	if c.IndexMaxEntries == 0 {
		return errors.Errorf("config: index-max-entries must be positive")
	}
	switch c.Stats.Backend {
	case "", "nop", "prometheus":
	default:
		return errors.Errorf("config: unknown stats backend %q", c.Stats.Backend)
	}
	return nil
}
