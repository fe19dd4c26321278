package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/columnfold/tupleproc/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := config.NewDefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "xxhash", cfg.HashAlgorithm)
	assert.Equal(t, uint64(config.DefaultIndexMaxEntries), cfg.IndexMaxEntries)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tupleproc.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
hash-algorithm = "blake3"
index-max-entries = 1024

[stats]
backend = "prometheus"
`), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "blake3", cfg.HashAlgorithm)
	assert.Equal(t, uint64(1024), cfg.IndexMaxEntries)
	assert.Equal(t, "prometheus", cfg.Stats.Backend)
	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel)
}

func TestConfig_Validate_RejectsUnknownHashAlgorithm(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.HashAlgorithm = "rot13"
	require.Error(t, cfg.Validate())
}

func TestConfig_Validate_RejectsZeroIndexMaxEntries(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.IndexMaxEntries = 0
	require.Error(t, cfg.Validate())
}
