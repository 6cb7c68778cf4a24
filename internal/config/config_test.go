package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TASKNEST_DATA_DIR", dir)

	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Finalize())

	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, filepath.Join(dir, DefaultDBName), cfg.DBPath)
	assert.Equal(t, DefaultBatchSize, cfg.BatchSize)
	assert.Equal(t, DefaultListLimit, cfg.ListLimit)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.Notify)
	assert.Equal(t, filepath.Join(dir, "recount.lock"), cfg.LockPath())
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.toml")
	err := os.WriteFile(path, []byte(`
data_dir = "/var/lib/tasknest"
user = "alice"
batch_size = 100
log_level = "debug"
log_format = "json"
`), 0644)
	require.NoError(t, err)

	t.Setenv("TASKNEST_BATCH_SIZE", "50")
	t.Setenv("TASKNEST_USER", "bob")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Finalize())

	assert.Equal(t, "/var/lib/tasknest", cfg.DataDir)
	assert.Equal(t, "bob", cfg.User)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadInReadsDataDirFile(t *testing.T) {
	t.Setenv("TASKNEST_DATA_DIR", "")
	t.Setenv("TASKNEST_USER", "")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(`user = "bob"`), 0644))

	cfg, err := LoadIn(dir, "")
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, "bob", cfg.User)

	// A directory without a config file is fine
	cfg, err = LoadIn(t.TempDir(), "")
	require.NoError(t, err)
	assert.Empty(t, cfg.User)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoadBadEnv(t *testing.T) {
	t.Setenv("TASKNEST_DATA_DIR", t.TempDir())
	t.Setenv("TASKNEST_BATCH_SIZE", "lots")

	_, err := Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"batch too large", func(c *Config) { c.BatchSize = 501 }, false},
		{"batch zero", func(c *Config) { c.BatchSize = 0 }, false},
		{"list limit too large", func(c *Config) { c.ListLimit = 101 }, false},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, false},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }, false},
		{"logfmt", func(c *Config) { c.LogFormat = "logfmt" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
