// Package config handles configuration loading and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
)

// Default values.
const (
	DefaultBatchSize = 500
	DefaultListLimit = 50
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
	DefaultDBName    = "tasknest.db"
	ConfigFileName   = "tasknest.toml"
	maxBatchSize     = 500
	maxListLimit     = 100
)

// Config holds the full configuration for tasknest.
type Config struct {
	// Paths
	DataDir string `toml:"data_dir"`
	DBPath  string `toml:"db_path"`

	// User the CLI acts as
	User string `toml:"user"`

	// Cascade and bulk write chunking
	BatchSize int `toml:"batch_size"`

	// Default page size for task listings
	ListLimit int `toml:"list_limit"`

	// Desktop notifications for due reminders
	Notify bool `toml:"notify"`

	// Logging configuration
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// DefaultDataDir returns the default data directory
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tasknest"
	}
	return filepath.Join(home, ".local", "share", "tasknest")
}

// Default returns a config holding only defaults
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

func setDefaults(cfg *Config) {
	cfg.DataDir = DefaultDataDir()
	cfg.BatchSize = DefaultBatchSize
	cfg.ListLimit = DefaultListLimit
	cfg.LogLevel = DefaultLogLevel
	cfg.LogFormat = DefaultLogFormat
	cfg.Notify = true
}

// Load loads configuration from multiple sources in priority order:
// 1. Defaults
// 2. Config file (path, or tasknest.toml in the data dir when path is empty)
// 3. Environment variables
// CLI flags are applied by the caller afterwards, then Finalize.
func Load(path string) (*Config, error) {
	return LoadIn("", path)
}

// LoadIn is Load with the data directory chosen by the caller, e.g. from a
// --data-dir flag. An empty dataDir falls back to TASKNEST_DATA_DIR and the
// default directory.
func LoadIn(dataDir, path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		if dataDir == "" {
			dataDir = envOr("TASKNEST_DATA_DIR", cfg.DataDir)
		}
		path = filepath.Join(dataDir, ConfigFileName)
	}
	if err := loadConfigFile(cfg, path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	return cfg, nil
}

func loadConfigFile(cfg *Config, path string) error {
	_, err := toml.DecodeFile(path, cfg)
	return err
}

// Finalize fills derived values and validates the config
func (c *Config) Finalize() error {
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir()
	}
	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.DataDir, DefaultDBName)
	}
	return c.Validate()
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.BatchSize < 1 || c.BatchSize > maxBatchSize {
		return fmt.Errorf("batch_size must be between 1 and %d, got %d", maxBatchSize, c.BatchSize)
	}
	if c.ListLimit < 1 || c.ListLimit > maxListLimit {
		return fmt.Errorf("list_limit must be between 1 and %d, got %d", maxListLimit, c.ListLimit)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json", "logfmt":
	default:
		return fmt.Errorf("log_format must be text, json or logfmt, got %q", c.LogFormat)
	}
	return nil
}

// LockPath returns the lock file guarding counter repairs
func (c *Config) LockPath() string {
	return filepath.Join(c.DataDir, "recount.lock")
}
