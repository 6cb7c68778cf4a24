package config

import (
	"fmt"
	"os"
	"strconv"
)

// loadFromEnv overrides config from TASKNEST_* environment variables.
func loadFromEnv(cfg *Config) error {
	if v := os.Getenv("TASKNEST_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("TASKNEST_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("TASKNEST_USER"); v != "" {
		cfg.User = v
	}
	if v := os.Getenv("TASKNEST_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("TASKNEST_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("TASKNEST_NOTIFY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TASKNEST_NOTIFY: %w", err)
		}
		cfg.Notify = b
	}
	if v := os.Getenv("TASKNEST_BATCH_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TASKNEST_BATCH_SIZE: %w", err)
		}
		cfg.BatchSize = n
	}
	if v := os.Getenv("TASKNEST_LIST_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TASKNEST_LIST_LIMIT: %w", err)
		}
		cfg.ListLimit = n
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
