package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	applog "fiquest/internal/log"
)

// Store backends accepted by FIQUEST_STORE_BACKEND.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// DefaultQuotaBytes matches the per-origin budget browsers give localStorage.
const DefaultQuotaBytes int64 = 5 * 1024 * 1024

type Config struct {
	// Store
	StoreBackend    string `yaml:"store_backend" env:"FIQUEST_STORE_BACKEND"`
	SQLitePath      string `yaml:"sqlite_path" env:"FIQUEST_SQLITE_PATH"`
	StoreQuotaBytes int64  `yaml:"store_quota_bytes" env:"FIQUEST_STORE_QUOTA_BYTES"`

	// Read cache in front of the SQLite store
	CacheSize int           `yaml:"cache_size" env:"FIQUEST_CACHE_SIZE"`
	CacheTTL  time.Duration `yaml:"cache_ttl" env:"FIQUEST_CACHE_TTL"`

	// Session
	AutosaveInterval time.Duration `yaml:"autosave_interval" env:"FIQUEST_AUTOSAVE_INTERVAL"`

	// Save files
	ExportDir string `yaml:"export_dir" env:"FIQUEST_EXPORT_DIR"`
	UserAgent string `yaml:"user_agent" env:"FIQUEST_USER_AGENT"`

	LogLevel string `yaml:"log_level" env:"FIQUEST_LOG_LEVEL"`
}

// Default returns the configuration used when neither a file nor the
// environment overrides a value.
func Default() *Config {
	return &Config{
		StoreBackend:     BackendSQLite,
		SQLitePath:       "./data/fiquest.db",
		StoreQuotaBytes:  DefaultQuotaBytes,
		CacheSize:        64,
		CacheTTL:         5 * time.Minute,
		AutosaveInterval: 2 * time.Minute,
		ExportDir:        "./exports",
		LogLevel:         "info",
	}
}

// Load builds the configuration from defaults, then the optional YAML file at
// path, then the environment. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	validBackends := []string{BackendMemory, BackendSQLite}
	if !slices.Contains(validBackends, c.StoreBackend) {
		errors = append(errors, fmt.Sprintf("invalid store backend '%s': must be one of %v", c.StoreBackend, validBackends))
	}

	if c.StoreBackend == BackendSQLite {
		if c.SQLitePath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLitePath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}

		if c.CacheSize < 1 {
			errors = append(errors, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
		}
		if c.CacheTTL < time.Second {
			errors = append(errors, fmt.Sprintf("invalid cache ttl %v: must be at least 1 second", c.CacheTTL))
		}
	}

	if c.StoreQuotaBytes < 1024 {
		errors = append(errors, fmt.Sprintf("invalid store quota %d bytes: must be at least 1024", c.StoreQuotaBytes))
	}

	if c.AutosaveInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid autosave interval %v: must be at least 1 second", c.AutosaveInterval))
	} else if c.AutosaveInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid autosave interval %v: must be at most 24 hours", c.AutosaveInterval))
	}

	if strings.TrimSpace(c.ExportDir) == "" {
		errors = append(errors, "export directory cannot be empty")
	}

	if _, err := applog.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level: %v", err))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}
