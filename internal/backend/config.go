package backend

import (
	"fmt"
	"time"

	"fiquest/internal/config"
)

// Config holds configuration for store creation
type Config struct {
	Type BackendType

	// Shared
	QuotaBytes int64

	// SQLite specific
	SQLiteDBPath string
	CacheSize    int
	CacheTTL     time.Duration
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.StoreBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.StoreBackend)
	}

	return Config{
		Type:         backendType,
		QuotaBytes:   appConfig.StoreQuotaBytes,
		SQLiteDBPath: appConfig.SQLitePath,
		CacheSize:    appConfig.CacheSize,
		CacheTTL:     appConfig.CacheTTL,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.Type == SQLiteBackend && c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required for sqlite backend")
	}
	return nil
}
