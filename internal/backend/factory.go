package backend

import (
	"context"
	"fmt"
	"log/slog"

	"fiquest/internal/cache"
	"fiquest/internal/kvstore/memory"
	applog "fiquest/internal/log"
	"fiquest/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
	caches *cache.Manager
}

// NewFactory creates a new backend factory. Read caches of created stores
// are registered with caches when it is non-nil.
func NewFactory(logger *slog.Logger, caches *cache.Manager) Factory {
	return &DefaultFactory{
		logger: applog.OrDefault(logger).With(applog.FieldComponent, applog.ComponentBackend),
		caches: caches,
	}
}

// CreateStore implements Factory.CreateStore
func (f *DefaultFactory) CreateStore(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteStore(config)
	case MemoryBackend:
		return f.createMemoryStore(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteStore(config Config) (*BackendResult, error) {
	store, err := storage.NewSQLiteStore(config.SQLiteDBPath, storage.Options{
		QuotaBytes: config.QuotaBytes,
		CacheSize:  config.CacheSize,
		CacheTTL:   config.CacheTTL,
		Logger:     f.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
	}

	if c := store.Cache(); c != nil && f.caches != nil {
		f.caches.Register(c)
	}

	f.logger.Info("Initialized SQLite store",
		"db_path", config.SQLiteDBPath,
		"quota_bytes", config.QuotaBytes,
		"cache_size", config.CacheSize)

	return &BackendResult{
		Store:   store,
		Cleanup: store.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryStore(config Config) (*BackendResult, error) {
	store := memory.New(config.QuotaBytes)

	f.logger.Info("Initialized memory store", "quota_bytes", config.QuotaBytes)

	return &BackendResult{
		Store:   store,
		Cleanup: nil, // nothing to release
	}, nil
}
