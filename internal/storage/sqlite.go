package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"fiquest/internal/cache"
	"fiquest/internal/kvstore"
	applog "fiquest/internal/log"

	_ "modernc.org/sqlite"
)

const opTimeout = 5 * time.Second

// SQLiteStore is a kvstore.Store backed by a single SQLite table, with an
// LRU read cache in front of it.
type SQLiteStore struct {
	db     *sql.DB
	quota  int64
	cache  *cache.LRUCache[string]
	logger *slog.Logger
}

var _ kvstore.Store = (*SQLiteStore)(nil)

// Options tunes NewSQLiteStore. Zero values disable the quota and the cache.
type Options struct {
	QuotaBytes int64
	CacheSize  int
	CacheTTL   time.Duration
	Logger     *slog.Logger
}

func NewSQLiteStore(dbPath string, opts Options) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// Quota checks read then write; one connection keeps them serialized.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		quota:  opts.QuotaBytes,
		logger: applog.OrDefault(opts.Logger).With(applog.FieldComponent, applog.ComponentStorage),
	}
	s.logger.Debug("kv schema ready", applog.FieldVersion, version, "db_path", dbPath)
	if opts.CacheSize > 0 && opts.CacheTTL > 0 {
		s.cache = cache.NewLRUCache[string](opts.CacheSize, opts.CacheTTL)
	}
	return s, nil
}

// Cache exposes the read cache so it can be registered for periodic cleanup.
// Nil when caching is disabled.
func (s *SQLiteStore) Cache() *cache.LRUCache[string] {
	return s.cache
}

func (s *SQLiteStore) Close() error {
	if s.cache != nil {
		st := s.cache.Stats()
		s.logger.Debug("kv cache stats", "hits", st.Hits, "misses", st.Misses, "size", st.Size)
		s.cache.Purge()
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) Get(key string) (string, bool, error) {
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			return v, true, nil
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: get %s: %v", kvstore.ErrAccess, key, err)
	}

	if s.cache != nil {
		s.cache.Set(key, value)
	}
	return value, true, nil
}

func (s *SQLiteStore) Set(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", kvstore.ErrAccess, err)
	}
	defer tx.Rollback()

	if s.quota > 0 {
		var usage, oldSize int64
		err := tx.QueryRowContext(ctx, `
			SELECT
				COALESCE(SUM(LENGTH(CAST(key AS BLOB)) + LENGTH(CAST(value AS BLOB))), 0),
				COALESCE(SUM(CASE WHEN key = ? THEN LENGTH(CAST(key AS BLOB)) + LENGTH(CAST(value AS BLOB)) ELSE 0 END), 0)
			FROM kv`, key).Scan(&usage, &oldSize)
		if err != nil {
			return fmt.Errorf("%w: usage: %v", kvstore.ErrAccess, err)
		}
		if err := kvstore.CheckQuota(usage, oldSize, kvstore.EntrySize(key, value), s.quota); err != nil {
			s.logger.Warn("write rejected", applog.FieldKey, key, applog.FieldBytes, len(value), "usage", usage)
			return err
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("%w: set %s: %v", kvstore.ErrAccess, key, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", kvstore.ErrAccess, err)
	}

	if s.cache != nil {
		s.cache.Set(key, value)
	}
	return nil
}

func (s *SQLiteStore) Remove(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if s.cache != nil {
		s.cache.Delete(key)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("%w: remove %s: %v", kvstore.ErrAccess, key, err)
	}
	return nil
}

func (s *SQLiteStore) Keys() ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `SELECT key FROM kv ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("%w: keys: %v", kvstore.ErrAccess, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("%w: scan key: %v", kvstore.ErrAccess, err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: keys: %v", kvstore.ErrAccess, err)
	}
	return keys, nil
}
