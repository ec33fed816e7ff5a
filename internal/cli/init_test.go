package cli

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"fiquest/internal/config"
	applog "fiquest/internal/log"
)

func testLogger() *applog.Logger {
	return applog.New(applog.Config{Level: slog.LevelDebug, Output: &bytes.Buffer{}})
}

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		backend string
	}{
		{name: "memory", backend: config.BackendMemory},
		{name: "sqlite", backend: config.BackendSQLite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.StoreBackend = tt.backend
			cfg.SQLitePath = filepath.Join(t.TempDir(), "fiquest.db")
			cfg.ExportDir = t.TempDir()

			app, err := Open(context.Background(), cfg, testLogger())
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			if app.Session.IsLoggedIn() {
				t.Fatal("fresh store should have no player")
			}
			if _, err := app.Session.Login("Ada"); err != nil {
				t.Fatalf("login: %v", err)
			}
			if err := app.Close(); err != nil {
				t.Fatalf("close: %v", err)
			}
		})
	}
}

func TestOpenResumesPlayer(t *testing.T) {
	cfg := config.Default()
	cfg.SQLitePath = filepath.Join(t.TempDir(), "fiquest.db")
	cfg.ExportDir = t.TempDir()

	app, err := Open(context.Background(), cfg, testLogger())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := app.Session.Login("Ada"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := app.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	app, err = Open(context.Background(), cfg, testLogger())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer app.Close()

	p, ok := app.Session.Current()
	if !ok || p.PlayerName != "Ada" {
		t.Fatalf("expected Ada to be resumed, got %+v (ok=%v)", p, ok)
	}
}

func TestLoadAndValidateConfig(t *testing.T) {
	t.Setenv(ConfigPathEnv, "")
	t.Setenv("FIQUEST_STORE_BACKEND", "memory")

	cfg, err := LoadAndValidateConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StoreBackend != config.BackendMemory {
		t.Fatalf("StoreBackend = %q", cfg.StoreBackend)
	}

	t.Setenv("FIQUEST_STORE_BACKEND", "indexeddb")
	if _, err := LoadAndValidateConfig(); err == nil {
		t.Fatal("expected validation error")
	}
}
