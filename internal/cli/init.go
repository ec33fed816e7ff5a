// Package cli provides the initialization shared by the fiquest commands:
// logging, configuration, the store backend and the session services built
// on top of it.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fiquest/internal/backend"
	"fiquest/internal/cache"
	"fiquest/internal/codec"
	"fiquest/internal/config"
	"fiquest/internal/delivery"
	applog "fiquest/internal/log"
	"fiquest/internal/services"
	"fiquest/internal/session"
)

// ConfigPathEnv names the variable holding the optional YAML config path.
const ConfigPathEnv = "FIQUEST_CONFIG"

// SetupLogger initializes structured logging at level and sets it as the
// default logger. Logs go to stderr so stdout stays free for clipboard output.
func SetupLogger(level string) *applog.Logger {
	lvl, err := applog.ParseLevel(level)
	logger := applog.New(applog.Config{Level: lvl, Component: applog.ComponentCLI, Output: os.Stderr})
	if err != nil {
		logger.Warn("Unknown log level, using info", "level", level)
	}
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration from the file named by
// FIQUEST_CONFIG and the environment, and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg, err := config.Load(os.Getenv(ConfigPathEnv))
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// App is a fully wired session: store, session manager, codec and the
// save-file service.
type App struct {
	Config  *config.Config
	Logger  *applog.Logger
	Session *session.Manager
	Codec   *codec.Codec
	Files   *services.SaveFileService

	caches  *cache.Manager
	cleanup backend.CleanupFunc
}

// Open builds an App from cfg and resumes the current player, if any.
func Open(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*App, error) {
	caches := cache.NewManager(logger.WithComponent(applog.ComponentCache).Slog())

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger.Slog(), caches).CreateStore(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if bcfg.Type == backend.SQLiteBackend && cfg.CacheTTL > 0 {
		caches.StartCleanup(cfg.CacheTTL)
	}

	mgr := session.NewManager(res.Store, session.WithLogger(logger.WithComponent(applog.ComponentSession).Slog()))
	if err := mgr.Start(); err != nil {
		caches.Stop()
		_ = res.Cleanup()
		return nil, fmt.Errorf("resume session: %w", err)
	}

	c := codec.New(res.Store, mgr, codec.WithLogger(logger.WithComponent(applog.ComponentCodec).Slog()))

	host := delivery.NewFileHost(cfg.ExportDir, os.Stdout, os.Stderr)
	chain := delivery.NewChain(host, delivery.FileHostCapabilities(cfg.UserAgent),
		delivery.WithLogger(logger.WithComponent(applog.ComponentDelivery).Slog()))

	return &App{
		Config:  cfg,
		Logger:  logger,
		Session: mgr,
		Codec:   c,
		Files:   services.NewSaveFileService(c, mgr, chain, nil, logger.Slog()),
		caches:  caches,
		cleanup: res.Cleanup,
	}, nil
}

// Close saves the session and releases the store.
func (a *App) Close() error {
	a.Session.OnUnload(context.Background())
	a.caches.Stop()
	if a.cleanup == nil {
		return nil
	}
	return a.cleanup()
}

// Bootstrap runs the common startup sequence: .env, config, logger, App.
func Bootstrap(ctx context.Context) (*App, error) {
	LoadEnvFile()
	cfg, err := LoadAndValidateConfig()
	if err != nil {
		return nil, err
	}
	logger := SetupLogger(cfg.LogLevel)
	return Open(ctx, cfg, logger)
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *slog.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		cancel()

		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
