// Package worker runs background jobs for a session.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	applog "fiquest/internal/log"
)

// Saver is what the autosaver drives.
type Saver interface {
	IsLoggedIn() bool
	Save() error
}

// Autosaver saves the active session on a fixed interval. Ticks while no
// player is logged in are skipped, and a tick that overlaps a slow save is
// dropped.
type Autosaver struct {
	saver    Saver
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	entryID cron.EntryID
}

func NewAutosaver(saver Saver, interval time.Duration, logger *slog.Logger) *Autosaver {
	return &Autosaver{
		saver:    saver,
		interval: interval,
		logger:   applog.OrDefault(logger).With(applog.FieldComponent, applog.ComponentAutosave),
	}
}

// Start schedules the job. Calling Start twice is an error.
func (a *Autosaver) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cron != nil {
		return fmt.Errorf("autosave already running")
	}
	if a.interval < time.Second {
		return fmt.Errorf("invalid autosave interval %v: must be at least 1 second", a.interval)
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	id, err := c.AddFunc("@every "+a.interval.String(), func() { a.Tick() })
	if err != nil {
		return fmt.Errorf("register autosave: %w", err)
	}
	a.entryID = id
	c.Start()
	a.cron = c

	a.logger.Info("autosave started", "interval", a.interval)
	return nil
}

// Tick runs one autosave. It reports whether a save was attempted.
func (a *Autosaver) Tick() bool {
	if !a.saver.IsLoggedIn() {
		return false
	}
	if err := a.saver.Save(); err != nil {
		a.logger.Warn("autosave failed", applog.FieldError, err, applog.FieldErrorType, applog.ErrorTypeStorage)
		return true
	}
	a.logger.Debug("autosaved")
	return true
}

// Next returns the time of the next scheduled save, or the zero time when
// stopped.
func (a *Autosaver) Next() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cron == nil {
		return time.Time{}
	}
	return a.cron.Entry(a.entryID).Next
}

// Stop unschedules the job and waits for a running save to finish or ctx
// to end. Stopping a stopped autosaver is a no-op.
func (a *Autosaver) Stop(ctx context.Context) error {
	a.mu.Lock()
	c := a.cron
	a.cron = nil
	a.mu.Unlock()

	if c == nil {
		return nil
	}
	select {
	case <-c.Stop().Done():
		a.logger.Info("autosave stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
