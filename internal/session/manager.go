// Package session owns the single active player profile and mediates every
// read and write of it against the key/value store.
//
// The profile lives under fiquest_player_<name>. While a player is active,
// scenarios, the active scenario and the net worth setup are also mirrored
// into their own keys, where the planners read and write them. Save folds
// those keys back into the profile.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"fiquest/internal/clock"
	"fiquest/internal/core"
	"fiquest/internal/kvstore"
	"fiquest/internal/ledger"
	applog "fiquest/internal/log"
)

var (
	ErrPlayerNotFound = errors.New("player not found")
	ErrPlayerExists   = errors.New("player already exists")
)

// Manager is the session context. It is safe for concurrent use; the
// autosave job and the foreground caller share one instance.
type Manager struct {
	mu      sync.Mutex
	store   kvstore.Store
	clock   clock.Clock
	logger  *slog.Logger
	current *core.PlayerProfile

	ledgerOpts []ledger.Option
	saves      singleflight.Group
}

type Option func(*Manager)

func WithClock(c clock.Clock) Option {
	return func(m *Manager) { m.clock = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithLedgerOptions is passed through to every ledger the manager opens.
func WithLedgerOptions(opts ...ledger.Option) Option {
	return func(m *Manager) { m.ledgerOpts = append(m.ledgerOpts, opts...) }
}

func NewManager(store kvstore.Store, opts ...Option) *Manager {
	m := &Manager{store: store, clock: clock.System{}}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = applog.OrDefault(m.logger).With(applog.FieldComponent, applog.ComponentSession)
	return m
}

// Start resumes the player named by fiquest_current_player, if any. A
// dangling or unreadable profile is logged and leaves the session empty.
func (m *Manager) Start() error {
	name, ok, err := m.store.Get(core.KeyCurrentPlayer)
	if err != nil {
		return fmt.Errorf("read current player: %w", err)
	}
	if !ok || name == "" {
		return nil
	}
	if err := m.LoadPlayer(name); err != nil {
		m.logger.Warn("could not resume player", applog.FieldPlayer, name, applog.FieldError, err)
	}
	return nil
}

// Current returns a copy of the active profile.
func (m *Manager) Current() (core.PlayerProfile, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return core.PlayerProfile{}, false
	}
	return m.current.Clone(), true
}

func (m *Manager) IsLoggedIn() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current != nil
}

// CreatePlayer registers a new player and makes it active.
func (m *Manager) CreatePlayer(name string) (core.PlayerProfile, error) {
	p, err := core.NewPlayerProfile(name)
	if err != nil {
		return core.PlayerProfile{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok, err := m.store.Get(core.PlayerKey(p.PlayerName)); err != nil {
		return core.PlayerProfile{}, fmt.Errorf("check player: %w", err)
	} else if ok {
		return core.PlayerProfile{}, fmt.Errorf("%w: %s", ErrPlayerExists, p.PlayerName)
	}

	stamp := clock.Now(m.clock)
	p.CreatedDate = stamp.ISO
	p.LastPlayedDate = stamp.ISO
	p.LastPlayedLocal = stamp.Date
	p.Timezone = stamp.Timezone

	if err := m.persistLocked(p); err != nil {
		return core.PlayerProfile{}, err
	}
	if err := m.store.Set(core.KeyCurrentPlayer, p.Key()); err != nil {
		return core.PlayerProfile{}, fmt.Errorf("set current player: %w", err)
	}
	m.activateLocked(p)

	m.logger.Info("player created", applog.FieldPlayer, p.PlayerName)
	return p.Clone(), nil
}

// Login activates name, creating the player on first use. It reports
// whether the player was created.
func (m *Manager) Login(name string) (bool, error) {
	name = strings.TrimSpace(name)
	if _, err := m.CreatePlayer(name); err == nil {
		return true, nil
	} else if !errors.Is(err, ErrPlayerExists) {
		return false, err
	}

	if err := m.LoadPlayer(name); err != nil {
		return false, err
	}
	if err := m.store.Set(core.KeyCurrentPlayer, strings.ToLower(name)); err != nil {
		return false, fmt.Errorf("set current player: %w", err)
	}
	return false, nil
}

// LoadPlayer reads a stored profile, makes it active and mirrors its game
// data into the store keys the planners use.
func (m *Manager) LoadPlayer(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok, err := m.store.Get(core.PlayerKey(name))
	if err != nil {
		return fmt.Errorf("read player: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrPlayerNotFound, name)
	}
	p, err := core.ParsePlayerProfile(data)
	if err != nil {
		return fmt.Errorf("parse player %s: %w", name, err)
	}

	m.activateLocked(p)
	m.logger.Info("player loaded", applog.FieldPlayer, p.PlayerName, applog.FieldCount, len(p.GameData.NetWorthTracking))
	return nil
}

// activateLocked makes p current and rewrites the mirrored keys from it.
// Keys for absent sub-objects are removed so a previous player's data does
// not leak into this session.
func (m *Manager) activateLocked(p core.PlayerProfile) {
	m.current = &p

	g := p.GameData
	var scenarios json.RawMessage
	if len(g.Scenarios) > 0 {
		scenarios, _ = core.MarshalCompact(g.Scenarios)
	}
	m.mirrorLocked(core.KeyScenarios, scenarios)
	m.mirrorLocked(core.KeyActiveScenario, g.ActiveScenario)
	m.mirrorLocked(core.KeyNetWorthSetup, g.NetWorthSetup)
}

func (m *Manager) mirrorLocked(key string, value json.RawMessage) {
	var err error
	if core.IsNull(value) {
		err = m.store.Remove(key)
	} else {
		err = m.store.Set(key, string(value))
	}
	if err != nil {
		m.logger.Warn("mirror game data", applog.FieldKey, key, applog.FieldError, err)
	}
}

// Save folds the mirrored keys back into the active profile, stamps it and
// writes it to the store. Concurrent callers share one save. Without an
// active player it does nothing.
func (m *Manager) Save() error {
	_, err, _ := m.saves.Do("save", func() (any, error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		return nil, m.saveLocked()
	})
	return err
}

func (m *Manager) saveLocked() error {
	if m.current == nil {
		return nil
	}
	p := m.current

	p.GameData.Scenarios = m.readScenariosLocked()
	p.GameData.ActiveScenario = m.readRawLocked(core.KeyActiveScenario)
	p.GameData.NetWorthSetup = m.readRawLocked(core.KeyNetWorthSetup)
	if p.GameData.NetWorthTracking == nil {
		p.GameData.NetWorthTracking = []core.NetWorthEntry{}
	}
	if p.GameData.Preferences == (core.Preferences{}) {
		p.GameData.Preferences = core.DefaultPreferences()
	}

	stamp := clock.Now(m.clock)
	p.LastPlayedDate = stamp.ISO
	p.LastPlayedLocal = stamp.Date
	p.Timezone = stamp.Timezone

	if err := m.persistLocked(*p); err != nil {
		m.logger.Error("save failed",
			applog.NewFields().
				WithOperation(applog.OpSave).
				WithPlayer(p.PlayerName).
				WithError(err).
				WithErrorType(applog.ErrorTypeStorage).
				ToSlice()...)
		return err
	}
	m.logger.Debug("player saved", applog.FieldPlayer, p.PlayerName)
	return nil
}

func (m *Manager) persistLocked(p core.PlayerProfile) error {
	data, err := core.MarshalCompact(p)
	if err != nil {
		return fmt.Errorf("encode player: %w", err)
	}
	if err := m.store.Set(core.PlayerKey(p.PlayerName), string(data)); err != nil {
		return fmt.Errorf("write player: %w", err)
	}
	return nil
}

func (m *Manager) readRawLocked(key string) json.RawMessage {
	raw, err := kvstore.GetRaw(m.store, key)
	if err != nil {
		m.logger.Warn("ignoring unreadable game data", applog.FieldKey, key, applog.FieldError, err)
		return nil
	}
	return raw
}

func (m *Manager) readScenariosLocked() []json.RawMessage {
	raw := m.readRawLocked(core.KeyScenarios)
	if core.IsNull(raw) {
		return []json.RawMessage{}
	}
	var scenarios []json.RawMessage
	if err := json.Unmarshal(raw, &scenarios); err != nil {
		m.logger.Warn("ignoring malformed scenarios", applog.FieldError, err)
		return []json.RawMessage{}
	}
	return scenarios
}

// OnUnload is the save-on-exit hook.
func (m *Manager) OnUnload(ctx context.Context) {
	m.saveFrom(ctx, "unload")
}

// OnVisibilityHidden is the save-when-backgrounded hook.
func (m *Manager) OnVisibilityHidden(ctx context.Context) {
	m.saveFrom(ctx, "visibility_hidden")
}

func (m *Manager) saveFrom(ctx context.Context, trigger string) {
	if err := m.Save(); err != nil {
		m.logger.WarnContext(ctx, "lifecycle save failed", applog.FieldTrigger, trigger, applog.FieldError, err)
	}
}

// Adopt makes p the active player: its profile is written under its name
// key and fiquest_current_player points at it. Either both writes land and
// the in-memory session switches, or the store is put back and the session
// is unchanged. Mirrored keys are left alone.
func (m *Manager) Adopt(p core.PlayerProfile) error {
	if p.PlayerName == "" {
		return core.ErrEmptyPlayerName
	}
	p = p.Clone()
	p.Normalize()

	m.mu.Lock()
	defer m.mu.Unlock()

	key := core.PlayerKey(p.PlayerName)
	prev, existed, err := m.store.Get(key)
	if err != nil {
		return fmt.Errorf("read player: %w", err)
	}
	if err := m.persistLocked(p); err != nil {
		return err
	}
	if err := m.store.Set(core.KeyCurrentPlayer, p.Key()); err != nil {
		m.restoreLocked(key, prev, existed)
		return fmt.Errorf("set current player: %w", err)
	}

	m.current = &p
	return nil
}

func (m *Manager) restoreLocked(key, prev string, existed bool) {
	var err error
	if existed {
		err = m.store.Set(key, prev)
	} else {
		err = m.store.Remove(key)
	}
	if err != nil {
		m.logger.Error("rollback failed", applog.FieldKey, key, applog.FieldError, err)
	}
}

// ClearAll ends the session and removes every fiquest_ key from the store.
func (m *Manager) ClearAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.current = nil

	keys, err := kvstore.KeysWithPrefix(m.store, core.KeyPrefix)
	if err != nil {
		return fmt.Errorf("list keys: %w", err)
	}
	var errs []error
	for _, k := range keys {
		if err := m.store.Remove(k); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", k, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	m.logger.Info("all data cleared", applog.FieldCount, len(keys))
	return nil
}
