// Package codec turns the active session into a portable save file and back.
//
// Export writes a versioned envelope as JSON or CSV, optionally obfuscated.
// Import validates an envelope, snapshots the current state under a backup
// key, applies the envelope, and on failure puts the store back the way it
// was while keeping the snapshot for manual recovery.
package codec

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fiquest/internal/clock"
	"fiquest/internal/core"
	"fiquest/internal/kvstore"
	applog "fiquest/internal/log"
	"fiquest/internal/obfuscate"
)

var (
	// ErrValidation marks a payload that is not a usable envelope.
	ErrValidation = errors.New("invalid import data format")
	// ErrBackupFailed means the pre-import snapshot could not be written, so
	// nothing was applied.
	ErrBackupFailed = errors.New("could not back up current data")
	// ErrDecodeFailed is re-exported for callers that only import codec.
	ErrDecodeFailed = obfuscate.ErrDecodeFailed
)

// Session is the slice of the session manager the codec needs.
type Session interface {
	// Save persists the in-memory profile.
	Save() error
	// Current returns a copy of the active profile.
	Current() (core.PlayerProfile, bool)
	// Adopt atomically persists p and makes it the active profile.
	Adopt(p core.PlayerProfile) error
}

type Codec struct {
	store   kvstore.Store
	session Session
	clock   clock.Clock
	logger  *slog.Logger
}

type Option func(*Codec)

func WithClock(c clock.Clock) Option {
	return func(cd *Codec) { cd.clock = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(cd *Codec) { cd.logger = l }
}

func New(store kvstore.Store, session Session, opts ...Option) *Codec {
	c := &Codec{store: store, session: session, clock: clock.System{}}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = applog.OrDefault(c.logger).With(applog.FieldComponent, applog.ComponentCodec)
	return c
}

// ExportOptions selects what Export produces.
type ExportOptions struct {
	Format string
	// Obfuscate applies to JSON only.
	Obfuscate bool
	// Trigger is recorded in the envelope metadata, e.g. "logout".
	Trigger string
}

// ExportAll is Export without a trigger.
func (c *Codec) ExportAll(format string, obfuscated bool) (string, error) {
	return c.Export(ExportOptions{Format: format, Obfuscate: obfuscated})
}

// Export saves the session and serializes it.
func (c *Codec) Export(opts ExportOptions) (string, error) {
	if opts.Format != core.FormatJSON && opts.Format != core.FormatCSV {
		return "", fmt.Errorf("%w: %s", core.ErrUnsupportedFormat, opts.Format)
	}

	env, err := c.Envelope(opts.Trigger)
	if err != nil {
		return "", err
	}

	var text string
	switch opts.Format {
	case core.FormatJSON:
		data, err := core.MarshalIndent(env)
		if err != nil {
			return "", fmt.Errorf("encode envelope: %w", err)
		}
		text = string(data)
	case core.FormatCSV:
		text = completeCSV(env)
	}

	if opts.Obfuscate && opts.Format == core.FormatJSON {
		text = obfuscate.Obfuscate(text)
	}

	c.logger.Info("data exported",
		applog.FieldPlayer, env.PlayerData.PlayerName,
		applog.FieldFormat, opts.Format,
		applog.FieldBytes, len(text),
		applog.FieldTrigger, opts.Trigger)
	return text, nil
}

// Envelope saves the session and assembles the export envelope. A failed
// save is logged and the envelope is built from memory anyway: the export
// may be the user's only way out of a full store.
func (c *Codec) Envelope(trigger string) (core.ExportEnvelope, error) {
	if _, ok := c.session.Current(); !ok {
		return core.ExportEnvelope{}, core.ErrNoPlayer
	}
	if err := c.session.Save(); err != nil {
		c.logger.Warn("exporting unsaved state", applog.FieldError, err)
	}
	p, ok := c.session.Current()
	if !ok {
		return core.ExportEnvelope{}, core.ErrNoPlayer
	}

	stamp := clock.Now(c.clock)
	env := core.ExportEnvelope{
		Version:        core.EnvelopeVersion,
		ExportDate:     stamp.ISO,
		ExportTimezone: stamp.Timezone,
		PlayerData:     p.WithoutPassword(),
		Metadata: core.ExportMetadata{
			ExportedBy:     core.ExportedBy,
			PlayerName:     p.PlayerName,
			LastPlayedDate: p.LastPlayedDate,
			ExportTrigger:  trigger,
		},
	}
	for _, mk := range env.GameData.MirroredKeys() {
		raw, err := kvstore.GetRaw(c.store, mk.Key)
		if err != nil {
			c.logger.Warn("skipping unreadable game data", applog.FieldKey, mk.Key, applog.FieldError, err)
			continue
		}
		*mk.Value = raw
	}

	profile, err := core.MarshalCompact(env.PlayerData)
	if err != nil {
		return core.ExportEnvelope{}, fmt.Errorf("encode player: %w", err)
	}
	env.Metadata.DataIntegrity = IntegrityHash(string(profile))
	return env, nil
}

// ExportFilename names a save file: fiquest_<name>_<MMDDYY>[_encrypted].<format>.
func ExportFilename(playerName, format string, obfuscated bool, now time.Time) string {
	suffix := ""
	if obfuscated {
		suffix = "_encrypted"
	}
	return fmt.Sprintf("fiquest_%s_%s%s.%s", core.SanitizeName(playerName), clock.FilenameDate(now), suffix, format)
}

// IsObfuscatedFilename reports whether a file name marks an encrypted export.
func IsObfuscatedFilename(name string) bool {
	return strings.Contains(strings.ToLower(name), "_encrypted")
}
