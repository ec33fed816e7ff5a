package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"fiquest/internal/core"
	"fiquest/internal/kvstore"
	applog "fiquest/internal/log"
	"fiquest/internal/obfuscate"
)

// Result is the outcome of an import. Import never returns an error; Err
// carries the cause for callers that want to branch on it.
type Result struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	PlayerName string `json:"playerName,omitempty"`
	ImportDate string `json:"importDate,omitempty"`
	// Warning is set when the file was accepted with reservations.
	Warning string `json:"warning,omitempty"`
	// BackupKey names the snapshot left behind by a failed apply.
	BackupKey string `json:"backupKey,omitempty"`
	Err       error  `json:"-"`
}

func failure(err error) Result {
	return Result{Success: false, Message: err.Error(), Err: err}
}

// ImportAll reads payload, obfuscated or not, and replaces the session with
// it.
func (c *Codec) ImportAll(payload string, isObfuscated bool) Result {
	log := c.logger.With(applog.FieldOperation, applog.OpImport)

	text := payload
	if isObfuscated {
		plain, err := obfuscate.Deobfuscate(strings.TrimSpace(payload))
		if err != nil {
			log.Warn("import rejected", applog.FieldErrorType, applog.ErrorTypeDecode, applog.FieldError, err)
			return failure(err)
		}
		text = plain
	}

	env, warning, err := Validate([]byte(text))
	if err != nil {
		log.Warn("import rejected", applog.FieldErrorType, applog.ErrorTypeValidation, applog.FieldError, err)
		return failure(err)
	}
	if warning != "" {
		log.Warn(warning, applog.FieldVersion, env.Version)
	}

	ts := c.clock.Now().UnixMilli()
	backupKey, backup, err := c.backup(ts)
	if err != nil {
		log.Error("import aborted", applog.FieldError, err, applog.FieldErrorType, applog.ErrorTypeStorage)
		return failure(err)
	}

	if err := c.apply(env); err != nil {
		res := failure(fmt.Errorf("import failed, previous data restored: %w", err))
		if backupKey != "" {
			if rerr := c.store.Set(core.RestoreKey(ts), backup); rerr != nil {
				log.Error("write restore copy", applog.FieldError, rerr)
			}
			res.BackupKey = backupKey
		}
		log.Error("import apply failed",
			applog.FieldError, err,
			applog.FieldBackupKey, backupKey,
			applog.FieldPlayer, env.PlayerData.PlayerName)
		return res
	}

	if backupKey != "" {
		if err := c.store.Remove(backupKey); err != nil {
			log.Warn("remove backup", applog.FieldBackupKey, backupKey, applog.FieldError, err)
		}
	}

	log.Info("data imported", applog.FieldPlayer, env.PlayerData.PlayerName, applog.FieldVersion, env.Version)
	return Result{
		Success:    true,
		Message:    "Data imported successfully",
		PlayerName: env.PlayerData.PlayerName,
		ImportDate: env.ExportDate,
		Warning:    warning,
	}
}

// Validate parses text as an envelope. It requires a non-empty version
// string and a playerData object with a non-empty playerName. An
// unrecognized version or a mismatching integrity hash is reported as a
// warning, not an error.
func Validate(text []byte) (core.ExportEnvelope, string, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(text, &top); err != nil || top == nil {
		return core.ExportEnvelope{}, "", fmt.Errorf("%w: not a JSON object", ErrValidation)
	}

	var version string
	if err := json.Unmarshal(top["version"], &version); err != nil || version == "" {
		return core.ExportEnvelope{}, "", fmt.Errorf("%w: missing version", ErrValidation)
	}

	var player map[string]json.RawMessage
	if err := json.Unmarshal(top["playerData"], &player); err != nil || player == nil {
		return core.ExportEnvelope{}, "", fmt.Errorf("%w: missing playerData", ErrValidation)
	}
	var name string
	if err := json.Unmarshal(player["playerName"], &name); err != nil || strings.TrimSpace(name) == "" {
		return core.ExportEnvelope{}, "", fmt.Errorf("%w: missing playerData.playerName", ErrValidation)
	}

	var env core.ExportEnvelope
	if err := json.Unmarshal(text, &env); err != nil {
		return core.ExportEnvelope{}, "", fmt.Errorf("%w: %v", ErrValidation, err)
	}
	env.PlayerData.Password = ""
	env.PlayerData.Normalize()

	var warnings []string
	if !slices.Contains(core.SupportedVersions, env.Version) {
		warnings = append(warnings, fmt.Sprintf("Import data version %s may not be fully compatible", env.Version))
	}
	if want := env.Metadata.DataIntegrity; want != "" {
		if profile, err := core.MarshalCompact(env.PlayerData); err == nil && IntegrityHash(string(profile)) != want {
			warnings = append(warnings, "Player data does not match its integrity hash")
		}
	}
	return env, strings.Join(warnings, "; "), nil
}

// backup snapshots the current state under a backup key. With an active
// player that is a full JSON export; otherwise it is the raw fiquest_ keys.
// An empty store needs no backup and yields an empty key.
func (c *Codec) backup(ts int64) (key, data string, err error) {
	if _, ok := c.session.Current(); ok {
		data, err = c.ExportAll(core.FormatJSON, false)
		if err != nil {
			return "", "", fmt.Errorf("%w: %v", ErrBackupFailed, err)
		}
	} else {
		snap, err := kvstore.Snapshot(c.store, core.KeyPrefix)
		if err != nil {
			return "", "", fmt.Errorf("%w: %v", ErrBackupFailed, err)
		}
		for k := range snap {
			if core.IsBackupKey(k) || core.IsRestoreKey(k) {
				delete(snap, k)
			}
		}
		if len(snap) == 0 {
			return "", "", nil
		}
		raw, err := core.MarshalIndent(snap)
		if err != nil {
			return "", "", fmt.Errorf("%w: %v", ErrBackupFailed, err)
		}
		data = string(raw)
	}

	key = core.BackupKey(ts)
	if err := c.store.Set(key, data); err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrBackupFailed, err)
	}
	c.logger.Info("backup written", applog.FieldBackupKey, key, applog.FieldBytes, len(data))
	return key, data, nil
}

type previous struct {
	key     string
	value   string
	existed bool
}

// apply writes the envelope's game data keys and adopts its profile. Keys
// the envelope leaves out are not touched. On error every key written here
// is put back and the session is left as it was.
func (c *Codec) apply(env core.ExportEnvelope) error {
	var written []previous

	rollback := func() {
		for i := len(written) - 1; i >= 0; i-- {
			p := written[i]
			var err error
			if p.existed {
				err = c.store.Set(p.key, p.value)
			} else {
				err = c.store.Remove(p.key)
			}
			if err != nil {
				c.logger.Error("rollback failed", applog.FieldKey, p.key, applog.FieldError, err)
			}
		}
	}

	for _, mk := range env.GameData.MirroredKeys() {
		value := *mk.Value
		if core.IsNull(value) {
			continue
		}
		prev, existed, err := c.store.Get(mk.Key)
		if err != nil {
			rollback()
			return fmt.Errorf("read %s: %w", mk.Key, err)
		}
		compact, err := core.MarshalCompact(value)
		if err != nil {
			rollback()
			return fmt.Errorf("encode %s: %w", mk.Key, err)
		}
		if err := c.store.Set(mk.Key, string(compact)); err != nil {
			rollback()
			return fmt.Errorf("write %s: %w", mk.Key, err)
		}
		written = append(written, previous{key: mk.Key, value: prev, existed: existed})
	}

	if err := c.session.Adopt(env.PlayerData); err != nil {
		rollback()
		return err
	}
	return nil
}

// IsDecodeError reports whether r failed because the payload could not be
// de-obfuscated.
func (r Result) IsDecodeError() bool {
	return errors.Is(r.Err, obfuscate.ErrDecodeFailed)
}

// IsValidationError reports whether r failed because the payload was not a
// usable envelope.
func (r Result) IsValidationError() bool {
	return errors.Is(r.Err, ErrValidation)
}

