package core

import (
	"strconv"
	"strings"
)

// Store keys. Everything the persistence layer writes starts with KeyPrefix.
const (
	KeyPrefix          = "fiquest_"
	KeyCurrentPlayer   = "fiquest_current_player"
	KeyScenarios       = "fiquest_scenarios"
	KeyActiveScenario  = "fiquest_active_scenario"
	KeyNetWorthSetup   = "fiquest_net_worth_setup"
	KeyNetWorthHistory = "fiquest_net_worth_history"
	KeyCurrentNetWorth = "fiquest_current_net_worth"

	playerKeyPrefix  = "fiquest_player_"
	backupKeyPrefix  = "fiquest_backup_"
	restoreKeyPrefix = "fiquest_restore_"
)

// PlayerKey is the store key of a player's profile.
func PlayerKey(playerName string) string {
	return playerKeyPrefix + strings.ToLower(playerName)
}

// BackupKey is the key of a pre-import snapshot taken at unix millisecond ts.
func BackupKey(ts int64) string {
	return backupKeyPrefix + strconv.FormatInt(ts, 10)
}

// RestoreKey pairs with BackupKey and is written when an import fails mid-apply.
func RestoreKey(ts int64) string {
	return restoreKeyPrefix + strconv.FormatInt(ts, 10)
}

// IsBackupKey reports whether key holds a pre-import snapshot.
func IsBackupKey(key string) bool {
	return strings.HasPrefix(key, backupKeyPrefix)
}

// SanitizeName lower-cases name and drops every character outside [a-z0-9].
func SanitizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsRestoreKey reports whether key holds the copy left by a failed import.
func IsRestoreKey(key string) bool {
	return strings.HasPrefix(key, restoreKeyPrefix)
}
