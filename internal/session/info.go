package session

import (
	"encoding/json"
	"math"

	"fiquest/internal/core"
)

type (
	// Info summarizes the stored data of the active player.
	Info struct {
		PlayerName string   `json:"playerName"`
		LastPlayed string   `json:"lastPlayed"`
		DataSize   DataSize `json:"dataSize"`
		Counts     Counts   `json:"counts"`
		HasSetup   bool     `json:"hasSetup"`
	}

	// DataSize is in kilobytes, rounded to two decimals.
	DataSize struct {
		Player float64 `json:"player"`
		Game   float64 `json:"game"`
		Total  float64 `json:"total"`
	}

	Counts struct {
		Scenarios       int `json:"scenarios"`
		NetWorthEntries int `json:"netWorthEntries"`
	}
)

// HasCompletedInitialSetup reports whether the player has saved a net worth
// setup, either in the profile or in the mirrored store key.
func (m *Manager) HasCompletedInitialSetup() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hasSetupLocked()
}

func (m *Manager) hasSetupLocked() bool {
	if m.current == nil {
		return false
	}
	if !core.IsNull(m.current.GameData.NetWorthSetup) {
		return true
	}
	v, ok, err := m.store.Get(core.KeyNetWorthSetup)
	return err == nil && ok && !core.IsNull(json.RawMessage(v))
}

// DataManagementInfo reports approximate storage use and record counts.
func (m *Manager) DataManagementInfo() (Info, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return Info{}, false
	}

	scenarios := m.readScenariosLocked()
	entries := m.current.GameData.NetWorthTracking

	player, _ := core.MarshalCompact(m.current)
	game, _ := core.MarshalCompact(struct {
		Scenarios []json.RawMessage    `json:"scenarios"`
		NetWorth  []core.NetWorthEntry `json:"netWorth"`
	}{scenarios, entries})

	return Info{
		PlayerName: m.current.PlayerName,
		LastPlayed: m.current.LastPlayedDate,
		DataSize: DataSize{
			Player: kilobytes(len(player)),
			Game:   kilobytes(len(game)),
			Total:  kilobytes(len(player) + len(game)),
		},
		Counts: Counts{
			Scenarios:       len(scenarios),
			NetWorthEntries: len(entries),
		},
		HasSetup: m.hasSetupLocked(),
	}, true
}

func kilobytes(n int) float64 {
	return math.Round(float64(n)/1024*100) / 100
}
