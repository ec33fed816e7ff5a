package core

import "encoding/json"

const (
	// EnvelopeVersion is the format written by this exporter.
	EnvelopeVersion = "1.0.0"
	ExportedBy      = "FIQuest Web Application"
	TriggerLogout   = "logout"
)

// SupportedVersions lists envelope versions imported without a warning.
var SupportedVersions = []string{EnvelopeVersion}

type (
	// ExportEnvelope is the portable save-file format.
	ExportEnvelope struct {
		Version        string           `json:"version"`
		ExportDate     string           `json:"exportDate"`
		ExportTimezone string           `json:"exportTimezone"`
		PlayerData     PlayerProfile    `json:"playerData"`
		GameData       EnvelopeGameData `json:"gameData"`
		Metadata       ExportMetadata   `json:"metadata"`
	}

	// EnvelopeGameData mirrors the store keys of the active session.
	// A nil field was absent from the store at export time.
	EnvelopeGameData struct {
		Scenarios       json.RawMessage `json:"scenarios"`
		ActiveScenario  json.RawMessage `json:"activeScenario"`
		NetWorthSetup   json.RawMessage `json:"netWorthSetup"`
		NetWorthHistory json.RawMessage `json:"netWorthHistory"`
		CurrentNetWorth json.RawMessage `json:"currentNetWorth"`
	}

	ExportMetadata struct {
		ExportedBy     string `json:"exportedBy"`
		DataIntegrity  string `json:"dataIntegrity,omitempty"`
		PlayerName     string `json:"playerName"`
		LastPlayedDate string `json:"lastPlayedDate"`
		ExportTrigger  string `json:"exportTrigger,omitempty"`
	}
)

// MirroredKeys pairs each envelope game-data field with its store key.
func (g *EnvelopeGameData) MirroredKeys() []MirroredKey {
	return []MirroredKey{
		{Key: KeyScenarios, Value: &g.Scenarios},
		{Key: KeyActiveScenario, Value: &g.ActiveScenario},
		{Key: KeyNetWorthSetup, Value: &g.NetWorthSetup},
		{Key: KeyNetWorthHistory, Value: &g.NetWorthHistory},
		{Key: KeyCurrentNetWorth, Value: &g.CurrentNetWorth},
	}
}

// MirroredKey is a store key and the envelope field it maps to.
type MirroredKey struct {
	Key   string
	Value *json.RawMessage
}
