// Package core holds the persisted player model and the export envelope.
package core

import (
	"encoding/json"
	"errors"
	"strings"
)

const (
	DefaultCurrency   = "USD"
	DefaultDateFormat = "MM/DD/YYYY"
)

var ErrEmptyPlayerName = errors.New("empty player name")

type (
	// PlayerProfile is the identity and game state of one user.
	PlayerProfile struct {
		PlayerName      string   `json:"playerName"`
		Password        string   `json:"password,omitempty"`
		CreatedDate     string   `json:"createdDate,omitempty"`
		LastPlayedDate  string   `json:"lastPlayedDate,omitempty"`
		LastPlayedLocal string   `json:"lastPlayedLocal,omitempty"`
		Timezone        string   `json:"timezone,omitempty"`
		GameData        GameData `json:"gameData"`

		// Extra holds fields written by other clients. They are kept as-is
		// and written back after the known ones.
		Extra map[string]json.RawMessage `json:"-"`
	}

	// GameData is what the planners produce plus the net worth ledger.
	// Scenarios, ActiveScenario and NetWorthSetup are opaque to this layer.
	GameData struct {
		Scenarios        []json.RawMessage `json:"scenarios"`
		ActiveScenario   json.RawMessage   `json:"activeScenario"`
		NetWorthSetup    json.RawMessage   `json:"netWorthSetup"`
		NetWorthTracking []NetWorthEntry   `json:"netWorthTracking"`
		Preferences      Preferences       `json:"preferences"`

		Extra map[string]json.RawMessage `json:"-"`
	}

	Preferences struct {
		Currency   string `json:"currency"`
		DateFormat string `json:"dateFormat"`
	}
)

// DefaultPreferences returns {USD, MM/DD/YYYY}.
func DefaultPreferences() Preferences {
	return Preferences{Currency: DefaultCurrency, DateFormat: DefaultDateFormat}
}

// NewPlayerProfile returns an empty profile for name with default preferences.
func NewPlayerProfile(name string) (PlayerProfile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return PlayerProfile{}, ErrEmptyPlayerName
	}
	p := PlayerProfile{PlayerName: name}
	p.Normalize()
	return p, nil
}

// Key returns the lower-cased name used as the profile's store key suffix.
func (p PlayerProfile) Key() string {
	return strings.ToLower(p.PlayerName)
}

// Normalize fills the defaults a stored profile may lack: an empty scenario
// list, an empty ledger, and default preferences.
func (p *PlayerProfile) Normalize() {
	if p.GameData.Scenarios == nil {
		p.GameData.Scenarios = []json.RawMessage{}
	}
	if p.GameData.NetWorthTracking == nil {
		p.GameData.NetWorthTracking = []NetWorthEntry{}
	}
	if p.GameData.Preferences == (Preferences{}) {
		p.GameData.Preferences = DefaultPreferences()
	}
}

// WithoutPassword returns a copy safe to put in an export.
func (p PlayerProfile) WithoutPassword() PlayerProfile {
	c := p.Clone()
	c.Password = ""
	return c
}

// Clone returns a deep copy of p.
func (p PlayerProfile) Clone() PlayerProfile {
	c := p
	c.GameData = p.GameData.Clone()
	c.Extra = cloneExtra(p.Extra)
	return c
}

// Clone returns a deep copy of g.
func (g GameData) Clone() GameData {
	c := g
	if g.Scenarios != nil {
		c.Scenarios = make([]json.RawMessage, len(g.Scenarios))
		for i, s := range g.Scenarios {
			c.Scenarios[i] = cloneRaw(s)
		}
	}
	c.ActiveScenario = cloneRaw(g.ActiveScenario)
	c.NetWorthSetup = cloneRaw(g.NetWorthSetup)
	if g.NetWorthTracking != nil {
		c.NetWorthTracking = make([]NetWorthEntry, len(g.NetWorthTracking))
		for i, e := range g.NetWorthTracking {
			c.NetWorthTracking[i] = e.Clone()
		}
	}
	c.Extra = cloneExtra(g.Extra)
	return c
}

// ParsePlayerProfile decodes a stored profile and normalizes it.
func ParsePlayerProfile(data string) (PlayerProfile, error) {
	var p PlayerProfile
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return PlayerProfile{}, err
	}
	if strings.TrimSpace(p.PlayerName) == "" {
		return PlayerProfile{}, ErrEmptyPlayerName
	}
	p.Normalize()
	return p, nil
}
