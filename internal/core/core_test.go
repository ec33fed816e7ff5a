package core

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestSanitizeName(t *testing.T) {
	cases := map[string]string{
		"Ada Lovelace": "adalovelace",
		"R2-D2":        "r2d2",
		"José":         "jos",
		"___":          "",
		"MIXED case 9": "mixedcase9",
	}
	for in, want := range cases {
		if got := SanitizeName(in); got != want {
			t.Errorf("SanitizeName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestKeys(t *testing.T) {
	if got := PlayerKey("Ada"); got != "fiquest_player_ada" {
		t.Errorf("PlayerKey = %q", got)
	}
	if got := BackupKey(1700000000000); got != "fiquest_backup_1700000000000" {
		t.Errorf("BackupKey = %q", got)
	}
	if got := RestoreKey(42); got != "fiquest_restore_42" {
		t.Errorf("RestoreKey = %q", got)
	}
	if !IsBackupKey(BackupKey(1)) || IsBackupKey(PlayerKey("x")) {
		t.Error("IsBackupKey misclassified")
	}
}

func TestNewPlayerProfileDefaults(t *testing.T) {
	p, err := NewPlayerProfile("  Ada ")
	if err != nil {
		t.Fatalf("new profile: %v", err)
	}
	if p.PlayerName != "Ada" || p.Key() != "ada" {
		t.Fatalf("unexpected name %q key %q", p.PlayerName, p.Key())
	}
	if p.GameData.Preferences != DefaultPreferences() {
		t.Errorf("preferences = %+v", p.GameData.Preferences)
	}
	if p.GameData.NetWorthTracking == nil || len(p.GameData.NetWorthTracking) != 0 {
		t.Errorf("expected empty ledger, got %v", p.GameData.NetWorthTracking)
	}

	if _, err := NewPlayerProfile(" "); err != ErrEmptyPlayerName {
		t.Errorf("expected ErrEmptyPlayerName, got %v", err)
	}
}

func TestParsePlayerProfileWithoutLedger(t *testing.T) {
	p, err := ParsePlayerProfile(`{"playerName":"Ada","gameData":{"scenarios":[{"name":"lean"}]}}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(p.GameData.NetWorthTracking) != 0 || p.GameData.NetWorthTracking == nil {
		t.Fatalf("missing ledger should normalize to empty, got %v", p.GameData.NetWorthTracking)
	}
	if len(p.GameData.Scenarios) != 1 {
		t.Fatalf("scenarios = %v", p.GameData.Scenarios)
	}

	if _, err := ParsePlayerProfile(`{"gameData":{}}`); err != ErrEmptyPlayerName {
		t.Fatalf("expected ErrEmptyPlayerName, got %v", err)
	}
	if _, err := ParsePlayerProfile(`not json`); err == nil {
		t.Fatal("expected json error")
	}
}

func TestCloneIsDeep(t *testing.T) {
	p, _ := NewPlayerProfile("Ada")
	p.GameData.Scenarios = []json.RawMessage{json.RawMessage(`{"name":"a"}`)}
	p.GameData.NetWorthTracking = []NetWorthEntry{{
		ID: "nw_1",
		Accounts: Accounts{
			Assets: map[string]AccountValue{"cash": {Actual: 1}},
		},
	}}

	c := p.Clone()
	c.GameData.Scenarios[0][2] = 'X'
	c.GameData.NetWorthTracking[0].Accounts.Assets["cash"] = AccountValue{Actual: 99}
	c.GameData.NetWorthTracking[0].ID = "changed"

	if string(p.GameData.Scenarios[0]) != `{"name":"a"}` {
		t.Errorf("scenario aliased: %s", p.GameData.Scenarios[0])
	}
	if p.GameData.NetWorthTracking[0].Accounts.Assets["cash"].Actual != 1 {
		t.Error("accounts map aliased")
	}
	if p.GameData.NetWorthTracking[0].ID != "nw_1" {
		t.Error("entries slice aliased")
	}
}

func TestWithoutPassword(t *testing.T) {
	p, _ := NewPlayerProfile("Ada")
	p.Password = "hunter2"

	out, err := MarshalCompact(p.WithoutPassword())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(out), "password") {
		t.Fatalf("password leaked: %s", out)
	}
	if p.Password != "hunter2" {
		t.Fatal("original profile modified")
	}
}

func TestProfileKeepsUnknownFields(t *testing.T) {
	in := `{"playerName":"Ada","avatar":{"icon":"<owl>"},"level":7,` +
		`"gameData":{"scenarios":[],"achievements":["first-save"],"preferences":{"currency":"EUR","dateFormat":"DD/MM/YYYY"}}}`
	p, err := ParsePlayerProfile(in)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := string(p.Extra["level"]); got != "7" {
		t.Fatalf("level = %q", got)
	}
	if _, ok := p.GameData.Extra["achievements"]; !ok {
		t.Fatalf("gameData extra = %v", p.GameData.Extra)
	}
	if _, ok := p.Extra["gameData"]; ok {
		t.Fatal("known fields must not be kept twice")
	}

	out, err := MarshalCompact(p.WithoutPassword())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, want := range []string{`"avatar":{"icon":"<owl>"}`, `"level":7`, `"achievements":["first-save"]`, `"currency":"EUR"`} {
		if !strings.Contains(string(out), want) {
			t.Errorf("%s missing from %s", want, out)
		}
	}

	again, err := ParsePlayerProfile(string(out))
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	out2, err := MarshalCompact(again)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != string(out2) {
		t.Fatalf("encoding is not stable:\n%s\n%s", out, out2)
	}
}

func TestProfileWithoutUnknownFieldsEncodesAsBefore(t *testing.T) {
	p, _ := NewPlayerProfile("Ada")
	out, err := MarshalCompact(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"playerName":"Ada","gameData":{"scenarios":[],"activeScenario":null,"netWorthSetup":null,` +
		`"netWorthTracking":[],"preferences":{"currency":"USD","dateFormat":"MM/DD/YYYY"}}}`
	if string(out) != want {
		t.Fatalf("got  %s\nwant %s", out, want)
	}
}

func TestCloneCopiesUnknownFields(t *testing.T) {
	p, err := ParsePlayerProfile(`{"playerName":"Ada","level":7,"gameData":{"badge":"x"}}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	c := p.Clone()
	c.Extra["level"][0] = '9'
	c.GameData.Extra["badge"] = json.RawMessage(`"y"`)

	if string(p.Extra["level"]) != "7" {
		t.Errorf("profile extra aliased: %s", p.Extra["level"])
	}
	if string(p.GameData.Extra["badge"]) != `"x"` {
		t.Errorf("game data extra aliased: %s", p.GameData.Extra["badge"])
	}
}

func TestMarshalDoesNotEscapeHTML(t *testing.T) {
	out, err := MarshalCompact(map[string]string{"notes": "a<b & c>d"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"notes":"a<b & c>d"}` {
		t.Fatalf("got %s", out)
	}

	indented, err := MarshalIndent(map[string]int{"a": 1})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(indented) != "{\n  \"a\": 1\n}" {
		t.Fatalf("got %q", indented)
	}
}

func TestIsNull(t *testing.T) {
	if !IsNull(nil) || !IsNull(json.RawMessage("null")) || !IsNull(json.RawMessage(" null ")) {
		t.Error("expected null")
	}
	if IsNull(json.RawMessage("[]")) || IsNull(json.RawMessage("0")) {
		t.Error("expected non-null")
	}
}

func TestAccountVariance(t *testing.T) {
	if v := (AccountValue{Actual: 100, Projected: 90}).Variance(); v != 10 {
		t.Fatalf("Variance = %v", v)
	}
}

func TestMirroredKeysCoverEnvelope(t *testing.T) {
	var g EnvelopeGameData
	keys := g.MirroredKeys()
	if len(keys) != 5 {
		t.Fatalf("expected 5 mirrored keys, got %d", len(keys))
	}
	*keys[0].Value = json.RawMessage(`[]`)
	if string(g.Scenarios) != `[]` || keys[0].Key != KeyScenarios {
		t.Fatal("mirrored key does not point into the envelope")
	}
}
