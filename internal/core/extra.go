package core

import (
	"bytes"
	"encoding/json"
	"maps"
	"slices"
	"strings"
)

var (
	profileFields  = []string{"playerName", "password", "createdDate", "lastPlayedDate", "lastPlayedLocal", "timezone", "gameData"}
	gameDataFields = []string{"scenarios", "activeScenario", "netWorthSetup", "netWorthTracking", "preferences"}
)

// Method-free copies, so encoding/json handles the known fields.
type (
	profileJSON  PlayerProfile
	gameDataJSON GameData
)

func (p *PlayerProfile) UnmarshalJSON(data []byte) error {
	if isNullLiteral(data) {
		return nil
	}
	var known profileJSON
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	extra, err := unknownFields(data, profileFields)
	if err != nil {
		return err
	}
	known.Extra = extra
	*p = PlayerProfile(known)
	return nil
}

func (p PlayerProfile) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(profileJSON(p), p.Extra)
}

func (g *GameData) UnmarshalJSON(data []byte) error {
	if isNullLiteral(data) {
		return nil
	}
	var known gameDataJSON
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	extra, err := unknownFields(data, gameDataFields)
	if err != nil {
		return err
	}
	known.Extra = extra
	*g = GameData(known)
	return nil
}

func (g GameData) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(gameDataJSON(g), g.Extra)
}

// unknownFields returns the members of the object in data whose names do not
// match known. encoding/json matches field names case-insensitively, so the
// comparison does too.
func unknownFields(data []byte, known []string) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	maps.DeleteFunc(all, func(k string, _ json.RawMessage) bool {
		return slices.ContainsFunc(known, func(f string) bool { return strings.EqualFold(f, k) })
	})
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

// marshalWithExtra encodes v, an object, and appends extra's members in key
// order so the output is stable.
func marshalWithExtra(v any, extra map[string]json.RawMessage) ([]byte, error) {
	data, err := MarshalCompact(v)
	if err != nil || len(extra) == 0 {
		return data, err
	}

	var buf bytes.Buffer
	buf.Write(data[:len(data)-1])
	for _, k := range slices.Sorted(maps.Keys(extra)) {
		value := extra[k]
		if len(bytes.TrimSpace(value)) == 0 {
			continue
		}
		name, err := MarshalCompact(k)
		if err != nil {
			return nil, err
		}
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func cloneExtra(extra map[string]json.RawMessage) map[string]json.RawMessage {
	if extra == nil {
		return nil
	}
	c := make(map[string]json.RawMessage, len(extra))
	for k, v := range extra {
		c[k] = cloneRaw(v)
	}
	return c
}

func isNullLiteral(data []byte) bool {
	return string(bytes.TrimSpace(data)) == "null"
}
