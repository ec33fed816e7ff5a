package core

import (
	"bytes"
	"encoding/json"
)

// MarshalCompact encodes v without HTML escaping and without the trailing
// newline json.Encoder adds.
func MarshalCompact(v any) ([]byte, error) {
	return marshal(v, "")
}

// MarshalIndent encodes v with a two-space indent and no HTML escaping.
func MarshalIndent(v any) ([]byte, error) {
	return marshal(v, "  ")
}

func marshal(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// IsNull reports whether raw is absent or the JSON literal null.
func IsNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null"
}

// cloneRaw copies raw so the clone does not alias the source buffer.
func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	return append(json.RawMessage(nil), raw...)
}
