// Package obfuscate implements the reversible transform applied to
// "encrypted" save files. It deters casual reading and nothing more: the key
// is fixed and public, so it must not be treated as encryption.
package obfuscate

import (
	"encoding/base64"
	"errors"
	"fmt"
	"unicode/utf8"
)

// Key is XORed over the inner encoding. Changing it breaks every existing
// encrypted save file.
const Key = "FIQuest2025"

// ErrDecodeFailed means the input is not something Obfuscate produced.
var ErrDecodeFailed = errors.New("decode failed: data is corrupt or not encrypted")

// Obfuscate returns base64(xor(base64(s), Key)).
func Obfuscate(s string) string {
	inner := base64.StdEncoding.EncodeToString([]byte(s))
	return base64.StdEncoding.EncodeToString(xor([]byte(inner)))
}

// Deobfuscate reverses Obfuscate. Input that fails either decoding stage
// yields ErrDecodeFailed. Older files stored one byte per character, so
// bytes that are not valid UTF-8 are read as Latin-1.
func Deobfuscate(s string) (string, error) {
	outer, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	plain, err := base64.StdEncoding.DecodeString(string(xor(outer)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	if !utf8.Valid(plain) {
		return latin1(plain), nil
	}
	return string(plain), nil
}

func latin1(b []byte) string {
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}
	return string(runes)
}

func xor(b []byte) []byte {
	out := make([]byte, len(b))
	for i := range b {
		out[i] = b[i] ^ Key[i%len(Key)]
	}
	return out
}
