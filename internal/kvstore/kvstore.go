// Package kvstore defines the string-keyed store the session persists into.
//
// The store mirrors the browser's localStorage contract: synchronous
// get/set/remove/enumerate over string values with a per-origin capacity.
package kvstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrQuotaExceeded is returned by Set when the write would push the store
	// past its capacity. Nothing is written.
	ErrQuotaExceeded = errors.New("store quota exceeded")
	// ErrAccess wraps any other failure of the underlying medium.
	ErrAccess = errors.New("store access failed")
)

// Store is the key/value primitive.
type Store interface {
	// Get returns the value for key and whether it exists.
	Get(key string) (string, bool, error)
	// Set stores value under key, replacing any previous value.
	Set(key, value string) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(key string) error
	// Keys returns every key in ascending order.
	Keys() ([]string, error)
}

// EntrySize is what one key/value pair counts against the quota.
func EntrySize(key, value string) int64 {
	return int64(len(key) + len(value))
}

// CheckQuota reports ErrQuotaExceeded when replacing a pair of size oldSize
// with one of size newSize would take usage above quota. A quota of zero or
// less means unlimited.
func CheckQuota(usage, oldSize, newSize, quota int64) error {
	if quota <= 0 {
		return nil
	}
	if usage-oldSize+newSize > quota {
		return fmt.Errorf("%w: need %d bytes, quota %d", ErrQuotaExceeded, usage-oldSize+newSize, quota)
	}
	return nil
}

// KeysWithPrefix returns the keys of s starting with prefix, sorted.
func KeysWithPrefix(s Store, prefix string) ([]string, error) {
	keys, err := s.Keys()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

// GetRaw reads key and returns its value as JSON. Missing keys and values
// that are not valid JSON both yield nil; the second case is also reported
// through the returned error so callers can log it.
func GetRaw(s Store, key string) (json.RawMessage, error) {
	v, ok, err := s.Get(key)
	if err != nil {
		return nil, err
	}
	if !ok || v == "" {
		return nil, nil
	}
	if !json.Valid([]byte(v)) {
		return nil, fmt.Errorf("value of %s is not valid JSON", key)
	}
	return json.RawMessage(v), nil
}

// Snapshot copies every key with prefix into a map.
func Snapshot(s Store, prefix string) (map[string]string, error) {
	keys, err := KeysWithPrefix(s, prefix)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		v, ok, err := s.Get(k)
		if err != nil {
			return nil, err
		}
		if ok {
			out[k] = v
		}
	}
	return out, nil
}
