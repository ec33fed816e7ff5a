package memory

import (
	"sort"
	"sync"

	"fiquest/internal/kvstore"
)

// Store keeps values in a map. Quota is the capacity in bytes, counted as
// the sum of key and value lengths; zero means unlimited.
type Store struct {
	mu    sync.Mutex
	items map[string]string
	usage int64
	quota int64
}

var _ kvstore.Store = (*Store)(nil)

func New(quota int64) *Store {
	return &Store{items: map[string]string{}, quota: quota}
}

// NewSeeded returns a store pre-filled with items. The seed ignores the quota.
func NewSeeded(quota int64, items map[string]string) *Store {
	s := New(quota)
	for k, v := range items {
		s.items[k] = v
		s.usage += kvstore.EntrySize(k, v)
	}
	return s
}

func (s *Store) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[key]
	return v, ok, nil
}

func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var oldSize int64
	if old, ok := s.items[key]; ok {
		oldSize = kvstore.EntrySize(key, old)
	}
	newSize := kvstore.EntrySize(key, value)
	if err := kvstore.CheckQuota(s.usage, oldSize, newSize, s.quota); err != nil {
		return err
	}
	s.items[key] = value
	s.usage += newSize - oldSize
	return nil
}

func (s *Store) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.items[key]; ok {
		s.usage -= kvstore.EntrySize(key, old)
		delete(s.items, key)
	}
	return nil
}

func (s *Store) Keys() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.items))
	for k := range s.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Usage returns the bytes currently counted against the quota.
func (s *Store) Usage() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usage
}
