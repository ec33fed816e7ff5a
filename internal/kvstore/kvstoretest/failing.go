// Package kvstoretest provides store doubles for tests.
package kvstoretest

import (
	"sync"

	"fiquest/internal/kvstore"
)

// FailingStore wraps a store and fails writes to chosen keys.
type FailingStore struct {
	kvstore.Store

	mu        sync.Mutex
	failSet   map[string]error
	failAfter map[string]int
	sets      map[string]int
}

func Wrap(s kvstore.Store) *FailingStore {
	return &FailingStore{
		Store:     s,
		failSet:   map[string]error{},
		failAfter: map[string]int{},
		sets:      map[string]int{},
	}
}

// FailSet makes every Set of key return err.
func (f *FailingStore) FailSet(key string, err error) *FailingStore {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failSet[key] = err
	return f
}

// FailSetAfter lets n writes of key succeed before failing with err.
func (f *FailingStore) FailSetAfter(key string, n int, err error) *FailingStore {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failSet[key] = err
	f.failAfter[key] = n
	return f
}

// Heal removes every configured failure.
func (f *FailingStore) Heal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failSet = map[string]error{}
	f.failAfter = map[string]int{}
}

func (f *FailingStore) Set(key, value string) error {
	f.mu.Lock()
	err, fail := f.failSet[key]
	if fail && f.sets[key] < f.failAfter[key] {
		fail = false
	}
	f.sets[key]++
	f.mu.Unlock()

	if fail {
		return err
	}
	return f.Store.Set(key, value)
}
