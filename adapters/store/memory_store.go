package store

import (
	"context"
	"sync"
	"time"

	"github.com/openclave/walletauth/ports"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryStore is the in-process fallback tier. Each write schedules its own
// expiry, so the map cannot grow unbounded during a long degradation. It is
// process-local and never relied on for cross-instance correctness.
type MemoryStore struct {
	entries map[string]memoryEntry
	mu      sync.RWMutex
}

// NewMemoryStore creates an in-process key-value store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

var _ ports.KeyValueStore = (*MemoryStore)(nil)

// Set stores a key with a TTL and schedules its removal.
func (s *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	expiresAt := time.Now().Add(ttl)

	s.mu.Lock()
	s.entries[key] = memoryEntry{value: value, expiresAt: expiresAt}
	s.mu.Unlock()

	go func() {
		time.Sleep(ttl)

		s.mu.Lock()
		defer s.mu.Unlock()

		// Only delete if a later write hasn't extended the entry.
		if e, ok := s.entries[key]; ok && !e.expiresAt.After(expiresAt) {
			delete(s.entries, key)
		}
	}()

	return nil
}

// Get retrieves a value by key. Expired or absent keys return ("", nil).
func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		return "", nil
	}
	return e.value, nil
}

// Del removes a key and reports whether this call removed a live entry.
func (s *MemoryStore) Del(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	delete(s.entries, key)
	return ok && time.Now().Before(e.expiresAt), nil
}

// Len reports the number of live entries, used by tests and health checks.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	now := time.Now()
	for _, e := range s.entries {
		if now.Before(e.expiresAt) {
			n++
		}
	}
	return n
}
