// Package cache is the session-scoped key-value store used as fallback when
// providers rate-limit. Keys are stock symbols for price history and
// "<symbol>-news" for news.
package cache

import "sync"

// Store persists JSON payloads by key for the current session.
type Store interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, payload []byte) error
	Close() error
}

// NewsKey returns the cache key for a symbol's news payload.
func NewsKey(symbol string) string { return symbol + "-news" }

// MemoryStore is the in-process implementation used when no database is
// configured. Naturally session-scoped.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]byte)}
}

func (s *MemoryStore) Get(key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	payload, ok := s.entries[key]
	return payload, ok, nil
}

func (s *MemoryStore) Set(key string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(payload))
	copy(cp, payload)
	s.entries[key] = cp
	return nil
}

func (s *MemoryStore) Close() error { return nil }
