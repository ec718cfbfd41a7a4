// Package memory contains an in-memory ttl storage for cached responses.
package memory

import (
	"sync"
	"time"
)

type item struct {
	content   []byte
	expiresAt time.Time
}

// Storage ...
type Storage struct {
	mu    sync.RWMutex
	items map[string]item
}

// NewStorage creates new instance of Storage.
func NewStorage() *Storage {
	return &Storage{
		items: make(map[string]item),
	}
}

// Get returns the content stored under key, nil when absent or expired.
func (s *Storage) Get(key string) []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.items[key]
	if !ok || time.Now().After(v.expiresAt) {
		return nil
	}

	return v.content
}

// Set stores content under key for the given duration.
func (s *Storage) Set(key string, content []byte, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[key] = item{
		content:   content,
		expiresAt: time.Now().Add(duration),
	}
}
