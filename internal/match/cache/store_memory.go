// Package cache provides the match-cache implementations: an in-process TTL
// store for tests and cache-less deployments, and a Redis-backed store for
// deployments that share cells across instances.
package cache

import (
	"context"
	"sync"
	"time"

	"foodmatch/internal/match"
	"foodmatch/pkg/platform/sentinel"
)

// MemoryStore is an in-process match.Cache with per-entry expiry. Expired
// entries are pruned lazily on read and on Size, so an observer never sees a
// value past its TTL.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	recipient match.Recipient
	expiresAt time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock overrides the time source. Tests use this to cross TTL
// boundaries without sleeping.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// NewMemory constructs an empty in-process store.
func NewMemory(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the cached recipient for key, or sentinel.ErrNotFound when the
// key is absent or expired. Expired entries are deleted on the way out.
func (s *MemoryStore) Get(_ context.Context, key string) (*match.Recipient, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if !s.now().Before(entry.expiresAt) {
		s.mu.Lock()
		// Re-check under the write lock; a concurrent Put may have renewed it.
		if current, ok := s.entries[key]; ok && !s.now().Before(current.expiresAt) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, sentinel.ErrNotFound
	}

	r := entry.recipient
	return &r, nil
}

// Put inserts or overwrites the entry for key, resetting its expiry clock.
func (s *MemoryStore) Put(_ context.Context, key string, r match.Recipient, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{recipient: r, expiresAt: s.now().Add(ttl)}
	return nil
}

// Invalidate removes one entry; removing a missing key is a no-op.
func (s *MemoryStore) Invalidate(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Clear removes all entries.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]memoryEntry)
	return nil
}

// Size counts non-expired entries, pruning expired ones so the count is
// consistent with what Get would return.
func (s *MemoryStore) Size(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for key, entry := range s.entries {
		if !now.Before(entry.expiresAt) {
			delete(s.entries, key)
		}
	}
	return len(s.entries), nil
}

// Healthy always reports true; there is no backend to lose.
func (s *MemoryStore) Healthy(context.Context) bool {
	return true
}
