// Package cache provides an in-memory TTL cache with fallback-value
// semantics. Entries expire lazily: staleness is detected on read, there is
// no background sweep.
package cache

import (
	"sync"
	"time"
)

// DefaultTTL applies when a caller passes a non-positive TTL.
const DefaultTTL = 5 * time.Minute

type entry struct {
	value      any
	insertedAt time.Time
	ttl        time.Duration
}

func (e entry) expired(now time.Time) bool {
	return now.After(e.insertedAt.Add(e.ttl))
}

// Store is a TTL cache keyed by opaque strings. A miss — absent key or
// expired entry — returns the caller's fallback without error.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	nowFn   func() time.Time
}

// New constructs an empty cache store.
func New() *Store {
	return &Store{
		entries: make(map[string]entry),
		nowFn:   func() time.Time { return time.Now().UTC() },
	}
}

// Get returns the cached value for key, or fallback on a miss. An expired
// entry counts as a miss and is dropped.
func (s *Store) Get(key string, fallback any) any {
	v, ok := s.Lookup(key)
	if !ok {
		return fallback
	}
	return v
}

// Lookup returns the cached value and whether it was present and fresh.
func (s *Store) Lookup(key string) (any, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if e.expired(s.nowFn()) {
		s.mu.Lock()
		// Re-check under the write lock; another writer may have refreshed it.
		if cur, ok := s.entries[key]; ok && cur.expired(s.nowFn()) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

// Set stores value under key with the given TTL. It always succeeds in
// memory; durability is the persistence gateway's job.
func (s *Store) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s.mu.Lock()
	s.entries[key] = entry{value: value, insertedAt: s.nowFn(), ttl: ttl}
	s.mu.Unlock()
}

// Invalidate drops the entry for key, if any.
func (s *Store) Invalidate(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// Len returns the number of entries currently held, including any that have
// expired but not yet been read.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// SetNowFunc overrides the clock, for tests.
func (s *Store) SetNowFunc(fn func() time.Time) {
	s.mu.Lock()
	s.nowFn = fn
	s.mu.Unlock()
}
