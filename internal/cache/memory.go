// Jerrygram Recommend - Semantic Post Recommendation Service
// Copyright 2026 Wonhong Chang (wonhongChang)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wonhongChang/jerrygram-recommend

package cache

import (
	"context"
	"encoding/base64"
	"sync"
	"time"
)

// memoryEntry holds a cached vector with its expiry deadline.
type memoryEntry struct {
	vector    []float32
	expiresAt time.Time
}

// Memory is the in-process cache tier. Keys are the base64 encoding of
// the input text so arbitrary captions never collide with internal
// bookkeeping. Expired entries are dropped lazily on Get and in bulk
// by Sweep, which the janitor service calls periodically.
type Memory struct {
	mu         sync.RWMutex
	entries    map[string]memoryEntry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	hits      int64
	misses    int64
	evictions int64
	lastSweep time.Time
}

// MemoryOption configures a Memory store.
type MemoryOption func(*Memory)

// WithClock replaces the time source. Tests use this to control expiry.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

// WithMaxEntries bounds the store. When full, Set evicts the entry
// closest to expiry. Zero means unbounded.
func WithMaxEntries(n int) MemoryOption {
	return func(m *Memory) { m.maxEntries = n }
}

// NewMemory creates an in-process cache tier with the given TTL.
// It does not start any goroutines; pair it with a Janitor for
// periodic sweeping.
func NewMemory(ttl time.Duration, opts ...MemoryOption) *Memory {
	m := &Memory{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.lastSweep = m.now()
	return m
}

// memoryKey derives the map key for an input text.
func memoryKey(text string) string {
	return base64.StdEncoding.EncodeToString([]byte(text))
}

// Get returns the cached vector for text. Expired entries are removed
// and counted as misses.
func (m *Memory) Get(_ context.Context, text string) ([]float32, bool, error) {
	key := memoryKey(text)

	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		m.mu.Lock()
		m.misses++
		m.mu.Unlock()
		return nil, false, nil
	}

	if m.now().After(entry.expiresAt) {
		m.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have
		// refreshed the entry.
		if cur, still := m.entries[key]; still && m.now().After(cur.expiresAt) {
			delete(m.entries, key)
			m.evictions++
		}
		m.misses++
		m.mu.Unlock()
		return nil, false, nil
	}

	m.mu.Lock()
	m.hits++
	m.mu.Unlock()

	return entry.vector, true, nil
}

// Set stores the vector for text with the configured TTL.
func (m *Memory) Set(_ context.Context, text string, vector []float32) error {
	key := memoryKey(text)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.maxEntries > 0 && len(m.entries) >= m.maxEntries {
		if _, exists := m.entries[key]; !exists {
			m.evictOldestLocked()
		}
	}

	m.entries[key] = memoryEntry{
		vector:    vector,
		expiresAt: m.now().Add(m.ttl),
	}
	return nil
}

// evictOldestLocked removes the entry closest to expiry. Caller holds
// the write lock.
func (m *Memory) evictOldestLocked() {
	var oldestKey string
	var oldestExpiry time.Time
	first := true

	for key, entry := range m.entries {
		if first || entry.expiresAt.Before(oldestExpiry) {
			oldestKey = key
			oldestExpiry = entry.expiresAt
			first = false
		}
	}

	if !first {
		delete(m.entries, oldestKey)
		m.evictions++
	}
}

// Clear removes all entries and returns how many were removed.
func (m *Memory) Clear(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.entries)
	m.entries = make(map[string]memoryEntry)
	return n, nil
}

// Sweep removes all expired entries and returns how many were removed.
func (m *Memory) Sweep() int {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, entry := range m.entries {
		if now.After(entry.expiresAt) {
			delete(m.entries, key)
			removed++
		}
	}
	m.evictions += int64(removed)
	m.lastSweep = now
	return removed
}

// Stats returns a snapshot of the tier's counters.
func (m *Memory) Stats(_ context.Context) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var bytes int64
	for key, entry := range m.entries {
		bytes += int64(len(key)) + int64(len(entry.vector))*4
	}

	return Stats{
		Tier:        m.Name(),
		Entries:     int64(len(m.entries)),
		ApproxBytes: bytes,
		Hits:        m.hits,
		Misses:      m.misses,
		Evictions:   m.evictions,
		LastSweep:   m.lastSweep,
	}, nil
}

// Name identifies the tier.
func (m *Memory) Name() string {
	return "memory"
}
