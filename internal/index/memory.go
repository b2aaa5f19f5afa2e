package index

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
)

// DefaultTTL is used when Set is called without a positive ttl.
const DefaultTTL = 24 * time.Hour

type entry struct {
	data      []byte
	tags      []string
	expiresAt time.Time
}

// MemoryIndex is an in-process, tag-invalidated response cache.
// It is used when no Redis address is configured.
type MemoryIndex struct {
	mu      sync.RWMutex
	entries map[string]entry               // key -> entry
	tags    map[string]map[string]struct{} // tag -> keys
	now     func() time.Time
}

// NewMemoryIndex creates a new memory index
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		entries: make(map[string]entry),
		tags:    make(map[string]map[string]struct{}),
		now:     time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (idx *MemoryIndex) WithClock(now func() time.Time) *MemoryIndex {
	idx.now = now
	return idx
}

// Get decodes the entry stored under key into dst. Expired entries are
// misses.
func (idx *MemoryIndex) Get(_ context.Context, key string, dst any) (bool, error) {
	idx.mu.RLock()
	e, ok := idx.entries[key]
	idx.mu.RUnlock()

	if !ok || !idx.now().Before(e.expiresAt) {
		return false, nil
	}
	if err := json.Unmarshal(e.data, dst); err != nil {
		return false, fmt.Errorf("failed to decode cache entry: %w", err)
	}
	return true, nil
}

// Set stores value under key. The value is serialized so later mutations
// by the caller never leak into the cache.
func (idx *MemoryIndex) Set(_ context.Context, key string, value any, ttl time.Duration, tags ...string) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	norm := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = normalizeTag(t); t != "" {
			norm = append(norm, t)
		}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.removeLocked(key)
	idx.entries[key] = entry{data: data, tags: norm, expiresAt: idx.now().Add(ttl)}
	for _, t := range norm {
		keys := idx.tags[t]
		if keys == nil {
			keys = make(map[string]struct{})
			idx.tags[t] = keys
		}
		keys[key] = struct{}{}
	}
	return nil
}

// InvalidateTags drops every entry carrying one of tags.
func (idx *MemoryIndex) InvalidateTags(_ context.Context, tags ...string) (int, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	removed := 0
	for _, t := range tags {
		for key := range idx.tags[normalizeTag(t)] {
			if idx.removeLocked(key) {
				removed++
			}
		}
	}
	return removed, nil
}

// Sweep removes expired entries and returns how many went away.
func (idx *MemoryIndex) Sweep() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	now := idx.now()
	removed := 0
	for key, e := range idx.entries {
		if !now.Before(e.expiresAt) {
			idx.removeLocked(key)
			removed++
		}
	}
	return removed
}

// Ping always succeeds; the index lives in process.
func (idx *MemoryIndex) Ping(context.Context) error { return nil }

// Count returns the number of stored entries, expired or not
func (idx *MemoryIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.entries)
}

// removeLocked deletes key and unlinks it from its tags.
func (idx *MemoryIndex) removeLocked(key string) bool {
	e, ok := idx.entries[key]
	if !ok {
		return false
	}
	delete(idx.entries, key)
	for _, t := range e.tags {
		if keys := idx.tags[t]; keys != nil {
			delete(keys, key)
			if len(keys) == 0 {
				delete(idx.tags, t)
			}
		}
	}
	return true
}

func normalizeTag(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}
