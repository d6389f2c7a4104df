// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemos Contributors

// Package cache provides the in-memory read accelerant in front of the
// durable store: TTL-bounded key/value mirrors plus set-membership indices
// for type, tag, and graph lookups. The durable store stays the source of
// truth; a miss here always falls through to storage.
package cache

import (
	"sync"
	"time"
)

// DocumentTTL bounds how long a document mirror stays valid.
const DocumentTTL = time.Hour

// Key builders for the well-known cache namespaces.
func DocKey(id string) string        { return "doc:" + id }
func TypeKey(docType string) string  { return "type:" + docType }
func TagKey(tag string) string       { return "tag:" + tag }
func GraphKey(sourceID string) string { return "graph:" + sourceID }

type entry struct {
	value     any
	expiresAt time.Time // zero means no expiry
}

// Cache is a goroutine-safe in-memory store with per-key TTL and unexpiring
// set indices. Every write is a full key replace, so interleaved readers
// never observe partial values.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	sets    map[string]map[string]struct{}

	nowFunc func() time.Time // for testing
}

// New creates an empty Cache.
func New() *Cache {
	return &Cache{
		entries: make(map[string]entry),
		sets:    make(map[string]map[string]struct{}),
		nowFunc: time.Now,
	}
}

// Get returns the value for key, or false when the key is absent or its TTL
// has elapsed. Expired entries are removed on access.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if !e.expiresAt.IsZero() && !c.nowFunc().Before(e.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; the entry may have been replaced.
		if cur, still := c.entries[key]; still && cur.expiresAt.Equal(e.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}

	return e.value, true
}

// Set stores value under key. A positive ttl bounds the entry's lifetime;
// zero or negative ttl means the entry never expires by time.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	var expires time.Time
	if ttl > 0 {
		expires = c.nowFunc().Add(ttl)
	}

	c.mu.Lock()
	c.entries[key] = entry{value: value, expiresAt: expires}
	c.mu.Unlock()
}

// Delete removes a key and any set index stored under the same name.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	delete(c.sets, key)
	c.mu.Unlock()
}

// SAdd adds members to the set index stored under key. Set indices carry no
// TTL; they are rebuilt on writes, not evicted by time.
func (c *Cache) SAdd(key string, members ...string) {
	c.mu.Lock()
	set, ok := c.sets[key]
	if !ok {
		set = make(map[string]struct{}, len(members))
		c.sets[key] = set
	}
	for _, m := range members {
		set[m] = struct{}{}
	}
	c.mu.Unlock()
}

// SRem removes members from the set index stored under key. An emptied set
// is dropped entirely.
func (c *Cache) SRem(key string, members ...string) {
	c.mu.Lock()
	if set, ok := c.sets[key]; ok {
		for _, m := range members {
			delete(set, m)
		}
		if len(set) == 0 {
			delete(c.sets, key)
		}
	}
	c.mu.Unlock()
}

// SMembers returns the members of the set index under key. Order is
// unspecified. A missing set yields an empty slice.
func (c *Cache) SMembers(key string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	set, ok := c.sets[key]
	if !ok {
		return nil
	}
	members := make([]string, 0, len(set))
	for m := range set {
		members = append(members, m)
	}
	return members
}

// Len returns the number of live value entries (expired entries included
// until their next access).
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Flush drops every entry and set index.
func (c *Cache) Flush() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.sets = make(map[string]map[string]struct{})
	c.mu.Unlock()
}

// SetNowFunc overrides the time source (for testing).
func (c *Cache) SetNowFunc(fn func() time.Time) {
	c.mu.Lock()
	c.nowFunc = fn
	c.mu.Unlock()
}
