// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package cache

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/marquee/internal/metrics"
	"github.com/tomtom215/marquee/internal/models"
)

// entry is a node of the insertion-ordered list.
type entry struct {
	key        string
	value      []models.MediaReference
	insertedAt time.Time
	expiresAt  time.Time
	prev       *entry
	next       *entry
}

// Cache is a bounded, TTL-aware store of normalized result lists.
//
// Entries are kept in insertion order in a doubly-linked list with sentinel
// nodes; when the size bound is reached the least-recently-inserted entry is
// evicted. Reads do not change the order. Expired entries are dropped lazily
// on Get and in bulk by PurgeExpired.
//
// Values are deep-copied on Put and on Get, so callers can never mutate a
// cached list.
type Cache struct {
	name string
	mu   sync.Mutex

	maxEntries int
	items      map[string]*entry

	// head.next is the newest insertion, tail.prev the oldest.
	head *entry
	tail *entry

	now   func() time.Time
	stats Stats
}

// Stats tracks cache performance metrics
type Stats struct {
	Hits        int64
	Misses      int64
	Evictions   int64
	Expirations int64
	Entries     int64
	LastCleanup time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// New creates a cache named name (used as the metrics label) holding at most
// maxEntries lists. A non-positive bound defaults to 1024.
func New(name string, maxEntries int, opts ...Option) *Cache {
	if maxEntries <= 0 {
		maxEntries = 1024
	}
	c := &Cache{
		name:       name,
		maxEntries: maxEntries,
		items:      make(map[string]*entry, maxEntries),
		head:       &entry{},
		tail:       &entry{},
		now:        time.Now,
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the cache name.
func (c *Cache) Name() string {
	return c.name
}

// Get returns a copy of the fresh value stored under key.
func (c *Cache) Get(key string) ([]models.MediaReference, bool) {
	c.mu.Lock()
	e, ok := c.items[key]
	if ok && !c.now().Before(e.expiresAt) {
		c.unlink(e)
		c.stats.Expirations++
		metrics.RecordCacheEviction(c.name, "expired", 1)
		ok = false
	}
	if !ok {
		c.stats.Misses++
		c.mu.Unlock()
		metrics.RecordCacheLookup(c.name, false)
		return nil, false
	}
	value := models.CloneAll(e.value)
	c.stats.Hits++
	c.mu.Unlock()

	metrics.RecordCacheLookup(c.name, true)
	return value, true
}

// Put stores a copy of value under key for ttl. Replacing an existing key
// counts as a fresh insertion. A non-positive ttl stores nothing.
func (c *Cache) Put(key string, value []models.MediaReference, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	stored := models.CloneAll(value)
	if stored == nil {
		stored = []models.MediaReference{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if old, exists := c.items[key]; exists {
		c.unlink(old)
	}

	e := &entry{
		key:        key,
		value:      stored,
		insertedAt: now,
		expiresAt:  now.Add(ttl),
	}
	c.pushFront(e)

	evicted := 0
	for len(c.items) > c.maxEntries {
		c.unlink(c.tail.prev)
		evicted++
	}
	c.stats.Evictions += int64(evicted)
	c.stats.Entries = int64(len(c.items))
	metrics.RecordCacheEviction(c.name, "capacity", evicted)
	metrics.CacheEntries.WithLabelValues(c.name).Set(float64(len(c.items)))
}

// Delete removes key if present.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.items[key]; ok {
		c.unlink(e)
		c.stats.Entries = int64(len(c.items))
	}
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*entry, c.maxEntries)
	c.head.next = c.tail
	c.tail.prev = c.head
	c.stats.Entries = 0
	metrics.CacheEntries.WithLabelValues(c.name).Set(0)
}

// Len returns the number of stored entries, including expired ones not yet purged.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// PurgeExpired removes every expired entry and returns how many were removed.
func (c *Cache) PurgeExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for e := c.tail.prev; e != c.head; {
		prev := e.prev
		if !now.Before(e.expiresAt) {
			c.unlink(e)
			removed++
		}
		e = prev
	}

	c.stats.Expirations += int64(removed)
	c.stats.Entries = int64(len(c.items))
	c.stats.LastCleanup = now
	metrics.RecordCacheEviction(c.name, "expired", removed)
	metrics.CacheEntries.WithLabelValues(c.name).Set(float64(len(c.items)))
	return removed
}

// GetStats returns a snapshot of current cache statistics.
func (c *Cache) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Entries = int64(len(c.items))
	return s
}

// HitRate returns the cache hit rate as a percentage
func (c *Cache) HitRate() float64 {
	stats := c.GetStats()
	total := stats.Hits + stats.Misses
	if total == 0 {
		return 0.0
	}
	return float64(stats.Hits) / float64(total) * 100.0
}

// pushFront must be called with mu held.
func (c *Cache) pushFront(e *entry) {
	e.prev = c.head
	e.next = c.head.next
	c.head.next.prev = e
	c.head.next = e
	c.items[e.key] = e
}

// unlink must be called with mu held.
func (c *Cache) unlink(e *entry) {
	e.prev.next = e.next
	e.next.prev = e.prev
	e.prev = nil
	e.next = nil
	delete(c.items, e.key)
}

// Key creates a cache key from an operation name and its normalized
// arguments. Arguments are JSON encoded and hashed, so argument order matters
// and equal tuples always yield equal keys.
//
//	cache.Key("search", "zelda", []models.MediaType{"game"}, 5)
//	// "search:3f1c..."
func Key(op string, args ...interface{}) string {
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Sprintf("%s:%v", op, args)
	}
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%x", op, hash[:16])
}

// NormalizeQuery lowercases query, trims it and collapses inner whitespace,
// so "  Zelda   II" and "zelda ii" share a key.
func NormalizeQuery(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}
