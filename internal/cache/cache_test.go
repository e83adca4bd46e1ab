// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/marquee/internal/models"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
}

func refs(ids ...string) []models.MediaReference {
	out := make([]models.MediaReference, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.NewReference(models.SourceTMDB, id, models.MediaTypeMovie, "Movie "+id).WithRating(7, 10))
	}
	return out
}

func TestCacheBasicOperations(t *testing.T) {
	c := New("test", 10, WithClock(newClock().Now))

	c.Put("key1", refs("1", "2"), time.Minute)
	value, exists := c.Get("key1")
	if !exists {
		t.Fatal("Expected key1 to exist")
	}
	if len(value) != 2 || value[0].ExternalID != "1" || value[1].ExternalID != "2" {
		t.Errorf("Expected [1 2], got %v", value)
	}

	if _, exists = c.Get("key2"); exists {
		t.Error("Expected key2 to not exist")
	}
}

func TestCacheExpiration(t *testing.T) {
	clock := newClock()
	c := New("test", 10, WithClock(clock.Now))

	c.Put("catalog", refs("1"), time.Hour)
	c.Put("trending", refs("2"), 5*time.Minute)

	clock.Advance(5 * time.Minute)

	if _, ok := c.Get("trending"); ok {
		t.Error("Expected trending entry to expire after its TTL")
	}
	if _, ok := c.Get("catalog"); !ok {
		t.Error("Expected catalog entry to still be fresh")
	}

	stats := c.GetStats()
	if stats.Expirations != 1 {
		t.Errorf("Expected 1 expiration, got %d", stats.Expirations)
	}
}

func TestCacheEvictsOldestInserted(t *testing.T) {
	c := New("test", 3, WithClock(newClock().Now))

	c.Put("a", refs("a"), time.Hour)
	c.Put("b", refs("b"), time.Hour)
	c.Put("c", refs("c"), time.Hour)

	// Reads do not refresh insertion order.
	c.Get("a")

	c.Put("d", refs("d"), time.Hour)

	if _, ok := c.Get("a"); ok {
		t.Error("Expected oldest inserted entry 'a' to be evicted")
	}
	for _, k := range []string{"b", "c", "d"} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("Expected %s to remain", k)
		}
	}
	if c.Len() != 3 {
		t.Errorf("Expected 3 entries, got %d", c.Len())
	}
	if ev := c.GetStats().Evictions; ev != 1 {
		t.Errorf("Expected 1 eviction, got %d", ev)
	}
}

func TestCacheReinsertMovesToNewest(t *testing.T) {
	c := New("test", 2, WithClock(newClock().Now))

	c.Put("a", refs("a"), time.Hour)
	c.Put("b", refs("b"), time.Hour)
	c.Put("a", refs("a2"), time.Hour)
	c.Put("c", refs("c"), time.Hour)

	if _, ok := c.Get("b"); ok {
		t.Error("Expected 'b' to be evicted after 'a' was re-inserted")
	}
	got, ok := c.Get("a")
	if !ok || got[0].ExternalID != "a2" {
		t.Errorf("Expected replaced value a2, got %v", got)
	}
}

func TestCacheValuesAreCopied(t *testing.T) {
	c := New("test", 10, WithClock(newClock().Now))

	original := refs("1")
	c.Put("k", original, time.Hour)
	original[0].Title = "mutated after put"

	got, _ := c.Get("k")
	if got[0].Title != "Movie 1" {
		t.Errorf("Put must copy its input, got title %q", got[0].Title)
	}

	*got[0].AverageRating = 0
	again, _ := c.Get("k")
	if *again[0].AverageRating != 7 {
		t.Errorf("Get must return a copy, rating is %v", *again[0].AverageRating)
	}
}

func TestCacheEmptyListIsAHit(t *testing.T) {
	c := New("test", 10, WithClock(newClock().Now))
	c.Put("empty", nil, time.Hour)

	got, ok := c.Get("empty")
	if !ok {
		t.Fatal("Expected cached empty result to be a hit")
	}
	if len(got) != 0 {
		t.Errorf("Expected empty list, got %v", got)
	}
}

func TestCacheNonPositiveTTLStoresNothing(t *testing.T) {
	c := New("test", 10)
	c.Put("k", refs("1"), 0)
	if c.Len() != 0 {
		t.Errorf("Expected nothing stored for zero TTL, got %d entries", c.Len())
	}
}

func TestCachePurgeExpired(t *testing.T) {
	clock := newClock()
	c := New("test", 10, WithClock(clock.Now))

	for i := 0; i < 5; i++ {
		c.Put(fmt.Sprintf("short%d", i), refs("x"), time.Minute)
	}
	c.Put("long", refs("y"), time.Hour)

	clock.Advance(2 * time.Minute)
	if removed := c.PurgeExpired(); removed != 5 {
		t.Errorf("Expected 5 purged entries, got %d", removed)
	}
	if c.Len() != 1 {
		t.Errorf("Expected 1 remaining entry, got %d", c.Len())
	}
	if !c.GetStats().LastCleanup.Equal(clock.Now()) {
		t.Error("Expected LastCleanup to be updated")
	}
}

func TestCacheDeleteAndClear(t *testing.T) {
	c := New("test", 10)
	c.Put("a", refs("a"), time.Hour)
	c.Put("b", refs("b"), time.Hour)

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("Expected a to be deleted")
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Expected empty cache after Clear, got %d", c.Len())
	}
	c.Put("c", refs("c"), time.Hour)
	if _, ok := c.Get("c"); !ok {
		t.Error("Expected cache to be usable after Clear")
	}
}

func TestCacheHitRate(t *testing.T) {
	c := New("test", 10)
	if c.HitRate() != 0 {
		t.Errorf("Expected 0%% hit rate on empty cache, got %f", c.HitRate())
	}

	c.Put("k", refs("1"), time.Hour)
	c.Get("k")
	c.Get("k")
	c.Get("missing")

	rate := c.HitRate()
	if rate < 66.6 || rate > 66.7 {
		t.Errorf("Expected ~66.67%% hit rate, got %f", rate)
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := New("test", 50)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("k%d", (n*100+j)%80)
				c.Put(key, refs(key), time.Hour)
				c.Get(key)
			}
		}(i)
	}
	wg.Wait()

	if c.Len() > 50 {
		t.Errorf("Size bound exceeded: %d entries", c.Len())
	}
}

func TestNormalizeQuery(t *testing.T) {
	tests := map[string]string{
		"  Zelda   II ":           "zelda ii",
		"zelda ii":                "zelda ii",
		"\tBreath\nof   the WILD": "breath of the wild",
		"   ":                     "",
	}
	for in, want := range tests {
		if got := NormalizeQuery(in); got != want {
			t.Errorf("NormalizeQuery(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestKey(t *testing.T) {
	a := Key("search", "zelda", []string{"game"}, 5)
	b := Key("search", "zelda", []string{"game"}, 5)
	if a != b {
		t.Errorf("Expected identical keys for identical arguments: %s vs %s", a, b)
	}
	if a == Key("search", "zelda", []string{"game"}, 6) {
		t.Error("Expected different keys for different limits")
	}
	if a == Key("trending", "zelda", []string{"game"}, 5) {
		t.Error("Expected the operation name to be part of the key")
	}
	if len(a) != len("search:")+32 {
		t.Errorf("Expected op prefix plus 16-byte hex hash, got %q", a)
	}
}

func BenchmarkCachePutGet(b *testing.B) {
	c := New("bench", 1024)
	value := refs("1", "2", "3")
	for i := 0; i < b.N; i++ {
		key := fmt.Sprintf("k%d", i%2048)
		c.Put(key, value, time.Hour)
		c.Get(key)
	}
}
