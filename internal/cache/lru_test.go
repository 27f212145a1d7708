// Setlist - Playlist Association Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package cache

import (
	"strconv"
	"sync"
	"testing"
	"time"
)

func TestLRU_BasicOperations(t *testing.T) {
	t.Parallel()

	c := NewLRU[int](3, time.Minute)
	c.Add("a", 1)
	c.Add("b", 2)
	c.Add("c", 3)

	for key, want := range map[string]int{"a": 1, "b": 2, "c": 3} {
		got, ok := c.Get(key)
		if !ok || got != want {
			t.Errorf("Get(%q) = %d, %v; want %d, true", key, got, ok, want)
		}
	}
	if c.Len() != 3 {
		t.Errorf("Len() = %d, want 3", c.Len())
	}

	c.Add("a", 10)
	if got, _ := c.Get("a"); got != 10 {
		t.Errorf("updated value = %d, want 10", got)
	}

	if !c.Remove("a") || c.Remove("a") {
		t.Error("Remove should report presence exactly once")
	}
}

func TestLRU_Eviction(t *testing.T) {
	t.Parallel()

	c := NewLRU[string](3, time.Minute)
	c.Add("a", "A")
	c.Add("b", "B")
	c.Add("c", "C")

	// a becomes most recent, so b is the eviction victim.
	c.Get("a")
	c.Add("d", "D")

	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted")
	}
	for _, key := range []string{"a", "c", "d"} {
		if _, ok := c.Get(key); !ok {
			t.Errorf("expected %s to be present", key)
		}
	}
}

func TestLRU_TTL(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRU[int](10, time.Minute)
	c.now = func() time.Time { return now }

	c.Add("a", 1)
	c.Add("b", 2)

	now = now.Add(30 * time.Second)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a should still be valid")
	}

	now = now.Add(31 * time.Second)
	if _, ok := c.Get("a"); ok {
		t.Error("a should have expired")
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1 (b not yet touched)", c.Len())
	}
	if _, ok := c.Get("b"); ok {
		t.Error("b should have expired")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}

func TestLRU_Defaults(t *testing.T) {
	t.Parallel()

	c := NewLRU[int](0, 0)
	if c.capacity != DefaultCapacity || c.ttl != DefaultTTL {
		t.Errorf("defaults = %d/%v", c.capacity, c.ttl)
	}
}

func TestLRU_ClearAndStats(t *testing.T) {
	t.Parallel()

	c := NewLRU[int](5, time.Minute)
	c.Add("a", 1)
	c.Get("a")
	c.Get("missing")
	c.Clear()

	hits, misses, size := c.Stats()
	if hits != 1 || misses != 1 || size != 0 {
		t.Errorf("Stats() = %d, %d, %d; want 1, 1, 0", hits, misses, size)
	}
	if _, ok := c.Get("a"); ok {
		t.Error("Clear should drop entries")
	}
}

func TestLRU_Concurrent(t *testing.T) {
	t.Parallel()

	c := NewLRU[int](50, time.Minute)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				key := strconv.Itoa((g*500 + i) % 120)
				c.Add(key, i)
				c.Get(key)
			}
		}(g)
	}
	wg.Wait()

	if c.Len() > 50 {
		t.Errorf("Len() = %d exceeds capacity", c.Len())
	}
}

func TestGenerateKey(t *testing.T) {
	t.Parallel()

	a := GenerateKey("recommend", []string{"song a", "song b"})
	b := GenerateKey("recommend", []string{"song a", "song b"})
	c := GenerateKey("recommend", []string{"song b", "song a"})

	if a != b {
		t.Error("equal params should give equal keys")
	}
	if a == c {
		t.Error("different params should give different keys")
	}
	if len(a) != len("recommend:")+32 {
		t.Errorf("unexpected key length %d", len(a))
	}
}
