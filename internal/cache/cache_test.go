// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

package cache

import (
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually advanced clock for deterministic expiry tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func TestGetSetRoundTrip(t *testing.T) {
	t.Parallel()

	c := New(time.Minute)
	c.Set("catalog", []string{"a", "b"})

	got, ok := c.Get("catalog")
	if !ok {
		t.Fatal("expected hit for fresh entry")
	}
	items, ok := got.([]string)
	if !ok || len(items) != 2 {
		t.Fatalf("unexpected cached value %v", got)
	}
}

func TestMissForAbsentKey(t *testing.T) {
	t.Parallel()

	c := New(time.Minute)
	if _, ok := c.Get("nope"); ok {
		t.Fatal("expected miss for absent key")
	}

	stats := c.GetStats()
	if stats.Misses != 1 {
		t.Errorf("Misses = %d, want 1", stats.Misses)
	}
}

func TestExpiryAtTTLBoundary(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	c := NewWithClock(300*time.Second, clock)
	c.Set("snapshot", "payload")

	clock.Advance(299 * time.Second)
	if _, ok := c.Get("snapshot"); !ok {
		t.Fatal("entry expired before TTL elapsed")
	}

	clock.Advance(1 * time.Second)
	if _, ok := c.Get("snapshot"); ok {
		t.Fatal("entry survived past TTL")
	}

	stats := c.GetStats()
	if stats.Evictions != 1 {
		t.Errorf("Evictions = %d, want 1", stats.Evictions)
	}
}

func TestSetRefreshesExpiry(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	c := NewWithClock(10*time.Second, clock)
	c.Set("k", 1)

	clock.Advance(8 * time.Second)
	c.Set("k", 2)

	clock.Advance(8 * time.Second)
	got, ok := c.Get("k")
	if !ok {
		t.Fatal("refreshed entry should still be live")
	}
	if got.(int) != 2 {
		t.Errorf("value = %v, want 2", got)
	}
}

func TestSetWithTTLOverride(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	c := NewWithClock(time.Hour, clock)
	c.SetWithTTL("short", "v", time.Second)

	clock.Advance(2 * time.Second)
	if _, ok := c.Get("short"); ok {
		t.Fatal("entry with short TTL should have expired")
	}
}

func TestClearRemovesEverything(t *testing.T) {
	t.Parallel()

	c := New(time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Clear()

	if _, ok := c.Get("a"); ok {
		t.Error("entry a survived Clear")
	}
	if stats := c.GetStats(); stats.TotalKeys != 0 {
		t.Errorf("TotalKeys = %d, want 0", stats.TotalKeys)
	}
}

func TestHitRate(t *testing.T) {
	t.Parallel()

	c := New(time.Minute)
	c.Set("k", "v")
	c.Get("k")
	c.Get("k")
	c.Get("absent")

	rate := c.HitRate()
	want := 100.0 * 2.0 / 3.0
	if rate < want-0.01 || rate > want+0.01 {
		t.Errorf("HitRate = %f, want about %f", rate, want)
	}
}

func TestGenerateKeyStable(t *testing.T) {
	t.Parallel()

	type params struct {
		UserID string
		Size   int
	}
	k1 := GenerateKey("queue", params{UserID: "u1", Size: 10})
	k2 := GenerateKey("queue", params{UserID: "u1", Size: 10})
	k3 := GenerateKey("queue", params{UserID: "u2", Size: 10})

	if k1 != k2 {
		t.Error("same params should generate identical keys")
	}
	if k1 == k3 {
		t.Error("different params should generate different keys")
	}
}

func TestConcurrentAccess(t *testing.T) {
	t.Parallel()

	c := New(time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := GenerateKey("load", n)
				c.Set(key, j)
				c.Get(key)
			}
		}(i)
	}
	wg.Wait()
}
