// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestSeenSet_FirstSightingIsNew(t *testing.T) {
	s := NewSeenSet(10, time.Minute)

	if s.Seen("evt-1") {
		t.Error("Seen() = true on first sighting, want false")
	}
	if !s.Seen("evt-1") {
		t.Error("Seen() = false on second sighting, want true")
	}
}

func TestSeenSet_ExpiredKeyCountsAsNew(t *testing.T) {
	clock := newFakeClock()
	s := NewSeenSetWithClock(10, 30*time.Second, clock)

	s.Seen("evt-1")

	clock.Advance(29 * time.Second)
	if !s.Seen("evt-1") {
		t.Error("Seen() = false before TTL, want true")
	}

	clock.Advance(31 * time.Second)
	if s.Seen("evt-1") {
		t.Error("Seen() = true after TTL, want false")
	}
}

func TestSeenSet_HitDoesNotExtendExpiry(t *testing.T) {
	clock := newFakeClock()
	s := NewSeenSetWithClock(10, 30*time.Second, clock)

	s.Seen("evt-1")

	clock.Advance(20 * time.Second)
	if !s.Seen("evt-1") {
		t.Fatal("Seen() = false before TTL, want true")
	}

	// 35s after the first sighting; the hit at 20s must not have reset it.
	clock.Advance(15 * time.Second)
	if s.Seen("evt-1") {
		t.Error("Seen() = true after original TTL, want false")
	}
}

func TestSeenSet_CapacityEvictsLeastRecentlySeen(t *testing.T) {
	s := NewSeenSet(3, time.Minute)

	s.Seen("a")
	s.Seen("b")
	s.Seen("c")

	// Touch a so b becomes the oldest.
	s.Seen("a")

	s.Seen("d")

	if s.Contains("b") {
		t.Error("Contains(b) = true, want evicted")
	}
	for _, key := range []string{"a", "c", "d"} {
		if !s.Contains(key) {
			t.Errorf("Contains(%s) = false, want true", key)
		}
	}
	if got := s.Len(); got != 3 {
		t.Errorf("Len() = %d, want 3", got)
	}
}

func TestSeenSet_ContainsDoesNotRecord(t *testing.T) {
	s := NewSeenSet(10, time.Minute)

	if s.Contains("evt-1") {
		t.Error("Contains() = true for unseen key")
	}
	if s.Seen("evt-1") {
		t.Error("Seen() = true, want false (Contains must not record)")
	}
}

func TestSeenSet_Forget(t *testing.T) {
	s := NewSeenSet(10, time.Minute)

	s.Seen("evt-1")
	if !s.Forget("evt-1") {
		t.Error("Forget() = false, want true")
	}
	if s.Forget("evt-1") {
		t.Error("Forget() = true for absent key")
	}
	if s.Seen("evt-1") {
		t.Error("Seen() = true after Forget, want false")
	}
}

func TestSeenSet_Clear(t *testing.T) {
	s := NewSeenSet(10, time.Minute)

	s.Seen("a")
	s.Seen("b")
	s.Clear()

	if got := s.Len(); got != 0 {
		t.Errorf("Len() = %d after Clear, want 0", got)
	}
	if s.Contains("a") {
		t.Error("Contains(a) = true after Clear")
	}
}

func TestSeenSet_Stats(t *testing.T) {
	s := NewSeenSet(10, time.Minute)

	s.Seen("a")
	s.Seen("a")
	s.Seen("b")

	hits, misses, size := s.SeenStats()
	if hits != 1 {
		t.Errorf("hits = %d, want 1", hits)
	}
	if misses != 2 {
		t.Errorf("misses = %d, want 2", misses)
	}
	if size != 2 {
		t.Errorf("size = %d, want 2", size)
	}
}

func TestSeenSet_DefaultsForInvalidArgs(t *testing.T) {
	s := NewSeenSet(0, 0)

	if s.capacity != 10000 {
		t.Errorf("capacity = %d, want 10000", s.capacity)
	}
	if s.ttl != 5*time.Minute {
		t.Errorf("ttl = %v, want 5m", s.ttl)
	}
}

func TestSeenSet_ConcurrentAccess(t *testing.T) {
	s := NewSeenSet(100, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Seen(fmt.Sprintf("key-%d-%d", n, j%20))
				s.Contains(fmt.Sprintf("key-%d-%d", n, j%20))
			}
		}(i)
	}
	wg.Wait()

	if got := s.Len(); got > 100 {
		t.Errorf("Len() = %d, want <= capacity", got)
	}
}

func BenchmarkSeenSet(b *testing.B) {
	s := NewSeenSet(10000, time.Minute)
	keys := make([]string, 1000)
	for i := range keys {
		keys[i] = fmt.Sprintf("evt-%d", i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Seen(keys[i%len(keys)])
	}
}
