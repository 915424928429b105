// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

package cache

import (
	"sync"
	"time"
)

// seenEntry is a node in the SeenSet's recency list.
type seenEntry struct {
	key       string
	prev      *seenEntry
	next      *seenEntry
	expiresAt time.Time
}

// SeenSet remembers recently seen keys for deduplication. It is bounded:
// when the capacity is reached the least recently seen key is evicted, so
// memory stays flat no matter how many distinct keys pass through. Entries
// also expire after the TTL, at which point the key counts as new again.
//
// All operations are O(1): a hashmap provides lookup and a doubly-linked
// list with sentinel nodes tracks recency.
type SeenSet struct {
	mu sync.Mutex

	capacity int
	ttl      time.Duration
	clock    Clock

	entries map[string]*seenEntry

	// head.next is the most recently seen, tail.prev the least.
	head *seenEntry
	tail *seenEntry

	hits   int64
	misses int64
}

// NewSeenSet creates a set bounded to capacity entries with the given TTL,
// using the wall clock.
func NewSeenSet(capacity int, ttl time.Duration) *SeenSet {
	return NewSeenSetWithClock(capacity, ttl, RealClock{})
}

// NewSeenSetWithClock creates a set with an injected clock. Non-positive
// capacity or TTL fall back to defaults.
func NewSeenSetWithClock(capacity int, ttl time.Duration, clock Clock) *SeenSet {
	if capacity <= 0 {
		capacity = 10000
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if clock == nil {
		clock = RealClock{}
	}

	s := &SeenSet{
		capacity: capacity,
		ttl:      ttl,
		clock:    clock,
		entries:  make(map[string]*seenEntry, capacity),
		head:     &seenEntry{},
		tail:     &seenEntry{},
	}
	s.head.next = s.tail
	s.tail.prev = s.head

	return s
}

// Seen reports whether key was seen within the TTL, recording it either
// way. A fresh hit refreshes the key's recency but not its expiry.
func (s *SeenSet) Seen(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()

	if entry, ok := s.entries[key]; ok {
		if now.Before(entry.expiresAt) {
			s.moveToFront(entry)
			s.hits++
			return true
		}
		s.unlink(entry)
	}

	entry := &seenEntry{
		key:       key,
		expiresAt: now.Add(s.ttl),
	}
	s.pushFront(entry)
	s.entries[key] = entry

	for len(s.entries) > s.capacity {
		s.evictOldest()
	}

	s.misses++
	return false
}

// Contains reports whether key is present and unexpired, without recording
// it or touching recency.
func (s *SeenSet) Contains(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	return ok && s.clock.Now().Before(entry.expiresAt)
}

// Forget removes key, reporting whether it was present.
func (s *SeenSet) Forget(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return false
	}
	s.unlink(entry)
	return true
}

// Len returns the number of tracked keys, expired entries included.
func (s *SeenSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Clear drops every tracked key.
func (s *SeenSet) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*seenEntry, s.capacity)
	s.head.next = s.tail
	s.tail.prev = s.head
}

// SeenStats returns hit/miss counters and the current size.
func (s *SeenSet) SeenStats() (hits, misses int64, size int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits, s.misses, len(s.entries)
}

// List manipulation below requires the lock to be held.

func (s *SeenSet) pushFront(entry *seenEntry) {
	entry.prev = s.head
	entry.next = s.head.next
	s.head.next.prev = entry
	s.head.next = entry
}

func (s *SeenSet) moveToFront(entry *seenEntry) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	s.pushFront(entry)
}

func (s *SeenSet) unlink(entry *seenEntry) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	delete(s.entries, entry.key)
}

func (s *SeenSet) evictOldest() {
	oldest := s.tail.prev
	if oldest == s.head {
		return
	}
	s.unlink(oldest)
}
