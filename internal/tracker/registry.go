// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

package tracker

import (
	"sync"

	"github.com/tomtom215/auditus/internal/events"
)

// Registry multiplexes trackers across listeners. A tracker is created
// on the first snapshot seen for a user id and kept for the lifetime of
// the registry; the source label of that first snapshot sticks to the
// session.
type Registry struct {
	cfg Config

	mu       sync.Mutex
	trackers map[string]*Tracker
}

// NewRegistry creates an empty registry applying cfg to every tracker
// it spawns.
func NewRegistry(cfg Config) *Registry {
	return &Registry{
		cfg:      cfg,
		trackers: make(map[string]*Tracker),
	}
}

// Observe routes a snapshot to the owning user's tracker, creating it
// if this is the first snapshot for that user. Snapshots without a user
// id are dropped.
func (r *Registry) Observe(source string, snap *events.PlaybackSnapshot) *events.TrackEvent {
	if snap == nil || snap.UserID == "" {
		return nil
	}

	r.mu.Lock()
	t, ok := r.trackers[snap.UserID]
	if !ok {
		t = New(snap.UserID, source, r.cfg)
		r.trackers[snap.UserID] = t
	}
	r.mu.Unlock()

	return t.Observe(snap)
}

// ActiveSessions reports how many listeners the registry is tracking.
func (r *Registry) ActiveSessions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.trackers)
}
