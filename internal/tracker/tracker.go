// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

package tracker

import (
	"sync"
	"time"

	"github.com/tomtom215/auditus/internal/events"
)

// DefaultMinListenTime is the threshold separating a skip from a
// completed listen when no override is configured.
const DefaultMinListenTime = 30 * time.Second

// Config controls session classification.
type Config struct {
	// MinListenTime is the minimum time a track must play before the
	// transition away from it counts as COMPLETED rather than SKIPPED.
	MinListenTime time.Duration
}

// DefaultConfig returns the standard tracker configuration.
func DefaultConfig() Config {
	return Config{
		MinListenTime: DefaultMinListenTime,
	}
}

// Tracker follows one listener's playback and emits a TrackEvent each
// time the reported track changes. It is safe for concurrent use,
// though snapshots for a single listener normally arrive serially.
type Tracker struct {
	userID        string
	source        string
	minListenTime time.Duration
	now           func() time.Time

	mu        sync.Mutex
	trackID   string
	trackName string
	startTime time.Time
}

// New creates a tracker for a single listener. Events it emits carry the
// given user id and source label.
func New(userID, source string, cfg Config) *Tracker {
	if cfg.MinListenTime <= 0 {
		cfg.MinListenTime = DefaultMinListenTime
	}
	return &Tracker{
		userID:        userID,
		source:        source,
		minListenTime: cfg.MinListenTime,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Observe feeds one playback snapshot into the session state machine.
// It returns a TrackEvent for the previously tracked track when the
// snapshot reports a different track id, and nil otherwise. Snapshots
// without a track are ignored entirely.
func (t *Tracker) Observe(snap *events.PlaybackSnapshot) *events.TrackEvent {
	if !snap.HasTrack() {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if snap.TrackID == t.trackID {
		// Same track still playing; a seek or progress tick.
		return nil
	}

	now := t.now()

	var event *events.TrackEvent
	if t.trackID != "" {
		event = t.closeOut(now)
	}

	t.trackID = snap.TrackID
	t.trackName = snap.TrackName
	t.startTime = now

	return event
}

// closeOut builds the event for the track being replaced. Callers must
// hold t.mu.
func (t *Tracker) closeOut(now time.Time) *events.TrackEvent {
	elapsed := now.Sub(t.startTime)
	if elapsed < 0 {
		elapsed = 0
	}

	status := events.StatusCompleted
	if elapsed < t.minListenTime {
		status = events.StatusSkipped
	}

	event := events.NewTrackEvent(t.userID, t.source)
	event.TrackID = t.trackID
	event.TrackName = t.trackName
	event.Status = status
	event.DurationListened = int64(elapsed.Seconds())
	event.Timestamp = now.Unix()

	return event
}

// Current returns the track id being tracked, or "" when no track has
// been observed yet.
func (t *Tracker) Current() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.trackID
}
