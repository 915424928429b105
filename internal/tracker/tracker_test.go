// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

package tracker

import (
	"testing"
	"time"

	"github.com/tomtom215/auditus/internal/events"
)

// sessionClock drives a tracker through simulated listening time.
type sessionClock struct {
	now time.Time
}

func newSessionClock() *sessionClock {
	return &sessionClock{now: time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)}
}

func (c *sessionClock) Now() time.Time { return c.now }

func (c *sessionClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestTracker(clock *sessionClock) *Tracker {
	tr := New("user-1", events.SourceSpotify, DefaultConfig())
	tr.now = clock.Now
	return tr
}

func snap(trackID, trackName string) *events.PlaybackSnapshot {
	return &events.PlaybackSnapshot{
		UserID:    "user-1",
		TrackID:   trackID,
		TrackName: trackName,
		Playing:   true,
	}
}

func TestObserve_FirstSnapshotEmitsNothing(t *testing.T) {
	clock := newSessionClock()
	tr := newTestTracker(clock)

	if event := tr.Observe(snap("t1", "First Song")); event != nil {
		t.Errorf("first observation emitted %+v, want nil", event)
	}
	if got := tr.Current(); got != "t1" {
		t.Errorf("Current() = %q, want t1", got)
	}
}

func TestObserve_NoTrackEmitsNothing(t *testing.T) {
	clock := newSessionClock()
	tr := newTestTracker(clock)

	if event := tr.Observe(&events.PlaybackSnapshot{UserID: "user-1"}); event != nil {
		t.Errorf("trackless snapshot emitted %+v, want nil", event)
	}
	if event := tr.Observe(nil); event != nil {
		t.Errorf("nil snapshot emitted %+v, want nil", event)
	}

	// A trackless snapshot must not disturb an active session either.
	tr.Observe(snap("t1", "First Song"))
	clock.Advance(10 * time.Second)
	if event := tr.Observe(&events.PlaybackSnapshot{UserID: "user-1"}); event != nil {
		t.Errorf("trackless snapshot mid-session emitted %+v, want nil", event)
	}
	if got := tr.Current(); got != "t1" {
		t.Errorf("Current() after trackless snapshot = %q, want t1", got)
	}
}

func TestObserve_SameTrackEmitsNothing(t *testing.T) {
	clock := newSessionClock()
	tr := newTestTracker(clock)

	tr.Observe(snap("t1", "First Song"))
	clock.Advance(45 * time.Second)

	// A seek reports the same id again; no transition happened.
	if event := tr.Observe(snap("t1", "First Song")); event != nil {
		t.Errorf("repeated track id emitted %+v, want nil", event)
	}

	// The original start time survives the seek, so the eventual
	// transition counts the full listen.
	clock.Advance(45 * time.Second)
	event := tr.Observe(snap("t2", "Second Song"))
	if event == nil {
		t.Fatal("track change emitted nothing")
	}
	if event.DurationListened != 90 {
		t.Errorf("DurationListened = %d, want 90", event.DurationListened)
	}
}

func TestObserve_TrackChangeClosesPreviousTrack(t *testing.T) {
	clock := newSessionClock()
	tr := newTestTracker(clock)

	tr.Observe(snap("t1", "First Song"))
	clock.Advance(120 * time.Second)

	event := tr.Observe(snap("t2", "Second Song"))
	if event == nil {
		t.Fatal("track change emitted nothing")
	}
	if event.TrackID != "t1" {
		t.Errorf("event is for %q, want the previous track t1", event.TrackID)
	}
	if event.TrackName != "First Song" {
		t.Errorf("TrackName = %q, want First Song", event.TrackName)
	}
	if event.Status != events.StatusCompleted {
		t.Errorf("Status = %q, want COMPLETED", event.Status)
	}
	if event.DurationListened != 120 {
		t.Errorf("DurationListened = %d, want 120", event.DurationListened)
	}
	if event.UserID != "user-1" {
		t.Errorf("UserID = %q, want user-1", event.UserID)
	}
	if event.Source != events.SourceSpotify {
		t.Errorf("Source = %q, want spotify", event.Source)
	}
	if event.Timestamp != clock.Now().Unix() {
		t.Errorf("Timestamp = %d, want %d", event.Timestamp, clock.Now().Unix())
	}
	if got := tr.Current(); got != "t2" {
		t.Errorf("Current() = %q, want t2", got)
	}
}

func TestObserve_StatusClassification(t *testing.T) {
	tests := []struct {
		name       string
		listened   time.Duration
		wantStatus string
	}{
		{"instant skip", 1 * time.Second, events.StatusSkipped},
		{"just under threshold", 29 * time.Second, events.StatusSkipped},
		{"exactly at threshold", 30 * time.Second, events.StatusCompleted},
		{"just over threshold", 31 * time.Second, events.StatusCompleted},
		{"full listen", 4 * time.Minute, events.StatusCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newSessionClock()
			tr := newTestTracker(clock)

			tr.Observe(snap("t1", "First Song"))
			clock.Advance(tt.listened)

			event := tr.Observe(snap("t2", "Second Song"))
			if event == nil {
				t.Fatal("track change emitted nothing")
			}
			if event.Status != tt.wantStatus {
				t.Errorf("after %v: Status = %q, want %q", tt.listened, event.Status, tt.wantStatus)
			}
			if want := int64(tt.listened.Seconds()); event.DurationListened != want {
				t.Errorf("DurationListened = %d, want %d", event.DurationListened, want)
			}
		})
	}
}

func TestObserve_OneEventPerTransition(t *testing.T) {
	clock := newSessionClock()
	tr := newTestTracker(clock)

	// Twelve snapshots across three distinct tracks: exactly two
	// transitions close out, the rest are ticks.
	sequence := []string{"t1", "t1", "t1", "t1", "t2", "t2", "t2", "t2", "t3", "t3", "t3", "t3"}

	var emitted []*events.TrackEvent
	for _, id := range sequence {
		if event := tr.Observe(snap(id, "Song "+id)); event != nil {
			emitted = append(emitted, event)
		}
		clock.Advance(10 * time.Second)
	}

	if len(emitted) != 2 {
		t.Fatalf("emitted %d events, want 2", len(emitted))
	}
	if emitted[0].TrackID != "t1" || emitted[1].TrackID != "t2" {
		t.Errorf("emitted tracks = [%s, %s], want [t1, t2]", emitted[0].TrackID, emitted[1].TrackID)
	}
	for _, event := range emitted {
		if err := event.Validate(); err != nil {
			t.Errorf("emitted event failed validation: %v", err)
		}
	}
}

func TestObserve_CustomMinListenTime(t *testing.T) {
	clock := newSessionClock()
	tr := New("user-1", events.SourceAPI, Config{MinListenTime: 10 * time.Second})
	tr.now = clock.Now

	tr.Observe(snap("t1", "First Song"))
	clock.Advance(15 * time.Second)

	event := tr.Observe(snap("t2", "Second Song"))
	if event == nil {
		t.Fatal("track change emitted nothing")
	}
	if event.Status != events.StatusCompleted {
		t.Errorf("15s listen with 10s threshold: Status = %q, want COMPLETED", event.Status)
	}
}

func TestNew_ZeroThresholdFallsBackToDefault(t *testing.T) {
	tr := New("user-1", events.SourceAPI, Config{})
	if tr.minListenTime != DefaultMinListenTime {
		t.Errorf("minListenTime = %v, want %v", tr.minListenTime, DefaultMinListenTime)
	}
}

func TestRegistry_PerUserIsolation(t *testing.T) {
	clock := newSessionClock()
	reg := NewRegistry(DefaultConfig())

	observe := func(userID, trackID string) *events.TrackEvent {
		s := &events.PlaybackSnapshot{UserID: userID, TrackID: trackID, TrackName: "Song " + trackID, Playing: true}
		event := reg.Observe(events.SourceSpotify, s)
		return event
	}

	// Interleave two listeners; sessions must not bleed into each other.
	observe("alice", "t1")
	observe("bob", "t9")
	for _, tr := range reg.trackers {
		tr.now = clock.Now
	}

	clock.Advance(60 * time.Second)

	event := observe("alice", "t2")
	if event == nil {
		t.Fatal("alice's track change emitted nothing")
	}
	if event.UserID != "alice" || event.TrackID != "t1" {
		t.Errorf("event = %s/%s, want alice/t1", event.UserID, event.TrackID)
	}

	// Bob is still on t9; the same snapshot again is a tick, not a change.
	if event := observe("bob", "t9"); event != nil {
		t.Errorf("bob's repeated snapshot emitted %+v, want nil", event)
	}

	if got := reg.ActiveSessions(); got != 2 {
		t.Errorf("ActiveSessions() = %d, want 2", got)
	}
}

func TestRegistry_DropsAnonymousSnapshots(t *testing.T) {
	reg := NewRegistry(DefaultConfig())

	if event := reg.Observe(events.SourceAPI, &events.PlaybackSnapshot{TrackID: "t1"}); event != nil {
		t.Errorf("snapshot without user id emitted %+v, want nil", event)
	}
	if event := reg.Observe(events.SourceAPI, nil); event != nil {
		t.Errorf("nil snapshot emitted %+v, want nil", event)
	}
	if got := reg.ActiveSessions(); got != 0 {
		t.Errorf("ActiveSessions() = %d, want 0", got)
	}
}
