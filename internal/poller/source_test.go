// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

package poller

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/zmb3/spotify/v2"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func TestSimulatedSource_WalksPlaylist(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	playlist := []SimTrack{
		{TrackID: "a", TrackName: "A", Duration: time.Minute},
		{TrackID: "b", TrackName: "B", Duration: 2 * time.Minute},
	}
	src, err := NewSimulatedSource("u1", playlist, clock)
	if err != nil {
		t.Fatalf("NewSimulatedSource error: %v", err)
	}

	ctx := context.Background()

	snap, err := src.CurrentlyPlaying(ctx)
	if err != nil {
		t.Fatalf("CurrentlyPlaying error: %v", err)
	}
	if snap.TrackID != "a" || !snap.Playing || snap.UserID != "u1" {
		t.Errorf("first snapshot = %+v, want track a playing for u1", snap)
	}

	clock.Advance(90 * time.Second)
	snap, _ = src.CurrentlyPlaying(ctx)
	if snap.TrackID != "b" {
		t.Errorf("at +90s track = %s, want b", snap.TrackID)
	}
	if snap.ProgressMs != (30 * time.Second).Milliseconds() {
		t.Errorf("progress = %dms, want 30000", snap.ProgressMs)
	}

	// Past the end, the playlist loops.
	clock.Advance(2 * time.Minute)
	snap, _ = src.CurrentlyPlaying(ctx)
	if snap.TrackID != "a" {
		t.Errorf("after loop track = %s, want a", snap.TrackID)
	}
}

func TestSimulatedSource_Deterministic(t *testing.T) {
	t.Parallel()

	build := func() *SimulatedSource {
		src, err := NewSimulatedSource("u1", DefaultPlaylist(), newFakeClock())
		if err != nil {
			t.Fatalf("NewSimulatedSource error: %v", err)
		}
		return src
	}

	a, _ := build().CurrentlyPlaying(context.Background())
	b, _ := build().CurrentlyPlaying(context.Background())
	if a.TrackID != b.TrackID || a.ProgressMs != b.ProgressMs {
		t.Errorf("identical clocks produced different snapshots: %+v vs %+v", a, b)
	}
}

func TestSimulatedSource_Validation(t *testing.T) {
	t.Parallel()

	if _, err := NewSimulatedSource("u1", nil, nil); err == nil {
		t.Error("empty playlist should be rejected")
	}
	if _, err := NewSimulatedSource("u1", []SimTrack{{TrackID: "a"}}, nil); err == nil {
		t.Error("zero duration should be rejected")
	}
}

func TestNewSpotifySource_Validation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if _, err := NewSpotifySource(ctx, "", "token"); err == nil {
		t.Error("missing user id should be rejected")
	}
	if _, err := NewSpotifySource(ctx, "u1", ""); err == nil {
		t.Error("missing token should be rejected")
	}
}

func TestSnapshotFromCurrentlyPlaying(t *testing.T) {
	t.Parallel()

	cp := &spotify.CurrentlyPlaying{
		Playing:  true,
		Progress: 42000,
		Item: &spotify.FullTrack{
			SimpleTrack: spotify.SimpleTrack{
				ID:   "track-1",
				Name: "Neon Tide",
				Artists: []spotify.SimpleArtist{
					{ID: "artist-1", Name: "Glass Harbor"},
				},
			},
			Album: spotify.SimpleAlbum{Name: "Afterglow"},
		},
	}

	snap := snapshotFromCurrentlyPlaying("u1", cp, 1234)
	if snap == nil {
		t.Fatal("snapshot is nil")
	}
	if snap.TrackID != "track-1" || snap.ArtistName != "Glass Harbor" || snap.Album != "Afterglow" {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.ProgressMs != 42000 || !snap.Playing || snap.Timestamp != 1234 {
		t.Errorf("snapshot fields = %+v", snap)
	}
}

func TestSnapshotFromCurrentlyPlaying_NothingPlaying(t *testing.T) {
	t.Parallel()

	if snap := snapshotFromCurrentlyPlaying("u1", nil, 1); snap != nil {
		t.Errorf("nil response should map to nil, got %+v", snap)
	}
	if snap := snapshotFromCurrentlyPlaying("u1", &spotify.CurrentlyPlaying{}, 1); snap != nil {
		t.Errorf("no item should map to nil, got %+v", snap)
	}
}
