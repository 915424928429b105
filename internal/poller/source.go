// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

package poller

import (
	"context"
	"fmt"
	"time"

	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"

	"github.com/tomtom215/auditus/internal/cache"
	"github.com/tomtom215/auditus/internal/events"
)

// PlayerSource reads the listener's current player state. A nil
// snapshot with nil error means nothing is playing.
type PlayerSource interface {
	CurrentlyPlaying(ctx context.Context) (*events.PlaybackSnapshot, error)
}

// SpotifySource reads the currently-playing endpoint. The token must
// be user-authorized with the user-read-playback-state scope; client
// credentials cannot see a player.
type SpotifySource struct {
	client *spotify.Client
	userID string
}

// NewSpotifySource creates a source for one listener's player.
func NewSpotifySource(ctx context.Context, userID, accessToken string) (*SpotifySource, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id required")
	}
	if accessToken == "" {
		return nil, fmt.Errorf("access token required")
	}

	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
	}))
	return &SpotifySource{
		client: spotify.New(httpClient),
		userID: userID,
	}, nil
}

// CurrentlyPlaying fetches and flattens the player state.
func (s *SpotifySource) CurrentlyPlaying(ctx context.Context) (*events.PlaybackSnapshot, error) {
	cp, err := s.client.PlayerCurrentlyPlaying(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch currently playing: %w", err)
	}
	return snapshotFromCurrentlyPlaying(s.userID, cp, time.Now().UTC().Unix()), nil
}

// snapshotFromCurrentlyPlaying flattens the API response. A response
// with no item (nothing playing, ad break, private session) maps to
// nil.
func snapshotFromCurrentlyPlaying(userID string, cp *spotify.CurrentlyPlaying, now int64) *events.PlaybackSnapshot {
	if cp == nil || cp.Item == nil {
		return nil
	}

	snap := &events.PlaybackSnapshot{
		UserID:     userID,
		TrackID:    string(cp.Item.ID),
		TrackName:  cp.Item.Name,
		Album:      cp.Item.Album.Name,
		ProgressMs: int64(cp.Progress),
		Playing:    cp.Playing,
		Timestamp:  now,
	}
	if len(cp.Item.Artists) > 0 {
		snap.ArtistID = string(cp.Item.Artists[0].ID)
		snap.ArtistName = cp.Item.Artists[0].Name
	}
	return snap
}

// SimTrack is one entry in the simulated playlist.
type SimTrack struct {
	TrackID    string
	TrackName  string
	ArtistID   string
	ArtistName string
	Album      string
	Duration   time.Duration
}

// SimulatedSource plays a fixed playlist on a wall clock, for
// development and tests. Deterministic: given the same clock readings
// it reports the same snapshots.
type SimulatedSource struct {
	userID   string
	playlist []SimTrack
	clock    cache.Clock
	start    time.Time
	total    time.Duration
}

// NewSimulatedSource creates a source that loops the playlist forever.
func NewSimulatedSource(userID string, playlist []SimTrack, clock cache.Clock) (*SimulatedSource, error) {
	if len(playlist) == 0 {
		return nil, fmt.Errorf("playlist required")
	}
	if clock == nil {
		clock = cache.RealClock{}
	}

	var total time.Duration
	for i, tr := range playlist {
		if tr.Duration <= 0 {
			return nil, fmt.Errorf("track %d has non-positive duration", i)
		}
		total += tr.Duration
	}

	return &SimulatedSource{
		userID:   userID,
		playlist: playlist,
		clock:    clock,
		start:    clock.Now(),
		total:    total,
	}, nil
}

// DefaultPlaylist returns a small fixture playlist for dev runs.
func DefaultPlaylist() []SimTrack {
	return []SimTrack{
		{TrackID: "sim-001", TrackName: "Opening Theme", ArtistID: "sim-artist-1", ArtistName: "The Simulators", Album: "Test Signals", Duration: 3 * time.Minute},
		{TrackID: "sim-002", TrackName: "Second Movement", ArtistID: "sim-artist-1", ArtistName: "The Simulators", Album: "Test Signals", Duration: 4 * time.Minute},
		{TrackID: "sim-003", TrackName: "Closing Credits", ArtistID: "sim-artist-2", ArtistName: "Null Device", Album: "Fixtures", Duration: 2 * time.Minute},
	}
}

// CurrentlyPlaying reports the track at the current clock offset into
// the looped playlist.
func (s *SimulatedSource) CurrentlyPlaying(_ context.Context) (*events.PlaybackSnapshot, error) {
	now := s.clock.Now()
	elapsed := now.Sub(s.start) % s.total

	for _, tr := range s.playlist {
		if elapsed < tr.Duration {
			return &events.PlaybackSnapshot{
				UserID:     s.userID,
				TrackID:    tr.TrackID,
				TrackName:  tr.TrackName,
				ArtistID:   tr.ArtistID,
				ArtistName: tr.ArtistName,
				Album:      tr.Album,
				ProgressMs: elapsed.Milliseconds(),
				Playing:    true,
				Timestamp:  now.UTC().Unix(),
			}, nil
		}
		elapsed -= tr.Duration
	}

	// Unreachable: elapsed is always inside the playlist.
	return nil, nil
}
