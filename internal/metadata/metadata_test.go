// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

package metadata

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/zmb3/spotify/v2"
)

func TestTrackFromSpotify(t *testing.T) {
	ft := &spotify.FullTrack{
		SimpleTrack: spotify.SimpleTrack{
			ID:       "track-1",
			Name:     "Neon Tide",
			Duration: 215000,
			Artists: []spotify.SimpleArtist{
				{ID: "artist-1", Name: "Glass Harbor"},
				{ID: "artist-2", Name: "Second Billing"},
			},
		},
		Album:      spotify.SimpleAlbum{Name: "Afterglow"},
		Popularity: 64,
	}
	artist := &spotify.FullArtist{
		SimpleArtist: spotify.SimpleArtist{ID: "artist-1", Name: "Glass Harbor"},
		Genres:       []string{"synthwave", "indie electronic"},
	}
	features := &spotify.AudioFeatures{
		Danceability:     0.71,
		Energy:           0.64,
		Loudness:         -7.2,
		Speechiness:      0.04,
		Instrumentalness: 0.31,
		Liveness:         0.12,
		Valence:          0.58,
		Acousticness:     0.22,
		Tempo:            118,
	}

	got := trackFromSpotify(ft, artist, features)

	if got.TrackID != "track-1" {
		t.Errorf("TrackID = %q, want track-1", got.TrackID)
	}
	if got.TrackName != "Neon Tide" {
		t.Errorf("TrackName = %q, want Neon Tide", got.TrackName)
	}
	if got.ArtistID != "artist-1" || got.ArtistName != "Glass Harbor" {
		t.Errorf("artist = %q/%q, want artist-1/Glass Harbor", got.ArtistID, got.ArtistName)
	}
	if got.AlbumName != "Afterglow" {
		t.Errorf("AlbumName = %q, want Afterglow", got.AlbumName)
	}
	if got.Popularity != 64 {
		t.Errorf("Popularity = %d, want 64", got.Popularity)
	}
	if got.DurationMs != 215000 {
		t.Errorf("DurationMs = %d, want 215000", got.DurationMs)
	}
	if len(got.Genres) != 2 || got.Genres[0] != "synthwave" || got.Genres[1] != "indie electronic" {
		t.Errorf("Genres = %v, want [synthwave, indie electronic]", got.Genres)
	}
	if got.Features.Danceability != float64(features.Danceability) {
		t.Errorf("Danceability = %v, want %v", got.Features.Danceability, float64(features.Danceability))
	}
	if got.Features.Tempo != float64(features.Tempo) {
		t.Errorf("Tempo = %v, want %v", got.Features.Tempo, float64(features.Tempo))
	}
	if got.Features.Loudness != float64(features.Loudness) {
		t.Errorf("Loudness = %v, want %v", got.Features.Loudness, float64(features.Loudness))
	}
}

func TestTrackFromSpotify_NoArtistDetail(t *testing.T) {
	ft := &spotify.FullTrack{
		SimpleTrack: spotify.SimpleTrack{ID: "track-2", Name: "Instrumental"},
	}
	features := &spotify.AudioFeatures{Tempo: 90}

	got := trackFromSpotify(ft, nil, features)

	if got.ArtistID != "" || got.ArtistName != "" {
		t.Errorf("artist = %q/%q, want empty", got.ArtistID, got.ArtistName)
	}
	if got.Genres == nil {
		t.Error("Genres should be an empty slice, not nil")
	}
	if len(got.Genres) != 0 {
		t.Errorf("Genres = %v, want empty", got.Genres)
	}
}

func TestStaticProvider(t *testing.T) {
	p := NewStaticProvider()
	p.Add(&Track{
		TrackID:    "track-1",
		TrackName:  "Neon Tide",
		ArtistID:   "artist-1",
		ArtistName: "Glass Harbor",
		Genres:     []string{"synthwave"},
		Features:   AudioFeatures{Danceability: 0.7, Tempo: 118},
	})

	got, err := p.TrackMetadata(context.Background(), "track-1")
	if err != nil {
		t.Fatalf("TrackMetadata: %v", err)
	}
	if got.TrackName != "Neon Tide" {
		t.Errorf("TrackName = %q, want Neon Tide", got.TrackName)
	}

	// Returned value is a copy. Caller mutation must not leak back.
	got.TrackName = "mutated"
	again, err := p.TrackMetadata(context.Background(), "track-1")
	if err != nil {
		t.Fatalf("TrackMetadata: %v", err)
	}
	if again.TrackName != "Neon Tide" {
		t.Errorf("fixture mutated through returned copy: %q", again.TrackName)
	}

	if _, err := p.TrackMetadata(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing track error = %v, want ErrNotFound", err)
	}
}

func TestLoadStaticProvider(t *testing.T) {
	fixture := `[
		{"track_id": "t1", "track_name": "One", "features": {"tempo": 100}},
		{"track_id": "t2", "track_name": "Two"},
		{"track_name": "No ID"},
		{"track_id": "", "track_name": "Empty ID"}
	]`
	path := filepath.Join(t.TempDir(), "tracks.json")
	if err := os.WriteFile(path, []byte(fixture), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	p, err := LoadStaticProvider(path)
	if err != nil {
		t.Fatalf("LoadStaticProvider: %v", err)
	}
	if p.Len() != 2 {
		t.Fatalf("Len = %d, want 2 (entries without track_id dropped)", p.Len())
	}

	got, err := p.TrackMetadata(context.Background(), "t1")
	if err != nil {
		t.Fatalf("TrackMetadata: %v", err)
	}
	if got.Features.Tempo != 100 {
		t.Errorf("Tempo = %v, want 100", got.Features.Tempo)
	}
}

func TestLoadStaticProvider_Errors(t *testing.T) {
	if _, err := LoadStaticProvider(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := LoadStaticProvider(path); err == nil {
		t.Error("expected error for malformed fixture")
	}
}

func TestDisabledProvider(t *testing.T) {
	p := DisabledProvider{}
	if _, err := p.TrackMetadata(context.Background(), "any"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
}
