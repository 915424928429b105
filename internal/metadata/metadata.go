// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

package metadata

import (
	"context"
	"errors"
)

// ErrNotFound is returned when the provider has no record of a track.
var ErrNotFound = errors.New("track metadata not found")

// ErrUnavailable is returned when no metadata provider is configured.
var ErrUnavailable = errors.New("metadata provider unavailable")

// AudioFeatures are the numeric audio descriptors of one track.
type AudioFeatures struct {
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Loudness         float64 `json:"loudness"`
	Speechiness      float64 `json:"speechiness"`
	Instrumentalness float64 `json:"instrumentalness"`
	Liveness         float64 `json:"liveness"`
	Valence          float64 `json:"valence"`
	Acousticness     float64 `json:"acousticness"`
	Tempo            float64 `json:"tempo"`
}

// Track bundles everything the taste engine needs to know about one
// track: its audio features plus the primary artist and their genres.
type Track struct {
	TrackID    string        `json:"track_id"`
	TrackName  string        `json:"track_name"`
	ArtistID   string        `json:"artist_id"`
	ArtistName string        `json:"artist_name"`
	AlbumName  string        `json:"album_name"`
	Popularity int           `json:"popularity"`
	DurationMs int           `json:"duration_ms"`
	Genres     []string      `json:"genres"`
	Features   AudioFeatures `json:"features"`
}

// Provider resolves a track id into its metadata.
type Provider interface {
	TrackMetadata(ctx context.Context, trackID string) (*Track, error)
}

// DisabledProvider is installed when no real provider is configured.
// Every lookup fails with ErrUnavailable.
type DisabledProvider struct{}

// TrackMetadata always returns ErrUnavailable.
func (DisabledProvider) TrackMetadata(ctx context.Context, trackID string) (*Track, error) {
	return nil, ErrUnavailable
}
