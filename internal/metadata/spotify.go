// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

package metadata

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/tomtom215/auditus/internal/logging"
)

// SpotifyConfig holds credentials and client tuning for the Spotify
// Web API provider.
type SpotifyConfig struct {
	ClientID     string
	ClientSecret string

	// RequestsPerSecond caps outbound API calls. One metadata lookup
	// issues up to three calls.
	RequestsPerSecond float64
	Burst             int

	// BreakerThreshold is the consecutive-failure count that opens the
	// circuit. BreakerTimeout is how long it stays open.
	BreakerThreshold uint32
	BreakerTimeout   time.Duration
}

// DefaultSpotifyConfig returns production client settings. Credentials
// must still be supplied.
func DefaultSpotifyConfig() SpotifyConfig {
	return SpotifyConfig{
		RequestsPerSecond: 10,
		Burst:             5,
		BreakerThreshold:  5,
		BreakerTimeout:    2 * time.Minute,
	}
}

// SpotifyProvider fetches track metadata from the Spotify Web API.
//
// The circuit breaker uses real time for its open-state timeout; tests
// exercise the transform logic directly rather than the breaker.
type SpotifyProvider struct {
	client  *spotify.Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[*Track]
}

// NewSpotifyProvider authenticates with the client-credentials flow
// and returns a ready provider. The context governs token refreshes
// for the lifetime of the client.
func NewSpotifyProvider(ctx context.Context, cfg SpotifyConfig) (*SpotifyProvider, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("spotify credentials not configured")
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultSpotifyConfig().RequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultSpotifyConfig().Burst
	}
	if cfg.BreakerThreshold == 0 {
		cfg.BreakerThreshold = DefaultSpotifyConfig().BreakerThreshold
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = DefaultSpotifyConfig().BreakerTimeout
	}

	conf := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	httpClient := conf.Client(ctx)

	cb := gobreaker.NewCircuitBreaker[*Track](gobreaker.Settings{
		Name:        "spotify-api",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Spotify circuit breaker state change")
		},
	})

	return &SpotifyProvider{
		client:  spotify.New(httpClient),
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		cb:      cb,
	}, nil
}

// TrackMetadata resolves trackID via the Spotify Web API with rate
// limiting and circuit breaker protection.
func (p *SpotifyProvider) TrackMetadata(ctx context.Context, trackID string) (*Track, error) {
	return p.cb.Execute(func() (*Track, error) {
		return p.fetch(ctx, trackID)
	})
}

func (p *SpotifyProvider) fetch(ctx context.Context, trackID string) (*Track, error) {
	id := spotify.ID(trackID)

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	features, err := p.client.GetAudioFeatures(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get audio features: %w", err)
	}
	if len(features) == 0 || features[0] == nil {
		return nil, ErrNotFound
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	track, err := p.client.GetTrack(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get track: %w", err)
	}

	var artist *spotify.FullArtist
	if len(track.Artists) > 0 {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
		artist, err = p.client.GetArtist(ctx, track.Artists[0].ID)
		if err != nil {
			return nil, fmt.Errorf("get artist: %w", err)
		}
	}

	return trackFromSpotify(track, artist, features[0]), nil
}

// trackFromSpotify flattens the three Spotify API payloads into the
// local model.
func trackFromSpotify(track *spotify.FullTrack, artist *spotify.FullArtist, features *spotify.AudioFeatures) *Track {
	t := &Track{
		TrackID:    string(track.ID),
		TrackName:  track.Name,
		AlbumName:  track.Album.Name,
		Popularity: int(track.Popularity),
		DurationMs: int(track.Duration),
		Genres:     []string{},
		Features: AudioFeatures{
			Danceability:     float64(features.Danceability),
			Energy:           float64(features.Energy),
			Loudness:         float64(features.Loudness),
			Speechiness:      float64(features.Speechiness),
			Instrumentalness: float64(features.Instrumentalness),
			Liveness:         float64(features.Liveness),
			Valence:          float64(features.Valence),
			Acousticness:     float64(features.Acousticness),
			Tempo:            float64(features.Tempo),
		},
	}

	if len(track.Artists) > 0 {
		t.ArtistID = string(track.Artists[0].ID)
		t.ArtistName = track.Artists[0].Name
	}
	if artist != nil {
		t.Genres = append(t.Genres, artist.Genres...)
	}

	return t
}
