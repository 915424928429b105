// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

package taste

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/auditus/internal/events"
	"github.com/tomtom215/auditus/internal/logging"
	"github.com/tomtom215/auditus/internal/metadata"
	"github.com/tomtom215/auditus/internal/metrics"
	"github.com/tomtom215/auditus/internal/profile"
)

// Config holds taste pipeline settings.
type Config struct {
	Embedding EmbeddingConfig
}

// DefaultConfig returns the default pipeline settings.
func DefaultConfig() Config {
	return Config{Embedding: DefaultEmbeddingConfig()}
}

// Engine applies track events to user taste profiles.
type Engine struct {
	store    profile.Store
	provider metadata.Provider
	cfg      Config
	now      func() time.Time
}

// NewEngine creates an engine. A nil provider disables metadata enrichment;
// plays still count, feature means stay frozen.
func NewEngine(store profile.Store, provider metadata.Provider, cfg Config) *Engine {
	if provider == nil {
		provider = metadata.DisabledProvider{}
	}
	return &Engine{
		store:    store,
		provider: provider,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// HandleEvent folds one track event into the listener's profile and
// persists the result. Store errors are returned so the bus can retry;
// metadata failures degrade to a counters-only update.
func (e *Engine) HandleEvent(ctx context.Context, ev *events.TrackEvent) error {
	if err := ev.Validate(); err != nil {
		return fmt.Errorf("validate event: %w", err)
	}

	start := time.Now()
	now := e.now().Unix()

	p, err := e.store.Get(ctx, ev.UserID)
	switch {
	case errors.Is(err, profile.ErrNotFound):
		p = profile.New(ev.UserID, now)
	case err != nil:
		metrics.RecordProfileUpdateError("load")
		return fmt.Errorf("load profile for %s: %w", ev.UserID, err)
	}

	var track *metadata.Track
	if ev.Status == events.StatusCompleted {
		track = e.lookupMetadata(ctx, ev)
	}

	Apply(p, ev, track, now, e.cfg.Embedding)

	if err := e.store.Put(ctx, p); err != nil {
		metrics.RecordProfileUpdateError("persist")
		return fmt.Errorf("persist profile for %s: %w", ev.UserID, err)
	}

	metrics.RecordProfileUpdate(ev.Status, time.Since(start))
	logging.Debug().
		Str("user_id", ev.UserID).
		Str("track_id", ev.TrackID).
		Str("status", ev.Status).
		Int64("samples", p.AudioProfile.Samples).
		Int64("plays", p.TotalTracksPlayed).
		Msg("Updated taste profile")
	return nil
}

// lookupMetadata resolves metadata for a completed listen. Any failure
// returns nil and the play is recorded without feature data.
func (e *Engine) lookupMetadata(ctx context.Context, ev *events.TrackEvent) *metadata.Track {
	start := time.Now()
	track, err := e.provider.TrackMetadata(ctx, ev.TrackID)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		metrics.RecordMetadataLookup("hit", elapsed)
		return track
	case errors.Is(err, metadata.ErrUnavailable):
		metrics.RecordMetadataLookup("unavailable", elapsed)
	case errors.Is(err, metadata.ErrNotFound):
		metrics.RecordMetadataLookup("miss", elapsed)
		logging.Warn().
			Str("user_id", ev.UserID).
			Str("track_id", ev.TrackID).
			Msg("Track metadata not found; recording play without features")
	default:
		metrics.RecordMetadataLookup("error", elapsed)
		logging.Warn().
			Err(err).
			Str("user_id", ev.UserID).
			Str("track_id", ev.TrackID).
			Msg("Track metadata lookup failed; recording play without features")
	}
	return nil
}

// Apply folds a single track event into the profile in place. A nil track
// means metadata did not resolve; counters, history, queue eviction, and
// the embedding rebuild still run.
func Apply(p *profile.UserProfile, ev *events.TrackEvent, track *metadata.Track, now int64, emb EmbeddingConfig) {
	p.UpdatedAt = now
	p.LastEventTS = now
	p.TotalTracksPlayed++

	switch ev.Status {
	case events.StatusCompleted:
		p.TotalCompletions++
		if track != nil {
			applyAudioFeatures(&p.AudioProfile, track.Features)
			p.GenreAffinity = applyGenres(p.GenreAffinity, track.Genres)
			p.ArtistAffinity = applyArtistPlay(p.ArtistAffinity, track.ArtistID, track.ArtistName, now)
		}
	case events.StatusSkipped:
		p.TotalSkips++
	}

	p.RecentHistory.Push(profile.HistoryEntry{TrackID: ev.TrackID, Status: ev.Status, TS: now})
	p.RecommendationQueue.Remove(ev.TrackID)

	embedding, meta := BuildEmbedding(p, emb)
	p.UserEmbedding = embedding
	p.EmbeddingMeta = meta
	p.EmbeddingVersion = EmbeddingVersion
	p.EmbeddingUpdatedAt = now
}

// applyAudioFeatures advances the running means. All five features use the
// sample count from before this track, then the count advances once.
func applyAudioFeatures(ap *profile.AudioProfile, f metadata.AudioFeatures) {
	samples := ap.Samples
	ap.AvgDanceability = runningMean(ap.AvgDanceability, samples, f.Danceability)
	ap.AvgEnergy = runningMean(ap.AvgEnergy, samples, f.Energy)
	ap.AvgValence = runningMean(ap.AvgValence, samples, f.Valence)
	ap.AvgAcousticness = runningMean(ap.AvgAcousticness, samples, f.Acousticness)
	ap.AvgTempo = runningMean(ap.AvgTempo, samples, f.Tempo)
	ap.Samples = samples + 1
}

func runningMean(avg float64, samples int64, value float64) float64 {
	return (avg*float64(samples) + value) / float64(samples+1)
}

// applyGenres bumps the affinity count for each normalized genre label.
func applyGenres(affinity map[string]int64, genres []string) map[string]int64 {
	if affinity == nil {
		affinity = make(map[string]int64, len(genres))
	}
	for _, genre := range genres {
		key := NormalizeGenre(genre)
		if key == "" {
			continue
		}
		affinity[key]++
	}
	return affinity
}

// applyArtistPlay bumps the artist's affinity, appending an entry for
// first-time artists. Insertion order is preserved, so the list reads
// oldest favorite first.
func applyArtistPlay(list []profile.ArtistAffinity, artistID, name string, now int64) []profile.ArtistAffinity {
	if artistID == "" {
		return list
	}
	for i := range list {
		if list[i].ArtistID == artistID {
			list[i].Affinity++
			list[i].LastPlayedTS = now
			return list
		}
	}
	return append(list, profile.ArtistAffinity{
		ArtistID:     artistID,
		Name:         name,
		Affinity:     1,
		LastPlayedTS: now,
	})
}
