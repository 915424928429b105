// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

package taste

import (
	"math"
	"strings"

	"github.com/tomtom215/auditus/internal/profile"
)

// EmbeddingVersion tags vectors produced by this builder. Bump it when the
// feature layout changes; queues stamped with an older version are
// discarded on the next read.
const EmbeddingVersion = "v1"

// Default tempo normalization bounds in BPM.
const (
	DefaultTempoMin = 50.0
	DefaultTempoMax = 200.0
)

// baseFeatureOrder is the audio half of every embedding. Genre dimensions
// follow in vocabulary order.
var baseFeatureOrder = []string{
	"danceability",
	"energy",
	"valence",
	"acousticness",
	"tempo_normalized",
}

// EmbeddingConfig controls the embedding layout. It must match the layout
// the item catalog vectors were built with or cosine scores are meaningless.
type EmbeddingConfig struct {
	// GenreVocab is the normalized genre vocabulary, one embedding
	// dimension per entry, in order.
	GenreVocab []string
	TempoMin   float64
	TempoMax   float64
}

// DefaultEmbeddingConfig returns the default bounds and an empty vocabulary.
func DefaultEmbeddingConfig() EmbeddingConfig {
	return EmbeddingConfig{TempoMin: DefaultTempoMin, TempoMax: DefaultTempoMax}
}

// TempoBounds returns the configured normalization range, falling back to
// the defaults when the range is empty or inverted.
func (c EmbeddingConfig) TempoBounds() (float64, float64) {
	if c.TempoMax <= c.TempoMin {
		return DefaultTempoMin, DefaultTempoMax
	}
	return c.TempoMin, c.TempoMax
}

// Dimensions returns the embedding length this config produces.
func (c EmbeddingConfig) Dimensions() int {
	return len(baseFeatureOrder) + len(c.GenreVocab)
}

// BuildEmbedding derives the user embedding from the profile's audio means
// and genre counts. The result depends only on the profile and config:
// rebuilding an unchanged profile yields a bit-identical vector. Genre
// counts are integers, so summing them is exact in any map iteration order.
func BuildEmbedding(p *profile.UserProfile, cfg EmbeddingConfig) ([]float64, *profile.EmbeddingMeta) {
	tempoMin, tempoMax := cfg.TempoBounds()

	embedding := make([]float64, 0, cfg.Dimensions())
	embedding = append(embedding,
		p.AudioProfile.AvgDanceability,
		p.AudioProfile.AvgEnergy,
		p.AudioProfile.AvgValence,
		p.AudioProfile.AvgAcousticness,
		normalizeMinMax(p.AudioProfile.AvgTempo, tempoMin, tempoMax),
	)

	var total float64
	for _, count := range p.GenreAffinity {
		total += float64(count)
	}
	for _, genre := range cfg.GenreVocab {
		if total > 0 {
			embedding = append(embedding, float64(p.GenreAffinity[genre])/total)
		} else {
			embedding = append(embedding, 0.0)
		}
	}

	featureOrder := make([]string, 0, cfg.Dimensions())
	featureOrder = append(featureOrder, baseFeatureOrder...)
	vocab := make([]string, 0, len(cfg.GenreVocab))
	for _, genre := range cfg.GenreVocab {
		featureOrder = append(featureOrder, "genre_"+genre)
		vocab = append(vocab, genre)
	}

	meta := &profile.EmbeddingMeta{
		EmbeddingVersion: EmbeddingVersion,
		FeatureOrder:     featureOrder,
		GenreVocab:       vocab,
		TempoMin:         tempoMin,
		TempoMax:         tempoMax,
	}
	return embedding, meta
}

// EnsureEmbedding returns the profile's stored embedding when present,
// otherwise derives one on the fly without mutating the profile. The bool
// reports whether the vector came from the store.
func EnsureEmbedding(p *profile.UserProfile, cfg EmbeddingConfig) ([]float64, bool) {
	if len(p.UserEmbedding) > 0 {
		return p.UserEmbedding, true
	}
	embedding, _ := BuildEmbedding(p, cfg)
	return embedding, false
}

// normalizeMinMax scales value into [0, 1] against the given bounds,
// clamping out-of-range inputs.
func normalizeMinMax(value, minValue, maxValue float64) float64 {
	if maxValue <= minValue {
		return 0.0
	}
	normalized := (value - minValue) / (maxValue - minValue)
	return math.Max(0.0, math.Min(1.0, normalized))
}

// NormalizeGenre trims a raw label and replaces spaces with underscores so
// affinity keys, vocabulary entries, and feature names all agree.
func NormalizeGenre(label string) string {
	return strings.ReplaceAll(strings.TrimSpace(label), " ", "_")
}

// ParseGenreVocab splits a comma-separated vocabulary into normalized
// labels, dropping blanks.
func ParseGenreVocab(raw string) []string {
	if raw == "" {
		return nil
	}
	var vocab []string
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		vocab = append(vocab, NormalizeGenre(part))
	}
	return vocab
}
