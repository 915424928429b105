// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

package profile

import (
	"fmt"

	"github.com/goccy/go-json"
)

// HistoryCapacity bounds recent_history. Older entries fall off the end.
const HistoryCapacity = 20

// AudioProfile holds streaming-mean averages over the audio features of
// every completed listen, together with the sample count they were
// computed from.
type AudioProfile struct {
	AvgDanceability float64 `json:"avg_danceability"`
	AvgEnergy       float64 `json:"avg_energy"`
	AvgValence      float64 `json:"avg_valence"`
	AvgAcousticness float64 `json:"avg_acousticness"`
	AvgTempo        float64 `json:"avg_tempo"`
	Samples         int64   `json:"samples"`
}

// ArtistAffinity counts completed listens per artist. Entries keep the
// order the artist was first seen in.
type ArtistAffinity struct {
	ArtistID     string `json:"artist_id"`
	Name         string `json:"name"`
	Affinity     int64  `json:"affinity"`
	LastPlayedTS int64  `json:"last_played_ts"`
}

// HistoryEntry records one closed-out listen.
type HistoryEntry struct {
	TrackID string `json:"track_id"`
	Status  string `json:"status"`
	TS      int64  `json:"ts"`
}

// History is a bounded newest-first log of the last HistoryCapacity
// listens. It serializes as a plain JSON array.
type History struct {
	entries []HistoryEntry
}

// Push inserts an entry at the front, evicting the oldest entry once
// the buffer is full.
func (h *History) Push(entry HistoryEntry) {
	if len(h.entries) < HistoryCapacity {
		h.entries = append(h.entries, HistoryEntry{})
	}
	copy(h.entries[1:], h.entries)
	h.entries[0] = entry
}

// Len reports how many entries are held.
func (h *History) Len() int {
	return len(h.entries)
}

// Entries returns the log newest-first. Callers must not mutate the
// returned slice.
func (h *History) Entries() []HistoryEntry {
	return h.entries
}

// TrackIDs returns the track ids in the log, newest first.
func (h *History) TrackIDs() []string {
	ids := make([]string, len(h.entries))
	for i := range h.entries {
		ids[i] = h.entries[i].TrackID
	}
	return ids
}

// MarshalJSON encodes the log as a bare array.
func (h History) MarshalJSON() ([]byte, error) {
	if h.entries == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(h.entries)
}

// UnmarshalJSON decodes a bare array, truncating oversized documents
// written before the capacity was enforced.
func (h *History) UnmarshalJSON(data []byte) error {
	var entries []HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("unmarshal history: %w", err)
	}
	if len(entries) > HistoryCapacity {
		entries = entries[:HistoryCapacity]
	}
	h.entries = entries
	return nil
}

// TrackQueue is an ordered list of recommended track ids. Early
// documents stored entries as {"track_id": "..."} objects rather than
// bare strings; decoding accepts both forms and encoding always writes
// bare strings.
type TrackQueue []string

// UnmarshalJSON decodes either bare-string or object-form entries.
// Entries of any other shape are dropped.
func (q *TrackQueue) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshal queue: %w", err)
	}

	ids := make([]string, 0, len(raw))
	for _, entry := range raw {
		var id string
		if err := json.Unmarshal(entry, &id); err == nil {
			ids = append(ids, id)
			continue
		}
		var obj struct {
			TrackID string `json:"track_id"`
		}
		if err := json.Unmarshal(entry, &obj); err == nil && obj.TrackID != "" {
			ids = append(ids, obj.TrackID)
		}
	}
	*q = ids
	return nil
}

// Remove deletes the first occurrence of trackID, reporting whether
// anything was removed.
func (q *TrackQueue) Remove(trackID string) bool {
	for i, id := range *q {
		if id == trackID {
			*q = append((*q)[:i], (*q)[i+1:]...)
			return true
		}
	}
	return false
}

// Contains reports whether trackID is queued.
func (q TrackQueue) Contains(trackID string) bool {
	for _, id := range q {
		if id == trackID {
			return true
		}
	}
	return false
}

// EmbeddingMeta describes the layout an embedding vector was built
// under. A ranking pass compares it against the current configuration
// to detect vectors built with a different vocabulary or tempo bounds.
type EmbeddingMeta struct {
	EmbeddingVersion string   `json:"embedding_version"`
	FeatureOrder     []string `json:"feature_order"`
	GenreVocab       []string `json:"genre_vocab"`
	TempoMin         float64  `json:"tempo_min"`
	TempoMax         float64  `json:"tempo_max"`
}

// UserProfile is the durable taste document for one listener.
type UserProfile struct {
	UserID      string `json:"user_id"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
	LastEventTS int64  `json:"last_event_ts"`

	AudioProfile   AudioProfile     `json:"audio_profile"`
	GenreAffinity  map[string]int64 `json:"genre_affinity"`
	ArtistAffinity []ArtistAffinity `json:"artist_affinity"`
	RecentHistory  History          `json:"recent_history"`

	TotalTracksPlayed int64 `json:"total_tracks_played"`
	TotalCompletions  int64 `json:"total_completions"`
	TotalSkips        int64 `json:"total_skips"`

	UserEmbedding      []float64      `json:"user_embedding"`
	EmbeddingMeta      *EmbeddingMeta `json:"embedding_meta,omitempty"`
	EmbeddingVersion   string         `json:"embedding_version"`
	EmbeddingUpdatedAt int64          `json:"embedding_updated_at"`

	RecommendationQueue   TrackQueue `json:"recommendation_queue"`
	QueueUpdatedAt        int64      `json:"queue_updated_at"`
	QueueEmbeddingVersion string     `json:"queue_embedding_version"`
	QueueEmbeddingTS      int64      `json:"queue_embedding_ts"`
}

// New creates an empty profile for userID with all counters at zero.
func New(userID string, now int64) *UserProfile {
	return &UserProfile{
		UserID:              userID,
		CreatedAt:           now,
		UpdatedAt:           now,
		LastEventTS:         now,
		GenreAffinity:       make(map[string]int64),
		ArtistAffinity:      []ArtistAffinity{},
		RecommendationQueue: TrackQueue{},
	}
}
