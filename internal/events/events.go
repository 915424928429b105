// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

// Package events defines the canonical track event and playback snapshot
// shapes exchanged between the session tracker, the event bus, and the
// taste pipeline.
package events

import (
	"time"

	"github.com/google/uuid"
)

// SchemaVersion is the current event schema version.
// Increment this when making breaking changes to TrackEvent.
const SchemaVersion = 1

// Track status constants. Status is derived by the session tracker,
// never supplied by a producer.
const (
	// StatusCompleted indicates the track played at least the minimum
	// listen time before the listener moved on.
	StatusCompleted = "COMPLETED"
	// StatusSkipped indicates the track was abandoned before the minimum
	// listen time elapsed.
	StatusSkipped = "SKIPPED"
)

// Source constants for snapshot producers.
const (
	// SourceSpotify indicates the snapshot came from the Spotify player poller.
	SourceSpotify = "spotify"
	// SourceAPI indicates the snapshot arrived via the ingest endpoint.
	SourceAPI = "api"
	// SourceSimulator indicates the deterministic development source.
	SourceSimulator = "simulator"
)

// PlaybackSnapshot is one observation of a listener's player state.
// Snapshots are ephemeral: consumed once by the session tracker and
// never persisted.
type PlaybackSnapshot struct {
	UserID     string `json:"user_id"`
	TrackID    string `json:"track_id"`
	TrackName  string `json:"track_name,omitempty"`
	ArtistID   string `json:"artist_id,omitempty"`
	ArtistName string `json:"artist_name,omitempty"`
	Album      string `json:"album,omitempty"`
	ProgressMs int64  `json:"progress_ms,omitempty"`
	Playing    bool   `json:"playing"`
	Timestamp  int64  `json:"timestamp"` // unix seconds
}

// HasTrack reports whether the snapshot carries a track at all.
// A snapshot without a track id (nothing playing, ad break, private
// session) produces no state transition.
func (s *PlaybackSnapshot) HasTrack() bool {
	return s != nil && s.TrackID != ""
}

// TrackEvent is the canonical event emitted once per track transition.
// It is published to the bus keyed by user id and consumed by the taste
// pipeline, the analytics sink, and the live feed.
type TrackEvent struct {
	// Schema version for forward/backward compatibility
	SchemaVersion int `json:"schema_version,omitempty"`

	// Identification
	EventID string `json:"event_id"`
	UserID  string `json:"user_id"`
	Source  string `json:"source"` // spotify, api, simulator

	// Track transition
	TrackID          string `json:"track_id"`
	TrackName        string `json:"track_name,omitempty"`
	Status           string `json:"status"`            // COMPLETED or SKIPPED
	DurationListened int64  `json:"duration_listened"` // seconds
	Timestamp        int64  `json:"timestamp"`         // unix seconds
}

// NewTrackEvent creates an event with a unique ID, timestamp, and schema
// version. The caller fills in the transition fields.
func NewTrackEvent(userID, source string) *TrackEvent {
	return &TrackEvent{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.New().String(),
		UserID:        userID,
		Source:        source,
		Timestamp:     time.Now().UTC().Unix(),
	}
}

// GetSchemaVersion returns the schema version, defaulting to 1 for events
// serialized before the field existed.
func (e *TrackEvent) GetSchemaVersion() int {
	if e.SchemaVersion == 0 {
		return 1
	}
	return e.SchemaVersion
}

// Validate checks required fields and returns an error if validation fails.
func (e *TrackEvent) Validate() error {
	if e.EventID == "" {
		return &ValidationError{Field: "event_id", Message: "required"}
	}
	if e.UserID == "" {
		return &ValidationError{Field: "user_id", Message: "required"}
	}
	if e.TrackID == "" {
		return &ValidationError{Field: "track_id", Message: "required"}
	}
	if e.Status != StatusCompleted && e.Status != StatusSkipped {
		return &ValidationError{Field: "status", Message: "must be COMPLETED or SKIPPED"}
	}
	if e.DurationListened < 0 {
		return &ValidationError{Field: "duration_listened", Message: "must be non-negative"}
	}
	if e.Timestamp <= 0 {
		return &ValidationError{Field: "timestamp", Message: "required"}
	}
	return nil
}

// Completed reports whether the track reached the minimum listen time.
func (e *TrackEvent) Completed() bool {
	return e.Status == StatusCompleted
}

// Topic returns the NATS subject for this event.
// Format: listening.<source>.track
// Example: listening.spotify.track
func (e *TrackEvent) Topic() string {
	source := e.Source
	if source == "" {
		source = "unknown"
	}
	return "listening." + source + ".track"
}

// ValidationError represents a field validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
