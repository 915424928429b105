// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/auditus/internal/analytics"
	"github.com/tomtom215/auditus/internal/events"
	"github.com/tomtom215/auditus/internal/livefeed"
	"github.com/tomtom215/auditus/internal/logging"
	"github.com/tomtom215/auditus/internal/metrics"
	"github.com/tomtom215/auditus/internal/profile"
	"github.com/tomtom215/auditus/internal/tracker"
)

const (
	maxIngestBodyBytes = 64 * 1024
	defaultHistorySize = 50
	maxHistorySize     = 500
	maxQueueSize       = 100
)

// EventPublisher pushes emitted track events onto the bus.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event *events.TrackEvent) error
}

// Recommender serves the per-user recommendation queue.
type Recommender interface {
	Recommend(ctx context.Context, userID string, size int) ([]string, error)
}

// HistoryStore reads recent events from the analytics store.
type HistoryStore interface {
	RecentEventsByUser(ctx context.Context, userID string, limit int) ([]analytics.EventRow, error)
	Ping(ctx context.Context) error
}

// Handlers holds every dependency the HTTP endpoints need. Optional
// dependencies (publisher, history, hub) may be nil; the corresponding
// endpoints then degrade rather than panic.
type Handlers struct {
	registry  *tracker.Registry
	profiles  profile.Store
	ranker    Recommender
	publisher EventPublisher
	history   HistoryStore
	hub       *livefeed.Hub

	version   string
	startTime time.Time
}

// HandlersConfig wires the dependencies for NewHandlers.
type HandlersConfig struct {
	Registry  *tracker.Registry
	Profiles  profile.Store
	Ranker    Recommender
	Publisher EventPublisher
	History   HistoryStore
	Hub       *livefeed.Hub
	Version   string
}

// NewHandlers builds the endpoint set. Registry, Profiles and Ranker are
// required.
func NewHandlers(cfg HandlersConfig) (*Handlers, error) {
	if cfg.Registry == nil {
		return nil, errors.New("api: tracker registry is required")
	}
	if cfg.Profiles == nil {
		return nil, errors.New("api: profile store is required")
	}
	if cfg.Ranker == nil {
		return nil, errors.New("api: recommender is required")
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	return &Handlers{
		registry:  cfg.Registry,
		profiles:  cfg.Profiles,
		ranker:    cfg.Ranker,
		publisher: cfg.Publisher,
		history:   cfg.History,
		hub:       cfg.Hub,
		version:   version,
		startTime: time.Now(),
	}, nil
}

// ingestRequest is the body of POST /api/v1/ingest/snapshot. Source
// names the player integration pushing the snapshot.
type ingestRequest struct {
	Source   string                  `json:"source" validate:"required,max=64"`
	Snapshot *events.PlaybackSnapshot `json:"snapshot" validate:"required"`
}

// ingestResponse reports what the tracker made of the snapshot.
type ingestResponse struct {
	Accepted bool               `json:"accepted"`
	Event    *events.TrackEvent `json:"event,omitempty"`
}

// IngestSnapshot accepts a playback snapshot from an external player
// integration, runs it through the session tracker and publishes any
// emitted transition event.
func (h *Handlers) IngestSnapshot(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxIngestBodyBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Failed to read request body", err)
		return
	}

	var req ingestRequest
	if err := json.Unmarshal(body, &req); err != nil {
		metrics.RecordMalformedSnapshot("api")
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Malformed JSON body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		metrics.RecordMalformedSnapshot("api")
		respondJSON(w, http.StatusBadRequest, &APIResponse{
			Status:   "error",
			Metadata: Metadata{Timestamp: time.Now()},
			Error:    apiErr,
		})
		return
	}
	if req.Snapshot.UserID == "" {
		metrics.RecordMalformedSnapshot(req.Source)
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "snapshot.user_id is required", nil)
		return
	}
	if req.Snapshot.Timestamp == 0 {
		req.Snapshot.Timestamp = time.Now().Unix()
	}

	metrics.RecordSnapshot(req.Source)
	event := h.registry.Observe(req.Source, req.Snapshot)
	metrics.SetActiveSessions(h.registry.ActiveSessions())
	resp := ingestResponse{Accepted: true, Event: event}

	if event != nil && h.publisher != nil {
		if err := h.publisher.PublishEvent(r.Context(), event); err != nil {
			logging.Error().Err(err).
				Str("user_id", event.UserID).
				Str("event_id", event.EventID).
				Msg("Failed to publish ingested event")
			respondError(w, http.StatusBadGateway, "PUBLISH_ERROR",
				"Snapshot observed but event publish failed", err)
			return
		}
	}
	if event != nil {
		metrics.RecordTrackEvent(event.Source, event.Status)
	}

	respondOK(w, http.StatusAccepted, resp)
}

// Profile returns the taste profile for a user.
func (h *Handlers) Profile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "userID path parameter is required", nil)
		return
	}

	start := time.Now()
	p, err := h.profiles.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "No profile for user", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "STORAGE_ERROR", "Profile lookup failed", err)
		return
	}

	respondJSON(w, http.StatusOK, &APIResponse{
		Status: "ok",
		Data:   p,
		Metadata: Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// queueResponse carries the ranked track ids for a user.
type queueResponse struct {
	UserID string   `json:"user_id"`
	Size   int      `json:"size"`
	Tracks []string `json:"tracks"`
}

// Queue returns the recommendation queue for a user, rebuilding it from
// the catalog when stale. size=N caps the returned queue length.
func (h *Handlers) Queue(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "userID path parameter is required", nil)
		return
	}

	size := getIntParam(r, "size", 0)
	if size < 0 || size > maxQueueSize {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "size must be between 0 and 100", nil)
		return
	}

	start := time.Now()
	tracks, err := h.ranker.Recommend(r.Context(), userID, size)
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "No profile for user", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "STORAGE_ERROR", "Queue build failed", err)
		return
	}
	if tracks == nil {
		tracks = []string{}
	}

	respondJSON(w, http.StatusOK, &APIResponse{
		Status: "ok",
		Data: queueResponse{
			UserID: userID,
			Size:   len(tracks),
			Tracks: tracks,
		},
		Metadata: Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// historyResponse wraps the analytics rows for a user.
type historyResponse struct {
	UserID string               `json:"user_id"`
	Count  int                  `json:"count"`
	Events []analytics.EventRow `json:"events"`
}

// History returns the most recent listening events for a user from the
// analytics store. Returns UNAVAILABLE when analytics is disabled.
func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		respondError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Analytics store is disabled", nil)
		return
	}

	userID := chi.URLParam(r, "userID")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "userID path parameter is required", nil)
		return
	}

	limit := getIntParam(r, "limit", defaultHistorySize)
	if limit < 1 || limit > maxHistorySize {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be between 1 and 500", nil)
		return
	}

	start := time.Now()
	rows, err := h.history.RecentEventsByUser(r.Context(), userID, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "STORAGE_ERROR", "History query failed", err)
		return
	}
	if rows == nil {
		rows = []analytics.EventRow{}
	}

	respondJSON(w, http.StatusOK, &APIResponse{
		Status: "ok",
		Data: historyResponse{
			UserID: userID,
			Count:  len(rows),
			Events: rows,
		},
		Metadata: Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// LiveFeed upgrades the connection to a WebSocket and attaches it to the
// broadcast hub.
func (h *Handlers) LiveFeed(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		respondError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Live feed is disabled", nil)
		return
	}
	livefeed.ServeWS(h.hub, w, r)
}

// healthStatus is the body of the health endpoints.
type healthStatus struct {
	Status        string            `json:"status"`
	Version       string            `json:"version"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Sessions      int               `json:"active_sessions"`
	FeedClients   int               `json:"feed_clients,omitempty"`
	Checks        map[string]string `json:"checks,omitempty"`
}

// Health reports overall status with dependency checks. Degraded
// dependencies flip the status but keep 200 so load balancers do not
// eject an instance that can still serve reads.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	status := healthStatus{
		Status:        "healthy",
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Sessions:      h.registry.ActiveSessions(),
		Checks:        map[string]string{},
	}
	if h.hub != nil {
		status.FeedClients = h.hub.ClientCount()
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if _, err := h.profiles.Count(ctx); err != nil {
		status.Status = "degraded"
		status.Checks["profile_store"] = err.Error()
	} else {
		status.Checks["profile_store"] = "ok"
	}

	if h.history != nil {
		if err := h.history.Ping(ctx); err != nil {
			status.Status = "degraded"
			status.Checks["analytics"] = err.Error()
		} else {
			status.Checks["analytics"] = "ok"
		}
	}

	respondOK(w, http.StatusOK, status)
}

// HealthLive is the liveness probe. Always 200 while the process serves
// requests.
func (h *Handlers) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondOK(w, http.StatusOK, healthStatus{
		Status:        "alive",
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Sessions:      h.registry.ActiveSessions(),
	})
}

// HealthReady is the readiness probe. Fails when the profile store
// cannot be reached, since every endpoint depends on it.
func (h *Handlers) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if _, err := h.profiles.Count(ctx); err != nil {
		respondError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Profile store unreachable", err)
		return
	}

	respondOK(w, http.StatusOK, healthStatus{
		Status:        "ready",
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Sessions:      h.registry.ActiveSessions(),
	})
}
