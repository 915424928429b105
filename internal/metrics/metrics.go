// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus Metrics Integration for Production Observability
// This package provides instrumentation for:
// - Playback polling and session tracking
// - NATS event processing
// - Taste profile updates and metadata lookups
// - Catalog loading and caching
// - Recommendation queue builds
// - API endpoint latency and throughput

var (
	// Playback Tracking Metrics
	SnapshotsObserved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playback_snapshots_observed_total",
			Help: "Total number of playback snapshots fed to session trackers",
		},
		[]string{"source"}, // "spotify", "api", "simulator"
	)

	SnapshotsMalformed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playback_snapshots_malformed_total",
			Help: "Total number of snapshots dropped for missing required fields",
		},
		[]string{"source"},
	)

	TrackEventsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "track_events_emitted_total",
			Help: "Total number of track events emitted by session trackers",
		},
		[]string{"source", "status"}, // status: "COMPLETED", "SKIPPED"
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tracker_active_sessions",
			Help: "Current number of per-user tracker sessions",
		},
	)

	PollDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "player_poll_duration_seconds",
			Help:    "Duration of player state polls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	PollErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "player_poll_errors_total",
			Help: "Total number of failed player state polls",
		},
		[]string{"source"},
	)

	// NATS Event Processing Metrics
	NATSMessagesPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_messages_published_total",
			Help: "Total number of messages published to NATS",
		},
	)

	NATSMessagesConsumed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_messages_consumed_total",
			Help: "Total number of messages consumed from NATS",
		},
	)

	NATSMessagesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_messages_processed_total",
			Help: "Total number of messages successfully processed",
		},
	)

	NATSMessagesParseFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_messages_parse_failed_total",
			Help: "Total number of messages that failed to parse",
		},
	)

	NATSProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nats_processing_duration_seconds",
			Help:    "Duration of NATS message processing in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Taste Profile Metrics
	ProfileUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profile_updates_total",
			Help: "Total number of taste profile updates applied",
		},
		[]string{"status"}, // "COMPLETED", "SKIPPED"
	)

	ProfileUpdateErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profile_update_errors_total",
			Help: "Total number of failed profile updates",
		},
		[]string{"stage"}, // "load", "persist"
	)

	ProfileUpdateDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "profile_update_duration_seconds",
			Help:    "Duration of profile update handling in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	MetadataLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metadata_lookups_total",
			Help: "Total number of track metadata lookups",
		},
		[]string{"outcome"}, // "hit", "miss", "error", "unavailable"
	)

	MetadataLookupDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "metadata_lookup_duration_seconds",
			Help:    "Duration of track metadata lookups in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Catalog Metrics
	CatalogLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_loads_total",
			Help: "Total number of catalog snapshot loads",
		},
		[]string{"source", "result"}, // source: "file", "http"; result: "success", "failure"
	)

	CatalogLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_load_duration_seconds",
			Help:    "Duration of catalog snapshot loads in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	CatalogItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_items",
			Help: "Number of items in the most recently loaded catalog snapshot",
		},
	)

	CatalogItemsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_items_dropped_total",
			Help: "Total number of catalog entries dropped during normalization",
		},
	)

	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"}, // "catalog"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	// Recommendation Queue Metrics
	QueueBuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_queue_builds_total",
			Help: "Total number of recommendation queue requests",
		},
		[]string{"result"}, // "fresh", "rebuilt", "fallback", "empty"
	)

	QueueBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommendation_queue_build_duration_seconds",
			Help:    "Duration of recommendation queue builds in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	QueueCandidatesRanked = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommendation_queue_candidates_ranked",
			Help:    "Number of catalog candidates scored per queue rebuild",
			Buckets: []float64{10, 50, 100, 250, 500, 1000, 5000, 10000},
		},
	)

	QueuePersistFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommendation_queue_persist_failures_total",
			Help: "Total number of queue persistence failures (queue still served)",
		},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Live Feed Metrics
	FeedConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "livefeed_connections",
			Help: "Current number of active live feed WebSocket connections",
		},
	)

	FeedMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "livefeed_messages_sent_total",
			Help: "Total number of live feed messages sent",
		},
	)

	FeedMessagesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "livefeed_messages_dropped_total",
			Help: "Total number of live feed messages dropped on slow clients",
		},
	)

	// Analytics Store Metrics
	AnalyticsRowsAppended = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "analytics_rows_appended_total",
			Help: "Total number of track event rows appended to the analytics store",
		},
	)

	AnalyticsFlushDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "analytics_flush_duration_seconds",
			Help:    "Duration of analytics batch flushes in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	AnalyticsFlushErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "analytics_flush_errors_total",
			Help: "Total number of failed analytics batch flushes",
		},
	)

	AnalyticsQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "analytics_query_duration_seconds",
			Help:    "Duration of analytics store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"query"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordSnapshot records a playback snapshot observation
func RecordSnapshot(source string) {
	SnapshotsObserved.WithLabelValues(source).Inc()
}

// RecordMalformedSnapshot records a snapshot dropped for missing fields
func RecordMalformedSnapshot(source string) {
	SnapshotsMalformed.WithLabelValues(source).Inc()
}

// RecordTrackEvent records a track event emitted by a session tracker
func RecordTrackEvent(source, status string) {
	TrackEventsEmitted.WithLabelValues(source, status).Inc()
}

// SetActiveSessions updates the tracker session gauge
func SetActiveSessions(count int) {
	ActiveSessions.Set(float64(count))
}

// RecordPoll records a player state poll and its outcome
func RecordPoll(source string, duration time.Duration, err error) {
	PollDuration.WithLabelValues(source).Observe(duration.Seconds())
	if err != nil {
		PollErrors.WithLabelValues(source).Inc()
	}
}

// RecordNATSPublish records a message being published to NATS
func RecordNATSPublish() {
	NATSMessagesPublished.Inc()
}

// RecordNATSConsume records a message being consumed from NATS
func RecordNATSConsume() {
	NATSMessagesConsumed.Inc()
}

// RecordNATSProcessed records a message being successfully processed
func RecordNATSProcessed() {
	NATSMessagesProcessed.Inc()
}

// RecordNATSParseFailed records a message that failed to parse
func RecordNATSParseFailed() {
	NATSMessagesParseFailed.Inc()
}

// RecordNATSProcessingDuration records the duration of message processing
func RecordNATSProcessingDuration(duration time.Duration) {
	NATSProcessingDuration.Observe(duration.Seconds())
}

// RecordProfileUpdate records a completed profile update
func RecordProfileUpdate(status string, duration time.Duration) {
	ProfileUpdates.WithLabelValues(status).Inc()
	ProfileUpdateDuration.Observe(duration.Seconds())
}

// RecordProfileUpdateError records a failed profile update by stage
func RecordProfileUpdateError(stage string) {
	ProfileUpdateErrors.WithLabelValues(stage).Inc()
}

// RecordMetadataLookup records a metadata lookup and its outcome
func RecordMetadataLookup(outcome string, duration time.Duration) {
	MetadataLookups.WithLabelValues(outcome).Inc()
	MetadataLookupDuration.Observe(duration.Seconds())
}

// RecordCatalogLoad records a catalog snapshot load
func RecordCatalogLoad(source string, duration time.Duration, itemCount int, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	CatalogLoads.WithLabelValues(source, result).Inc()
	CatalogLoadDuration.WithLabelValues(source).Observe(duration.Seconds())
	if err == nil {
		CatalogItems.Set(float64(itemCount))
	}
}

// RecordCatalogItemsDropped records entries dropped during normalization
func RecordCatalogItemsDropped(count int) {
	if count > 0 {
		CatalogItemsDropped.Add(float64(count))
	}
}

// RecordCacheHit records a cache hit for the given cache type
func RecordCacheHit(cacheType string) {
	CacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss records a cache miss for the given cache type
func RecordCacheMiss(cacheType string) {
	CacheMisses.WithLabelValues(cacheType).Inc()
}

// RecordQueueBuild records a recommendation queue request by result
func RecordQueueBuild(result string, duration time.Duration) {
	QueueBuilds.WithLabelValues(result).Inc()
	QueueBuildDuration.Observe(duration.Seconds())
}

// RecordQueueCandidates records the candidate pool size for a rebuild
func RecordQueueCandidates(count int) {
	QueueCandidatesRanked.Observe(float64(count))
}

// RecordQueuePersistFailure records a queue write that failed after ranking
func RecordQueuePersistFailure() {
	QueuePersistFailures.Inc()
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRateLimitHit records a rate limit rejection
func RecordRateLimitHit(endpoint string) {
	APIRateLimitHits.WithLabelValues(endpoint).Inc()
}

// TrackFeedConnection tracks live feed connection counts
func TrackFeedConnection(inc bool) {
	if inc {
		FeedConnections.Inc()
	} else {
		FeedConnections.Dec()
	}
}

// RecordFeedMessage records a live feed message delivery
func RecordFeedMessage() {
	FeedMessagesSent.Inc()
}

// RecordFeedMessageDropped records a message dropped on a slow client
func RecordFeedMessageDropped() {
	FeedMessagesDropped.Inc()
}

// RecordAnalyticsAppend records rows appended to the analytics store
func RecordAnalyticsAppend(rows int) {
	AnalyticsRowsAppended.Add(float64(rows))
}

// RecordAnalyticsFlush records an analytics batch flush
func RecordAnalyticsFlush(duration time.Duration, err error) {
	AnalyticsFlushDuration.Observe(duration.Seconds())
	if err != nil {
		AnalyticsFlushErrors.Inc()
	}
}

// RecordAnalyticsQuery records an analytics store query
func RecordAnalyticsQuery(query string, duration time.Duration) {
	AnalyticsQueryDuration.WithLabelValues(query).Observe(duration.Seconds())
}

// RecordCircuitBreakerTransition records a breaker state change
func RecordCircuitBreakerTransition(name, fromState, toState string, stateValue float64) {
	CircuitBreakerTransitions.WithLabelValues(name, fromState, toState).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(stateValue)
}
