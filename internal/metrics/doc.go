// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

/*
Package metrics provides Prometheus metrics collection and export for observability.

This package instruments the listening pipeline end to end using the Prometheus
client library, exposing counters, gauges, and histograms for every stage from
player poll to recommendation queue.

# Overview

The package provides metrics for:
  - Playback polling and per-user session tracking
  - NATS event bus throughput and processing latency
  - Taste profile updates and Spotify metadata lookups
  - Catalog snapshot loads and cache efficiency
  - Recommendation queue builds and persistence
  - API endpoint latency and throughput
  - Live feed WebSocket connections
  - Analytics store appends and queries

# Metrics Endpoint

Metrics are exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:8686/metrics

# Available Metrics

Playback Tracking:
  - playback_snapshots_observed_total: Snapshots fed to trackers (counter)
    Labels: source
  - playback_snapshots_malformed_total: Snapshots dropped for missing fields (counter)
    Labels: source
  - track_events_emitted_total: Track events emitted (counter)
    Labels: source, status
  - tracker_active_sessions: Live tracker sessions (gauge)
  - player_poll_duration_seconds: Poll latency (histogram)
    Labels: source

Event Bus:
  - nats_messages_published_total / consumed_total / processed_total
  - nats_messages_parse_failed_total: Undecodable payloads (counter)
  - nats_processing_duration_seconds: Handler latency (histogram)

Taste Profiles:
  - profile_updates_total: Applied updates (counter)
    Labels: status
  - profile_update_errors_total: Failed updates (counter)
    Labels: stage (load, persist)
  - metadata_lookups_total: Metadata fetches (counter)
    Labels: outcome (hit, miss, error, unavailable)

Catalog:
  - catalog_loads_total: Snapshot loads (counter)
    Labels: source (file, http), result
  - catalog_items: Items in the current snapshot (gauge)
  - cache_hits_total / cache_misses_total
    Labels: cache_type

Recommendations:
  - recommendation_queue_builds_total: Queue requests (counter)
    Labels: result (fresh, rebuilt, fallback, empty)
  - recommendation_queue_candidates_ranked: Candidate pool sizes (histogram)
  - recommendation_queue_persist_failures_total: Writes that failed after
    ranking; the queue is still returned to the caller (counter)

# Usage

Most call sites go through the Record helpers rather than the raw collectors:

	start := time.Now()
	err := handle(msg)
	metrics.RecordNATSProcessingDuration(time.Since(start))

Collectors are registered with promauto against the default registry, so the
package has no Init function; importing it is enough.
*/
package metrics
