// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

// Package api exposes the HTTP surface: snapshot ingestion, profile and
// queue reads, listening history, the live WebSocket feed, health probes
// and the Prometheus scrape endpoint. Routing is chi with route-group
// middleware: CORS and rate limits apply globally, JWT auth only to the
// data group when enabled.
package api
