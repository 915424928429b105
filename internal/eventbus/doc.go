// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

// Package eventbus carries track events between the producers (poller,
// ingest endpoint) and the consumers (taste engine, analytics sink, live
// feed) over Watermill and NATS JetStream.
//
// Components:
//
//   - Publisher: circuit-broken JetStream publisher; the event id doubles
//     as the Nats-Msg-Id so the broker deduplicates redeliveries inside
//     the stream's duplicate window.
//   - Subscriber: durable JetStream consumer bound to the TRACK_EVENTS
//     stream; each handler gets its own durable name and queue group.
//   - Router: Watermill router with panic recovery, exponential retry,
//     optional throttling and deduplication, and a poison queue for
//     messages that exhaust their retries.
//   - EmbeddedServer: optional in-process nats-server for single-binary
//     deployments.
//   - Handlers: TasteHandler (hot path), AnalyticsHandler (cold path),
//     LiveFeedHandler (broadcast).
//
// Delivery is at-least-once. Handlers distinguish PermanentError
// (malformed payloads, acked and dropped or routed to the poison queue)
// from retryable errors (store unavailable, nacked and redelivered).
// Per-user ordering holds only while the subscriber count is one; the
// profile store documents the lost-update window that remains.
package eventbus
