// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

// Package analytics is the cold path: every track event that crosses
// the bus lands here as a flattened row in DuckDB for offline analysis.
//
// The Store owns the schema and idempotent batch inserts; the Appender
// buffers events and flushes them in batches, either when the batch
// fills or on a timer. Inserts key on event id, so redelivered bus
// messages are harmless.
package analytics
