// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

// Package recommend builds and serves per-user recommendation queues.
//
// # Queue Lifecycle
//
// A queue is a short ordered list of track ids stored on the user's
// taste profile. Serving a queue follows one of three paths:
//
//   - Fresh: the stored queue was built from the current embedding and
//     holds enough tracks. It is returned as-is without touching the
//     item catalog.
//   - Rebuild: the embedding changed since the queue was built, or the
//     queue ran short. Candidates are ranked against the item catalog
//     by cosine similarity and the queue is refilled, then persisted.
//   - Fallback: the item catalog is unavailable or empty. Whatever
//     survives the freshness check is returned unmodified and nothing
//     is persisted.
//
// A queue built from a stale embedding is discarded before ranking; a
// queue that is merely short keeps its entries and is topped up behind
// them, so tracks already surfaced to the listener keep their position.
//
// # Ranking
//
// Candidates are scored by cosine similarity between the user's taste
// embedding and each catalog item vector. Items the user played
// recently or that are already queued are excluded. Items whose vector
// length does not match the user embedding are skipped rather than
// scored at zero, so a catalog published under a different feature
// layout cannot flood the queue with garbage. Ties keep catalog order.
//
// # Persistence
//
// Only rebuilds persist, and only the queue fields of the profile are
// changed. A persist failure is logged and counted but the freshly
// ranked queue is still served; the next request rebuilds again.
package recommend
