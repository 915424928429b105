// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

// Package profile defines the durable per-listener taste document and its
// BadgerDB-backed store.
//
// # Document Layout
//
// One document per user id, stored as JSON under the "profile:" key prefix:
//
//	{
//	  "user_id": "...",
//	  "created_at": 1700000000, "updated_at": ..., "last_event_ts": ...,
//	  "audio_profile": {"avg_danceability": 0.61, ..., "samples": 42},
//	  "genre_affinity": {"indie_rock": 7, ...},
//	  "artist_affinity": [{"artist_id": "...", "name": "...", "affinity": 3, "last_played_ts": ...}],
//	  "recent_history": [{"track_id": "...", "status": "COMPLETED", "ts": ...}],
//	  "total_tracks_played": 42, "total_completions": 30, "total_skips": 12,
//	  "user_embedding": [...], "embedding_meta": {...},
//	  "embedding_version": "v1", "embedding_updated_at": ...,
//	  "recommendation_queue": ["...", ...],
//	  "queue_updated_at": ..., "queue_embedding_version": "v1", "queue_embedding_ts": ...
//	}
//
// Invariants the writers maintain:
//   - total_tracks_played == total_completions + total_skips
//   - audio_profile.samples increments by exactly one per COMPLETED play
//     and never on SKIPPED
//   - recent_history holds at most 20 entries, newest first
//   - artist_affinity preserves first-seen order
//
// # Writers
//
// Two components mutate profiles: the taste engine (everything except
// queue fields, via whole-document Put) and the recommendation ranker
// (queue fields only, via UpdateQueueFields, which reads and writes in
// one transaction). Put performs read-modify-write without optimistic
// locking, so the store is last-writer-wins for taste updates:
// concurrent Puts to the same user lose one side's changes. Correct
// totals rely on the event bus delivering one user's events to one
// consumer at a time; duplicate delivery of the same event
// double-counts. See the store tests for a demonstration of the lost
// update.
package profile
