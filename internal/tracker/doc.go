// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

// Package tracker turns periodic playback snapshots into discrete track
// events. It is the first stage of the listening pipeline: pollers and the
// ingest API feed it raw player state, and it emits exactly one TrackEvent
// per track transition.
//
// State Machine:
//
//	PlaybackSnapshot -> Tracker.Observe -> TrackEvent (on transition)
//
// Each tracker holds a single listener's session: the current track id,
// its name, and when it started playing. A snapshot reporting a different
// track id closes out the previous track first:
//
//   - duration = now - start_time
//   - duration <  min_listen_time -> SKIPPED
//   - duration >= min_listen_time -> COMPLETED
//
// The boundary duration == min_listen_time classifies as COMPLETED.
//
// Rules the state machine guarantees:
//   - At most one event per Observe call.
//   - No event on the first snapshot seen (nothing to close out).
//   - Snapshots with no track leave state untouched and emit nothing.
//   - The same track id reported twice (a seek, a progress tick) emits
//     nothing and keeps the original start time.
//
// Trackers are single-listener by design. The Registry multiplexes them,
// creating one tracker per user id on first sight so a shared ingest path
// can serve any number of listeners.
package tracker
