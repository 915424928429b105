// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

// Package metadata resolves track ids into audio features and artist
// genres for the taste engine.
//
// Providers:
//
//   - SpotifyProvider: the production provider. Authenticates with the
//     client-credentials flow, rate-limits outbound calls, and wraps
//     the whole lookup in a circuit breaker so a degraded upstream
//     cannot stall event processing. One lookup fans out into three
//     upstream requests (audio features, track, artist).
//   - StaticProvider: fixture-backed lookups from a JSON file or
//     programmatic inserts. Drives simulator mode and tests.
//   - DisabledProvider: always returns ErrUnavailable. Installed when
//     no provider is configured; the taste engine then records plays
//     without feature updates.
//
// Lookup failures are expected operational noise, not bugs: callers
// treat any error as "no metadata for this play" and continue.
package metadata
