// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

// Package livefeed pushes processed track events to WebSocket clients.
//
// The Hub owns the client set; each connection runs a read pump
// (pong handling, client pings) and a write pump (send channel, ping
// ticker, write deadlines). Broadcast is best-effort: a slow client
// with a full send channel is dropped rather than allowed to stall the
// feed.
package livefeed
