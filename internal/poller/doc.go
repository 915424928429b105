// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

// Package poller is the producer side of the pipeline: a ticker loop
// reads the listener's player state from a PlayerSource, feeds each
// snapshot to the session tracker, and publishes any emitted track
// event to the bus.
//
// Fetch failures are transient: the tick is logged and skipped, and
// the tracker keeps the session open until a later snapshot resolves
// it.
package poller
