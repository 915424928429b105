// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

// Package supervisor builds the suture v4 supervision tree that keeps
// long-running components alive. The tree has three layers for failure
// isolation: data (analytics appender), messaging (event bus router,
// live feed hub, player poller) and api (HTTP server). A crash in one
// layer restarts only that layer's services.
package supervisor
