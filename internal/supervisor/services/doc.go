// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

// Package services wraps application components as suture.Service
// implementations. Each wrapper adapts a component's lifecycle to the
// blocking Serve(ctx) pattern and names it for supervisor logs.
package services
