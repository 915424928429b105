// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

// Package config loads and validates the Auditus configuration.
//
// Configuration is layered via Koanf v2, highest priority last:
//
//  1. Built-in defaults (defaultConfig)
//  2. YAML config file (config.yaml, or CONFIG_PATH)
//  3. Environment variables (AUDITUS_<SECTION>_<KEY>, plus a small
//     set of legacy names like RECOMMENDER_GENRE_VOCAB)
//
// Struct-tag validation runs through internal/validation; a handful of
// cross-field rules (JWT secret length, Spotify credentials) live in
// Config.Validate.
package config
