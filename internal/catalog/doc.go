// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

/*
Package catalog loads the item vector index the recommender ranks against.

The catalog is a JSON document produced offline by the feature pipeline.
Two payload shapes are accepted: a bare array of items, or an object with
"items" and "feature_order" keys. Items may carry their id under "item_id"
or the older "track_id" key. Entries missing an id or a vector are dropped
silently during normalization; a partially bad catalog still serves.

Sources are swappable: FileSource reads a local path, HTTPSource fetches a
URL. CachedSource wraps either with a TTL cache so per-request ranking
never touches the filesystem or network on the hot path. A failed reload
never replaces a cached snapshot; only TTL expiry evicts it, and after
expiry each request retries the underlying source until one succeeds.

The cache takes an injected clock. Expiry in tests is driven by advancing
the clock, not by sleeping.
*/
package catalog
