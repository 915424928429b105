// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

/*
Package taste folds track events into user taste profiles and derives the
embedding vectors the recommender ranks against.

The Engine is the consumer end of the listening pipeline: each track event
pulled off the bus becomes one read-modify-write cycle against the profile
store. Apply holds the update rules; the Engine adds loading, metadata
resolution, and persistence around it.

# Update Rules

Every event, regardless of status:

  - bumps total_tracks_played and refreshes updated_at / last_event_ts
  - prepends the track to recent history (bounded, oldest evicted)
  - evicts the track from the recommendation queue so a played track is
    never recommended back
  - rebuilds the user embedding so it never lags the profile

COMPLETED listens additionally bump total_completions and, when metadata
resolves, advance the running audio-feature means, genre counts, and artist
affinity. A failed metadata lookup downgrades the update to counters only;
the play is never lost. SKIPPED listens bump total_skips and touch no
feature data, so the taste signal comes from what the listener let play.

The mean update uses the sample count from before the event for all five
features, then advances it once. samples therefore equals the number of
COMPLETED listens that had metadata, and each feature mean is the exact
arithmetic mean of the values folded in.

# Embeddings

BuildEmbedding lays out [danceability, energy, valence, acousticness,
tempo_normalized] followed by one dimension per vocabulary genre holding
that genre's share of all genre counts. Tempo is min-max scaled into [0, 1]
against configured bounds; an empty or inverted range falls back to the
50-200 BPM defaults. The layout is recorded next to the vector in
EmbeddingMeta so readers can detect drift, and the build is deterministic:
the same profile and config always produce bit-identical vectors.

# Concurrency

One Engine instance serves all users, but correctness of the
read-modify-write cycle relies on the bus delivering each user's events
sequentially. See the profile package notes on the lost-update race.
*/
package taste
