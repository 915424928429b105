// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/auditus/internal/catalog"
	"github.com/tomtom215/auditus/internal/logging"
	"github.com/tomtom215/auditus/internal/metrics"
	"github.com/tomtom215/auditus/internal/profile"
	"github.com/tomtom215/auditus/internal/taste"
)

const (
	// DefaultQueueSize is the queue length served when the caller does
	// not ask for a specific size.
	DefaultQueueSize = 10

	// MaxQueueSize caps caller-requested queue lengths.
	MaxQueueSize = 50
)

// Config controls queue sizing and the embedding layout used when a
// profile carries no stored embedding.
type Config struct {
	// QueueSize is the default queue length. Zero means DefaultQueueSize.
	QueueSize int

	// Embedding must match the layout the taste engine writes with,
	// otherwise on-the-fly embeddings rank against the wrong dimensions.
	Embedding taste.EmbeddingConfig
}

// DefaultConfig returns the production ranker configuration.
func DefaultConfig() Config {
	return Config{
		QueueSize: DefaultQueueSize,
		Embedding: taste.DefaultEmbeddingConfig(),
	}
}

// Ranker serves recommendation queues from taste profiles and the item
// catalog. It is safe for concurrent use.
type Ranker struct {
	store  profile.Store
	source catalog.Source
	cfg    Config
	now    func() time.Time
}

// NewRanker creates a ranker. source may be nil, in which case every
// request degrades to serving the stored queue.
func NewRanker(store profile.Store, source catalog.Source, cfg Config) *Ranker {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	return &Ranker{
		store:  store,
		source: source,
		cfg:    cfg,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Recommend returns up to size track ids for userID, rebuilding the
// stored queue when it is stale or short. size <= 0 selects the
// configured default. Users without a profile get an empty queue.
func (r *Ranker) Recommend(ctx context.Context, userID string, size int) ([]string, error) {
	if size <= 0 {
		size = r.cfg.QueueSize
	}
	start := time.Now()

	p, err := r.store.Get(ctx, userID)
	if errors.Is(err, profile.ErrNotFound) {
		metrics.RecordQueueBuild("empty", time.Since(start))
		logging.Debug().
			Str("user_id", userID).
			Msg("No profile for user; returning empty queue")
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load profile for %s: %w", userID, err)
	}

	existing := append([]string(nil), p.RecommendationQueue...)

	embeddingVersion := p.EmbeddingVersion
	if embeddingVersion == "" {
		embeddingVersion = taste.EmbeddingVersion
	}

	current := p.QueueEmbeddingVersion == embeddingVersion &&
		p.QueueEmbeddingTS >= p.EmbeddingUpdatedAt
	if current && len(existing) >= size {
		metrics.RecordQueueBuild("fresh", time.Since(start))
		return existing[:size], nil
	}
	if !current {
		// Ranked under an older embedding; those positions no longer
		// reflect the user's taste.
		existing = []string{}
	}

	userVector, stored := taste.EnsureEmbedding(p, r.cfg.Embedding)
	if !stored {
		logging.Warn().
			Str("user_id", userID).
			Msg("User embedding missing in profile; computed on the fly")
	}

	snapshot := r.loadCatalog(ctx)
	if snapshot == nil {
		metrics.RecordQueueBuild("fallback", time.Since(start))
		return truncate(existing, size), nil
	}

	exclude := make(map[string]struct{}, p.RecentHistory.Len()+len(existing))
	for _, id := range p.RecentHistory.TrackIDs() {
		exclude[id] = struct{}{}
	}
	for _, id := range existing {
		exclude[id] = struct{}{}
	}

	candidates := rankItems(userVector, snapshot.Items, exclude, size*2)
	metrics.RecordQueueCandidates(len(candidates))

	queue := append(existing, candidates...)
	if len(queue) > size {
		queue = queue[:size]
	}

	fields := profile.QueueFields{
		Queue:            profile.TrackQueue(queue),
		UpdatedAt:        r.now().Unix(),
		EmbeddingVersion: embeddingVersion,
		EmbeddingTS:      p.EmbeddingUpdatedAt,
	}
	if err := r.store.UpdateQueueFields(ctx, userID, fields); err != nil {
		metrics.RecordQueuePersistFailure()
		logging.Error().
			Err(err).
			Str("user_id", userID).
			Msg("Persisting recommendation queue failed; serving unsaved queue")
	}

	metrics.RecordQueueBuild("rebuilt", time.Since(start))
	logging.Debug().
		Str("user_id", userID).
		Int("queue_len", len(queue)).
		Int("candidates", len(candidates)).
		Bool("stored_embedding", stored).
		Msg("Recommendation queue rebuilt")

	return queue, nil
}

// loadCatalog returns a usable snapshot or nil when the catalog cannot
// serve candidates.
func (r *Ranker) loadCatalog(ctx context.Context) *catalog.Snapshot {
	if r.source == nil {
		logging.Warn().Msg("Item catalog not configured; serving existing queue")
		return nil
	}

	snapshot, err := r.source.Load(ctx)
	if err != nil {
		logging.Warn().
			Err(err).
			Msg("Item catalog unavailable; serving existing queue")
		return nil
	}
	if len(snapshot.Items) == 0 {
		logging.Warn().Msg("Item catalog empty; serving existing queue")
		return nil
	}
	return snapshot
}

func truncate(queue []string, size int) []string {
	if len(queue) > size {
		return queue[:size]
	}
	return queue
}
