// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/tomtom215/auditus/internal/cache"
	"github.com/tomtom215/auditus/internal/logging"
	"github.com/tomtom215/auditus/internal/metrics"
)

// DefaultTTL is how long a loaded snapshot is served before the source is
// consulted again.
const DefaultTTL = 5 * time.Minute

// DefaultHTTPTimeout bounds a single catalog fetch.
const DefaultHTTPTimeout = 10 * time.Second

// maxPayloadBytes caps HTTP catalog payloads at 64 MiB.
const maxPayloadBytes = 64 << 20

// Source loads catalog snapshots.
type Source interface {
	Load(ctx context.Context) (*Snapshot, error)
	Name() string
}

// Config selects and tunes the catalog source. Path wins over URL when
// both are set; neither set means no catalog, and ranking degrades to
// serving existing queues.
type Config struct {
	Path    string
	URL     string
	TTL     time.Duration
	Timeout time.Duration
}

// DefaultConfig returns catalog defaults with no source selected.
func DefaultConfig() Config {
	return Config{TTL: DefaultTTL, Timeout: DefaultHTTPTimeout}
}

// NewSource builds the configured source wrapped in a TTL cache, or nil
// when no source is configured.
func NewSource(cfg Config, clock cache.Clock) Source {
	var src Source
	switch {
	case cfg.Path != "":
		src = NewFileSource(cfg.Path)
	case cfg.URL != "":
		src = NewHTTPSource(cfg.URL, cfg.Timeout)
	default:
		logging.Warn().Msg("Item catalog source not configured; recommendations will reuse existing queues")
		return nil
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return NewCachedSource(src, ttl, clock)
}

// FileSource reads the catalog from a local JSON file.
type FileSource struct {
	path string
}

// NewFileSource creates a file-backed source.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Name identifies the source in logs and metrics.
func (s *FileSource) Name() string { return "file" }

// Load reads and normalizes the catalog file.
func (s *FileSource) Load(_ context.Context) (*Snapshot, error) {
	start := time.Now()

	data, err := os.ReadFile(s.path) // #nosec G304 -- operator-supplied catalog path
	if err != nil {
		metrics.RecordCatalogLoad(s.Name(), time.Since(start), 0, err)
		return nil, fmt.Errorf("read catalog file: %w", err)
	}

	snap, err := ParseSnapshot(data)
	if err != nil {
		metrics.RecordCatalogLoad(s.Name(), time.Since(start), 0, err)
		return nil, err
	}

	metrics.RecordCatalogLoad(s.Name(), time.Since(start), len(snap.Items), nil)
	metrics.RecordCatalogItemsDropped(snap.Dropped)
	logging.Debug().
		Str("path", s.path).
		Int("items", len(snap.Items)).
		Int("dropped", snap.Dropped).
		Msg("Loaded item catalog from file")
	return snap, nil
}

// HTTPSource fetches the catalog from a URL. Anything that serves the
// JSON works: an artifact store, a bucket website, the feature pipeline's
// own endpoint.
type HTTPSource struct {
	url    string
	client *http.Client
}

// NewHTTPSource creates an HTTP-backed source.
func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	return &HTTPSource{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Name identifies the source in logs and metrics.
func (s *HTTPSource) Name() string { return "http" }

// Load fetches and normalizes the catalog document.
func (s *HTTPSource) Load(ctx context.Context) (*Snapshot, error) {
	start := time.Now()

	snap, err := s.fetch(ctx)
	if err != nil {
		metrics.RecordCatalogLoad(s.Name(), time.Since(start), 0, err)
		return nil, err
	}

	metrics.RecordCatalogLoad(s.Name(), time.Since(start), len(snap.Items), nil)
	metrics.RecordCatalogItemsDropped(snap.Dropped)
	logging.Debug().
		Str("url", s.url).
		Int("items", len(snap.Items)).
		Int("dropped", snap.Dropped).
		Msg("Loaded item catalog over HTTP")
	return snap, nil
}

func (s *HTTPSource) fetch(ctx context.Context) (*Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog fetch failed with status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, fmt.Errorf("read catalog response: %w", err)
	}
	return ParseSnapshot(data)
}

// CachedSource wraps a Source with a TTL cache. Snapshots are shared
// between callers; a failed reload never replaces cached data.
type CachedSource struct {
	source Source
	cache  *cache.Cache
}

const snapshotKey = "catalog:snapshot"

// NewCachedSource wraps source with the given TTL and clock.
func NewCachedSource(source Source, ttl time.Duration, clock cache.Clock) *CachedSource {
	return &CachedSource{
		source: source,
		cache:  cache.NewWithClock(ttl, clock),
	}
}

// Name identifies the underlying source.
func (c *CachedSource) Name() string { return c.source.Name() }

// Load returns the cached snapshot when fresh, otherwise consults the
// underlying source and caches the result.
func (c *CachedSource) Load(ctx context.Context) (*Snapshot, error) {
	if cached, ok := c.cache.Get(snapshotKey); ok {
		metrics.RecordCacheHit("catalog")
		return cached.(*Snapshot), nil
	}
	metrics.RecordCacheMiss("catalog")

	snap, err := c.source.Load(ctx)
	if err != nil {
		return nil, err
	}
	c.cache.Set(snapshotKey, snap)
	return snap, nil
}
