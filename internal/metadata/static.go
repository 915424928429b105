// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

package metadata

import (
	"context"
	"fmt"
	"os"
	"sync"

	json "github.com/goccy/go-json"
)

// StaticProvider serves metadata from an in-memory fixture set. It
// backs simulator mode and tests, where no upstream API exists.
type StaticProvider struct {
	mu     sync.RWMutex
	tracks map[string]*Track
}

// NewStaticProvider returns an empty fixture provider.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{tracks: make(map[string]*Track)}
}

// LoadStaticProvider reads a JSON array of tracks from path. Entries
// without a track_id are dropped.
func LoadStaticProvider(path string) (*StaticProvider, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied fixture path
	if err != nil {
		return nil, fmt.Errorf("read fixture file: %w", err)
	}

	var tracks []*Track
	if err := json.Unmarshal(data, &tracks); err != nil {
		return nil, fmt.Errorf("parse fixture file: %w", err)
	}

	p := NewStaticProvider()
	for _, t := range tracks {
		if t == nil || t.TrackID == "" {
			continue
		}
		p.tracks[t.TrackID] = t
	}
	return p, nil
}

// Add registers or replaces a fixture track.
func (p *StaticProvider) Add(t *Track) {
	if t == nil || t.TrackID == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tracks[t.TrackID] = t
}

// Len reports the number of fixture tracks.
func (p *StaticProvider) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.tracks)
}

// TrackMetadata returns the fixture for trackID, or ErrNotFound.
func (p *StaticProvider) TrackMetadata(_ context.Context, trackID string) (*Track, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	t, ok := p.tracks[trackID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}
