// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// Item is one recommendable track with its feature vector. The vector
// layout must match the embedding builder's feature order.
type Item struct {
	ItemID   string    `json:"item_id"`
	ArtistID string    `json:"artist_id,omitempty"`
	Vector   []float64 `json:"vector"`
}

// Snapshot is a normalized catalog payload. Snapshots are shared between
// callers once cached; treat them as read-only.
type Snapshot struct {
	Items        []Item   `json:"items"`
	FeatureOrder []string `json:"feature_order"`

	// Dropped counts entries discarded during normalization.
	Dropped int `json:"-"`
}

// ParseSnapshot normalizes a raw catalog payload. Bare arrays and
// {items, feature_order} objects are both accepted. Entries that are not
// objects, have no id, or have no vector list are dropped and counted.
func ParseSnapshot(data []byte) (*Snapshot, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("empty catalog payload")
	}

	var rawItems []json.RawMessage
	var featureOrder []string

	switch trimmed[0] {
	case '{':
		var doc struct {
			Items        []json.RawMessage `json:"items"`
			FeatureOrder []string          `json:"feature_order"`
		}
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("parse catalog payload: %w", err)
		}
		rawItems = doc.Items
		featureOrder = doc.FeatureOrder
	case '[':
		if err := json.Unmarshal(trimmed, &rawItems); err != nil {
			return nil, fmt.Errorf("parse catalog payload: %w", err)
		}
	default:
		return nil, errors.New("unsupported catalog payload format")
	}

	snap := &Snapshot{
		Items:        make([]Item, 0, len(rawItems)),
		FeatureOrder: featureOrder,
	}
	if snap.FeatureOrder == nil {
		snap.FeatureOrder = []string{}
	}

	for _, raw := range rawItems {
		item, ok := normalizeItem(raw)
		if !ok {
			snap.Dropped++
			continue
		}
		snap.Items = append(snap.Items, item)
	}
	return snap, nil
}

// normalizeItem decodes one catalog entry. The id may live under
// "item_id" or the older "track_id" key.
func normalizeItem(raw json.RawMessage) (Item, bool) {
	var entry struct {
		ItemID   string          `json:"item_id"`
		TrackID  string          `json:"track_id"`
		ArtistID string          `json:"artist_id"`
		Vector   json.RawMessage `json:"vector"`
	}
	if err := json.Unmarshal(raw, &entry); err != nil {
		return Item{}, false
	}

	id := entry.ItemID
	if id == "" {
		id = entry.TrackID
	}
	if id == "" {
		return Item{}, false
	}

	var rawVector []json.RawMessage
	if entry.Vector == nil || json.Unmarshal(entry.Vector, &rawVector) != nil {
		return Item{}, false
	}

	vector := make([]float64, len(rawVector))
	for i, value := range rawVector {
		vector[i] = coerceFloat(value)
	}
	return Item{ItemID: id, ArtistID: entry.ArtistID, Vector: vector}, true
}

// coerceFloat accepts JSON numbers and numeric strings; anything else
// becomes 0 so a single sloppy element cannot sink the whole item.
func coerceFloat(raw json.RawMessage) float64 {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return parsed
		}
	}
	return 0
}
