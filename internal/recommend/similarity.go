// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

package recommend

import (
	"math"
	"sort"

	"github.com/tomtom215/auditus/internal/catalog"
)

type scoredItem struct {
	id    string
	score float64
}

// rankItems scores every eligible catalog item against userVector and
// returns the top ids, best first. Items without an id, excluded items,
// and items whose vector length differs from the user vector are
// skipped. The sort is stable so equal scores keep catalog order.
func rankItems(userVector []float64, items []catalog.Item, exclude map[string]struct{}, limit int) []string {
	scored := make([]scoredItem, 0, len(items))
	for i := range items {
		item := &items[i]
		if item.ItemID == "" {
			continue
		}
		if _, skip := exclude[item.ItemID]; skip {
			continue
		}
		if len(item.Vector) != len(userVector) {
			continue
		}
		scored = append(scored, scoredItem{
			id:    item.ItemID,
			score: cosineSimilarity(userVector, item.Vector),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}

	ids := make([]string, len(scored))
	for i := range scored {
		ids[i] = scored[i].id
	}
	return ids
}

// cosineSimilarity computes cosine similarity between two vectors.
// Mismatched lengths and zero-norm vectors score 0.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
