// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

package recommend

import (
	"math"
	"reflect"
	"testing"

	"github.com/tomtom215/auditus/internal/catalog"
)

func item(id string, vector ...float64) catalog.Item {
	return catalog.Item{ItemID: id, Vector: vector}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    []float64
		b    []float64
		want float64
	}{
		{name: "identical", a: []float64{1, 2, 3}, b: []float64{1, 2, 3}, want: 1.0},
		{name: "scaled copy", a: []float64{1, 2, 3}, b: []float64{2, 4, 6}, want: 1.0},
		{name: "orthogonal", a: []float64{1, 0}, b: []float64{0, 1}, want: 0.0},
		{name: "opposite", a: []float64{1, 0}, b: []float64{-1, 0}, want: -1.0},
		{name: "length mismatch", a: []float64{1, 2}, b: []float64{1, 2, 3}, want: 0.0},
		{name: "zero norm left", a: []float64{0, 0}, b: []float64{1, 2}, want: 0.0},
		{name: "zero norm right", a: []float64{1, 2}, b: []float64{0, 0}, want: 0.0},
		{name: "both empty", a: nil, b: nil, want: 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("cosineSimilarity(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestRankItems_OrdersBySimilarity(t *testing.T) {
	user := []float64{1, 0}
	items := []catalog.Item{
		item("b", 0, 1),
		item("a", 1, 0),
		item("c", 0.9, 0.1),
	}

	got := rankItems(user, items, nil, 0)
	want := []string{"a", "c", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("rankItems() = %v, want %v", got, want)
	}
}

func TestRankItems_Limit(t *testing.T) {
	user := []float64{1, 0}
	items := []catalog.Item{
		item("b", 0, 1),
		item("a", 1, 0),
		item("c", 0.9, 0.1),
	}

	got := rankItems(user, items, nil, 2)
	want := []string{"a", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("rankItems(limit=2) = %v, want %v", got, want)
	}
}

func TestRankItems_Exclusions(t *testing.T) {
	user := []float64{1, 0}
	items := []catalog.Item{
		item("a", 1, 0),
		item("b", 0.9, 0.1),
	}
	exclude := map[string]struct{}{"a": {}}

	got := rankItems(user, items, exclude, 0)
	want := []string{"b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("rankItems() = %v, want %v", got, want)
	}
}

func TestRankItems_SkipsMismatchedVectors(t *testing.T) {
	user := []float64{1, 0}
	items := []catalog.Item{
		item("short"),
		item("long", 1, 0, 0),
		item("good", 1, 0),
	}

	got := rankItems(user, items, nil, 0)
	want := []string{"good"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("rankItems() = %v, want %v", got, want)
	}
}

func TestRankItems_SkipsEmptyID(t *testing.T) {
	user := []float64{1, 0}
	items := []catalog.Item{
		item("", 1, 0),
		item("a", 0.5, 0.5),
	}

	got := rankItems(user, items, nil, 0)
	want := []string{"a"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("rankItems() = %v, want %v", got, want)
	}
}

// A zero-norm item vector scores 0 but stays in the ranking; only shape
// problems cause a skip.
func TestRankItems_ZeroNormScoredNotSkipped(t *testing.T) {
	user := []float64{1, 0}
	items := []catalog.Item{
		item("silent", 0, 0),
		item("hit", 1, 0),
	}

	got := rankItems(user, items, nil, 0)
	want := []string{"hit", "silent"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("rankItems() = %v, want %v", got, want)
	}
}

func TestRankItems_TiesKeepCatalogOrder(t *testing.T) {
	user := []float64{1, 0}
	items := []catalog.Item{
		item("x", 2, 0),
		item("y", 1, 0),
		item("z", 3, 0),
	}

	got := rankItems(user, items, nil, 0)
	want := []string{"x", "y", "z"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("rankItems() = %v, want %v (ties must keep input order)", got, want)
	}
}

func TestRankItems_NoCandidates(t *testing.T) {
	got := rankItems([]float64{1, 0}, nil, nil, 5)
	if len(got) != 0 {
		t.Errorf("rankItems() = %v, want empty", got)
	}
}
