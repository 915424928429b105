// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

package profile

import (
	"context"
	"errors"
	"testing"

	"github.com/dgraph-io/badger/v4"
)

func newTestStore(t *testing.T) *BadgerStore {
	t.Helper()

	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewBadgerStore(db)
}

func TestBadgerStore_PutGetRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p := New("user-1", 1700000000)
	p.TotalTracksPlayed = 5
	p.TotalCompletions = 3
	p.TotalSkips = 2
	p.GenreAffinity["shoegaze"] = 4
	p.RecentHistory.Push(HistoryEntry{TrackID: "t1", Status: "COMPLETED", TS: 1700000100})

	if err := store.Put(ctx, p); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := store.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.TotalTracksPlayed != 5 {
		t.Errorf("TotalTracksPlayed = %d, want 5", got.TotalTracksPlayed)
	}
	if got.GenreAffinity["shoegaze"] != 4 {
		t.Errorf("GenreAffinity[shoegaze] = %d, want 4", got.GenreAffinity["shoegaze"])
	}
	if got.RecentHistory.Len() != 1 {
		t.Errorf("RecentHistory.Len = %d, want 1", got.RecentHistory.Len())
	}
}

func TestBadgerStore_GetMissingReturnsErrNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "nobody")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(nobody) error = %v, want ErrNotFound", err)
	}
}

func TestBadgerStore_PutRejectsMissingUserID(t *testing.T) {
	store := newTestStore(t)

	if err := store.Put(context.Background(), &UserProfile{}); err == nil {
		t.Error("Put with empty user id succeeded, want error")
	}
	if err := store.Put(context.Background(), nil); err == nil {
		t.Error("Put(nil) succeeded, want error")
	}
}

func TestBadgerStore_Delete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, New("user-1", 1)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Delete(ctx, "user-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, "user-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete error = %v, want ErrNotFound", err)
	}

	// Deleting again is a no-op, not an error.
	if err := store.Delete(ctx, "user-1"); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}

func TestBadgerStore_Count(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := store.Put(ctx, New(id, 1)); err != nil {
			t.Fatalf("Put(%s): %v", id, err)
		}
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 3 {
		t.Errorf("Count = %d, want 3", count)
	}
}

func TestBadgerStore_UpdateQueueFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p := New("user-1", 1700000000)
	p.TotalTracksPlayed = 7
	p.GenreAffinity["dream_pop"] = 2
	if err := store.Put(ctx, p); err != nil {
		t.Fatalf("Put: %v", err)
	}

	fields := QueueFields{
		Queue:            TrackQueue{"t1", "t2"},
		UpdatedAt:        1700000500,
		EmbeddingVersion: "v1",
		EmbeddingTS:      1700000400,
	}
	if err := store.UpdateQueueFields(ctx, "user-1", fields); err != nil {
		t.Fatalf("UpdateQueueFields: %v", err)
	}

	got, err := store.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.RecommendationQueue) != 2 || got.RecommendationQueue[0] != "t1" {
		t.Errorf("RecommendationQueue = %v, want [t1 t2]", got.RecommendationQueue)
	}
	if got.QueueUpdatedAt != 1700000500 {
		t.Errorf("QueueUpdatedAt = %d, want 1700000500", got.QueueUpdatedAt)
	}
	if got.QueueEmbeddingVersion != "v1" {
		t.Errorf("QueueEmbeddingVersion = %q, want v1", got.QueueEmbeddingVersion)
	}
	if got.QueueEmbeddingTS != 1700000400 {
		t.Errorf("QueueEmbeddingTS = %d, want 1700000400", got.QueueEmbeddingTS)
	}

	// The rest of the document is untouched.
	if got.TotalTracksPlayed != 7 {
		t.Errorf("TotalTracksPlayed = %d, want 7", got.TotalTracksPlayed)
	}
	if got.GenreAffinity["dream_pop"] != 2 {
		t.Errorf("GenreAffinity[dream_pop] = %d, want 2", got.GenreAffinity["dream_pop"])
	}
}

func TestBadgerStore_UpdateQueueFieldsMissingProfile(t *testing.T) {
	store := newTestStore(t)

	err := store.UpdateQueueFields(context.Background(), "ghost", QueueFields{Queue: TrackQueue{"t1"}})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateQueueFields on missing profile = %v, want ErrNotFound", err)
	}
}

// TestBadgerStore_InterleavedUpdatesLoseWrites pins the documented
// last-writer-wins behavior: two readers that load the same document,
// modify it, and write it back keep only the second writer's changes.
// Single-writer-per-user sequencing is the upstream consumer's job.
func TestBadgerStore_InterleavedUpdatesLoseWrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := New("user-1", 1700000000)
	base.TotalTracksPlayed = 10
	if err := store.Put(ctx, base); err != nil {
		t.Fatalf("Put: %v", err)
	}

	first, err := store.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	second, err := store.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	first.TotalTracksPlayed++
	second.TotalTracksPlayed++

	if err := store.Put(ctx, first); err != nil {
		t.Fatalf("Put first: %v", err)
	}
	if err := store.Put(ctx, second); err != nil {
		t.Fatalf("Put second: %v", err)
	}

	final, err := store.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("Get final: %v", err)
	}

	// Both writers incremented from 10; the first increment is lost.
	if final.TotalTracksPlayed != 11 {
		t.Errorf("TotalTracksPlayed = %d, want 11 (one lost update)", final.TotalTracksPlayed)
	}
}
