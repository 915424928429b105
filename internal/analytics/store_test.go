// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

package analytics

import (
	"context"
	"testing"

	"github.com/tomtom215/auditus/internal/events"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(Config{}) // in-memory
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close error: %v", err)
		}
	})
	return store
}

func TestStore_InsertAndReadBack(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	ev1 := testEvent("u1", "t1")
	ev1.Timestamp = 100
	ev2 := testEvent("u1", "t2")
	ev2.Timestamp = 200
	ev2.Status = events.StatusSkipped
	ev3 := testEvent("u2", "t3")

	inserted, err := store.InsertTrackEvents(ctx, []*events.TrackEvent{ev1, ev2, ev3})
	if err != nil {
		t.Fatalf("InsertTrackEvents error: %v", err)
	}
	if inserted != 3 {
		t.Errorf("inserted = %d, want 3", inserted)
	}

	rows, err := store.RecentEventsByUser(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("RecentEventsByUser error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows for u1, want 2", len(rows))
	}
	// Newest first.
	if rows[0].TrackID != "t2" || rows[1].TrackID != "t1" {
		t.Errorf("rows out of order: %s then %s", rows[0].TrackID, rows[1].TrackID)
	}
	if rows[0].Status != events.StatusSkipped {
		t.Errorf("row status = %s, want %s", rows[0].Status, events.StatusSkipped)
	}
}

func TestStore_DuplicateEventIDSkipped(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	ev := testEvent("u1", "t1")

	inserted, err := store.InsertTrackEvents(ctx, []*events.TrackEvent{ev})
	if err != nil {
		t.Fatalf("first insert error: %v", err)
	}
	if inserted != 1 {
		t.Fatalf("first insert = %d, want 1", inserted)
	}

	// Redelivery of the same event id is a no-op.
	inserted, err = store.InsertTrackEvents(ctx, []*events.TrackEvent{ev})
	if err != nil {
		t.Fatalf("duplicate insert error: %v", err)
	}
	if inserted != 0 {
		t.Errorf("duplicate insert = %d, want 0", inserted)
	}

	total, err := store.EventCount(ctx)
	if err != nil {
		t.Fatalf("EventCount error: %v", err)
	}
	if total != 1 {
		t.Errorf("total events = %d, want 1", total)
	}
}

func TestStore_StatusCounts(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	batch := []*events.TrackEvent{
		testEvent("u1", "t1"),
		testEvent("u1", "t2"),
		testEvent("u1", "t3"),
	}
	batch[2].Status = events.StatusSkipped

	if _, err := store.InsertTrackEvents(ctx, batch); err != nil {
		t.Fatalf("InsertTrackEvents error: %v", err)
	}

	counts, err := store.StatusCounts(ctx, "u1")
	if err != nil {
		t.Fatalf("StatusCounts error: %v", err)
	}
	if counts[events.StatusCompleted] != 2 || counts[events.StatusSkipped] != 1 {
		t.Errorf("counts = %v, want 2 completed / 1 skipped", counts)
	}
}

func TestStore_EmptyBatch(t *testing.T) {
	store := openTestStore(t)

	inserted, err := store.InsertTrackEvents(context.Background(), nil)
	if err != nil || inserted != 0 {
		t.Errorf("empty batch: inserted=%d err=%v, want 0 nil", inserted, err)
	}
}

func TestStore_AppenderIntegration(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	cfg := DefaultAppenderConfig()
	cfg.BatchSize = 2
	appender, err := NewAppender(store, cfg)
	if err != nil {
		t.Fatalf("NewAppender error: %v", err)
	}

	for i, id := range []string{"t1", "t2", "t3"} {
		ev := testEvent("u1", id)
		ev.Timestamp = int64(100 + i)
		if err := appender.Append(ctx, ev); err != nil {
			t.Fatalf("Append error: %v", err)
		}
	}

	if err := appender.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	total, err := store.EventCount(ctx)
	if err != nil {
		t.Fatalf("EventCount error: %v", err)
	}
	if total != 3 {
		t.Errorf("total events = %d, want 3", total)
	}
}
