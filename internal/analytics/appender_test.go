// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

package analytics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/auditus/internal/events"
)

type mockEventStore struct {
	mu       sync.Mutex
	batches  [][]*events.TrackEvent
	failNext bool
}

func (m *mockEventStore) InsertTrackEvents(_ context.Context, batch []*events.TrackEvent) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext {
		m.failNext = false
		return 0, errors.New("insert failed")
	}
	copied := make([]*events.TrackEvent, len(batch))
	copy(copied, batch)
	m.batches = append(m.batches, copied)
	return len(batch), nil
}

func (m *mockEventStore) total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.batches {
		n += len(b)
	}
	return n
}

func testEvent(userID, trackID string) *events.TrackEvent {
	ev := events.NewTrackEvent(userID, "spotify")
	ev.TrackID = trackID
	ev.Status = events.StatusCompleted
	ev.DurationListened = 200
	return ev
}

func TestNewAppender_Validation(t *testing.T) {
	t.Parallel()

	if _, err := NewAppender(nil, DefaultAppenderConfig()); err == nil {
		t.Error("nil store should be rejected")
	}

	cfg := DefaultAppenderConfig()
	cfg.BatchSize = 0
	if _, err := NewAppender(&mockEventStore{}, cfg); err == nil {
		t.Error("zero batch size should be rejected")
	}

	cfg = DefaultAppenderConfig()
	cfg.FlushInterval = 0
	if _, err := NewAppender(&mockEventStore{}, cfg); err == nil {
		t.Error("zero flush interval should be rejected")
	}
}

func TestAppender_FlushOnBatchSize(t *testing.T) {
	t.Parallel()

	store := &mockEventStore{}
	cfg := DefaultAppenderConfig()
	cfg.BatchSize = 3
	appender, err := NewAppender(store, cfg)
	if err != nil {
		t.Fatalf("NewAppender error: %v", err)
	}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := appender.Append(ctx, testEvent("u1", "t1")); err != nil {
			t.Fatalf("Append error: %v", err)
		}
	}

	// Batch flush is async; Flush waits for it.
	if err := appender.Flush(ctx); err != nil {
		t.Fatalf("Flush error: %v", err)
	}

	if got := store.total(); got != 3 {
		t.Errorf("stored %d events, want 3", got)
	}
}

func TestAppender_ManualFlush(t *testing.T) {
	t.Parallel()

	store := &mockEventStore{}
	appender, err := NewAppender(store, DefaultAppenderConfig())
	if err != nil {
		t.Fatalf("NewAppender error: %v", err)
	}

	ctx := context.Background()
	if err := appender.Append(ctx, testEvent("u1", "t1")); err != nil {
		t.Fatalf("Append error: %v", err)
	}
	if got := store.total(); got != 0 {
		t.Fatalf("event flushed before batch size or Flush, stored %d", got)
	}

	if err := appender.Flush(ctx); err != nil {
		t.Fatalf("Flush error: %v", err)
	}
	if got := store.total(); got != 1 {
		t.Errorf("stored %d events, want 1", got)
	}
}

func TestAppender_CloseFlushesPending(t *testing.T) {
	t.Parallel()

	store := &mockEventStore{}
	appender, err := NewAppender(store, DefaultAppenderConfig())
	if err != nil {
		t.Fatalf("NewAppender error: %v", err)
	}

	ctx := context.Background()
	if err := appender.Start(ctx); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if err := appender.Append(ctx, testEvent("u1", "t1")); err != nil {
		t.Fatalf("Append error: %v", err)
	}

	if err := appender.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if got := store.total(); got != 1 {
		t.Errorf("stored %d events after close, want 1", got)
	}

	if err := appender.Append(ctx, testEvent("u1", "t2")); err == nil {
		t.Error("Append after Close should error")
	}
	if err := appender.Close(); err != nil {
		t.Errorf("second Close should be nil, got %v", err)
	}
}

func TestAppender_FailedFlushRetainsEvents(t *testing.T) {
	t.Parallel()

	store := &mockEventStore{failNext: true}
	appender, err := NewAppender(store, DefaultAppenderConfig())
	if err != nil {
		t.Fatalf("NewAppender error: %v", err)
	}

	ctx := context.Background()
	if err := appender.Append(ctx, testEvent("u1", "t1")); err != nil {
		t.Fatalf("Append error: %v", err)
	}

	if err := appender.Flush(ctx); err == nil {
		t.Fatal("Flush should propagate store error")
	}
	if stats := appender.Stats(); stats.BufferSize != 1 || stats.ErrorCount != 1 {
		t.Errorf("stats after failure = %+v, want buffered event retained", stats)
	}

	// Second flush succeeds and drains the retained event.
	if err := appender.Flush(ctx); err != nil {
		t.Fatalf("retry Flush error: %v", err)
	}
	if got := store.total(); got != 1 {
		t.Errorf("stored %d events after retry, want 1", got)
	}
}

func TestAppender_IntervalFlush(t *testing.T) {
	t.Parallel()

	store := &mockEventStore{}
	cfg := DefaultAppenderConfig()
	cfg.FlushInterval = 20 * time.Millisecond
	appender, err := NewAppender(store, cfg)
	if err != nil {
		t.Fatalf("NewAppender error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := appender.Start(ctx); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	defer func() {
		if err := appender.Close(); err != nil {
			t.Errorf("Close error: %v", err)
		}
	}()

	if err := appender.Append(ctx, testEvent("u1", "t1")); err != nil {
		t.Fatalf("Append error: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for store.total() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := store.total(); got != 1 {
		t.Errorf("interval flush stored %d events, want 1", got)
	}
}
