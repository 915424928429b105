// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

package analytics

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/auditus/internal/events"
	"github.com/tomtom215/auditus/internal/logging"
	"github.com/tomtom215/auditus/internal/metrics"
)

// EventStore persists batches of track events. Implemented by Store;
// mocked in tests.
type EventStore interface {
	InsertTrackEvents(ctx context.Context, batch []*events.TrackEvent) (int, error)
}

// AppenderConfig holds batching settings.
type AppenderConfig struct {
	BatchSize     int
	FlushInterval time.Duration
	FlushTimeout  time.Duration
}

// DefaultAppenderConfig returns production defaults.
func DefaultAppenderConfig() AppenderConfig {
	return AppenderConfig{
		BatchSize:     500,
		FlushInterval: 5 * time.Second,
		FlushTimeout:  30 * time.Second,
	}
}

// AppenderStats holds runtime counters for monitoring.
type AppenderStats struct {
	EventsReceived int64
	EventsFlushed  int64
	FlushCount     int64
	ErrorCount     int64
	BufferSize     int
	LastFlushTime  time.Time
	LastError      string
}

// Appender buffers track events and writes them to the store in
// batches, when the batch fills or the flush interval elapses.
//
// Flushes are serialized through flushMu so timer-driven and
// batch-driven flushes cannot interleave and reorder inserts. Async
// flushes run on a detached context: the message context that carried
// the event may already be canceled by the time the flush runs.
type Appender struct {
	store  EventStore
	config AppenderConfig

	mu     sync.Mutex
	buffer []*events.TrackEvent

	flushMu sync.Mutex

	closed   atomic.Bool
	started  atomic.Bool
	stopChan chan struct{}
	doneChan chan struct{}
	flushWg  sync.WaitGroup

	eventsReceived atomic.Int64
	eventsFlushed  atomic.Int64
	flushCount     atomic.Int64
	errorCount     atomic.Int64
	lastFlushTime  atomic.Value // time.Time
	lastError      atomic.Value // string
}

// NewAppender creates an appender over the given store.
func NewAppender(store EventStore, cfg AppenderConfig) (*Appender, error) {
	if store == nil {
		return nil, fmt.Errorf("store required")
	}
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive")
	}
	if cfg.FlushInterval <= 0 {
		return nil, fmt.Errorf("flush interval must be positive")
	}
	if cfg.FlushTimeout <= 0 {
		cfg.FlushTimeout = 30 * time.Second
	}

	a := &Appender{
		store:    store,
		config:   cfg,
		buffer:   make([]*events.TrackEvent, 0, cfg.BatchSize),
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
	a.lastFlushTime.Store(time.Time{})
	a.lastError.Store("")
	return a, nil
}

// Start begins the periodic flush timer. Idempotent.
func (a *Appender) Start(ctx context.Context) error {
	if a.closed.Load() {
		return fmt.Errorf("appender is closed")
	}
	if a.started.Swap(true) {
		return nil
	}

	go a.flushLoop(ctx)
	return nil
}

// Append buffers one event. A full buffer triggers an async flush.
func (a *Appender) Append(ctx context.Context, event *events.TrackEvent) error {
	if a.closed.Load() {
		return fmt.Errorf("appender is closed")
	}

	a.mu.Lock()
	a.buffer = append(a.buffer, event)
	needsFlush := len(a.buffer) >= a.config.BatchSize
	a.mu.Unlock()

	a.eventsReceived.Add(1)

	if needsFlush {
		a.flushWg.Add(1)
		go func() {
			defer a.flushWg.Done()
			flushCtx, cancel := context.WithTimeout(context.Background(), a.config.FlushTimeout)
			defer cancel()
			if err := a.doFlush(flushCtx); err != nil {
				logging.Debug().Err(err).Msg("Async analytics flush failed")
			}
		}()
	}

	return nil
}

// Flush writes all buffered events, waiting for in-flight async
// flushes first.
func (a *Appender) Flush(ctx context.Context) error {
	a.flushWg.Wait()
	return a.doFlush(ctx)
}

// Close stops the flush loop and flushes pending events. Idempotent.
func (a *Appender) Close() error {
	if a.closed.Swap(true) {
		return nil
	}

	if a.started.Load() {
		close(a.stopChan)
		<-a.doneChan
	}

	a.flushWg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), a.config.FlushTimeout)
	defer cancel()
	return a.doFlush(ctx)
}

// Stats returns current runtime counters.
func (a *Appender) Stats() AppenderStats {
	a.mu.Lock()
	bufferSize := len(a.buffer)
	a.mu.Unlock()

	lastFlush, _ := a.lastFlushTime.Load().(time.Time)
	lastError, _ := a.lastError.Load().(string)

	return AppenderStats{
		EventsReceived: a.eventsReceived.Load(),
		EventsFlushed:  a.eventsFlushed.Load(),
		FlushCount:     a.flushCount.Load(),
		ErrorCount:     a.errorCount.Load(),
		BufferSize:     bufferSize,
		LastFlushTime:  lastFlush,
		LastError:      lastError,
	}
}

// flushLoop runs the interval flush timer. The parent context only
// signals shutdown; each flush gets its own timeout.
func (a *Appender) flushLoop(ctx context.Context) {
	defer close(a.doneChan)

	ticker := time.NewTicker(a.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-a.stopChan:
			return
		case <-ticker.C:
			flushCtx, cancel := context.WithTimeout(context.Background(), a.config.FlushTimeout)
			if err := a.doFlush(flushCtx); err != nil {
				logging.Debug().Err(err).Msg("Timed analytics flush failed")
			}
			cancel()
		}
	}
}

// doFlush writes buffered events in batch-sized chunks. On error the
// unflushed tail is restored to the buffer for retry.
func (a *Appender) doFlush(ctx context.Context) error {
	a.flushMu.Lock()
	defer a.flushMu.Unlock()

	a.mu.Lock()
	if len(a.buffer) == 0 {
		a.mu.Unlock()
		return nil
	}
	batch := a.buffer
	a.buffer = make([]*events.TrackEvent, 0, a.config.BatchSize)
	a.mu.Unlock()

	start := time.Now()
	flushed := 0

	for lo := 0; lo < len(batch); lo += a.config.BatchSize {
		hi := lo + a.config.BatchSize
		if hi > len(batch) {
			hi = len(batch)
		}
		chunk := batch[lo:hi]

		inserted, err := a.store.InsertTrackEvents(ctx, chunk)
		if err != nil {
			unflushed := batch[lo:]
			a.mu.Lock()
			a.buffer = append(unflushed, a.buffer...)
			a.mu.Unlock()

			a.errorCount.Add(1)
			a.lastError.Store(err.Error())
			if flushed > 0 {
				a.eventsFlushed.Add(int64(flushed))
			}
			metrics.RecordAnalyticsFlush(time.Since(start), err)
			return fmt.Errorf("flush events (%d-%d of %d): %w", lo, hi, len(batch), err)
		}

		flushed += len(chunk)
		metrics.RecordAnalyticsAppend(inserted)
	}

	elapsed := time.Since(start)
	a.eventsFlushed.Add(int64(flushed))
	a.flushCount.Add(1)
	a.lastFlushTime.Store(time.Now())
	a.lastError.Store("")
	metrics.RecordAnalyticsFlush(elapsed, nil)

	logging.Debug().
		Int("count", flushed).
		Dur("elapsed", elapsed).
		Msg("Flushed analytics batch")
	return nil
}
