// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

package eventbus

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/auditus/internal/events"
	"github.com/tomtom215/auditus/internal/metrics"
)

// ProfileUpdater folds a track event into a listener's taste profile.
// Implemented by taste.Engine.
type ProfileUpdater interface {
	HandleEvent(ctx context.Context, ev *events.TrackEvent) error
}

// EventAppender persists track events for analytics queries.
// Implemented by analytics.Appender.
type EventAppender interface {
	Append(ctx context.Context, ev *events.TrackEvent) error
}

// EventBroadcaster fans a track event out to connected feed clients.
// Implemented by livefeed.Hub.
type EventBroadcaster interface {
	BroadcastTrackEvent(ev *events.TrackEvent)
}

// userLockCount is the stripe count for per-user serialization.
const userLockCount = 64

// TasteHandler consumes track events and applies them to taste
// profiles. Designed for the router middleware stack: parse and
// validation failures return PermanentError (straight to the poison
// topic), store failures return RetryableError (backoff and retry).
//
// Updates for the same user are serialized through a striped lock so
// the read-modify-write against the profile store stays ordered even
// with SubscribersCount above one.
type TasteHandler struct {
	engine     ProfileUpdater
	serializer *events.Serializer
	logger     watermill.LoggerAdapter

	userLocks [userLockCount]sync.Mutex

	messagesReceived  atomic.Int64
	messagesProcessed atomic.Int64
	parseErrors       atomic.Int64
	lastMessageTime   atomic.Value // time.Time
}

// NewTasteHandler creates a handler for the taste consumer.
func NewTasteHandler(engine ProfileUpdater, logger watermill.LoggerAdapter) (*TasteHandler, error) {
	if engine == nil {
		return nil, fmt.Errorf("profile updater required")
	}
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}

	h := &TasteHandler{
		engine:     engine,
		serializer: events.NewSerializer(),
		logger:     logger,
	}
	h.lastMessageTime.Store(time.Time{})
	return h, nil
}

// Handle processes one track event message.
func (h *TasteHandler) Handle(msg *message.Message) error {
	start := time.Now()
	h.messagesReceived.Add(1)
	h.lastMessageTime.Store(start)
	metrics.RecordNATSConsume()

	event, err := h.serializer.Unmarshal(msg.Payload)
	if err != nil {
		h.parseErrors.Add(1)
		metrics.RecordNATSParseFailed()
		h.logger.Error("Unparseable track event", err, watermill.LogFields{
			"message_uuid": msg.UUID,
		})
		return NewPermanentError("parse track event", err)
	}

	if err := event.Validate(); err != nil {
		h.parseErrors.Add(1)
		metrics.RecordNATSParseFailed()
		return NewPermanentError("invalid track event", err)
	}

	lock := &h.userLocks[userStripe(event.UserID)]
	lock.Lock()
	err = h.engine.HandleEvent(msg.Context(), event)
	lock.Unlock()

	if err != nil {
		return NewRetryableError("update taste profile", err)
	}

	h.messagesProcessed.Add(1)
	metrics.RecordNATSProcessed()
	metrics.RecordNATSProcessingDuration(time.Since(start))
	return nil
}

// Stats returns received, processed, and parse failure counts.
func (h *TasteHandler) Stats() (received, processed, parseErrors int64) {
	return h.messagesReceived.Load(), h.messagesProcessed.Load(), h.parseErrors.Load()
}

func userStripe(userID string) uint32 {
	hash := fnv.New32a()
	hash.Write([]byte(userID))
	return hash.Sum32() % userLockCount
}

// AnalyticsHandler consumes track events into the analytics sink.
// Append failures are retryable; the appender batches internally, so a
// returned error means the event never entered a batch.
type AnalyticsHandler struct {
	appender   EventAppender
	serializer *events.Serializer
	logger     watermill.LoggerAdapter

	messagesProcessed atomic.Int64
	parseErrors       atomic.Int64
}

// NewAnalyticsHandler creates a handler for the analytics consumer.
func NewAnalyticsHandler(appender EventAppender, logger watermill.LoggerAdapter) (*AnalyticsHandler, error) {
	if appender == nil {
		return nil, fmt.Errorf("event appender required")
	}
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}

	return &AnalyticsHandler{
		appender:   appender,
		serializer: events.NewSerializer(),
		logger:     logger,
	}, nil
}

// Handle appends one track event to the analytics store.
func (h *AnalyticsHandler) Handle(msg *message.Message) error {
	metrics.RecordNATSConsume()

	event, err := h.serializer.Unmarshal(msg.Payload)
	if err != nil {
		h.parseErrors.Add(1)
		metrics.RecordNATSParseFailed()
		return NewPermanentError("parse track event", err)
	}

	if err := event.Validate(); err != nil {
		h.parseErrors.Add(1)
		metrics.RecordNATSParseFailed()
		return NewPermanentError("invalid track event", err)
	}

	if err := h.appender.Append(msg.Context(), event); err != nil {
		return NewRetryableError("append track event", err)
	}

	h.messagesProcessed.Add(1)
	metrics.RecordNATSProcessed()
	return nil
}

// FeedHandler relays track events to the live feed hub. Broadcast
// never fails, so the only error paths are parse and validation, both
// permanent. A hub with no connected clients drops the message.
type FeedHandler struct {
	hub        EventBroadcaster
	serializer *events.Serializer
	logger     watermill.LoggerAdapter

	messagesProcessed atomic.Int64
}

// NewFeedHandler creates a handler for the live feed consumer.
func NewFeedHandler(hub EventBroadcaster, logger watermill.LoggerAdapter) (*FeedHandler, error) {
	if hub == nil {
		return nil, fmt.Errorf("event broadcaster required")
	}
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}

	return &FeedHandler{
		hub:        hub,
		serializer: events.NewSerializer(),
		logger:     logger,
	}, nil
}

// Handle broadcasts one track event.
func (h *FeedHandler) Handle(msg *message.Message) error {
	event, err := h.serializer.Unmarshal(msg.Payload)
	if err != nil {
		return NewPermanentError("parse track event", err)
	}

	if err := event.Validate(); err != nil {
		return NewPermanentError("invalid track event", err)
	}

	h.hub.BroadcastTrackEvent(event)
	h.messagesProcessed.Add(1)
	return nil
}
