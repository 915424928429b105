// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

package poller

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/auditus/internal/events"
	"github.com/tomtom215/auditus/internal/logging"
	"github.com/tomtom215/auditus/internal/metrics"
	"github.com/tomtom215/auditus/internal/tracker"
)

// EventPublisher sends emitted track events to the bus. Implemented by
// eventbus.Publisher.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event *events.TrackEvent) error
}

// Config holds poll loop settings.
type Config struct {
	// Source labels the events this poller produces (spotify,
	// simulator).
	Source   string
	Interval time.Duration
}

// DefaultConfig returns production defaults.
func DefaultConfig(source string) Config {
	return Config{
		Source:   source,
		Interval: 5 * time.Second,
	}
}

// Poller drives one PlayerSource into the session tracker on a timer.
type Poller struct {
	source    PlayerSource
	registry  *tracker.Registry
	publisher EventPublisher
	cfg       Config
}

// New creates a poller.
func New(source PlayerSource, registry *tracker.Registry, publisher EventPublisher, cfg Config) (*Poller, error) {
	if source == nil {
		return nil, fmt.Errorf("player source required")
	}
	if registry == nil {
		return nil, fmt.Errorf("tracker registry required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("event publisher required")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.Source == "" {
		cfg.Source = "simulator"
	}

	return &Poller{
		source:    source,
		registry:  registry,
		publisher: publisher,
		cfg:       cfg,
	}, nil
}

// Serve runs the poll loop until the context is canceled. Suture
// service entry point.
func (p *Poller) Serve(ctx context.Context) error {
	logging.Info().
		Str("source", p.cfg.Source).
		Dur("interval", p.cfg.Interval).
		Msg("Player poller started")

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info().Str("source", p.cfg.Source).Msg("Player poller stopped")
			return ctx.Err()
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// tick runs one poll cycle. Errors are logged and skipped; the next
// tick retries.
func (p *Poller) tick(ctx context.Context) {
	start := time.Now()
	snap, err := p.source.CurrentlyPlaying(ctx)
	metrics.RecordPoll(p.cfg.Source, time.Since(start), err)

	if err != nil {
		logging.Warn().
			Err(err).
			Str("source", p.cfg.Source).
			Msg("Player poll failed, skipping tick")
		return
	}
	if snap == nil {
		return
	}

	metrics.RecordSnapshot(p.cfg.Source)
	event := p.registry.Observe(p.cfg.Source, snap)
	metrics.SetActiveSessions(p.registry.ActiveSessions())
	if event == nil {
		return
	}

	if err := p.publisher.PublishEvent(ctx, event); err != nil {
		// The tracker already closed the session; the event is lost
		// for the hot path but the play will reappear on the next
		// track transition.
		logging.Error().
			Err(err).
			Str("event_id", event.EventID).
			Str("track_id", event.TrackID).
			Msg("Publish track event failed")
		return
	}

	metrics.RecordTrackEvent(event.Source, event.Status)
	logging.Debug().
		Str("event_id", event.EventID).
		Str("track_id", event.TrackID).
		Str("status", event.Status).
		Msg("Published track event")
}
