// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

package services

import (
	"context"
	"time"

	"github.com/tomtom215/auditus/internal/logging"
)

// FlushingAppender matches analytics.Appender's timer lifecycle.
type FlushingAppender interface {
	Start(ctx context.Context) error
	Flush(ctx context.Context) error
}

// AppenderService keeps the analytics appender's flush timer alive under
// supervision. Start is idempotent, so a supervisor restart is safe. On
// shutdown the wrapper drains the buffer with one final flush; closing
// the appender itself is left to the component owner.
type AppenderService struct {
	appender     FlushingAppender
	flushTimeout time.Duration
	name         string
}

// NewAppenderService wraps an analytics appender.
func NewAppenderService(appender FlushingAppender, flushTimeout time.Duration) *AppenderService {
	if flushTimeout <= 0 {
		flushTimeout = 30 * time.Second
	}
	return &AppenderService{
		appender:     appender,
		flushTimeout: flushTimeout,
		name:         "analytics-appender",
	}
}

// Serve implements suture.Service.
func (s *AppenderService) Serve(ctx context.Context) error {
	if err := s.appender.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	flushCtx, cancel := context.WithTimeout(context.Background(), s.flushTimeout)
	defer cancel()
	if err := s.appender.Flush(flushCtx); err != nil {
		logging.Warn().Err(err).Msg("Final analytics flush failed during shutdown")
	}

	return ctx.Err()
}

// String implements fmt.Stringer for supervisor logs.
func (s *AppenderService) String() string {
	return s.name
}
