// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

package services

import (
	"context"
)

// SnapshotPoller matches poller.Poller's Serve method.
type SnapshotPoller interface {
	Serve(ctx context.Context) error
}

// PollerService runs the player poll loop under supervision. The loop
// already blocks until its context is canceled; a supervisor restart
// after a crash resumes polling with the same session state lost, which
// at worst costs one track transition.
type PollerService struct {
	poller SnapshotPoller
	name   string
}

// NewPollerService wraps a player poller.
func NewPollerService(poller SnapshotPoller) *PollerService {
	return &PollerService{
		poller: poller,
		name:   "player-poller",
	}
}

// Serve implements suture.Service.
func (s *PollerService) Serve(ctx context.Context) error {
	return s.poller.Serve(ctx)
}

// String implements fmt.Stringer for supervisor logs.
func (s *PollerService) String() string {
	return s.name
}
