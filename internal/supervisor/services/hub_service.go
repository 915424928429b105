// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

package services

import (
	"context"
)

// ContextHub matches livefeed.Hub's RunWithContext method without
// importing the package.
type ContextHub interface {
	RunWithContext(ctx context.Context) error
}

// FeedHubService runs the live feed broadcast hub under supervision.
// The hub's RunWithContext already follows the suture.Service pattern,
// so this wrapper only delegates and names it.
type FeedHubService struct {
	hub  ContextHub
	name string
}

// NewFeedHubService wraps a broadcast hub.
func NewFeedHubService(hub ContextHub) *FeedHubService {
	return &FeedHubService{
		hub:  hub,
		name: "livefeed-hub",
	}
}

// Serve implements suture.Service.
func (s *FeedHubService) Serve(ctx context.Context) error {
	return s.hub.RunWithContext(ctx)
}

// String implements fmt.Stringer for supervisor logs.
func (s *FeedHubService) String() string {
	return s.name
}
