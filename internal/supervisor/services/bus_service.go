// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

package services

import (
	"context"
	"errors"
)

// BusRunner matches eventbus.Components' Run method.
type BusRunner interface {
	Run(ctx context.Context) error
}

// EventBusService runs the Watermill router (and with it every durable
// consumer) under supervision. Teardown of the underlying connections
// belongs to the owner of the Components, not this wrapper.
type EventBusService struct {
	bus  BusRunner
	name string
}

// NewEventBusService wraps the event bus components.
func NewEventBusService(bus BusRunner) *EventBusService {
	return &EventBusService{
		bus:  bus,
		name: "event-bus",
	}
}

// Serve implements suture.Service. A context-canceled return is passed
// through so suture treats it as a normal stop rather than a crash.
func (s *EventBusService) Serve(ctx context.Context) error {
	err := s.bus.Run(ctx)
	if err != nil && ctx.Err() != nil && !errors.Is(err, context.Canceled) {
		// Router teardown after cancellation can surface wrapped close
		// errors; report the cancellation instead so the supervisor
		// does not count it as a failure.
		return ctx.Err()
	}
	return err
}

// String implements fmt.Stringer for supervisor logs.
func (s *EventBusService) String() string {
	return s.name
}
