// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

// Package testinfra provides Docker-backed helpers for integration
// testing with containers, built on testcontainers-go.
//
// # NATS Container
//
// NewNATSContainer starts a real NATS server with JetStream enabled so
// the event bus can be exercised against an external broker instead of
// the embedded server:
//
//	func TestBusAgainstExternalBroker(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    nats, err := testinfra.NewNATSContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer nats.Terminate(ctx)
//
//	    // Point eventbus.ComponentsConfig.URL at nats.URL
//	}
//
// # CI Considerations
//
// These tests require Docker and network access, and run only under the
// integration build tag. Tests skip gracefully when Docker is
// unavailable; the first run downloads images, later runs use the
// cache.
package testinfra
