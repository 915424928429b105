// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type mockHTTPServer struct {
	listenErr   error
	shutdownErr error
	started     chan struct{}
	release     chan struct{}
	shutdowns   atomic.Int32
}

func newMockHTTPServer() *mockHTTPServer {
	return &mockHTTPServer{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (m *mockHTTPServer) ListenAndServe() error {
	close(m.started)
	if m.listenErr != nil {
		return m.listenErr
	}
	<-m.release
	return errors.New("http: Server closed")
}

func (m *mockHTTPServer) Shutdown(_ context.Context) error {
	m.shutdowns.Add(1)
	close(m.release)
	return m.shutdownErr
}

func TestHTTPServerService_GracefulShutdown(t *testing.T) {
	t.Parallel()

	server := newMockHTTPServer()
	svc := NewHTTPServerService(server, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	<-server.started
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("service did not stop")
	}

	if server.shutdowns.Load() != 1 {
		t.Errorf("shutdown called %d times, want 1", server.shutdowns.Load())
	}
}

func TestHTTPServerService_ListenFailurePropagates(t *testing.T) {
	t.Parallel()

	server := newMockHTTPServer()
	server.listenErr = errors.New("bind: address already in use")
	svc := NewHTTPServerService(server, time.Second)

	err := svc.Serve(context.Background())
	if err == nil || !errors.Is(err, server.listenErr) {
		t.Fatalf("Serve returned %v, want wrapped listen error", err)
	}
}

type ctxFunc func(ctx context.Context) error

func (f ctxFunc) RunWithContext(ctx context.Context) error { return f(ctx) }
func (f ctxFunc) Run(ctx context.Context) error            { return f(ctx) }
func (f ctxFunc) Serve(ctx context.Context) error          { return f(ctx) }

func TestFeedHubService_Delegates(t *testing.T) {
	t.Parallel()

	want := errors.New("hub stopped")
	svc := NewFeedHubService(ctxFunc(func(_ context.Context) error { return want }))

	if err := svc.Serve(context.Background()); !errors.Is(err, want) {
		t.Errorf("Serve returned %v, want hub error", err)
	}
	if svc.String() != "livefeed-hub" {
		t.Errorf("name = %q", svc.String())
	}
}

func TestEventBusService_NormalizesCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := NewEventBusService(ctxFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return errors.New("subscriber close failed: connection draining")
	}))

	if err := svc.Serve(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Serve returned %v, want context.Canceled", err)
	}
}

func TestEventBusService_CrashPropagates(t *testing.T) {
	t.Parallel()

	want := errors.New("router crashed")
	svc := NewEventBusService(ctxFunc(func(_ context.Context) error { return want }))

	if err := svc.Serve(context.Background()); !errors.Is(err, want) {
		t.Errorf("Serve returned %v, want crash error", err)
	}
}

func TestPollerService_Delegates(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := NewPollerService(ctxFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))

	if err := svc.Serve(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Serve returned %v, want context.Canceled", err)
	}
}

type mockAppender struct {
	startErr error
	starts   atomic.Int32
	flushes  atomic.Int32
}

func (m *mockAppender) Start(_ context.Context) error {
	m.starts.Add(1)
	return m.startErr
}

func (m *mockAppender) Flush(_ context.Context) error {
	m.flushes.Add(1)
	return nil
}

func TestAppenderService_FlushesOnShutdown(t *testing.T) {
	t.Parallel()

	appender := &mockAppender{}
	svc := NewAppenderService(appender, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	deadline := time.After(2 * time.Second)
	for appender.starts.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("appender never started")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("service did not stop")
	}

	if appender.flushes.Load() != 1 {
		t.Errorf("flush called %d times, want 1", appender.flushes.Load())
	}
}

func TestAppenderService_StartFailurePropagates(t *testing.T) {
	t.Parallel()

	appender := &mockAppender{startErr: errors.New("appender closed")}
	svc := NewAppenderService(appender, time.Second)

	if err := svc.Serve(context.Background()); !errors.Is(err, appender.startErr) {
		t.Errorf("Serve returned %v, want start error", err)
	}
}
