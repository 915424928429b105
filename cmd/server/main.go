// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

// Package main is the entry point for the Auditus server.
//
// Auditus tracks listening sessions, folds track events into per-user
// taste profiles, and serves taste-ranked recommendation queues. One
// binary carries the whole pipeline:
//
//  1. Configuration: Koanf v2 with defaults -> YAML -> env layering
//  2. Profile store: BadgerDB taste documents
//  3. Metadata: Spotify Web API, static fixture, or disabled
//  4. Event bus: embedded NATS JetStream driven by a Watermill router
//  5. Analytics: DuckDB cold path with batched appends (optional)
//  6. Live feed: WebSocket broadcast hub (optional)
//  7. Poller: Spotify or simulated player snapshots (optional)
//  8. HTTP API: chi router with CORS, rate limits and optional JWT
//
// Long-running components run under a suture supervisor tree; a crash
// in one layer restarts that layer without tearing down the rest.
//
// # Example Usage
//
// Development with the simulated player and no auth:
//
//	export AUDITUS_AUTH_MODE=none
//	export AUDITUS_POLLER_ENABLED=true
//	export AUDITUS_POLLER_SOURCE=simulator
//	export AUDITUS_POLLER_USER_ID=dev
//	./auditus
//
// Production with Spotify polling and JWT:
//
//	export AUDITUS_AUTH_MODE=jwt
//	export AUDITUS_AUTH_JWT_SECRET=$(openssl rand -base64 32)
//	export AUDITUS_POLLER_ENABLED=true
//	export AUDITUS_POLLER_SOURCE=spotify
//	export AUDITUS_POLLER_USER_ID=listener-1
//	export AUDITUS_POLLER_SPOTIFY_ACCESS_TOKEN=...
//	./auditus
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the HTTP server drains
// connections, the bus router stops consuming, the analytics appender
// flushes its buffer, and the stores close last.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/tomtom215/auditus/internal/analytics"
	"github.com/tomtom215/auditus/internal/api"
	"github.com/tomtom215/auditus/internal/cache"
	"github.com/tomtom215/auditus/internal/catalog"
	"github.com/tomtom215/auditus/internal/config"
	"github.com/tomtom215/auditus/internal/eventbus"
	"github.com/tomtom215/auditus/internal/livefeed"
	"github.com/tomtom215/auditus/internal/logging"
	"github.com/tomtom215/auditus/internal/metadata"
	"github.com/tomtom215/auditus/internal/poller"
	"github.com/tomtom215/auditus/internal/profile"
	"github.com/tomtom215/auditus/internal/recommend"
	"github.com/tomtom215/auditus/internal/supervisor"
	"github.com/tomtom215/auditus/internal/supervisor/services"
	"github.com/tomtom215/auditus/internal/taste"
	"github.com/tomtom215/auditus/internal/tracker"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", version).
		Str("auth_mode", cfg.Auth.Mode).
		Bool("nats_embedded", cfg.NATS.EmbeddedServer).
		Bool("analytics", cfg.Analytics.Enabled).
		Bool("livefeed", cfg.LiveFeed.Enabled).
		Bool("poller", cfg.Poller.Enabled).
		Msg("Starting Auditus")

	if cfg.Auth.Mode == "none" {
		logging.Warn().Msg("Authentication is DISABLED (AUTH_MODE=none); every endpoint is public")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx, cancel, cfg); err != nil {
		logging.Fatal().Err(err).Msg("Server failed")
	}

	logging.Info().Msg("Application stopped gracefully")
}

//nolint:gocyclo // Sequential component wiring.
func run(ctx context.Context, cancel context.CancelFunc, cfg *config.Config) error {
	// Profile store first; everything downstream reads or writes taste
	// documents.
	db, err := profile.Open(profile.Config{
		Path:       cfg.Profile.Path,
		InMemory:   cfg.Profile.InMemory,
		SyncWrites: cfg.Profile.SyncWrites,
	})
	if err != nil {
		return fmt.Errorf("open profile store: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing profile store")
		}
	}()
	profiles := profile.NewBadgerStore(db)
	logging.Info().Str("path", cfg.Profile.Path).Bool("in_memory", cfg.Profile.InMemory).
		Msg("Profile store opened")

	provider, err := buildMetadataProvider(ctx, cfg.Metadata)
	if err != nil {
		return err
	}

	embeddingCfg := taste.EmbeddingConfig{
		GenreVocab: cfg.Taste.GenreVocab,
		TempoMin:   cfg.Taste.TempoMin,
		TempoMax:   cfg.Taste.TempoMax,
	}
	engine := taste.NewEngine(profiles, provider, taste.Config{Embedding: embeddingCfg})

	catalogSource := catalog.NewSource(catalog.Config{
		Path: cfg.Catalog.Path,
		URL:  cfg.Catalog.URL,
		TTL:  cfg.Catalog.TTL,
	}, cache.RealClock{})
	if catalogSource == nil {
		logging.Warn().Msg("No catalog source configured; queues serve cached entries only")
	}

	ranker := recommend.NewRanker(profiles, catalogSource, recommend.Config{
		QueueSize: cfg.Recommend.QueueSize,
		Embedding: embeddingCfg,
	})

	registry := tracker.NewRegistry(tracker.Config{MinListenTime: cfg.Taste.MinListenTime})

	// Optional cold path.
	var (
		store    *analytics.Store
		appender *analytics.Appender
	)
	if cfg.Analytics.Enabled {
		store, err = analytics.Open(analytics.Config{Path: cfg.Analytics.Path})
		if err != nil {
			return fmt.Errorf("open analytics store: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing analytics store")
			}
		}()

		appender, err = analytics.NewAppender(store, analytics.AppenderConfig{
			BatchSize:     cfg.Analytics.BatchSize,
			FlushInterval: cfg.Analytics.FlushInterval,
		})
		if err != nil {
			return fmt.Errorf("create analytics appender: %w", err)
		}
		defer func() {
			if err := appender.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing analytics appender")
			}
		}()
		logging.Info().Str("path", cfg.Analytics.Path).Msg("Analytics store opened")
	}

	var hub *livefeed.Hub
	if cfg.LiveFeed.Enabled {
		hub = livefeed.NewHub()
	}

	// The event bus carries every track event; the taste consumer is
	// the one required subscriber.
	busCfg := busConfigFrom(cfg)
	consumers := eventbus.Consumers{Taste: engine}
	if appender != nil {
		consumers.Analytics = appender
	}
	if hub != nil {
		consumers.Feed = hub
	}

	wmLogger := watermill.NewSlogLogger(logging.NewSlogLogger())
	bus, err := eventbus.NewComponents(ctx, busCfg, consumers, wmLogger)
	if err != nil {
		return fmt.Errorf("assemble event bus: %w", err)
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer closeCancel()
		if err := bus.Close(closeCtx); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	handlers, err := api.NewHandlers(api.HandlersConfig{
		Registry:  registry,
		Profiles:  profiles,
		Ranker:    ranker,
		Publisher: bus.Publisher,
		History:   historyStore(store),
		Hub:       hub,
		Version:   version,
	})
	if err != nil {
		return fmt.Errorf("create api handlers: %w", err)
	}

	routerCfg, err := api.NewRouterConfig(handlers, cfg.Auth)
	if err != nil {
		return err
	}
	router, err := api.NewRouter(routerCfg)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	tree.AddMessagingService(services.NewEventBusService(bus))
	if hub != nil {
		tree.AddMessagingService(services.NewFeedHubService(hub))
	}
	if appender != nil {
		tree.AddDataService(services.NewAppenderService(appender, 30*time.Second))
	}
	tree.AddAPIService(services.NewHTTPServerService(httpServer, 10*time.Second))

	if cfg.Poller.Enabled {
		source, err := buildPlayerSource(ctx, cfg.Poller)
		if err != nil {
			return err
		}
		p, err := poller.New(source, registry, bus.Publisher, poller.Config{
			Source:   cfg.Poller.Source,
			Interval: cfg.Poller.Interval,
		})
		if err != nil {
			return fmt.Errorf("create poller: %w", err)
		}
		tree.AddMessagingService(services.NewPollerService(p))
		logging.Info().
			Str("source", cfg.Poller.Source).
			Str("user_id", cfg.Poller.UserID).
			Dur("interval", cfg.Poller.Interval).
			Msg("Player poller enabled")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", httpServer.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	return nil
}

// buildMetadataProvider selects the metadata backend. A disabled
// provider still lets plays count; only feature enrichment stops.
func buildMetadataProvider(ctx context.Context, cfg config.MetadataConfig) (metadata.Provider, error) {
	switch cfg.Provider {
	case "spotify":
		spotifyCfg := metadata.DefaultSpotifyConfig()
		spotifyCfg.ClientID = cfg.SpotifyClientID
		spotifyCfg.ClientSecret = cfg.SpotifyClientSecret
		if cfg.RequestsPerSecond > 0 {
			spotifyCfg.RequestsPerSecond = cfg.RequestsPerSecond
		}
		if cfg.Burst > 0 {
			spotifyCfg.Burst = cfg.Burst
		}
		provider, err := metadata.NewSpotifyProvider(ctx, spotifyCfg)
		if err != nil {
			return nil, fmt.Errorf("spotify metadata provider: %w", err)
		}
		logging.Info().Msg("Spotify metadata provider enabled")
		return provider, nil

	case "static":
		provider, err := metadata.LoadStaticProvider(cfg.StaticPath)
		if err != nil {
			return nil, fmt.Errorf("static metadata provider: %w", err)
		}
		logging.Info().Str("path", cfg.StaticPath).Int("tracks", provider.Len()).
			Msg("Static metadata provider enabled")
		return provider, nil

	default:
		logging.Info().Msg("Metadata enrichment disabled")
		return nil, nil
	}
}

// buildPlayerSource selects the player backend for the poller.
func buildPlayerSource(ctx context.Context, cfg config.PollerConfig) (poller.PlayerSource, error) {
	switch cfg.Source {
	case "spotify":
		source, err := poller.NewSpotifySource(ctx, cfg.UserID, cfg.SpotifyAccessToken)
		if err != nil {
			return nil, fmt.Errorf("spotify player source: %w", err)
		}
		return source, nil

	default:
		source, err := poller.NewSimulatedSource(cfg.UserID, poller.DefaultPlaylist(), cache.RealClock{})
		if err != nil {
			return nil, fmt.Errorf("simulated player source: %w", err)
		}
		return source, nil
	}
}

// historyStore keeps the api dependency nil when analytics is off; a
// typed nil *analytics.Store inside the interface would defeat the
// handler's nil check.
func historyStore(store *analytics.Store) api.HistoryStore {
	if store == nil {
		return nil
	}
	return store
}

// busConfigFrom maps the application config onto the bus assembly.
func busConfigFrom(cfg *config.Config) eventbus.ComponentsConfig {
	busCfg := eventbus.DefaultComponentsConfig()
	busCfg.Embedded = cfg.NATS.EmbeddedServer
	busCfg.URL = cfg.NATS.URL
	busCfg.DurablePrefix = cfg.NATS.DurableName
	busCfg.SubscribersCount = cfg.NATS.SubscribersCount

	if cfg.NATS.StoreDir != "" {
		busCfg.Server.StoreDir = cfg.NATS.StoreDir
	}
	if cfg.NATS.MaxMemory > 0 {
		busCfg.Server.JetStreamMaxMem = cfg.NATS.MaxMemory
	}
	if cfg.NATS.MaxStore > 0 {
		busCfg.Server.JetStreamMaxStore = cfg.NATS.MaxStore
	}
	if cfg.NATS.StreamRetentionDays > 0 {
		busCfg.Stream.MaxAge = time.Duration(cfg.NATS.StreamRetentionDays) * 24 * time.Hour
	}

	if cfg.NATS.RouterRetryCount > 0 {
		busCfg.Router.RetryMaxRetries = cfg.NATS.RouterRetryCount
	}
	if cfg.NATS.RouterRetryInitialInterval > 0 {
		busCfg.Router.RetryInitialInterval = cfg.NATS.RouterRetryInitialInterval
	}
	busCfg.Router.ThrottlePerSecond = cfg.NATS.RouterThrottlePerSecond
	if !cfg.NATS.RouterPoisonQueueEnabled {
		busCfg.Router.PoisonQueueTopic = ""
	} else if cfg.NATS.RouterPoisonQueueTopic != "" {
		busCfg.Router.PoisonQueueTopic = cfg.NATS.RouterPoisonQueueTopic
	}
	if cfg.NATS.RouterCloseTimeout > 0 {
		busCfg.Router.CloseTimeout = cfg.NATS.RouterCloseTimeout
	}

	return busCfg
}
