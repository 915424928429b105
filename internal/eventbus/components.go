// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

package eventbus

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
)

// Durable consumer names. Each name owns an independent delivery cursor
// on the stream.
const (
	DurableTaste     = "taste"
	DurableAnalytics = "analytics"
	DurableFeed      = "feed"
)

// ComponentsConfig configures the full bus assembly.
type ComponentsConfig struct {
	// Embedded starts an in-process NATS server. When false, URL must
	// point at an external broker.
	Embedded bool
	URL      string

	// DurablePrefix namespaces consumer durable and queue group names,
	// e.g. prefix "auditus" yields durable "auditus-taste". Required
	// when several deployments share one broker.
	DurablePrefix string

	// SubscribersCount is the per-consumer goroutine count. More than
	// one trades per-user ordering at the subscriber for throughput;
	// the taste handler re-serializes per user with striped locks.
	SubscribersCount int

	Server ServerConfig
	Stream StreamConfig
	Router RouterConfig
}

// DefaultComponentsConfig returns a single-instance assembly with an
// embedded broker.
func DefaultComponentsConfig() ComponentsConfig {
	return ComponentsConfig{
		Embedded: true,
		Server:   DefaultServerConfig(),
		Stream:   DefaultStreamConfig(),
		Router:   DefaultRouterConfig(),
	}
}

// Consumers carries the handlers to wire onto the router. Taste is
// required; Analytics and Feed are optional and skipped when nil.
type Consumers struct {
	Taste     ProfileUpdater
	Analytics EventAppender
	Feed      EventBroadcaster
}

// Components is the assembled event bus: optional embedded server,
// stream, publisher, one durable subscriber per consumer, and the
// router that drives them.
type Components struct {
	Server    *EmbeddedServer
	Publisher *Publisher
	Router    *Router

	conn        *natsgo.Conn
	subscribers []*Subscriber
	logger      watermill.LoggerAdapter
}

// NewComponents assembles the bus: starts the embedded server when
// configured, ensures the stream, and wires each non-nil consumer onto
// the router with its own durable subscriber.
func NewComponents(
	ctx context.Context,
	cfg ComponentsConfig,
	consumers Consumers,
	logger watermill.LoggerAdapter,
) (*Components, error) {
	if consumers.Taste == nil {
		return nil, fmt.Errorf("taste consumer required")
	}
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}

	c := &Components{logger: logger}

	url := cfg.URL
	if cfg.Embedded {
		srv, err := NewEmbeddedServer(cfg.Server)
		if err != nil {
			return nil, fmt.Errorf("start embedded NATS: %w", err)
		}
		c.Server = srv
		url = srv.ClientURL()
	}
	if url == "" {
		url = natsgo.DefaultURL
	}

	// The stream must exist before publisher and subscribers bind.
	conn, err := natsgo.Connect(url,
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
	)
	if err != nil {
		c.closePartial()
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	c.conn = conn

	streamMgr, err := NewStreamManager(conn, cfg.Stream)
	if err != nil {
		c.closePartial()
		return nil, err
	}
	if _, err := streamMgr.EnsureStream(ctx); err != nil {
		c.closePartial()
		return nil, fmt.Errorf("ensure stream: %w", err)
	}

	pub, err := NewPublisher(DefaultPublisherConfig(url), logger)
	if err != nil {
		c.closePartial()
		return nil, err
	}
	pub.SetCircuitBreaker(NewPublishBreaker(DefaultBreakerConfig("nats-publish")))
	c.Publisher = pub

	router, err := NewRouter(cfg.Router, pub.WatermillPublisher(), logger)
	if err != nil {
		c.closePartial()
		return nil, err
	}
	c.Router = router

	tasteHandler, err := NewTasteHandler(consumers.Taste, logger)
	if err != nil {
		c.closePartial()
		return nil, err
	}
	if err := c.addConsumer(cfg, url, DurableTaste, tasteHandler.Handle); err != nil {
		c.closePartial()
		return nil, err
	}

	if consumers.Analytics != nil {
		analyticsHandler, err := NewAnalyticsHandler(consumers.Analytics, logger)
		if err != nil {
			c.closePartial()
			return nil, err
		}
		if err := c.addConsumer(cfg, url, DurableAnalytics, analyticsHandler.Handle); err != nil {
			c.closePartial()
			return nil, err
		}
	}

	if consumers.Feed != nil {
		feedHandler, err := NewFeedHandler(consumers.Feed, logger)
		if err != nil {
			c.closePartial()
			return nil, err
		}
		if err := c.addConsumer(cfg, url, DurableFeed, feedHandler.Handle); err != nil {
			c.closePartial()
			return nil, err
		}
	}

	return c, nil
}

func (c *Components) addConsumer(cfg ComponentsConfig, url, durable string, handle func(*message.Message) error) error {
	if cfg.DurablePrefix != "" {
		durable = cfg.DurablePrefix + "-" + durable
	}
	subCfg := DefaultSubscriberConfig(url, durable)
	if cfg.SubscribersCount > 0 {
		subCfg.SubscribersCount = cfg.SubscribersCount
	}

	sub, err := NewSubscriber(subCfg, c.logger)
	if err != nil {
		return fmt.Errorf("create %s subscriber: %w", durable, err)
	}
	c.subscribers = append(c.subscribers, sub)

	c.Router.AddConsumerHandler(
		durable+"-consumer",
		TopicAllEvents,
		sub.Watermill(),
		handle,
	)
	return nil
}

// Run starts the router and blocks until the context ends.
func (c *Components) Run(ctx context.Context) error {
	return c.Router.Run(ctx)
}

// Close tears the bus down in reverse order: router, subscribers,
// publisher, connection, then the embedded server.
func (c *Components) Close(ctx context.Context) error {
	var errs []error

	if c.Router != nil {
		if err := c.Router.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close router: %w", err))
		}
	}
	for _, sub := range c.subscribers {
		if err := sub.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close subscriber: %w", err))
		}
	}
	if c.Publisher != nil {
		if err := c.Publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher: %w", err))
		}
	}
	if c.conn != nil {
		c.conn.Close()
	}
	if c.Server != nil {
		if err := c.Server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown NATS server: %w", err))
		}
	}

	return errors.Join(errs...)
}

func (c *Components) closePartial() {
	for _, sub := range c.subscribers {
		_ = sub.Close()
	}
	if c.Publisher != nil {
		_ = c.Publisher.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
	if c.Server != nil {
		c.Server.server.Shutdown()
	}
}
