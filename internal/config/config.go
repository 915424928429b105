// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

package config

import (
	"fmt"
	"time"

	"github.com/tomtom215/auditus/internal/validation"
)

// Config is the root configuration for the Auditus server.
// Loaded via Koanf v2 with layered sources: defaults -> YAML file -> env.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	NATS      NATSConfig      `koanf:"nats"`
	Profile   ProfileConfig   `koanf:"profile"`
	Taste     TasteConfig     `koanf:"taste"`
	Catalog   CatalogConfig   `koanf:"catalog"`
	Recommend RecommendConfig `koanf:"recommend"`
	Metadata  MetadataConfig  `koanf:"metadata"`
	Poller    PollerConfig    `koanf:"poller"`
	Analytics AnalyticsConfig `koanf:"analytics"`
	LiveFeed  LiveFeedConfig  `koanf:"livefeed"`
	Auth      AuthConfig      `koanf:"auth"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout time.Duration `koanf:"timeout"`
}

// LoggingConfig holds zerolog settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// NATSConfig holds event bus settings. The bus is the spine of the
// pipeline; EmbeddedServer keeps single-binary deployments dependency-free.
type NATSConfig struct {
	URL                 string        `koanf:"url" validate:"required"`
	EmbeddedServer      bool          `koanf:"embedded_server"`
	StoreDir            string        `koanf:"store_dir"`
	MaxMemory           int64         `koanf:"max_memory"`
	MaxStore            int64         `koanf:"max_store"`
	StreamRetentionDays int           `koanf:"stream_retention_days" validate:"min=1"`
	SubscribersCount    int           `koanf:"subscribers_count" validate:"min=1"`
	DurableName         string        `koanf:"durable_name"`

	// Router middleware settings
	RouterRetryCount           int           `koanf:"router_retry_count"`
	RouterRetryInitialInterval time.Duration `koanf:"router_retry_initial_interval"`
	RouterThrottlePerSecond    int64         `koanf:"router_throttle_per_second"`
	RouterPoisonQueueEnabled   bool          `koanf:"router_poison_queue_enabled"`
	RouterPoisonQueueTopic     string        `koanf:"router_poison_queue_topic"`
	RouterCloseTimeout         time.Duration `koanf:"router_close_timeout"`
}

// ProfileConfig holds the BadgerDB profile store settings.
type ProfileConfig struct {
	Path       string `koanf:"path" validate:"required"`
	InMemory   bool   `koanf:"in_memory"`
	SyncWrites bool   `koanf:"sync_writes"`
}

// TasteConfig holds the stats engine and embedding layout settings.
type TasteConfig struct {
	// GenreVocab is the fixed genre vocabulary, in embedding order.
	// Env: AUDITUS_TASTE_GENRE_VOCAB (comma-separated, default empty)
	GenreVocab []string `koanf:"genre_vocab"`

	// TempoMin/TempoMax bound tempo normalization in BPM. Swapped or
	// equal bounds fall back to the 50/200 defaults at build time.
	TempoMin float64 `koanf:"tempo_min"`
	TempoMax float64 `koanf:"tempo_max"`

	// MinListenTime is the completion threshold for the session tracker.
	MinListenTime time.Duration `koanf:"min_listen_time"`
}

// CatalogConfig holds the item catalog source settings.
// Path takes precedence over URL when both are set.
type CatalogConfig struct {
	Path string        `koanf:"path"`
	URL  string        `koanf:"url" validate:"omitempty,url"`
	TTL  time.Duration `koanf:"ttl"`
}

// RecommendConfig holds ranker settings.
type RecommendConfig struct {
	QueueSize int `koanf:"queue_size" validate:"min=1,max=50"`
}

// MetadataConfig holds track metadata provider settings.
type MetadataConfig struct {
	// Provider selects the lookup backend: spotify, static, or disabled.
	Provider string `koanf:"provider" validate:"oneof=spotify static disabled"`

	SpotifyClientID     string `koanf:"spotify_client_id"`
	SpotifyClientSecret string `koanf:"spotify_client_secret"`

	// StaticPath is the JSON fixture file for the static provider.
	StaticPath string `koanf:"static_path"`

	// RequestsPerSecond and Burst bound outbound Spotify calls.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	Burst             int     `koanf:"burst"`
}

// PollerConfig holds the player snapshot poller settings.
type PollerConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Interval time.Duration `koanf:"interval"`

	// Source selects the player backend: spotify or simulator.
	Source string `koanf:"source" validate:"oneof=spotify simulator"`

	// UserID is the listener whose player is polled.
	UserID string `koanf:"user_id"`

	// SpotifyAccessToken is a user-authorized token for the
	// currently-playing endpoint. Client credentials are not enough;
	// the token must carry the user-read-playback-state scope.
	SpotifyAccessToken string `koanf:"spotify_access_token"`
}

// AnalyticsConfig holds the DuckDB cold-path settings.
type AnalyticsConfig struct {
	Enabled       bool          `koanf:"enabled"`
	Path          string        `koanf:"path"`
	BatchSize     int           `koanf:"batch_size" validate:"min=1"`
	FlushInterval time.Duration `koanf:"flush_interval"`
}

// LiveFeedConfig holds the WebSocket broadcast settings.
type LiveFeedConfig struct {
	Enabled bool `koanf:"enabled"`
}

// AuthConfig holds API authentication and rate limit settings.
type AuthConfig struct {
	// Mode is jwt or none. JWT requires a 32+ character secret.
	Mode      string `koanf:"mode" validate:"oneof=jwt none"`
	JWTSecret string `koanf:"jwt_secret"`

	CORSOrigins []string `koanf:"cors_origins"`

	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"min=1"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// Validate checks cross-field constraints that struct tags cannot express,
// then runs tag validation for the rest.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}

	if c.Auth.Mode == "jwt" && len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters when auth.mode is jwt")
	}
	if c.Metadata.Provider == "spotify" &&
		(c.Metadata.SpotifyClientID == "" || c.Metadata.SpotifyClientSecret == "") {
		return fmt.Errorf("metadata.spotify_client_id and metadata.spotify_client_secret are required when metadata.provider is spotify")
	}
	if c.Poller.Enabled && c.Poller.UserID == "" {
		return fmt.Errorf("poller.user_id is required when the poller is enabled")
	}
	if c.Catalog.TTL < 0 {
		return fmt.Errorf("catalog.ttl must be non-negative")
	}
	return nil
}

// CatalogConfigured reports whether any catalog source is set.
// An unset catalog is a warning, not an error: recommendations degrade
// to stored queues.
func (c *Config) CatalogConfigured() bool {
	return c.Catalog.Path != "" || c.Catalog.URL != ""
}
