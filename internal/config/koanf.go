// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in order.
// The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/auditus/config.yaml",
	"/etc/auditus/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "CONFIG_PATH"

// envPrefix is the generic environment variable prefix.
// AUDITUS_TASTE_TEMPO_MIN -> taste.tempo_min
const envPrefix = "AUDITUS_"

// defaultConfig returns a Config with all defaults applied.
// These are layered under the config file and environment.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8464,
			Timeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		NATS: NATSConfig{
			URL:                 "nats://127.0.0.1:4222",
			EmbeddedServer:      true,
			StoreDir:            "data/nats/jetstream",
			MaxMemory:           1 << 30,  // 1GB
			MaxStore:            10 << 30, // 10GB
			StreamRetentionDays: 7,
			SubscribersCount:    1, // Per-user ordering relies on single-threaded consumption
			DurableName:         "auditus",

			RouterRetryCount:           5,
			RouterRetryInitialInterval: time.Second,
			RouterThrottlePerSecond:    0, // Unlimited
			RouterPoisonQueueEnabled:   true,
			RouterPoisonQueueTopic:     "listening.poison",
			RouterCloseTimeout:         30 * time.Second,
		},
		Profile: ProfileConfig{
			Path:       "data/profiles",
			InMemory:   false,
			SyncWrites: false,
		},
		Taste: TasteConfig{
			GenreVocab:    []string{},
			TempoMin:      50,
			TempoMax:      200,
			MinListenTime: 30 * time.Second,
		},
		Catalog: CatalogConfig{
			Path: "",
			URL:  "",
			TTL:  300 * time.Second,
		},
		Recommend: RecommendConfig{
			QueueSize: 10,
		},
		Metadata: MetadataConfig{
			Provider:          "disabled",
			RequestsPerSecond: 5,
			Burst:             10,
		},
		Poller: PollerConfig{
			Enabled:  false,
			Interval: 5 * time.Second,
			Source:   "simulator",
		},
		Analytics: AnalyticsConfig{
			Enabled:       true,
			Path:          "data/auditus.duckdb",
			BatchSize:     500,
			FlushInterval: 5 * time.Second,
		},
		LiveFeed: LiveFeedConfig{
			Enabled: true,
		},
		Auth: AuthConfig{
			Mode:              "none",
			CORSOrigins:       []string{},
			RateLimitRequests: 100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
	}
}

// Load builds the configuration from layered sources:
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. Environment variables (highest priority)
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("process slice fields: %w", err)
	}

	if err := normalizeSecondsField(k, "catalog.ttl"); err != nil {
		return nil, fmt.Errorf("normalize catalog.ttl: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first config file found, or empty string.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths lists config paths parsed as comma-separated slices.
// Env vars arrive as strings; these keys expect slices.
var sliceConfigPaths = []string{
	"taste.genre_vocab",
	"auth.cors_origins",
}

// processSliceFields converts comma-separated strings to slices for
// the known slice-typed keys.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// Already a slice (from YAML or defaults)
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}
	return nil
}

// normalizeSecondsField rewrites a bare numeric value as "<n>s" so the
// duration decode hook accepts it. ITEM_INDEX_TTL_SECONDS=300 and
// AUDITUS_CATALOG_TTL=5m both work.
func normalizeSecondsField(k *koanf.Koanf, path string) error {
	val := k.Get(path)
	strVal, ok := val.(string)
	if !ok || strVal == "" {
		return nil
	}
	for _, r := range strVal {
		if r < '0' || r > '9' {
			return nil // Not a bare number; let the duration parser handle it
		}
	}
	return k.Set(path, strVal+"s")
}

// legacyEnvMappings maps environment variable names carried over from
// earlier deployments to config paths. The AUDITUS_ prefix form is the
// canonical one; these remain so existing setups keep working.
var legacyEnvMappings = map[string]string{
	// Recommender surface
	"recommender_genre_vocab": "taste.genre_vocab",
	"recommender_tempo_min":   "taste.tempo_min",
	"recommender_tempo_max":   "taste.tempo_max",
	"recommender_queue_size":  "recommend.queue_size",

	// Item catalog
	"item_vectors_path":      "catalog.path",
	"item_vectors_url":       "catalog.url",
	"item_index_ttl_seconds": "catalog.ttl",

	// Bus
	"nats_url":      "nats.url",
	"nats_embedded": "nats.embedded_server",

	// Spotify credentials
	"spotify_client_id":     "metadata.spotify_client_id",
	"spotify_client_secret": "metadata.spotify_client_secret",
}

// envTransformFunc maps environment variable names to koanf paths.
//
// Canonical form: AUDITUS_<SECTION>_<KEY>, e.g.
//   - AUDITUS_TASTE_GENRE_VOCAB -> taste.genre_vocab
//   - AUDITUS_RECOMMEND_QUEUE_SIZE -> recommend.queue_size
//
// Legacy names without the prefix resolve through legacyEnvMappings.
// Anything else is ignored so unrelated environment noise never lands
// in the config tree.
func envTransformFunc(key string) string {
	lower := strings.ToLower(key)

	if mapped, ok := legacyEnvMappings[lower]; ok {
		return mapped
	}

	if !strings.HasPrefix(lower, strings.ToLower(envPrefix)) {
		return ""
	}
	rest := strings.TrimPrefix(lower, strings.ToLower(envPrefix))

	// First segment is the section; the remainder is the key.
	parts := strings.SplitN(rest, "_", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return ""
	}
	return parts[0] + "." + parts[1]
}
