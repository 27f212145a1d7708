// Setlist - Playlist Association Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

// Package config loads Setlist configuration with Koanf v2.
//
// Sources are layered, highest priority last:
//
//  1. Built-in defaults (defaultConfig)
//  2. YAML file from CONFIG_PATH or one of DefaultConfigPaths
//  3. Environment variables (MIN_SUPPORT, DATASET_URL, MODEL_PATH, ...)
//
// Environment names are flat and mapped to koanf paths by envTransformFunc;
// variables without a mapping are ignored.
package config

import "time"

// Config is the complete application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Mining    MiningConfig    `koanf:"mining"`
	Model     ModelConfig     `koanf:"model"`
	Dataset   DatasetConfig   `koanf:"dataset"`
	Recommend RecommendConfig `koanf:"recommend"`
	Training  TrainingConfig  `koanf:"training"`
	Events    EventsConfig    `koanf:"events"`
	API       APIConfig       `koanf:"api"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	// Host is the bind address. Default: 0.0.0.0
	Host string `koanf:"host"`

	// Port is the listen port. Default: 5005
	Port int `koanf:"port"`

	// ReadTimeout bounds reading a full request. Default: 30s
	ReadTimeout time.Duration `koanf:"read_timeout"`

	// WriteTimeout bounds writing a response. POST /train extends its own
	// deadline to the training timeout. Default: 60s
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// IdleTimeout bounds keep-alive connections. Default: 120s
	IdleTimeout time.Duration `koanf:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown. Default: 15s
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	// Level: trace, debug, info, warn, error. Default: info
	Level string `koanf:"level"`

	// Format: json or console. Default: json
	Format string `koanf:"format"`

	// Caller adds file:line to log entries. Default: false
	Caller bool `koanf:"caller"`
}

// MiningConfig holds the Eclat thresholds.
type MiningConfig struct {
	// MinSupport is the minimum fraction of playlists an itemset must appear in.
	// Default: 0.05
	MinSupport float64 `koanf:"min_support"`

	// MinConfidence is the minimum confidence of a generated rule.
	// Default: 0.3
	MinConfidence float64 `koanf:"min_confidence"`

	// MaxItemsetSize caps itemset length (1-5). Default: 5
	MaxItemsetSize int `koanf:"max_itemset_size"`
}

// ModelConfig controls model persistence.
type ModelConfig struct {
	// Path is the directory holding model files. It may be shared with
	// the training job. Default: /data/models
	Path string `koanf:"path"`

	// Name prefixes model files: {name}_v{version}.gob.gz.
	// Default: association_rules
	Name string `koanf:"name"`

	// KeepVersions is how many versions survive pruning. Default: 10
	KeepVersions int `koanf:"keep_versions"`

	// RegistryPath is the BadgerDB directory for the version index.
	// Only the server opens it. Default: /data/registry
	RegistryPath string `koanf:"registry_path"`

	// Watch reloads the model when files appear in Path. Default: false
	Watch bool `koanf:"watch"`

	// ReloadMinInterval is the minimum spacing between reloads triggered
	// by events or file changes. Default: 5s
	ReloadMinInterval time.Duration `koanf:"reload_min_interval"`
}

// DatasetConfig controls playlist CSV retrieval.
type DatasetConfig struct {
	// URL of the CSV used by scheduled training and the training job.
	URL string `koanf:"url"`

	// Version is a free-form label recorded in model metadata. Default: unknown
	Version string `koanf:"version"`

	// Name is a free-form label recorded in model metadata. Default: unknown
	Name string `koanf:"name"`

	// Timeout bounds a single download. Default: 5m
	Timeout time.Duration `koanf:"timeout"`

	// MaxBytes caps the response body. Default: 512 MiB
	MaxBytes int64 `koanf:"max_bytes"`

	// MaxFailures trips the download circuit breaker after this many
	// consecutive failures. Default: 3
	MaxFailures uint32 `koanf:"max_failures"`

	// OpenTimeout is how long the breaker stays open. Default: 1m
	OpenTimeout time.Duration `koanf:"open_timeout"`
}

// RecommendConfig controls the serving side.
type RecommendConfig struct {
	// TopN is the number of songs returned. Default: 5
	TopN int `koanf:"top_n"`

	// MaxInputSongs caps the songs accepted in one request. Default: 100
	MaxInputSongs int `koanf:"max_input_songs"`

	// CacheEnabled turns on the response cache. Default: true
	CacheEnabled bool `koanf:"cache_enabled"`

	// CacheTTL is how long a cached response stays valid. Default: 5m
	CacheTTL time.Duration `koanf:"cache_ttl"`

	// CacheSize is the maximum number of cached responses. Default: 10000
	CacheSize int `koanf:"cache_size"`
}

// TrainingConfig controls training runs.
type TrainingConfig struct {
	// Timeout bounds one mining run. Default: 30m
	Timeout time.Duration `koanf:"timeout"`

	// OnStartup trains once at startup when dataset.url is set. Default: false
	OnStartup bool `koanf:"on_startup"`

	// Interval retrains periodically from dataset.url; 0 disables. Default: 0
	Interval time.Duration `koanf:"interval"`
}

// EventsConfig controls model-published notifications.
type EventsConfig struct {
	// Enabled publishes and consumes model events. Default: true
	Enabled bool `koanf:"enabled"`

	// NATSURL selects the NATS transport; empty keeps events in-process.
	NATSURL string `koanf:"nats_url"`

	// Topic is the subject models are announced on.
	// Default: setlist.model.published
	Topic string `koanf:"topic"`
}

// APIConfig holds HTTP middleware settings.
type APIConfig struct {
	// CORSOrigins lists allowed origins. Default: none
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimitRequests per RateLimitWindow per client IP. Default: 100
	RateLimitRequests int `koanf:"rate_limit_requests"`

	// RateLimitWindow. Default: 1m
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`

	// RateLimitDisabled turns rate limiting off. Default: false
	RateLimitDisabled bool `koanf:"rate_limit_disabled"`

	// TrainRateLimitRequests per RateLimitWindow for POST /train. Default: 5
	TrainRateLimitRequests int `koanf:"train_rate_limit_requests"`
}

// Load reads configuration from defaults, the config file and the environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// Addr returns host:port for the HTTP listener.
func (s ServerConfig) Addr() string {
	return joinHostPort(s.Host, s.Port)
}
