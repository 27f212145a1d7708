// Setlist - Playlist Association Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the config file locations in order of priority.
// The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/setlist/config.yaml",
	"/etc/setlist/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns the built-in defaults. They are loaded first and
// overridden by the config file and then by environment variables.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            5005,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Mining: MiningConfig{
			MinSupport:     0.05,
			MinConfidence:  0.3,
			MaxItemsetSize: 5,
		},
		Model: ModelConfig{
			Path:              "/data/models",
			Name:              "association_rules",
			KeepVersions:      10,
			RegistryPath:      "/data/registry",
			Watch:             false,
			ReloadMinInterval: 5 * time.Second,
		},
		Dataset: DatasetConfig{
			URL:         "",
			Version:     "unknown",
			Name:        "unknown",
			Timeout:     5 * time.Minute,
			MaxBytes:    512 << 20,
			MaxFailures: 3,
			OpenTimeout: time.Minute,
		},
		Recommend: RecommendConfig{
			TopN:          5,
			MaxInputSongs: 100,
			CacheEnabled:  true,
			CacheTTL:      5 * time.Minute,
			CacheSize:     10000,
		},
		Training: TrainingConfig{
			Timeout:   30 * time.Minute,
			OnStartup: false,
			Interval:  0,
		},
		Events: EventsConfig{
			Enabled: true,
			NATSURL: "",
			Topic:   "setlist.model.published",
		},
		API: APIConfig{
			CORSOrigins:            []string{},
			RateLimitRequests:      100,
			RateLimitWindow:        time.Minute,
			RateLimitDisabled:      false,
			TrainRateLimitRequests: 5,
		},
	}
}

// LoadWithKoanf loads configuration with precedence ENV > File > Defaults
// and validates the result.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: optional config file
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment
	//   MIN_SUPPORT -> mining.min_support
	//   DATASET_URL -> dataset.url
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns CONFIG_PATH if it exists, else the first existing
// entry of DefaultConfigPaths, else "".
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

// sliceConfigPaths are parsed as comma-separated lists when set from env.
var sliceConfigPaths = []string{
	"api.cors_origins",
}

// processSliceFields splits comma-separated env values for slice fields.
// Values that already are slices (from YAML) are left alone.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
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
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lowercased environment variable names to koanf paths.
// The names follow the deployment environment of the recommender and
// training containers (MIN_SUPPORT, MODEL_PATH, DATASET_URL, ...).
var envMappings = map[string]string{
	// Server
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_idle_timeout":     "server.idle_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Mining
	"min_support":      "mining.min_support",
	"min_confidence":   "mining.min_confidence",
	"max_itemset_size": "mining.max_itemset_size",

	// Model storage
	"model_path":                "model.path",
	"model_name":                "model.name",
	"model_keep_versions":       "model.keep_versions",
	"model_registry_path":       "model.registry_path",
	"model_watch":               "model.watch",
	"model_reload_min_interval": "model.reload_min_interval",

	// Dataset
	"dataset_url":          "dataset.url",
	"dataset_version":      "dataset.version",
	"dataset_name":         "dataset.name",
	"dataset_timeout":      "dataset.timeout",
	"dataset_max_bytes":    "dataset.max_bytes",
	"dataset_max_failures": "dataset.max_failures",
	"dataset_open_timeout": "dataset.open_timeout",

	// Recommendations
	"recommend_top_n":           "recommend.top_n",
	"recommend_max_input_songs": "recommend.max_input_songs",
	"recommend_cache_enabled":   "recommend.cache_enabled",
	"recommend_cache_ttl":       "recommend.cache_ttl",
	"recommend_cache_size":      "recommend.cache_size",

	// Training
	"train_timeout":    "training.timeout",
	"train_on_startup": "training.on_startup",
	"train_interval":   "training.interval",

	// Events
	"events_enabled": "events.enabled",
	"nats_url":       "events.nats_url",
	"events_topic":   "events.topic",

	// API
	"cors_origins":              "api.cors_origins",
	"rate_limit_requests":       "api.rate_limit_requests",
	"rate_limit_window":         "api.rate_limit_window",
	"disable_rate_limit":        "api.rate_limit_disabled",
	"train_rate_limit_requests": "api.train_rate_limit_requests",
}

// envTransformFunc maps an environment variable name to its koanf path.
// Unmapped variables return "" and are skipped, so unrelated environment
// does not leak into the configuration.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}

func joinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
