// Setlist - Playlist Association Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateMining,
		c.validateModel,
		c.validateDataset,
		c.validateRecommend,
		c.validateTraining,
		c.validateEvents,
		c.validateRateLimits,
		c.validateLogging,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("HTTP_READ_TIMEOUT and HTTP_WRITE_TIMEOUT must be positive")
	}
	return nil
}

// validateMining enforces 0 < support <= 1, 0 <= confidence <= 1 and the
// itemset size range the miner supports.
func (c *Config) validateMining() error {
	m := c.Mining
	if m.MinSupport <= 0 || m.MinSupport > 1 {
		return fmt.Errorf("MIN_SUPPORT must be in (0, 1], got %v", m.MinSupport)
	}
	if m.MinConfidence < 0 || m.MinConfidence > 1 {
		return fmt.Errorf("MIN_CONFIDENCE must be in [0, 1], got %v", m.MinConfidence)
	}
	if m.MaxItemsetSize < 1 || m.MaxItemsetSize > 5 {
		return fmt.Errorf("MAX_ITEMSET_SIZE must be between 1 and 5, got %d", m.MaxItemsetSize)
	}
	return nil
}

func (c *Config) validateModel() error {
	if strings.TrimSpace(c.Model.Path) == "" {
		return fmt.Errorf("MODEL_PATH is required")
	}
	if c.Model.Name == "" || strings.ContainsAny(c.Model.Name, `/\`) || strings.Contains(c.Model.Name, "_v") {
		return fmt.Errorf("MODEL_NAME must be non-empty and must not contain path separators or \"_v\", got %q", c.Model.Name)
	}
	if c.Model.KeepVersions < 1 {
		return fmt.Errorf("MODEL_KEEP_VERSIONS must be at least 1")
	}
	if strings.TrimSpace(c.Model.RegistryPath) == "" {
		return fmt.Errorf("MODEL_REGISTRY_PATH is required")
	}
	if c.Model.ReloadMinInterval < 0 {
		return fmt.Errorf("MODEL_RELOAD_MIN_INTERVAL must not be negative")
	}
	return nil
}

func (c *Config) validateDataset() error {
	if c.Dataset.URL != "" {
		if err := validateDatasetLocation(c.Dataset.URL, "DATASET_URL"); err != nil {
			return err
		}
	}
	if c.Dataset.Timeout <= 0 {
		return fmt.Errorf("DATASET_TIMEOUT must be positive")
	}
	if c.Dataset.MaxBytes <= 0 {
		return fmt.Errorf("DATASET_MAX_BYTES must be positive")
	}
	if c.Dataset.MaxFailures == 0 {
		return fmt.Errorf("DATASET_MAX_FAILURES must be at least 1")
	}
	return nil
}

func (c *Config) validateRecommend() error {
	r := c.Recommend
	if r.TopN < 1 || r.TopN > 100 {
		return fmt.Errorf("RECOMMEND_TOP_N must be between 1 and 100, got %d", r.TopN)
	}
	if r.MaxInputSongs < 1 {
		return fmt.Errorf("RECOMMEND_MAX_INPUT_SONGS must be at least 1")
	}
	if r.CacheEnabled && (r.CacheSize < 1 || r.CacheTTL <= 0) {
		return fmt.Errorf("RECOMMEND_CACHE_SIZE and RECOMMEND_CACHE_TTL must be positive when the cache is enabled")
	}
	return nil
}

func (c *Config) validateTraining() error {
	if c.Training.Timeout <= 0 {
		return fmt.Errorf("TRAIN_TIMEOUT must be positive")
	}
	if c.Training.Interval < 0 {
		return fmt.Errorf("TRAIN_INTERVAL must not be negative")
	}
	if (c.Training.OnStartup || c.Training.Interval > 0) && c.Dataset.URL == "" {
		return fmt.Errorf("DATASET_URL is required when TRAIN_ON_STARTUP or TRAIN_INTERVAL is set")
	}
	return nil
}

func (c *Config) validateEvents() error {
	if !c.Events.Enabled {
		return nil
	}
	if c.Events.Topic == "" {
		return fmt.Errorf("EVENTS_TOPIC is required when EVENTS_ENABLED=true")
	}
	if c.Events.NATSURL != "" {
		if err := validateNATSURL(c.Events.NATSURL); err != nil {
			return fmt.Errorf("NATS_URL is invalid: %w", err)
		}
	}
	return nil
}

// Rate limit bounds.
const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

func (c *Config) validateRateLimits() error {
	if c.API.RateLimitDisabled {
		return nil
	}
	if c.API.RateLimitRequests < minRateLimitRequests || c.API.RateLimitRequests > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.API.TrainRateLimitRequests < minRateLimitRequests || c.API.TrainRateLimitRequests > maxRateLimitRequests {
		return fmt.Errorf("TRAIN_RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.API.RateLimitWindow < minRateLimitWindow || c.API.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

var (
	validLogLevels  = map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	validLogFormats = map[string]bool{"json": true, "console": true}
)

func (c *Config) validateLogging() error {
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if !validLogFormats[strings.ToLower(c.Logging.Format)] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}
