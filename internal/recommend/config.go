// Setlist - Playlist Association Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package recommend

import (
	"fmt"
	"time"

	"github.com/tomtom215/setlist/internal/recommend/eclat"
)

// Config contains all configuration for the recommendation engine.
type Config struct {
	// Mining holds the Eclat thresholds used by Train.
	Mining MiningConfig `json:"mining"`

	// Serving controls Recommend.
	Serving ServingConfig `json:"serving"`

	// Training controls training runs.
	Training TrainingConfig `json:"training"`

	// Cache controls the response cache.
	Cache CacheConfig `json:"cache"`
}

// MiningConfig holds the Eclat thresholds.
type MiningConfig struct {
	// MinSupport is the minimum fraction of playlists an itemset must appear in.
	// Default: 0.05.
	MinSupport float64 `json:"min_support"`

	// MinConfidence is the minimum confidence of a rule.
	// Default: 0.3.
	MinConfidence float64 `json:"min_confidence"`

	// MaxItemsetSize caps itemset length.
	// Default: 5.
	MaxItemsetSize int `json:"max_itemset_size"`
}

// ServingConfig controls recommendation requests.
type ServingConfig struct {
	// TopN is the number of songs returned.
	// Default: 5.
	TopN int `json:"top_n"`

	// MaxInputSongs caps the songs accepted in one request.
	// Default: 100.
	MaxInputSongs int `json:"max_input_songs"`
}

// TrainingConfig controls training runs.
type TrainingConfig struct {
	// Timeout bounds one mining run.
	// Default: 30m.
	Timeout time.Duration `json:"timeout"`
}

// CacheConfig controls response caching.
type CacheConfig struct {
	// Enabled turns the response cache on.
	// Default: true.
	Enabled bool `json:"enabled"`

	// TTL is the cache entry time-to-live.
	// Default: 5m.
	TTL time.Duration `json:"ttl"`

	// MaxEntries is the maximum number of cached responses.
	// Default: 10000.
	MaxEntries int `json:"max_entries"`
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() *Config {
	return &Config{
		Mining: MiningConfig{
			MinSupport:     0.05,
			MinConfidence:  0.3,
			MaxItemsetSize: eclat.MaxItemsetSize,
		},
		Serving: ServingConfig{
			TopN:          5,
			MaxInputSongs: 100,
		},
		Training: TrainingConfig{
			Timeout: 30 * time.Minute,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        5 * time.Minute,
			MaxEntries: 10000,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Mining.MinSupport <= 0 || c.Mining.MinSupport > 1 {
		return fmt.Errorf("mining.min_support must be in (0, 1], got %f", c.Mining.MinSupport)
	}
	if c.Mining.MinConfidence <= 0 || c.Mining.MinConfidence > 1 {
		return fmt.Errorf("mining.min_confidence must be in (0, 1], got %f", c.Mining.MinConfidence)
	}
	if c.Mining.MaxItemsetSize < 1 || c.Mining.MaxItemsetSize > eclat.MaxItemsetSize {
		return fmt.Errorf("mining.max_itemset_size must be in [1, %d], got %d", eclat.MaxItemsetSize, c.Mining.MaxItemsetSize)
	}

	if c.Serving.TopN < 1 {
		return fmt.Errorf("serving.top_n must be positive, got %d", c.Serving.TopN)
	}
	if c.Serving.MaxInputSongs < 1 {
		return fmt.Errorf("serving.max_input_songs must be positive, got %d", c.Serving.MaxInputSongs)
	}

	if c.Training.Timeout <= 0 {
		return fmt.Errorf("training.timeout must be positive, got %v", c.Training.Timeout)
	}

	if c.Cache.Enabled {
		if c.Cache.TTL <= 0 {
			return fmt.Errorf("cache.ttl must be positive, got %v", c.Cache.TTL)
		}
		if c.Cache.MaxEntries < 1 {
			return fmt.Errorf("cache.max_entries must be positive, got %d", c.Cache.MaxEntries)
		}
	}

	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	// All nested structs hold value types only.
	clone := *c
	return &clone
}
