// Setlist - Playlist Association Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/setlist/internal/config"
	"github.com/tomtom215/setlist/internal/logging"
	"github.com/tomtom215/setlist/internal/recommend"
	"github.com/tomtom215/setlist/internal/recommend/storage"
)

// RecommendComponents holds the model storage and the engine serving it.
type RecommendComponents struct {
	Engine     *recommend.Engine
	Repository *storage.Repository
	registry   *storage.Registry
}

// Close releases the registry.
func (c *RecommendComponents) Close() error {
	return c.registry.Close()
}

// buildEngineConfig maps the application configuration onto the engine.
func buildEngineConfig(cfg *config.Config) *recommend.Config {
	engineCfg := recommend.DefaultConfig()
	engineCfg.Mining.MinSupport = cfg.Mining.MinSupport
	engineCfg.Mining.MinConfidence = cfg.Mining.MinConfidence
	engineCfg.Mining.MaxItemsetSize = cfg.Mining.MaxItemsetSize
	engineCfg.Serving.TopN = cfg.Recommend.TopN
	engineCfg.Serving.MaxInputSongs = cfg.Recommend.MaxInputSongs
	engineCfg.Training.Timeout = cfg.Training.Timeout
	engineCfg.Cache.Enabled = cfg.Recommend.CacheEnabled
	engineCfg.Cache.TTL = cfg.Recommend.CacheTTL
	engineCfg.Cache.MaxEntries = cfg.Recommend.CacheSize
	return engineCfg
}

// initRecommend opens model storage and creates the engine. notifier may be nil.
//
//nolint:gocritic // zerolog.Logger is meant to be passed by value
func initRecommend(cfg *config.Config, notifier recommend.Notifier, logger zerolog.Logger) (*RecommendComponents, error) {
	store, err := storage.NewStore(cfg.Model.Path)
	if err != nil {
		return nil, fmt.Errorf("open model store: %w", err)
	}
	registry, err := storage.OpenRegistry(cfg.Model.RegistryPath)
	if err != nil {
		return nil, fmt.Errorf("open model registry: %w", err)
	}

	repo := storage.NewRepository(store, registry, cfg.Model.Name, cfg.Model.KeepVersions)
	engine, err := recommend.NewEngine(buildEngineConfig(cfg), repo, notifier, logger)
	if err != nil {
		_ = registry.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("create engine: %w", err)
	}

	logger.Info().
		Str("model_path", store.Dir()).
		Str("registry_path", cfg.Model.RegistryPath).
		Str("model_name", cfg.Model.Name).
		Float64("min_support", cfg.Mining.MinSupport).
		Float64("min_confidence", cfg.Mining.MinConfidence).
		Msg("recommendation engine initialized")

	return &RecommendComponents{Engine: engine, Repository: repo, registry: registry}, nil
}

// loadInitialModel adopts model files written while the server was down and
// loads the current one. A missing model is not fatal.
func loadInitialModel(ctx context.Context, c *RecommendComponents) {
	if report, err := c.Repository.Sync(ctx); err != nil {
		logging.Warn().Err(err).Msg("Failed to sync model registry")
	} else if report.Changed() {
		logging.Info().Ints("adopted", report.Adopted).Ints("removed", report.Removed).Msg("Model registry synced with model directory")
	}

	result, err := c.Engine.Reload(ctx)
	switch {
	case errors.Is(err, recommend.ErrNoModel):
		logging.Warn().Msg("No model available yet; train one with POST /train or the train-job")
	case err != nil:
		logging.Warn().Err(err).Msg("Failed to load model")
	default:
		logging.Info().Str("version", result.Version).Time("model_date", result.ModelDate).Msg("Model loaded")
	}
}
