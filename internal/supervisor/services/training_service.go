// Setlist - Playlist Association Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/setlist/internal/dataset"
	"github.com/tomtom215/setlist/internal/recommend"
)

// Trainer trains and publishes a model. Implemented by *recommend.Engine.
type Trainer interface {
	Train(ctx context.Context, ds *dataset.Dataset, source recommend.Source) (*recommend.TrainResult, error)
}

// DatasetOpener loads a dataset by URL or path. Implemented by *dataset.Client.
type DatasetOpener interface {
	Open(ctx context.Context, source string) (*dataset.Dataset, error)
}

// TrainingServiceConfig holds configuration for scheduled training.
type TrainingServiceConfig struct {
	// Source is the dataset trained on.
	Source recommend.Source

	// OnStartup trains once when the service starts.
	OnStartup bool

	// Interval retrains periodically; 0 disables.
	Interval time.Duration

	// Timeout bounds one run, download included. Default: 35m
	Timeout time.Duration
}

// TrainingService trains from the configured dataset on startup and on a
// ticker. The engine rejects overlapping runs, so a tick that lands while
// POST /train is running is skipped.
type TrainingService struct {
	trainer  Trainer
	datasets DatasetOpener
	config   TrainingServiceConfig
	logger   zerolog.Logger
	name     string
}

// NewTrainingService creates the service.
//
//nolint:gocritic // zerolog.Logger is meant to be passed by value
func NewTrainingService(trainer Trainer, datasets DatasetOpener, cfg TrainingServiceConfig, logger zerolog.Logger) *TrainingService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 35 * time.Minute
	}
	return &TrainingService{
		trainer:  trainer,
		datasets: datasets,
		config:   cfg,
		logger:   logger.With().Str("service", "training").Logger(),
		name:     "training-service",
	}
}

// Enabled reports whether the service has any work to do.
func (s *TrainingService) Enabled() bool {
	return s.config.Source.URL != "" && (s.config.OnStartup || s.config.Interval > 0)
}

// Serve implements suture.Service.
func (s *TrainingService) Serve(ctx context.Context) error {
	if !s.Enabled() {
		s.logger.Debug().Msg("scheduled training disabled")
		return suture.ErrDoNotRestart
	}

	s.logger.Info().
		Bool("on_startup", s.config.OnStartup).
		Dur("interval", s.config.Interval).
		Msg("training service starting")

	if s.config.OnStartup {
		if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
			s.logger.Warn().Err(err).Msg("startup training failed")
		}
	}

	if s.config.Interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("training service shutting down")
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn().Err(err).Msg("scheduled training failed")
			}
		}
	}
}

// RunOnce downloads the dataset and trains one model. A run already in
// progress is not an error; RunOnce returns (nil, nil) then.
func (s *TrainingService) RunOnce(ctx context.Context) (*recommend.TrainResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	ds, err := s.datasets.Open(ctx, s.config.Source.URL)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}

	result, err := s.trainer.Train(ctx, ds, s.config.Source)
	if errors.Is(err, recommend.ErrTrainingInProgress) {
		s.logger.Info().Msg("training already in progress, skipping scheduled run")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("version", result.Version).
		Int("rules", result.NumRules).
		Int64("duration_ms", result.DurationMS).
		Msg("scheduled training complete")
	return result, nil
}

// String implements fmt.Stringer.
func (s *TrainingService) String() string {
	return s.name
}
