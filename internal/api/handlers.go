// Setlist - Playlist Association Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package api

import (
	"context"
	"time"

	"github.com/tomtom215/setlist/internal/dataset"
	"github.com/tomtom215/setlist/internal/recommend"
	"github.com/tomtom215/setlist/internal/recommend/storage"
)

// Engine is the recommendation engine as seen by the handlers. It is
// implemented by *recommend.Engine.
type Engine interface {
	Train(ctx context.Context, ds *dataset.Dataset, source recommend.Source) (*recommend.TrainResult, error)
	Reload(ctx context.Context) (*recommend.ReloadResult, error)
	Activate(ctx context.Context, version int) (*recommend.ReloadResult, error)
	ActivateLatest(ctx context.Context) (*recommend.ReloadResult, error)
	Recommend(ctx context.Context, songs []string) (*recommend.Response, error)
	ModelInfo(ctx context.Context) (*storage.ModelInfo, error)
	Versions(ctx context.Context) ([]storage.ModelMetadata, error)
	TrainingStatus() recommend.TrainingStatus
	IsLoaded() bool
	CurrentVersion() string
}

// DatasetOpener loads training datasets. It is implemented by
// *dataset.Client.
type DatasetOpener interface {
	Open(ctx context.Context, source string) (*dataset.Dataset, error)
}

// HandlerConfig holds the settings handlers need.
type HandlerConfig struct {
	// MaxInputSongs caps the songs accepted by /api/recommender.
	MaxInputSongs int

	// TrainTimeout bounds one POST /train, download included. The
	// response write deadline is extended to match.
	TrainTimeout time.Duration

	// DatasetVersion and DatasetName label models trained without
	// explicit labels.
	DatasetVersion string
	DatasetName    string
}

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handlers_health.go: health and training status
//   - handlers_train.go: POST /train
//   - handlers_model.go: model info, versions, activation and reload
//   - handlers_recommend.go: POST /api/recommender
type Handler struct {
	engine    Engine
	datasets  DatasetOpener
	config    HandlerConfig
	startTime time.Time
}

// NewHandler creates the API handler.
func NewHandler(engine Engine, datasets DatasetOpener, cfg HandlerConfig) *Handler {
	if cfg.MaxInputSongs <= 0 {
		cfg.MaxInputSongs = 100
	}
	if cfg.TrainTimeout <= 0 {
		cfg.TrainTimeout = 35 * time.Minute
	}
	return &Handler{
		engine:    engine,
		datasets:  datasets,
		config:    cfg,
		startTime: time.Now(),
	}
}
