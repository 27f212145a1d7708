// Setlist - Playlist Association Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/setlist/internal/events"
	"github.com/tomtom215/setlist/internal/metrics"
	"github.com/tomtom215/setlist/internal/recommend"
	"github.com/tomtom215/setlist/internal/recommend/storage"
)

// Reload trigger sources, also used as the metrics label.
const (
	SourceEvent  = "event"
	SourceWatch  = "watch"
	SourceManual = "manual"
)

// Reloader loads the current model from storage. Implemented by *recommend.Engine.
type Reloader interface {
	Reload(ctx context.Context) (*recommend.ReloadResult, error)
}

// ModelSubscriber delivers model-published events. Implemented by *events.Bus.
type ModelSubscriber interface {
	SubscribeModels(ctx context.Context) (<-chan events.ModelPublished, error)
}

// ModelReloadConfig holds configuration for the reload service.
type ModelReloadConfig struct {
	// WatchDir is the model directory to watch; empty disables watching.
	WatchDir string

	// ModelName limits watched files to {ModelName}_v*.gob.gz.
	ModelName string

	// MinInterval is the minimum spacing between reloads. Default: 5s
	MinInterval time.Duration
}

// ModelReloadService reloads the served model when a new one appears.
type ModelReloadService struct {
	reloader   Reloader
	subscriber ModelSubscriber
	config     ModelReloadConfig
	limiter    *rate.Limiter
	trigger    chan string
	logger     zerolog.Logger
	name       string
}

// NewModelReloadService creates the service. subscriber may be nil when
// events are disabled.
//
//nolint:gocritic // zerolog.Logger is meant to be passed by value
func NewModelReloadService(reloader Reloader, subscriber ModelSubscriber, cfg ModelReloadConfig, logger zerolog.Logger) *ModelReloadService {
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = 5 * time.Second
	}
	return &ModelReloadService{
		reloader:   reloader,
		subscriber: subscriber,
		config:     cfg,
		limiter:    rate.NewLimiter(rate.Every(cfg.MinInterval), 1),
		trigger:    make(chan string, 1),
		logger:     logger.With().Str("service", "model-reload").Logger(),
		name:       "model-reload-service",
	}
}

// Trigger requests a reload. It never blocks; a request made while one is
// already pending is merged into it.
func (s *ModelReloadService) Trigger(source string) {
	select {
	case s.trigger <- source:
	default:
	}
}

// Serve implements suture.Service.
func (s *ModelReloadService) Serve(ctx context.Context) error {
	var published <-chan events.ModelPublished
	if s.subscriber != nil {
		ch, err := s.subscriber.SubscribeModels(ctx)
		if err != nil {
			return fmt.Errorf("subscribe to model events: %w", err)
		}
		published = ch
	}

	var (
		fileEvents <-chan fsnotify.Event
		fileErrors <-chan error
	)
	if s.config.WatchDir != "" {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("create model watcher: %w", err)
		}
		defer func() { _ = watcher.Close() }() //nolint:errcheck // best effort on shutdown

		if err := watcher.Add(s.config.WatchDir); err != nil {
			return fmt.Errorf("watch %s: %w", s.config.WatchDir, err)
		}
		fileEvents, fileErrors = watcher.Events, watcher.Errors
	}

	s.logger.Info().
		Bool("events", published != nil).
		Str("watch_dir", s.config.WatchDir).
		Dur("min_interval", s.config.MinInterval).
		Msg("model reload service starting")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-published:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return errors.New("model event subscription closed")
			}
			s.logger.Debug().
				Str("event_id", event.EventID).
				Str("version", event.VersionLabel).
				Msg("model published")
			s.reload(ctx, SourceEvent)

		case event, ok := <-fileEvents:
			if !ok {
				return errors.New("model watcher closed")
			}
			if s.isModelFile(event) {
				s.reload(ctx, SourceWatch)
			}

		case err, ok := <-fileErrors:
			if !ok {
				return errors.New("model watcher closed")
			}
			s.logger.Warn().Err(err).Msg("model watcher error")

		case source := <-s.trigger:
			s.reload(ctx, source)
		}
	}
}

// isModelFile reports whether a watcher event created or replaced a
// complete model file.
func (s *ModelReloadService) isModelFile(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return false
	}
	name, _, ok := storage.ParseModelFilename(filepath.Base(event.Name))
	return ok && (s.config.ModelName == "" || name == s.config.ModelName)
}

// reload waits for the limiter, drops triggers that arrived meanwhile and
// reloads once.
func (s *ModelReloadService) reload(ctx context.Context, source string) {
	if err := s.limiter.Wait(ctx); err != nil {
		return
	}
	select {
	case <-s.trigger:
	default:
	}

	result, err := s.reloader.Reload(ctx)
	metrics.RecordModelReload(source, err)

	switch {
	case errors.Is(err, recommend.ErrNoModel):
		s.logger.Debug().Str("source", source).Msg("no model to reload")
	case err != nil:
		s.logger.Warn().Err(err).Str("source", source).Msg("model reload failed")
	case result.Changed:
		s.logger.Info().Str("source", source).Str("version", result.Version).Msg("model reloaded")
	default:
		s.logger.Debug().Str("source", source).Str("version", result.Version).Msg("model already current")
	}
}

// String implements fmt.Stringer.
func (s *ModelReloadService) String() string {
	return s.name
}
