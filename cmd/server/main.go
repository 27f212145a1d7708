// Setlist - Playlist Association Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package main

import (
	"context"
	"errors"
	"net/http"

	_ "github.com/tomtom215/setlist/docs" // swagger docs
	"github.com/tomtom215/setlist/internal/api"
	"github.com/tomtom215/setlist/internal/config"
	"github.com/tomtom215/setlist/internal/dataset"
	"github.com/tomtom215/setlist/internal/events"
	"github.com/tomtom215/setlist/internal/logging"
	"github.com/tomtom215/setlist/internal/recommend"
	"github.com/tomtom215/setlist/internal/supervisor"
	"github.com/tomtom215/setlist/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Str("model_path", cfg.Model.Path).
		Bool("dataset_configured", cfg.Dataset.URL != "").
		Msg("Starting Setlist")

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Setlist stopped with error")
	}
	logging.Info().Msg("Application stopped gracefully")
}

func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus, err := initEvents(cfg)
	if err != nil {
		return err
	}
	if bus != nil {
		defer func() {
			if err := bus.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing events bus")
			}
		}()
	}

	var notifier recommend.Notifier
	if bus != nil {
		notifier = bus
	}
	rec, err := initRecommend(cfg, notifier, logging.WithComponent("recommend"))
	if err != nil {
		return err
	}
	defer func() {
		if err := rec.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing model registry")
		}
	}()

	loadInitialModel(ctx, rec)

	datasets := dataset.NewClient(dataset.ClientConfig{
		Timeout:     cfg.Dataset.Timeout,
		MaxBytes:    cfg.Dataset.MaxBytes,
		MaxFailures: cfg.Dataset.MaxFailures,
		OpenTimeout: cfg.Dataset.OpenTimeout,
		UserAgent:   "setlist-server",
	})

	handler := api.NewHandler(rec.Engine, datasets, api.HandlerConfig{
		MaxInputSongs:  cfg.Recommend.MaxInputSongs,
		TrainTimeout:   cfg.Training.Timeout + cfg.Dataset.Timeout,
		DatasetVersion: cfg.Dataset.Version,
		DatasetName:    cfg.Dataset.Name,
	})
	chiMiddleware := api.NewChiMiddlewareFromConfig(
		cfg.API.CORSOrigins,
		cfg.API.RateLimitRequests,
		cfg.API.RateLimitWindow,
		cfg.API.RateLimitDisabled,
		cfg.API.TrainRateLimitRequests,
	)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.NewRouter(handler, chiMiddleware),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return err
	}

	// Data layer
	tree.AddDataService(services.NewTrainingService(rec.Engine, datasets, services.TrainingServiceConfig{
		Source: recommend.Source{
			URL:     cfg.Dataset.URL,
			Version: cfg.Dataset.Version,
			Name:    cfg.Dataset.Name,
		},
		OnStartup: cfg.Training.OnStartup,
		Interval:  cfg.Training.Interval,
		Timeout:   cfg.Training.Timeout + cfg.Dataset.Timeout,
	}, logging.WithComponent("supervisor")))

	// Messaging layer
	var subscriber services.ModelSubscriber
	if bus != nil {
		subscriber = bus
	}
	reloadCfg := services.ModelReloadConfig{
		ModelName:   cfg.Model.Name,
		MinInterval: cfg.Model.ReloadMinInterval,
	}
	if cfg.Model.Watch {
		reloadCfg.WatchDir = cfg.Model.Path
	}
	// Without events or watching the service still serves SIGHUP reloads.
	reloadService := services.NewModelReloadService(rec.Engine, subscriber, reloadCfg, logging.WithComponent("supervisor"))
	tree.AddMessagingService(reloadService)

	// API layer
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout, logging.WithComponent("supervisor")))

	watchSignals(cancel, reloadService)

	logging.Info().Msg("Starting supervisor tree")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	unstopped, _ := tree.UnstoppedServiceReport() //nolint:errcheck // report is best effort
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}
	return nil
}

var _ services.ModelSubscriber = (*events.Bus)(nil)
