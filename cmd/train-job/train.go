// Setlist - Playlist Association Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/setlist/internal/dataset"
	"github.com/tomtom215/setlist/internal/events"
	"github.com/tomtom215/setlist/internal/logging"
	"github.com/tomtom215/setlist/internal/recommend"
	"github.com/tomtom215/setlist/internal/recommend/storage"
)

// errMissingDatasetURL is returned when neither the flag nor DATASET_URL is set.
var errMissingDatasetURL = errors.New("dataset URL is required (--dataset-url or DATASET_URL)")

type trainOptions struct {
	datasetURL     string
	datasetVersion string
	datasetName    string
}

func (a *App) newTrainCmd() *cobra.Command {
	opts := &trainOptions{}

	cmd := &cobra.Command{
		Use:   "train-job",
		Short: "Train a Setlist model from a playlist CSV",
		Long: `Download a playlist CSV, mine association rules with Eclat and save
them as the next model version in MODEL_PATH.

Flags default to DATASET_URL, DATASET_VERSION and DATASET_NAME. Mining
thresholds come from MIN_SUPPORT, MIN_CONFIDENCE and MAX_ITEMSET_SIZE.

Examples:
  # Train from the configured dataset
  DATASET_URL=https://example.com/playlists.csv train-job

  # Train from a local file
  train-job --dataset-url ./playlists.csv --dataset-version 2024`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.train(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.datasetURL, "dataset-url", "", "URL or path of the playlist CSV (default DATASET_URL)")
	cmd.Flags().StringVar(&opts.datasetVersion, "dataset-version", "", "Dataset version label (default DATASET_VERSION)")
	cmd.Flags().StringVar(&opts.datasetName, "dataset-name", "", "Dataset name label (default DATASET_NAME)")

	return cmd
}

func (a *App) train(ctx context.Context, opts *trainOptions) error {
	cfg := a.config
	source := recommend.Source{
		URL:     firstNonEmpty(opts.datasetURL, cfg.Dataset.URL),
		Version: firstNonEmpty(opts.datasetVersion, cfg.Dataset.Version),
		Name:    firstNonEmpty(opts.datasetName, cfg.Dataset.Name),
	}
	if source.URL == "" {
		return errMissingDatasetURL
	}

	logger := logging.WithComponent("train-job")

	logging.Debug().
		Float64("min_support", cfg.Mining.MinSupport).
		Float64("min_confidence", cfg.Mining.MinConfidence).
		Int("max_itemset_size", cfg.Mining.MaxItemsetSize).
		Bool("events", cfg.Events.Enabled && cfg.Events.NATSURL != "").
		Msg("training configuration")

	store, err := storage.NewStore(cfg.Model.Path)
	if err != nil {
		return fmt.Errorf("open model store: %w", err)
	}
	// The registry belongs to the server, which adopts new files on sync.
	repo := storage.NewRepository(store, nil, cfg.Model.Name, cfg.Model.KeepVersions)

	var notifier recommend.Notifier
	if cfg.Events.Enabled && cfg.Events.NATSURL != "" {
		bus, err := events.NewBus(events.Config{
			NATSURL:    cfg.Events.NATSURL,
			Topic:      cfg.Events.Topic,
			ClientName: "setlist-train-job",
		}, logging.NewSlogLogger("events"))
		if err != nil {
			return fmt.Errorf("connect events bus: %w", err)
		}
		defer func() {
			if err := bus.Close(); err != nil {
				logger.Warn().Err(err).Msg("closing events bus")
			}
		}()
		notifier = bus
	}

	engine, err := recommend.NewEngine(engineConfig(cfg), repo, notifier, logger)
	if err != nil {
		return err
	}

	client := dataset.NewClient(dataset.ClientConfig{
		Timeout:     cfg.Dataset.Timeout,
		MaxBytes:    cfg.Dataset.MaxBytes,
		MaxFailures: cfg.Dataset.MaxFailures,
		OpenTimeout: cfg.Dataset.OpenTimeout,
		UserAgent:   "setlist-train-job",
	})

	logger.Info().
		Str("dataset_url", source.URL).
		Str("dataset_version", source.Version).
		Str("model_path", store.Dir()).
		Msg("training started")

	ds, err := client.Open(ctx, source.URL)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	result, err := engine.Train(ctx, ds, source)
	if err != nil {
		return fmt.Errorf("train: %w", err)
	}

	return a.printJSON(result)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
