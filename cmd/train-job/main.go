// Setlist - Playlist Association Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

// Command train-job trains one Setlist model and exits.
//
// It runs as a batch job next to the server and shares its model directory:
//
//	DATASET_URL=https://example.com/playlists.csv MODEL_PATH=/data/models train-job
//	train-job --dataset-url ./playlists.csv --dataset-version 2024
//
// The model is written as the next version in MODEL_PATH. When NATS_URL is
// set, a model-published event tells running servers to reload. Without it
// servers pick the file up on their next reload or through MODEL_WATCH.
//
// The mine subcommand mines a local CSV and prints the result as JSON
// without saving anything:
//
//	train-job mine playlists.csv --full > rules.json
//
// Exit status is 0 on success and 1 on any failure.
package main

import (
	"context"
	"os"

	"github.com/tomtom215/setlist/internal/logging"
)

func main() {
	if err := NewApp().Execute(context.Background()); err != nil {
		logging.Err(err).Msg("train-job failed")
		os.Exit(1)
	}
}
