// Setlist - Playlist Association Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

/*
Package main is the Setlist server.

Setlist mines association rules ("people who put these songs in a playlist
also added that one") from a playlist CSV with the Eclat algorithm and serves
song recommendations from the resulting model over HTTP.

# Application Architecture

Startup order:

 1. Configuration (Koanf v2: defaults, config.yaml, environment)
 2. Logging (zerolog)
 3. Model repository: gob model files in MODEL_PATH indexed by BadgerDB
 4. Recommendation engine and initial model load ("no model" is a warning)
 5. Events bus (in-process, or NATS when NATS_URL is set)
 6. HTTP router and the Suture v4 tree:

	RootSupervisor ("setlist")
	├── DataSupervisor ("data-layer")
	│   └── TrainingService (TRAIN_ON_STARTUP, TRAIN_INTERVAL)
	├── MessagingSupervisor ("messaging-layer")
	│   └── ModelReloadService (events, MODEL_WATCH file watcher, SIGHUP)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

# Example Usage

	export DATASET_URL=https://example.com/playlists.csv
	export TRAIN_ON_STARTUP=true
	./setlist-server

	curl -X POST localhost:5005/api/recommender -d '{"songs":["Yesterday"]}'

Models trained by the separate train-job binary are picked up through the
events bus or, with MODEL_WATCH=true, by watching the model directory.

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains
in-flight requests within HTTP_SHUTDOWN_TIMEOUT and the registry is
closed last.

SIGHUP re-reads the configuration, applies its LOG_LEVEL and queues a
model reload. Other configuration changes need a restart.
*/
package main
