// Setlist - Playlist Association Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

/*
Package supervisor runs the long-lived parts of the Setlist server under
suture v4.

The tree has three layers so a failing trainer cannot take the API down:

	RootSupervisor ("setlist")
	├── DataSupervisor ("data-layer")
	│   └── TrainingService (on startup and/or on an interval)
	├── MessagingSupervisor ("messaging-layer")
	│   └── ModelReloadService (events, file watcher, manual triggers)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Crashed services are restarted with suture's backoff. Supervisor events
(restarts, backoff, timeouts) are written through sutureslog to the zerolog
logger:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.TreeConfig{})
	tree.AddDataService(services.NewTrainingService(engine, datasets, trainCfg, logger))
	tree.AddMessagingService(reloadSvc)
	tree.AddAPIService(services.NewHTTPServerService(server, 15*time.Second))

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    ...
	}

Services live in the services subpackage.
*/
package supervisor
