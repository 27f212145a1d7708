// Setlist - Playlist Association Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

/*
Package services adapts Setlist components to suture.Service.

  - HTTPServerService: ListenAndServe with graceful Shutdown on cancel.
  - TrainingService: trains from the configured dataset at startup and/or
    on an interval. Failures are logged and retried on the next tick.
  - ModelReloadService: reloads the model when another process publishes
    one (events bus), when model files change on disk (fsnotify) or when
    Trigger is called. Triggers are coalesced by a rate limiter.

Every service implements fmt.Stringer so suture can name it in its logs.
A service that has nothing to do returns suture.ErrDoNotRestart.
*/
package services
