// Setlist - Playlist Association Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/setlist/internal/config"
	"github.com/tomtom215/setlist/internal/logging"
	"github.com/tomtom215/setlist/internal/supervisor/services"
)

// reloadTrigger is implemented by *services.ModelReloadService.
type reloadTrigger interface {
	Trigger(source string)
}

// handleHangup applies the log level from a fresh configuration load and
// queues a model reload. A configuration error keeps the current level.
func handleHangup(load func() (*config.Config, error), reloader reloadTrigger) {
	cfg, err := load()
	if err != nil {
		logging.Warn().Err(err).Msg("SIGHUP: configuration reload failed, keeping log level")
	} else {
		logging.SetLevelString(cfg.Logging.Level)
		logging.Info().Str("level", cfg.Logging.Level).Msg("SIGHUP: log level applied")
	}
	reloader.Trigger(services.SourceManual)
}

// watchSignals cancels the server on SIGINT/SIGTERM and handles SIGHUP
// until then.
func watchSignals(cancel context.CancelFunc, reloader reloadTrigger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		defer signal.Stop(sigCh)
		for sig := range sigCh {
			if sig == syscall.SIGHUP {
				handleHangup(config.Load, reloader)
				continue
			}
			logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
			cancel()
			return
		}
	}()
}
