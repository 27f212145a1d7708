// Setlist - Playlist Association Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package main

import (
	"fmt"

	"github.com/tomtom215/setlist/internal/config"
	"github.com/tomtom215/setlist/internal/events"
	"github.com/tomtom215/setlist/internal/logging"
)

// initEvents creates the model events bus. It returns nil when events are
// disabled.
func initEvents(cfg *config.Config) (*events.Bus, error) {
	if !cfg.Events.Enabled {
		logging.Info().Msg("Model events disabled (EVENTS_ENABLED=false)")
		return nil, nil
	}

	bus, err := events.NewBus(events.Config{
		NATSURL:    cfg.Events.NATSURL,
		Topic:      cfg.Events.Topic,
		ClientName: "setlist-server",
	}, logging.NewSlogLogger("events"))
	if err != nil {
		return nil, fmt.Errorf("create events bus: %w", err)
	}

	logging.Info().
		Str("transport", bus.Transport()).
		Str("topic", bus.Topic()).
		Msg("Model events bus initialized")
	return bus, nil
}
