// Setlist - Playlist Association Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

// Package events announces newly published models between processes.
//
// The training job and the server share the model directory. When either
// publishes a model it sends a ModelPublished event; servers subscribe and
// reload. With a NATS URL the events travel over core NATS (no JetStream:
// a missed event only delays a reload until the next trigger), otherwise
// they stay inside the process on a Watermill GoChannel.
package events

import (
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/setlist/internal/recommend/storage"
)

// DefaultTopic is the subject models are announced on.
const DefaultTopic = "setlist.model.published"

// ModelPublished announces a model version that was written to the shared
// model directory.
type ModelPublished struct {
	EventID      string    `json:"event_id"`
	Name         string    `json:"name"`
	Version      int       `json:"version"`
	VersionLabel string    `json:"version_label"`
	NumRules     int       `json:"num_rules"`
	NumItemsets  int       `json:"num_itemsets"`
	TrainedAt    time.Time `json:"trained_at"`
	Source       string    `json:"source"`
}

// NewModelPublished builds the event for a saved model. eventID is
// typically the training run id so duplicates can be recognized.
func NewModelPublished(eventID string, meta *storage.ModelMetadata) ModelPublished {
	return ModelPublished{
		EventID:      eventID,
		Name:         meta.Name,
		Version:      meta.Version,
		VersionLabel: storage.VersionLabel(meta.Version),
		NumRules:     meta.RuleCount,
		NumItemsets:  meta.ItemsetCount,
		TrainedAt:    meta.TrainedAt,
		Source:       meta.DatasetURL,
	}
}

// Encode serializes an event payload.
func Encode(event *ModelPublished) ([]byte, error) {
	return json.Marshal(event)
}

// Decode parses an event payload.
func Decode(data []byte) (ModelPublished, error) {
	var event ModelPublished
	err := json.Unmarshal(data, &event)
	return event, err
}
