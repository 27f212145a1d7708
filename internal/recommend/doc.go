// Setlist - Playlist Association Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

// Package recommend trains association-rule models from playlists and
// recommends songs that go together.
//
// # Architecture
//
//   - eclat: frequent itemset mining and rule generation
//   - storage: versioned model files plus the BadgerDB registry
//   - Engine: training, model lifecycle and serving
//
// # Training
//
// Train runs Eclat over a parsed dataset with the configured thresholds,
// bounded by Training.Timeout, then publishes the result as the next model
// version, swaps it in and notifies peers. Only one run may be active at a
// time; a second caller gets ErrTrainingInProgress immediately.
//
// # Serving
//
// Song names are the part of an item before the first comma and are
// matched case-insensitively. A rule applies when every song in its
// antecedent was given. Each consequent song not already given becomes a
// candidate scored confidence * lift (the best rule wins), and the TopN
// highest scores are returned.
//
//	engine, err := recommend.NewEngine(cfg, repo, bus, logger)
//	if _, err := engine.Reload(ctx); errors.Is(err, recommend.ErrNoModel) {
//	    // wait for the first training run
//	}
//	resp, err := engine.Recommend(ctx, []string{"Yesterday", "Hey Jude"})
//
// # Thread Safety
//
// The served model is swapped atomically, so Recommend never blocks on
// training or reloads. Responses are cached per model version and input
// set; the cache is cleared whenever the model changes.
package recommend
