// Setlist - Playlist Association Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/setlist/internal/dataset"
	"github.com/tomtom215/setlist/internal/logging"
	"github.com/tomtom215/setlist/internal/recommend"
)

// Train downloads a playlist CSV and trains a new model synchronously.
//
// @Summary Train a model
// @Description Downloads the CSV at dataset_url, mines association rules and publishes them as the next model version
// @Tags Training
// @Accept json
// @Produce json
// @Param request body TrainRequest true "Dataset to train on"
// @Success 200 {object} APIResponse{data=recommend.TrainResult} "Model trained"
// @Failure 400 {object} APIResponse "Invalid request"
// @Failure 409 {object} APIResponse "Training already in progress"
// @Failure 502 {object} APIResponse "Dataset could not be retrieved or parsed"
// @Failure 500 {object} APIResponse "Training failed"
// @Router /train [post]
func (h *Handler) Train(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req TrainRequest
	if verr := decodeJSON(w, r, &req); verr != nil {
		respondValidationError(w, r, verr)
		return
	}

	if h.engine.TrainingStatus().InProgress {
		respondError(w, r, http.StatusConflict, ErrCodeTrainingInProgress, "A training run is already in progress", nil)
		return
	}

	// Training outlives the server's default write timeout.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Now().Add(h.config.TrainTimeout + time.Minute)); err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("cannot extend write deadline")
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.config.TrainTimeout)
	defer cancel()

	source := recommend.Source{
		URL:     req.DatasetURL,
		Version: firstNonEmpty(req.DatasetVersion, h.config.DatasetVersion),
		Name:    firstNonEmpty(req.DatasetName, h.config.DatasetName),
	}

	logging.Ctx(ctx).Info().Str("dataset_url", sanitizeLogValue(source.URL)).Msg("training requested")

	ds, err := h.datasets.Open(ctx, source.URL)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, dataset.ErrCircuitOpen) {
			status = http.StatusServiceUnavailable
		}
		respondErrorWithDetails(w, r, status, ErrCodeDatasetError, "Failed to load dataset",
			map[string]string{"dataset_url": source.URL, "reason": err.Error()}, err)
		return
	}

	result, err := h.engine.Train(ctx, ds, source)
	switch {
	case errors.Is(err, recommend.ErrTrainingInProgress):
		respondError(w, r, http.StatusConflict, ErrCodeTrainingInProgress, "A training run is already in progress", nil)
	case err != nil:
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "Training failed", err)
	default:
		respondSuccess(w, result, start)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
