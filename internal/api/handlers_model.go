// Setlist - Playlist Association Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/setlist/internal/metrics"
	"github.com/tomtom215/setlist/internal/recommend"
	"github.com/tomtom215/setlist/internal/recommend/storage"
)

// ModelInfo describes the model being served.
//
// @Summary Get model info
// @Description Returns the current model version, its file, rule and itemset counts and all available versions
// @Tags Model
// @Produce json
// @Success 200 {object} APIResponse{data=storage.ModelInfo}
// @Failure 404 {object} APIResponse "No model trained yet"
// @Router /model/info [get]
func (h *Handler) ModelInfo(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	info, err := h.engine.ModelInfo(r.Context())
	switch {
	case errors.Is(err, recommend.ErrNoModel):
		respondError(w, r, http.StatusNotFound, ErrCodeNoModel, "No model has been trained yet", nil)
	case err != nil:
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "Failed to read model info", err)
	default:
		respondSuccess(w, info, start)
	}
}

// ModelVersions lists every stored model version.
//
// @Summary List model versions
// @Tags Model
// @Produce json
// @Success 200 {object} APIResponse{data=[]storage.ModelMetadata}
// @Router /model/versions [get]
func (h *Handler) ModelVersions(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	versions, err := h.engine.Versions(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "Failed to list model versions", err)
		return
	}
	if versions == nil {
		versions = []storage.ModelMetadata{}
	}
	respondSuccess(w, versions, start)
}

// latestVersionLabel unpins the served version.
const latestVersionLabel = "latest"

// ActivateModel pins a model version and serves it.
//
// @Summary Activate a model version
// @Description Pins the version (e.g. "3" or "3.0") so it is served instead of the latest, which allows rollback. "latest" removes the pin.
// @Tags Model
// @Produce json
// @Param version path string true "Model version, or latest to remove the pin"
// @Success 200 {object} APIResponse{data=recommend.ReloadResult}
// @Failure 400 {object} APIResponse "Invalid version"
// @Failure 404 {object} APIResponse "Unknown version"
// @Router /model/activate/{version} [post]
func (h *Handler) ActivateModel(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	label := chi.URLParam(r, "version")
	if label == latestVersionLabel {
		result, err := h.engine.ActivateLatest(r.Context())
		metrics.RecordModelReload("activate", err)
		switch {
		case errors.Is(err, recommend.ErrNoModel):
			respondError(w, r, http.StatusNotFound, ErrCodeNoModel, "No model has been trained yet", nil)
		case err != nil:
			respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "Failed to activate latest model", err)
		default:
			respondSuccess(w, result, start)
		}
		return
	}

	version, err := storage.ParseVersionLabel(label)
	if err != nil {
		respondErrorWithDetails(w, r, http.StatusBadRequest, ErrCodeValidation, "Invalid model version",
			map[string]string{"field": "version", "value": label}, nil)
		return
	}

	result, err := h.engine.Activate(r.Context(), version)
	metrics.RecordModelReload("activate", err)
	switch {
	case errors.Is(err, storage.ErrModelNotFound):
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Model version "+storage.VersionLabel(version)+" does not exist", nil)
	case err != nil:
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "Failed to activate model version", err)
	default:
		respondSuccess(w, result, start)
	}
}

// ReloadModel loads the current model from disk.
//
// @Summary Reload the model
// @Description Loads the pinned version, or the newest one, from the model directory
// @Tags Model
// @Produce json
// @Success 200 {object} APIResponse{data=recommend.ReloadResult}
// @Failure 404 {object} APIResponse "No model trained yet"
// @Failure 500 {object} APIResponse "Reload failed"
// @Router /reload-model [post]
func (h *Handler) ReloadModel(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	result, err := h.engine.Reload(r.Context())
	metrics.RecordModelReload("api", err)
	switch {
	case errors.Is(err, recommend.ErrNoModel):
		respondError(w, r, http.StatusNotFound, ErrCodeNoModel, "No model has been trained yet", nil)
	case err != nil:
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "Failed to reload model", err)
	default:
		respondSuccess(w, result, start)
	}
}
