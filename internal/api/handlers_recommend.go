// Setlist - Playlist Association Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/tomtom215/setlist/internal/logging"
	"github.com/tomtom215/setlist/internal/recommend"
	"github.com/tomtom215/setlist/internal/validation"
)

// Recommend returns songs that go together with the given ones.
//
// @Summary Recommend songs
// @Description Applies the association rules of the current model to the given songs and returns the best-scoring other songs
// @Tags Recommendations
// @Accept json
// @Produce json
// @Param request body RecommendRequest true "Songs the listener likes"
// @Success 200 {object} APIResponse{data=recommend.Response}
// @Failure 400 {object} APIResponse "Invalid request"
// @Failure 503 {object} APIResponse "No model loaded"
// @Router /api/recommender [post]
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req RecommendRequest
	if verr := decodeJSON(w, r, &req); verr != nil {
		respondValidationError(w, r, verr)
		return
	}
	if n := len(req.Songs); n > h.config.MaxInputSongs {
		respondValidationError(w, r, validation.NewFieldError("songs", "max", strconv.Itoa(h.config.MaxInputSongs), n,
			fmt.Sprintf("songs must contain at most %d items", h.config.MaxInputSongs)))
		return
	}

	resp, err := h.engine.Recommend(r.Context(), req.Songs)
	switch {
	case errors.Is(err, recommend.ErrNoModel):
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeModelNotLoaded, "No model is loaded; train or reload a model first", nil)
		return
	case err != nil:
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "Failed to generate recommendations", err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Int("songs", len(req.Songs)).
		Int("recommendations", len(resp.Recommendations)).
		Str("version", resp.Version).
		Msg("recommendations served")

	respondSuccess(w, resp, start)
}
