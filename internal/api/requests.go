// Setlist - Playlist Association Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/setlist/internal/validation"
)

// maxRequestBody caps JSON request bodies.
const maxRequestBody = 1 << 20

// TrainRequest is the body of POST /train.
type TrainRequest struct {
	// DatasetURL is an http(s) URL of a playlist CSV.
	DatasetURL string `json:"dataset_url" validate:"required,httpurl" example:"https://example.com/playlists.csv"`

	// DatasetVersion and DatasetName label the model; they default to
	// the configured values.
	DatasetVersion string `json:"dataset_version,omitempty" validate:"omitempty,max=128"`
	DatasetName    string `json:"dataset_name,omitempty" validate:"omitempty,max=128"`
}

// RecommendRequest is the body of POST /api/recommender.
type RecommendRequest struct {
	// Songs are song names (without artist), matched case-insensitively.
	Songs []string `json:"songs" validate:"required,min=1,dive,notblank" example:"Yesterday,Hey Jude"`
}

// decodeJSON reads a JSON body into v and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) *validation.RequestValidationError {
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return validation.NewFieldError("body", "max", fmt.Sprint(maxRequestBody), nil,
				fmt.Sprintf("request body must not exceed %d bytes", maxRequestBody))
		}
		return validation.NewFieldError("body", "readable", "", nil, "request body could not be read")
	}
	if len(data) == 0 {
		return validation.NewFieldError("body", "required", "", nil, "request body is required")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return validation.NewFieldError("body", "json", "", nil, "request body must be valid JSON")
	}
	return validation.ValidateStruct(v)
}
