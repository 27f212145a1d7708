// Setlist - Playlist Association Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/setlist/internal/logging"
	"github.com/tomtom215/setlist/internal/validation"
)

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	// Status is "success" or "error".
	Status string `json:"status"`

	// Data contains the response payload (absent on error).
	Data interface{} `json:"data,omitempty"`

	// Error contains error details (absent on success).
	Error *APIError `json:"error,omitempty"`

	Metadata Metadata `json:"metadata"`
}

// APIError represents an error response.
type APIError struct {
	// Code is a machine-readable error code.
	Code string `json:"code"`

	// Message is a human-readable error message.
	Message string `json:"message"`

	// Details contains additional error details (optional).
	Details interface{} `json:"details,omitempty"`
}

// Metadata describes the response itself.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms"`
}

// Error codes for API responses.
const (
	ErrCodeValidation         = validation.ErrorCode
	ErrCodeModelNotLoaded     = "MODEL_NOT_LOADED"
	ErrCodeNoModel            = "NO_MODEL"
	ErrCodeTrainingInProgress = "TRAINING_IN_PROGRESS"
	ErrCodeDatasetError       = "DATASET_ERROR"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeRateLimited        = "RATE_LIMITED"
)

// respondJSON sends an envelope with proper headers.
func respondJSON(w http.ResponseWriter, status int, response *APIResponse) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondSuccess sends a 200 envelope. start is when handling began.
func respondSuccess(w http.ResponseWriter, data interface{}, start time.Time) {
	respondJSON(w, http.StatusOK, &APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: newMetadata(start),
	})
}

// respondError sends an error envelope. A non-nil err is logged with the
// request context, never echoed to the client.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	respondErrorWithDetails(w, r, status, code, message, nil, err)
}

func respondErrorWithDetails(w http.ResponseWriter, r *http.Request, status int, code, message string, details interface{}, err error) {
	if err != nil {
		event := logging.Ctx(r.Context()).Warn()
		if status >= http.StatusInternalServerError {
			event = logging.Ctx(r.Context()).Error()
		}
		event.Str("code", code).
			Str("path", sanitizeLogValue(r.URL.Path)).
			Str("error", sanitizeLogValue(err.Error())).
			Msg("API error")
	}

	respondJSON(w, status, &APIResponse{
		Status: "error",
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
		Metadata: newMetadata(time.Time{}),
	})
}

// respondValidationError sends a 400 built from a validation failure.
func respondValidationError(w http.ResponseWriter, r *http.Request, verr *validation.RequestValidationError) {
	apiErr := verr.ToAPIError()
	var details interface{}
	if apiErr.Details != nil {
		details = apiErr.Details
	}
	respondErrorWithDetails(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, details, nil)
}

func newMetadata(start time.Time) Metadata {
	now := time.Now()
	meta := Metadata{Timestamp: now.UTC()}
	if !start.IsZero() {
		meta.QueryTimeMS = now.Sub(start).Milliseconds()
	}
	return meta
}

// sanitizeLogValue removes control characters from strings to prevent log injection.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&result, "\\x%02x", r)
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}
