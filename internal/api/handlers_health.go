// Setlist - Playlist Association Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package api

import (
	"net/http"
	"time"
)

// ServiceName is reported by /health.
const ServiceName = "setlist"

// HealthStatus is the payload of GET /health.
type HealthStatus struct {
	Status        string    `json:"status"`
	Service       string    `json:"service"`
	ModelLoaded   bool      `json:"model_loaded"`
	ModelVersion  string    `json:"model_version,omitempty"`
	UptimeSeconds float64   `json:"uptime_seconds"`
	Timestamp     time.Time `json:"timestamp"`
}

// Health handles health check requests. The service is healthy without a
// model; model_loaded tells clients whether recommendations are available.
//
// @Summary Get service health
// @Description Returns liveness plus whether a model is loaded and its version
// @Tags Health
// @Produce json
// @Success 200 {object} APIResponse{data=HealthStatus} "Service is running"
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	start := time.Now()

	respondSuccess(w, HealthStatus{
		Status:        "healthy",
		Service:       ServiceName,
		ModelLoaded:   h.engine.IsLoaded(),
		ModelVersion:  h.engine.CurrentVersion(),
		UptimeSeconds: time.Since(h.startTime).Seconds(),
		Timestamp:     start.UTC(),
	}, start)
}

// TrainingStatus reports the state of training runs.
//
// @Summary Get training status
// @Description Returns whether training is running and the outcome of the last run
// @Tags Training
// @Produce json
// @Success 200 {object} APIResponse{data=recommend.TrainingStatus}
// @Router /training/status [get]
func (h *Handler) TrainingStatus(w http.ResponseWriter, _ *http.Request) {
	respondSuccess(w, h.engine.TrainingStatus(), time.Now())
}
