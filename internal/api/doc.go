// Setlist - Playlist Association Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

// Package api serves the Setlist HTTP API with the Chi router.
//
// # Endpoints
//
//	GET  /health                     liveness plus model status
//	POST /train                      download a dataset and train synchronously
//	GET  /training/status            state of training runs
//	GET  /model/info                 current model and available versions
//	GET  /model/versions             metadata of every stored version
//	POST /model/activate/{version}   pin a version (rollback) and serve it; "latest" unpins
//	POST /reload-model               load the newest (or pinned) model from disk
//	POST /api/recommender            songs that go together with the given ones
//	GET  /metrics                    Prometheus metrics
//	GET  /swagger/*                  Swagger UI
//
// # Response Format
//
// Every JSON endpoint answers with the same envelope:
//
//	{
//	  "status": "success",
//	  "data": {...},
//	  "metadata": {"timestamp": "...", "query_time_ms": 3}
//	}
//
// Errors carry status "error" and an error object with a machine-readable
// code (VALIDATION_ERROR, MODEL_NOT_LOADED, NO_MODEL, ...), a message and
// optional details.
//
// # Middleware
//
// Applied to all routes in order: request id with logging context, real
// IP, panic recovery, Prometheus metrics and CORS. The API routes are
// also rate limited per IP, and POST /train has its own, stricter limit.
package api
