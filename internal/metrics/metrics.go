// Setlist - Playlist Association Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

// Package metrics holds the Prometheus instrumentation for Setlist.
//
// Collectors are registered on the default registry with promauto and
// exposed by the API at /metrics. Callers use the Record*/Set* helpers
// rather than touching the collectors directly.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "setlist"

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "API request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5, 30, 120},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "api_active_requests",
			Help:      "Current number of active API requests",
		},
	)

	// Mining Metrics
	MiningDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "mining_duration_seconds",
			Help:      "Duration of Eclat mining runs in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 300, 900, 1800},
		},
	)

	MiningItemsets = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mining_itemsets",
			Help:      "Frequent itemsets found by the last mining run",
		},
	)

	MiningRules = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mining_rules",
			Help:      "Association rules generated by the last mining run",
		},
	)

	MiningTransactions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mining_transactions",
			Help:      "Playlists mined by the last mining run",
		},
	)

	TrainingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "training_runs_total",
			Help:      "Total training runs by outcome",
		},
		[]string{"status"}, // success, failure, timeout, rejected
	)

	// Model Metrics
	ModelVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_version",
			Help:      "Version of the model currently served (0 when none)",
		},
	)

	ModelReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_reloads_total",
			Help:      "Total model reloads by trigger source and outcome",
		},
		[]string{"source", "status"},
	)

	// Recommendation Metrics
	Recommendations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendations_total",
			Help:      "Total recommendation requests by outcome",
		},
		[]string{"status"}, // ok, empty, no_model
	)

	RecommendationCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendation_cache_total",
			Help:      "Recommendation cache lookups by result",
		},
		[]string{"result"}, // hit, miss
	)

	// Dataset Metrics
	DatasetDownloadBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dataset_download_bytes",
			Help:      "Size of downloaded playlist datasets in bytes",
			Buckets:   prometheus.ExponentialBuckets(1<<10, 4, 12),
		},
	)

	DatasetDownloadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dataset_download_duration_seconds",
			Help:      "Duration of dataset downloads in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_requests_total",
			Help:      "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	// Event Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Model events published by topic and outcome",
		},
		[]string{"topic", "status"},
	)

	EventsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_received_total",
			Help:      "Model events received by topic and outcome",
		},
		[]string{"topic", "status"},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordMiningRun records the size and duration of a completed mining run.
func RecordMiningRun(duration time.Duration, transactions, itemsets, rules int) {
	MiningDuration.Observe(duration.Seconds())
	MiningTransactions.Set(float64(transactions))
	MiningItemsets.Set(float64(itemsets))
	MiningRules.Set(float64(rules))
}

// RecordTrainingRun counts a training run by status.
func RecordTrainingRun(status string) {
	TrainingRuns.WithLabelValues(status).Inc()
}

// SetModelVersion records the version being served.
func SetModelVersion(version int) {
	ModelVersion.Set(float64(version))
}

// RecordModelReload counts a reload attempt.
func RecordModelReload(source string, err error) {
	ModelReloads.WithLabelValues(source, statusLabel(err)).Inc()
}

// RecordRecommendation counts a recommendation request by status.
func RecordRecommendation(status string) {
	Recommendations.WithLabelValues(status).Inc()
}

// RecordCacheLookup counts a response cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		RecommendationCache.WithLabelValues("hit").Inc()
	} else {
		RecommendationCache.WithLabelValues("miss").Inc()
	}
}

// RecordDatasetDownload records a completed dataset download.
func RecordDatasetDownload(bytes int64, duration time.Duration) {
	DatasetDownloadBytes.Observe(float64(bytes))
	DatasetDownloadDuration.Observe(duration.Seconds())
}

// SetCircuitBreakerState records a breaker state (0=closed, 1=half-open, 2=open).
func SetCircuitBreakerState(name string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordCircuitBreakerRequest counts a request outcome through a breaker.
func RecordCircuitBreakerRequest(name, result string) {
	CircuitBreakerRequests.WithLabelValues(name, result).Inc()
}

// RecordEventPublished counts a publish attempt.
func RecordEventPublished(topic string, err error) {
	EventsPublished.WithLabelValues(topic, statusLabel(err)).Inc()
}

// RecordEventReceived counts a consumed message.
func RecordEventReceived(topic string, err error) {
	EventsReceived.WithLabelValues(topic, statusLabel(err)).Inc()
}

// StatusCode formats an HTTP status for the status label.
func StatusCode(code int) string {
	return strconv.Itoa(code)
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
