// Gatewarden - Access Control and Entitlement Core
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus Metrics Integration for Production Observability
// This package provides instrumentation for:
// - API endpoint latency and throughput
// - Security gate rejections (rate limit / validation)
// - File access decisions
// - Entitlement scan outcomes
// - Badger store operations

var (
	// API Metrics
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)

	// Security Gate Metrics
	GateRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gate_rejections_total",
			Help: "Total number of requests rejected by the security gate",
		},
		[]string{"reason"}, // "rate_limited", "invalid_input"
	)

	GateCredentialResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gate_credential_resolutions_total",
			Help: "Total number of credential resolution attempts",
		},
		[]string{"outcome"}, // "identity", "anonymous", "rejected"
	)

	// File Access Metrics
	FileAccessDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "file_access_decisions_total",
			Help: "Total number of file access authorization decisions",
		},
		[]string{"content_type", "decision"},
	)

	// Entitlement Scan Metrics
	ScanOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entitlement_scan_outcomes_total",
			Help: "Total number of entitlement scan outcomes by code",
		},
		[]string{"code"},
	)

	ScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "entitlement_scan_duration_seconds",
			Help:    "Duration of entitlement scan validation in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	// Store Metrics
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_operation_duration_seconds",
			Help:    "Duration of Badger store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "prefix"},
	)

	StoreOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_operation_errors_total",
			Help: "Total number of Badger store operation errors",
		},
		[]string{"operation", "prefix"},
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

// RecordGateRejection records a request rejected by the security gate
func RecordGateRejection(reason string) {
	GateRejectionsTotal.WithLabelValues(reason).Inc()
}

// RecordCredentialResolution records the outcome of a credential resolution attempt
func RecordCredentialResolution(outcome string) {
	GateCredentialResolutions.WithLabelValues(outcome).Inc()
}

// RecordFileAccessDecision records a file access authorization decision
func RecordFileAccessDecision(contentType string, allowed bool) {
	decision := "deny"
	if allowed {
		decision = "allow"
	}
	FileAccessDecisionsTotal.WithLabelValues(contentType, decision).Inc()
}

// RecordScanOutcome records an entitlement scan outcome
func RecordScanOutcome(code string, duration time.Duration) {
	ScanOutcomesTotal.WithLabelValues(code).Inc()
	ScanDuration.Observe(duration.Seconds())
}

// RecordStoreOperation records a Badger store operation metric
func RecordStoreOperation(operation, prefix string, duration time.Duration, err error) {
	StoreOperationDuration.WithLabelValues(operation, prefix).Observe(duration.Seconds())
	if err != nil {
		StoreOperationErrors.WithLabelValues(operation, prefix).Inc()
	}
}
