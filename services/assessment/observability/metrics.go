// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides HTTP-level metrics for the assessment
// engine.
//
// # Description
//
// This package implements Prometheus metrics for monitoring the engine's
// REST surface. Metrics include:
//   - Request counters (by endpoint and status)
//   - Request latency histograms
//   - In-flight request gauges
//   - Error counters (by endpoint and error code)
//
// The compute packages (compliance, matrix) register their own
// domain-level metrics; this package only covers the HTTP layer.
//
// # Integration
//
// Metrics are exposed via the /metrics endpoint. Use with Prometheus +
// Grafana for dashboards and alerting.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Metric Definitions
// =============================================================================

// Namespace for all metrics
const metricsNamespace = "aleutian"

// Subsystem for engine HTTP metrics
const engineSubsystem = "assessment_http"

// EngineMetrics holds the Prometheus metrics for the engine's REST surface.
//
// # Description
//
// Provides counters, histograms, and gauges for monitoring request volume,
// latency, and failure modes. Initialize once at startup via InitMetrics().
//
// # Fields
//
//   - RequestsTotal: Counter of requests by endpoint and status
//   - RequestDurationSeconds: Histogram of request latency by endpoint
//   - InFlightRequests: Gauge of requests currently being served
//   - ErrorsTotal: Counter of errors by endpoint and error code
//
// # Thread Safety
//
// All operations are thread-safe.
type EngineMetrics struct {
	// RequestsTotal counts requests by endpoint and status.
	// Labels: endpoint (gin route path), status (success, error)
	RequestsTotal *prometheus.CounterVec

	// RequestDurationSeconds measures request latency.
	// Labels: endpoint
	RequestDurationSeconds *prometheus.HistogramVec

	// InFlightRequests tracks requests currently being served.
	// Labels: endpoint
	InFlightRequests *prometheus.GaugeVec

	// ErrorsTotal counts errors by endpoint and error code.
	// Labels: endpoint, error_code (validation, not_found, forbidden,
	// computation, internal)
	ErrorsTotal *prometheus.CounterVec
}

// DefaultMetrics is the singleton instance of EngineMetrics.
// Initialized by InitMetrics().
var DefaultMetrics *EngineMetrics

var initOnce sync.Once

// InitMetrics initializes the default metrics instance.
//
// # Description
//
// Creates and registers all engine HTTP metrics against the default
// Prometheus registry. Call once at application startup; repeated calls
// return the already-initialized instance.
//
// # Outputs
//
//   - *EngineMetrics: The initialized metrics instance.
//
// # Examples
//
//	func main() {
//	    observability.InitMetrics()
//	    // ... start server ...
//	}
//
// # Assumptions
//
//   - Prometheus default registry is available.
func InitMetrics() *EngineMetrics {
	initOnce.Do(func() {
		DefaultMetrics = newEngineMetrics(prometheus.DefaultRegisterer)
	})
	return DefaultMetrics
}

// newEngineMetrics builds the metric set against the given registerer.
// Tests pass an isolated registry to avoid duplicate registration.
func newEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	factory := promauto.With(reg)

	return &EngineMetrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: engineSubsystem,
				Name:      "requests_total",
				Help:      "Total number of engine requests by endpoint and status",
			},
			[]string{"endpoint", "status"},
		),

		RequestDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: engineSubsystem,
				Name:      "request_duration_seconds",
				Help:      "Request latency in seconds by endpoint",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
			[]string{"endpoint"},
		),

		InFlightRequests: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: engineSubsystem,
				Name:      "in_flight_requests",
				Help:      "Number of requests currently being served",
			},
			[]string{"endpoint"},
		),

		ErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: engineSubsystem,
				Name:      "errors_total",
				Help:      "Total engine errors by endpoint and error code",
			},
			[]string{"endpoint", "error_code"},
		),
	}
}

// =============================================================================
// Error Codes
// =============================================================================

// ErrorCode represents a categorized error type for metrics.
type ErrorCode string

const (
	// ErrorCodeValidation indicates rejected caller input.
	ErrorCodeValidation ErrorCode = "validation"

	// ErrorCodeNotFound indicates a missing analysis, project, or record.
	ErrorCodeNotFound ErrorCode = "not_found"

	// ErrorCodeForbidden indicates an access denial.
	ErrorCodeForbidden ErrorCode = "forbidden"

	// ErrorCodeComputation indicates corrupt stored data or broken
	// configuration discovered mid-computation.
	ErrorCodeComputation ErrorCode = "computation"

	// ErrorCodeInternal indicates an uncategorized internal error.
	ErrorCodeInternal ErrorCode = "internal"
)

// =============================================================================
// Helper Methods
// =============================================================================

// RecordRequest records a completed request.
//
// # Inputs
//
//   - endpoint: The route path that handled the request.
//   - success: Whether the request completed with a non-error status.
func (m *EngineMetrics) RecordRequest(endpoint string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.RequestsTotal.WithLabelValues(endpoint, status).Inc()
}

// RecordDuration records a request's latency.
//
// # Inputs
//
//   - endpoint: The route path that handled the request.
//   - seconds: Wall-clock duration in seconds.
func (m *EngineMetrics) RecordDuration(endpoint string, seconds float64) {
	m.RequestDurationSeconds.WithLabelValues(endpoint).Observe(seconds)
}

// RecordError records a categorized request error.
//
// # Inputs
//
//   - endpoint: The route path where the error occurred.
//   - code: The error type code.
func (m *EngineMetrics) RecordError(endpoint string, code ErrorCode) {
	m.ErrorsTotal.WithLabelValues(endpoint, string(code)).Inc()
}

// RequestStarted increments the in-flight gauge.
func (m *EngineMetrics) RequestStarted(endpoint string) {
	m.InFlightRequests.WithLabelValues(endpoint).Inc()
}

// RequestEnded decrements the in-flight gauge.
func (m *EngineMetrics) RequestEnded(endpoint string) {
	m.InFlightRequests.WithLabelValues(endpoint).Dec()
}
