/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package telemetry exposes Prometheus metrics for the scraper and the API.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ScrapesTotal counts finished comparison runs by outcome ("ok" or
	// "sentinel").
	ScrapesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tourwatch_scrapes_total",
		Help: "Completed comparison runs by outcome.",
	}, []string{"outcome"})

	// ScrapeDuration observes wall time of one comparison run.
	ScrapeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tourwatch_scrape_duration_seconds",
		Help:    "Duration of one comparison run.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})

	// SlotsDiscovered observes how many slot results one run produced.
	SlotsDiscovered = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tourwatch_slots_discovered",
		Help:    "Slot results per comparison run.",
		Buckets: prometheus.LinearBuckets(0, 1, 13),
	})

	// SweepRunsTotal counts sweep executions by final status.
	SweepRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tourwatch_sweep_runs_total",
		Help: "Sweep executions by final status.",
	}, []string{"status"})

	// SweepErrorsTotal counts per-stage sweep failures.
	SweepErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tourwatch_sweep_errors_total",
		Help: "Sweep failures by stage.",
	}, []string{"stage"})

	// APIRequestsTotal counts HTTP requests.
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tourwatch_api_requests_total",
		Help: "HTTP requests by method, route, and status.",
	}, []string{"method", "endpoint", "status"})

	// APIRequestDuration observes HTTP request latency.
	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tourwatch_api_request_duration_seconds",
		Help:    "HTTP request latency by method, route, and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint", "status"})

	// APIActiveConnections gauges in-flight HTTP requests.
	APIActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tourwatch_api_active_connections",
		Help: "In-flight HTTP requests.",
	})
)

// Handler exposes the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
