// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics defines the Prometheus collectors of the citation service
// and exposes an HTTP handler for scraping. Collectors live on a private
// registry so several instances can coexist in one process.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pdiddy/cite-engine/internal/cite"
)

const namespace = "cite_engine"

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	PipelineRunsTotal *prometheus.CounterVec
	StageDuration     *prometheus.HistogramVec
	SearchTermsTotal  *prometheus.CounterVec
	PapersPerRequest  prometheus.Histogram
	PairsPerRequest   prometheus.Histogram
	ResultsPerRequest prometheus.Histogram
}

// New creates and registers all collectors, plus the Go runtime and
// process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds.",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Number of HTTP requests currently being processed.",
			},
		),
		PipelineRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pipeline_runs_total",
				Help:      "Citation pipeline runs by outcome (ok, invalid_input, error) and failed stage.",
			},
			[]string{"outcome", "stage"},
		),
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Duration of each pipeline stage in seconds.",
				Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"stage"},
		),
		SearchTermsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "search_terms_total",
				Help:      "Paper searches by result (ok, failed).",
			},
			[]string{"result"},
		),
		PapersPerRequest: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "papers_per_request",
				Help:      "Papers with an abstract pooled per request.",
				Buckets:   []float64{0, 1, 3, 5, 10, 15},
			},
		),
		PairsPerRequest: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "matched_pairs_per_request",
				Help:      "Matched pairs sent to the language model per request.",
				Buckets:   []float64{0, 1, 5, 10, 25, 50, 100},
			},
		),
		ResultsPerRequest: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "results_per_request",
				Help:      "Citation results returned per request.",
				Buckets:   []float64{0, 1, 5, 10, 25, 50},
			},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.PipelineRunsTotal,
		m.StageDuration,
		m.SearchTermsTotal,
		m.PapersPerRequest,
		m.PairsPerRequest,
		m.ResultsPerRequest,
	)

	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler returns the Prometheus scrape HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRun records one pipeline run.
func (m *Metrics) ObserveRun(r cite.Report, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case cite.HTTPStatus(err) < http.StatusInternalServerError:
		outcome = "invalid_input"
	default:
		outcome = "error"
	}
	m.PipelineRunsTotal.WithLabelValues(outcome, r.FailedStage).Inc()

	for _, st := range r.Stages {
		m.StageDuration.WithLabelValues(st.Stage).Observe(st.Duration.Seconds())
	}
	if r.Search.Terms > 0 {
		m.SearchTermsTotal.WithLabelValues("ok").Add(float64(r.Search.Terms - r.Search.FailedTerms))
		m.SearchTermsTotal.WithLabelValues("failed").Add(float64(r.Search.FailedTerms))
	}
	if err != nil {
		return
	}
	m.PapersPerRequest.Observe(float64(r.Search.Papers))
	m.PairsPerRequest.Observe(float64(r.Pairs))
	m.ResultsPerRequest.Observe(float64(r.Results))
}
