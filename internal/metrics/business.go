// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package metrics exposes Prometheus metrics for batch runs and API usage.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Case metrics
	casesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "consultaprocesos_cases_total",
		Help: "Cases processed by final status",
	}, []string{"status"}) // status=SUCCESS|PRIVATE|NOT_FOUND|FAILED

	caseDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "consultaprocesos_case_duration_seconds",
		Help:    "Wall time to resolve one case, including throttling",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
	})

	invalidRadicados = promauto.NewCounter(prometheus.CounterOpts{
		Name: "consultaprocesos_invalid_radicados_total",
		Help: "Input values skipped because they are not valid radicados",
	})

	// API metrics
	apiRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "consultaprocesos_api_requests_total",
		Help: "Requests sent to the Rama Judicial API by endpoint and outcome",
	}, []string{"endpoint", "outcome"})

	apiLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "consultaprocesos_api_request_duration_seconds",
		Help:    "Latency of Rama Judicial API requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	apiRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "consultaprocesos_api_retries_total",
		Help: "Retried API requests by endpoint",
	}, []string{"endpoint"})

	// Cache metrics
	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "consultaprocesos_cache_lookups_total",
		Help: "Response cache lookups by result",
	}, []string{"result"}) // result=hit|miss

	// Run metrics
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "consultaprocesos_runs_total",
		Help: "Batch runs by outcome",
	}, []string{"outcome"}) // outcome=completed|interrupted|failed

	lastRunCases = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "consultaprocesos_last_run_cases",
		Help: "Cases in the last run by status",
	}, []string{"status"})

	lastRunSuccessRate = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "consultaprocesos_last_run_success_rate",
		Help: "Success rate of the last run in percent (private cases count as successes)",
	})

	lastRunDuration = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "consultaprocesos_last_run_duration_seconds",
		Help: "Duration of the last run",
	})

	lastRunTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "consultaprocesos_last_run_timestamp_seconds",
		Help: "Unix time the last run finished",
	})

	reportWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "consultaprocesos_report_writes_total",
		Help: "Report files written by format and outcome",
	}, []string{"format", "outcome"})
)

// RecordCase counts a processed case.
func RecordCase(status string, d time.Duration) {
	casesProcessed.WithLabelValues(status).Inc()
	caseDuration.Observe(d.Seconds())
}

// IncInvalidRadicado counts a skipped input value.
func IncInvalidRadicado() {
	invalidRadicados.Inc()
}

// RecordAPIRequest counts one API request and its latency.
func RecordAPIRequest(endpoint, outcome string, d time.Duration) {
	apiRequests.WithLabelValues(endpoint, outcome).Inc()
	apiLatency.WithLabelValues(endpoint).Observe(d.Seconds())
}

// IncAPIRetry counts a retried API request.
func IncAPIRetry(endpoint string) {
	apiRetries.WithLabelValues(endpoint).Inc()
}

// RecordCacheLookup counts a cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	cacheLookups.WithLabelValues("miss").Inc()
}

// RunSummary is the subset of run statistics exported as gauges.
type RunSummary struct {
	Outcome     string
	ByStatus    map[string]int
	SuccessRate float64
	Duration    time.Duration
	FinishedAt  time.Time
}

// RecordRun publishes the outcome of a finished run.
func RecordRun(s RunSummary) {
	runsTotal.WithLabelValues(s.Outcome).Inc()
	lastRunCases.Reset()
	for status, n := range s.ByStatus {
		lastRunCases.WithLabelValues(status).Set(float64(n))
	}
	lastRunSuccessRate.Set(s.SuccessRate)
	lastRunDuration.Set(s.Duration.Seconds())
	lastRunTimestamp.Set(float64(s.FinishedAt.Unix()))
}

// RecordReportWrite counts a report file write.
func RecordReportWrite(format string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	reportWrites.WithLabelValues(format, outcome).Inc()
}
