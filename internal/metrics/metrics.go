// Package metrics exposes the engine's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citysense_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "citysense_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint", "status"},
	)

	// Reading ingestion
	ReadingsIngestedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citysense_readings_ingested_total",
			Help: "Total number of sensor readings ingested",
		},
		[]string{"source", "status"}, // source: mqtt, simulator; status: accepted, rejected
	)

	// Alerting
	AlertsRaisedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citysense_alerts_raised_total",
			Help: "Total number of alerts raised",
		},
		[]string{"level"},
	)

	AlertsSuppressedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "citysense_alerts_suppressed_total",
			Help: "Total number of breaches suppressed because the sensor was already alerting",
		},
	)

	ActiveAlerts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "citysense_active_alerts",
			Help: "Number of alerts currently in active status",
		},
	)

	EvaluationSweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "citysense_evaluation_sweep_duration_seconds",
			Help:    "Time taken by one full-fleet threshold evaluation",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	// Scheduler
	SchedulerTicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citysense_scheduler_ticks_total",
			Help: "Total scheduler ticks per task",
		},
		[]string{"task", "status"}, // status: ok, failed
	)

	// Reports
	ReportsFiledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citysense_reports_filed_total",
			Help: "Total number of population reports filed",
		},
		[]string{"source"}, // simulator, feed, api
	)

	ReportsAgedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citysense_reports_aged_total",
			Help: "Total number of reports advanced by the aging pass",
		},
		[]string{"to_status"},
	)
)
