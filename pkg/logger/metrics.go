package logger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics shared across the scanner, the exchange client and the API

var (
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors",
		},
		[]string{"service", "error_type"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upbit_request_duration_seconds",
			Help:    "Latency of exchange REST requests in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint", "status"},
	)

	ScanCyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scan_cycles_total",
			Help: "Total number of market scan cycles",
		},
		[]string{"status"}, // "success", "empty" or "publish_failed"
	)

	ScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scan_duration_seconds",
			Help:    "Duration of a full market scan in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	ScanStageTickers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "scan_stage_tickers",
			Help: "Tickers remaining after each stage of the last scan",
		},
		[]string{"stage"}, // "universe", "volatility", "indicator", "ranked"
	)

	TickerEvaluations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticker_evaluations_total",
			Help: "Per-ticker indicator evaluations by outcome",
		},
		[]string{"outcome", "reason"},
	)

	SnapshotVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommendation_snapshot_version",
			Help: "Version of the last published recommendation snapshot",
		},
	)
)
