package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	eventsDetected  *prometheus.CounterVec
	eventsKept      *prometheus.CounterVec
	tradesSimulated *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	latency         *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		eventsDetected: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rallyscan_events_detected_total",
				Help: "Rally events detected before hierarchy filtering",
			},
			[]string{"symbol", "tf"},
		),
		eventsKept: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rallyscan_events_kept_total",
				Help: "Rally events surviving hierarchy filtering",
			},
			[]string{"symbol", "tf"},
		),
		tradesSimulated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rallyscan_trades_simulated_total",
				Help: "Trades produced by backtest simulation runs",
			},
			[]string{"symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rallyscan_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rallyscan_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordEventsDetected records the raw per-timeframe detection count of one scan.
func (r *Recorder) RecordEventsDetected(symbol, tf string, n int) {
	r.eventsDetected.WithLabelValues(symbol, tf).Add(float64(n))
}

// RecordEventsKept records the post-filter count of one scan.
func (r *Recorder) RecordEventsKept(symbol, tf string, n int) {
	r.eventsKept.WithLabelValues(symbol, tf).Add(float64(n))
}

// RecordTradesSimulated records the trade count of one simulation run.
func (r *Recorder) RecordTradesSimulated(symbol string, n int) {
	r.tradesSimulated.WithLabelValues(symbol).Add(float64(n))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
