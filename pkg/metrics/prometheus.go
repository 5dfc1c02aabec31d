package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	signalsDetected *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	verdictStrength *prometheus.GaugeVec
	alertsFired     *prometheus.CounterVec
	latency         *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		signalsDetected: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "socialpulse_signals_detected_total",
				Help: "Total number of signals produced by analyzers",
			},
			[]string{"analyzer", "symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "socialpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		verdictStrength: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "socialpulse_verdict_strength",
				Help: "Last aggregated verdict strength per symbol",
			},
			[]string{"symbol"},
		),
		alertsFired: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "socialpulse_alerts_fired_total",
				Help: "Total number of alerts fired by kind",
			},
			[]string{"kind"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "socialpulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordSignal counts a produced signal.
func (r *Recorder) RecordSignal(analyzer, symbol string) {
	r.signalsDetected.WithLabelValues(analyzer, symbol).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordVerdictStrength records the latest verdict strength for a symbol.
func (r *Recorder) RecordVerdictStrength(symbol string, strength float64) {
	r.verdictStrength.WithLabelValues(symbol).Set(strength)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordAlert counts a fired alert.
func (r *Recorder) RecordAlert(kind string) {
	r.alertsFired.WithLabelValues(kind).Inc()
}
