package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	cycles         *prometheus.CounterVec
	cycleDuration  prometheus.Histogram
	signals        *prometheus.CounterVec
	totalScore     prometheus.Histogram
	analyzerFaults *prometheus.CounterVec
	orders         *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		cycles: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sweepguard_cycles_total",
				Help: "Total scan cycles by outcome",
			},
			[]string{"outcome"},
		),
		cycleDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sweepguard_cycle_duration_seconds",
				Help:    "Duration of one scan cycle",
				Buckets: prometheus.DefBuckets,
			},
		),
		signals: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sweepguard_signals_total",
				Help: "Aggregated signals by direction and validity",
			},
			[]string{"direction", "valid"},
		),
		totalScore: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sweepguard_signal_score",
				Help:    "Aggregate score distribution",
				Buckets: prometheus.LinearBuckets(0, 25, 11),
			},
		),
		analyzerFaults: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sweepguard_analyzer_faults_total",
				Help: "Analyzer evaluations replaced by a neutral score",
			},
			[]string{"analyzer"},
		),
		orders: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sweepguard_orders_total",
				Help: "Order submissions by terminal status",
			},
			[]string{"status"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sweepguard_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
	}
}

// RecordCycle records one scan cycle outcome and duration.
func (r *Recorder) RecordCycle(outcome string, seconds float64) {
	r.cycles.WithLabelValues(outcome).Inc()
	r.cycleDuration.Observe(seconds)
}

// RecordSignal records an aggregated signal.
func (r *Recorder) RecordSignal(direction string, valid bool) {
	v := "false"
	if valid {
		v = "true"
	}
	r.signals.WithLabelValues(direction, v).Inc()
}

// RecordTotalScore records an aggregate score observation.
func (r *Recorder) RecordTotalScore(score float64) {
	r.totalScore.Observe(score)
}

// RecordAnalyzerFault records a degraded analyzer evaluation.
func (r *Recorder) RecordAnalyzerFault(analyzer string) {
	r.analyzerFaults.WithLabelValues(analyzer).Inc()
}

// RecordOrder records a terminal order status.
func (r *Recorder) RecordOrder(status string) {
	r.orders.WithLabelValues(status).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}
