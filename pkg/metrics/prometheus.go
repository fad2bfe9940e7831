package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"MarketPulse/internal/domain/models"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	candidates  *prometheus.CounterVec
	fallbacks   prometheus.Counter
	decisions   *prometheus.CounterVec
	probability *prometheus.GaugeVec
	avgProb     prometheus.Gauge
	errorsTotal *prometheus.CounterVec
	latency     *prometheus.HistogramVec
}

// New creates a recorder whose collectors are registered on reg.
// Pass prometheus.DefaultRegisterer to expose them on /metrics.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		candidates: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketpulse_candidate_fetch_total",
				Help: "Candidate ticker fetches by outcome (ok, error, empty)",
			},
			[]string{"symbol", "result"},
		),
		fallbacks: f.NewCounter(
			prometheus.CounterOpts{
				Name: "marketpulse_synthetic_fallback_total",
				Help: "Series resolved from synthetic data after every candidate failed",
			},
		),
		decisions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketpulse_decisions_total",
				Help: "Group decisions produced",
			},
			[]string{"group", "decision"},
		),
		probability: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "marketpulse_group_probability",
				Help: "Last probability per group",
			},
			[]string{"group"},
		),
		avgProb: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "marketpulse_average_probability",
				Help: "Average probability of the last snapshot",
			},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marketpulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordCandidate(symbol, result string) {
	r.candidates.WithLabelValues(symbol, result).Inc()
}

func (r *Recorder) RecordFallback() {
	r.fallbacks.Inc()
}

// RecordDecision counts the decision and stores the group's last probability.
func (r *Recorder) RecordDecision(group string, decision models.Decision, probability float64) {
	r.decisions.WithLabelValues(group, string(decision)).Inc()
	r.probability.WithLabelValues(group).Set(probability)
}

func (r *Recorder) RecordAverageProbability(p float64) {
	r.avgProb.Set(p)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop discards every measurement.
type Nop struct{}

func (Nop) RecordCandidate(string, string) {}

func (Nop) RecordFallback() {}

func (Nop) RecordDecision(string, models.Decision, float64) {}

func (Nop) RecordAverageProbability(float64) {}

func (Nop) RecordError(string) {}

func (Nop) RecordLatency(string, float64) {}
