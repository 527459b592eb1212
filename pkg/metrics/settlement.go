package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SettlementMetrics records settlement outcomes and latency.
type SettlementMetrics struct {
	duration     *prometheus.HistogramVec
	outcome      *prometheus.CounterVec
	compensation *prometheus.CounterVec
}

// NewSettlementMetrics registers the settlement metrics on the provided registerer.
func NewSettlementMetrics(reg prometheus.Registerer) *SettlementMetrics {
	if reg == nil {
		return &SettlementMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "settlement_duration_seconds",
		Help:    "Duration of checkout settlements in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	outcome := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_total",
		Help: "Settlement attempts by outcome.",
	}, []string{"outcome"})
	compensation := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_compensations_total",
		Help: "Refund compensations triggered by post-debit failures.",
	}, []string{"result"})
	reg.MustRegister(duration, outcome, compensation)
	return &SettlementMetrics{
		duration:     duration,
		outcome:      outcome,
		compensation: compensation,
	}
}

// ObserveDuration records the settlement duration for the given outcome.
func (s *SettlementMetrics) ObserveDuration(outcome string, duration time.Duration) {
	if s == nil || s.duration == nil {
		return
	}
	s.duration.WithLabelValues(normalizeLabel(outcome)).Observe(duration.Seconds())
}

// IncOutcome increments the settlement counter for the given outcome.
func (s *SettlementMetrics) IncOutcome(outcome string) {
	if s == nil || s.outcome == nil {
		return
	}
	s.outcome.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncCompensation increments the compensation counter with the given result.
func (s *SettlementMetrics) IncCompensation(result string) {
	if s == nil || s.compensation == nil {
		return
	}
	s.compensation.WithLabelValues(normalizeLabel(result)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
