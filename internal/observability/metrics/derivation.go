package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/paperbox/internal/core/domain"
	"github.com/kirillkom/paperbox/internal/infrastructure/scheduler"
)

// DerivationMetrics counts derivation outcomes and dependency resilience
// events. Both the API and the worker register one on their own registry.
type DerivationMetrics struct {
	service string

	runsTotal        *prometheus.CounterVec
	createdTotal     *prometheus.CounterVec
	skippedTotal     *prometheus.CounterVec
	docFailuresTotal *prometheus.CounterVec
	sweepsTotal      *prometheus.CounterVec
	sweepDuration    *prometheus.HistogramVec
	retriesTotal     *prometheus.CounterVec
	breakerState     *prometheus.GaugeVec
}

func NewDerivationMetrics(registry prometheus.Registerer, service string) *DerivationMetrics {
	m := &DerivationMetrics{
		service: service,
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "paperbox",
			Subsystem: "derivation",
			Name:      "runs_total",
			Help:      "Derivation runs by outcome (ok, partial, error).",
		}, []string{"service", "status"}),
		createdTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "paperbox",
			Subsystem: "derivation",
			Name:      "notifications_created_total",
			Help:      "Notifications written by type.",
		}, []string{"service", "type"}),
		skippedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "paperbox",
			Subsystem: "derivation",
			Name:      "candidates_skipped_total",
			Help:      "Candidate dates that produced no notification, by reason.",
		}, []string{"service", "reason"}),
		docFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "paperbox",
			Subsystem: "derivation",
			Name:      "document_failures_total",
			Help:      "Documents whose candidates could not be evaluated.",
		}, []string{"service"}),
		sweepsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "paperbox",
			Subsystem: "sweep",
			Name:      "runs_total",
			Help:      "Scheduled sweeps by outcome.",
		}, []string{"service", "status"}),
		sweepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "paperbox",
			Subsystem: "sweep",
			Name:      "duration_seconds",
			Help:      "Scheduled sweep duration in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"service"}),
		retriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "paperbox",
			Subsystem: "resilience",
			Name:      "retries_total",
			Help:      "Retried dependency calls by operation.",
		}, []string{"service", "operation"}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "paperbox",
			Subsystem: "resilience",
			Name:      "breaker_open",
			Help:      "1 while the operation's circuit breaker is open or half-open.",
		}, []string{"service", "operation"}),
	}
	registry.MustRegister(
		m.runsTotal,
		m.createdTotal,
		m.skippedTotal,
		m.docFailuresTotal,
		m.sweepsTotal,
		m.sweepDuration,
		m.retriesTotal,
		m.breakerState,
	)
	return m
}

func (m *DerivationMetrics) ObserveDerivation(report *domain.DerivationReport, err error) {
	if err != nil || report == nil {
		m.runsTotal.WithLabelValues(m.service, "error").Inc()
		return
	}
	m.runsTotal.WithLabelValues(m.service, report.Status()).Inc()
	for _, n := range report.Created {
		m.createdTotal.WithLabelValues(m.service, string(n.Type)).Inc()
	}
	m.addSkipped("duplicate", report.DuplicatesSkipped)
	m.addSkipped("invalid_date", report.InvalidDates)
	m.addSkipped("beyond_horizon", report.BeyondHorizon)
	if len(report.Failures) > 0 {
		m.docFailuresTotal.WithLabelValues(m.service).Add(float64(len(report.Failures)))
	}
}

func (m *DerivationMetrics) ObserveSweep(summary scheduler.SweepSummary, err error) {
	status := "ok"
	switch {
	case err != nil:
		status = "error"
	case summary.Failed > 0 || summary.Partial > 0:
		status = "partial"
	}
	m.sweepsTotal.WithLabelValues(m.service, status).Inc()
	m.sweepDuration.WithLabelValues(m.service).Observe(summary.Duration.Seconds())
}

func (m *DerivationMetrics) ObserveRetry(operation string) {
	m.retriesTotal.WithLabelValues(m.service, operation).Inc()
}

func (m *DerivationMetrics) ObserveBreakerState(operation, state string) {
	value := 1.0
	if state == "closed" {
		value = 0
	}
	m.breakerState.WithLabelValues(m.service, operation).Set(value)
}

func (m *DerivationMetrics) addSkipped(reason string, count int) {
	if count > 0 {
		m.skippedTotal.WithLabelValues(m.service, reason).Add(float64(count))
	}
}
