package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/mover-verification/internal/core/domain"
)

const namespace = "mvs"

// VerificationMetrics records business outcomes of the verification flows.
type VerificationMetrics struct {
	service string

	reportsTotal       *prometheus.CounterVec
	reportScore        *prometheus.HistogramVec
	cardDecisionsTotal *prometheus.CounterVec
	ocrFallbackTotal   *prometheus.CounterVec
	missionLetterTotal *prometheus.CounterVec
	breakerState       *prometheus.GaugeVec
}

func NewVerificationMetrics(service string, registerer prometheus.Registerer) *VerificationMetrics {
	m := &VerificationMetrics{
		service: service,
		reportsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "verification",
				Name:      "reports_total",
				Help:      "Verification reports produced by overall status.",
			},
			[]string{"service", "status"},
		),
		reportScore: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "verification",
				Name:      "score",
				Help:      "Distribution of verification report scores.",
				Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 85, 90, 95, 100},
			},
			[]string{"service"},
		),
		cardDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "card",
				Name:      "validations_total",
				Help:      "Card validations by decision.",
			},
			[]string{"service", "decision"},
		),
		ocrFallbackTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ocr",
				Name:      "fallback_total",
				Help:      "Document extractions that degraded to manual review.",
			},
			[]string{"service", "document_type"},
		),
		missionLetterTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "mission_letter",
				Name:      "analyses_total",
				Help:      "Mission letter analyses by approval.",
			},
			[]string{"service", "approved"},
		),
		breakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "provider",
				Name:      "breaker_open",
				Help:      "1 while the circuit breaker of an outbound operation is not closed.",
			},
			[]string{"service", "operation"},
		),
	}
	registerer.MustRegister(
		m.reportsTotal,
		m.reportScore,
		m.cardDecisionsTotal,
		m.ocrFallbackTotal,
		m.missionLetterTotal,
		m.breakerState,
	)
	return m
}

func (m *VerificationMetrics) ObserveReport(status domain.VerificationStatus, score int) {
	m.reportsTotal.WithLabelValues(m.service, string(status)).Inc()
	m.reportScore.WithLabelValues(m.service).Observe(float64(score))
}

func (m *VerificationMetrics) ObserveCardValidation(allowed bool) {
	decision := "blocked"
	if allowed {
		decision = "allowed"
	}
	m.cardDecisionsTotal.WithLabelValues(m.service, decision).Inc()
}

func (m *VerificationMetrics) ObserveOCRFallback(docType domain.DocumentType) {
	m.ocrFallbackTotal.WithLabelValues(m.service, string(docType)).Inc()
}

func (m *VerificationMetrics) ObserveMissionLetter(approved bool) {
	m.missionLetterTotal.WithLabelValues(m.service, strconv.FormatBool(approved)).Inc()
}

// ObserveBreakerState matches resilience.Config.OnStateChange.
func (m *VerificationMetrics) ObserveBreakerState(operation, _, to string) {
	value := 1.0
	if to == "closed" {
		value = 0
	}
	m.breakerState.WithLabelValues(m.service, operation).Set(value)
}
