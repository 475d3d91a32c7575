package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	jobTotal          *prometheus.CounterVec
	jobDuration       *prometheus.HistogramVec
	jobInFlight       prometheus.Gauge
	sweepTotal        *prometheus.CounterVec
	expiringDocuments prometheus.Gauge

	verification *VerificationMetrics
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	jobTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "verification_jobs_total",
			Help:      "Total processed verification jobs by status.",
		},
		[]string{"service", "status"},
	)
	jobDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "verification_job_duration_seconds",
			Help:      "Verification job duration in seconds by status.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"service", "status"},
	)
	jobInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "verification_jobs_in_flight",
			Help:      "Number of in-flight verification jobs.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	sweepTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "expiration_sweeps_total",
			Help:      "Expiration sweeps by status.",
		},
		[]string{"service", "status"},
	)
	expiringDocuments := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "expiring_documents",
			Help:      "Documents expiring within the sweep window at the last sweep.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(jobTotal, jobDuration, jobInFlight, sweepTotal, expiringDocuments)

	return &WorkerMetrics{
		registry:          registry,
		jobTotal:          jobTotal,
		jobDuration:       jobDuration,
		jobInFlight:       jobInFlight,
		sweepTotal:        sweepTotal,
		expiringDocuments: expiringDocuments,
		verification:      NewVerificationMetrics(service, registry),
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) Verification() *VerificationMetrics {
	return m.verification
}

func (m *WorkerMetrics) StartJob() {
	m.jobInFlight.Inc()
}

func (m *WorkerMetrics) FinishJob(service string, duration time.Duration, err error) {
	m.jobInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.jobTotal.WithLabelValues(service, status).Inc()
	m.jobDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveSweep(service string, expiring int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	} else {
		m.expiringDocuments.Set(float64(expiring))
	}
	m.sweepTotal.WithLabelValues(service, status).Inc()
}
