package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kirillkom/mover-verification/internal/core/domain"
)

func TestNormalizePathCollapsesMoverID(t *testing.T) {
	cases := map[string]string{
		"/v1/movers/3f2a/verification":   "/v1/movers/{moverID}/verification",
		"/v1/movers/3f2a/reports/export": "/v1/movers/{moverID}/reports/export",
		"/v1/cards/validate":             "/v1/cards/validate",
		"/healthz":                       "/healthz",
	}
	for in, want := range cases {
		if got := normalizePath(in); got != want {
			t.Fatalf("normalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestVerificationMetricsCounters(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	v := m.Verification()

	v.ObserveReport(domain.StatusVerified, 95)
	v.ObserveReport(domain.StatusRejected, 20)
	v.ObserveCardValidation(false)
	v.ObserveOCRFallback(domain.DocumentKBIS)
	v.ObserveMissionLetter(true)
	v.ObserveBreakerState("extract_document", "closed", "open")

	if got := testutil.ToFloat64(v.reportsTotal.WithLabelValues("api", "verified")); got != 1 {
		t.Fatalf("verified reports = %v", got)
	}
	if got := testutil.ToFloat64(v.cardDecisionsTotal.WithLabelValues("api", "blocked")); got != 1 {
		t.Fatalf("blocked cards = %v", got)
	}
	if got := testutil.ToFloat64(v.breakerState.WithLabelValues("api", "extract_document")); got != 1 {
		t.Fatalf("breaker gauge = %v", got)
	}
	v.ObserveBreakerState("extract_document", "half-open", "closed")
	if got := testutil.ToFloat64(v.breakerState.WithLabelValues("api", "extract_document")); got != 0 {
		t.Fatalf("breaker gauge after close = %v", got)
	}
}

func TestHTTPMiddlewareExposesRequests(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	handler := m.Middleware("api", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/movers/m-1/verification", nil))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	if !strings.Contains(body, `mvs_http_requests_total{method="POST",path="/v1/movers/{moverID}/verification",service="api",status="202"} 1`) {
		t.Fatalf("missing request sample in:\n%s", body)
	}
}

func TestWorkerMetricsJobsAndSweeps(t *testing.T) {
	m := NewWorkerMetrics("worker")
	m.StartJob()
	m.FinishJob("worker", 2*time.Second, errors.New("boom"))
	m.ObserveSweep("worker", 7, nil)

	if got := testutil.ToFloat64(m.jobTotal.WithLabelValues("worker", "error")); got != 1 {
		t.Fatalf("error jobs = %v", got)
	}
	if got := testutil.ToFloat64(m.jobInFlight); got != 0 {
		t.Fatalf("in flight = %v", got)
	}
	if got := testutil.ToFloat64(m.expiringDocuments); got != 7 {
		t.Fatalf("expiring documents = %v", got)
	}
}
