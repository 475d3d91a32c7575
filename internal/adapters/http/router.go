package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/kirillkom/mover-verification/internal/config"
	"github.com/kirillkom/mover-verification/internal/core/ports"
	"github.com/kirillkom/mover-verification/internal/observability/metrics"
)

const (
	serviceName         = "mover-api"
	backpressureWait    = 250 * time.Millisecond
	maxMultipartMemory  = 10 << 20
	defaultReportsLimit = 20
)

// Services groups the inbound use cases served over HTTP.
type Services struct {
	Cards     ports.CardValidator
	Documents ports.DocumentVerifier
	Movers    ports.MoverVerifier
	Letters   ports.MissionLetterAnalyzer
	Sweeper   ports.ExpirationSweeper
}

type Router struct {
	services Services
	metrics  *metrics.HTTPServerMetrics

	rateLimitRPS   float64
	rateLimitBurst int
	maxInFlight    int
	allowedOrigins []string
}

func NewRouter(cfg config.Config, services Services, httpMetrics *metrics.HTTPServerMetrics) *Router {
	return &Router{
		services:       services,
		metrics:        httpMetrics,
		rateLimitRPS:   cfg.APIRateLimitRPS,
		rateLimitBurst: cfg.APIRateLimitBurst,
		maxInFlight:    cfg.APIMaxInFlight,
		allowedOrigins: splitOrigins(cfg.CORSAllowedOrigin),
	}
}

func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(accessLogMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: rt.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader, "Content-Disposition"},
		MaxAge:         300,
	}))
	if rt.metrics != nil {
		r.Use(func(next http.Handler) http.Handler {
			return rt.metrics.Middleware(serviceName, next)
		})
		r.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	}

	r.Get("/healthz", rt.healthz)

	r.Route("/v1", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return rateLimitMiddleware(next, rt.rateLimitRPS, rt.rateLimitBurst, rt.recordRejected)
		})
		r.Use(func(next http.Handler) http.Handler {
			return backpressureMiddleware(next, rt.maxInFlight, backpressureWait, rt.recordRejected)
		})

		r.Post("/cards/validate", rt.validateCard)
		r.Post("/documents/verify", rt.verifyDocument)

		r.Route("/movers/{moverID}", func(r chi.Router) {
			r.Post("/verification", rt.verifyMover)
			r.Get("/verification", rt.latestReport)
			r.Get("/reports", rt.listReports)
			r.Get("/reports/export", rt.exportReports)
		})

		r.Post("/mission-letters/analyze", rt.analyzeMissionLetter)
		r.Post("/mission-letters/analyze-file", rt.analyzeMissionLetterFile)
		r.Post("/expirations/sweep", rt.runExpirationSweep)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found", RequestID: requestIDFromContext(r.Context())})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed", RequestID: requestIDFromContext(r.Context())})
	})
	return r
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) recordRejected(reason string) {
	if rt.metrics != nil {
		rt.metrics.RecordRejected(serviceName, reason)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func splitOrigins(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
