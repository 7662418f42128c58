// Package http exposes the read-only API over the crawled catalog.
package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pricepulse/wbradar/internal/repository"
	"github.com/pricepulse/wbradar/pkg/health"
	"github.com/pricepulse/wbradar/pkg/middleware"
)

const serviceName = "wbradar"

// NewRouter creates a chi router with all crawler API routes registered.
func NewRouter(
	categoryRepo repository.CategoryRepository,
	historyRepo repository.HistoryRepository,
	healthHandler *health.Handler,
	pprofCIDRs []string,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Tracing(serviceName))
	// RequestLogging seeds the correlation ID; RequestLogger builds the
	// request-scoped logger from it, so the order matters.
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())

	// Prometheus scrape endpoint
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Pprof debug endpoints, gated by IP allowlist
	middleware.RegisterPprof(r, pprofCIDRs, logger)

	// Category API endpoints
	categoryHandler := NewCategoryHandler(categoryRepo, logger)

	r.Route("/api/v1/categories", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Get("/", categoryHandler.ListCategories)
	})

	// History API endpoints
	historyHandler := NewHistoryHandler(historyRepo, logger)

	r.Route("/api/v1/history", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Get("/", historyHandler.ListHistory)
	})

	return r
}

// ContentTypeJSON sets the response content type for API routes.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
