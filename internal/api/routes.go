package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tickerpulse/config"
)

// NewRouter creates and configures a Chi router with all routes.
func NewRouter(h *Handler, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(TraceIDMiddleware)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(CORSMiddleware(cfg.HTTP.CORSAllowedOrigins))
	r.Use(MetricsMiddleware)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws", h.HandleVisualizeStream)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/news-pipeline", func(r chi.Router) {
			r.Post("/visualize", h.HandleVisualizePipeline)
			r.Get("/health", h.HandleNewsPipelineHealth)
		})

		r.Route("/levels", func(r chi.Router) {
			r.Get("/health", h.HandleLevelsHealth)
			r.Post("/detect", h.HandleDetectLevels)
			r.Post("/batch", h.HandleBatchDetectLevels)
			r.Get("/{symbol}", h.HandleGetLevels)
			r.Get("/{symbol}/nearest", h.HandleNearestLevels)
		})

		r.Get("/circuit-breakers", h.HandleCircuitBreakerStatus)
	})

	return r
}

// CORSMiddleware returns CORS middleware with the specified allowed origins.
func CORSMiddleware(allowedOrigins string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
