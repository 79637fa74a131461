package app

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"portfolio/internal/config"
	"portfolio/internal/contact"
	"portfolio/internal/content"
	"portfolio/internal/middleware"
	"portfolio/internal/ui"
)

// NewRouter builds the HTTP handler: the pages, the JSON contact API and a
// health check. Form posts and the contact API share one rate limiter.
func NewRouter(ctx context.Context, cfg *config.Config, logger *slog.Logger, lib *content.Library, relay *contact.Relay) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)

	limit := middleware.RateLimiter(ctx, middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
		TrustForwardedFor: cfg.TrustForwardedFor,
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			AllowedMethods: []string{http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID", "Retry-After"},
			MaxAge:         300,
		}))
		r.With(limit).Method(http.MethodPost, "/contact", contact.NewHandler(relay, logger))
	})

	pages := ui.NewHandler(lib, relay, cfg.Theme, cfg.IsProduction(), logger)
	pages.BaseURL = cfg.BaseURL
	ui.MountRoutes(r, pages, limit)
	return r
}
