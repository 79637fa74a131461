package ui

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"

	"portfolio/internal/ui/assets"
)

// MountRoutes registers the pages, the form endpoints and /static. limit
// wraps the form posts; pass nil for none.
func MountRoutes(r chi.Router, h *Handler, limit func(http.Handler) http.Handler) {
	if limit == nil {
		limit = func(next http.Handler) http.Handler { return next }
	}

	staticFS, err := fs.Sub(assets.StaticFS(), "static")
	if err == nil {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	}

	r.Group(func(r chi.Router) {
		r.Use(h.ClientHints)
		r.Use(h.EnsureCSRFToken)
		r.Use(h.RequireCSRF)
		r.Get("/", h.Home)
		r.Get("/projects", h.Projects)
		r.Get("/projects/{slug}", h.ProjectDetail)
		r.Get("/contact", h.ContactPage)
		r.With(limit).Post("/contact", h.ContactSubmit)
		r.With(limit).Post("/theme", h.ThemeSubmit)
	})

	r.NotFound(h.NotFound)
}
