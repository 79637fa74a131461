// Package ui renders the portfolio pages with gomponents and serves the
// form endpoints behind them.
package ui

import (
	"log/slog"
	"net/http"

	"portfolio/internal/config"
	"portfolio/internal/contact"
	"portfolio/internal/content"

	gomponents "maragu.dev/gomponents"
)

// Handler serves every page. Content is read from Library on each request.
type Handler struct {
	Library    *content.Library
	Relay      *contact.Relay
	Theme      config.ThemeConfig
	Production bool
	// BaseURL is the public origin for canonical links. Empty omits them.
	BaseURL string
	Logger  *slog.Logger
}

// NewHandler wires the page handlers.
func NewHandler(library *content.Library, relay *contact.Relay, themeCfg config.ThemeConfig, production bool, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		Library:    library,
		Relay:      relay,
		Theme:      themeCfg,
		Production: production,
		Logger:     logger.With("component", "ui"),
	}
}

func renderHTML(w http.ResponseWriter, status int, node gomponents.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = node.Render(w)
}
