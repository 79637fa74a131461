// Package app wires the portfolio server from its configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"portfolio/internal/config"
	"portfolio/internal/contact"
	"portfolio/internal/content"
	"portfolio/internal/db"
)

// Deps holds what the caller provides. HTTPClient is optional and only used
// for outgoing mail.
type Deps struct {
	Cfg        *config.Config
	Logger     *slog.Logger
	HTTPClient *http.Client
}

// App is the fully wired server. Pool and Retrier are nil when the contact
// outbox is disabled.
type App struct {
	Library *content.Library
	Relay   *contact.Relay
	Pool    *db.Pool
	Retrier *contact.Retrier
	Router  http.Handler
}

// New loads content, opens the optional outbox and builds the router. ctx
// bounds background work started for the router, such as limiter cleanup.
func New(ctx context.Context, deps Deps) (*App, error) {
	cfg := deps.Cfg
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	lib, err := content.OpenDir(cfg.ContentDir, logger)
	if err != nil {
		return nil, fmt.Errorf("load content: %w", err)
	}

	a := &App{Library: lib}

	var outbox *contact.Outbox
	if cfg.Contact.DBPath != "" {
		a.Pool, err = db.Open(ctx, cfg.Contact.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open contact outbox: %w", err)
		}
		outbox = contact.NewOutbox(a.Pool)
	}

	var sender contact.Sender
	if cfg.Contact.ResendAPIKey != "" {
		sender = contact.NewResendSender(cfg.Contact.ResendAPIKey, cfg.Contact.ResendAPIURL, deps.HTTPClient)
	}
	a.Relay = contact.NewRelay(sender, contact.Config{To: cfg.Contact.ToEmail, From: cfg.Contact.FromEmail}, outbox, logger)
	if outbox != nil {
		a.Retrier = contact.NewRetrier(a.Relay, cfg.Contact.RetrySchedule, logger)
	}

	a.Router = NewRouter(ctx, cfg, logger, lib, a.Relay)
	return a, nil
}

// Close releases the outbox database.
func (a *App) Close() error {
	if a.Pool == nil {
		return nil
	}
	return a.Pool.Close()
}
