package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"portfolio/internal/app"
	"portfolio/internal/config"
)

const (
	shutdownTimeout       = 10 * time.Second
	contentPollInterval   = 30 * time.Second
	serverReadHeaderLimit = 10 * time.Second
)

func newServeCmd() *cobra.Command {
	var (
		addr       string
		contentDir string
		dbPath     string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the portfolio web server",
		Long: "Serves the pages, the theme endpoint and the contact API. Configuration comes from the " +
			"environment (and --env-file); flags override it.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadFromEnv()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cmd.Flags().Changed("addr") {
				cfg.ListenAddr = addr
			}
			if cmd.Flags().Changed("content-dir") {
				cfg.ContentDir = contentDir
			}
			if cmd.Flags().Changed("db") {
				cfg.Contact.DBPath = dbPath
			}
			if cmd.Root().PersistentFlags().Changed("log-level") {
				cfg.LogLevel, _ = cmd.Root().PersistentFlags().GetString("log-level")
			}

			logger := cfg.NewLogger(os.Stderr)
			for _, w := range cfg.Warnings {
				logger.Warn(w)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ln, err := net.Listen("tcp", cfg.ListenAddr)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", cfg.ListenAddr, err)
			}
			return serve(ctx, cfg, logger, ln)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address (overrides LISTEN_ADDR)")
	cmd.Flags().StringVar(&contentDir, "content-dir", "", "Live content directory (overrides CONTENT_DIR)")
	cmd.Flags().StringVar(&dbPath, "db", "", "Contact outbox SQLite path (overrides CONTACT_DB_PATH)")
	return cmd
}

// serve runs the server on ln with the content watcher and the outbox
// retrier until ctx is done, then shuts everything down.
func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	a, err := app.New(gctx, app.Deps{Cfg: cfg, Logger: logger})
	if err != nil {
		_ = ln.Close()
		return err
	}
	defer a.Close() //nolint:errcheck

	srv := &http.Server{
		Handler:           a.Router,
		ReadHeaderTimeout: serverReadHeaderLimit,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	g.Go(func() error {
		logger.Info("portfolio listening", "addr", ln.Addr().String(), "env", cfg.Env)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return a.Library.Watch(gctx, contentPollInterval)
	})
	if a.Retrier != nil {
		g.Go(func() error {
			return a.Retrier.Run(gctx)
		})
	}

	return g.Wait()
}
