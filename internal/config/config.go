// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"portfolio/internal/theme"
)

// ThemeConfig holds the theme synchronization settings shared by the server
// controller and the browser scripts.
type ThemeConfig struct {
	StorageKey    string           // persisted slot name (default "theme")
	Default       theme.Preference // preference used when nothing is stored (default system)
	DarkClass     string           // marker class on <html> while dark (default "dark")
	Storage       string           // "cookie" (default) or "local"
	AnnounceDelay time.Duration    // how long toggle announcements stay (default 2s)
	SSRHint       bool             // pre-render the root class from the client hint (default true)
}

// Injector returns the script configuration for these settings.
func (t ThemeConfig) Injector() theme.InjectorConfig {
	return theme.InjectorConfig{
		Key:           t.StorageKey,
		DarkClass:     t.DarkClass,
		Storage:       t.Storage,
		Default:       t.Default,
		AnnounceDelay: t.AnnounceDelay,
	}
}

// ContactConfig holds the contact relay settings.
type ContactConfig struct {
	ResendAPIKey  string // Resend API key; the relay reports "service not configured" without it
	ResendAPIURL  string // Resend endpoint (default https://api.resend.com/emails)
	ToEmail       string // recipient of forwarded messages
	FromEmail     string // sender address on forwarded messages
	DBPath        string // SQLite outbox path (optional; empty disables the outbox)
	RetrySchedule string // cron spec for outbox redelivery (default "@every 10m")
}

// Configured reports whether the relay can deliver at all.
func (c *ContactConfig) Configured() bool {
	return c.ResendAPIKey != "" && c.ToEmail != ""
}

// Config holds the configuration for the portfolio server.
type Config struct {
	ListenAddr string // HTTP listen address (default ":8080")
	LogLevel   string // log level: debug, info, warn, error (default "info")
	Env        string // environment: "development" (default) or "production"
	BaseURL    string // public origin used in links (optional)
	ContentDir string // live content directory; empty uses the embedded content

	// Rate limiting
	RateLimitRPS   float64 // sustained requests per second (default 5)
	RateLimitBurst int     // burst capacity (default 10)
	// TrustForwardedFor keys rate limits by X-Forwarded-For. Enable only
	// behind a proxy that sets it.
	TrustForwardedFor bool

	// CORS
	CORSAllowedOrigins []string // allowed origins for /api/contact (default: ["*"])

	Theme   ThemeConfig
	Contact ContactConfig

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when the server is running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// NewLogger builds the process logger: JSON in production, text otherwise.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if c.IsProduction() {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		ListenAddr: os.Getenv("LISTEN_ADDR"),
		LogLevel:   os.Getenv("LOG_LEVEL"),
		Env:        os.Getenv("ENV"),
		BaseURL:    strings.TrimRight(os.Getenv("BASE_URL"), "/"),
		ContentDir: os.Getenv("CONTENT_DIR"),

		TrustForwardedFor: parseBoolEnvDefault("TRUST_FORWARDED_FOR", false),
		Theme: ThemeConfig{
			StorageKey: os.Getenv("THEME_STORAGE_KEY"),
			DarkClass:  os.Getenv("THEME_DARK_CLASS"),
			Storage:    strings.ToLower(os.Getenv("THEME_STORAGE")),
			SSRHint:    parseBoolEnvDefault("THEME_SSR_HINT", true),
		},
		Contact: ContactConfig{
			ResendAPIKey:  os.Getenv("RESEND_API_KEY"),
			ResendAPIURL:  os.Getenv("RESEND_API_URL"),
			ToEmail:       os.Getenv("CONTACT_TO_EMAIL"),
			FromEmail:     os.Getenv("CONTACT_FROM_EMAIL"),
			DBPath:        os.Getenv("CONTACT_DB_PATH"),
			RetrySchedule: os.Getenv("CONTACT_RETRY_SCHEDULE"),
		},
	}

	// Rate limiting
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimitRPS = f
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitBurst = n
		}
	}

	// CORS
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.CORSAllowedOrigins = compactNonEmpty(origins)
	}

	// Theme
	if v := os.Getenv("THEME_DEFAULT"); v != "" {
		p, ok := theme.ParsePreference(strings.ToLower(strings.TrimSpace(v)))
		if !ok {
			return nil, fmt.Errorf("THEME_DEFAULT must be light, dark or system, got %q", v)
		}
		cfg.Theme.Default = p
	}
	if v := os.Getenv("THEME_ANNOUNCE_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("THEME_ANNOUNCE_DELAY must be a positive duration, got %q", v)
		}
		cfg.Theme.AnnounceDelay = d
	}
	switch cfg.Theme.Storage {
	case "", theme.StorageCookie:
		cfg.Theme.Storage = theme.StorageCookie
	case theme.StorageLocal:
		if cfg.Theme.SSRHint {
			cfg.Warnings = append(cfg.Warnings, "THEME_STORAGE=local hides the preference from the server; pages render unthemed until the pre-paint snippet runs")
		}
	default:
		return nil, fmt.Errorf("THEME_STORAGE must be cookie or local, got %q", cfg.Theme.Storage)
	}

	// Defaults
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 5
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 10
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}
	if cfg.Theme.StorageKey == "" {
		cfg.Theme.StorageKey = theme.DefaultStorageKey
	}
	if cfg.Theme.Default == "" {
		cfg.Theme.Default = theme.PreferenceSystem
	}
	if cfg.Theme.DarkClass == "" {
		cfg.Theme.DarkClass = theme.DefaultDarkClass
	}
	if cfg.Theme.AnnounceDelay == 0 {
		cfg.Theme.AnnounceDelay = theme.DefaultAnnounceDelay
	}
	if cfg.Contact.ResendAPIURL == "" {
		cfg.Contact.ResendAPIURL = "https://api.resend.com/emails"
	}
	if cfg.Contact.FromEmail == "" {
		cfg.Contact.FromEmail = "Portfolio Contact <onboarding@resend.dev>"
	}
	if cfg.Contact.RetrySchedule == "" {
		cfg.Contact.RetrySchedule = "@every 10m"
	}
	if !cfg.Contact.Configured() {
		cfg.Warnings = append(cfg.Warnings, "RESEND_API_KEY or CONTACT_TO_EMAIL not set; the contact form will answer \"service not configured\"")
	}

	// Production mode: insecure defaults are fatal errors.
	if cfg.IsProduction() {
		if len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*" {
			return nil, fmt.Errorf("CORS wildcard (*) is not allowed in production (ENV=production)")
		}
	}

	return cfg, nil
}

func parseBoolEnvDefault(key string, defaultVal bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if v == "" {
		return defaultVal
	}
	if v == "0" || v == "false" || v == "no" || v == "off" {
		return false
	}
	if v == "1" || v == "true" || v == "yes" || v == "on" {
		return true
	}
	return defaultVal
}

func compactNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = stripQuotes(strings.TrimSpace(value))
		// Environment variables take precedence.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
