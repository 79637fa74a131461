package theme

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrNoDetector is returned by HostIntegration.Probe when the host offers no
// way to read its color scheme.
var ErrNoDetector = errors.New("no color-scheme detector available")

// Backend supplies persistence and signal observation to a Controller.
type Backend interface {
	Name() string
	Load() (Preference, bool)
	Save(p Preference)
	Watcher
}

// Integration is a host theming provider a Controller may delegate to.
// Probe reports whether the provider is usable in the current environment.
type Integration interface {
	Probe() error
	Load() (Preference, bool, error)
	Save(p Preference) error
	Watcher
}

type selfContainedBackend struct {
	store   *Store
	watcher Watcher
}

func (selfContainedBackend) Name() string { return "self-contained" }

func (b selfContainedBackend) Load() (Preference, bool) { return b.store.Read() }

func (b selfContainedBackend) Save(p Preference) { b.store.Write(p) }

func (b selfContainedBackend) Current() Resolved { return b.watcher.Current() }

func (b selfContainedBackend) Subscribe(fn func(Resolved)) func() {
	return b.watcher.Subscribe(fn)
}

type primaryBackend struct {
	integration Integration
	logger      *slog.Logger
}

func (primaryBackend) Name() string { return "primary" }

func (b primaryBackend) Load() (Preference, bool) {
	p, ok, err := b.integration.Load()
	if err != nil {
		b.logger.Warn("theme integration load failed", "error", err)
		return "", false
	}
	if !ok || !p.Valid() {
		return "", false
	}
	return p, true
}

func (b primaryBackend) Save(p Preference) {
	if err := b.integration.Save(p); err != nil {
		b.logger.Warn("theme integration save failed", "preference", p, "error", err)
	}
}

func (b primaryBackend) Current() Resolved { return b.integration.Current() }

func (b primaryBackend) Subscribe(fn func(Resolved)) func() {
	return b.integration.Subscribe(fn)
}

// selectBackend probes integration once. Any probe failure, panics included,
// falls back to the self-contained backend.
func selectBackend(integration Integration, store *Store, watcher Watcher, logger *slog.Logger) Backend {
	fallback := selfContainedBackend{store: store, watcher: watcher}
	if integration == nil {
		return fallback
	}
	if err := probe(integration); err != nil {
		logger.Warn("theme integration unavailable, using self-contained backend", "error", err)
		return fallback
	}
	return primaryBackend{integration: integration, logger: logger}
}

func probe(integration Integration) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("probe panicked: %v", r)
		}
	}()
	return integration.Probe()
}

// HostIntegration is the desktop theming provider: preference in a Store,
// signal from the host detector chain.
type HostIntegration struct {
	chain  *DetectorChain
	store  *Store
	source *SignalSource
}

// NewHostIntegration samples chain once to seed the signal. A nil chain
// seeds Light and fails Probe.
func NewHostIntegration(chain *DetectorChain, store *Store) *HostIntegration {
	initial, _, _ := chain.Detect()
	return &HostIntegration{chain: chain, store: store, source: NewSignalSource(initial)}
}

// Probe implements Integration.
func (h *HostIntegration) Probe() error {
	if h.chain == nil || !h.chain.Available() {
		return ErrNoDetector
	}
	return nil
}

// Load implements Integration.
func (h *HostIntegration) Load() (Preference, bool, error) {
	p, ok := h.store.Read()
	return p, ok, nil
}

// Save implements Integration.
func (h *HostIntegration) Save(p Preference) error {
	h.store.Write(p)
	return nil
}

// Current implements Watcher.
func (h *HostIntegration) Current() Resolved { return h.source.Current() }

// Subscribe implements Watcher.
func (h *HostIntegration) Subscribe(fn func(Resolved)) func() { return h.source.Subscribe(fn) }

// Poll keeps the signal fresh until ctx is done.
func (h *HostIntegration) Poll(ctx context.Context, interval time.Duration) {
	PollDetectors(ctx, h.chain, h.source, interval)
}
