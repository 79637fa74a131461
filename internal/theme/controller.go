package theme

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	// ErrInvalidPreference is returned for values outside light/dark/system.
	ErrInvalidPreference = errors.New("invalid theme preference")
	// ErrClosed is returned by mutators called after Close.
	ErrClosed = errors.New("theme controller closed")
)

// Options configures a Controller. Zero values pick the self-contained
// defaults: the process-wide KV, no system signal, inline scheduling.
type Options struct {
	// Integration is the optional host theming provider. It is probed once
	// in NewController.
	Integration Integration
	Store       *Store
	Watcher     Watcher
	Root        Root
	Scheduler   Scheduler
	DarkClass   string
	// Default is exposed before mount and used when nothing is stored.
	Default Preference
	Logger  *slog.Logger
}

type stateListener struct {
	fn func(State)
}

// Controller owns the preference and resolved theme. It stays unmounted,
// exposing only the default, until Start has run its deferred init.
type Controller struct {
	backend   Backend
	root      Root
	sched     Scheduler
	darkClass string
	def       Preference
	logger    *slog.Logger

	mu          sync.Mutex
	state       State
	started     bool
	closed      bool
	chosen      bool // preference set in this session before mount
	unsubscribe func()
	listeners   []*stateListener
}

// NewController selects a backend and returns an unmounted controller.
func NewController(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With("component", "theme")

	store := opts.Store
	if store == nil {
		store = NewStore(SharedKV(), DefaultStorageKey, logger)
	}
	watcher := opts.Watcher
	if watcher == nil {
		watcher = NoSignal{}
	}
	sched := opts.Scheduler
	if sched == nil {
		sched = Inline{}
	}
	def := opts.Default
	if !def.Valid() {
		def = PreferenceSystem
	}
	darkClass := opts.DarkClass
	if darkClass == "" {
		darkClass = DefaultDarkClass
	}

	backend := selectBackend(opts.Integration, store, watcher, logger)
	logger.Debug("theme controller created", "backend", backend.Name(), "default", def)

	return &Controller{
		backend:   backend,
		root:      opts.Root,
		sched:     sched,
		darkClass: darkClass,
		def:       def,
		logger:    logger,
		state: State{
			Preference: def,
			Signal:     Light,
			Resolved:   Resolve(def, Light),
		},
	}
}

// Backend names the backend chosen at construction.
func (c *Controller) Backend() string { return c.backend.Name() }

// State returns the current snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start schedules initialization. It is meant to be called once the first
// render is on screen; repeated calls are ignored.
func (c *Controller) Start() {
	c.mu.Lock()
	if c.started || c.closed {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	c.sched.Post(c.mount)
}

func (c *Controller) mount() {
	c.mu.Lock()
	if c.closed || c.state.Mounted {
		c.mu.Unlock()
		return
	}

	var pref Preference
	if c.chosen {
		pref = c.state.Preference
		c.backend.Save(pref)
	} else {
		var ok bool
		if pref, ok = c.backend.Load(); !ok {
			pref = c.def
		}
	}
	signal := c.backend.Current()
	resolved := Resolve(pref, signal)

	c.unsubscribe = c.backend.Subscribe(c.onSignal)
	if err := Apply(c.root, c.darkClass, resolved); err != nil {
		c.logger.Warn("initial theme apply failed", "error", err)
	}
	c.state = State{Preference: pref, Resolved: resolved, Signal: signal, Mounted: true}
	c.logger.Debug("theme mounted", "preference", pref, "resolved", resolved, "system", signal)

	c.notifyLocked()
}

// onSignal may be called from any goroutine; handling is serialized through
// the scheduler.
func (c *Controller) onSignal(signal Resolved) {
	c.sched.Post(func() { c.handleSignal(signal) })
}

func (c *Controller) handleSignal(signal Resolved) {
	c.mu.Lock()
	if c.closed || !c.state.Mounted || c.state.Signal == signal {
		c.mu.Unlock()
		return
	}
	c.state.Signal = signal
	if c.state.Preference == PreferenceSystem {
		if err := Apply(c.root, c.darkClass, signal); err != nil {
			c.logger.Warn("system theme apply failed", "error", err)
		}
		c.state.Resolved = signal
	}
	c.notifyLocked()
}

// SetPreference paints and stores p. Storage failures are logged and never
// returned; the only errors are an invalid p, a closed controller, or an
// *ApplyError, in which case the state is left unchanged. Before mount the
// choice is held in memory and wins over the stored value at mount.
func (c *Controller) SetPreference(p Preference) error {
	_, err := c.update(func(Preference) Preference { return p })
	return err
}

// Toggle advances the preference along light -> dark -> system -> light.
func (c *Controller) Toggle() (Preference, error) {
	return c.update(Next)
}

func (c *Controller) update(next func(Preference) Preference) (Preference, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return "", ErrClosed
	}
	p := next(c.state.Preference)
	if !p.Valid() {
		c.mu.Unlock()
		return "", fmt.Errorf("%w: %q", ErrInvalidPreference, p)
	}

	resolved := Resolve(p, c.state.Signal)
	if err := Apply(c.root, c.darkClass, resolved); err != nil {
		c.mu.Unlock()
		return "", err
	}
	if c.state.Mounted {
		c.backend.Save(p)
	} else {
		c.chosen = true
	}

	c.state.Preference = p
	c.state.Resolved = resolved
	c.logger.Debug("theme preference set", "preference", p, "resolved", resolved)

	c.notifyLocked()
	return p, nil
}

// Subscribe registers fn for state changes and returns its remover.
func (c *Controller) Subscribe(fn func(State)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	l := &stateListener{fn: fn}
	c.listeners = append(c.listeners, l)

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, cur := range c.listeners {
			if cur == l {
				c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
				return
			}
		}
	}
}

// Close releases the system-signal subscription. The stored preference is
// left in place.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.listeners = nil
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// notifyLocked snapshots state and listeners, releases c.mu, then calls them.
func (c *Controller) notifyLocked() {
	state := c.state
	listeners := make([]*stateListener, len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()

	for _, l := range listeners {
		l.fn(state)
	}
}
