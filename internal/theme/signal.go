package theme

import (
	"net/http"
	"strings"
	"sync"
)

// ClientHintHeader carries the browser's prefers-color-scheme value when the
// server has asked for it with Accept-CH.
const ClientHintHeader = "Sec-CH-Prefers-Color-Scheme"

// Watcher observes the OS-level color-scheme preference.
type Watcher interface {
	// Current is a synchronous best-effort read. Light when no signal exists.
	Current() Resolved
	// Subscribe registers onChange and returns the function that removes it.
	Subscribe(onChange func(Resolved)) (unsubscribe func())
}

// NoSignal is the Watcher for contexts without any color-scheme signal.
type NoSignal struct{}

// Current implements Watcher.
func (NoSignal) Current() Resolved { return Light }

// Subscribe implements Watcher. The returned function does nothing.
func (NoSignal) Subscribe(func(Resolved)) func() { return func() {} }

// staticSignal reports a value that cannot change for its lifetime.
type staticSignal Resolved

func (s staticSignal) Current() Resolved             { return Resolved(s) }
func (staticSignal) Subscribe(func(Resolved)) func() { return func() {} }

// ClientHint returns a Watcher for the color-scheme client hint of r. A
// missing or unknown hint behaves like NoSignal.
func ClientHint(r *http.Request) Watcher {
	if r == nil {
		return NoSignal{}
	}
	raw := strings.Trim(r.Header.Get(ClientHintHeader), `" `)
	if s, ok := ParseResolved(raw); ok {
		return staticSignal(s)
	}
	return NoSignal{}
}

// HasClientHint reports whether r carries a usable color-scheme hint.
func HasClientHint(r *http.Request) bool {
	_, ok := ClientHint(r).(staticSignal)
	return ok
}

type signalListener struct {
	fn func(Resolved)
}

// SignalSource is a settable Watcher. Hosts push OS changes into it with Set.
type SignalSource struct {
	mu        sync.Mutex
	current   Resolved
	listeners []*signalListener
}

// NewSignalSource creates a source holding initial.
func NewSignalSource(initial Resolved) *SignalSource {
	if _, ok := ParseResolved(string(initial)); !ok {
		initial = Light
	}
	return &SignalSource{current: initial}
}

// Current implements Watcher.
func (s *SignalSource) Current() Resolved {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Set updates the signal and notifies listeners when the value changed.
func (s *SignalSource) Set(v Resolved) {
	s.mu.Lock()
	if v == s.current {
		s.mu.Unlock()
		return
	}
	s.current = v
	listeners := make([]*signalListener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, l := range listeners {
		l.fn(v)
	}
}

// Subscribe implements Watcher. Calling the returned function more than once
// is harmless.
func (s *SignalSource) Subscribe(onChange func(Resolved)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := &signalListener{fn: onChange}
	s.listeners = append(s.listeners, l)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, cur := range s.listeners {
			if cur == l {
				s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// Listeners returns the number of active subscriptions.
func (s *SignalSource) Listeners() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}
