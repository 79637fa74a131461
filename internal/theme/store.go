package theme

import (
	"errors"
	"log/slog"
	"sync"
)

// DefaultStorageKey is the persisted slot name shared by the server, the
// pre-paint snippet and the in-browser behavior script.
const DefaultStorageKey = "theme"

// ErrStorageUnavailable is returned by KV implementations that cannot reach
// their backing storage at all.
var ErrStorageUnavailable = errors.New("theme storage unavailable")

// KV is a persistent key-value slot. Implementations may fail on any call.
type KV interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

// Store wraps a KV with the preference semantics: reads and writes never
// fail outward, failures are logged and reads degrade to absent.
type Store struct {
	kv     KV
	key    string
	logger *slog.Logger
}

// NewStore creates a Store over kv. An empty key falls back to DefaultStorageKey.
func NewStore(kv KV, key string, logger *slog.Logger) *Store {
	if key == "" {
		key = DefaultStorageKey
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{kv: kv, key: key, logger: logger}
}

// Key returns the storage key.
func (s *Store) Key() string { return s.key }

// Read returns the persisted preference. A missing, unreadable or invalid
// value is reported as absent.
func (s *Store) Read() (Preference, bool) {
	if s == nil || s.kv == nil {
		return "", false
	}
	raw, ok, err := s.kv.Get(s.key)
	if err != nil {
		s.logger.Warn("theme preference read failed", "key", s.key, "error", err)
		return "", false
	}
	if !ok {
		return "", false
	}
	p, valid := ParsePreference(raw)
	if !valid {
		s.logger.Warn("ignoring invalid theme preference", "key", s.key, "value", raw)
		return "", false
	}
	return p, true
}

// Write persists p. Failures leave the in-memory state of the caller as the
// only record for the current session.
func (s *Store) Write(p Preference) {
	if s == nil || s.kv == nil {
		return
	}
	if err := s.kv.Set(s.key, string(p)); err != nil {
		s.logger.Warn("theme preference write failed", "key", s.key, "preference", p, "error", err)
	}
}

// MemoryKV is an in-process KV. The zero value is ready to use.
type MemoryKV struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryKV returns a MemoryKV seeded with values.
func NewMemoryKV(values map[string]string) *MemoryKV {
	kv := &MemoryKV{values: make(map[string]string, len(values))}
	for k, v := range values {
		kv.values[k] = v
	}
	return kv
}

// Get implements KV.
func (m *MemoryKV) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// Set implements KV.
func (m *MemoryKV) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		m.values = make(map[string]string)
	}
	m.values[key] = value
	return nil
}

var (
	sharedKVOnce sync.Once
	sharedKV     *MemoryKV
)

// SharedKV returns the process-wide slot used by every Controller created
// without an explicit KV. The stored value is never torn down.
func SharedKV() *MemoryKV {
	sharedKVOnce.Do(func() {
		sharedKV = NewMemoryKV(nil)
	})
	return sharedKV
}
