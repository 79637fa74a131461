package content

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce coalesces the burst of events an editor save produces.
const reloadDebounce = 200 * time.Millisecond

// Library holds the current Site. Pages call Site on every render; Reload and
// Watch swap the snapshot atomically.
type Library struct {
	src    fs.FS
	dir    string
	logger *slog.Logger

	mu   sync.RWMutex
	site *Site
}

// NewLibrary loads src once. dir is the on-disk directory behind src, or
// empty for embedded content, which cannot be watched.
func NewLibrary(src fs.FS, dir string, logger *slog.Logger) (*Library, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	site, err := Load(src)
	if err != nil {
		return nil, err
	}
	return &Library{src: src, dir: dir, logger: logger.With("component", "content"), site: site}, nil
}

// OpenDir returns a library over dir, or over the embedded content when dir
// is empty.
func OpenDir(dir string, logger *slog.Logger) (*Library, error) {
	if dir == "" {
		return NewLibrary(Embedded(), "", logger)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("content directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("content directory: %s is not a directory", dir)
	}
	return NewLibrary(os.DirFS(dir), dir, logger)
}

// Site returns the current snapshot.
func (l *Library) Site() *Site {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.site
}

// Reload re-reads the source. On error the previous snapshot stays current.
func (l *Library) Reload() error {
	site, err := Load(l.src)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.site = site
	l.mu.Unlock()
	l.logger.Debug("content reloaded", "projects", len(site.Projects))
	return nil
}

// Watch reloads on changes under the content directory until ctx is done.
// fsnotify events trigger an immediate reload; polling every interval covers
// missed events and hosts without fsnotify. Embedded libraries return
// immediately.
func (l *Library) Watch(ctx context.Context, interval time.Duration) error {
	if l.dir == "" {
		return nil
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}

	var events <-chan fsnotify.Event
	var errs <-chan error
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		l.logger.Warn("fsnotify unavailable, polling content", "error", err, "interval", interval)
	} else {
		defer watcher.Close() //nolint:errcheck
		// Directories are watched so atomic rename-on-save keeps working.
		for _, d := range []string{l.dir, filepath.Join(l.dir, ProjectsDir)} {
			if err := watcher.Add(d); err != nil && !errors.Is(err, fs.ErrNotExist) {
				l.logger.Warn("content watch failed", "dir", d, "error", err)
			}
		}
		events, errs = watcher.Events, watcher.Errors
		l.logger.Info("watching content", "dir", l.dir)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var debounce *time.Timer
	var fire <-chan time.Time
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(reloadDebounce)
			} else {
				debounce.Reset(reloadDebounce)
			}
			fire = debounce.C
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			l.logger.Warn("content watcher error", "error", err)
		case <-fire:
			fire = nil
			l.reloadLogged()
		case <-ticker.C:
			l.reloadLogged()
		}
	}
}

func (l *Library) reloadLogged() {
	if err := l.Reload(); err != nil {
		l.logger.Warn("content reload failed, keeping previous content", "error", err)
	}
}
