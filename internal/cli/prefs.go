package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// prefsDocument is the on-disk shape of the preferences file.
type prefsDocument struct {
	Values map[string]string `yaml:"values"`
}

// FileKV is a theme.KV kept in a small YAML file, so desktop commands share
// one preference across invocations.
type FileKV struct {
	path string
	mu   sync.Mutex
}

// NewFileKV returns a KV over path. The file is created on first Set.
func NewFileKV(path string) *FileKV {
	return &FileKV{path: path}
}

// DefaultPrefsPath returns the preferences file under the user config
// directory, or an empty string when there is none.
func DefaultPrefsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "portfolio", "prefs.yaml")
}

// Get implements theme.KV.
func (f *FileKV) Get(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return "", false, err
	}
	v, ok := doc.Values[key]
	return v, ok, nil
}

// Set implements theme.KV.
func (f *FileKV) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return err
	}
	doc.Values[key] = value

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}
	return os.WriteFile(f.path, data, 0o600)
}

func (f *FileKV) load() (*prefsDocument, error) {
	if f.path == "" {
		return nil, errors.New("no preferences file")
	}
	doc := &prefsDocument{}
	data, err := os.ReadFile(f.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read prefs: %w", err)
	default:
		if err := yaml.Unmarshal(data, doc); err != nil {
			return nil, fmt.Errorf("parse prefs: %w", err)
		}
	}
	if doc.Values == nil {
		doc.Values = map[string]string{}
	}
	return doc, nil
}
