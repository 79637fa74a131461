package theme

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// DefaultDarkClass is the marker class placed on the document root while the
// resolved theme is dark.
const DefaultDarkClass = "dark"

// Root is the document root the resolved theme is painted on.
type Root interface {
	SetClass(name string, present bool) error
	SetColorScheme(value string) error
}

// ApplyError reports that the resolved theme could not be painted.
type ApplyError struct {
	Resolved Resolved
	Err      error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("apply %s theme: %v", e.Resolved, e.Err)
}

func (e *ApplyError) Unwrap() error { return e.Err }

// Apply paints resolved on root: the marker class is present iff dark and
// the color-scheme hint names the resolved theme.
func Apply(root Root, darkClass string, resolved Resolved) error {
	if root == nil {
		return nil
	}
	if darkClass == "" {
		darkClass = DefaultDarkClass
	}
	if err := root.SetClass(darkClass, resolved == Dark); err != nil {
		return &ApplyError{Resolved: resolved, Err: err}
	}
	if err := root.SetColorScheme(string(resolved)); err != nil {
		return &ApplyError{Resolved: resolved, Err: err}
	}
	return nil
}

// DocumentRoot is an in-memory document root. The server renders it into the
// <html> element.
type DocumentRoot struct {
	mu          sync.Mutex
	classes     map[string]struct{}
	colorScheme string
}

// NewDocumentRoot creates an unthemed root carrying classes.
func NewDocumentRoot(classes ...string) *DocumentRoot {
	d := &DocumentRoot{classes: map[string]struct{}{}}
	for _, c := range classes {
		if c = strings.TrimSpace(c); c != "" {
			d.classes[c] = struct{}{}
		}
	}
	return d
}

// SetClass implements Root.
func (d *DocumentRoot) SetClass(name string, present bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.classes == nil {
		d.classes = map[string]struct{}{}
	}
	if present {
		d.classes[name] = struct{}{}
	} else {
		delete(d.classes, name)
	}
	return nil
}

// SetColorScheme implements Root.
func (d *DocumentRoot) SetColorScheme(value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.colorScheme = value
	return nil
}

// HasClass reports whether name is set.
func (d *DocumentRoot) HasClass(name string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.classes[name]
	return ok
}

// ClassName returns the sorted, space separated class list.
func (d *DocumentRoot) ClassName() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	names := make([]string, 0, len(d.classes))
	for c := range d.classes {
		names = append(names, c)
	}
	sort.Strings(names)
	return strings.Join(names, " ")
}

// ColorScheme returns the color-scheme hint, empty until themed.
func (d *DocumentRoot) ColorScheme() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.colorScheme
}
