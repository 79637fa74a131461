// Package theme keeps the light/dark/system theme of the site in sync across
// the persisted user preference, the OS color-scheme signal, and the document
// root that the pre-paint snippet already themed before first paint.
package theme

import "strings"

// Preference is the user's stored intent.
type Preference string

const (
	PreferenceLight  Preference = "light"
	PreferenceDark   Preference = "dark"
	PreferenceSystem Preference = "system"
)

// Preferences lists every valid preference in toggle order.
var Preferences = []Preference{PreferenceLight, PreferenceDark, PreferenceSystem}

// Resolved is the concrete binary theme that is actually painted. The OS
// color-scheme signal uses the same two values.
type Resolved string

const (
	Light Resolved = "light"
	Dark  Resolved = "dark"
)

// Signals lists both values the OS color-scheme signal can take.
var Signals = []Resolved{Light, Dark}

// ParsePreference validates a raw stored value. Anything outside the
// three-value enumeration is rejected so callers can treat it as absent.
func ParsePreference(raw string) (Preference, bool) {
	switch p := Preference(raw); p {
	case PreferenceLight, PreferenceDark, PreferenceSystem:
		return p, true
	default:
		return "", false
	}
}

// ParseResolved validates a raw light/dark value.
func ParseResolved(raw string) (Resolved, bool) {
	switch r := Resolved(strings.ToLower(strings.TrimSpace(raw))); r {
	case Light, Dark:
		return r, true
	default:
		return "", false
	}
}

// Valid reports whether p is one of the three known preferences.
func (p Preference) Valid() bool {
	_, ok := ParsePreference(string(p))
	return ok
}

func (p Preference) String() string { return string(p) }

func (r Resolved) String() string { return string(r) }

// Resolve collapses a preference to the painted theme. system follows the
// signal; light and dark map to themselves.
func Resolve(p Preference, signal Resolved) Resolved {
	switch p {
	case PreferenceDark:
		return Dark
	case PreferenceLight:
		return Light
	default:
		return signal
	}
}

// Next returns the preference that follows p in the toggle cycle
// light -> dark -> system -> light.
func Next(p Preference) Preference {
	switch p {
	case PreferenceLight:
		return PreferenceDark
	case PreferenceDark:
		return PreferenceSystem
	default:
		return PreferenceLight
	}
}

// State is the snapshot a Controller exposes to the UI tree.
type State struct {
	Preference Preference `json:"preference"`
	Resolved   Resolved   `json:"resolved"`
	Signal     Resolved   `json:"system"`
	Mounted    bool       `json:"mounted"`
}
