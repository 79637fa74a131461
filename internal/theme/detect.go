package theme

import (
	"context"
	"os"
	"os/exec"
	"runtime"
	"sort"
	"strings"
	"time"
)

// Detector reads the OS color-scheme preference on a desktop host.
type Detector interface {
	Name() string
	// Priority orders detectors; higher values are consulted first.
	Priority() int
	Available() bool
	// Detect returns the signal and whether detection succeeded.
	Detect() (Resolved, bool)
}

// EnvDetector reads GTK_THEME. A theme name containing "dark" means dark.
type EnvDetector struct {
	Getenv func(string) string
}

func (EnvDetector) Name() string  { return "GTK_THEME" }
func (EnvDetector) Priority() int { return 20 }

func (d EnvDetector) getenv(key string) string {
	if d.Getenv != nil {
		return d.Getenv(key)
	}
	return os.Getenv(key)
}

func (d EnvDetector) Available() bool { return d.getenv("GTK_THEME") != "" }

func (d EnvDetector) Detect() (Resolved, bool) {
	v := d.getenv("GTK_THEME")
	if v == "" {
		return "", false
	}
	if strings.Contains(strings.ToLower(v), "dark") {
		return Dark, true
	}
	return Light, true
}

// commandRunner runs an external command and returns its stdout.
type commandRunner func(name string, args ...string) ([]byte, error)

func execOutput(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).Output()
}

// GsettingsDetector queries org.gnome.desktop.interface color-scheme.
type GsettingsDetector struct {
	run commandRunner
}

func (GsettingsDetector) Name() string  { return "gsettings" }
func (GsettingsDetector) Priority() int { return 10 }

func (GsettingsDetector) Available() bool {
	if runtime.GOOS != "linux" {
		return false
	}
	_, err := exec.LookPath("gsettings")
	return err == nil
}

func (d GsettingsDetector) Detect() (Resolved, bool) {
	run := d.run
	if run == nil {
		run = execOutput
	}
	out, err := run("gsettings", "get", "org.gnome.desktop.interface", "color-scheme")
	if err != nil {
		return "", false
	}
	switch strings.Trim(strings.TrimSpace(string(out)), `'"`) {
	case "prefer-dark":
		return Dark, true
	case "prefer-light":
		return Light, true
	default:
		// "default" leaves the choice to the desktop; nothing to report.
		return "", false
	}
}

// DefaultsDetector reads AppleInterfaceStyle on macOS. The key only exists
// while dark mode is on.
type DefaultsDetector struct {
	run commandRunner
}

func (DefaultsDetector) Name() string  { return "defaults" }
func (DefaultsDetector) Priority() int { return 10 }

func (DefaultsDetector) Available() bool { return runtime.GOOS == "darwin" }

func (d DefaultsDetector) Detect() (Resolved, bool) {
	run := d.run
	if run == nil {
		run = execOutput
	}
	out, err := run("defaults", "read", "-g", "AppleInterfaceStyle")
	if err != nil {
		return Light, true
	}
	if strings.EqualFold(strings.TrimSpace(string(out)), "dark") {
		return Dark, true
	}
	return Light, true
}

// DetectorChain tries detectors by descending priority.
type DetectorChain struct {
	detectors []Detector
}

// NewDetectorChain builds a chain from detectors.
func NewDetectorChain(detectors ...Detector) *DetectorChain {
	sorted := make([]Detector, len(detectors))
	copy(sorted, detectors)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() > sorted[j].Priority()
	})
	return &DetectorChain{detectors: sorted}
}

// HostDetectors returns the chain for the current desktop host.
func HostDetectors() *DetectorChain {
	return NewDetectorChain(EnvDetector{}, GsettingsDetector{}, DefaultsDetector{})
}

// Available reports whether at least one detector can run.
func (c *DetectorChain) Available() bool {
	if c == nil {
		return false
	}
	for _, d := range c.detectors {
		if d.Available() {
			return true
		}
	}
	return false
}

// Detect returns the first successful detection and the detector's name.
// A nil chain detects nothing.
func (c *DetectorChain) Detect() (Resolved, string, bool) {
	if c == nil {
		return Light, "", false
	}
	for _, d := range c.detectors {
		if !d.Available() {
			continue
		}
		if s, ok := d.Detect(); ok {
			return s, d.Name(), true
		}
	}
	return Light, "", false
}

// PollDetectors samples chain every interval and pushes the result into
// source until ctx is done.
func PollDetectors(ctx context.Context, chain *DetectorChain, source *SignalSource, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if s, _, ok := chain.Detect(); ok {
			source.Set(s)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
