package theme

import (
	"sync"
	"time"
)

// DefaultAnnounceDelay is how long a toggle announcement stays readable.
const DefaultAnnounceDelay = 2 * time.Second

// ToggleFailedAnnouncement is announced when a toggle could not be applied.
const ToggleFailedAnnouncement = "Theme toggle failed"

// Announcement is the status text for a successful switch to p.
func Announcement(p Preference) string {
	return "Switched to " + string(p) + " theme"
}

// Icon names the lucide icon shown for p.
func Icon(p Preference) string {
	switch p {
	case PreferenceLight:
		return "sun"
	case PreferenceDark:
		return "moon"
	default:
		return "monitor"
	}
}

// ToggleLabel is the accessible label of the toggle while p is active.
func ToggleLabel(p Preference) string {
	return "Theme: " + string(p) + ". Switch to " + string(Next(p)) + " theme"
}

// ToggleView is what a toggle control renders.
type ToggleView struct {
	// Placeholder is set until the controller mounts: same box, no icon.
	Placeholder  bool
	Preference   Preference
	Resolved     Resolved
	Icon         string
	Label        string
	Announcement string
}

// Toggle is the consumer-side control bound to a Controller. Every
// activation produces exactly one announcement, cleared after a delay.
type Toggle struct {
	ctrl  *Controller
	sched Scheduler
	delay time.Duration

	mu           sync.Mutex
	announcement string
	generation   uint64
	cancelClear  func()
	closed       bool
}

// NewToggle binds a toggle to ctrl. A non-positive delay uses
// DefaultAnnounceDelay; a nil sched uses Inline.
func NewToggle(ctrl *Controller, sched Scheduler, delay time.Duration) *Toggle {
	if sched == nil {
		sched = Inline{}
	}
	if delay <= 0 {
		delay = DefaultAnnounceDelay
	}
	return &Toggle{ctrl: ctrl, sched: sched, delay: delay}
}

// View returns the current rendering of the control.
func (t *Toggle) View() ToggleView {
	state := t.ctrl.State()
	t.mu.Lock()
	announcement := t.announcement
	t.mu.Unlock()

	if !state.Mounted {
		return ToggleView{Placeholder: true, Label: "Toggle theme", Announcement: announcement}
	}
	return ToggleView{
		Preference:   state.Preference,
		Resolved:     state.Resolved,
		Icon:         Icon(state.Preference),
		Label:        ToggleLabel(state.Preference),
		Announcement: announcement,
	}
}

// Activate toggles the theme and announces the outcome.
func (t *Toggle) Activate() (Preference, error) {
	p, err := t.ctrl.Toggle()
	if err != nil {
		t.announce(ToggleFailedAnnouncement)
		return "", err
	}
	t.announce(Announcement(p))
	return p, nil
}

// Announcement returns the live status text, empty once cleared.
func (t *Toggle) Announcement() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.announcement
}

func (t *Toggle) announce(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	if t.cancelClear != nil {
		t.cancelClear()
	}
	t.generation++
	gen := t.generation
	t.announcement = msg
	t.cancelClear = t.sched.AfterFunc(t.delay, func() { t.clear(gen) })
}

// clear only clears the announcement it was scheduled for.
func (t *Toggle) clear(gen uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.generation {
		return
	}
	t.announcement = ""
	t.cancelClear = nil
}

// Close cancels a pending clear timer.
func (t *Toggle) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	if t.cancelClear != nil {
		t.cancelClear()
		t.cancelClear = nil
	}
}
