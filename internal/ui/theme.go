package ui

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"portfolio/internal/theme"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

// pageTheme is the theme a page is rendered with.
type pageTheme struct {
	State  theme.State
	Toggle theme.ToggleView
	// Known is set when the server resolves the same theme the pre-paint
	// snippet will: the cookie holds an explicit preference, or the
	// preference is system and the request carries the client hint.
	Known bool
	Root  *theme.DocumentRoot
}

// requestController returns an unstarted controller over the preference
// cookie of r and, when enabled, its color-scheme client hint. w may be nil
// for read-only rendering.
func (h *Handler) requestController(w http.ResponseWriter, r *http.Request, root theme.Root) *theme.Controller {
	watcher := theme.Watcher(theme.NoSignal{})
	if h.Theme.SSRHint {
		watcher = theme.ClientHint(r)
	}
	return theme.NewController(theme.Options{
		Store:     theme.NewStore(theme.NewCookieKV(w, r, h.Production), h.Theme.StorageKey, h.Logger),
		Watcher:   watcher,
		Root:      root,
		Scheduler: theme.Inline{},
		DarkClass: h.Theme.DarkClass,
		Default:   h.Theme.Default,
		Logger:    h.Logger,
	})
}

func (h *Handler) pageTheme(r *http.Request) pageTheme {
	root := theme.NewDocumentRoot()
	ctrl := h.requestController(nil, r, root)
	defer ctrl.Close()

	// The toggle is rendered in its unmounted form; the browser mounts it.
	view := theme.NewToggle(ctrl, theme.Inline{}, h.Theme.AnnounceDelay).View()
	ctrl.Start()
	state := ctrl.State()

	known := false
	if h.Theme.Storage != theme.StorageLocal {
		known = state.Preference != theme.PreferenceSystem || (h.Theme.SSRHint && theme.HasClientHint(r))
	}
	return pageTheme{State: state, Toggle: view, Known: known, Root: root}
}

// rootAttrs renders the theme onto <html> when the server knows it.
// Otherwise the pre-paint snippet decides before first paint.
func (pt pageTheme) rootAttrs() Node {
	if !pt.Known || pt.Root == nil {
		return nil
	}
	return Group{
		If(pt.Root.ClassName() != "", Class(pt.Root.ClassName())),
		Style("color-scheme: " + pt.Root.ColorScheme()),
	}
}

// ClientHints asks the browser for Sec-CH-Prefers-Color-Scheme so the
// server can render dark pages dark from the first byte.
func (h *Handler) ClientHints(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Theme.SSRHint {
			w.Header().Set("Accept-CH", theme.ClientHintHeader)
			w.Header().Set("Critical-CH", theme.ClientHintHeader)
			w.Header().Add("Vary", theme.ClientHintHeader)
		}
		next.ServeHTTP(w, r)
	})
}

// themeResponse is the JSON answer of POST /theme.
type themeResponse struct {
	Preference   theme.Preference `json:"preference"`
	Resolved     theme.Resolved   `json:"resolved"`
	Announcement string           `json:"announcement"`
}

// ThemeSubmit is the no-JS theme endpoint. It takes preference=<p> or
// action=toggle, stores the result in the preference cookie and redirects
// back, or answers JSON when asked to.
func (h *Handler) ThemeSubmit(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()

	ctrl := h.requestController(w, r, theme.NewDocumentRoot())
	defer ctrl.Close()
	toggle := theme.NewToggle(ctrl, theme.Inline{}, h.Theme.AnnounceDelay)
	defer toggle.Close()
	ctrl.Start()

	var err error
	if r.Form.Get("action") == "toggle" {
		_, err = toggle.Activate()
	} else {
		p, ok := theme.ParsePreference(r.Form.Get("preference"))
		if !ok {
			err = theme.ErrInvalidPreference
		} else {
			err = ctrl.SetPreference(p)
		}
	}

	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, theme.ErrInvalidPreference) {
			status = http.StatusBadRequest
		} else {
			h.Logger.Warn("theme update failed", "error", err)
		}
		if wantsJSON(r) {
			writeJSON(w, status, map[string]string{"error": err.Error()})
			return
		}
		h.renderError(w, r, status, "Theme not changed", "Choose light, dark or system.")
		return
	}

	state := ctrl.State()
	announcement := toggle.Announcement()
	if announcement == "" {
		announcement = theme.Announcement(state.Preference)
	}
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, themeResponse{
			Preference:   state.Preference,
			Resolved:     state.Resolved,
			Announcement: announcement,
		})
		return
	}
	http.Redirect(w, r, safeReturn(r.Form.Get("return_to")), http.StatusSeeOther)
}

// themeToggle is the toggle control: a submit button inside a form posting
// to /theme, which the behavior script intercepts once mounted.
func themeToggle(r *http.Request, pt pageTheme) Node {
	view := pt.Toggle
	return Form(
		Method("post"),
		Action("/theme"),
		Class("theme-toggle-form"),
		csrfField(r),
		Input(Type("hidden"), Name("action"), Value("toggle")),
		Input(Type("hidden"), Name("return_to"), Value(r.URL.RequestURI())),
		Button(
			ID("theme-toggle"),
			Type("submit"),
			Class("theme-toggle"),
			If(view.Placeholder, Attr("data-placeholder", "")),
			Attr("data-preference", string(pt.State.Preference)),
			Aria("label", view.Label),
			Title(view.Label),
			icon("sun"),
			icon("moon"),
			icon("monitor"),
		),
		Span(ID("theme-status"), Class("sr-only"), Role("status"), Aria("live", "polite"), Text(view.Announcement)),
	)
}

var iconPaths = map[string]string{
	"sun": `<circle cx="12" cy="12" r="4"/><path d="M12 2v2"/><path d="M12 20v2"/><path d="m4.93 4.93 1.41 1.41"/>` +
		`<path d="m17.66 17.66 1.41 1.41"/><path d="M2 12h2"/><path d="M20 12h2"/><path d="m6.34 17.66-1.41 1.41"/>` +
		`<path d="m19.07 4.93-1.41 1.41"/>`,
	"moon":    `<path d="M12 3a6 6 0 0 0 9 9 9 9 0 1 1-9-9Z"/>`,
	"monitor": `<rect width="20" height="14" x="2" y="3" rx="2"/><line x1="8" x2="16" y1="21" y2="21"/><line x1="12" x2="12" y1="17" y2="21"/>`,
}

// icon renders an inline lucide icon.
func icon(name string) Node {
	return Raw(`<svg class="icon icon-` + name + `" xmlns="http://www.w3.org/2000/svg" width="20" height="20" viewBox="0 0 24 24" ` +
		`fill="none" stroke="currentColor" stroke-width="2" stroke-linecap="round" stroke-linejoin="round" aria-hidden="true">` +
		iconPaths[name] + `</svg>`)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// safeReturn keeps redirects on this site.
func safeReturn(target string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return "/"
	}
	return target
}
