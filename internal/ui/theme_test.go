package ui

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio/internal/theme"
)

func TestLayout_PrePaintScriptPrecedesStylesheet(t *testing.T) {
	h := newTestHandler(t, nil)
	body := get(newTestRouter(h), "/").Body.String()

	snippet := theme.PrePaintScript(h.Theme.Injector())
	i := strings.Index(body, snippet)
	j := strings.Index(body, siteStylesheetHref())
	require.GreaterOrEqual(t, i, 0, "pre-paint snippet missing")
	require.GreaterOrEqual(t, j, 0, "stylesheet missing")
	assert.Less(t, i, j)
	assert.Less(t, i, strings.Index(body, "<body>"))
	assert.Contains(t, body, theme.BehaviorScript(h.Theme.Injector()))
}

func TestLayout_RootAttributes(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Handler)
		setup   []func(*http.Request)
		wantTag string
	}{
		{"no cookie no hint", nil, nil, `<html lang="en">`},
		{"stored dark", nil, []func(*http.Request){withCookie("theme", "dark")},
			`<html lang="en" class="dark" style="color-scheme: dark">`},
		{"stored light", nil, []func(*http.Request){withCookie("theme", "light")},
			`<html lang="en" style="color-scheme: light">`},
		{"system with dark hint", nil, []func(*http.Request){withHeader(theme.ClientHintHeader, "dark")},
			`<html lang="en" class="dark" style="color-scheme: dark">`},
		{"stored system with light hint", nil,
			[]func(*http.Request){withCookie("theme", "system"), withHeader(theme.ClientHintHeader, "light")},
			`<html lang="en" style="color-scheme: light">`},
		{"invalid cookie falls back to default", nil, []func(*http.Request){withCookie("theme", "purple")},
			`<html lang="en">`},
		{"hint ignored when disabled", func(h *Handler) { h.Theme.SSRHint = false },
			[]func(*http.Request){withHeader(theme.ClientHintHeader, "dark")}, `<html lang="en">`},
		{"local storage is invisible to the server", func(h *Handler) { h.Theme.Storage = theme.StorageLocal },
			[]func(*http.Request){withCookie("theme", "dark")}, `<html lang="en">`},
		{"custom dark class", func(h *Handler) { h.Theme.DarkClass = "theme-dark" },
			[]func(*http.Request){withCookie("theme", "dark")},
			`<html lang="en" class="theme-dark" style="color-scheme: dark">`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestHandler(t, nil)
			if tc.mutate != nil {
				tc.mutate(h)
			}
			rec := get(newTestRouter(h), "/", tc.setup...)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.wantTag)
		})
	}
}

func TestLayout_ToggleRendersAsPlaceholder(t *testing.T) {
	h := newTestHandler(t, nil)
	body := get(newTestRouter(h), "/", withCookie("theme", "dark")).Body.String()

	assert.Contains(t, body, `id="theme-toggle"`)
	assert.Contains(t, body, `data-placeholder`)
	assert.Contains(t, body, `data-preference="dark"`)
	assert.Contains(t, body, `aria-label="Toggle theme"`)
	assert.Contains(t, body, `id="theme-status"`)
	assert.Contains(t, body, `role="status"`)
	assert.Contains(t, body, `action="/theme"`)
}

func TestClientHints_Headers(t *testing.T) {
	h := newTestHandler(t, nil)
	rec := get(newTestRouter(h), "/")
	assert.Equal(t, theme.ClientHintHeader, rec.Header().Get("Accept-CH"))
	assert.Equal(t, theme.ClientHintHeader, rec.Header().Get("Critical-CH"))
	assert.Contains(t, rec.Header().Values("Vary"), theme.ClientHintHeader)

	h.Theme.SSRHint = false
	rec = get(newTestRouter(h), "/")
	assert.Empty(t, rec.Header().Get("Accept-CH"))
}

func postTheme(t *testing.T, h *Handler, form url.Values, cookies ...*http.Cookie) (int, map[string]string, string) {
	t.Helper()
	form.Set("csrf_token", testToken)
	req := newFormRequest("/theme", form, cookies...)
	req.Header.Set("Accept", "application/json")
	rec := serve(newTestRouter(h), req)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	stored, _ := cookieValue(rec, "theme")
	return rec.Code, body, stored
}

func TestThemeSubmit_ToggleCycle(t *testing.T) {
	h := newTestHandler(t, nil)

	tests := []struct {
		stored   string
		wantPref string
	}{
		{"", "light"}, // default system
		{"light", "dark"},
		{"dark", "system"},
		{"system", "light"},
	}
	for _, tc := range tests {
		t.Run("from "+tc.stored, func(t *testing.T) {
			var cookies []*http.Cookie
			if tc.stored != "" {
				cookies = append(cookies, &http.Cookie{Name: "theme", Value: tc.stored})
			}
			code, body, stored := postTheme(t, h, url.Values{"action": {"toggle"}}, cookies...)
			require.Equal(t, http.StatusOK, code)
			assert.Equal(t, tc.wantPref, body["preference"])
			assert.Equal(t, "Switched to "+tc.wantPref+" theme", body["announcement"])
			assert.Equal(t, tc.wantPref, stored)
		})
	}
}

func TestThemeSubmit_SetPreferenceResolvesWithHint(t *testing.T) {
	h := newTestHandler(t, nil)
	form := url.Values{"preference": {"system"}, "csrf_token": {testToken}}
	req := newFormRequest("/theme", form)
	req.Header.Set("Accept", "application/json")
	req.Header.Set(theme.ClientHintHeader, `"dark"`)
	rec := serve(newTestRouter(h), req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, map[string]string{
		"preference":   "system",
		"resolved":     "dark",
		"announcement": "Switched to system theme",
	}, body)
}

func TestThemeSubmit_InvalidPreference(t *testing.T) {
	h := newTestHandler(t, nil)
	code, body, stored := postTheme(t, h, url.Values{"preference": {"sepia"}})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["error"], "invalid theme preference")
	assert.Empty(t, stored)
}

func TestThemeSubmit_RedirectsBack(t *testing.T) {
	h := newTestHandler(t, nil)
	router := newTestRouter(h)

	rec := postForm(router, "/theme", url.Values{"action": {"toggle"}, "return_to": {"/projects?q=go"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/projects?q=go", rec.Header().Get("Location"))

	rec = postForm(router, "/theme", url.Values{"preference": {"dark"}, "return_to": {"//evil.example"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	stored, ok := cookieValue(rec, "theme")
	require.True(t, ok)
	assert.Equal(t, "dark", stored)
}

func TestThemeSubmit_CookieIsReadableByScripts(t *testing.T) {
	h := newTestHandler(t, nil)
	rec := postForm(newTestRouter(h), "/theme", url.Values{"preference": {"light"}})
	for _, c := range rec.Result().Cookies() {
		if c.Name == "theme" {
			assert.False(t, c.HttpOnly)
			assert.Equal(t, "/", c.Path)
			return
		}
	}
	t.Fatal("theme cookie not set")
}

func TestSafeReturn(t *testing.T) {
	for in, want := range map[string]string{
		"":                "/",
		"/contact":        "/contact",
		"https://evil.io": "/",
		"//evil.io":       "/",
		`/\evil.io`:       "/",
	} {
		assert.Equal(t, want, safeReturn(in), in)
	}
}
