package ui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"portfolio/internal/config"
	"portfolio/internal/contact"
	"portfolio/internal/content"
	"portfolio/internal/theme"
)

const testToken = "test-csrf-token"

type recordingSender struct {
	mu   sync.Mutex
	err  error
	sent []contact.Email
}

func (s *recordingSender) Send(_ context.Context, e contact.Email) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, e)
	return nil
}

func testThemeConfig() config.ThemeConfig {
	return config.ThemeConfig{
		StorageKey:    theme.DefaultStorageKey,
		Default:       theme.PreferenceSystem,
		DarkClass:     theme.DefaultDarkClass,
		Storage:       theme.StorageCookie,
		AnnounceDelay: theme.DefaultAnnounceDelay,
		SSRHint:       true,
	}
}

func newTestHandler(t *testing.T, relay *contact.Relay) *Handler {
	t.Helper()
	lib, err := content.OpenDir("", nil)
	require.NoError(t, err)
	return NewHandler(lib, relay, testThemeConfig(), false, nil)
}

func newChiRouter() *chi.Mux {
	return chi.NewRouter()
}

func newTestRouter(h *Handler) http.Handler {
	r := newChiRouter()
	MountRoutes(r, h, nil)
	return r
}

// postForm sends a form with a matching CSRF cookie and field.
func postForm(router http.Handler, path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	form.Set("csrf_token", testToken)
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: testToken})
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func get(router http.Handler, path string, setup ...func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, fn := range setup {
		fn(req)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func withCookie(name, value string) func(*http.Request) {
	return func(r *http.Request) { r.AddCookie(&http.Cookie{Name: name, Value: value}) }
}

func withHeader(name, value string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set(name, value) }
}

func cookieValue(rec *httptest.ResponseRecorder, name string) (string, bool) {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}

func newFormRequest(path string, form url.Values, cookies ...*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: testToken})
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}
