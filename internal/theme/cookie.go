package theme

import (
	"errors"
	"net/http"
	"time"
)

// CookieMaxAge is how long a stored theme preference survives in the browser.
const CookieMaxAge = 365 * 24 * time.Hour

// CookieKV exposes the preference cookie of a single HTTP exchange as a KV.
// The cookie is not HttpOnly because the pre-paint snippet reads it.
type CookieKV struct {
	r      *http.Request
	w      http.ResponseWriter
	secure bool
	set    map[string]string
}

// NewCookieKV binds a KV to one request/response pair. w may be nil for
// read-only use while rendering.
func NewCookieKV(w http.ResponseWriter, r *http.Request, secure bool) *CookieKV {
	return &CookieKV{r: r, w: w, secure: secure, set: map[string]string{}}
}

// Get implements KV. Values written during this exchange win over the
// request cookie.
func (c *CookieKV) Get(key string) (string, bool, error) {
	if v, ok := c.set[key]; ok {
		return v, true, nil
	}
	if c.r == nil {
		return "", false, ErrStorageUnavailable
	}
	cookie, err := c.r.Cookie(key)
	if errors.Is(err, http.ErrNoCookie) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return cookie.Value, true, nil
}

// Set implements KV.
func (c *CookieKV) Set(key, value string) error {
	if c.w == nil {
		return ErrStorageUnavailable
	}
	http.SetCookie(c.w, &http.Cookie{
		Name:     key,
		Value:    value,
		Path:     "/",
		MaxAge:   int(CookieMaxAge.Seconds()),
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	c.set[key] = value
	return nil
}
