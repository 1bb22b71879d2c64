package middleware

import (
	"net/http"
	"time"

	"github.com/portal-auth/internal/application/gate"
)

// CookieOptions configures the session cookie.
type CookieOptions struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

// CookieClient adapts one HTTP request/response pair to gate.Client.
// The credential is the session cookie and navigation is a 303 redirect.
type CookieClient struct {
	w    http.ResponseWriter
	r    *http.Request
	opts CookieOptions
}

func NewCookieClient(w http.ResponseWriter, r *http.Request, opts CookieOptions) *CookieClient {
	return &CookieClient{w: w, r: r, opts: opts}
}

func (c *CookieClient) Credential() (string, bool) {
	ck, err := c.r.Cookie(c.opts.Name)
	if err != nil || ck.Value == "" {
		return "", false
	}
	return ck.Value, true
}

func (c *CookieClient) StoreCredential(sessionID string) {
	http.SetCookie(c.w, &http.Cookie{
		Name:     c.opts.Name,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(c.opts.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c *CookieClient) ClearCredential() {
	http.SetCookie(c.w, &http.Cookie{
		Name:     c.opts.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c *CookieClient) Navigate(path string) {
	http.Redirect(c.w, c.r, path, http.StatusSeeOther)
}

// Gate serves the request only when g admits the caller's session cookie.
// Rejected requests have already been redirected by the gate.
func Gate(g *gate.Gate, opts CookieOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !g.Guard(r.Context(), r.URL.Path, NewCookieClient(w, r, opts)) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
