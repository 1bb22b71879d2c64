// Package gate guards protected pages: it lets a page render only after the
// session validator confirms the client's stored session, and otherwise
// sends the client to the login page.
package gate

import (
	"context"
	"log/slog"

	"github.com/portal-auth/internal/application/session"
)

// Client is the page-side capability set the gate drives.
type Client interface {
	// Credential returns the stored session id, if any.
	Credential() (string, bool)
	StoreCredential(sessionID string)
	ClearCredential()
	Navigate(path string)
}

// Placeholder is implemented by clients that can hold back rendering while
// a check is pending.
type Placeholder interface {
	Block()
	Unblock()
}

// Checker validates a session id.
type Checker interface {
	Check(ctx context.Context, sessionID string) (*session.Result, error)
}

type Gate struct {
	checker   Checker
	loginPath string
	exempt    map[string]struct{}
}

// New returns a gate redirecting to loginPath. The login path and any extra
// exempt paths are never gated.
func New(checker Checker, loginPath string, exempt ...string) *Gate {
	g := &Gate{
		checker:   checker,
		loginPath: loginPath,
		exempt:    map[string]struct{}{loginPath: {}},
	}
	for _, p := range exempt {
		g.exempt[p] = struct{}{}
	}
	return g
}

// LoginPath is where rejected clients are sent.
func (g *Gate) LoginPath() string { return g.loginPath }

// Guard reports whether the page at path may render for c.
// Every rejection clears the credential and navigates to the login page;
// the reason is never exposed to the client.
func (g *Gate) Guard(ctx context.Context, path string, c Client) bool {
	if _, ok := g.exempt[path]; ok {
		return true
	}

	ph, hasPlaceholder := c.(Placeholder)
	if hasPlaceholder {
		ph.Block()
	}

	sessionID, ok := c.Credential()
	if !ok || sessionID == "" {
		c.Navigate(g.loginPath)
		return false
	}

	res, err := g.checker.Check(ctx, sessionID)
	if err != nil {
		slog.WarnContext(ctx, "session check failed", "path", path, "error", err)
	}
	if err != nil || res == nil || !res.Valid {
		c.ClearCredential()
		c.Navigate(g.loginPath)
		return false
	}

	if hasPlaceholder {
		ph.Unblock()
	}
	return true
}
