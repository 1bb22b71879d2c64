package whitelist

import (
	"fmt"
	"regexp"

	"github.com/portal-auth/internal/domain"
)

var (
	ErrMalformed      = fmt.Errorf("malformed email: %w", domain.ErrBadRequest)
	ErrNotWhitelisted = fmt.Errorf("email not whitelisted: %w", domain.ErrForbidden)
)

// emailPattern is deliberately conservative: local@domain.tld, no whitespace.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Guard decides whether an email may request a login code.
type Guard struct {
	allowed map[string]struct{}
}

// NewGuard builds a Guard over a static allow-list. Entries are normalized.
func NewGuard(emails []string) *Guard {
	allowed := make(map[string]struct{}, len(emails))
	for _, e := range emails {
		if n := domain.NormalizeEmail(e); n != "" {
			allowed[n] = struct{}{}
		}
	}
	return &Guard{allowed: allowed}
}

// Authorize normalizes raw and returns it when it is well-formed and whitelisted.
func (g *Guard) Authorize(raw string) (string, error) {
	email := domain.NormalizeEmail(raw)
	if len(email) > 254 || !emailPattern.MatchString(email) {
		return "", ErrMalformed
	}
	if _, ok := g.allowed[email]; !ok {
		return "", ErrNotWhitelisted
	}
	return email, nil
}

// Len returns the number of whitelisted addresses.
func (g *Guard) Len() int { return len(g.allowed) }
