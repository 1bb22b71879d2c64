package whitelist

import (
	"errors"
	"strings"
	"testing"

	"github.com/portal-auth/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorize_NormalizesAndAccepts(t *testing.T) {
	g := NewGuard([]string{"Alice@X.com"})

	email, err := g.Authorize("  ALICE@x.COM ")

	require.NoError(t, err)
	assert.Equal(t, "alice@x.com", email)
}

func TestAuthorize_NotWhitelisted(t *testing.T) {
	g := NewGuard([]string{"alice@x.com"})

	_, err := g.Authorize("bob@x.com")

	assert.ErrorIs(t, err, ErrNotWhitelisted)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestAuthorize_Malformed(t *testing.T) {
	g := NewGuard([]string{"alice@x.com"})
	cases := []string{"", "   ", "alice", "alice@x", "@x.com", "alice@.com", "al ice@x.com", "a@b@c.com",
		strings.Repeat("a", 250) + "@x.com"}
	for _, c := range cases {
		_, err := g.Authorize(c)
		assert.ErrorIs(t, err, ErrMalformed, "input %q", c)
		assert.True(t, errors.Is(err, domain.ErrBadRequest))
	}
}

func TestNewGuard_SkipsBlankEntries(t *testing.T) {
	g := NewGuard([]string{"", "  ", "a@b.co", "A@B.CO"})
	assert.Equal(t, 1, g.Len())
}
