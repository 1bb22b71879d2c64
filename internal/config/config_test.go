package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ALLOWED_EMAILS", "")
	t.Setenv("CODE_TTL", "")
	t.Setenv("SESSION_TTL", "")

	cfg := Load()

	assert.Equal(t, 10*time.Minute, cfg.CodeTTL)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, time.Duration(0), cfg.JanitorInterval)
	assert.Equal(t, "session_id", cfg.SessionCookieName)
	assert.Empty(t, cfg.AllowedEmails)
}

func TestLoad_AllowedEmailsList(t *testing.T) {
	t.Setenv("ALLOWED_EMAILS", " alice@x.com, ,Bob@Y.org ,")

	cfg := Load()

	assert.Equal(t, []string{"alice@x.com", "Bob@Y.org"}, cfg.AllowedEmails)
}

func TestLoad_InvalidDurationFallsBack(t *testing.T) {
	t.Setenv("SESSION_TTL", "one day")
	t.Setenv("CODE_TTL", "5m")

	cfg := Load()

	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 5*time.Minute, cfg.CodeTTL)
}
