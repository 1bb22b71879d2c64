package domain

import "strings"

// NormalizeEmail returns the canonical identity form of an email address.
func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
