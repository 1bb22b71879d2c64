package domain

import "time"

// Session is an opaque login session created by a successful code redemption.
type Session struct {
	SessionID      string    `json:"id" dynamodbav:"session_id" db:"session_id"`
	Email          string    `json:"email" dynamodbav:"email" db:"email"`
	CreatedAt      time.Time `json:"created" dynamodbav:"created_at" db:"created_at"`
	ExpiresAt      time.Time `json:"expires_at" dynamodbav:"expires_at" db:"expires_at"`
	LastAccessedAt time.Time `json:"last_accessed_at" dynamodbav:"last_accessed_at" db:"last_accessed_at"`
}

// Expired reports whether the session is past its expiry at now.
// A session is still valid at exactly ExpiresAt.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
