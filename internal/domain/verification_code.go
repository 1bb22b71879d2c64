package domain

import "time"

// VerificationCode is a single-use login code sent by email.
// PK: email, SK: code_id (ULID, sortable by creation time).
type VerificationCode struct {
	CodeID    string     `json:"id" dynamodbav:"code_id" db:"id"`
	Email     string     `json:"email" dynamodbav:"email" db:"email"`
	Code      string     `json:"-" dynamodbav:"code" db:"code"`
	Used      bool       `json:"used" dynamodbav:"used" db:"used"`
	UsedAt    *time.Time `json:"used_at,omitempty" dynamodbav:"used_at,omitempty" db:"used_at"`
	CreatedAt time.Time  `json:"created" dynamodbav:"created_at" db:"created_at"`
	ExpiresAt time.Time  `json:"expires_at" dynamodbav:"expires_at" db:"expires_at"`
}

// Expired reports whether the code can no longer be redeemed at now.
func (c *VerificationCode) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
