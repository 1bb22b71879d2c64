package dynamo

import "time"

// tableWaitTimeout bounds how long Bootstrap waits for a new table to become active.
const tableWaitTimeout = 30 * time.Second

// DynamoDB attribute names used in key, condition and update expressions.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldEmail          = "email"
	fieldCodeID         = "code_id"
	fieldCode           = "code"
	fieldUsed           = "used"
	fieldUsedAt         = "used_at"
	fieldSessionID      = "session_id"
	fieldLastAccessedAt = "last_accessed_at"
	fieldTTL            = "ttl"
)
