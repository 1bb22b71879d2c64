package http

import (
	"context"
	"time"

	"github.com/portal-auth/internal/application/auth"
	"github.com/portal-auth/internal/application/gate"
	"github.com/portal-auth/internal/domain"
)

// SessionRepository is the minimal interface the router requires from a session store.
type SessionRepository interface {
	Put(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	Touch(ctx context.Context, sessionID string, at time.Time) error
	Delete(ctx context.Context, sessionID string) error
}

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	Guard       auth.Authorizer
	CodeRepo    auth.CodeStore
	SessionRepo SessionRepository
	Mailer      auth.Mailer
	// PortalChecker validates sessions for the portal gate. Nil means the
	// in-process session validator.
	PortalChecker gate.Checker
	// Now overrides the clock in tests.
	Now func() time.Time
}
