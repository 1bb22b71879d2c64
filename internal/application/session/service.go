package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/portal-auth/internal/domain"
)

// Reason explains why a session check failed.
type Reason string

const (
	ReasonNotFound Reason = "not-found"
	ReasonExpired  Reason = "expired"
)

// Store is the minimal session persistence the validator needs.
type Store interface {
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	Touch(ctx context.Context, sessionID string, at time.Time) error
	Delete(ctx context.Context, sessionID string) error
}

// Result is the outcome of a session check. Email and ExpiresAt are set only when Valid.
type Result struct {
	Valid     bool
	Reason    Reason
	Email     string
	ExpiresAt time.Time
}

type Service interface {
	Check(ctx context.Context, sessionID string) (*Result, error)
}

type service struct {
	repo Store
	now  func() time.Time
}

// NewService returns the session validator. now may be nil.
func NewService(repo Store, now func() time.Time) Service {
	if now == nil {
		now = time.Now
	}
	return &service{repo: repo, now: now}
}

// Check validates sessionID and refreshes its last access time.
// Only store failures other than not-found are returned as errors.
func (s *service) Check(ctx context.Context, sessionID string) (*Result, error) {
	if sessionID == "" {
		return &Result{Reason: ReasonNotFound}, nil
	}
	sess, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &Result{Reason: ReasonNotFound}, nil
		}
		return nil, fmt.Errorf("lookup session: %w", err)
	}

	now := s.now().UTC()
	if sess.Expired(now) {
		if err := s.repo.Delete(ctx, sessionID); err != nil {
			slog.Warn("failed to delete expired session", "email", sess.Email, "err", err)
		}
		return &Result{Reason: ReasonExpired}, nil
	}

	if err := s.repo.Touch(ctx, sessionID, now); err != nil {
		slog.Warn("failed to refresh session access time", "email", sess.Email, "err", err)
	}
	return &Result{Valid: true, Email: sess.Email, ExpiresAt: sess.ExpiresAt}, nil
}
