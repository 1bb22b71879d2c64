// Package memory provides process-local code and session stores for
// development and tests. State is lost on restart.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/portal-auth/internal/domain"
)

// CodeRepo keeps verification codes in insertion order.
type CodeRepo struct {
	mu    sync.Mutex
	codes []*domain.VerificationCode
}

func NewCodeRepo() *CodeRepo { return &CodeRepo{} }

func (r *CodeRepo) Put(_ context.Context, c *domain.VerificationCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.codes = append(r.codes, &cp)
	return nil
}

func (r *CodeRepo) FindLatestUnused(_ context.Context, email, code string) (*domain.VerificationCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var best *domain.VerificationCode
	for _, c := range r.codes {
		if c.Email != email || c.Code != code || c.Used {
			continue
		}
		if best == nil || newer(c, best) {
			best = c
		}
	}
	if best == nil {
		return nil, fmt.Errorf("verification code not found: %w", domain.ErrNotFound)
	}
	cp := *best
	return &cp, nil
}

func (r *CodeRepo) MarkUsed(_ context.Context, c *domain.VerificationCode, usedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.codes {
		if stored.CodeID != c.CodeID {
			continue
		}
		if stored.Used {
			return fmt.Errorf("code already used: %w", domain.ErrConflict)
		}
		at := usedAt
		stored.Used = true
		stored.UsedAt = &at
		return nil
	}
	return fmt.Errorf("verification code not found: %w", domain.ErrNotFound)
}

// PruneExpired removes codes that expired or were used before cutoff.
func (r *CodeRepo) PruneExpired(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.codes[:0]
	var n int64
	for _, c := range r.codes {
		if c.ExpiresAt.Before(cutoff) || (c.UsedAt != nil && c.UsedAt.Before(cutoff)) {
			n++
			continue
		}
		kept = append(kept, c)
	}
	r.codes = kept
	return n, nil
}

// All returns a snapshot of every stored code.
func (r *CodeRepo) All() []domain.VerificationCode {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.VerificationCode, len(r.codes))
	for i, c := range r.codes {
		out[i] = *c
	}
	return out
}

func newer(a, b *domain.VerificationCode) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.CodeID > b.CodeID
	}
	return a.CreatedAt.After(b.CreatedAt)
}

// SessionRepo keeps sessions keyed by id.
type SessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
}

func NewSessionRepo() *SessionRepo {
	return &SessionRepo{sessions: make(map[string]*domain.Session)}
}

func (r *SessionRepo) Put(_ context.Context, s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[s.SessionID]; exists {
		return fmt.Errorf("session id collision: %w", domain.ErrConflict)
	}
	cp := *s
	r.sessions[s.SessionID] = &cp
	return nil
}

func (r *SessionRepo) Get(_ context.Context, sessionID string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session not found: %w", domain.ErrNotFound)
	}
	cp := *s
	return &cp, nil
}

func (r *SessionRepo) Touch(_ context.Context, sessionID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return fmt.Errorf("session not found: %w", domain.ErrNotFound)
	}
	s.LastAccessedAt = at
	return nil
}

func (r *SessionRepo) Delete(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
	return nil
}

// PruneExpired removes sessions that expired before cutoff.
func (r *SessionRepo) PruneExpired(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, s := range r.sessions {
		if s.ExpiresAt.Before(cutoff) {
			delete(r.sessions, id)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored sessions.
func (r *SessionRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
