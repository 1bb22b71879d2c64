package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/portal-auth/internal/domain"
	"github.com/portal-auth/internal/pkg/id"
	"github.com/portal-auth/internal/pkg/token"
	"github.com/portal-auth/internal/pkg/validate"
)

const (
	DefaultCodeTTL    = 10 * time.Minute
	DefaultSessionTTL = 24 * time.Hour

	codeMin   = 10000
	codeRange = 90000 // codes are drawn from [10000, 99999]
)

var (
	ErrInvalidCode = fmt.Errorf("invalid code: %w", domain.ErrUnauthorized)
	ErrCodeExpired = fmt.Errorf("code expired: %w", domain.ErrExpired)
)

// Authorizer decides whether an email may request a code.
type Authorizer interface {
	Authorize(raw string) (string, error)
}

// CodeStore persists verification codes.
type CodeStore interface {
	Put(ctx context.Context, c *domain.VerificationCode) error
	// FindLatestUnused returns the newest unused code row matching (email, code),
	// or an error wrapping domain.ErrNotFound.
	FindLatestUnused(ctx context.Context, email, code string) (*domain.VerificationCode, error)
	// MarkUsed flips used false->true atomically. It returns an error wrapping
	// domain.ErrConflict when the row was already used.
	MarkUsed(ctx context.Context, c *domain.VerificationCode, usedAt time.Time) error
}

// SessionStore persists sessions created by a redemption.
type SessionStore interface {
	Put(ctx context.Context, s *domain.Session) error
}

// Mailer sends HTML emails.
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, htmlBody string) error
}

type SendCodeRequest struct {
	Email string `json:"email" validate:"required"`
}

type VerifyCodeRequest struct {
	Email string `json:"email" validate:"required"`
	Code  string `json:"code" validate:"required,vcode"`
}

// SendResult reports the outcome of a successful issuance.
// Delivered is false when the code was stored but the email could not be handed off.
type SendResult struct {
	Delivered bool
}

// VerifyResult carries the session created by a successful redemption.
type VerifyResult struct {
	SessionID string
	Email     string
	ExpiresAt time.Time
}

type Service interface {
	SendCode(ctx context.Context, rawEmail string) (*SendResult, error)
	VerifyCode(ctx context.Context, rawEmail, code string) (*VerifyResult, error)
}

// ServiceDeps groups the collaborators of the auth service.
type ServiceDeps struct {
	Guard       Authorizer
	CodeRepo    CodeStore
	SessionRepo SessionStore
	Mailer      Mailer
	AppName     string
	CodeTTL     time.Duration
	SessionTTL  time.Duration
	Now         func() time.Time
}

type service struct {
	guard      Authorizer
	codeRepo   CodeStore
	sessRepo   SessionStore
	mailer     Mailer
	appName    string
	codeTTL    time.Duration
	sessionTTL time.Duration
	now        func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		guard:      deps.Guard,
		codeRepo:   deps.CodeRepo,
		sessRepo:   deps.SessionRepo,
		mailer:     deps.Mailer,
		appName:    deps.AppName,
		codeTTL:    deps.CodeTTL,
		sessionTTL: deps.SessionTTL,
		now:        deps.Now,
	}
	if s.codeTTL <= 0 {
		s.codeTTL = DefaultCodeTTL
	}
	if s.sessionTTL <= 0 {
		s.sessionTTL = DefaultSessionTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *service) SendCode(ctx context.Context, rawEmail string) (*SendResult, error) {
	email, err := s.guard.Authorize(rawEmail)
	if err != nil {
		slog.Warn("code request rejected", "email", domain.NormalizeEmail(rawEmail), "err", err)
		return nil, err
	}

	code, err := newCode()
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	vc := &domain.VerificationCode{
		CodeID:    id.New(),
		Email:     email,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(s.codeTTL),
	}
	if err := s.codeRepo.Put(ctx, vc); err != nil {
		return nil, fmt.Errorf("store code: %w", err)
	}

	subject, body, err := codeEmail(s.appName, code, s.codeTTL)
	if err != nil {
		slog.Error("failed to render code email", "email", email, "err", err)
		return &SendResult{Delivered: false}, nil
	}
	if err := s.mailer.SendEmail(ctx, email, subject, body); err != nil {
		// The stored code stays redeemable; delivery may simply be delayed.
		slog.Error("failed to send code email", "email", email, "code_id", vc.CodeID, "err", err)
		return &SendResult{Delivered: false}, nil
	}
	slog.Info("code issued", "email", email, "code_id", vc.CodeID)
	return &SendResult{Delivered: true}, nil
}

func (s *service) VerifyCode(ctx context.Context, rawEmail, code string) (*VerifyResult, error) {
	email := domain.NormalizeEmail(rawEmail)
	if email == "" || !validate.Code(code) {
		return nil, fmt.Errorf("email and 5-digit code required: %w", domain.ErrBadRequest)
	}

	vc, err := s.codeRepo.FindLatestUnused(ctx, email, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCode
		}
		return nil, fmt.Errorf("lookup code: %w", err)
	}

	now := s.now().UTC()
	if vc.Expired(now) {
		// Burn the row so it can never match again.
		if err := s.codeRepo.MarkUsed(ctx, vc, now); err != nil && !errors.Is(err, domain.ErrConflict) {
			slog.Warn("failed to mark expired code used", "email", email, "code_id", vc.CodeID, "err", err)
		}
		return nil, ErrCodeExpired
	}

	// The used flag must be won before any session exists.
	if err := s.codeRepo.MarkUsed(ctx, vc, now); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			slog.Info("lost code redemption race", "email", email, "code_id", vc.CodeID)
			return nil, ErrInvalidCode
		}
		return nil, fmt.Errorf("mark code used: %w", err)
	}

	sid, err := token.NewSessionID()
	if err != nil {
		return nil, err
	}
	sess := &domain.Session{
		SessionID:      sid,
		Email:          email,
		CreatedAt:      now,
		ExpiresAt:      now.Add(s.sessionTTL),
		LastAccessedAt: now,
	}
	if err := s.sessRepo.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	slog.Info("session created", "email", email, "code_id", vc.CodeID)
	return &VerifyResult{SessionID: sess.SessionID, Email: email, ExpiresAt: sess.ExpiresAt}, nil
}

// newCode draws a uniform five-digit code.
func newCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeRange))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+codeMin), nil
}
