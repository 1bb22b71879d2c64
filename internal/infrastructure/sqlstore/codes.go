package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/portal-auth/internal/domain"
)

// CodeRepo stores verification codes in the verification_codes table.
type CodeRepo struct {
	db *sqlx.DB
}

func NewCodeRepo(db *sqlx.DB) *CodeRepo {
	return &CodeRepo{db: db}
}

func (r *CodeRepo) Put(ctx context.Context, c *domain.VerificationCode) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO verification_codes (id, email, code, used, used_at, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, c.CodeID, c.Email, c.Code, c.Used, c.UsedAt, c.CreatedAt.UTC(), c.ExpiresAt.UTC())
	return err
}

func (r *CodeRepo) FindLatestUnused(ctx context.Context, email, code string) (*domain.VerificationCode, error) {
	var c domain.VerificationCode
	err := r.db.GetContext(ctx, &c, `
		SELECT id, email, code, used, used_at, created_at, expires_at
		FROM verification_codes
		WHERE email = $1 AND code = $2 AND used = $3
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, email, code, false)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("verification code not found: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// MarkUsed atomically flips used false->true. Only one caller can win;
// the rest see zero affected rows.
func (r *CodeRepo) MarkUsed(ctx context.Context, c *domain.VerificationCode, usedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE verification_codes
		SET used = $1, used_at = $2
		WHERE id = $3 AND used = $4
	`, true, usedAt.UTC(), c.CodeID, false)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("code already used: %w", domain.ErrConflict)
	}
	return nil
}

// PruneExpired removes codes that expired, or were used, before cutoff.
func (r *CodeRepo) PruneExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM verification_codes
		WHERE expires_at < $1 OR (used_at IS NOT NULL AND used_at < $1)
	`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
