package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/onform/training-backend/internal/model"
)

// TokenRepo persists and validates refresh tokens. Only the SHA-256
// hash of a token is stored (single 'token_hash' column).
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Store inserts a refresh token hash row with its client metadata.
func (r *TokenRepo) Store(ctx context.Context, accountID uint64, tokenHash string, userAgent, ip string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (account_id, token_hash, user_agent, ip_address, expires_at) VALUES (?,?,?,?,?)",
		accountID, tokenHash, nullable(userAgent), nullable(ip), exp)
	return err
}

// FindValid returns the owning account if a non-revoked, non-expired
// token with this hash exists; otherwise ErrInvalidCredential.
func (r *TokenRepo) FindValid(ctx context.Context, tokenHash string) (uint64, error) {
	var (
		t         model.RefreshToken
		revokedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT account_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&t.AccountID, &t.ExpiresAt, &revokedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrInvalidCredential
		}
		return 0, err
	}
	if revokedAt.Valid {
		t.RevokedAt = &revokedAt.Time
	}
	if t.RevokedAt != nil || time.Now().UTC().After(t.ExpiresAt) {
		return 0, ErrInvalidCredential
	}
	return t.AccountID, nil
}

// Rotate revokes the presented token and inserts its replacement in one
// transaction. The revoke is a compare-and-swap on `revoked_at IS NULL
// AND expires_at > now`: when two rotations race on the same token,
// exactly one UPDATE matches a row and the loser gets
// ErrInvalidCredential. Returns the owning account id.
func (r *TokenRepo) Rotate(ctx context.Context, oldHash, newHash string, userAgent, ip string, exp time.Time) (uint64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=? WHERE token_hash=? AND revoked_at IS NULL AND expires_at > ?",
		time.Now().UTC(), oldHash, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, ErrInvalidCredential
	}

	var accountID uint64
	if err := tx.QueryRowContext(ctx,
		"SELECT account_id FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		oldHash).Scan(&accountID); err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO refresh_tokens (account_id, token_hash, user_agent, ip_address, expires_at) VALUES (?,?,?,?,?)",
		accountID, newHash, nullable(userAgent), nullable(ip), exp); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return accountID, nil
}

// Revoke marks a single token as revoked.
func (r *TokenRepo) Revoke(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=? WHERE token_hash=? AND revoked_at IS NULL",
		time.Now().UTC(), tokenHash)
	return err
}

// RevokeAllForAccount revokes every active token of one account.
func (r *TokenRepo) RevokeAllForAccount(ctx context.Context, accountID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=? WHERE account_id=? AND revoked_at IS NULL",
		time.Now().UTC(), accountID)
	return err
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
