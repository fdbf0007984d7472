package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/onform/training-backend/internal/model"
)

// ClientRepo provides client profile persistence.
type ClientRepo struct{ DB *sql.DB }

func NewClientRepo(db *sql.DB) *ClientRepo { return &ClientRepo{DB: db} }

const clientCols = "id,user_id,nombre,apellidos,mail,created_at,updated_at"

func scanClient(scan func(dest ...interface{}) error) (model.ClientProfile, error) {
	var (
		c      model.ClientProfile
		userID sql.NullInt64
	)
	err := scan(&c.ID, &userID, &c.Nombre, &c.Apellidos, &c.Mail, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ClientProfile{}, ErrNotFound
		}
		return model.ClientProfile{}, err
	}
	if userID.Valid {
		v := uint64(userID.Int64)
		c.UserID = &v
	}
	return c, nil
}

// GetByID fetches a client profile by id.
func (r *ClientRepo) GetByID(ctx context.Context, id uint64) (model.ClientProfile, error) {
	return scanClient(r.DB.QueryRowContext(ctx,
		"SELECT "+clientCols+" FROM client_profiles WHERE id=? LIMIT 1", id).Scan)
}

// GetByUserID fetches the client profile linked to an account.
func (r *ClientRepo) GetByUserID(ctx context.Context, userID uint64) (model.ClientProfile, error) {
	return scanClient(r.DB.QueryRowContext(ctx,
		"SELECT "+clientCols+" FROM client_profiles WHERE user_id=? LIMIT 1", userID).Scan)
}

// ListAll returns every client profile, newest first. Reserved for
// admin callers; trainers list through their roster instead.
func (r *ClientRepo) ListAll(ctx context.Context, limit, offset int) ([]model.ClientProfile, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+clientCols+" FROM client_profiles ORDER BY id DESC LIMIT ? OFFSET ?",
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.ClientProfile, 0, limit)
	for rows.Next() {
		c, err := scanClient(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
