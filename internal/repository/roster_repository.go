package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/onform/training-backend/internal/model"
)

// RosterRepo manages the trainer↔client link graph that the visibility
// resolver walks.
type RosterRepo struct{ DB *sql.DB }

func NewRosterRepo(db *sql.DB) *RosterRepo { return &RosterRepo{DB: db} }

// Exists reports whether a link between trainer and client is present.
func (r *RosterRepo) Exists(ctx context.Context, trainerID, clientID uint64) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM trainer_clients WHERE trainer_id=? AND client_id=? LIMIT 1",
		trainerID, clientID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Link adds a client to a trainer's roster. The client's email is
// normalized into client_email_norm so that the composite unique index
// on (trainer_id, client_email_norm) enforces the per-roster email
// uniqueness invariant case-insensitively; an application-level check
// runs first to give a clean error before hitting the index.
func (r *RosterRepo) Link(ctx context.Context, trainerID, clientID uint64) (model.TrainerClient, error) {
	var mail string
	err := r.DB.QueryRowContext(ctx,
		"SELECT mail FROM client_profiles WHERE id=? LIMIT 1", clientID).Scan(&mail)
	if errors.Is(err, sql.ErrNoRows) {
		return model.TrainerClient{}, ErrNotFound
	}
	if err != nil {
		return model.TrainerClient{}, err
	}
	norm := strings.ToLower(strings.TrimSpace(mail))

	var one int
	err = r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM trainer_clients WHERE trainer_id=? AND client_email_norm=? LIMIT 1",
		trainerID, norm).Scan(&one)
	if err == nil {
		return model.TrainerClient{}, ErrDuplicateClientEmail
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return model.TrainerClient{}, err
	}

	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO trainer_clients (trainer_id, client_id, client_email_norm) VALUES (?,?,?)",
		trainerID, clientID, norm)
	if err != nil {
		if isDuplicate(err) {
			return model.TrainerClient{}, ErrDuplicateClientEmail
		}
		return model.TrainerClient{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.TrainerClient{}, err
	}
	return model.TrainerClient{
		ID:              uint64(id),
		TrainerID:       trainerID,
		ClientID:        clientID,
		ClientEmailNorm: norm,
	}, nil
}

// Unlink removes a client from a trainer's roster.
func (r *RosterRepo) Unlink(ctx context.Context, trainerID, clientID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM trainer_clients WHERE trainer_id=? AND client_id=?",
		trainerID, clientID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ClientsForTrainer returns the client profiles linked to a trainer.
func (r *RosterRepo) ClientsForTrainer(ctx context.Context, trainerID uint64) ([]model.ClientProfile, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT c.id,c.user_id,c.nombre,c.apellidos,c.mail,c.created_at,c.updated_at "+
			"FROM client_profiles c JOIN trainer_clients tc ON tc.client_id=c.id "+
			"WHERE tc.trainer_id=? ORDER BY c.apellidos, c.nombre",
		trainerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ClientProfile
	for rows.Next() {
		c, err := scanClient(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
