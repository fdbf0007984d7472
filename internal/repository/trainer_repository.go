package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/onform/training-backend/internal/model"
)

// TrainerRepo provides trainer profile persistence.
type TrainerRepo struct{ DB *sql.DB }

func NewTrainerRepo(db *sql.DB) *TrainerRepo { return &TrainerRepo{DB: db} }

const trainerCols = "id,user_id,nombre,apellidos,mail,telefono,occupation," +
	"training_modality,location_country,location_city,is_active,created_at,updated_at"

func scanTrainer(row *sql.Row) (model.Trainer, error) {
	var (
		t        model.Trainer
		userID   sql.NullInt64
		telefono sql.NullString
		occ      sql.NullString
		modality sql.NullString
		country  sql.NullString
		city     sql.NullString
	)
	err := row.Scan(&t.ID, &userID, &t.Nombre, &t.Apellidos, &t.Mail, &telefono,
		&occ, &modality, &country, &city, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Trainer{}, ErrNotFound
		}
		return model.Trainer{}, err
	}
	if userID.Valid {
		v := uint64(userID.Int64)
		t.UserID = &v
	}
	t.Telefono = strPtr(telefono)
	t.Occupation = strPtr(occ)
	t.TrainingModality = strPtr(modality)
	t.LocationCountry = strPtr(country)
	t.LocationCity = strPtr(city)
	return t, nil
}

// GetByID fetches a trainer profile by id.
func (r *TrainerRepo) GetByID(ctx context.Context, id uint64) (model.Trainer, error) {
	return scanTrainer(r.DB.QueryRowContext(ctx,
		"SELECT "+trainerCols+" FROM trainers WHERE id=? LIMIT 1", id))
}

// GetByUserID fetches the trainer profile linked to an account.
func (r *TrainerRepo) GetByUserID(ctx context.Context, userID uint64) (model.Trainer, error) {
	return scanTrainer(r.DB.QueryRowContext(ctx,
		"SELECT "+trainerCols+" FROM trainers WHERE user_id=? LIMIT 1", userID))
}

// Update persists the mutable profile columns of a trainer.
func (r *TrainerRepo) Update(ctx context.Context, t model.Trainer) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE trainers SET nombre=?, apellidos=?, telefono=?, occupation=?, training_modality=?, location_country=?, location_city=? WHERE id=?",
		t.Nombre, t.Apellidos, ptrOrNil(t.Telefono), ptrOrNil(t.Occupation),
		ptrOrNil(t.TrainingModality), ptrOrNil(t.LocationCountry), ptrOrNil(t.LocationCity), t.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Row may exist with identical values; distinguish from missing.
		var one int
		if err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM trainers WHERE id=? LIMIT 1", t.ID).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
	}
	return nil
}

func ptrOrNil(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
