package access

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onform/training-backend/internal/auth"
	"github.com/onform/training-backend/internal/repository"
)

func newGuard(t *testing.T) (*Guard, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	g := NewGuard(
		repository.NewAccountRepo(db),
		repository.NewTrainerRepo(db),
		repository.NewClientRepo(db),
		repository.NewRosterRepo(db),
	)
	return g, mock
}

var trainerColNames = []string{"id", "user_id", "nombre", "apellidos", "mail", "telefono",
	"occupation", "training_modality", "location_country", "location_city",
	"is_active", "created_at", "updated_at"}

var clientColNames = []string{"id", "user_id", "nombre", "apellidos", "mail", "created_at", "updated_at"}

func trainerRow(id, userID uint64, complete bool) *sqlmock.Rows {
	now := time.Now().UTC()
	var tel, occ, mod, country, city interface{}
	if complete {
		tel, occ, mod, country, city = "+34600000000", "coach", "online", "ES", "Madrid"
	}
	return sqlmock.NewRows(trainerColNames).
		AddRow(id, userID, "Ana", "Pérez", "ana@example.com", tel, occ, mod, country, city, true, now, now)
}

func clientRow(id uint64, userID interface{}) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(clientColNames).
		AddRow(id, userID, "Carla", "Gómez", "carla@example.com", now, now)
}

func ident(id uint64, role auth.Role) auth.Identity {
	return auth.Identity{AccountID: id, Role: role, Email: "x@example.com"}
}

func expectTrainerByID(mock sqlmock.Sqlmock, id uint64, rows *sqlmock.Rows) {
	mock.ExpectQuery(regexp.QuoteMeta("FROM trainers WHERE id=?")).WithArgs(id).WillReturnRows(rows)
}

func expectTrainerByUser(mock sqlmock.Sqlmock, userID uint64, rows *sqlmock.Rows) {
	mock.ExpectQuery(regexp.QuoteMeta("FROM trainers WHERE user_id=?")).WithArgs(userID).WillReturnRows(rows)
}

func expectLink(mock sqlmock.Sqlmock, trainerID, clientID uint64, linked bool) {
	q := mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM trainer_clients WHERE trainer_id=? AND client_id=?")).
		WithArgs(trainerID, clientID)
	if linked {
		q.WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	} else {
		q.WillReturnError(sql.ErrNoRows)
	}
}

func TestTrainerSelfOrAdmin(t *testing.T) {
	t.Run("admin passes without lookup", func(t *testing.T) {
		g, mock := newGuard(t)
		assert.NoError(t, g.TrainerSelfOrAdmin(context.Background(), ident(1, auth.RoleAdmin), 77))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("athlete forbidden", func(t *testing.T) {
		g, _ := newGuard(t)
		err := g.TrainerSelfOrAdmin(context.Background(), ident(1, auth.RoleAthlete), 77)
		assert.ErrorIs(t, err, repository.ErrForbidden)
	})

	t.Run("own trainer id passes", func(t *testing.T) {
		g, mock := newGuard(t)
		expectTrainerByID(mock, 77, trainerRow(77, 1, true))
		assert.NoError(t, g.TrainerSelfOrAdmin(context.Background(), ident(1, auth.RoleTrainer), 77))
	})

	t.Run("foreign trainer id forbidden", func(t *testing.T) {
		g, mock := newGuard(t)
		expectTrainerByID(mock, 77, trainerRow(77, 2, true))
		err := g.TrainerSelfOrAdmin(context.Background(), ident(1, auth.RoleTrainer), 77)
		assert.ErrorIs(t, err, repository.ErrForbidden)
	})

	// Missing ids are 404 while foreign ids are 403; the two cases
	// must stay distinguishable.
	t.Run("unknown trainer id is not found", func(t *testing.T) {
		g, mock := newGuard(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM trainers WHERE id=?")).WithArgs(uint64(77)).
			WillReturnError(sql.ErrNoRows)
		err := g.TrainerSelfOrAdmin(context.Background(), ident(1, auth.RoleTrainer), 77)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestTrainerHasClientOrAdmin(t *testing.T) {
	t.Run("admin passes", func(t *testing.T) {
		g, _ := newGuard(t)
		assert.NoError(t, g.TrainerHasClientOrAdmin(context.Background(), ident(1, auth.RoleAdmin), 5))
	})

	t.Run("linked client passes", func(t *testing.T) {
		g, mock := newGuard(t)
		expectTrainerByUser(mock, 1, trainerRow(77, 1, true))
		expectLink(mock, 77, 5, true)
		assert.NoError(t, g.TrainerHasClientOrAdmin(context.Background(), ident(1, auth.RoleTrainer), 5))
	})

	t.Run("unlinked client forbidden", func(t *testing.T) {
		g, mock := newGuard(t)
		expectTrainerByUser(mock, 1, trainerRow(77, 1, true))
		expectLink(mock, 77, 5, false)
		err := g.TrainerHasClientOrAdmin(context.Background(), ident(1, auth.RoleTrainer), 5)
		assert.ErrorIs(t, err, repository.ErrForbidden)
	})

	// A trainer account without a trainer row gets 403, not 404: the
	// missing row describes the caller, not the target resource.
	t.Run("missing trainer profile forbidden", func(t *testing.T) {
		g, mock := newGuard(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM trainers WHERE user_id=?")).WithArgs(uint64(1)).
			WillReturnError(sql.ErrNoRows)
		err := g.TrainerHasClientOrAdmin(context.Background(), ident(1, auth.RoleTrainer), 5)
		assert.ErrorIs(t, err, repository.ErrForbidden)
	})
}

func TestClientVisible(t *testing.T) {
	t.Run("admin passes", func(t *testing.T) {
		g, _ := newGuard(t)
		assert.NoError(t, g.ClientVisible(context.Background(), ident(1, auth.RoleAdmin), 5))
	})

	t.Run("trainer with link passes", func(t *testing.T) {
		g, mock := newGuard(t)
		expectTrainerByUser(mock, 1, trainerRow(77, 1, true))
		expectLink(mock, 77, 5, true)
		assert.NoError(t, g.ClientVisible(context.Background(), ident(1, auth.RoleTrainer), 5))
	})

	t.Run("athlete sees own profile", func(t *testing.T) {
		g, mock := newGuard(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM client_profiles WHERE id=?")).WithArgs(uint64(5)).
			WillReturnRows(clientRow(5, 2))
		assert.NoError(t, g.ClientVisible(context.Background(), ident(2, auth.RoleAthlete), 5))
	})

	t.Run("athlete denied foreign profile", func(t *testing.T) {
		g, mock := newGuard(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM client_profiles WHERE id=?")).WithArgs(uint64(5)).
			WillReturnRows(clientRow(5, 99))
		err := g.ClientVisible(context.Background(), ident(2, auth.RoleAthlete), 5)
		assert.ErrorIs(t, err, repository.ErrForbidden)
	})

	t.Run("athlete gets not found for missing row", func(t *testing.T) {
		g, mock := newGuard(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM client_profiles WHERE id=?")).WithArgs(uint64(5)).
			WillReturnError(sql.ErrNoRows)
		err := g.ClientVisible(context.Background(), ident(2, auth.RoleAthlete), 5)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("athlete denied unclaimed profile", func(t *testing.T) {
		g, mock := newGuard(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM client_profiles WHERE id=?")).WithArgs(uint64(5)).
			WillReturnRows(clientRow(5, nil))
		err := g.ClientVisible(context.Background(), ident(2, auth.RoleAthlete), 5)
		assert.ErrorIs(t, err, repository.ErrForbidden)
	})
}

func TestVisibleForOptionalClient(t *testing.T) {
	t.Run("trainer passes without filter", func(t *testing.T) {
		g, _ := newGuard(t)
		assert.NoError(t, g.VisibleForOptionalClient(context.Background(), ident(1, auth.RoleTrainer), nil))
	})

	// An unscoped list for an athlete would be a view over other
	// people's data.
	t.Run("athlete denied without filter", func(t *testing.T) {
		g, _ := newGuard(t)
		err := g.VisibleForOptionalClient(context.Background(), ident(2, auth.RoleAthlete), nil)
		assert.ErrorIs(t, err, repository.ErrForbidden)
	})

	t.Run("athlete with own filter passes", func(t *testing.T) {
		g, mock := newGuard(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM client_profiles WHERE id=?")).WithArgs(uint64(5)).
			WillReturnRows(clientRow(5, 2))
		id := uint64(5)
		assert.NoError(t, g.VisibleForOptionalClient(context.Background(), ident(2, auth.RoleAthlete), &id))
	})
}

func accountRows(verified bool) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{"id", "email", "username", "password_hash", "full_name",
		"is_active", "is_verified", "token_version", "failed_login_attempts", "lockout_until",
		"email_otp_hash", "email_otp_expires_at", "tos_accepted_at", "tos_version",
		"created_at", "updated_at"}).
		AddRow(1, "ana@example.com", "ana@example.com", "hash", "Ana Pérez",
			true, verified, 0, 0, nil, nil, nil, nil, nil, now, now)
}

func expectAccount(mock sqlmock.Sqlmock, verified bool) {
	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts WHERE id=?")).WithArgs(uint64(1)).
		WillReturnRows(accountRows(verified))
}

func TestVerifiedAndProfileComplete(t *testing.T) {
	t.Run("verified complete trainer passes", func(t *testing.T) {
		g, mock := newGuard(t)
		expectAccount(mock, true)
		expectTrainerByUser(mock, 1, trainerRow(77, 1, true))
		assert.NoError(t, g.VerifiedAndProfileComplete(context.Background(), ident(1, auth.RoleTrainer)))
	})

	t.Run("unverified rejected first", func(t *testing.T) {
		g, mock := newGuard(t)
		expectAccount(mock, false)
		err := g.VerifiedAndProfileComplete(context.Background(), ident(1, auth.RoleTrainer))
		assert.ErrorIs(t, err, ErrNotVerified)
	})

	t.Run("incomplete profile rejected with distinct reason", func(t *testing.T) {
		g, mock := newGuard(t)
		expectAccount(mock, true)
		expectTrainerByUser(mock, 1, trainerRow(77, 1, false))
		err := g.VerifiedAndProfileComplete(context.Background(), ident(1, auth.RoleTrainer))
		assert.ErrorIs(t, err, ErrProfileIncomplete)
	})

	t.Run("admin exempt from profile requirement", func(t *testing.T) {
		g, mock := newGuard(t)
		expectAccount(mock, true)
		assert.NoError(t, g.VerifiedAndProfileComplete(context.Background(), ident(1, auth.RoleAdmin)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
