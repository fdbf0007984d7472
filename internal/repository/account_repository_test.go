package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onform/training-backend/internal/auth"
)

var testPolicy = LockoutPolicy{MaxAttempts: 5, Duration: 15 * time.Minute}

func mustHash(t *testing.T, plain string) string {
	t.Helper()
	h, err := auth.HashPassword(plain, 4)
	require.NoError(t, err)
	return h
}

func accountRow(hash string, attempts int, lockout interface{}) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(strings.Split(accountCols, ",")).
		AddRow(1, "a@b.com", "a@b.com", hash, "Ana Pérez", true, true, 0, attempts, lockout,
			nil, nil, nil, nil, now, now)
}

func expectGetByEmail(mock sqlmock.Sqlmock, rows *sqlmock.Rows) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+accountCols+" FROM accounts WHERE email=?")).
		WithArgs("a@b.com").
		WillReturnRows(rows)
}

func TestGetByEmailNormalizes(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAccountRepo(db)

	expectGetByEmail(mock, accountRow(mustHash(t, "Right1234"), 0, nil))

	acc, err := repo.GetByEmail(context.Background(), "  A@B.COM ")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", acc.EmailOrEmpty())
}

func TestAuthenticateSuccess(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAccountRepo(db)

	expectGetByEmail(mock, accountRow(mustHash(t, "Right1234"), 0, nil))

	acc, err := repo.Authenticate(context.Background(), "a@b.com", "Right1234", testPolicy)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), acc.ID)
	// No counter reset needed when nothing was pending.
	assert.NoError(t, mock.ExpectationsWereMet())
}

// The lockout window is checked before the password: a locked account
// is rejected even when the credentials are correct, and no counter
// write happens.
func TestAuthenticateLockedRejectsCorrectPassword(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAccountRepo(db)

	lockedUntil := time.Now().UTC().Add(10 * time.Minute)
	expectGetByEmail(mock, accountRow(mustHash(t, "Right1234"), 0, lockedUntil))

	_, err := repo.Authenticate(context.Background(), "a@b.com", "Right1234", testPolicy)
	assert.ErrorIs(t, err, ErrLocked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthenticateWrongPasswordIncrements(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAccountRepo(db)

	expectGetByEmail(mock, accountRow(mustHash(t, "Right1234"), 2, nil))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts SET failed_login_attempts=? WHERE id=?")).
		WithArgs(3, uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := repo.Authenticate(context.Background(), "a@b.com", "Wrong1234", testPolicy)
	assert.ErrorIs(t, err, ErrInvalidCredential)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// The failure that reaches the threshold arms the lock and resets the
// counter, so the window restarts cleanly after it expires.
func TestAuthenticateThresholdArmsLockout(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAccountRepo(db)

	expectGetByEmail(mock, accountRow(mustHash(t, "Right1234"), 4, nil))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts SET failed_login_attempts=0, lockout_until=? WHERE id=?")).
		WithArgs(sqlmock.AnyArg(), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := repo.Authenticate(context.Background(), "a@b.com", "Wrong1234", testPolicy)
	assert.ErrorIs(t, err, ErrInvalidCredential)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// An expired lock no longer blocks; a successful login afterwards
// clears the stale lockout timestamp.
func TestAuthenticateExpiredLockResets(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAccountRepo(db)

	expired := time.Now().UTC().Add(-time.Minute)
	expectGetByEmail(mock, accountRow(mustHash(t, "Right1234"), 0, expired))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts SET failed_login_attempts=0, lockout_until=NULL WHERE id=?")).
		WithArgs(uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	acc, err := repo.Authenticate(context.Background(), "a@b.com", "Right1234", testPolicy)
	require.NoError(t, err)
	assert.Zero(t, acc.FailedLoginAttempts)
	assert.Nil(t, acc.LockoutUntil)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthenticateUnknownEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAccountRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+accountCols+" FROM accounts WHERE email=?")).
		WithArgs("nobody@b.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Authenticate(context.Background(), "nobody@b.com", "Right1234", testPolicy)
	// Indistinguishable from a wrong password.
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestConsumeOTP(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAccountRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts SET email_otp_hash=NULL, email_otp_expires_at=NULL, is_verified=1")).
		WithArgs(uint64(1), "codehash", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.ConsumeOTP(context.Background(), 1, "codehash"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Wrong, expired and already-consumed codes all fall out of the single
// guarded UPDATE the same way.
func TestConsumeOTPMiss(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAccountRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts SET email_otp_hash=NULL")).
		WithArgs(uint64(1), "wrong", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.ConsumeOTP(context.Background(), 1, "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestBumpTokenVersion(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAccountRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts SET token_version=token_version+1 WHERE id=?")).
		WithArgs(uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.BumpTokenVersion(context.Background(), 1))
}

func TestUpdateProfileDuplicateEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAccountRepo(db)

	email := "taken@b.com"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts SET email=? WHERE id=?")).
		WithArgs("taken@b.com", uint64(1)).
		WillReturnError(errors.New("Error 1062: Duplicate entry 'taken@b.com' for key 'accounts.email'"))

	err := repo.UpdateProfile(context.Background(), 1, &email, nil)
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestSoftDelete(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAccountRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts SET is_active=0, email=NULL, username=NULL WHERE id=?")).
		WithArgs(uint64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE trainers SET user_id=NULL WHERE user_id=?")).
		WithArgs(uint64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE client_profiles SET user_id=NULL WHERE user_id=?")).
		WithArgs(uint64(1)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM refresh_tokens WHERE account_id=?")).
		WithArgs(uint64(1)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM account_roles WHERE account_id=?")).
		WithArgs(uint64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.SoftDelete(context.Background(), 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPrimaryRoleFallback(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAccountRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT r.name FROM roles r JOIN account_roles ar")).
		WithArgs(uint64(1)).
		WillReturnError(sql.ErrNoRows)

	role, err := repo.PrimaryRole(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleTrainer, role)
}
