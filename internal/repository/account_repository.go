package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/onform/training-backend/internal/auth"
	"github.com/onform/training-backend/internal/model"
)

// AccountRepo is the credential store: account rows, role links,
// lockout counters and the token_version revocation counter.
type AccountRepo struct{ DB *sql.DB }

func NewAccountRepo(db *sql.DB) *AccountRepo { return &AccountRepo{DB: db} }

// LockoutPolicy is the per-account throttle applied by Authenticate:
// MaxAttempts consecutive failures arm a lock of Duration.
type LockoutPolicy struct {
	MaxAttempts int
	Duration    time.Duration
}

const accountCols = "id,email,username,password_hash,full_name,is_active,is_verified," +
	"token_version,failed_login_attempts,lockout_until,email_otp_hash,email_otp_expires_at," +
	"tos_accepted_at,tos_version,created_at,updated_at"

func scanAccount(row *sql.Row) (model.Account, error) {
	var (
		a          model.Account
		email      sql.NullString
		username   sql.NullString
		lockout    sql.NullTime
		otpHash    sql.NullString
		otpExpires sql.NullTime
		tosAt      sql.NullTime
		tosVer     sql.NullString
	)
	err := row.Scan(&a.ID, &email, &username, &a.PasswordHash, &a.FullName, &a.IsActive,
		&a.IsVerified, &a.TokenVersion, &a.FailedLoginAttempts, &lockout, &otpHash,
		&otpExpires, &tosAt, &tosVer, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Account{}, ErrNotFound
		}
		return model.Account{}, err
	}
	if email.Valid {
		a.Email = &email.String
	}
	if username.Valid {
		a.Username = &username.String
	}
	if lockout.Valid {
		a.LockoutUntil = &lockout.Time
	}
	if otpHash.Valid {
		a.EmailOTPHash = &otpHash.String
	}
	if otpExpires.Valid {
		a.EmailOTPExpiresAt = &otpExpires.Time
	}
	if tosAt.Valid {
		a.TOSAcceptedAt = &tosAt.Time
	}
	if tosVer.Valid {
		a.TOSVersion = &tosVer.String
	}
	return a, nil
}

// GetByID fetches an account by id.
func (r *AccountRepo) GetByID(ctx context.Context, id uint64) (model.Account, error) {
	return scanAccount(r.DB.QueryRowContext(ctx,
		"SELECT "+accountCols+" FROM accounts WHERE id=? LIMIT 1", id))
}

// GetByEmail fetches an account by normalized email.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanAccount(r.DB.QueryRowContext(ctx,
		"SELECT "+accountCols+" FROM accounts WHERE email=? LIMIT 1", email))
}

// CreateParams carries everything registration persists in one
// transaction: the account row, its role link, and the adopted or
// freshly created trainer/client profile.
type CreateParams struct {
	Email       string
	Password    string
	Nombre      string
	Apellidos   string
	Role        auth.Role
	BcryptCost  int
	TOSAccepted bool
	TOSVersion  string
}

// Create inserts an account with its role assignment and links the
// business profile matching the email, creating a fresh one when no
// placeholder exists. The role row itself is created lazily on first
// use.
func (r *AccountRepo) Create(ctx context.Context, p CreateParams) (uint64, error) {
	email := strings.ToLower(strings.TrimSpace(p.Email))
	hash, err := auth.HashPassword(p.Password, p.BcryptCost)
	if err != nil {
		return 0, err
	}
	fullName := strings.TrimSpace(p.Nombre + " " + p.Apellidos)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var tosAt interface{}
	var tosVer interface{}
	if p.TOSAccepted {
		tosAt = time.Now().UTC()
		tosVer = p.TOSVersion
	}
	res, err := tx.ExecContext(ctx,
		"INSERT INTO accounts (email, username, password_hash, full_name, tos_accepted_at, tos_version) VALUES (?,?,?,?,?,?)",
		email, email, hash, fullName, tosAt, tosVer)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	accountID := uint64(id)

	if err := assignRoleTx(ctx, tx, accountID, string(p.Role)); err != nil {
		return 0, err
	}

	// Adopt a pre-registration placeholder profile by email, or create
	// a fresh profile. The unique user_id column keeps one account from
	// adopting two profiles.
	switch p.Role {
	case auth.RoleTrainer:
		res, err := tx.ExecContext(ctx,
			"UPDATE trainers SET user_id=? WHERE LOWER(mail)=? AND user_id IS NULL LIMIT 1",
			accountID, email)
		if err != nil {
			return 0, err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO trainers (user_id, nombre, apellidos, mail) VALUES (?,?,?,?)",
				accountID, p.Nombre, p.Apellidos, email); err != nil {
				return 0, err
			}
		}
	case auth.RoleAthlete:
		res, err := tx.ExecContext(ctx,
			"UPDATE client_profiles SET user_id=? WHERE LOWER(mail)=? AND user_id IS NULL LIMIT 1",
			accountID, email)
		if err != nil {
			return 0, err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO client_profiles (user_id, nombre, apellidos, mail) VALUES (?,?,?,?)",
				accountID, p.Nombre, p.Apellidos, email); err != nil {
				return 0, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return accountID, nil
}

func assignRoleTx(ctx context.Context, tx *sql.Tx, accountID uint64, roleName string) error {
	role := model.Role{Name: roleName, Description: "System role: " + roleName}
	err := tx.QueryRowContext(ctx, "SELECT id FROM roles WHERE name=? LIMIT 1", role.Name).Scan(&role.ID)
	if errors.Is(err, sql.ErrNoRows) {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO roles (name, description) VALUES (?,?)",
			role.Name, role.Description)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		role.ID = uint64(id)
	} else if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		"INSERT IGNORE INTO account_roles (account_id, role_id) VALUES (?,?)",
		accountID, role.ID)
	return err
}

// PrimaryRole resolves the first role linked to an account. Accounts
// without a known role fall back to trainer, matching historical data
// created before role links existed.
func (r *AccountRepo) PrimaryRole(ctx context.Context, accountID uint64) (auth.Role, error) {
	var name string
	err := r.DB.QueryRowContext(ctx,
		"SELECT r.name FROM roles r JOIN account_roles ar ON ar.role_id=r.id WHERE ar.account_id=? ORDER BY ar.role_id LIMIT 1",
		accountID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.RoleTrainer, nil
	}
	if err != nil {
		return "", err
	}
	role, ok := auth.ParseRole(name)
	if !ok {
		return auth.RoleAthlete, nil
	}
	return role, nil
}

// Authenticate verifies an email/password pair under the lockout
// policy. The lockout window is checked before the password so a
// locked account is rejected even with correct credentials; a failed
// check increments the counter and arms the lock at the threshold; a
// successful check fully resets the counter and the window.
func (r *AccountRepo) Authenticate(ctx context.Context, email, password string, policy LockoutPolicy) (model.Account, error) {
	acc, err := r.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.Account{}, ErrInvalidCredential
		}
		return model.Account{}, err
	}

	now := time.Now().UTC()
	if acc.LockoutUntil != nil && acc.LockoutUntil.After(now) {
		return model.Account{}, ErrLocked
	}

	if !auth.VerifyPassword(acc.PasswordHash, password) {
		attempts := acc.FailedLoginAttempts + 1
		if attempts >= policy.MaxAttempts {
			until := now.Add(policy.Duration)
			_, uerr := r.DB.ExecContext(ctx,
				"UPDATE accounts SET failed_login_attempts=0, lockout_until=? WHERE id=?",
				until, acc.ID)
			if uerr != nil {
				return model.Account{}, uerr
			}
		} else {
			_, uerr := r.DB.ExecContext(ctx,
				"UPDATE accounts SET failed_login_attempts=? WHERE id=?",
				attempts, acc.ID)
			if uerr != nil {
				return model.Account{}, uerr
			}
		}
		return model.Account{}, ErrInvalidCredential
	}

	if acc.FailedLoginAttempts != 0 || acc.LockoutUntil != nil {
		if _, err := r.DB.ExecContext(ctx,
			"UPDATE accounts SET failed_login_attempts=0, lockout_until=NULL WHERE id=?",
			acc.ID); err != nil {
			return model.Account{}, err
		}
		acc.FailedLoginAttempts = 0
		acc.LockoutUntil = nil
	}
	return acc, nil
}

// SetPassword hashes and stores a new password.
func (r *AccountRepo) SetPassword(ctx context.Context, accountID uint64, plain string, cost int) error {
	hash, err := auth.HashPassword(plain, cost)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, "UPDATE accounts SET password_hash=? WHERE id=?", hash, accountID)
	return err
}

// BumpTokenVersion invalidates every previously issued access token for
// the account. Refresh tokens are revoked separately.
func (r *AccountRepo) BumpTokenVersion(ctx context.Context, accountID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE accounts SET token_version=token_version+1 WHERE id=?", accountID)
	return err
}

// UpdateProfile updates email and/or full name. A nil pointer leaves
// the field untouched. An email collision surfaces as ErrEmailExists.
func (r *AccountRepo) UpdateProfile(ctx context.Context, accountID uint64, email, fullName *string) error {
	sets := make([]string, 0, 2)
	args := make([]interface{}, 0, 3)
	if email != nil {
		sets = append(sets, "email=?")
		args = append(args, strings.ToLower(strings.TrimSpace(*email)))
	}
	if fullName != nil {
		sets = append(sets, "full_name=?")
		args = append(args, *fullName)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, accountID)
	_, err := r.DB.ExecContext(ctx,
		"UPDATE accounts SET "+strings.Join(sets, ", ")+" WHERE id=?", args...)
	if err != nil && isDuplicate(err) {
		return ErrEmailExists
	}
	return err
}

// MarkVerified flips the verified flag.
func (r *AccountRepo) MarkVerified(ctx context.Context, accountID uint64) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE accounts SET is_verified=1 WHERE id=?", accountID)
	return err
}

// SetOTP stores a pending verification code hash with its expiry,
// replacing any previous code.
func (r *AccountRepo) SetOTP(ctx context.Context, accountID uint64, codeHash string, expires time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE accounts SET email_otp_hash=?, email_otp_expires_at=? WHERE id=?",
		codeHash, expires, accountID)
	return err
}

// ConsumeOTP atomically verifies and clears a pending code: the single
// UPDATE only matches while the stored hash equals the presented one
// and has not expired, so a code can be used exactly once.
func (r *AccountRepo) ConsumeOTP(ctx context.Context, accountID uint64, codeHash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE accounts SET email_otp_hash=NULL, email_otp_expires_at=NULL, is_verified=1 "+
			"WHERE id=? AND email_otp_hash=? AND email_otp_expires_at > ?",
		accountID, codeHash, time.Now().UTC())
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrInvalidCredential
	}
	return nil
}

// SoftDelete deactivates the account and clears email and username so
// the same address can register again, detaches trainer and client
// profiles, and removes refresh tokens and role links. The row itself
// is kept for audit.
func (r *AccountRepo) SoftDelete(ctx context.Context, accountID uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"UPDATE accounts SET is_active=0, email=NULL, username=NULL WHERE id=?", accountID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE trainers SET user_id=NULL WHERE user_id=?", accountID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE client_profiles SET user_id=NULL WHERE user_id=?", accountID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE account_id=?", accountID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM account_roles WHERE account_id=?", accountID); err != nil {
		return err
	}
	return tx.Commit()
}

func isDuplicate(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
