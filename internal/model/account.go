package model

import "time"

// Account represents an identity record as stored in the `accounts`
// table. Email and Username are nullable: a soft-deleted account keeps
// its row for audit purposes but hands both values back so the same
// email can register again. The json tags are omitted because these
// structs are used internally by the repository layer; handlers define
// separate response types.
//
// Fields:
//  ID                  – primary key identifier of the account.
//  Email               – unique email address (nil after soft delete).
//  Username            – unique username (nil after soft delete).
//  PasswordHash        – bcrypt hashed password.
//  FullName            – display name ("nombre apellidos").
//  IsActive            – whether the account may authenticate.
//  IsVerified          – whether the email address has been confirmed.
//  TokenVersion        – monotonic counter; bumping it invalidates every
//                        previously issued access token.
//  FailedLoginAttempts – consecutive failed password checks.
//  LockoutUntil        – end of the active lockout window (nil if none).
//  EmailOTPHash        – SHA-256 hex of the pending verification code.
//  EmailOTPExpiresAt   – expiry of the pending verification code.
//  TOSAcceptedAt       – when the terms of service were accepted.
//  TOSVersion          – version string of the accepted terms.
//  CreatedAt           – timestamp of creation.
//  UpdatedAt           – timestamp of last update.
type Account struct {
	ID                  uint64     // accounts.id
	Email               *string    // accounts.email (nullable)
	Username            *string    // accounts.username (nullable)
	PasswordHash        string     // accounts.password_hash
	FullName            string     // accounts.full_name
	IsActive            bool       // accounts.is_active
	IsVerified          bool       // accounts.is_verified
	TokenVersion        int        // accounts.token_version
	FailedLoginAttempts int        // accounts.failed_login_attempts
	LockoutUntil        *time.Time // accounts.lockout_until (nullable)
	EmailOTPHash        *string    // accounts.email_otp_hash (nullable)
	EmailOTPExpiresAt   *time.Time // accounts.email_otp_expires_at (nullable)
	TOSAcceptedAt       *time.Time // accounts.tos_accepted_at (nullable)
	TOSVersion          *string    // accounts.tos_version (nullable)
	CreatedAt           time.Time  // accounts.created_at
	UpdatedAt           time.Time  // accounts.updated_at
}

// EmailOrEmpty returns the email value or "" for soft-deleted accounts.
func (a Account) EmailOrEmpty() string {
	if a.Email == nil {
		return ""
	}
	return *a.Email
}

// Role represents a row in the `roles` table. Roles are created lazily
// the first time an account is assigned a name that does not exist yet
// and are never deleted in normal operation.
//
// Fields:
//  ID          – numeric identifier of the role.
//  Name        – unique role name (admin, trainer, athlete).
//  Description – free-form description.
type Role struct {
	ID          uint64 // roles.id
	Name        string // roles.name
	Description string // roles.description
}
