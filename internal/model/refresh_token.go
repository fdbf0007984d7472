package model

import "time"

// RefreshToken models an entry in the `refresh_tokens` table. Each
// refresh token belongs to one account and carries metadata for expiry
// and revocation. The plain token is never stored; only its SHA-256
// hash. A token is valid iff RevokedAt is null and ExpiresAt is in the
// future.
//
// Fields:
//  ID        – primary key identifier.
//  AccountID – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  UserAgent – User-Agent header captured at issue time.
//  IPAddress – client address captured at issue time.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	AccountID uint64     // refresh_tokens.account_id
	TokenHash string     // refresh_tokens.token_hash
	UserAgent *string    // refresh_tokens.user_agent (nullable)
	IPAddress *string    // refresh_tokens.ip_address (nullable)
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
