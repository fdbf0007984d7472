package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Scope restricts a signed token to one specific purpose so that a
// password-reset token can never be replayed against the
// email-verification endpoint or vice versa.
type Scope string

const (
	ScopePasswordReset     Scope = "password_reset"
	ScopeEmailVerification Scope = "email_verification"
)

// ErrInvalidToken covers every verification failure: bad signature,
// expiry, missing required claims, or a scope mismatch. Callers map it
// to 401 without distinguishing the cause.
var ErrInvalidToken = errors.New("invalid or expired token")

// AccessClaims is the payload of a signed access token. The subject
// carries the account email; TokenVersion is compared against the
// stored account on every request so a bump revokes the token
// immediately.
type AccessClaims struct {
	AccountID    uint64 `json:"user_id"`
	Role         string `json:"role"`
	TokenVersion int    `json:"token_version"`
	jwt.RegisteredClaims
}

// ScopedClaims is the payload of a purpose-bound token (password reset,
// email verification).
type ScopedClaims struct {
	AccountID uint64 `json:"user_id"`
	Scope     Scope  `json:"scope"`
	jwt.RegisteredClaims
}

// AccessToken pairs a serialized JWT with its expiry so handlers can
// report expires_in without re-parsing.
type AccessToken struct {
	Token string
	Exp   time.Time
}

// RefreshToken is a long-lived opaque credential. Raw goes back to the
// client; only its SHA-256 hash is ever stored.
type RefreshToken struct {
	Raw string
	Exp time.Time
}

// NewAccessToken builds and signs an HS256 access token embedding the
// account id, email (sub), role and token_version.
func NewAccessToken(secret string, accountID uint64, email string, role Role, tokenVersion int, ttlMin int) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	claims := AccessClaims{
		AccountID:    accountID,
		Role:         string(role),
		TokenVersion: tokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// VerifyAccessToken decodes and signature-checks an access token. A
// token without subject or account id is rejected even when the
// signature is valid.
func VerifyAccessToken(secret, raw string) (AccessClaims, error) {
	var claims AccessClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return AccessClaims{}, ErrInvalidToken
	}
	if claims.Subject == "" || claims.AccountID == 0 {
		return AccessClaims{}, ErrInvalidToken
	}
	return claims, nil
}

// NewScopedToken signs a purpose-bound token for password reset or
// email verification. The TTL differs per purpose and is supplied by
// the caller.
func NewScopedToken(secret string, accountID uint64, email string, scope Scope, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := ScopedClaims{
		AccountID: accountID,
		Scope:     scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// VerifyScopedToken decodes a purpose-bound token and enforces an exact
// scope match on top of the usual signature and expiry checks.
func VerifyScopedToken(secret, raw string, want Scope) (ScopedClaims, error) {
	var claims ScopedClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return ScopedClaims{}, ErrInvalidToken
	}
	if claims.Scope != want {
		return ScopedClaims{}, ErrInvalidToken
	}
	if claims.Subject == "" || claims.AccountID == 0 {
		return ScopedClaims{}, ErrInvalidToken
	}
	return claims, nil
}

// NewRefreshToken returns a high-entropy opaque token (96 hex chars)
// and its expiry.
func NewRefreshToken(ttlDays int) (RefreshToken, error) {
	raw, err := randomHex(48)
	if err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{
		Raw: raw,
		Exp: time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
	}, nil
}

// HashRefreshRaw returns the SHA-256 hex digest of a raw refresh token.
// Only the digest is persisted, so a leaked database does not yield
// usable tokens.
func HashRefreshRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
