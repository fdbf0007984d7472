// Package repository defines error types that are reused across multiple
// repositories. These sentinel values let higher layers such as
// handlers distinguish failure scenarios: ErrNotFound maps to 404,
// ErrForbidden to 403, ErrLocked to 429, and the credential errors to
// 401 at the HTTP boundary.
package repository

import "errors"

// ErrNotFound is returned when a referenced row does not exist at all.
// Handlers translate this into an HTTP 404 response, keeping it
// distinct from ErrForbidden so callers can tell "doesn't exist" from
// "exists but hidden from you".
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller's identity resolved but it
// lacks rights over the target resource. Handlers translate this into
// an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrEmailExists is returned when an insert or update collides with the
// unique index on accounts.email.
var ErrEmailExists = errors.New("email already registered")

// ErrDuplicateClientEmail is returned when linking a client would
// violate the per-trainer case-insensitive email uniqueness invariant.
var ErrDuplicateClientEmail = errors.New("client email already linked to this trainer")

// ErrLocked is returned while an account's lockout window is active.
// The check happens before the password is verified and the error
// carries no hint about remaining attempts.
var ErrLocked = errors.New("account temporarily locked")

// ErrInvalidCredential is returned for a wrong password, an expired,
// revoked or already-used refresh token, and a wrong or expired OTP.
var ErrInvalidCredential = errors.New("invalid credential")

// ErrConflict is returned when an operation cannot proceed because of
// conflicting state. Handlers translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")
