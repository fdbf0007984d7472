package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/onform/training-backend/internal/access"
	"github.com/onform/training-backend/internal/repository"
)

// fail translates the repository and guard sentinels into the HTTP
// error contract: 404 for missing rows, 403 for denied access (with
// the specific gate reason when there is one), 429 for an active
// lockout, 401 for bad credentials, 409 for uniqueness conflicts.
// Anything unrecognized becomes an opaque 500.
func fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, access.ErrNotVerified):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "email verification required"})
	case errors.Is(err, access.ErrProfileIncomplete):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "complete profile required"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrLocked):
		return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "too many failed attempts, try again later"})
	case errors.Is(err, repository.ErrInvalidCredential):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	case errors.Is(err, repository.ErrEmailExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
	case errors.Is(err, repository.ErrDuplicateClientEmail):
		return c.JSON(http.StatusConflict, echo.Map{"error": "another client with this email is already linked to this trainer"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflict"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
