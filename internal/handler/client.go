package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/onform/training-backend/internal/access"
	"github.com/onform/training-backend/internal/auth"
	"github.com/onform/training-backend/internal/middleware"
	"github.com/onform/training-backend/internal/model"
	"github.com/onform/training-backend/internal/repository"
)

// ClientHandler serves client profiles under the visibility rules:
// admins see everything, trainers see their roster, athletes see only
// themselves.
type ClientHandler struct {
	Clients  *repository.ClientRepo
	Trainers *repository.TrainerRepo
	Roster   *repository.RosterRepo
	Guard    *access.Guard
}

func NewClientHandler(clients *repository.ClientRepo, trainers *repository.TrainerRepo, roster *repository.RosterRepo, guard *access.Guard) *ClientHandler {
	return &ClientHandler{Clients: clients, Trainers: trainers, Roster: roster, Guard: guard}
}

type clientOut struct {
	ID        uint64  `json:"id"`
	UserID    *uint64 `json:"user_id"`
	Nombre    string  `json:"nombre"`
	Apellidos string  `json:"apellidos"`
	Mail      string  `json:"mail"`
}

func clientToOut(cl model.ClientProfile) clientOut {
	return clientOut{
		ID:        cl.ID,
		UserID:    cl.UserID,
		Nombre:    cl.Nombre,
		Apellidos: cl.Apellidos,
		Mail:      cl.Mail,
	}
}

// Get returns one client profile after the visibility check.
func (h *ClientHandler) Get(c echo.Context) error {
	ident, ok := middleware.CurrentIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	clientID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid client id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Guard.ClientVisible(ctx, ident, clientID); err != nil {
		return fail(c, err)
	}
	cl, err := h.Clients.GetByID(ctx, clientID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, clientToOut(cl))
}

// List returns the client profiles visible to the caller, optionally
// narrowed to one client via ?client_id=. Athletes must supply the
// filter: without it the list would be a view over other people's data.
func (h *ClientHandler) List(c echo.Context) error {
	ident, ok := middleware.CurrentIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var clientID *uint64
	if raw := c.QueryParam("client_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid client_id"})
		}
		clientID = &id
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Guard.VisibleForOptionalClient(ctx, ident, clientID); err != nil {
		return fail(c, err)
	}

	if clientID != nil {
		cl, err := h.Clients.GetByID(ctx, *clientID)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(http.StatusOK, []clientOut{clientToOut(cl)})
	}

	var (
		clients []model.ClientProfile
		err     error
	)
	switch ident.Role {
	case auth.RoleAdmin:
		clients, err = h.Clients.ListAll(ctx, 200, 0)
	case auth.RoleTrainer:
		var t model.Trainer
		t, err = h.Trainers.GetByUserID(ctx, ident.AccountID)
		if err != nil {
			return fail(c, err)
		}
		clients, err = h.Roster.ClientsForTrainer(ctx, t.ID)
	default:
		return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
	}
	if err != nil {
		return fail(c, err)
	}

	out := make([]clientOut, 0, len(clients))
	for _, cl := range clients {
		out = append(out, clientToOut(cl))
	}
	return c.JSON(http.StatusOK, out)
}
