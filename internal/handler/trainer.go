package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/onform/training-backend/internal/access"
	"github.com/onform/training-backend/internal/middleware"
	"github.com/onform/training-backend/internal/model"
	"github.com/onform/training-backend/internal/repository"
)

// TrainerHandler serves trainer profiles and roster management. Every
// endpoint runs behind the visibility guard, so a trainer only ever
// sees their own profile and clients unless they are an admin.
type TrainerHandler struct {
	Trainers *repository.TrainerRepo
	Roster   *repository.RosterRepo
	Guard    *access.Guard
}

func NewTrainerHandler(trainers *repository.TrainerRepo, roster *repository.RosterRepo, guard *access.Guard) *TrainerHandler {
	return &TrainerHandler{Trainers: trainers, Roster: roster, Guard: guard}
}

type trainerUpdateReq struct {
	Nombre           *string `json:"nombre"`
	Apellidos        *string `json:"apellidos"`
	Telefono         *string `json:"telefono"`
	Occupation       *string `json:"occupation"`
	TrainingModality *string `json:"training_modality"`
	LocationCountry  *string `json:"location_country"`
	LocationCity     *string `json:"location_city"`
}

type trainerOut struct {
	ID               uint64  `json:"id"`
	UserID           *uint64 `json:"user_id"`
	Nombre           string  `json:"nombre"`
	Apellidos        string  `json:"apellidos"`
	Mail             string  `json:"mail"`
	Telefono         *string `json:"telefono"`
	Occupation       *string `json:"occupation"`
	TrainingModality *string `json:"training_modality"`
	LocationCountry  *string `json:"location_country"`
	LocationCity     *string `json:"location_city"`
	ProfileComplete  bool    `json:"profile_complete"`
}

func trainerToOut(t model.Trainer) trainerOut {
	return trainerOut{
		ID:               t.ID,
		UserID:           t.UserID,
		Nombre:           t.Nombre,
		Apellidos:        t.Apellidos,
		Mail:             t.Mail,
		Telefono:         t.Telefono,
		Occupation:       t.Occupation,
		TrainingModality: t.TrainingModality,
		LocationCountry:  t.LocationCountry,
		LocationCity:     t.LocationCity,
		ProfileComplete:  t.ProfileComplete(),
	}
}

func pathID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

// Get returns one trainer profile, visible to the owner or an admin.
// Unknown ids yield 404 before any ownership check so that existence is
// not leaked through a 403.
func (h *TrainerHandler) Get(c echo.Context) error {
	ident, ok := middleware.CurrentIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	trainerID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trainer id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Guard.TrainerSelfOrAdmin(ctx, ident, trainerID); err != nil {
		return fail(c, err)
	}
	t, err := h.Trainers.GetByID(ctx, trainerID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, trainerToOut(t))
}

// Update patches the trainer's business profile. Absent fields are left
// untouched; present fields overwrite, including with empty strings.
func (h *TrainerHandler) Update(c echo.Context) error {
	ident, ok := middleware.CurrentIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	trainerID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trainer id"})
	}
	var req trainerUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Guard.TrainerSelfOrAdmin(ctx, ident, trainerID); err != nil {
		return fail(c, err)
	}
	t, err := h.Trainers.GetByID(ctx, trainerID)
	if err != nil {
		return fail(c, err)
	}

	if req.Nombre != nil {
		t.Nombre = *req.Nombre
	}
	if req.Apellidos != nil {
		t.Apellidos = *req.Apellidos
	}
	if req.Telefono != nil {
		t.Telefono = req.Telefono
	}
	if req.Occupation != nil {
		t.Occupation = req.Occupation
	}
	if req.TrainingModality != nil {
		t.TrainingModality = req.TrainingModality
	}
	if req.LocationCountry != nil {
		t.LocationCountry = req.LocationCountry
	}
	if req.LocationCity != nil {
		t.LocationCity = req.LocationCity
	}

	if err := h.Trainers.Update(ctx, t); err != nil {
		return fail(c, err)
	}
	t, err = h.Trainers.GetByID(ctx, trainerID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, trainerToOut(t))
}

// ListClients returns the trainer's roster ordered by surname.
func (h *TrainerHandler) ListClients(c echo.Context) error {
	ident, ok := middleware.CurrentIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	trainerID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trainer id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Guard.TrainerSelfOrAdmin(ctx, ident, trainerID); err != nil {
		return fail(c, err)
	}
	clients, err := h.Roster.ClientsForTrainer(ctx, trainerID)
	if err != nil {
		return fail(c, err)
	}
	out := make([]clientOut, 0, len(clients))
	for _, cl := range clients {
		out = append(out, clientToOut(cl))
	}
	return c.JSON(http.StatusOK, out)
}

// LinkClient adds a client to the trainer's roster. Requires a verified
// account with a complete trainer profile; two roster entries may never
// share an email, compared case-insensitively.
func (h *TrainerHandler) LinkClient(c echo.Context) error {
	ident, ok := middleware.CurrentIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	trainerID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trainer id"})
	}
	var req struct {
		ClientID uint64 `json:"client_id"`
	}
	if err := c.Bind(&req); err != nil || req.ClientID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "client_id required"})
	}
	clientID := req.ClientID

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Guard.TrainerSelfOrAdmin(ctx, ident, trainerID); err != nil {
		return fail(c, err)
	}
	if err := h.Guard.VerifiedAndProfileComplete(ctx, ident); err != nil {
		return fail(c, err)
	}
	link, err := h.Roster.Link(ctx, trainerID, clientID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":         link.ID,
		"trainer_id": link.TrainerID,
		"client_id":  link.ClientID,
		"created_at": link.CreatedAt,
	})
}

// UnlinkClient removes a roster entry. 404 when no link exists.
func (h *TrainerHandler) UnlinkClient(c echo.Context) error {
	ident, ok := middleware.CurrentIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	trainerID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trainer id"})
	}
	clientID, err := pathID(c, "client_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid client id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Guard.TrainerSelfOrAdmin(ctx, ident, trainerID); err != nil {
		return fail(c, err)
	}
	if err := h.Roster.Unlink(ctx, trainerID, clientID); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
