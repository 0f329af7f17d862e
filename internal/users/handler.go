package users

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/atlas-qms/atlas-qms/internal/authz"
	"github.com/atlas-qms/atlas-qms/internal/platform/httpx"
	"github.com/atlas-qms/atlas-qms/internal/shared"
)

// Handler exposes user administration endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers user routes. All routes are admin only.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(shared.RequireRole(authz.RoleAdmin))
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
	})
}

type userPayload struct {
	ID        uuid.UUID  `json:"id"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	Role      string     `json:"role"`
	RoleLabel string     `json:"role_label"`
	ServiceID *uuid.UUID `json:"service_id,omitempty"`
	LineID    *uuid.UUID `json:"line_id,omitempty"`
	TeamID    *uuid.UUID `json:"team_id,omitempty"`
	PostID    *uuid.UUID `json:"post_id,omitempty"`
	IsActive  bool       `json:"is_active"`
}

type createUserRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Name      string `json:"name" validate:"required,min=2"`
	Password  string `json:"password" validate:"required,min=8"`
	Role      string `json:"role" validate:"required"`
	ServiceID string `json:"service_id" validate:"omitempty,uuid"`
	LineID    string `json:"line_id" validate:"omitempty,uuid"`
	TeamID    string `json:"team_id" validate:"omitempty,uuid"`
	PostID    string `json:"post_id" validate:"omitempty,uuid"`
}

type updateUserRequest struct {
	Name      string `json:"name" validate:"required,min=2"`
	Role      string `json:"role" validate:"required"`
	ServiceID string `json:"service_id" validate:"omitempty,uuid"`
	LineID    string `json:"line_id" validate:"omitempty,uuid"`
	TeamID    string `json:"team_id" validate:"omitempty,uuid"`
	PostID    string `json:"post_id" validate:"omitempty,uuid"`
	IsActive  bool   `json:"is_active"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]userPayload, len(list))
	for i, u := range list {
		out[i] = toPayload(u)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": out})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPayload(*user))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	user := User{
		Email:     req.Email,
		Name:      req.Name,
		Role:      authz.Role(req.Role),
		ServiceID: parseOptionalID(req.ServiceID),
		LineID:    parseOptionalID(req.LineID),
		TeamID:    parseOptionalID(req.TeamID),
		PostID:    parseOptionalID(req.PostID),
	}
	created, err := h.service.Create(r.Context(), user, req.Password)
	if err != nil {
		h.logger.Error("create user", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toPayload(*created))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	var req updateUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	user := User{
		ID:        id,
		Name:      req.Name,
		Role:      authz.Role(req.Role),
		ServiceID: parseOptionalID(req.ServiceID),
		LineID:    parseOptionalID(req.LineID),
		TeamID:    parseOptionalID(req.TeamID),
		PostID:    parseOptionalID(req.PostID),
		IsActive:  req.IsActive,
	}
	updated, err := h.service.Update(r.Context(), user)
	if err != nil {
		h.logger.Error("update user", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPayload(*updated))
}

func toPayload(u User) userPayload {
	return userPayload{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      string(u.Role),
		RoleLabel: u.Role.Label(),
		ServiceID: optionalID(u.ServiceID),
		LineID:    optionalID(u.LineID),
		TeamID:    optionalID(u.TeamID),
		PostID:    optionalID(u.PostID),
		IsActive:  u.IsActive,
	}
}

func parseOptionalID(s string) uuid.UUID {
	if s == "" {
		return uuid.Nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}
	return id
}

func optionalID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
