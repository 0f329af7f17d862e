package actions

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/atlas-qms/atlas-qms/internal/audit"
	"github.com/atlas-qms/atlas-qms/internal/authz"
	"github.com/atlas-qms/atlas-qms/internal/platform/httpx"
	"github.com/atlas-qms/atlas-qms/internal/shared"
)

// TimelineReader serves the history of one action.
type TimelineReader interface {
	Timeline(ctx context.Context, actionID uuid.UUID) ([]audit.Entry, error)
}

// Handler exposes the action lifecycle endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	timeline TimelineReader
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, timeline TimelineReader) *Handler {
	return &Handler{logger: logger, service: service, timeline: timeline, validate: validator.New()}
}

// MountRoutes registers action routes. All routes require a resolved actor.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Post("/{id}/transition", h.transition)
	r.Get("/{id}/capabilities", h.capabilities)
	r.Get("/{id}/history", h.history)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := ListFilters{
		Status:    authz.Status(q.Get("status")),
		ServiceID: parseOptionalID(q.Get("service_id")),
		LineID:    parseOptionalID(q.Get("line_id")),
		TeamID:    parseOptionalID(q.Get("team_id")),
		PilotID:   parseOptionalID(q.Get("pilot_id")),
	}
	filters.Page, _ = strconv.Atoi(q.Get("page"))
	filters.PerPage, _ = strconv.Atoi(q.Get("per_page"))

	if filters.Status != "" {
		if _, ok := authz.ParseStatus(string(filters.Status)); !ok {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown status filter")
			return
		}
	}

	list, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list actions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	payload := make([]actionPayload, len(list))
	for i, a := range list {
		payload[i] = toActionPayload(a)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"actions":    payload,
		"pagination": shared.NewPagination(filters.Page, filters.PerPage, total),
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req createActionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	input := CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Kind:        Kind(req.Kind),
		PilotID:     parseOptionalID(req.PilotID),
		DueDate:     req.DueDate,
		Placement: authz.Placement{
			ServiceID: parseOptionalID(req.ServiceID),
			LineID:    parseOptionalID(req.LineID),
			TeamID:    parseOptionalID(req.TeamID),
			PostID:    parseOptionalID(req.PostID),
		},
	}
	created, err := h.service.Create(r.Context(), actor, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toActionPayload(*created))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.actorAndID(w, r)
	if !ok {
		return
	}
	action, caps, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	canEdit := !action.Status.ReadOnly() && authz.CanEdit(actor, action.Snapshot())
	httpx.JSON(w, http.StatusOK, map[string]any{
		"action":       toActionPayload(*action),
		"capabilities": toCapabilityPayload(canEdit, caps),
	})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.actorAndID(w, r)
	if !ok {
		return
	}
	var req updateActionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	input := UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Progress:    req.Progress,
		Efficiency:  req.Efficiency,
		Note:        req.Note,
	}
	if req.Kind != nil {
		kind := Kind(*req.Kind)
		input.Kind = &kind
	}
	if req.PilotID != nil {
		pilot := parseOptionalID(*req.PilotID)
		input.PilotID = &pilot
	}
	if req.Placement != nil {
		placement := req.Placement.toPlacement()
		input.Placement = &placement
	}
	if req.Status != nil {
		status := authz.Status(*req.Status)
		input.Status = &status
	}

	updated, err := h.service.Update(r.Context(), actor, id, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toActionPayload(*updated))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.actorAndID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), actor, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.actorAndID(w, r)
	if !ok {
		return
	}
	var req transitionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	updated, err := h.service.Transition(r.Context(), actor, id, authz.Status(req.Status), req.Note)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toActionPayload(*updated))
}

func (h *Handler) capabilities(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.actorAndID(w, r)
	if !ok {
		return
	}
	action, caps, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	canEdit := !action.Status.ReadOnly() && authz.CanEdit(actor, action.Snapshot())
	httpx.JSON(w, http.StatusOK, toCapabilityPayload(canEdit, caps))
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	_, id, ok := h.actorAndID(w, r)
	if !ok {
		return
	}
	entries, err := h.timeline.Timeline(r.Context(), id)
	if err != nil {
		h.logger.Error("load action history", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"history": entries})
}

func (h *Handler) actorAndID(w http.ResponseWriter, r *http.Request) (authz.Actor, uuid.UUID, bool) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return authz.Actor{}, uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return authz.Actor{}, uuid.Nil, false
	}
	return actor, id, true
}
