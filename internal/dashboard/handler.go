package dashboard

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atlas-qms/atlas-qms/internal/actions"
	"github.com/atlas-qms/atlas-qms/internal/dashboard/export"
	"github.com/atlas-qms/atlas-qms/internal/platform/httpx"
)

// ActionLister feeds the actions CSV export.
type ActionLister interface {
	List(ctx context.Context, filters actions.ListFilters) ([]actions.Action, int, error)
}

type Handler struct {
	service *Service
	lister  ActionLister
}

func NewHandler(service *Service, lister ActionLister) *Handler {
	return &Handler{service: service, lister: lister}
}

// MountRoutes attaches the dashboard routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/overview", h.overview)
	r.Get("/export/overview.csv", h.exportOverview)
	r.Get("/export/actions.csv", h.exportActions)
}

func (h *Handler) overview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.service.Overview(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, overview)
}

func (h *Handler) exportOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.service.Overview(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="overview.csv"`)
	if err := export.WriteOverviewCSV(w, overview); err != nil {
		httpx.RespondError(w, err)
	}
}

func (h *Handler) exportActions(w http.ResponseWriter, r *http.Request) {
	items, _, err := h.lister.List(r.Context(), actions.ListFilters{PerPage: 10000})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="actions.csv"`)
	if err := export.WriteActionsCSV(w, items); err != nil {
		httpx.RespondError(w, err)
	}
}
