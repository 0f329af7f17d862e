package attachments

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/atlas-qms/atlas-qms/internal/platform/httpx"
	"github.com/atlas-qms/atlas-qms/internal/shared"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// MountRoutes attaches the attachment routes. It expects to be mounted
// under /actions/{actionID}/attachments.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.upload)
	r.Delete("/{id}", h.remove)
}

type attachmentPayload struct {
	Attachment
	DownloadURL string `json:"download_url"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actionID, err := uuid.Parse(chi.URLParam(r, "actionID"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid action id", httpx.ErrValidation))
		return
	}
	items, urls, err := h.service.List(r.Context(), actionID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	payload := make([]attachmentPayload, 0, len(items))
	for _, att := range items {
		payload = append(payload, attachmentPayload{Attachment: att, DownloadURL: urls[att.ID]})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": payload})
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	actionID, err := uuid.Parse(chi.URLParam(r, "actionID"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid action id", httpx.ErrValidation))
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: malformed multipart body", httpx.ErrValidation))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: file part required", httpx.ErrValidation))
		return
	}
	defer file.Close()

	att, err := h.service.Attach(r.Context(), actor, actionID, Upload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		SizeBytes:   header.Size,
		Body:        file,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, att)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid attachment id", httpx.ErrValidation))
		return
	}
	if err := h.service.Remove(r.Context(), actor, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}
