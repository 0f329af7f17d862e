package actions

import (
	"time"

	"github.com/google/uuid"

	"github.com/atlas-qms/atlas-qms/internal/authz"
)

type createActionRequest struct {
	Title       string     `json:"title" validate:"required,min=3"`
	Description string     `json:"description"`
	Kind        string     `json:"kind" validate:"required,oneof=corrective preventive"`
	PilotID     string     `json:"pilot_id" validate:"required,uuid"`
	DueDate     *time.Time `json:"due_date"`
	ServiceID   string     `json:"service_id" validate:"omitempty,uuid"`
	LineID      string     `json:"line_id" validate:"omitempty,uuid"`
	TeamID      string     `json:"team_id" validate:"omitempty,uuid"`
	PostID      string     `json:"post_id" validate:"omitempty,uuid"`
}

type updateActionRequest struct {
	Title       *string           `json:"title" validate:"omitempty,min=3"`
	Description *string           `json:"description"`
	Kind        *string           `json:"kind" validate:"omitempty,oneof=corrective preventive"`
	PilotID     *string           `json:"pilot_id" validate:"omitempty,uuid"`
	DueDate     *time.Time        `json:"due_date"`
	Placement   *placementPayload `json:"placement"`
	Progress    *int              `json:"progress" validate:"omitempty,min=0,max=100"`
	Efficiency  *string           `json:"efficiency"`
	Status      *string           `json:"status"`
	Note        string            `json:"note"`
}

type transitionRequest struct {
	Status string `json:"status" validate:"required"`
	Note   string `json:"note"`
}

type placementPayload struct {
	ServiceID string `json:"service_id" validate:"omitempty,uuid"`
	LineID    string `json:"line_id" validate:"omitempty,uuid"`
	TeamID    string `json:"team_id" validate:"omitempty,uuid"`
	PostID    string `json:"post_id" validate:"omitempty,uuid"`
}

func (p placementPayload) toPlacement() authz.Placement {
	return authz.Placement{
		ServiceID: parseOptionalID(p.ServiceID),
		LineID:    parseOptionalID(p.LineID),
		TeamID:    parseOptionalID(p.TeamID),
		PostID:    parseOptionalID(p.PostID),
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

type capabilityPayload struct {
	CanEdit                  bool     `json:"can_edit"`
	CanEditStatus            bool     `json:"can_edit_status"`
	CanEditProgress          bool     `json:"can_edit_progress"`
	CanAddAttachments        bool     `json:"can_add_attachments"`
	CanEditCreationFields    bool     `json:"can_edit_creation_fields"`
	CanEditEfficiency        bool     `json:"can_edit_efficiency"`
	CanValidate              bool     `json:"can_validate"`
	AllowedStatusTransitions []string `json:"allowed_status_transitions"`
	RoleLabel                string   `json:"role_label"`
}

type actionPayload struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Kind        string     `json:"kind"`
	PilotID     uuid.UUID  `json:"pilot_id"`
	CreatedByID uuid.UUID  `json:"created_by"`
	Status      string     `json:"status"`
	Progress    int        `json:"progress"`
	Efficiency  string     `json:"efficiency,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	ServiceID   *uuid.UUID `json:"service_id,omitempty"`
	LineID      *uuid.UUID `json:"line_id,omitempty"`
	TeamID      *uuid.UUID `json:"team_id,omitempty"`
	PostID      *uuid.UUID `json:"post_id,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	ValidatedAt *time.Time `json:"validated_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func toActionPayload(a Action) actionPayload {
	return actionPayload{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		Kind:        string(a.Kind),
		PilotID:     a.PilotID,
		CreatedByID: a.CreatedByID,
		Status:      string(a.Status),
		Progress:    a.Progress,
		Efficiency:  a.Efficiency,
		DueDate:     a.DueDate,
		ServiceID:   optionalID(a.ServiceID),
		LineID:      optionalID(a.LineID),
		TeamID:      optionalID(a.TeamID),
		PostID:      optionalID(a.PostID),
		CompletedAt: a.CompletedAt,
		ValidatedAt: a.ValidatedAt,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func toCapabilityPayload(canEdit bool, caps authz.CapabilitySet) capabilityPayload {
	transitions := make([]string, len(caps.AllowedStatusTransitions))
	for i, s := range caps.AllowedStatusTransitions {
		transitions[i] = string(s)
	}
	return capabilityPayload{
		CanEdit:                  canEdit,
		CanEditStatus:            caps.CanEditStatus,
		CanEditProgress:          caps.CanEditProgress,
		CanAddAttachments:        caps.CanAddAttachments,
		CanEditCreationFields:    caps.CanEditCreationFields,
		CanEditEfficiency:        caps.CanEditEfficiency,
		CanValidate:              caps.CanValidate,
		AllowedStatusTransitions: transitions,
		RoleLabel:                caps.RoleLabel,
	}
}

func optionalID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
