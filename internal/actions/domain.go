// Package actions implements the corrective/preventive action lifecycle.
// The service layer is the authoritative enforcement point for the
// authorization core: every mutation re-checks scope, field capabilities and
// transition legality server-side, regardless of what the UI allowed.
package actions

import (
	"time"

	"github.com/google/uuid"

	"github.com/atlas-qms/atlas-qms/internal/authz"
)

// Kind distinguishes corrective from preventive actions.
type Kind string

const (
	KindCorrective Kind = "corrective"
	KindPreventive Kind = "preventive"
)

// ParseKind maps a stored kind onto the enumeration.
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindCorrective, KindPreventive:
		return Kind(s), true
	}
	return "", false
}

// Action is a tracked quality work item.
type Action struct {
	ID          uuid.UUID
	Title       string
	Description string
	Kind        Kind
	PilotID     uuid.UUID
	CreatedByID uuid.UUID
	Status      authz.Status
	Progress    int
	Efficiency  string
	DueDate     *time.Time
	ServiceID   uuid.UUID
	LineID      uuid.UUID
	TeamID      uuid.UUID
	PostID      uuid.UUID
	CompletedAt *time.Time
	ValidatedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Placement returns the action's denormalized placement tuple.
func (a *Action) Placement() authz.Placement {
	return authz.Placement{
		ServiceID: a.ServiceID,
		LineID:    a.LineID,
		TeamID:    a.TeamID,
		PostID:    a.PostID,
	}
}

// Snapshot converts the action into the read-only shape the authorization
// core consumes.
func (a *Action) Snapshot() authz.Action {
	return authz.Action{
		PilotID:     a.PilotID,
		CreatedByID: a.CreatedByID,
		Status:      a.Status,
		Placement:   a.Placement(),
	}
}

// Overdue reports whether the action is past its due date without being
// completed, validated or archived.
func (a *Action) Overdue(now time.Time) bool {
	if a.DueDate == nil {
		return false
	}
	switch a.Status {
	case authz.StatusCompleted, authz.StatusValidated, authz.StatusArchived:
		return false
	}
	return a.DueDate.Before(now)
}

// ListFilters narrows action listings.
type ListFilters struct {
	Status    authz.Status
	ServiceID uuid.UUID
	LineID    uuid.UUID
	TeamID    uuid.UUID
	PilotID   uuid.UUID
	Page      int
	PerPage   int
}
