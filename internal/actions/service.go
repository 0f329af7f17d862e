package actions

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/atlas-qms/atlas-qms/internal/audit"
	"github.com/atlas-qms/atlas-qms/internal/authz"
	"github.com/atlas-qms/atlas-qms/internal/platform/httpx"
)

// PlacementResolver canonicalizes a placement tuple against the stored
// hierarchy before it is persisted on an action.
type PlacementResolver interface {
	ResolvePlacement(ctx context.Context, p authz.Placement) (authz.Placement, error)
}

// HistoryRecorder persists audit entries for action mutations.
type HistoryRecorder interface {
	Record(ctx context.Context, entry audit.Entry) error
}

// Notifier pushes asynchronous notifications about action events.
type Notifier interface {
	ActionAssigned(ctx context.Context, action Action) error
	ActionLate(ctx context.Context, action Action) error
}

// CreateInput carries the creation fields of a new action.
type CreateInput struct {
	Title       string
	Description string
	Kind        Kind
	PilotID     uuid.UUID
	DueDate     *time.Time
	Placement   authz.Placement
}

// UpdateInput carries a partial edit; nil fields are left unchanged. Each
// group of fields is gated by its own capability.
type UpdateInput struct {
	Title       *string
	Description *string
	Kind        *Kind
	PilotID     *uuid.UUID
	DueDate     *time.Time
	Placement   *authz.Placement
	Progress    *int
	Efficiency  *string
	Status      *authz.Status
	Note        string
}

// Service orchestrates the action lifecycle and is the authoritative
// enforcement point for the authorization core.
type Service struct {
	repo     Repository
	resolver PlacementResolver
	history  HistoryRecorder
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs a Service. notifier may be nil when no queue is
// configured (tests, one-off tooling).
func NewService(repo Repository, resolver PlacementResolver, history HistoryRecorder, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		resolver: resolver,
		history:  history,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// List returns a filtered page of actions. Viewing is not scope-restricted;
// only editing is.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Action, int, error) {
	return s.repo.List(ctx, filters)
}

// Get fetches one action together with the capability set resolved for the
// requesting actor. The capability set is what the presentation layer uses
// to gate its form controls.
func (s *Service) Get(ctx context.Context, actor authz.Actor, id uuid.UUID) (*Action, authz.CapabilitySet, error) {
	action, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, authz.CapabilitySet{}, err
	}
	return action, authz.Resolve(actor, action.Snapshot()), nil
}

// Create files a new action with the actor as creator. Any known role may
// file an action; what the creator may do with it afterwards is decided per
// edit by the authorization core.
func (s *Service) Create(ctx context.Context, actor authz.Actor, input CreateInput) (*Action, error) {
	if !actor.Role.Valid() || actor.ID == uuid.Nil {
		return nil, httpx.ErrForbidden
	}
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return nil, fmt.Errorf("%w: title required", httpx.ErrValidation)
	}
	if _, ok := ParseKind(string(input.Kind)); !ok {
		return nil, fmt.Errorf("%w: unknown kind %q", httpx.ErrValidation, input.Kind)
	}
	if input.PilotID == uuid.Nil {
		return nil, fmt.Errorf("%w: pilot required", httpx.ErrValidation)
	}

	placement, err := s.resolver.ResolvePlacement(ctx, input.Placement)
	if err != nil {
		return nil, err
	}

	action := Action{
		ID:          uuid.New(),
		Title:       input.Title,
		Description: strings.TrimSpace(input.Description),
		Kind:        input.Kind,
		PilotID:     input.PilotID,
		CreatedByID: actor.ID,
		Status:      authz.StatusIdentified,
		DueDate:     input.DueDate,
		ServiceID:   placement.ServiceID,
		LineID:      placement.LineID,
		TeamID:      placement.TeamID,
		PostID:      placement.PostID,
	}
	if err := s.repo.Create(ctx, action); err != nil {
		return nil, err
	}

	s.record(ctx, audit.Entry{ActionID: action.ID, ActorID: actor.ID, Kind: audit.KindCreated, ToStatus: string(action.Status)})
	if s.notifier != nil && action.PilotID != actor.ID {
		if err := s.notifier.ActionAssigned(ctx, action); err != nil {
			s.logger.Warn("notify assignment", slog.Any("error", err))
		}
	}
	return s.repo.Get(ctx, action.ID)
}

// Update applies a partial edit after the full authorization sequence:
// archived check, scope check, then per-field capability checks, then
// transition legality. Denials come back as httpx.ErrForbidden values,
// never as panics.
func (s *Service) Update(ctx context.Context, actor authz.Actor, id uuid.UUID, input UpdateInput) (*Action, error) {
	action, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if action.Status.ReadOnly() {
		return nil, fmt.Errorf("%w: action is archived", httpx.ErrReadOnly)
	}
	if !authz.CanEdit(actor, action.Snapshot()) {
		return nil, fmt.Errorf("%w: action is outside your scope", httpx.ErrForbidden)
	}
	caps := authz.Capabilities(actor.Role, authz.IsPilot(actor, action.Snapshot()))

	previousPilot := action.PilotID
	previousStatus := action.Status
	if err := s.applyCreationFields(ctx, action, caps, input); err != nil {
		return nil, err
	}
	if err := applyProgress(action, caps, input.Progress); err != nil {
		return nil, err
	}
	if err := applyEfficiency(action, caps, input.Efficiency); err != nil {
		return nil, err
	}

	var transition *authz.Status
	if input.Status != nil && *input.Status != action.Status {
		if err := s.applyTransition(action, caps, *input.Status); err != nil {
			return nil, err
		}
		transition = input.Status
	}

	if err := s.repo.Update(ctx, *action); err != nil {
		return nil, err
	}

	if transition != nil {
		s.record(ctx, audit.Entry{
			ActionID:   action.ID,
			ActorID:    actor.ID,
			Kind:       audit.KindTransition,
			FromStatus: string(previousStatus),
			ToStatus:   string(*transition),
			Note:       input.Note,
		})
	} else {
		s.record(ctx, audit.Entry{ActionID: action.ID, ActorID: actor.ID, Kind: audit.KindUpdated, Note: input.Note})
	}

	if s.notifier != nil && action.PilotID != previousPilot {
		if err := s.notifier.ActionAssigned(ctx, *action); err != nil {
			s.logger.Warn("notify assignment", slog.Any("error", err))
		}
	}
	return s.repo.Get(ctx, action.ID)
}

// Transition changes only the status of an action.
func (s *Service) Transition(ctx context.Context, actor authz.Actor, id uuid.UUID, to authz.Status, note string) (*Action, error) {
	return s.Update(ctx, actor, id, UpdateInput{Status: &to, Note: note})
}

// Delete removes an action. Admin only.
func (s *Service) Delete(ctx context.Context, actor authz.Actor, id uuid.UUID) error {
	if actor.Role != authz.RoleAdmin {
		return httpx.ErrForbidden
	}
	return s.repo.Delete(ctx, id)
}

// MarkOverdueLate flips overdue actions to late. This is the automatic
// system path: it is not a user-initiated transition, so it bypasses the
// role-capability gate entirely and records a system history entry.
func (s *Service) MarkOverdueLate(ctx context.Context) (int, error) {
	marked, err := s.repo.MarkLate(ctx, s.now().UTC())
	if err != nil {
		return 0, err
	}
	for _, action := range marked {
		s.record(ctx, audit.Entry{
			ActionID: action.ID,
			Kind:     audit.KindTransition,
			ToStatus: string(authz.StatusLate),
			Note:     "due date passed",
		})
		if s.notifier != nil {
			if err := s.notifier.ActionLate(ctx, action); err != nil {
				s.logger.Warn("notify late action", slog.Any("error", err))
			}
		}
	}
	return len(marked), nil
}

func (s *Service) applyCreationFields(ctx context.Context, action *Action, caps authz.CapabilitySet, input UpdateInput) error {
	touched := input.Title != nil || input.Description != nil || input.Kind != nil ||
		input.PilotID != nil || input.DueDate != nil || input.Placement != nil
	if !touched {
		return nil
	}
	if !caps.CanEditCreationFields {
		return fmt.Errorf("%w: creation fields are locked for your role", httpx.ErrForbidden)
	}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return fmt.Errorf("%w: title required", httpx.ErrValidation)
		}
		action.Title = title
	}
	if input.Description != nil {
		action.Description = strings.TrimSpace(*input.Description)
	}
	if input.Kind != nil {
		if _, ok := ParseKind(string(*input.Kind)); !ok {
			return fmt.Errorf("%w: unknown kind %q", httpx.ErrValidation, *input.Kind)
		}
		action.Kind = *input.Kind
	}
	if input.PilotID != nil {
		if *input.PilotID == uuid.Nil {
			return fmt.Errorf("%w: pilot required", httpx.ErrValidation)
		}
		action.PilotID = *input.PilotID
	}
	if input.DueDate != nil {
		action.DueDate = input.DueDate
	}
	if input.Placement != nil {
		placement, err := s.resolver.ResolvePlacement(ctx, *input.Placement)
		if err != nil {
			return err
		}
		action.ServiceID = placement.ServiceID
		action.LineID = placement.LineID
		action.TeamID = placement.TeamID
		action.PostID = placement.PostID
	}
	return nil
}

func applyProgress(action *Action, caps authz.CapabilitySet, progress *int) error {
	if progress == nil {
		return nil
	}
	if !caps.CanEditProgress {
		return fmt.Errorf("%w: progress is locked for your role", httpx.ErrForbidden)
	}
	if *progress < 0 || *progress > 100 {
		return fmt.Errorf("%w: progress must be between 0 and 100", httpx.ErrValidation)
	}
	action.Progress = *progress
	return nil
}

func applyEfficiency(action *Action, caps authz.CapabilitySet, efficiency *string) error {
	if efficiency == nil {
		return nil
	}
	if !caps.CanEditEfficiency {
		return fmt.Errorf("%w: efficiency assessment requires supervisor rights", httpx.ErrForbidden)
	}
	action.Efficiency = strings.TrimSpace(*efficiency)
	return nil
}

// applyTransition validates and applies a status change, stamping the
// write-once completion/validation timestamps. Re-saving a status never
// overwrites an existing timestamp.
func (s *Service) applyTransition(action *Action, caps authz.CapabilitySet, to authz.Status) error {
	if _, ok := authz.ParseStatus(string(to)); !ok {
		return fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, to)
	}
	if !caps.Allows(to) {
		return fmt.Errorf("%w: your role may not set status %q", httpx.ErrForbidden, to)
	}
	action.Status = to

	now := s.now().UTC()
	if to == authz.StatusCompleted && action.CompletedAt == nil {
		action.CompletedAt = &now
	}
	if to == authz.StatusValidated && action.ValidatedAt == nil {
		action.ValidatedAt = &now
	}
	return nil
}

func (s *Service) record(ctx context.Context, entry audit.Entry) {
	if s.history == nil {
		return
	}
	if err := s.history.Record(ctx, entry); err != nil {
		s.logger.Warn("record action history", slog.Any("error", err))
	}
}
