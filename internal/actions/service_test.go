package actions

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlas-qms/atlas-qms/internal/audit"
	"github.com/atlas-qms/atlas-qms/internal/authz"
	"github.com/atlas-qms/atlas-qms/internal/platform/httpx"
)

type mockRepository struct {
	actions map[uuid.UUID]*Action
}

func newMockRepository() *mockRepository {
	return &mockRepository{actions: make(map[uuid.UUID]*Action)}
}

func (m *mockRepository) Get(ctx context.Context, id uuid.UUID) (*Action, error) {
	a, ok := m.actions[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	clone := *a
	return &clone, nil
}

func (m *mockRepository) List(ctx context.Context, filters ListFilters) ([]Action, int, error) {
	var out []Action
	for _, a := range m.actions {
		if filters.Status != "" && a.Status != filters.Status {
			continue
		}
		out = append(out, *a)
	}
	return out, len(out), nil
}

func (m *mockRepository) Create(ctx context.Context, a Action) error {
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	m.actions[a.ID] = &a
	return nil
}

func (m *mockRepository) Update(ctx context.Context, a Action) error {
	if _, ok := m.actions[a.ID]; !ok {
		return httpx.ErrNotFound
	}
	a.UpdatedAt = time.Now()
	m.actions[a.ID] = &a
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.actions[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(m.actions, id)
	return nil
}

func (m *mockRepository) MarkLate(ctx context.Context, now time.Time) ([]Action, error) {
	var marked []Action
	for _, a := range m.actions {
		if a.Overdue(now) {
			a.Status = authz.StatusLate
			marked = append(marked, *a)
		}
	}
	return marked, nil
}

type passthroughResolver struct{}

func (passthroughResolver) ResolvePlacement(ctx context.Context, p authz.Placement) (authz.Placement, error) {
	return p, nil
}

type mockHistory struct {
	entries []audit.Entry
}

func (m *mockHistory) Record(ctx context.Context, entry audit.Entry) error {
	m.entries = append(m.entries, entry)
	return nil
}

type mockNotifier struct {
	assigned int
	late     int
}

func (m *mockNotifier) ActionAssigned(ctx context.Context, action Action) error {
	m.assigned++
	return nil
}

func (m *mockNotifier) ActionLate(ctx context.Context, action Action) error {
	m.late++
	return nil
}

type fixture struct {
	repo     *mockRepository
	history  *mockHistory
	notifier *mockNotifier
	service  *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newMockRepository()
	history := &mockHistory{}
	notifier := &mockNotifier{}
	service := NewService(repo, passthroughResolver{}, history, notifier, slog.Default())
	return &fixture{repo: repo, history: history, notifier: notifier, service: service}
}

func (f *fixture) seed(t *testing.T, a Action) uuid.UUID {
	t.Helper()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = authz.StatusInProgress
	}
	require.NoError(t, f.repo.Create(context.Background(), a))
	return a.ID
}

var (
	pilotID   = uuid.New()
	creatorID = uuid.New()
	otherID   = uuid.New()
	serviceID = uuid.New()
	lineID    = uuid.New()
	teamID    = uuid.New()
)

func TestCreateSetsCreatorAndInitialStatus(t *testing.T) {
	f := newFixture(t)
	actor := authz.Actor{Role: authz.RoleTeamLeader, ID: creatorID}

	created, err := f.service.Create(context.Background(), actor, CreateInput{
		Title:     "Replace worn conveyor guide",
		Kind:      KindCorrective,
		PilotID:   pilotID,
		Placement: authz.Placement{ServiceID: serviceID, LineID: lineID},
	})
	require.NoError(t, err)
	assert.Equal(t, creatorID, created.CreatedByID)
	assert.Equal(t, authz.StatusIdentified, created.Status)
	assert.Equal(t, 1, f.notifier.assigned)
	require.Len(t, f.history.entries, 1)
	assert.Equal(t, audit.KindCreated, f.history.entries[0].Kind)
}

func TestCreateRejectsUnknownRole(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Create(context.Background(), authz.Actor{Role: "guest", ID: otherID}, CreateInput{
		Title:   "Anything",
		Kind:    KindPreventive,
		PilotID: pilotID,
	})
	assert.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestUpdateDeniesOutOfScopeActor(t *testing.T) {
	f := newFixture(t)
	id := f.seed(t, Action{
		PilotID: pilotID, CreatedByID: creatorID,
		ServiceID: serviceID, LineID: lineID, TeamID: teamID,
	})

	// Operator in the same team is still denied: only pilot status counts.
	actor := authz.Actor{Role: authz.RoleOperator, ID: otherID, Placement: authz.Placement{ServiceID: serviceID, LineID: lineID, TeamID: teamID}}
	progress := 50
	_, err := f.service.Update(context.Background(), actor, id, UpdateInput{Progress: &progress})
	assert.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestUpdateArchivedIsReadOnlyForAdmin(t *testing.T) {
	f := newFixture(t)
	id := f.seed(t, Action{PilotID: pilotID, CreatedByID: creatorID, Status: authz.StatusArchived})

	progress := 10
	_, err := f.service.Update(context.Background(), authz.Actor{Role: authz.RoleAdmin, ID: otherID}, id, UpdateInput{Progress: &progress})
	assert.ErrorIs(t, err, httpx.ErrReadOnly)
}

func TestOperatorPilotCannotTouchCreationFields(t *testing.T) {
	f := newFixture(t)
	id := f.seed(t, Action{PilotID: pilotID, CreatedByID: creatorID})
	actor := authz.Actor{Role: authz.RoleOperator, ID: pilotID}

	title := "Renamed"
	_, err := f.service.Update(context.Background(), actor, id, UpdateInput{Title: &title})
	assert.ErrorIs(t, err, httpx.ErrForbidden)

	// Progress and status remain available to the pilot.
	progress := 75
	updated, err := f.service.Update(context.Background(), actor, id, UpdateInput{Progress: &progress})
	require.NoError(t, err)
	assert.Equal(t, 75, updated.Progress)
}

func TestTeamLeaderLineMatchEditsCreationFields(t *testing.T) {
	f := newFixture(t)
	id := f.seed(t, Action{
		PilotID: pilotID, CreatedByID: creatorID,
		ServiceID: serviceID, LineID: lineID, TeamID: teamID,
	})
	// Different team, same line.
	actor := authz.Actor{Role: authz.RoleTeamLeader, ID: otherID, Placement: authz.Placement{LineID: lineID, TeamID: uuid.New()}}

	title := "Adjust torque spec on station 4"
	updated, err := f.service.Update(context.Background(), actor, id, UpdateInput{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
}

func TestTeamLeaderCannotValidate(t *testing.T) {
	f := newFixture(t)
	id := f.seed(t, Action{PilotID: pilotID, CreatedByID: otherID, Status: authz.StatusCompleted, LineID: lineID})
	actor := authz.Actor{Role: authz.RoleTeamLeader, ID: otherID}

	_, err := f.service.Transition(context.Background(), actor, id, authz.StatusValidated, "")
	assert.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestSupervisorValidatesAndStampsOnce(t *testing.T) {
	f := newFixture(t)
	id := f.seed(t, Action{PilotID: pilotID, CreatedByID: creatorID, Status: authz.StatusInProgress, LineID: lineID})
	supervisor := authz.Actor{Role: authz.RoleSupervisor, ID: otherID, Placement: authz.Placement{LineID: lineID}}

	updated, err := f.service.Transition(context.Background(), supervisor, id, authz.StatusCompleted, "work done")
	require.NoError(t, err)
	require.NotNil(t, updated.CompletedAt)
	stamped := *updated.CompletedAt

	// Re-saving the same status must not move the timestamp.
	f.service.now = func() time.Time { return stamped.Add(48 * time.Hour) }
	again, err := f.service.Update(context.Background(), supervisor, id, UpdateInput{Note: "re-save"})
	require.NoError(t, err)
	require.NotNil(t, again.CompletedAt)
	assert.Equal(t, stamped, *again.CompletedAt)

	validated, err := f.service.Transition(context.Background(), supervisor, id, authz.StatusValidated, "")
	require.NoError(t, err)
	require.NotNil(t, validated.ValidatedAt)
	assert.Equal(t, stamped, *validated.CompletedAt)
}

func TestEfficiencyRequiresSupervisorRights(t *testing.T) {
	f := newFixture(t)
	id := f.seed(t, Action{PilotID: pilotID, CreatedByID: otherID, LineID: lineID, TeamID: teamID})

	note := "root cause eliminated, recurrence unlikely"
	leader := authz.Actor{Role: authz.RoleTeamLeader, ID: otherID, Placement: authz.Placement{TeamID: teamID}}
	_, err := f.service.Update(context.Background(), leader, id, UpdateInput{Efficiency: &note})
	assert.ErrorIs(t, err, httpx.ErrForbidden)

	supervisor := authz.Actor{Role: authz.RoleSupervisor, ID: otherID, Placement: authz.Placement{LineID: lineID}}
	updated, err := f.service.Update(context.Background(), supervisor, id, UpdateInput{Efficiency: &note})
	require.NoError(t, err)
	assert.Equal(t, note, updated.Efficiency)
}

func TestTransitionRecordsHistory(t *testing.T) {
	f := newFixture(t)
	id := f.seed(t, Action{PilotID: pilotID, CreatedByID: creatorID, Status: authz.StatusPlanned})
	actor := authz.Actor{Role: authz.RoleOperator, ID: pilotID}

	_, err := f.service.Transition(context.Background(), actor, id, authz.StatusInProgress, "started")
	require.NoError(t, err)

	require.Len(t, f.history.entries, 1)
	entry := f.history.entries[0]
	assert.Equal(t, audit.KindTransition, entry.Kind)
	assert.Equal(t, string(authz.StatusPlanned), entry.FromStatus)
	assert.Equal(t, string(authz.StatusInProgress), entry.ToStatus)
	assert.Equal(t, "started", entry.Note)
}

func TestDeleteIsAdminOnly(t *testing.T) {
	f := newFixture(t)
	id := f.seed(t, Action{PilotID: pilotID, CreatedByID: creatorID})

	err := f.service.Delete(context.Background(), authz.Actor{Role: authz.RoleManager, ID: otherID}, id)
	assert.ErrorIs(t, err, httpx.ErrForbidden)

	err = f.service.Delete(context.Background(), authz.Actor{Role: authz.RoleAdmin, ID: otherID}, id)
	require.NoError(t, err)
}

func TestMarkOverdueLateBypassesRoleGate(t *testing.T) {
	f := newFixture(t)
	due := time.Now().Add(-24 * time.Hour)
	f.seed(t, Action{PilotID: pilotID, CreatedByID: creatorID, Status: authz.StatusInProgress, DueDate: &due})
	f.seed(t, Action{PilotID: pilotID, CreatedByID: creatorID, Status: authz.StatusCompleted, DueDate: &due})

	count, err := f.service.MarkOverdueLate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count, "completed actions never demote to late")
	assert.Equal(t, 1, f.notifier.late)

	require.Len(t, f.history.entries, 1)
	assert.Equal(t, uuid.Nil, f.history.entries[0].ActorID, "automatic demotion is a system event")
	assert.Equal(t, string(authz.StatusLate), f.history.entries[0].ToStatus)
}

func TestGetResolvesCapabilitiesForActor(t *testing.T) {
	f := newFixture(t)
	id := f.seed(t, Action{PilotID: pilotID, CreatedByID: creatorID, TeamID: teamID})

	_, caps, err := f.service.Get(context.Background(), authz.Actor{Role: authz.RoleOperator, ID: pilotID}, id)
	require.NoError(t, err)
	assert.True(t, caps.CanEditProgress)
	assert.False(t, caps.CanEditCreationFields)

	_, caps, err = f.service.Get(context.Background(), authz.Actor{Role: authz.RoleOperator, ID: otherID}, id)
	require.NoError(t, err)
	assert.False(t, caps.CanEditProgress)
	assert.Empty(t, caps.AllowedStatusTransitions)
}
