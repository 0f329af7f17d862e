package attachments

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlas-qms/atlas-qms/internal/actions"
	"github.com/atlas-qms/atlas-qms/internal/authz"
	"github.com/atlas-qms/atlas-qms/internal/platform/httpx"
)

type memRepo struct {
	rows map[uuid.UUID]Attachment
}

func (m *memRepo) Get(ctx context.Context, id uuid.UUID) (*Attachment, error) {
	a, ok := m.rows[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	return &a, nil
}

func (m *memRepo) ListByAction(ctx context.Context, actionID uuid.UUID) ([]Attachment, error) {
	var out []Attachment
	for _, a := range m.rows {
		if a.ActionID == actionID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memRepo) Create(ctx context.Context, a Attachment) error {
	m.rows[a.ID] = a
	return nil
}

func (m *memRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(m.rows, id)
	return nil
}

type memStore struct {
	objects map[string][]byte
	deleted []string
}

func (m *memStore) Put(ctx context.Context, key, contentType string, size int64, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.objects[key] = data
	return nil
}

func (m *memStore) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "https://files.example.test/" + key, nil
}

func (m *memStore) Delete(ctx context.Context, key string) error {
	delete(m.objects, key)
	m.deleted = append(m.deleted, key)
	return nil
}

type staticSource struct {
	action actions.Action
}

func (s staticSource) Get(ctx context.Context, id uuid.UUID) (*actions.Action, error) {
	a := s.action
	a.ID = id
	return &a, nil
}

func newAttachFixture(action actions.Action) (*Service, *memRepo, *memStore) {
	repo := &memRepo{rows: make(map[uuid.UUID]Attachment)}
	store := &memStore{objects: make(map[string][]byte)}
	svc := NewService(repo, store, staticSource{action: action}, slog.Default())
	return svc, repo, store
}

func upload(name string) Upload {
	body := "inspection photo bytes"
	return Upload{FileName: name, ContentType: "image/jpeg", SizeBytes: int64(len(body)), Body: strings.NewReader(body)}
}

func TestAttachRequiresCapability(t *testing.T) {
	pilot := uuid.New()
	svc, repo, store := newAttachFixture(actions.Action{PilotID: pilot, Status: authz.StatusInProgress})

	// An operator who is not the pilot has no attachment rights.
	_, err := svc.Attach(context.Background(), authz.Actor{Role: authz.RoleOperator, ID: uuid.New()}, uuid.New(), upload("before.jpg"))
	assert.ErrorIs(t, err, httpx.ErrForbidden)
	assert.Empty(t, store.objects)

	att, err := svc.Attach(context.Background(), authz.Actor{Role: authz.RoleOperator, ID: pilot}, uuid.New(), upload("before.jpg"))
	require.NoError(t, err)
	assert.Contains(t, store.objects, att.StorageKey)
	assert.Len(t, repo.rows, 1)
}

func TestAttachRejectsArchivedAction(t *testing.T) {
	svc, _, _ := newAttachFixture(actions.Action{Status: authz.StatusArchived})
	_, err := svc.Attach(context.Background(), authz.Actor{Role: authz.RoleAdmin, ID: uuid.New()}, uuid.New(), upload("late.pdf"))
	assert.ErrorIs(t, err, httpx.ErrReadOnly)
}

func TestListSignsURLs(t *testing.T) {
	pilot := uuid.New()
	actionID := uuid.New()
	svc, _, _ := newAttachFixture(actions.Action{PilotID: pilot, Status: authz.StatusInProgress})

	att, err := svc.Attach(context.Background(), authz.Actor{Role: authz.RoleOperator, ID: pilot}, actionID, upload("report.pdf"))
	require.NoError(t, err)

	items, urls, err := svc.List(context.Background(), actionID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "https://files.example.test/"+att.StorageKey, urls[att.ID])
}

func TestRemoveOnlyUploaderOrAdmin(t *testing.T) {
	pilot := uuid.New()
	svc, _, store := newAttachFixture(actions.Action{PilotID: pilot, Status: authz.StatusInProgress})

	att, err := svc.Attach(context.Background(), authz.Actor{Role: authz.RoleOperator, ID: pilot}, uuid.New(), upload("scrap.jpg"))
	require.NoError(t, err)

	err = svc.Remove(context.Background(), authz.Actor{Role: authz.RoleSupervisor, ID: uuid.New()}, att.ID)
	assert.ErrorIs(t, err, httpx.ErrForbidden)

	err = svc.Remove(context.Background(), authz.Actor{Role: authz.RoleAdmin, ID: uuid.New()}, att.ID)
	require.NoError(t, err)
	assert.Contains(t, store.deleted, att.StorageKey)
}
