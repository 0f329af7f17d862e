package org

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlas-qms/atlas-qms/internal/authz"
	"github.com/atlas-qms/atlas-qms/internal/platform/httpx"
)

type memStore struct {
	services []Service
	lines    []Line
	teams    []Team
	posts    []Post
}

func (m *memStore) ListServices(ctx context.Context) ([]Service, error) { return m.services, nil }

func (m *memStore) ListLines(ctx context.Context, serviceID uuid.UUID) ([]Line, error) {
	return m.lines, nil
}

func (m *memStore) ListTeams(ctx context.Context, lineID uuid.UUID) ([]Team, error) {
	return m.teams, nil
}

func (m *memStore) ListPosts(ctx context.Context, teamID uuid.UUID) ([]Post, error) {
	return m.posts, nil
}

func (m *memStore) CreateService(ctx context.Context, s Service) error {
	m.services = append(m.services, s)
	return nil
}

func (m *memStore) CreateLine(ctx context.Context, l Line) error {
	m.lines = append(m.lines, l)
	return nil
}

func (m *memStore) CreateTeam(ctx context.Context, t Team) error {
	m.teams = append(m.teams, t)
	return nil
}

func (m *memStore) CreatePost(ctx context.Context, p Post) error {
	m.posts = append(m.posts, p)
	return nil
}

func (m *memStore) LineService(ctx context.Context, lineID uuid.UUID) (uuid.UUID, error) {
	for _, l := range m.lines {
		if l.ID == lineID {
			return l.ServiceID, nil
		}
	}
	return uuid.Nil, httpx.ErrNotFound
}

func (m *memStore) TeamLine(ctx context.Context, teamID uuid.UUID) (uuid.UUID, error) {
	for _, t := range m.teams {
		if t.ID == teamID {
			return t.LineID, nil
		}
	}
	return uuid.Nil, httpx.ErrNotFound
}

func (m *memStore) PostTeam(ctx context.Context, postID uuid.UUID) (uuid.UUID, error) {
	for _, p := range m.posts {
		if p.ID == postID {
			return p.TeamID, nil
		}
	}
	return uuid.Nil, httpx.ErrNotFound
}

func seededStore() (*memStore, authz.Placement) {
	serviceID := uuid.New()
	lineID := uuid.New()
	teamID := uuid.New()
	postID := uuid.New()
	store := &memStore{
		services: []Service{{ID: serviceID, Name: "Stamping"}},
		lines:    []Line{{ID: lineID, ServiceID: serviceID, Name: "Line 1"}},
		teams:    []Team{{ID: teamID, LineID: lineID, Name: "Team A"}},
		posts:    []Post{{ID: postID, TeamID: teamID, Name: "Press 12"}},
	}
	return store, authz.Placement{ServiceID: serviceID, LineID: lineID, TeamID: teamID, PostID: postID}
}

func TestTreeAssemblesHierarchy(t *testing.T) {
	store, _ := seededStore()
	svc := NewService(store)

	tree, err := svc.Tree(context.Background())
	require.NoError(t, err)
	require.Len(t, tree.Services, 1)
	require.Len(t, tree.Services[0].Lines, 1)
	require.Len(t, tree.Services[0].Lines[0].Teams, 1)
	require.Len(t, tree.Services[0].Lines[0].Teams[0].Posts, 1)
	assert.Equal(t, "Press 12", tree.Services[0].Lines[0].Teams[0].Posts[0].Name)
}

func TestResolvePlacementFromPost(t *testing.T) {
	store, full := seededStore()
	svc := NewService(store)

	resolved, err := svc.ResolvePlacement(context.Background(), authz.Placement{PostID: full.PostID})
	require.NoError(t, err)
	assert.Equal(t, full, resolved)
}

func TestResolvePlacementOverridesInconsistentAncestors(t *testing.T) {
	store, full := seededStore()
	svc := NewService(store)

	// A stale or tampered line ID is replaced by the team's real line.
	resolved, err := svc.ResolvePlacement(context.Background(), authz.Placement{
		TeamID: full.TeamID,
		LineID: uuid.New(),
	})
	require.NoError(t, err)
	assert.Equal(t, full.LineID, resolved.LineID)
	assert.Equal(t, full.ServiceID, resolved.ServiceID)
	assert.Equal(t, uuid.Nil, resolved.PostID)
}

func TestResolvePlacementUnknownPost(t *testing.T) {
	store, _ := seededStore()
	svc := NewService(store)

	_, err := svc.ResolvePlacement(context.Background(), authz.Placement{PostID: uuid.New()})
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestResolvePlacementEmptyStaysEmpty(t *testing.T) {
	store, _ := seededStore()
	svc := NewService(store)

	resolved, err := svc.ResolvePlacement(context.Background(), authz.Placement{})
	require.NoError(t, err)
	assert.Equal(t, authz.Placement{}, resolved)
}

func TestCreateValidation(t *testing.T) {
	store, full := seededStore()
	svc := NewService(store)

	_, err := svc.CreateService(context.Background(), "  ")
	assert.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.CreateLine(context.Background(), uuid.Nil, "Line 2")
	assert.ErrorIs(t, err, httpx.ErrValidation)

	line, err := svc.CreateLine(context.Background(), full.ServiceID, " Line 2 ")
	require.NoError(t, err)
	assert.Equal(t, "Line 2", line.Name)
}
