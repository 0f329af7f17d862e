package org

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/atlas-qms/atlas-qms/internal/authz"
	"github.com/atlas-qms/atlas-qms/internal/platform/httpx"
)

// Store is the persistence surface the hierarchy service needs.
type Store interface {
	ListServices(ctx context.Context) ([]Service, error)
	ListLines(ctx context.Context, serviceID uuid.UUID) ([]Line, error)
	ListTeams(ctx context.Context, lineID uuid.UUID) ([]Team, error)
	ListPosts(ctx context.Context, teamID uuid.UUID) ([]Post, error)
	CreateService(ctx context.Context, s Service) error
	CreateLine(ctx context.Context, l Line) error
	CreateTeam(ctx context.Context, t Team) error
	CreatePost(ctx context.Context, p Post) error
	LineService(ctx context.Context, lineID uuid.UUID) (uuid.UUID, error)
	TeamLine(ctx context.Context, teamID uuid.UUID) (uuid.UUID, error)
	PostTeam(ctx context.Context, postID uuid.UUID) (uuid.UUID, error)
}

// Svc orchestrates hierarchy operations.
type Svc struct {
	repo Store
}

// NewService constructs a Svc.
func NewService(repo Store) *Svc {
	return &Svc{repo: repo}
}

// Tree expands the full hierarchy for the admin screens.
func (s *Svc) Tree(ctx context.Context) (*Tree, error) {
	services, err := s.repo.ListServices(ctx)
	if err != nil {
		return nil, err
	}
	lines, err := s.repo.ListLines(ctx, uuid.Nil)
	if err != nil {
		return nil, err
	}
	teams, err := s.repo.ListTeams(ctx, uuid.Nil)
	if err != nil {
		return nil, err
	}
	posts, err := s.repo.ListPosts(ctx, uuid.Nil)
	if err != nil {
		return nil, err
	}

	postsByTeam := make(map[uuid.UUID][]Post)
	for _, p := range posts {
		postsByTeam[p.TeamID] = append(postsByTeam[p.TeamID], p)
	}
	teamsByLine := make(map[uuid.UUID][]TreeTeam)
	for _, t := range teams {
		teamsByLine[t.LineID] = append(teamsByLine[t.LineID], TreeTeam{Team: t, Posts: postsByTeam[t.ID]})
	}
	linesByService := make(map[uuid.UUID][]TreeLine)
	for _, l := range lines {
		linesByService[l.ServiceID] = append(linesByService[l.ServiceID], TreeLine{Line: l, Teams: teamsByLine[l.ID]})
	}

	tree := &Tree{Services: make([]TreeService, len(services))}
	for i, svc := range services {
		tree.Services[i] = TreeService{Service: svc, Lines: linesByService[svc.ID]}
	}
	return tree, nil
}

// CreateService inserts a new top-level service.
func (s *Svc) CreateService(ctx context.Context, name string) (*Service, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: service name required", httpx.ErrValidation)
	}
	svc := Service{ID: uuid.New(), Name: name}
	if err := s.repo.CreateService(ctx, svc); err != nil {
		return nil, err
	}
	return &svc, nil
}

// CreateLine inserts a line under an existing service.
func (s *Svc) CreateLine(ctx context.Context, serviceID uuid.UUID, name string) (*Line, error) {
	name = strings.TrimSpace(name)
	if name == "" || serviceID == uuid.Nil {
		return nil, fmt.Errorf("%w: line name and service required", httpx.ErrValidation)
	}
	line := Line{ID: uuid.New(), ServiceID: serviceID, Name: name}
	if err := s.repo.CreateLine(ctx, line); err != nil {
		return nil, err
	}
	return &line, nil
}

// CreateTeam inserts a team under an existing line.
func (s *Svc) CreateTeam(ctx context.Context, lineID uuid.UUID, name string) (*Team, error) {
	name = strings.TrimSpace(name)
	if name == "" || lineID == uuid.Nil {
		return nil, fmt.Errorf("%w: team name and line required", httpx.ErrValidation)
	}
	team := Team{ID: uuid.New(), LineID: lineID, Name: name}
	if err := s.repo.CreateTeam(ctx, team); err != nil {
		return nil, err
	}
	return &team, nil
}

// CreatePost inserts a post under an existing team.
func (s *Svc) CreatePost(ctx context.Context, teamID uuid.UUID, name string) (*Post, error) {
	name = strings.TrimSpace(name)
	if name == "" || teamID == uuid.Nil {
		return nil, fmt.Errorf("%w: post name and team required", httpx.ErrValidation)
	}
	post := Post{ID: uuid.New(), TeamID: teamID, Name: name}
	if err := s.repo.CreatePost(ctx, post); err != nil {
		return nil, err
	}
	return &post, nil
}

// ResolvePlacement denormalizes a placement from its deepest supplied
// identifier: a post implies its team, a team its line, a line its service.
// Supplied identifiers for the higher levels are overwritten with the
// canonical values, which keeps the stored snapshots consistent with the
// invariant the authorization core trusts.
func (s *Svc) ResolvePlacement(ctx context.Context, p authz.Placement) (authz.Placement, error) {
	if p.PostID != uuid.Nil {
		teamID, err := s.repo.PostTeam(ctx, p.PostID)
		if err != nil {
			return authz.Placement{}, fmt.Errorf("%w: unknown post", httpx.ErrValidation)
		}
		p.TeamID = teamID
	}
	if p.TeamID != uuid.Nil {
		lineID, err := s.repo.TeamLine(ctx, p.TeamID)
		if err != nil {
			return authz.Placement{}, fmt.Errorf("%w: unknown team", httpx.ErrValidation)
		}
		p.LineID = lineID
	}
	if p.LineID != uuid.Nil {
		serviceID, err := s.repo.LineService(ctx, p.LineID)
		if err != nil {
			return authz.Placement{}, fmt.Errorf("%w: unknown line", httpx.ErrValidation)
		}
		p.ServiceID = serviceID
	}
	return p, nil
}
