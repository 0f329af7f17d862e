package org

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlas-qms/atlas-qms/internal/platform/httpx"
)

// Repository provides PostgreSQL backed persistence for the hierarchy.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListServices returns all services ordered by name.
func (r *Repository) ListServices(ctx context.Context) ([]Service, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, created_at FROM org_services ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("org: list services: %w", err)
	}
	defer rows.Close()

	var out []Service
	for rows.Next() {
		var s Service
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListLines returns all lines, optionally filtered by service.
func (r *Repository) ListLines(ctx context.Context, serviceID uuid.UUID) ([]Line, error) {
	query := `SELECT id, service_id, name, created_at FROM org_lines`
	args := []any{}
	if serviceID != uuid.Nil {
		query += ` WHERE service_id = $1`
		args = append(args, serviceID)
	}
	query += ` ORDER BY name`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("org: list lines: %w", err)
	}
	defer rows.Close()

	var out []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.ServiceID, &l.Name, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// ListTeams returns all teams, optionally filtered by line.
func (r *Repository) ListTeams(ctx context.Context, lineID uuid.UUID) ([]Team, error) {
	query := `SELECT id, line_id, name, created_at FROM org_teams`
	args := []any{}
	if lineID != uuid.Nil {
		query += ` WHERE line_id = $1`
		args = append(args, lineID)
	}
	query += ` ORDER BY name`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("org: list teams: %w", err)
	}
	defer rows.Close()

	var out []Team
	for rows.Next() {
		var t Team
		if err := rows.Scan(&t.ID, &t.LineID, &t.Name, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListPosts returns all posts, optionally filtered by team.
func (r *Repository) ListPosts(ctx context.Context, teamID uuid.UUID) ([]Post, error) {
	query := `SELECT id, team_id, name, created_at FROM org_posts`
	args := []any{}
	if teamID != uuid.Nil {
		query += ` WHERE team_id = $1`
		args = append(args, teamID)
	}
	query += ` ORDER BY name`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("org: list posts: %w", err)
	}
	defer rows.Close()

	var out []Post
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.TeamID, &p.Name, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CreateService inserts a service.
func (r *Repository) CreateService(ctx context.Context, s Service) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO org_services (id, name) VALUES ($1, $2)`, s.ID, s.Name)
	return mapInsertError("org: create service", err)
}

// CreateLine inserts a line under a service.
func (r *Repository) CreateLine(ctx context.Context, l Line) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO org_lines (id, service_id, name) VALUES ($1, $2, $3)`, l.ID, l.ServiceID, l.Name)
	return mapInsertError("org: create line", err)
}

// CreateTeam inserts a team under a line.
func (r *Repository) CreateTeam(ctx context.Context, t Team) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO org_teams (id, line_id, name) VALUES ($1, $2, $3)`, t.ID, t.LineID, t.Name)
	return mapInsertError("org: create team", err)
}

// CreatePost inserts a post under a team.
func (r *Repository) CreatePost(ctx context.Context, p Post) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO org_posts (id, team_id, name) VALUES ($1, $2, $3)`, p.ID, p.TeamID, p.Name)
	return mapInsertError("org: create post", err)
}

// LineService looks up the service a line belongs to.
func (r *Repository) LineService(ctx context.Context, lineID uuid.UUID) (uuid.UUID, error) {
	var serviceID uuid.UUID
	err := r.pool.QueryRow(ctx, `SELECT service_id FROM org_lines WHERE id = $1`, lineID).Scan(&serviceID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, httpx.ErrNotFound
	}
	return serviceID, err
}

// TeamLine looks up the line a team belongs to.
func (r *Repository) TeamLine(ctx context.Context, teamID uuid.UUID) (uuid.UUID, error) {
	var lineID uuid.UUID
	err := r.pool.QueryRow(ctx, `SELECT line_id FROM org_teams WHERE id = $1`, teamID).Scan(&lineID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, httpx.ErrNotFound
	}
	return lineID, err
}

// PostTeam looks up the team a post belongs to.
func (r *Repository) PostTeam(ctx context.Context, postID uuid.UUID) (uuid.UUID, error) {
	var teamID uuid.UUID
	err := r.pool.QueryRow(ctx, `SELECT team_id FROM org_posts WHERE id = $1`, postID).Scan(&teamID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, httpx.ErrNotFound
	}
	return teamID, err
}

func mapInsertError(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return httpx.ErrDuplicate
		case "23503":
			return fmt.Errorf("%w: parent does not exist", httpx.ErrValidation)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
