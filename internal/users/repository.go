package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlas-qms/atlas-qms/internal/authz"
	"github.com/atlas-qms/atlas-qms/internal/platform/httpx"
)

// Repository provides PostgreSQL backed persistence for user profiles.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, email, name, role, service_id, line_id, team_id, post_id, is_active, created_at, updated_at`

// List returns all profiles ordered by name.
func (r *Repository) List(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("users: list: %w", err)
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Get fetches a profile by ID.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, fmt.Errorf("users: get: %w", err)
	}
	return &u, nil
}

// Create inserts a profile with the given bcrypt password hash.
func (r *Repository) Create(ctx context.Context, u User, passwordHash string) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO users (id, email, name, password_hash, role, service_id, line_id, team_id, post_id, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		u.ID, u.Email, u.Name, passwordHash, string(u.Role),
		nullable(u.ServiceID), nullable(u.LineID), nullable(u.TeamID), nullable(u.PostID), u.IsActive)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return httpx.ErrDuplicate
		}
		return fmt.Errorf("users: create: %w", err)
	}
	return nil
}

// Update rewrites the mutable profile fields.
func (r *Repository) Update(ctx context.Context, u User) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET name = $2, role = $3, service_id = $4, line_id = $5, team_id = $6, post_id = $7, is_active = $8, updated_at = NOW()
WHERE id = $1`,
		u.ID, u.Name, string(u.Role),
		nullable(u.ServiceID), nullable(u.LineID), nullable(u.TeamID), nullable(u.PostID), u.IsActive)
	if err != nil {
		return fmt.Errorf("users: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (User, error) {
	var (
		u         User
		role      string
		serviceID *uuid.UUID
		lineID    *uuid.UUID
		teamID    *uuid.UUID
		postID    *uuid.UUID
	)
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &role, &serviceID, &lineID, &teamID, &postID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return User{}, err
	}
	// Unknown stored roles stay as-is; the authz core denies them.
	u.Role = authz.Role(role)
	u.ServiceID = deref(serviceID)
	u.LineID = deref(lineID)
	u.TeamID = deref(teamID)
	u.PostID = deref(postID)
	return u, nil
}

func nullable(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

func deref(id *uuid.UUID) uuid.UUID {
	if id == nil {
		return uuid.Nil
	}
	return *id
}
