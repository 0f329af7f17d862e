package actions

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlas-qms/atlas-qms/internal/authz"
	"github.com/atlas-qms/atlas-qms/internal/platform/httpx"
)

// Repository defines persistence operations for actions.
type Repository interface {
	Get(ctx context.Context, id uuid.UUID) (*Action, error)
	List(ctx context.Context, filters ListFilters) ([]Action, int, error)
	Create(ctx context.Context, a Action) error
	Update(ctx context.Context, a Action) error
	Delete(ctx context.Context, id uuid.UUID) error
	MarkLate(ctx context.Context, now time.Time) ([]Action, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const actionColumns = `id, title, description, kind, pilot_id, created_by, status, progress, efficiency, due_date, service_id, line_id, team_id, post_id, completed_at, validated_at, created_at, updated_at`

// Get fetches one action by ID.
func (r *PGRepository) Get(ctx context.Context, id uuid.UUID) (*Action, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+actionColumns+` FROM actions WHERE id = $1`, id)
	a, err := scanAction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, fmt.Errorf("actions: get: %w", err)
	}
	return &a, nil
}

// List returns a filtered page of actions plus the total match count.
func (r *PGRepository) List(ctx context.Context, filters ListFilters) ([]Action, int, error) {
	where, args := buildFilters(filters)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM actions`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("actions: count: %w", err)
	}

	perPage := filters.PerPage
	if perPage <= 0 {
		perPage = 25
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	query := `SELECT ` + actionColumns + ` FROM actions` + where +
		` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, perPage, (page-1)*perPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("actions: list: %w", err)
	}
	defer rows.Close()

	var out []Action
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

// Create inserts a new action.
func (r *PGRepository) Create(ctx context.Context, a Action) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO actions (id, title, description, kind, pilot_id, created_by, status, progress, efficiency, due_date, service_id, line_id, team_id, post_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		a.ID, a.Title, a.Description, string(a.Kind), a.PilotID, a.CreatedByID, string(a.Status), a.Progress, a.Efficiency, a.DueDate,
		nullable(a.ServiceID), nullable(a.LineID), nullable(a.TeamID), nullable(a.PostID))
	if err != nil {
		return fmt.Errorf("actions: create: %w", err)
	}
	return nil
}

// Update rewrites all mutable fields of an action.
func (r *PGRepository) Update(ctx context.Context, a Action) error {
	tag, err := r.pool.Exec(ctx, `UPDATE actions SET title = $2, description = $3, kind = $4, pilot_id = $5, status = $6, progress = $7, efficiency = $8, due_date = $9,
service_id = $10, line_id = $11, team_id = $12, post_id = $13, completed_at = $14, validated_at = $15, updated_at = NOW()
WHERE id = $1`,
		a.ID, a.Title, a.Description, string(a.Kind), a.PilotID, string(a.Status), a.Progress, a.Efficiency, a.DueDate,
		nullable(a.ServiceID), nullable(a.LineID), nullable(a.TeamID), nullable(a.PostID), a.CompletedAt, a.ValidatedAt)
	if err != nil {
		return fmt.Errorf("actions: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// Delete removes an action.
func (r *PGRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM actions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("actions: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// MarkLate flips every overdue, not-yet-completed action to late and returns
// the affected rows. This is the system path used by the background scan;
// it deliberately bypasses the role-capability gate.
func (r *PGRepository) MarkLate(ctx context.Context, now time.Time) ([]Action, error) {
	rows, err := r.pool.Query(ctx, `UPDATE actions SET status = 'late', updated_at = NOW()
WHERE due_date < $1 AND status IN ('identified', 'planned', 'in_progress')
RETURNING `+actionColumns, now)
	if err != nil {
		return nil, fmt.Errorf("actions: mark late: %w", err)
	}
	defer rows.Close()

	var out []Action
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func buildFilters(filters ListFilters) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}
	if filters.Status != "" {
		add("status = $%d", string(filters.Status))
	}
	if filters.ServiceID != uuid.Nil {
		add("service_id = $%d", filters.ServiceID)
	}
	if filters.LineID != uuid.Nil {
		add("line_id = $%d", filters.LineID)
	}
	if filters.TeamID != uuid.Nil {
		add("team_id = $%d", filters.TeamID)
	}
	if filters.PilotID != uuid.Nil {
		add("pilot_id = $%d", filters.PilotID)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	where := " WHERE " + clauses[0]
	for _, c := range clauses[1:] {
		where += " AND " + c
	}
	return where, args
}

func scanAction(row pgx.Row) (Action, error) {
	var (
		a         Action
		kind      string
		status    string
		serviceID *uuid.UUID
		lineID    *uuid.UUID
		teamID    *uuid.UUID
		postID    *uuid.UUID
	)
	if err := row.Scan(&a.ID, &a.Title, &a.Description, &kind, &a.PilotID, &a.CreatedByID, &status, &a.Progress, &a.Efficiency, &a.DueDate,
		&serviceID, &lineID, &teamID, &postID, &a.CompletedAt, &a.ValidatedAt, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return Action{}, err
	}
	a.Kind = Kind(kind)
	a.Status = authz.Status(status)
	a.ServiceID = deref(serviceID)
	a.LineID = deref(lineID)
	a.TeamID = deref(teamID)
	a.PostID = deref(postID)
	return a, nil
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

var _ Repository = (*PGRepository)(nil)
