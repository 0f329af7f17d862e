package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository exposes the aggregate queries the dashboard is built from.
type Repository interface {
	StatusCounts(ctx context.Context) (map[string]int, error)
	ServiceSummaries(ctx context.Context) ([]ServiceSummary, error)
	OverdueCount(ctx context.Context, now time.Time) (int, error)
}

type PGRepository struct {
	pool *pgxpool.Pool
}

func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) StatusCounts(ctx context.Context) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM actions GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("dashboard: status counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("dashboard: scan status count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (r *PGRepository) ServiceSummaries(ctx context.Context) ([]ServiceSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.id, s.name,
		       COUNT(a.id),
		       COUNT(a.id) FILTER (WHERE a.status IN ('identified','planned','in_progress')),
		       COUNT(a.id) FILTER (WHERE a.status = 'late'),
		       COUNT(a.id) FILTER (WHERE a.status IN ('completed','validated','archived'))
		FROM org_services s
		LEFT JOIN actions a ON a.service_id = s.id
		GROUP BY s.id, s.name
		ORDER BY s.name`)
	if err != nil {
		return nil, fmt.Errorf("dashboard: service summaries: %w", err)
	}
	defer rows.Close()

	var out []ServiceSummary
	for rows.Next() {
		var s ServiceSummary
		if err := rows.Scan(&s.ServiceID, &s.Name, &s.Total, &s.Open, &s.Late, &s.Closed); err != nil {
			return nil, fmt.Errorf("dashboard: scan service summary: %w", err)
		}
		if s.Total > 0 {
			s.CompletionRate = float64(s.Closed) / float64(s.Total)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PGRepository) OverdueCount(ctx context.Context, now time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM actions
		WHERE due_date < $1 AND status NOT IN ('completed','validated','archived')`, now).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("dashboard: overdue count: %w", err)
	}
	return n, nil
}

// ServiceSummary is one row of the per-service breakdown.
type ServiceSummary struct {
	ServiceID      uuid.UUID `json:"service_id"`
	Name           string    `json:"name"`
	Total          int       `json:"total"`
	Open           int       `json:"open"`
	Late           int       `json:"late"`
	Closed         int       `json:"closed"`
	CompletionRate float64   `json:"completion_rate"`
}
