package attachments

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

// Repository persists attachment metadata.
type Repository interface {
	Get(ctx context.Context, id uuid.UUID) (*Attachment, error)
	ListByAction(ctx context.Context, actionID uuid.UUID) ([]Attachment, error)
	Create(ctx context.Context, a Attachment) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type PGRepository struct {
	pool *pgxpool.Pool
}

func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const attachmentColumns = `id, action_id, file_name, content_type, size_bytes, storage_key, uploaded_by_id, created_at`

func (r *PGRepository) Get(ctx context.Context, id uuid.UUID) (*Attachment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+attachmentColumns+` FROM attachments WHERE id = $1`, id)
	a, err := scanAttachment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, httpx.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("attachments: get: %w", err)
	}
	return a, nil
}

func (r *PGRepository) ListByAction(ctx context.Context, actionID uuid.UUID) ([]Attachment, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+attachmentColumns+` FROM attachments WHERE action_id = $1 ORDER BY created_at`, actionID)
	if err != nil {
		return nil, fmt.Errorf("attachments: list: %w", err)
	}
	defer rows.Close()

	var out []Attachment
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, fmt.Errorf("attachments: scan: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *PGRepository) Create(ctx context.Context, a Attachment) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO attachments (id, action_id, file_name, content_type, size_bytes, storage_key, uploaded_by_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.ActionID, a.FileName, a.ContentType, a.SizeBytes, a.StorageKey, a.UploadedByID,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return fmt.Errorf("%w: action does not exist", httpx.ErrValidation)
	}
	if err != nil {
		return fmt.Errorf("attachments: create: %w", err)
	}
	return nil
}

func (r *PGRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM attachments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("attachments: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func scanAttachment(row pgx.Row) (*Attachment, error) {
	var a Attachment
	err := row.Scan(&a.ID, &a.ActionID, &a.FileName, &a.ContentType, &a.SizeBytes, &a.StorageKey, &a.UploadedByID, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
