// Package audit keeps the immutable history of action edits and status
// transitions. Every authorized mutation writes one entry; the timeline is
// what reviewers and auditors see on the action detail screen.
package audit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Kind enumerates recorded event kinds.
type Kind string

const (
	// KindCreated marks action creation.
	KindCreated Kind = "created"
	// KindUpdated marks a field-level edit.
	KindUpdated Kind = "updated"
	// KindTransition marks a status transition, manual or automatic.
	KindTransition Kind = "transition"
)

// Entry represents a single history record.
type Entry struct {
	ID         int64
	ActionID   uuid.UUID
	ActorID    uuid.UUID
	Kind       Kind
	FromStatus string
	ToStatus   string
	Note       string
	At         time.Time
}

// Recorder persists action history.
type Recorder struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewRecorder constructs a Recorder.
func NewRecorder(pool *pgxpool.Pool, logger *slog.Logger) *Recorder {
	return &Recorder{pool: pool, logger: logger}
}

// Record writes a history entry. ActorID may be uuid.Nil for system events
// such as the automatic late scan.
func (r *Recorder) Record(ctx context.Context, entry Entry) error {
	if r == nil {
		return errors.New("audit recorder not initialised")
	}
	if entry.ActionID == uuid.Nil {
		return errors.New("audit action id required")
	}
	if entry.Kind == "" {
		return errors.New("audit kind required")
	}
	var actorID any
	if entry.ActorID != uuid.Nil {
		actorID = entry.ActorID
	}
	at := entry.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err := r.pool.Exec(ctx, `INSERT INTO action_history (action_id, actor_id, kind, from_status, to_status, note, at)
VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7)`,
		entry.ActionID, actorID, string(entry.Kind), entry.FromStatus, entry.ToStatus, entry.Note, at)
	if err != nil {
		r.logger.Error("record action history", slog.Any("error", err))
		return err
	}
	return nil
}

// Timeline returns the history for one action, oldest first.
func (r *Recorder) Timeline(ctx context.Context, actionID uuid.UUID) ([]Entry, error) {
	if r == nil {
		return nil, errors.New("audit recorder not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT id, action_id, COALESCE(actor_id, '00000000-0000-0000-0000-000000000000'::uuid), kind, COALESCE(from_status, ''), COALESCE(to_status, ''), note, at
FROM action_history WHERE action_id = $1 ORDER BY at ASC, id ASC`, actionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e    Entry
			kind string
		)
		if err := rows.Scan(&e.ID, &e.ActionID, &e.ActorID, &kind, &e.FromStatus, &e.ToStatus, &e.Note, &e.At); err != nil {
			return nil, err
		}
		e.Kind = Kind(kind)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
