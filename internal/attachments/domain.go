// Package attachments stores file evidence against actions. The bytes live
// in an external object store behind the Store interface; only metadata is
// kept in Postgres.
package attachments

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// Attachment is the metadata row for one stored file.
type Attachment struct {
	ID           uuid.UUID `json:"id"`
	ActionID     uuid.UUID `json:"action_id"`
	FileName     string    `json:"file_name"`
	ContentType  string    `json:"content_type"`
	SizeBytes    int64     `json:"size_bytes"`
	StorageKey   string    `json:"-"`
	UploadedByID uuid.UUID `json:"uploaded_by_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store is the object storage collaborator. Implementations are expected to
// be S3-compatible but the service never assumes more than these three
// operations.
type Store interface {
	Put(ctx context.Context, key string, contentType string, size int64, body io.Reader) error
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

// Upload carries an incoming file.
type Upload struct {
	FileName    string
	ContentType string
	SizeBytes   int64
	Body        io.Reader
}
