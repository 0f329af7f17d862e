package attachments

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/atlas-qms/atlas-qms/internal/actions"
	"github.com/atlas-qms/atlas-qms/internal/authz"
	"github.com/atlas-qms/atlas-qms/internal/platform/httpx"
)

// maxUploadBytes caps a single attachment at 25 MiB.
const maxUploadBytes = 25 << 20

// signedURLTTL is how long a download link stays valid.
const signedURLTTL = 15 * time.Minute

// ActionSource supplies the action a file is being attached to, for the
// authorization decision.
type ActionSource interface {
	Get(ctx context.Context, id uuid.UUID) (*actions.Action, error)
}

type Service struct {
	repo   Repository
	store  Store
	source ActionSource
	logger *slog.Logger
}

func NewService(repo Repository, store Store, source ActionSource, logger *slog.Logger) *Service {
	return &Service{repo: repo, store: store, source: source, logger: logger}
}

// Attach uploads a file against an action. The actor must hold the add
// attachment capability for that action; archived actions accept nothing.
func (s *Service) Attach(ctx context.Context, actor authz.Actor, actionID uuid.UUID, upload Upload) (*Attachment, error) {
	action, err := s.source.Get(ctx, actionID)
	if err != nil {
		return nil, err
	}
	if action.Status.ReadOnly() {
		return nil, fmt.Errorf("%w: action is archived", httpx.ErrReadOnly)
	}
	caps := authz.Resolve(actor, action.Snapshot())
	if !caps.CanAddAttachments {
		return nil, fmt.Errorf("%w: cannot attach files to this action", httpx.ErrForbidden)
	}
	if upload.FileName == "" {
		return nil, fmt.Errorf("%w: file name required", httpx.ErrValidation)
	}
	if upload.SizeBytes <= 0 || upload.SizeBytes > maxUploadBytes {
		return nil, fmt.Errorf("%w: file size out of range", httpx.ErrValidation)
	}

	att := Attachment{
		ID:           uuid.New(),
		ActionID:     actionID,
		FileName:     upload.FileName,
		ContentType:  upload.ContentType,
		SizeBytes:    upload.SizeBytes,
		UploadedByID: actor.ID,
	}
	att.StorageKey = fmt.Sprintf("actions/%s/%s", actionID, att.ID)

	if err := s.store.Put(ctx, att.StorageKey, att.ContentType, att.SizeBytes, upload.Body); err != nil {
		return nil, fmt.Errorf("attachments: store put: %w", err)
	}
	if err := s.repo.Create(ctx, att); err != nil {
		// Orphaned objects are cheap; a failed metadata insert must not
		// leave the client believing the upload succeeded.
		if delErr := s.store.Delete(ctx, att.StorageKey); delErr != nil {
			s.logger.Warn("orphaned object cleanup failed", slog.String("key", att.StorageKey), slog.Any("error", delErr))
		}
		return nil, err
	}
	return &att, nil
}

// List returns the attachments of an action together with fresh signed
// download URLs. Reading follows the same open-viewing rule as actions.
func (s *Service) List(ctx context.Context, actionID uuid.UUID) ([]Attachment, map[uuid.UUID]string, error) {
	items, err := s.repo.ListByAction(ctx, actionID)
	if err != nil {
		return nil, nil, err
	}
	urls := make(map[uuid.UUID]string, len(items))
	for _, att := range items {
		url, err := s.store.SignedURL(ctx, att.StorageKey, signedURLTTL)
		if err != nil {
			return nil, nil, fmt.Errorf("attachments: sign url: %w", err)
		}
		urls[att.ID] = url
	}
	return items, urls, nil
}

// Remove deletes an attachment. Only the uploader or an admin may remove
// one, and never from an archived action.
func (s *Service) Remove(ctx context.Context, actor authz.Actor, id uuid.UUID) error {
	att, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	action, err := s.source.Get(ctx, att.ActionID)
	if err != nil {
		return err
	}
	if action.Status.ReadOnly() {
		return fmt.Errorf("%w: action is archived", httpx.ErrReadOnly)
	}
	if actor.Role != authz.RoleAdmin && actor.ID != att.UploadedByID {
		return fmt.Errorf("%w: only the uploader may remove an attachment", httpx.ErrForbidden)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, att.StorageKey); err != nil {
		s.logger.Warn("object delete failed", slog.String("key", att.StorageKey), slog.Any("error", err))
	}
	return nil
}
