package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/atlas-qms/atlas-qms/internal/actions"
	"github.com/atlas-qms/atlas-qms/internal/users"
)

// UserDirectory resolves the recipient of a notification.
type UserDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*users.User, error)
}

// Notifier turns action events into queued email tasks. It satisfies the
// action service's Notifier interface.
type Notifier struct {
	client *Client
	users  UserDirectory
	logger *slog.Logger
}

func NewNotifier(client *Client, users UserDirectory, logger *slog.Logger) *Notifier {
	return &Notifier{client: client, users: users, logger: logger}
}

// ActionAssigned mails the pilot when an action is filed or reassigned to
// them.
func (n *Notifier) ActionAssigned(ctx context.Context, action actions.Action) error {
	pilot, err := n.users.Get(ctx, action.PilotID)
	if err != nil {
		return fmt.Errorf("jobs: resolve pilot: %w", err)
	}
	_, err = n.client.EnqueueSendEmail(ctx, SendEmailPayload{
		To:      pilot.Email,
		Subject: fmt.Sprintf("Action assigned: %s", action.Title),
		Body:    fmt.Sprintf("You are now the pilot of %q. Due date: %s.", action.Title, dueLabel(action)),
	})
	return err
}

// ActionLate mails the pilot when the overdue scan demotes their action.
func (n *Notifier) ActionLate(ctx context.Context, action actions.Action) error {
	pilot, err := n.users.Get(ctx, action.PilotID)
	if err != nil {
		return fmt.Errorf("jobs: resolve pilot: %w", err)
	}
	_, err = n.client.EnqueueSendEmail(ctx, SendEmailPayload{
		To:      pilot.Email,
		Subject: fmt.Sprintf("Action late: %s", action.Title),
		Body:    fmt.Sprintf("%q passed its due date (%s) and is now marked late.", action.Title, dueLabel(action)),
	})
	return err
}

func dueLabel(action actions.Action) string {
	if action.DueDate == nil {
		return "none"
	}
	return action.DueDate.Format("2006-01-02")
}
