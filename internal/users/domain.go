package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/atlas-qms/atlas-qms/internal/authz"
)

// User represents a user profile: identity, role and organizational
// placement. The placement levels are stored denormalized so the profile is
// exactly the actor snapshot the authorization core consumes.
type User struct {
	ID        uuid.UUID
	Email     string
	Name      string
	Role      authz.Role
	ServiceID uuid.UUID
	LineID    uuid.UUID
	TeamID    uuid.UUID
	PostID    uuid.UUID
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Actor converts the profile into an authorization actor snapshot.
func (u User) Actor() authz.Actor {
	return authz.Actor{
		Role: u.Role,
		ID:   u.ID,
		Placement: authz.Placement{
			ServiceID: u.ServiceID,
			LineID:    u.LineID,
			TeamID:    u.TeamID,
			PostID:    u.PostID,
		},
	}
}
