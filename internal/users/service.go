package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/atlas-qms/atlas-qms/internal/authz"
	"github.com/atlas-qms/atlas-qms/internal/platform/httpx"
)

// Service wraps user management business rules.
type Service struct {
	repo *Repository
}

// NewService constructs a Service.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// List returns all user profiles.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// Get fetches a single profile.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.Get(ctx, id)
}

// Actor resolves the authorization actor for a user ID. Inactive or unknown
// users resolve to the zero actor, which the authz core denies.
func (s *Service) Actor(ctx context.Context, id uuid.UUID) (authz.Actor, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return authz.Actor{}, err
	}
	if !user.IsActive {
		return authz.Actor{}, httpx.ErrForbidden
	}
	return user.Actor(), nil
}

// Create validates and inserts a new profile.
func (s *Service) Create(ctx context.Context, u User, password string) (*User, error) {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.Name = strings.TrimSpace(u.Name)
	if !u.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", httpx.ErrValidation, u.Role)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("users: hash password: %w", err)
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.IsActive = true
	if err := s.repo.Create(ctx, u, string(hash)); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, u.ID)
}

// Update rewrites role, placement and activity flags of a profile.
func (s *Service) Update(ctx context.Context, u User) (*User, error) {
	u.Name = strings.TrimSpace(u.Name)
	if !u.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", httpx.ErrValidation, u.Role)
	}
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, u.ID)
}
