package auth

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ultra-bms/ultra-bms/internal/authz"
	"github.com/ultra-bms/ultra-bms/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// PrincipalFor builds the request principal for a signed-in user,
// resolving tenant/vendor links and the property assignment set.
func (s *Service) PrincipalFor(ctx context.Context, userID int64) (*authz.Principal, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, shared.ErrNotFound
	}
	p := &authz.Principal{UserID: user.ID, Role: user.Role}
	if user.TenantID != nil {
		p.TenantID = *user.TenantID
	}
	if user.VendorID != nil {
		p.VendorID = *user.VendorID
	}
	if user.Role == authz.RolePropertyManager {
		ids, err := s.repo.AssignedPropertyIDs(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		p.AssignedPropertyIDs = ids
	}
	return p, nil
}

// RegisterSession persists the session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, id, userID, expiresAt, ip, ua)
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}
