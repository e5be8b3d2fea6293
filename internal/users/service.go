package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/ultra-bms/ultra-bms/internal/authz"
	"github.com/ultra-bms/ultra-bms/internal/platform/httpx"
	"github.com/ultra-bms/ultra-bms/internal/shared"
)

type Service struct {
	logger *slog.Logger
	repo   Repository
	gate   *authz.Gate
	audit  *shared.AuditLogger
}

func NewService(logger *slog.Logger, repo Repository, gate *authz.Gate, audit *shared.AuditLogger) *Service {
	return &Service{logger: logger, repo: repo, gate: gate, audit: audit}
}

func denyErr(d authz.Decision) error {
	return fmt.Errorf("insufficient permissions: %s: %w", d.Permission, httpx.ErrForbidden)
}

func validRole(role authz.Role) bool {
	for _, r := range authz.AllRoles() {
		if r == role {
			return true
		}
	}
	return false
}

func (s *Service) Get(ctx context.Context, p *authz.Principal, id int64) (*User, error) {
	if d := s.gate.Authorize(p, authz.PermUserRead, nil); !d.Allowed {
		return nil, denyErr(d)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, p *authz.Principal, req ListUsersRequest) ([]User, int, error) {
	if d := s.gate.Authorize(p, authz.PermUserRead, nil); !d.Allowed {
		return nil, 0, denyErr(d)
	}
	if err := shared.ValidateStruct(req); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", err.Error(), httpx.ErrValidation)
	}
	return s.repo.List(ctx, req)
}

func (s *Service) Create(ctx context.Context, p *authz.Principal, req CreateUserRequest) (*User, error) {
	if d := s.gate.Authorize(p, authz.PermUserCreate, nil); !d.Allowed {
		return nil, denyErr(d)
	}
	if err := shared.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), httpx.ErrValidation)
	}
	if !validRole(req.Role) {
		return nil, fmt.Errorf("unknown role %q: %w", req.Role, httpx.ErrValidation)
	}
	// Only SUPER_ADMIN may mint another SUPER_ADMIN.
	if req.Role == authz.RoleSuperAdmin {
		if d := s.gate.Authorize(p, authz.PermSystemAdmin, nil); !d.Allowed {
			return nil, denyErr(d)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("users: hash password: %w", err)
	}
	id, err := s.repo.Create(ctx, User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		FullName:     req.FullName,
		PasswordHash: string(hash),
		Role:         req.Role,
		Phone:        req.Phone,
		IsActive:     true,
		TenantID:     req.TenantID,
		VendorID:     req.VendorID,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, fmt.Errorf("email already registered: %w", httpx.ErrDuplicate)
		}
		return nil, err
	}
	s.recordAudit(ctx, p, "user.create", id, map[string]any{"role": string(req.Role)})
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, p *authz.Principal, id int64, req UpdateUserRequest) (*User, error) {
	if d := s.gate.Authorize(p, authz.PermUserUpdate, nil); !d.Allowed {
		return nil, denyErr(d)
	}
	if err := shared.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), httpx.ErrValidation)
	}
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	u.FullName = req.FullName
	u.Phone = req.Phone
	if err := s.repo.Update(ctx, *u); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, p, "user.update", id, nil)
	return s.repo.Get(ctx, id)
}

// ChangeRole reassigns the user's single role. Restricted to system
// administration because it rewrites the caller-visible permission set.
func (s *Service) ChangeRole(ctx context.Context, p *authz.Principal, id int64, req ChangeRoleRequest) (*User, error) {
	if d := s.gate.Authorize(p, authz.PermSystemAdmin, nil); !d.Allowed {
		return nil, denyErr(d)
	}
	if !validRole(req.Role) {
		return nil, fmt.Errorf("unknown role %q: %w", req.Role, httpx.ErrValidation)
	}
	if p.UserID == id {
		return nil, fmt.Errorf("cannot change own role: %w", httpx.ErrConflict)
	}
	if err := s.repo.SetRole(ctx, id, req.Role); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, p, "user.change_role", id, map[string]any{"role": string(req.Role)})
	return s.repo.Get(ctx, id)
}

func (s *Service) SetActive(ctx context.Context, p *authz.Principal, id int64, active bool) (*User, error) {
	if d := s.gate.Authorize(p, authz.PermUserUpdate, nil); !d.Allowed {
		return nil, denyErr(d)
	}
	if p.UserID == id && !active {
		return nil, fmt.Errorf("cannot deactivate own account: %w", httpx.ErrConflict)
	}
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return nil, err
	}
	action := "user.deactivate"
	if active {
		action = "user.activate"
	}
	s.recordAudit(ctx, p, action, id, nil)
	return s.repo.Get(ctx, id)
}

func (s *Service) AssignedProperties(ctx context.Context, p *authz.Principal, id int64) ([]int64, error) {
	if d := s.gate.Authorize(p, authz.PermUserRead, nil); !d.Allowed {
		return nil, denyErr(d)
	}
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.AssignedPropertyIDs(ctx, id)
}

// AssignProperties replaces a property manager's portfolio. The target
// must actually hold the PROPERTY_MANAGER role.
func (s *Service) AssignProperties(ctx context.Context, p *authz.Principal, id int64, req AssignPropertiesRequest) ([]int64, error) {
	if d := s.gate.Authorize(p, authz.PermSystemAdmin, nil); !d.Allowed {
		return nil, denyErr(d)
	}
	if err := shared.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), httpx.ErrValidation)
	}
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Role != authz.RolePropertyManager {
		return nil, fmt.Errorf("user %d is not a property manager: %w", id, httpx.ErrConflict)
	}
	if err := s.repo.ReplacePropertyAssignments(ctx, id, req.PropertyIDs); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, p, "user.assign_properties", id, map[string]any{"property_ids": req.PropertyIDs})
	return s.repo.AssignedPropertyIDs(ctx, id)
}

func (s *Service) recordAudit(ctx context.Context, p *authz.Principal, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, shared.AuditLog{
		ActorID:  p.UserID,
		Action:   action,
		Entity:   "user",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
}
