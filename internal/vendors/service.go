package vendors

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ultra-bms/ultra-bms/internal/authz"
	"github.com/ultra-bms/ultra-bms/internal/platform/httpx"
	"github.com/ultra-bms/ultra-bms/internal/shared"
)

type Service struct {
	repo  Repository
	gate  *authz.Gate
	audit *shared.AuditLogger
}

func NewService(repo Repository, gate *authz.Gate, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, gate: gate, audit: audit}
}

func denyErr(d authz.Decision) error {
	return fmt.Errorf("insufficient permissions: %s: %w", d.Permission, httpx.ErrForbidden)
}

func (s *Service) Get(ctx context.Context, p *authz.Principal, id int64) (*Vendor, error) {
	if d := s.gate.Authorize(p, authz.PermVendorRead, nil); !d.Allowed {
		return nil, denyErr(d)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, p *authz.Principal, activeOnly bool) ([]Vendor, error) {
	if d := s.gate.Authorize(p, authz.PermVendorRead, nil); !d.Allowed {
		return nil, denyErr(d)
	}
	return s.repo.List(ctx, activeOnly)
}

func (s *Service) Create(ctx context.Context, p *authz.Principal, req CreateVendorRequest) (*Vendor, error) {
	if d := s.gate.Authorize(p, authz.PermVendorCreate, nil); !d.Allowed {
		return nil, denyErr(d)
	}
	if err := shared.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), httpx.ErrValidation)
	}
	id, err := s.repo.Create(ctx, Vendor{
		Name:        req.Name,
		ContactName: req.ContactName,
		Email:       req.Email,
		Phone:       req.Phone,
		Category:    req.Category,
		IsActive:    true,
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, p, "vendor.create", id)
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, p *authz.Principal, id int64, req UpdateVendorRequest) (*Vendor, error) {
	if d := s.gate.Authorize(p, authz.PermVendorUpdate, nil); !d.Allowed {
		return nil, denyErr(d)
	}
	if err := shared.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), httpx.ErrValidation)
	}
	v, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		v.Name = *req.Name
	}
	if req.ContactName != nil {
		v.ContactName = *req.ContactName
	}
	if req.Phone != nil {
		v.Phone = *req.Phone
	}
	if req.Category != nil {
		v.Category = *req.Category
	}
	if req.IsActive != nil {
		v.IsActive = *req.IsActive
	}
	if err := s.repo.Update(ctx, *v); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, p, "vendor.update", id)
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, p *authz.Principal, id int64) error {
	if d := s.gate.Authorize(p, authz.PermVendorDelete, nil); !d.Allowed {
		return denyErr(d)
	}
	v, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	// Vendors are deactivated, not removed: work order history keeps
	// referencing them.
	v.IsActive = false
	if err := s.repo.Update(ctx, *v); err != nil {
		return err
	}
	s.recordAudit(ctx, p, "vendor.deactivate", id)
	return nil
}

// Rate records a performance review for a vendor's work order.
func (s *Service) Rate(ctx context.Context, p *authz.Principal, vendorID int64, req RateVendorRequest) (*Performance, error) {
	if d := s.gate.Authorize(p, authz.PermVendorPerformance, nil); !d.Allowed {
		return nil, denyErr(d)
	}
	if err := shared.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), httpx.ErrValidation)
	}
	if _, err := s.repo.Get(ctx, vendorID); err != nil {
		return nil, err
	}
	if _, err := s.repo.CreateRating(ctx, Rating{
		VendorID:    vendorID,
		WorkOrderID: req.WorkOrderID,
		Score:       req.Score,
		Comment:     req.Comment,
		RatedBy:     p.UserID,
	}); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, p, "vendor.rate", vendorID)
	return s.repo.Performance(ctx, vendorID)
}

func (s *Service) Performance(ctx context.Context, p *authz.Principal, vendorID int64) (*Performance, error) {
	if d := s.gate.Authorize(p, authz.PermVendorPerformance, nil); !d.Allowed {
		return nil, denyErr(d)
	}
	if _, err := s.repo.Get(ctx, vendorID); err != nil {
		return nil, err
	}
	return s.repo.Performance(ctx, vendorID)
}

// ContactEmail lets other modules resolve a vendor address for
// notifications without a principal.
func (s *Service) ContactEmail(ctx context.Context, vendorID int64) (string, error) {
	return s.repo.ContactEmail(ctx, vendorID)
}

func (s *Service) recordAudit(ctx context.Context, p *authz.Principal, action string, id int64) {
	if s.audit == nil || p == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  p.UserID,
		Action:   action,
		Entity:   "vendors",
		EntityID: strconv.FormatInt(id, 10),
	})
}
