package tenants

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ultra-bms/ultra-bms/internal/authz"
	"github.com/ultra-bms/ultra-bms/internal/platform/httpx"
	"github.com/ultra-bms/ultra-bms/internal/shared"
)

var nameCaser = cases.Title(language.English)

// normalizeName folds stray casing in user-entered names ("mARIA" ->
// "Maria") so search and dedupe behave consistently.
func normalizeName(s string) string {
	return nameCaser.String(s)
}

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

func tenantRef(t *Tenant) *authz.ResourceRef {
	ref := &authz.ResourceRef{TenantID: t.ID}
	if t.PropertyID != nil {
		ref.PropertyID = *t.PropertyID
	}
	return ref
}

func (s *Service) Get(ctx context.Context, p *authz.Principal, id int64) (*Tenant, error) {
	t, err := s.repo.GetTenant(ctx, id)
	if err != nil {
		return nil, err
	}
	if d := s.gate.Authorize(p, authz.PermTenantRead, tenantRef(t)); !d.Allowed {
		return nil, denyErr(d)
	}
	return t, nil
}

// Me resolves the tenant record of the calling principal. This is the
// tenant-portal entry point and relies on tenant:read:own.
func (s *Service) Me(ctx context.Context, p *authz.Principal) (*Tenant, error) {
	if p == nil || p.TenantID == 0 {
		return nil, fmt.Errorf("no tenant profile: %w", httpx.ErrForbidden)
	}
	return s.Get(ctx, p, p.TenantID)
}

func (s *Service) List(ctx context.Context, p *authz.Principal, req ListTenantsRequest) ([]Tenant, int, error) {
	d := s.gate.Authorize(p, authz.PermTenantRead, nil)
	if !d.Allowed {
		return nil, 0, denyErr(d)
	}
	tenants, total, err := s.repo.ListTenants(ctx, req)
	if err != nil {
		return nil, 0, err
	}
	// A principal holding only tenant:read:own sees at most their own row.
	if d.Permission.Scope() != "" {
		pred := s.gate.ScopePredicate(p, authz.PermTenantRead)
		filtered := tenants[:0]
		for _, t := range tenants {
			if pred(*tenantRef(&t)) {
				filtered = append(filtered, t)
			}
		}
		tenants = filtered
		total = len(filtered)
	}
	return tenants, total, nil
}

func (s *Service) Create(ctx context.Context, p *authz.Principal, req CreateTenantRequest) (*Tenant, error) {
	if d := s.gate.Authorize(p, authz.PermTenantCreate, nil); !d.Allowed {
		return nil, denyErr(d)
	}
	if err := shared.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), httpx.ErrValidation)
	}
	id, err := s.repo.CreateTenant(ctx, Tenant{
		FirstName:  normalizeName(req.FirstName),
		LastName:   normalizeName(req.LastName),
		Email:      req.Email,
		Phone:      req.Phone,
		PropertyID: req.PropertyID,
		UnitID:     req.UnitID,
		MoveInDate: req.MoveInDate,
		IsActive:   true,
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, p, "tenant.create", id, nil)
	return s.repo.GetTenant(ctx, id)
}

func (s *Service) Update(ctx context.Context, p *authz.Principal, id int64, req UpdateTenantRequest) (*Tenant, error) {
	if d := s.gate.Authorize(p, authz.PermTenantUpdate, nil); !d.Allowed {
		return nil, denyErr(d)
	}
	if err := shared.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), httpx.ErrValidation)
	}
	t, err := s.repo.GetTenant(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.FirstName != nil {
		t.FirstName = normalizeName(*req.FirstName)
	}
	if req.LastName != nil {
		t.LastName = normalizeName(*req.LastName)
	}
	if req.Phone != nil {
		t.Phone = *req.Phone
	}
	if req.PropertyID != nil {
		t.PropertyID = req.PropertyID
	}
	if req.UnitID != nil {
		t.UnitID = req.UnitID
	}
	if req.MoveInDate != nil {
		t.MoveInDate = req.MoveInDate
	}
	if req.IsActive != nil {
		t.IsActive = *req.IsActive
	}
	if err := s.repo.UpdateTenant(ctx, *t); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, p, "tenant.update", id, nil)
	return s.repo.GetTenant(ctx, id)
}

func (s *Service) CreateLead(ctx context.Context, p *authz.Principal, req CreateLeadRequest) (*Lead, error) {
	if d := s.gate.Authorize(p, authz.PermTenantCreate, nil); !d.Allowed {
		return nil, denyErr(d)
	}
	if err := shared.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), httpx.ErrValidation)
	}
	id, err := s.repo.CreateLead(ctx, Lead{
		FirstName:  normalizeName(req.FirstName),
		LastName:   normalizeName(req.LastName),
		Email:      req.Email,
		Phone:      req.Phone,
		PropertyID: req.PropertyID,
		UnitID:     req.UnitID,
		Status:     LeadNew,
		Source:     req.Source,
		Notes:      req.Notes,
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, p, "lead.create", id, nil)
	return s.repo.GetLead(ctx, id)
}

func (s *Service) ListLeads(ctx context.Context, p *authz.Principal, status *LeadStatus) ([]Lead, error) {
	if d := s.gate.Authorize(p, authz.PermTenantRead, nil); !d.Allowed {
		return nil, denyErr(d)
	}
	return s.repo.ListLeads(ctx, status)
}

func (s *Service) UpdateLead(ctx context.Context, p *authz.Principal, id int64, req UpdateLeadRequest) (*Lead, error) {
	if d := s.gate.Authorize(p, authz.PermTenantUpdate, nil); !d.Allowed {
		return nil, denyErr(d)
	}
	lead, err := s.repo.GetLead(ctx, id)
	if err != nil {
		return nil, err
	}
	if lead.Status == LeadConverted {
		return nil, fmt.Errorf("lead already converted: %w", httpx.ErrConflict)
	}
	if req.Status != nil {
		lead.Status = *req.Status
	}
	if req.Notes != nil {
		lead.Notes = *req.Notes
	}
	if err := s.repo.UpdateLead(ctx, *lead); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, p, "lead.update", id, nil)
	return s.repo.GetLead(ctx, id)
}

// ConvertLead turns a lead into a tenancy: user account, tenant record
// and draft lease in a single transaction.
func (s *Service) ConvertLead(ctx context.Context, p *authz.Principal, leadID int64, req ConvertLeadRequest) (*ConvertLeadResponse, error) {
	if d := s.gate.Authorize(p, authz.PermTenantCreate, nil); !d.Allowed {
		return nil, denyErr(d)
	}
	if err := shared.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), httpx.ErrValidation)
	}
	if !req.EndDate.After(req.StartDate) {
		return nil, fmt.Errorf("lease end date must be after start date: %w", httpx.ErrValidation)
	}
	lead, err := s.repo.GetLead(ctx, leadID)
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.TempPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("tenants: hash password: %w", err)
	}
	tenant, lease, userID, err := s.repo.ConvertLead(ctx, leadID, NewTenantUser{
		Email:        lead.Email,
		PasswordHash: string(hash),
		FullName:     normalizeName(lead.FirstName) + " " + normalizeName(lead.LastName),
	}, Lease{
		PropertyID:      req.PropertyID,
		UnitID:          req.UnitID,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		MonthlyRent:     req.MonthlyRent,
		SecurityDeposit: req.SecurityDeposit,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, fmt.Errorf("lead already converted: %w", httpx.ErrConflict)
		}
		return nil, err
	}
	s.recordAudit(ctx, p, "lead.convert", leadID, map[string]any{"tenant_id": tenant.ID, "lease_id": lease.ID})
	return &ConvertLeadResponse{Tenant: *tenant, Lease: *lease, UserID: userID}, nil
}

func (s *Service) GetLease(ctx context.Context, p *authz.Principal, id int64) (*Lease, error) {
	lease, err := s.repo.GetLease(ctx, id)
	if err != nil {
		return nil, err
	}
	ref := &authz.ResourceRef{TenantID: lease.TenantID, PropertyID: lease.PropertyID}
	if d := s.gate.Authorize(p, authz.PermTenantRead, ref); !d.Allowed {
		return nil, denyErr(d)
	}
	return lease, nil
}

func (s *Service) ListLeases(ctx context.Context, p *authz.Principal, tenantID int64) ([]Lease, error) {
	if _, err := s.Get(ctx, p, tenantID); err != nil {
		return nil, err
	}
	return s.repo.ListLeasesByTenant(ctx, tenantID)
}

func (s *Service) CreateLease(ctx context.Context, p *authz.Principal, req CreateLeaseRequest) (*Lease, error) {
	if d := s.gate.Authorize(p, authz.PermTenantUpdate, nil); !d.Allowed {
		return nil, denyErr(d)
	}
	if err := shared.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), httpx.ErrValidation)
	}
	if !req.EndDate.After(req.StartDate) {
		return nil, fmt.Errorf("lease end date must be after start date: %w", httpx.ErrValidation)
	}
	id, err := s.repo.CreateLease(ctx, Lease{
		TenantID:        req.TenantID,
		PropertyID:      req.PropertyID,
		UnitID:          req.UnitID,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		MonthlyRent:     req.MonthlyRent,
		SecurityDeposit: req.SecurityDeposit,
		Status:          LeaseActive,
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, p, "lease.create", id, nil)
	return s.repo.GetLease(ctx, id)
}

func (s *Service) RenewLease(ctx context.Context, p *authz.Principal, id int64, req RenewLeaseRequest) (*Lease, error) {
	if d := s.gate.Authorize(p, authz.PermTenantUpdate, nil); !d.Allowed {
		return nil, denyErr(d)
	}
	if err := shared.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), httpx.ErrValidation)
	}
	lease, err := s.repo.GetLease(ctx, id)
	if err != nil {
		return nil, err
	}
	if lease.Status != LeaseActive && lease.Status != LeaseExpired {
		return nil, fmt.Errorf("only active or expired leases can be renewed: %w", httpx.ErrConflict)
	}
	if !req.EndDate.After(lease.EndDate) {
		return nil, fmt.Errorf("renewal must extend the lease: %w", httpx.ErrValidation)
	}
	lease.EndDate = req.EndDate
	lease.Status = LeaseActive
	if req.MonthlyRent != nil {
		lease.MonthlyRent = *req.MonthlyRent
	}
	if err := s.repo.UpdateLease(ctx, *lease); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, p, "lease.renew", id, nil)
	return s.repo.GetLease(ctx, id)
}

func (s *Service) TerminateLease(ctx context.Context, p *authz.Principal, id int64) (*Lease, error) {
	if d := s.gate.Authorize(p, authz.PermTenantUpdate, nil); !d.Allowed {
		return nil, denyErr(d)
	}
	lease, err := s.repo.GetLease(ctx, id)
	if err != nil {
		return nil, err
	}
	if lease.Status == LeaseTerminated {
		return nil, fmt.Errorf("lease already terminated: %w", httpx.ErrConflict)
	}
	lease.Status = LeaseTerminated
	if err := s.repo.UpdateLease(ctx, *lease); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, p, "lease.terminate", id, nil)
	return s.repo.GetLease(ctx, id)
}

// LeasesExpiringBefore backs the daily expiry scan job. No gate check:
// the job runs as the system, not as a principal.
func (s *Service) LeasesExpiringBefore(ctx context.Context, cutoff time.Time) ([]Lease, error) {
	return s.repo.LeasesExpiringBefore(ctx, cutoff)
}

// TenantEmail resolves a tenant's contact address for system
// notifications.
func (s *Service) TenantEmail(ctx context.Context, tenantID int64) (string, error) {
	t, err := s.repo.GetTenant(ctx, tenantID)
	if err != nil {
		return "", err
	}
	return t.Email, nil
}

func (s *Service) recordAudit(ctx context.Context, p *authz.Principal, action string, id int64, meta map[string]any) {
	if s.audit == nil || p == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  p.UserID,
		Action:   action,
		Entity:   "tenants",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
}
