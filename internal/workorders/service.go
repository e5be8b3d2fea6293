package workorders

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ultra-bms/ultra-bms/internal/authz"
	"github.com/ultra-bms/ultra-bms/internal/platform/httpx"
	"github.com/ultra-bms/ultra-bms/internal/shared"
)

// Notifier enqueues outbound email. The worker picks the task up
// asynchronously; a failed enqueue must not fail the request.
type Notifier interface {
	EnqueueEmail(ctx context.Context, to, subject, body string) error
}

// VendorDirectory resolves the contact address for assignment mail.
type VendorDirectory interface {
	ContactEmail(ctx context.Context, vendorID int64) (string, error)
}

type Service struct {
	repo     Repository
	gate     *authz.Gate
	audit    *shared.AuditLogger
	notifier Notifier
	vendors  VendorDirectory
}

func NewService(repo Repository, gate *authz.Gate, audit *shared.AuditLogger, notifier Notifier, vendors VendorDirectory) *Service {
	return &Service{repo: repo, gate: gate, audit: audit, notifier: notifier, vendors: vendors}
}

func denyErr(d authz.Decision) error {
	return fmt.Errorf("insufficient permissions: %s: %w", d.Permission, httpx.ErrForbidden)
}

func workOrderRef(wo *WorkOrder) *authz.ResourceRef {
	ref := &authz.ResourceRef{PropertyID: wo.PropertyID, OwnerUserID: wo.CreatedBy}
	if wo.TenantID != nil {
		ref.TenantID = *wo.TenantID
	}
	if wo.VendorID != nil {
		ref.VendorID = *wo.VendorID
	}
	return ref
}

func (s *Service) Get(ctx context.Context, p *authz.Principal, id int64) (*WorkOrder, error) {
	wo, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d := s.gate.Authorize(p, authz.PermWorkOrderRead, workOrderRef(wo)); !d.Allowed {
		return nil, denyErr(d)
	}
	return wo, nil
}

// List returns work orders visible to the principal. Scoped grants
// (tenant own, vendor assigned) degrade to a per-row predicate.
func (s *Service) List(ctx context.Context, p *authz.Principal, req ListWorkOrdersRequest) ([]WorkOrder, int, error) {
	d := s.gate.Authorize(p, authz.PermWorkOrderRead, nil)
	if !d.Allowed {
		return nil, 0, denyErr(d)
	}
	orders, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, 0, err
	}
	if d.Permission.Scope() != "" {
		pred := s.gate.ScopePredicate(p, authz.PermWorkOrderRead)
		filtered := orders[:0]
		for _, wo := range orders {
			if pred(*workOrderRef(&wo)) {
				filtered = append(filtered, wo)
			}
		}
		orders = filtered
		total = len(filtered)
	}
	return orders, total, nil
}

func (s *Service) Create(ctx context.Context, p *authz.Principal, req CreateWorkOrderRequest) (*WorkOrder, error) {
	if d := s.gate.Authorize(p, authz.PermWorkOrderCreate, nil); !d.Allowed {
		return nil, denyErr(d)
	}
	if err := shared.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), httpx.ErrValidation)
	}
	wo := WorkOrder{
		PropertyID:  req.PropertyID,
		UnitID:      req.UnitID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
		Status:      StatusOpen,
		CreatedBy:   p.UserID,
	}
	if p.Role == authz.RoleTenant && p.TenantID != 0 {
		tid := p.TenantID
		wo.TenantID = &tid
	}
	id, err := s.repo.Create(ctx, wo)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, p, "workorder.create", id, nil)
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, p *authz.Principal, id int64, req UpdateWorkOrderRequest) (*WorkOrder, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), httpx.ErrValidation)
	}
	wo, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d := s.gate.Authorize(p, authz.PermWorkOrderUpdate, workOrderRef(wo)); !d.Allowed {
		return nil, denyErr(d)
	}
	if req.Title != nil {
		wo.Title = *req.Title
	}
	if req.Description != nil {
		wo.Description = *req.Description
	}
	if req.Priority != nil {
		wo.Priority = *req.Priority
	}
	if req.Status != nil && *req.Status != wo.Status {
		if !CanTransition(wo.Status, *req.Status) {
			return nil, fmt.Errorf("illegal status transition %s -> %s: %w", wo.Status, *req.Status, httpx.ErrConflict)
		}
		if *req.Status == StatusApproved {
			// Approval goes through Approve so the approver is recorded.
			return nil, fmt.Errorf("use the approve operation: %w", httpx.ErrValidation)
		}
		wo.Status = *req.Status
		if wo.Status == StatusCompleted {
			now := time.Now().UTC()
			wo.CompletedAt = &now
		}
	}
	if err := s.repo.Update(ctx, *wo); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, p, "workorder.update", id, nil)
	return s.repo.Get(ctx, id)
}

// Assign hands the work order to a vendor and notifies them by mail.
func (s *Service) Assign(ctx context.Context, p *authz.Principal, id int64, req AssignWorkOrderRequest) (*WorkOrder, error) {
	if d := s.gate.Authorize(p, authz.PermWorkOrderAssign, nil); !d.Allowed {
		return nil, denyErr(d)
	}
	if err := shared.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), httpx.ErrValidation)
	}
	wo, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(wo.Status, StatusAssigned) {
		return nil, fmt.Errorf("illegal status transition %s -> %s: %w", wo.Status, StatusAssigned, httpx.ErrConflict)
	}
	now := time.Now().UTC()
	wo.VendorID = &req.VendorID
	wo.Status = StatusAssigned
	wo.AssignedAt = &now
	if err := s.repo.Update(ctx, *wo); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, p, "workorder.assign", id, map[string]any{"vendor_id": req.VendorID})
	s.notifyVendor(ctx, wo)
	return s.repo.Get(ctx, id)
}

// Approve closes out a completed work order.
func (s *Service) Approve(ctx context.Context, p *authz.Principal, id int64) (*WorkOrder, error) {
	if d := s.gate.Authorize(p, authz.PermWorkOrderApprove, nil); !d.Allowed {
		return nil, denyErr(d)
	}
	wo, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(wo.Status, StatusApproved) {
		return nil, fmt.Errorf("only completed work orders can be approved: %w", httpx.ErrConflict)
	}
	wo.Status = StatusApproved
	approver := p.UserID
	wo.ApprovedBy = &approver
	if err := s.repo.Update(ctx, *wo); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, p, "workorder.approve", id, nil)
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, p *authz.Principal, id int64) error {
	if d := s.gate.Authorize(p, authz.PermWorkOrderDelete, nil); !d.Allowed {
		return denyErr(d)
	}
	wo, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !CanTransition(wo.Status, StatusCancelled) {
		return fmt.Errorf("work order cannot be cancelled in status %s: %w", wo.Status, httpx.ErrConflict)
	}
	wo.Status = StatusCancelled
	if err := s.repo.Update(ctx, *wo); err != nil {
		return err
	}
	s.recordAudit(ctx, p, "workorder.cancel", id, nil)
	return nil
}

// CountOpenByPriority backs the maintenance dashboard widget.
func (s *Service) CountOpenByPriority(ctx context.Context) (map[Priority]int, error) {
	return s.repo.CountOpenByPriority(ctx)
}

// CountOverdue counts unresolved work orders past their response SLA.
func (s *Service) CountOverdue(ctx context.Context) (int, error) {
	return s.repo.CountOverdue(ctx, time.Now().UTC())
}

func (s *Service) notifyVendor(ctx context.Context, wo *WorkOrder) {
	if s.notifier == nil || s.vendors == nil || wo.VendorID == nil {
		return
	}
	email, err := s.vendors.ContactEmail(ctx, *wo.VendorID)
	if err != nil || email == "" {
		return
	}
	subject := fmt.Sprintf("Work order #%d assigned: %s", wo.ID, wo.Title)
	body := fmt.Sprintf("A %s priority %s work order has been assigned to you.\n\n%s",
		wo.Priority, wo.Category, wo.Description)
	_ = s.notifier.EnqueueEmail(ctx, email, subject, body)
}

func (s *Service) recordAudit(ctx context.Context, p *authz.Principal, action string, id int64, meta map[string]any) {
	if s.audit == nil || p == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  p.UserID,
		Action:   action,
		Entity:   "work_orders",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
}
