package finance

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ultra-bms/ultra-bms/internal/authz"
	"github.com/ultra-bms/ultra-bms/internal/platform/httpx"
	"github.com/ultra-bms/ultra-bms/internal/shared"
)

// InvoiceRenderer produces the printable PDF for an invoice.
type InvoiceRenderer interface {
	RenderInvoicePDF(ctx context.Context, inv Invoice) ([]byte, error)
}

type Service struct {
	repo     Repository
	gate     *authz.Gate
	audit    *shared.AuditLogger
	renderer InvoiceRenderer
}

func NewService(repo Repository, gate *authz.Gate, audit *shared.AuditLogger, renderer InvoiceRenderer) *Service {
	return &Service{repo: repo, gate: gate, audit: audit, renderer: renderer}
}

func denyErr(d authz.Decision) error {
	return fmt.Errorf("insufficient permissions: %s: %w", d.Permission, httpx.ErrForbidden)
}

func invoiceRef(inv *Invoice) *authz.ResourceRef {
	return &authz.ResourceRef{PropertyID: inv.PropertyID, TenantID: inv.TenantID}
}

func (s *Service) GetInvoice(ctx context.Context, p *authz.Principal, id int64) (*Invoice, error) {
	inv, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if d := s.gate.Authorize(p, authz.PermFinancialRead, invoiceRef(inv)); !d.Allowed {
		return nil, denyErr(d)
	}
	return inv, nil
}

// ListInvoices restricts scoped readers (property managers) to their
// assigned properties at the query level.
func (s *Service) ListInvoices(ctx context.Context, p *authz.Principal, req ListInvoicesRequest) ([]Invoice, int, error) {
	d := s.gate.Authorize(p, authz.PermFinancialRead, nil)
	if !d.Allowed {
		return nil, 0, denyErr(d)
	}
	if d.Permission.Scope() == authz.ScopeAssigned {
		if len(p.AssignedPropertyIDs) == 0 {
			return nil, 0, nil
		}
		req.restrictToPropertyIDs = p.AssignedPropertyIDs
	}
	return s.repo.ListInvoices(ctx, req)
}

func (s *Service) CreateInvoice(ctx context.Context, p *authz.Principal, req CreateInvoiceRequest) (*Invoice, error) {
	if d := s.gate.Authorize(p, authz.PermFinancialCreate, nil); !d.Allowed {
		return nil, denyErr(d)
	}
	if err := shared.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), httpx.ErrValidation)
	}
	number, err := s.repo.NextInvoiceNumber(ctx, req.DueDate.Format("200601"))
	if err != nil {
		return nil, err
	}
	id, err := s.repo.CreateInvoice(ctx, Invoice{
		InvoiceNumber: number,
		PropertyID:    req.PropertyID,
		TenantID:      req.TenantID,
		LeaseID:       req.LeaseID,
		Type:          req.Type,
		AmountCents:   req.AmountCents,
		DueDate:       req.DueDate,
		Status:        InvoiceIssued,
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, p, "invoice.create", id, nil)
	return s.repo.GetInvoice(ctx, id)
}

func (s *Service) UpdateInvoice(ctx context.Context, p *authz.Principal, id int64, req UpdateInvoiceRequest) (*Invoice, error) {
	if d := s.gate.Authorize(p, authz.PermFinancialUpdate, nil); !d.Allowed {
		return nil, denyErr(d)
	}
	if err := shared.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), httpx.ErrValidation)
	}
	inv, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.Status == InvoicePaid || inv.Status == InvoiceVoid {
		return nil, fmt.Errorf("invoice %s cannot be modified in status %s: %w", inv.InvoiceNumber, inv.Status, httpx.ErrConflict)
	}
	if req.AmountCents != nil {
		inv.AmountCents = *req.AmountCents
	}
	if req.DueDate != nil {
		inv.DueDate = *req.DueDate
	}
	if req.Void {
		if inv.PaidCents > 0 {
			return nil, fmt.Errorf("invoice with payments cannot be voided: %w", httpx.ErrConflict)
		}
		inv.Status = InvoiceVoid
	}
	if err := s.repo.UpdateInvoice(ctx, *inv); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, p, "invoice.update", id, nil)
	return s.repo.GetInvoice(ctx, id)
}

// InvoicePDF renders an invoice through the PDF service.
func (s *Service) InvoicePDF(ctx context.Context, p *authz.Principal, id int64) ([]byte, error) {
	inv, err := s.GetInvoice(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if s.renderer == nil {
		return nil, fmt.Errorf("finance: pdf rendering not configured")
	}
	return s.renderer.RenderInvoicePDF(ctx, *inv)
}

// MakePayment lets a tenant submit a payment against their own
// invoice. The payment stays PENDING until finance processes it.
func (s *Service) MakePayment(ctx context.Context, p *authz.Principal, req MakePaymentRequest) (*Payment, error) {
	if d := s.gate.Authorize(p, authz.PermPaymentMake, nil); !d.Allowed {
		return nil, denyErr(d)
	}
	if err := shared.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), httpx.ErrValidation)
	}
	inv, err := s.repo.GetInvoice(ctx, req.InvoiceID)
	if err != nil {
		return nil, err
	}
	// Tenants may only pay their own invoices.
	if p.Role == authz.RoleTenant && inv.TenantID != p.TenantID {
		return nil, fmt.Errorf("insufficient permissions: %s: %w", authz.PermPaymentMake, httpx.ErrForbidden)
	}
	if inv.Status == InvoicePaid || inv.Status == InvoiceVoid {
		return nil, fmt.Errorf("invoice %s is not payable: %w", inv.InvoiceNumber, httpx.ErrConflict)
	}
	if req.AmountCents > inv.Outstanding() {
		return nil, fmt.Errorf("payment exceeds outstanding balance: %w", httpx.ErrValidation)
	}
	id, err := s.repo.CreatePayment(ctx, Payment{
		InvoiceID:   req.InvoiceID,
		AmountCents: req.AmountCents,
		Method:      req.Method,
		Reference:   req.Reference,
		Status:      PaymentPending,
		PaidBy:      p.UserID,
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, p, "payment.make", id, map[string]any{"invoice_id": req.InvoiceID})
	return s.repo.GetPayment(ctx, id)
}

func (s *Service) ProcessPayment(ctx context.Context, p *authz.Principal, paymentID int64) (*Payment, error) {
	if d := s.gate.Authorize(p, authz.PermPaymentProcess, nil); !d.Allowed {
		return nil, denyErr(d)
	}
	pay, err := s.repo.ApplyPayment(ctx, paymentID, p.UserID)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, p, "payment.process", paymentID, nil)
	return pay, nil
}

func (s *Service) RefundPayment(ctx context.Context, p *authz.Principal, paymentID int64) (*Payment, error) {
	if d := s.gate.Authorize(p, authz.PermPaymentRefund, nil); !d.Allowed {
		return nil, denyErr(d)
	}
	pay, err := s.repo.RefundPayment(ctx, paymentID, p.UserID)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, p, "payment.refund", paymentID, nil)
	return pay, nil
}

// RecordCheque stores a scanned cheque. When OCR could not recover
// every field the cheque lands in PARTIAL for manual completion.
func (s *Service) RecordCheque(ctx context.Context, req RecordChequeRequest) (*Cheque, error) {
	status := ChequePending
	if req.ChequeNumber == "" || req.AmountCents <= 0 || req.ChequeDate == nil {
		status = ChequePartial
	}
	id, err := s.repo.CreateCheque(ctx, Cheque{
		DocumentID:   req.DocumentID,
		InvoiceID:    req.InvoiceID,
		ChequeNumber: req.ChequeNumber,
		AmountCents:  req.AmountCents,
		ChequeDate:   req.ChequeDate,
		Status:       status,
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetCheque(ctx, id)
}

func (s *Service) SetChequeStatus(ctx context.Context, p *authz.Principal, id int64, status ChequeStatus) (*Cheque, error) {
	if d := s.gate.Authorize(p, authz.PermFinancialUpdate, nil); !d.Allowed {
		return nil, denyErr(d)
	}
	switch status {
	case ChequeCleared, ChequeBounced, ChequePending:
	default:
		return nil, fmt.Errorf("invalid cheque status %q: %w", status, httpx.ErrValidation)
	}
	if err := s.repo.UpdateChequeStatus(ctx, id, status); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, p, "cheque.status", id, map[string]any{"status": status})
	return s.repo.GetCheque(ctx, id)
}

// MonthlyReport aggregates billing for one calendar month. Scoped
// reporters (property managers) see only their assigned properties.
func (s *Service) MonthlyReport(ctx context.Context, p *authz.Principal, req ReportRequest) (*MonthlyReport, error) {
	d := s.gate.Authorize(p, authz.PermFinancialReport, nil)
	if !d.Allowed {
		return nil, denyErr(d)
	}
	if err := shared.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), httpx.ErrValidation)
	}

	var propertyIDs []int64
	if d.Permission.Scope() == authz.ScopeAssigned {
		if len(p.AssignedPropertyIDs) == 0 {
			return &MonthlyReport{Month: fmt.Sprintf("%04d-%02d", req.Year, req.Month)}, nil
		}
		propertyIDs = p.AssignedPropertyIDs
	}

	from := time.Date(req.Year, time.Month(req.Month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	billed, collected, err := s.repo.MonthlyTotals(ctx, from, to, propertyIDs)
	if err != nil {
		return nil, err
	}
	aging, err := s.repo.Aging(ctx, to.AddDate(0, 0, -1), propertyIDs)
	if err != nil {
		return nil, err
	}
	return &MonthlyReport{
		Month:          from.Format("2006-01"),
		BilledCents:    billed,
		CollectedCents: collected,
		CollectionRate: CollectionRate(billed, collected),
		Aging:          aging,
	}, nil
}

// Aging exposes the receivables buckets for the dashboard.
func (s *Service) AgingAsOf(ctx context.Context, asOf time.Time) (AgingBuckets, error) {
	return s.repo.Aging(ctx, asOf, nil)
}

// CollectionRate is collected over billed, clamped to [0, 1]. A month
// with nothing billed counts as fully collected.
func CollectionRate(billed, collected int64) float64 {
	if billed <= 0 {
		return 1
	}
	rate := float64(collected) / float64(billed)
	if rate > 1 {
		return 1
	}
	if rate < 0 {
		return 0
	}
	return rate
}

// GenerateRentInvoices bills every active lease for the month of asOf.
// It runs from the monthly cron job, not from a request.
func (s *Service) GenerateRentInvoices(ctx context.Context, asOf time.Time) (int, error) {
	charges, err := s.repo.TenantsWithActiveLeases(ctx, asOf)
	if err != nil {
		return 0, err
	}
	due := time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 4)
	prefix := asOf.Format("200601")
	created := 0
	for _, c := range charges {
		number, err := s.repo.NextInvoiceNumber(ctx, prefix)
		if err != nil {
			return created, err
		}
		leaseID := c.LeaseID
		_, err = s.repo.CreateInvoice(ctx, Invoice{
			InvoiceNumber: number,
			PropertyID:    c.PropertyID,
			TenantID:      c.TenantID,
			LeaseID:       &leaseID,
			Type:          InvoiceRent,
			AmountCents:   c.RentCents,
			DueDate:       due,
			Status:        InvoiceIssued,
		})
		if err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func (s *Service) recordAudit(ctx context.Context, p *authz.Principal, action string, id int64, meta map[string]any) {
	if s.audit == nil || p == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  p.UserID,
		Action:   action,
		Entity:   "finance",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
}
