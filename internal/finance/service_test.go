package finance

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ultra-bms/ultra-bms/internal/authz"
	"github.com/ultra-bms/ultra-bms/internal/platform/httpx"
)

type mockRepository struct {
	invoices      map[int64]*Invoice
	payments      map[int64]*Payment
	cheques       map[int64]*Cheque
	charges       []RentCharge
	nextInvoiceID int64
	nextPaymentID int64
	nextChequeID  int64
	seq           map[string]int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		invoices:      make(map[int64]*Invoice),
		payments:      make(map[int64]*Payment),
		cheques:       make(map[int64]*Cheque),
		nextInvoiceID: 1,
		nextPaymentID: 1,
		nextChequeID:  1,
		seq:           make(map[string]int64),
	}
}

func (m *mockRepository) GetInvoice(_ context.Context, id int64) (*Invoice, error) {
	inv, ok := m.invoices[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (m *mockRepository) ListInvoices(_ context.Context, req ListInvoicesRequest) ([]Invoice, int, error) {
	var out []Invoice
	for id := int64(1); id < m.nextInvoiceID; id++ {
		inv, ok := m.invoices[id]
		if !ok {
			continue
		}
		if req.restrictToPropertyIDs != nil && !containsID(req.restrictToPropertyIDs, inv.PropertyID) {
			continue
		}
		out = append(out, *inv)
	}
	return out, len(out), nil
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func (m *mockRepository) CreateInvoice(_ context.Context, inv Invoice) (int64, error) {
	inv.ID = m.nextInvoiceID
	m.nextInvoiceID++
	m.invoices[inv.ID] = &inv
	return inv.ID, nil
}

func (m *mockRepository) UpdateInvoice(_ context.Context, inv Invoice) error {
	if _, ok := m.invoices[inv.ID]; !ok {
		return ErrNotFound
	}
	m.invoices[inv.ID] = &inv
	return nil
}

func (m *mockRepository) NextInvoiceNumber(_ context.Context, prefix string) (string, error) {
	m.seq[prefix]++
	return fmt.Sprintf("INV-%s-%05d", prefix, m.seq[prefix]), nil
}

func (m *mockRepository) TenantsWithActiveLeases(_ context.Context, _ time.Time) ([]RentCharge, error) {
	return m.charges, nil
}

func (m *mockRepository) GetPayment(_ context.Context, id int64) (*Payment, error) {
	pay, ok := m.payments[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *pay
	return &cp, nil
}

func (m *mockRepository) CreatePayment(_ context.Context, pay Payment) (int64, error) {
	pay.ID = m.nextPaymentID
	m.nextPaymentID++
	m.payments[pay.ID] = &pay
	return pay.ID, nil
}

func (m *mockRepository) ApplyPayment(_ context.Context, paymentID int64, processedBy int64) (*Payment, error) {
	pay, ok := m.payments[paymentID]
	if !ok {
		return nil, ErrNotFound
	}
	if pay.Status != PaymentPending {
		return nil, fmt.Errorf("payment %d is %s, not pending", paymentID, pay.Status)
	}
	inv := m.invoices[pay.InvoiceID]
	inv.PaidCents += pay.AmountCents
	switch {
	case inv.PaidCents >= inv.AmountCents:
		inv.Status = InvoicePaid
	case inv.PaidCents > 0:
		inv.Status = InvoicePartial
	}
	pay.Status = PaymentCompleted
	pay.ProcessedBy = &processedBy
	cp := *pay
	return &cp, nil
}

func (m *mockRepository) RefundPayment(_ context.Context, paymentID int64, processedBy int64) (*Payment, error) {
	pay, ok := m.payments[paymentID]
	if !ok {
		return nil, ErrNotFound
	}
	if pay.Status != PaymentCompleted {
		return nil, fmt.Errorf("payment %d is %s, not completed", paymentID, pay.Status)
	}
	inv := m.invoices[pay.InvoiceID]
	inv.PaidCents -= pay.AmountCents
	switch {
	case inv.PaidCents <= 0:
		inv.PaidCents = 0
		inv.Status = InvoiceIssued
	case inv.PaidCents < inv.AmountCents:
		inv.Status = InvoicePartial
	}
	pay.Status = PaymentRefunded
	pay.ProcessedBy = &processedBy
	cp := *pay
	return &cp, nil
}

func (m *mockRepository) GetCheque(_ context.Context, id int64) (*Cheque, error) {
	c, ok := m.cheques[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockRepository) CreateCheque(_ context.Context, c Cheque) (int64, error) {
	c.ID = m.nextChequeID
	m.nextChequeID++
	m.cheques[c.ID] = &c
	return c.ID, nil
}

func (m *mockRepository) UpdateChequeStatus(_ context.Context, id int64, status ChequeStatus) error {
	c, ok := m.cheques[id]
	if !ok {
		return ErrNotFound
	}
	c.Status = status
	return nil
}

func (m *mockRepository) Aging(_ context.Context, asOf time.Time, propertyIDs []int64) (AgingBuckets, error) {
	var b AgingBuckets
	for _, inv := range m.invoices {
		if inv.Status != InvoiceIssued && inv.Status != InvoicePartial {
			continue
		}
		if propertyIDs != nil && !containsID(propertyIDs, inv.PropertyID) {
			continue
		}
		days := int(asOf.Sub(inv.DueDate).Hours() / 24)
		if days < 0 {
			continue
		}
		due := inv.Outstanding()
		switch {
		case days <= 30:
			b.Current += due
		case days <= 60:
			b.ThirtyPlus += due
		case days <= 90:
			b.SixtyPlus += due
		default:
			b.NinetyPlus += due
		}
	}
	b.TotalOverdue = b.Current + b.ThirtyPlus + b.SixtyPlus + b.NinetyPlus
	return b, nil
}

func (m *mockRepository) MonthlyTotals(_ context.Context, from, to time.Time, propertyIDs []int64) (int64, int64, error) {
	var billed, collected int64
	for _, inv := range m.invoices {
		if inv.Status == InvoiceVoid {
			continue
		}
		if propertyIDs != nil && !containsID(propertyIDs, inv.PropertyID) {
			continue
		}
		if inv.DueDate.Before(from) || !inv.DueDate.Before(to) {
			continue
		}
		billed += inv.AmountCents
		collected += inv.PaidCents
	}
	return billed, collected, nil
}

func newTestService(repo Repository) *Service {
	gate := authz.NewGate(authz.NewMatrix(), nil)
	return NewService(repo, gate, nil, nil)
}

func financeManager() *authz.Principal {
	return &authz.Principal{UserID: 3, Role: authz.RoleFinanceManager}
}

func TestPaymentLifecycle(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	due := time.Now().UTC().AddDate(0, 0, 14)
	inv, err := svc.CreateInvoice(ctx, financeManager(), CreateInvoiceRequest{
		PropertyID:  1,
		TenantID:    5,
		Type:        InvoiceRent,
		AmountCents: 100000,
		DueDate:     due,
	})
	require.NoError(t, err)
	assert.Equal(t, InvoiceIssued, inv.Status)

	tenant := &authz.Principal{UserID: 40, Role: authz.RoleTenant, TenantID: 5}
	pay, err := svc.MakePayment(ctx, tenant, MakePaymentRequest{
		InvoiceID:   inv.ID,
		AmountCents: 40000,
		Method:      "bank_transfer",
	})
	require.NoError(t, err)
	assert.Equal(t, PaymentPending, pay.Status)

	pay, err = svc.ProcessPayment(ctx, financeManager(), pay.ID)
	require.NoError(t, err)
	assert.Equal(t, PaymentCompleted, pay.Status)

	inv, err = svc.GetInvoice(ctx, financeManager(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, InvoicePartial, inv.Status)
	assert.Equal(t, int64(60000), inv.Outstanding())

	pay2, err := svc.MakePayment(ctx, tenant, MakePaymentRequest{
		InvoiceID:   inv.ID,
		AmountCents: 60000,
		Method:      "card",
	})
	require.NoError(t, err)
	_, err = svc.ProcessPayment(ctx, financeManager(), pay2.ID)
	require.NoError(t, err)

	inv, err = svc.GetInvoice(ctx, financeManager(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, InvoicePaid, inv.Status)

	// Refund reopens the invoice.
	pay2, err = svc.RefundPayment(ctx, financeManager(), pay2.ID)
	require.NoError(t, err)
	assert.Equal(t, PaymentRefunded, pay2.Status)

	inv, err = svc.GetInvoice(ctx, financeManager(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, InvoicePartial, inv.Status)
	assert.Equal(t, int64(60000), inv.Outstanding())
}

func TestTenantCannotPayAnotherTenantsInvoice(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	inv, err := svc.CreateInvoice(ctx, financeManager(), CreateInvoiceRequest{
		PropertyID:  1,
		TenantID:    5,
		Type:        InvoiceRent,
		AmountCents: 50000,
		DueDate:     time.Now().UTC().AddDate(0, 0, 7),
	})
	require.NoError(t, err)

	intruder := &authz.Principal{UserID: 41, Role: authz.RoleTenant, TenantID: 6}
	_, err = svc.MakePayment(ctx, intruder, MakePaymentRequest{
		InvoiceID:   inv.ID,
		AmountCents: 50000,
		Method:      "card",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrForbidden))
}

func TestOverpaymentRejected(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	inv, err := svc.CreateInvoice(ctx, financeManager(), CreateInvoiceRequest{
		PropertyID:  1,
		TenantID:    5,
		Type:        InvoiceUtility,
		AmountCents: 20000,
		DueDate:     time.Now().UTC().AddDate(0, 0, 7),
	})
	require.NoError(t, err)

	tenant := &authz.Principal{UserID: 40, Role: authz.RoleTenant, TenantID: 5}
	_, err = svc.MakePayment(ctx, tenant, MakePaymentRequest{
		InvoiceID:   inv.ID,
		AmountCents: 25000,
		Method:      "card",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrValidation))
}

func TestChequePartialWhenFieldsMissing(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	date := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	full, err := svc.RecordCheque(ctx, RecordChequeRequest{
		ChequeNumber: "000123",
		AmountCents:  75000,
		ChequeDate:   &date,
	})
	require.NoError(t, err)
	assert.Equal(t, ChequePending, full.Status)

	// Missing amount forces manual review.
	partial, err := svc.RecordCheque(ctx, RecordChequeRequest{
		ChequeNumber: "000124",
		ChequeDate:   &date,
	})
	require.NoError(t, err)
	assert.Equal(t, ChequePartial, partial.Status)

	// Missing date too.
	partial, err = svc.RecordCheque(ctx, RecordChequeRequest{
		ChequeNumber: "000125",
		AmountCents:  75000,
	})
	require.NoError(t, err)
	assert.Equal(t, ChequePartial, partial.Status)

	cleared, err := svc.SetChequeStatus(ctx, financeManager(), full.ID, ChequeCleared)
	require.NoError(t, err)
	assert.Equal(t, ChequeCleared, cleared.Status)
}

func TestMonthlyReportAndAging(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	mk := func(property int64, amount, paid int64, due time.Time) {
		status := InvoiceIssued
		if paid >= amount {
			status = InvoicePaid
		} else if paid > 0 {
			status = InvoicePartial
		}
		id, err := repo.CreateInvoice(ctx, Invoice{
			InvoiceNumber: "x",
			PropertyID:    property,
			TenantID:      5,
			Type:          InvoiceRent,
			AmountCents:   amount,
			DueDate:       due,
			Status:        status,
		})
		require.NoError(t, err)
		repo.invoices[id].PaidCents = paid
	}

	// August 2026 billing: 100000 fully paid, 50000 unpaid 20 days
	// overdue, 30000 unpaid 80 days overdue (June, outside the month).
	mk(1, 100000, 100000, time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC))
	mk(1, 50000, 0, time.Date(2026, 8, 11, 0, 0, 0, 0, time.UTC))
	mk(2, 30000, 0, time.Date(2026, 6, 12, 0, 0, 0, 0, time.UTC))

	report, err := svc.MonthlyReport(ctx, financeManager(), ReportRequest{Year: 2026, Month: 8})
	require.NoError(t, err)
	assert.Equal(t, "2026-08", report.Month)
	assert.Equal(t, int64(150000), report.BilledCents)
	assert.Equal(t, int64(100000), report.CollectedCents)
	assert.InDelta(t, 100000.0/150000.0, report.CollectionRate, 1e-9)

	// Aging as of Aug 31: the 50000 is 20 days overdue (current
	// bucket), the June invoice is 80 days overdue (61-90 bucket).
	assert.Equal(t, int64(50000), report.Aging.Current)
	assert.Equal(t, int64(30000), report.Aging.SixtyPlus)
	assert.Equal(t, int64(80000), report.Aging.TotalOverdue)

	// A property manager assigned only property 1 never sees
	// property 2 in the report.
	manager := &authz.Principal{UserID: 10, Role: authz.RolePropertyManager, AssignedPropertyIDs: []int64{1}}
	scoped, err := svc.MonthlyReport(ctx, manager, ReportRequest{Year: 2026, Month: 8})
	require.NoError(t, err)
	assert.Equal(t, int64(150000), scoped.BilledCents)
	assert.Equal(t, int64(0), scoped.Aging.SixtyPlus)
}

func TestCollectionRateEdgeCases(t *testing.T) {
	assert.Equal(t, 1.0, CollectionRate(0, 0))
	assert.Equal(t, 1.0, CollectionRate(100, 150))
	assert.Equal(t, 0.5, CollectionRate(200, 100))
}

func TestGenerateRentInvoicesBillsActiveLeases(t *testing.T) {
	repo := newMockRepository()
	repo.charges = []RentCharge{
		{LeaseID: 1, TenantID: 5, PropertyID: 1, RentCents: 120000},
		{LeaseID: 2, TenantID: 6, PropertyID: 2, RentCents: 95000},
	}
	svc := newTestService(repo)

	n, err := svc.GenerateRentInvoices(context.Background(), time.Date(2026, 9, 1, 6, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, repo.invoices, 2)
	for _, inv := range repo.invoices {
		assert.Equal(t, InvoiceRent, inv.Type)
		assert.Equal(t, InvoiceIssued, inv.Status)
		assert.Contains(t, inv.InvoiceNumber, "INV-202609-")
	}
}

func TestPropertyManagerInvoiceListRestricted(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	due := time.Now().UTC().AddDate(0, 0, 7)
	for _, propertyID := range []int64{1, 1, 2} {
		_, err := repo.CreateInvoice(ctx, Invoice{
			InvoiceNumber: "x", PropertyID: propertyID, TenantID: 5,
			Type: InvoiceRent, AmountCents: 1000, DueDate: due, Status: InvoiceIssued,
		})
		require.NoError(t, err)
	}

	manager := &authz.Principal{UserID: 10, Role: authz.RolePropertyManager, AssignedPropertyIDs: []int64{1}}
	invoices, total, err := svc.ListInvoices(ctx, manager, ListInvoicesRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	for _, inv := range invoices {
		assert.Equal(t, int64(1), inv.PropertyID)
	}

	// An unassigned manager sees nothing rather than everything.
	bare := &authz.Principal{UserID: 11, Role: authz.RolePropertyManager}
	invoices, total, err = svc.ListInvoices(ctx, bare, ListInvoicesRequest{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, invoices)
}
