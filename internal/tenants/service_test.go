package tenants

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ultra-bms/ultra-bms/internal/authz"
	"github.com/ultra-bms/ultra-bms/internal/platform/httpx"
)

type mockRepository struct {
	tenants      map[int64]*Tenant
	leads        map[int64]*Lead
	leases       map[int64]*Lease
	users        map[int64]NewTenantUser
	nextTenantID int64
	nextLeadID   int64
	nextLeaseID  int64
	nextUserID   int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		tenants:      make(map[int64]*Tenant),
		leads:        make(map[int64]*Lead),
		leases:       make(map[int64]*Lease),
		users:        make(map[int64]NewTenantUser),
		nextTenantID: 1,
		nextLeadID:   1,
		nextLeaseID:  1,
		nextUserID:   1,
	}
}

func (m *mockRepository) GetTenant(_ context.Context, id int64) (*Tenant, error) {
	t, ok := m.tenants[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *mockRepository) GetTenantByUser(_ context.Context, userID int64) (*Tenant, error) {
	for _, t := range m.tenants {
		if t.UserID != nil && *t.UserID == userID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepository) ListTenants(_ context.Context, _ ListTenantsRequest) ([]Tenant, int, error) {
	var out []Tenant
	for _, t := range m.tenants {
		out = append(out, *t)
	}
	return out, len(out), nil
}

func (m *mockRepository) CreateTenant(_ context.Context, t Tenant) (int64, error) {
	t.ID = m.nextTenantID
	m.nextTenantID++
	m.tenants[t.ID] = &t
	return t.ID, nil
}

func (m *mockRepository) UpdateTenant(_ context.Context, t Tenant) error {
	if _, ok := m.tenants[t.ID]; !ok {
		return ErrNotFound
	}
	m.tenants[t.ID] = &t
	return nil
}

func (m *mockRepository) GetLead(_ context.Context, id int64) (*Lead, error) {
	l, ok := m.leads[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *mockRepository) ListLeads(_ context.Context, status *LeadStatus) ([]Lead, error) {
	var out []Lead
	for _, l := range m.leads {
		if status == nil || l.Status == *status {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m *mockRepository) CreateLead(_ context.Context, l Lead) (int64, error) {
	l.ID = m.nextLeadID
	m.nextLeadID++
	m.leads[l.ID] = &l
	return l.ID, nil
}

func (m *mockRepository) UpdateLead(_ context.Context, l Lead) error {
	if _, ok := m.leads[l.ID]; !ok {
		return ErrNotFound
	}
	m.leads[l.ID] = &l
	return nil
}

func (m *mockRepository) ConvertLead(_ context.Context, leadID int64, user NewTenantUser, lease Lease) (*Tenant, *Lease, int64, error) {
	lead, ok := m.leads[leadID]
	if !ok {
		return nil, nil, 0, ErrNotFound
	}
	if lead.Status == LeadConverted {
		return nil, nil, 0, ErrDuplicate
	}
	userID := m.nextUserID
	m.nextUserID++
	m.users[userID] = user

	t := &Tenant{
		ID:         m.nextTenantID,
		UserID:     &userID,
		FirstName:  lead.FirstName,
		LastName:   lead.LastName,
		Email:      lead.Email,
		Phone:      lead.Phone,
		PropertyID: &lease.PropertyID,
		UnitID:     &lease.UnitID,
		IsActive:   true,
	}
	m.nextTenantID++
	m.tenants[t.ID] = t

	lease.ID = m.nextLeaseID
	m.nextLeaseID++
	lease.TenantID = t.ID
	lease.Status = LeaseDraft
	m.leases[lease.ID] = &lease

	lead.Status = LeadConverted
	lead.ConvertedTenantID = &t.ID
	return t, &lease, userID, nil
}

func (m *mockRepository) GetLease(_ context.Context, id int64) (*Lease, error) {
	l, ok := m.leases[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *mockRepository) ListLeasesByTenant(_ context.Context, tenantID int64) ([]Lease, error) {
	var out []Lease
	for _, l := range m.leases {
		if l.TenantID == tenantID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m *mockRepository) LeasesExpiringBefore(_ context.Context, cutoff time.Time) ([]Lease, error) {
	var out []Lease
	for _, l := range m.leases {
		if l.Status == LeaseActive && !l.EndDate.After(cutoff) {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m *mockRepository) CreateLease(_ context.Context, l Lease) (int64, error) {
	l.ID = m.nextLeaseID
	m.nextLeaseID++
	m.leases[l.ID] = &l
	return l.ID, nil
}

func (m *mockRepository) UpdateLease(_ context.Context, l Lease) error {
	cur, ok := m.leases[l.ID]
	if !ok {
		return ErrNotFound
	}
	cur.EndDate = l.EndDate
	cur.MonthlyRent = l.MonthlyRent
	cur.Status = l.Status
	return nil
}

func newTestService(repo Repository) *Service {
	gate := authz.NewGate(authz.NewMatrix(), nil)
	return NewService(repo, gate, nil)
}

func managerPrincipal() *authz.Principal {
	return &authz.Principal{UserID: 10, Role: authz.RolePropertyManager, AssignedPropertyIDs: []int64{1}}
}

func TestCreateTenantNormalizesNames(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	created, err := svc.Create(context.Background(), managerPrincipal(), CreateTenantRequest{
		FirstName: "mARIA",
		LastName:  "de souza",
		Email:     "maria@example.com",
		Phone:     "555-0101",
	})
	require.NoError(t, err)
	assert.Equal(t, "Maria", created.FirstName)
	assert.Equal(t, "De Souza", created.LastName)
	assert.True(t, created.IsActive)
}

func TestConvertLeadCreatesTenantAndDraftLease(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	lead, err := svc.CreateLead(ctx, managerPrincipal(), CreateLeadRequest{
		FirstName: "John",
		LastName:  "Doe",
		Email:     "john@example.com",
		Phone:     "555-0102",
		Source:    "walk-in",
	})
	require.NoError(t, err)

	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	resp, err := svc.ConvertLead(ctx, managerPrincipal(), lead.ID, ConvertLeadRequest{
		PropertyID:      1,
		UnitID:          42,
		StartDate:       start,
		EndDate:         start.AddDate(1, 0, 0),
		MonthlyRent:     150000,
		SecurityDeposit: 150000,
		TempPassword:    "changeme123",
	})
	require.NoError(t, err)

	assert.Equal(t, LeaseDraft, resp.Lease.Status)
	assert.Equal(t, resp.Tenant.ID, resp.Lease.TenantID)
	require.NotNil(t, resp.Tenant.UserID)

	// The created account must carry a usable bcrypt hash.
	user := repo.users[resp.UserID]
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("changeme123")))

	converted, err := repo.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, LeadConverted, converted.Status)

	// A second conversion of the same lead must be refused.
	_, err = svc.ConvertLead(ctx, managerPrincipal(), lead.ID, ConvertLeadRequest{
		PropertyID:   1,
		UnitID:       42,
		StartDate:    start,
		EndDate:      start.AddDate(1, 0, 0),
		MonthlyRent:  150000,
		TempPassword: "changeme123",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrConflict))
}

func TestTenantSeesOnlyOwnRecord(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	id1, err := repo.CreateTenant(ctx, Tenant{FirstName: "A", LastName: "One", Email: "a@example.com", IsActive: true})
	require.NoError(t, err)
	_, err = repo.CreateTenant(ctx, Tenant{FirstName: "B", LastName: "Two", Email: "b@example.com", IsActive: true})
	require.NoError(t, err)

	self := &authz.Principal{UserID: 100, Role: authz.RoleTenant, TenantID: id1}

	got, err := svc.Get(ctx, self, id1)
	require.NoError(t, err)
	assert.Equal(t, id1, got.ID)

	// The sibling record is out of scope.
	_, err = svc.Get(ctx, self, id1+1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrForbidden))

	// Listing degrades to the caller's own row.
	rows, total, err := svc.List(ctx, self, ListTenantsRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, rows, 1)
	assert.Equal(t, id1, rows[0].ID)
}

func TestRenewLeaseExtendsActiveLease(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	leaseID, err := repo.CreateLease(ctx, Lease{
		TenantID:    1,
		PropertyID:  1,
		UnitID:      7,
		StartDate:   start,
		EndDate:     start.AddDate(1, 0, 0),
		MonthlyRent: 120000,
		Status:      LeaseActive,
	})
	require.NoError(t, err)

	newRent := int64(125000)
	renewed, err := svc.RenewLease(ctx, managerPrincipal(), leaseID, RenewLeaseRequest{
		EndDate:     start.AddDate(2, 0, 0),
		MonthlyRent: &newRent,
	})
	require.NoError(t, err)
	assert.Equal(t, LeaseActive, renewed.Status)
	assert.Equal(t, newRent, renewed.MonthlyRent)

	// A renewal that does not extend the term is rejected.
	_, err = svc.RenewLease(ctx, managerPrincipal(), leaseID, RenewLeaseRequest{EndDate: start})
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrValidation))

	terminated, err := svc.TerminateLease(ctx, managerPrincipal(), leaseID)
	require.NoError(t, err)
	assert.Equal(t, LeaseTerminated, terminated.Status)

	_, err = svc.RenewLease(ctx, managerPrincipal(), leaseID, RenewLeaseRequest{EndDate: start.AddDate(3, 0, 0)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrConflict))
}
