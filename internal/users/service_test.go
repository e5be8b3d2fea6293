package users

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ultra-bms/ultra-bms/internal/authz"
	"github.com/ultra-bms/ultra-bms/internal/platform/httpx"
)

type mockRepository struct {
	users       map[int64]*User
	assignments map[int64][]int64
	nextID      int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		users:       make(map[int64]*User),
		assignments: make(map[int64][]int64),
		nextID:      1,
	}
}

func (m *mockRepository) Get(_ context.Context, id int64) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *mockRepository) List(_ context.Context, req ListUsersRequest) ([]User, int, error) {
	var out []User
	for _, u := range m.users {
		if req.Role != "" && u.Role != req.Role {
			continue
		}
		if req.IsActive != nil && u.IsActive != *req.IsActive {
			continue
		}
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (m *mockRepository) Create(_ context.Context, u User) (int64, error) {
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return 0, ErrDuplicate
		}
	}
	u.ID = m.nextID
	m.nextID++
	m.users[u.ID] = &u
	return u.ID, nil
}

func (m *mockRepository) Update(_ context.Context, u User) error {
	existing, ok := m.users[u.ID]
	if !ok {
		return ErrNotFound
	}
	existing.FullName = u.FullName
	existing.Phone = u.Phone
	return nil
}

func (m *mockRepository) SetRole(_ context.Context, id int64, role authz.Role) error {
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Role = role
	return nil
}

func (m *mockRepository) SetActive(_ context.Context, id int64, active bool) error {
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.IsActive = active
	return nil
}

func (m *mockRepository) AssignedPropertyIDs(_ context.Context, userID int64) ([]int64, error) {
	return m.assignments[userID], nil
}

func (m *mockRepository) ReplacePropertyAssignments(_ context.Context, userID int64, propertyIDs []int64) error {
	m.assignments[userID] = propertyIDs
	return nil
}

func newTestService(repo Repository) *Service {
	gate := authz.NewGate(authz.NewMatrix(), nil)
	return NewService(slog.Default(), repo, gate, nil)
}

func admin() *authz.Principal {
	return &authz.Principal{UserID: 1, Role: authz.RoleSuperAdmin}
}

func TestCreateUserHashesPasswordAndLowersEmail(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	u, err := svc.Create(context.Background(), admin(), CreateUserRequest{
		Email:    "  Maria.Ops@Example.COM",
		FullName: "Maria Operator",
		Password: "s3cret-pass",
		Role:     authz.RoleFinanceManager,
	})
	require.NoError(t, err)
	assert.Equal(t, "maria.ops@example.com", u.Email)
	assert.True(t, u.IsActive)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.users[u.ID].PasswordHash), []byte("s3cret-pass")))
	assert.False(t, strings.Contains(repo.users[u.ID].PasswordHash, "s3cret"), "password is never stored raw")

	_, err = svc.Create(context.Background(), admin(), CreateUserRequest{
		Email:    "maria.ops@example.com",
		FullName: "Duplicate",
		Password: "s3cret-pass",
		Role:     authz.RoleTenant,
	})
	assert.ErrorIs(t, err, httpx.ErrDuplicate)
}

func TestCreateUserRejectsUnknownRole(t *testing.T) {
	svc := newTestService(newMockRepository())
	_, err := svc.Create(context.Background(), admin(), CreateUserRequest{
		Email:    "x@example.com",
		FullName: "Nobody Known",
		Password: "s3cret-pass",
		Role:     authz.Role("JANITOR"),
	})
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestNonAdminCannotManageUsers(t *testing.T) {
	svc := newTestService(newMockRepository())
	pm := &authz.Principal{UserID: 2, Role: authz.RolePropertyManager}

	_, err := svc.Create(context.Background(), pm, CreateUserRequest{
		Email:    "x@example.com",
		FullName: "Someone New",
		Password: "s3cret-pass",
		Role:     authz.RoleTenant,
	})
	assert.ErrorIs(t, err, httpx.ErrForbidden)

	_, _, err = svc.List(context.Background(), pm, ListUsersRequest{})
	assert.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestChangeRoleGuards(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	u, err := svc.Create(context.Background(), admin(), CreateUserRequest{
		Email:    "pm@example.com",
		FullName: "Pat Manager",
		Password: "s3cret-pass",
		Role:     authz.RoleTenant,
	})
	require.NoError(t, err)

	changed, err := svc.ChangeRole(context.Background(), admin(), u.ID, ChangeRoleRequest{Role: authz.RolePropertyManager})
	require.NoError(t, err)
	assert.Equal(t, authz.RolePropertyManager, changed.Role)

	// an admin cannot demote themselves
	repo.users[1] = &User{ID: 1, Email: "root@example.com", Role: authz.RoleSuperAdmin, IsActive: true}
	_, err = svc.ChangeRole(context.Background(), admin(), 1, ChangeRoleRequest{Role: authz.RoleTenant})
	assert.ErrorIs(t, err, httpx.ErrConflict)
}

func TestDeactivateOwnAccountRejected(t *testing.T) {
	repo := newMockRepository()
	repo.users[1] = &User{ID: 1, Email: "root@example.com", Role: authz.RoleSuperAdmin, IsActive: true}
	svc := newTestService(repo)

	_, err := svc.SetActive(context.Background(), admin(), 1, false)
	assert.ErrorIs(t, err, httpx.ErrConflict)

	repo.users[2] = &User{ID: 2, Email: "other@example.com", Role: authz.RoleVendor, IsActive: true}
	u, err := svc.SetActive(context.Background(), admin(), 2, false)
	require.NoError(t, err)
	assert.False(t, u.IsActive)
}

func TestAssignPropertiesRequiresManagerRole(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	pm, err := svc.Create(context.Background(), admin(), CreateUserRequest{
		Email:    "pm@example.com",
		FullName: "Pat Manager",
		Password: "s3cret-pass",
		Role:     authz.RolePropertyManager,
	})
	require.NoError(t, err)
	tenant, err := svc.Create(context.Background(), admin(), CreateUserRequest{
		Email:    "t@example.com",
		FullName: "Terry Tenant",
		Password: "s3cret-pass",
		Role:     authz.RoleTenant,
	})
	require.NoError(t, err)

	ids, err := svc.AssignProperties(context.Background(), admin(), pm.ID, AssignPropertiesRequest{PropertyIDs: []int64{1, 3}})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, ids)

	_, err = svc.AssignProperties(context.Background(), admin(), tenant.ID, AssignPropertiesRequest{PropertyIDs: []int64{1}})
	assert.ErrorIs(t, err, httpx.ErrConflict)
}
