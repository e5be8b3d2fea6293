package authz

import "testing"

func TestSuperAdminHoldsEveryPermission(t *testing.T) {
	m := NewMatrix()
	for _, perm := range All() {
		if !m.HasPermission(RoleSuperAdmin, perm) {
			t.Fatalf("SUPER_ADMIN missing %s", perm)
		}
	}
}

func TestRolesHoldOnlyDeclaredPermissions(t *testing.T) {
	m := NewMatrix()
	for _, role := range AllRoles() {
		if role == RoleSuperAdmin {
			continue
		}
		declared := make(map[Permission]struct{})
		for _, p := range m.Grants(role) {
			declared[p] = struct{}{}
		}
		for _, perm := range All() {
			_, want := declared[perm]
			if got := m.HasPermission(role, perm); got != want {
				t.Fatalf("%s HasPermission(%s) = %v, want %v", role, perm, got, want)
			}
		}
	}
}

func TestMatrixRows(t *testing.T) {
	m := NewMatrix()
	cases := []struct {
		role Role
		perm Permission
		want bool
	}{
		{RolePropertyManager, PermPropertyReadAssigned, true},
		{RolePropertyManager, PermPropertyCreate, false},
		{RolePropertyManager, PermPropertyDelete, false},
		{RolePropertyManager, PermTenantCreate, true},
		{RolePropertyManager, PermTenantDelete, false},
		{RolePropertyManager, PermWorkOrderAssign, true},
		{RolePropertyManager, PermWorkOrderApprove, false},
		{RolePropertyManager, PermAmenityManage, true},
		{RoleMaintenanceSupervisor, PermWorkOrderRead, true},
		{RoleMaintenanceSupervisor, PermWorkOrderCreate, false},
		{RoleMaintenanceSupervisor, PermVendorPerformance, true},
		{RoleMaintenanceSupervisor, PermVendorCreate, false},
		{RoleFinanceManager, PermPropertyReadAll, true},
		{RoleFinanceManager, PermFinancialReport, true},
		{RoleFinanceManager, PermFinancialDelete, false},
		{RoleFinanceManager, PermPaymentProcess, true},
		{RoleFinanceManager, PermPaymentMake, false},
		{RoleTenant, PermTenantReadOwn, true},
		{RoleTenant, PermTenantRead, false},
		{RoleTenant, PermWorkOrderCreate, true},
		{RoleTenant, PermAmenityBook, true},
		{RoleTenant, PermPaymentMake, true},
		{RoleVendor, PermWorkOrderReadAssigned, true},
		{RoleVendor, PermWorkOrderUpdateAssigned, true},
		{RoleVendor, PermWorkOrderAssign, false},
		{RoleVendor, PermVendorRead, false},
	}
	for _, tc := range cases {
		if got := m.HasPermission(tc.role, tc.perm); got != tc.want {
			t.Errorf("HasPermission(%s, %s) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
}

func TestUnknownRolePanics(t *testing.T) {
	m := NewMatrix()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for unknown role")
		}
	}()
	m.HasPermission(Role("AUDITOR"), PermTenantRead)
}

func TestUndeclaredPermissionPanics(t *testing.T) {
	m := NewMatrix()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for undeclared permission")
		}
	}()
	m.HasPermission(RoleTenant, Permission("tenant:archive"))
}
