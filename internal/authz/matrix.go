package authz

import "fmt"

// Matrix is the fixed role-permission table. It is built once at
// startup, never mutated afterwards, and safe for concurrent reads.
type Matrix struct {
	grants map[Role]map[Permission]struct{}
}

// roleGrants declares each role's permission set explicitly. SUPER_ADMIN
// is intentionally absent: it short-circuits to every permission.
// PROPERTY_MANAGER financial read/report is scoped to assigned
// properties rather than granted system-wide.
var roleGrants = map[Role][]Permission{
	RolePropertyManager: {
		PermPropertyReadAssigned,
		PermPropertyUpdateAssigned,
		PermTenantCreate,
		PermTenantRead,
		PermTenantUpdate,
		PermWorkOrderCreate,
		PermWorkOrderRead,
		PermWorkOrderUpdate,
		PermWorkOrderAssign,
		PermFinancialReadAssigned,
		PermFinancialReportAssigned,
		PermVendorRead,
		PermAmenityManage,
	},
	RoleMaintenanceSupervisor: {
		PermWorkOrderRead,
		PermWorkOrderUpdate,
		PermWorkOrderAssign,
		PermVendorRead,
		PermVendorUpdate,
		PermVendorPerformance,
	},
	RoleFinanceManager: {
		PermPropertyReadAll,
		PermTenantRead,
		PermFinancialRead,
		PermFinancialCreate,
		PermFinancialUpdate,
		PermFinancialReport,
		PermPaymentProcess,
		PermPaymentRefund,
	},
	RoleTenant: {
		PermTenantReadOwn,
		PermWorkOrderCreate,
		PermWorkOrderReadOwn,
		PermAmenityBook,
		PermPaymentMake,
	},
	RoleVendor: {
		PermWorkOrderReadAssigned,
		PermWorkOrderUpdateAssigned,
	},
}

// NewMatrix builds the immutable matrix, validating every grant against
// the permission catalog. A grant referencing an undeclared permission
// or role is a deployment defect and panics immediately.
func NewMatrix() *Matrix {
	grants := make(map[Role]map[Permission]struct{}, len(roleGrants))
	for role, perms := range roleGrants {
		if !ValidRole(role) {
			panic(fmt.Sprintf("authz: grant references unknown role %q", role))
		}
		set := make(map[Permission]struct{}, len(perms))
		for _, p := range perms {
			if !Declared(p) {
				panic(fmt.Sprintf("authz: role %s grants undeclared permission %q", role, p))
			}
			set[p] = struct{}{}
		}
		grants[role] = set
	}
	return &Matrix{grants: grants}
}

// HasPermission performs the fixed lookup. SUPER_ADMIN holds every
// declared permission. Unknown roles or permissions are programmer
// errors and panic rather than silently denying.
func (m *Matrix) HasPermission(role Role, perm Permission) bool {
	if !ValidRole(role) {
		panic(fmt.Sprintf("authz: lookup for unknown role %q", role))
	}
	if !Declared(perm) {
		panic(fmt.Sprintf("authz: lookup for undeclared permission %q", perm))
	}
	if role == RoleSuperAdmin {
		return true
	}
	_, ok := m.grants[role][perm]
	return ok
}

// Grants returns the declared permission set for a role. SUPER_ADMIN
// reports the full catalog.
func (m *Matrix) Grants(role Role) []Permission {
	if role == RoleSuperAdmin {
		return All()
	}
	set, ok := m.grants[role]
	if !ok {
		return nil
	}
	out := make([]Permission, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	return out
}
