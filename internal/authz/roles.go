package authz

// Role is the single role assigned to a user at creation. There is no
// multi-role composition; changing a role is restricted to SUPER_ADMIN.
type Role string

const (
	RoleSuperAdmin            Role = "SUPER_ADMIN"
	RolePropertyManager       Role = "PROPERTY_MANAGER"
	RoleMaintenanceSupervisor Role = "MAINTENANCE_SUPERVISOR"
	RoleFinanceManager        Role = "FINANCE_MANAGER"
	RoleTenant                Role = "TENANT"
	RoleVendor                Role = "VENDOR"
)

// AllRoles returns the closed role enumeration.
func AllRoles() []Role {
	return []Role{
		RoleSuperAdmin,
		RolePropertyManager,
		RoleMaintenanceSupervisor,
		RoleFinanceManager,
		RoleTenant,
		RoleVendor,
	}
}

// ValidRole reports whether r is one of the declared roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleSuperAdmin, RolePropertyManager, RoleMaintenanceSupervisor,
		RoleFinanceManager, RoleTenant, RoleVendor:
		return true
	}
	return false
}
