// Package authz implements the static role-based authorization layer:
// a closed permission catalog, a fixed role-permission matrix, a scope
// evaluator for own/assigned/all qualifiers and the gate consulted by
// every API operation.
package authz

import "strings"

// Permission is an atomic authorization unit of the form
// resource:action[:scope].
type Permission string

// Scope qualifiers restricting a permission to a subset of resources.
const (
	ScopeOwn      = "own"
	ScopeAssigned = "assigned"
	ScopeAll      = "all"
)

// User management.
const (
	PermUserCreate Permission = "user:create"
	PermUserRead   Permission = "user:read"
	PermUserUpdate Permission = "user:update"
	PermUserDelete Permission = "user:delete"
)

// Properties.
const (
	PermPropertyCreate         Permission = "property:create"
	PermPropertyRead           Permission = "property:read"
	PermPropertyReadAssigned   Permission = "property:read:assigned"
	PermPropertyReadAll        Permission = "property:read:all"
	PermPropertyUpdate         Permission = "property:update"
	PermPropertyUpdateAssigned Permission = "property:update:assigned"
	PermPropertyDelete         Permission = "property:delete"
)

// Tenants.
const (
	PermTenantCreate  Permission = "tenant:create"
	PermTenantRead    Permission = "tenant:read"
	PermTenantReadOwn Permission = "tenant:read:own"
	PermTenantUpdate  Permission = "tenant:update"
	PermTenantDelete  Permission = "tenant:delete"
)

// Work orders.
const (
	PermWorkOrderCreate         Permission = "workorder:create"
	PermWorkOrderRead           Permission = "workorder:read"
	PermWorkOrderReadOwn        Permission = "workorder:read:own"
	PermWorkOrderReadAssigned   Permission = "workorder:read:assigned"
	PermWorkOrderUpdate         Permission = "workorder:update"
	PermWorkOrderUpdateAssigned Permission = "workorder:update:assigned"
	PermWorkOrderAssign         Permission = "workorder:assign"
	PermWorkOrderApprove        Permission = "workorder:approve"
	PermWorkOrderDelete         Permission = "workorder:delete"
)

// Financials.
const (
	PermFinancialRead           Permission = "financial:read"
	PermFinancialReadAssigned   Permission = "financial:read:assigned"
	PermFinancialCreate         Permission = "financial:create"
	PermFinancialUpdate         Permission = "financial:update"
	PermFinancialReport         Permission = "financial:report"
	PermFinancialReportAssigned Permission = "financial:report:assigned"
	PermFinancialDelete         Permission = "financial:delete"
)

// Vendors.
const (
	PermVendorCreate      Permission = "vendor:create"
	PermVendorRead        Permission = "vendor:read"
	PermVendorUpdate      Permission = "vendor:update"
	PermVendorDelete      Permission = "vendor:delete"
	PermVendorPerformance Permission = "vendor:performance"
)

// System administration.
const (
	PermSystemConfig Permission = "system:config"
	PermSystemAdmin  Permission = "system:admin"
)

// Amenities.
const (
	PermAmenityBook   Permission = "amenity:book"
	PermAmenityManage Permission = "amenity:manage"
)

// Payments.
const (
	PermPaymentMake    Permission = "payment:make"
	PermPaymentProcess Permission = "payment:process"
	PermPaymentRefund  Permission = "payment:refund"
)

// catalog is the closed set of permissions the system recognizes.
// Role grants referencing anything outside this set are a deployment
// defect and fail matrix construction.
var catalog = []Permission{
	PermUserCreate, PermUserRead, PermUserUpdate, PermUserDelete,
	PermPropertyCreate, PermPropertyRead, PermPropertyReadAssigned, PermPropertyReadAll,
	PermPropertyUpdate, PermPropertyUpdateAssigned, PermPropertyDelete,
	PermTenantCreate, PermTenantRead, PermTenantReadOwn, PermTenantUpdate, PermTenantDelete,
	PermWorkOrderCreate, PermWorkOrderRead, PermWorkOrderReadOwn, PermWorkOrderReadAssigned,
	PermWorkOrderUpdate, PermWorkOrderUpdateAssigned, PermWorkOrderAssign,
	PermWorkOrderApprove, PermWorkOrderDelete,
	PermFinancialRead, PermFinancialReadAssigned, PermFinancialCreate, PermFinancialUpdate,
	PermFinancialReport, PermFinancialReportAssigned, PermFinancialDelete,
	PermVendorCreate, PermVendorRead, PermVendorUpdate, PermVendorDelete, PermVendorPerformance,
	PermSystemConfig, PermSystemAdmin,
	PermAmenityBook, PermAmenityManage,
	PermPaymentMake, PermPaymentProcess, PermPaymentRefund,
}

var catalogSet = func() map[Permission]struct{} {
	set := make(map[Permission]struct{}, len(catalog))
	for _, p := range catalog {
		set[p] = struct{}{}
	}
	return set
}()

// All returns every declared permission.
func All() []Permission {
	out := make([]Permission, len(catalog))
	copy(out, catalog)
	return out
}

// Declared reports whether p is part of the catalog.
func Declared(p Permission) bool {
	_, ok := catalogSet[p]
	return ok
}

// Resource returns the resource component of the permission.
func (p Permission) Resource() string {
	parts := strings.SplitN(string(p), ":", 3)
	return parts[0]
}

// Action returns the action component of the permission.
func (p Permission) Action() string {
	parts := strings.SplitN(string(p), ":", 3)
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

// Scope returns the scope qualifier, or empty for unscoped permissions.
func (p Permission) Scope() string {
	parts := strings.SplitN(string(p), ":", 3)
	if len(parts) < 3 {
		return ""
	}
	return parts[2]
}

// WithScope returns the resource:action permission qualified by scope.
func (p Permission) WithScope(scope string) Permission {
	return Permission(p.Resource() + ":" + p.Action() + ":" + scope)
}

// Base strips the scope qualifier.
func (p Permission) Base() Permission {
	return Permission(p.Resource() + ":" + p.Action())
}
