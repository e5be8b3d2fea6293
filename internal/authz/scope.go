package authz

// EvaluateScope resolves a scope qualifier against the specific target
// entity, not merely the resource class.
//
//   - all: always true, the matrix lookup already gated the class.
//   - own: the target's owner reference matches the principal's own
//     identity (user, tenant or vendor link, whichever is populated).
//   - assigned: the target's property appears in the principal's
//     assignment set, or the target is a work item assigned to the
//     principal's vendor.
func EvaluateScope(p *Principal, scope string, ref ResourceRef) bool {
	switch scope {
	case "", ScopeAll:
		return true
	case ScopeOwn:
		if ref.OwnerUserID != 0 && ref.OwnerUserID == p.UserID {
			return true
		}
		if ref.TenantID != 0 && p.TenantID != 0 && ref.TenantID == p.TenantID {
			return true
		}
		if ref.VendorID != 0 && p.VendorID != 0 && ref.VendorID == p.VendorID {
			return true
		}
		return false
	case ScopeAssigned:
		if ref.PropertyID != 0 && p.AssignedTo(ref.PropertyID) {
			return true
		}
		if ref.VendorID != 0 && p.VendorID != 0 && ref.VendorID == p.VendorID {
			return true
		}
		return false
	}
	return false
}

// ScopePredicate returns the row filter for list endpoints: when no
// single target exists, scope resolution degrades to a predicate every
// returned row must satisfy independently.
//
// The predicate is resolved from the same matrix walk as Authorize: an
// unscoped grant (or SUPER_ADMIN) admits every row, a scoped grant
// admits rows passing the scope evaluator, and a role without any grant
// admits none.
func (g *Gate) ScopePredicate(p *Principal, perm Permission) func(ResourceRef) bool {
	if p == nil {
		return func(ResourceRef) bool { return false }
	}
	if p.Role == RoleSuperAdmin {
		return func(ResourceRef) bool { return true }
	}
	if perm.Scope() == "" && g.matrix.HasPermission(p.Role, perm) {
		return func(ResourceRef) bool { return true }
	}
	scopes := []string{perm.Scope()}
	if perm.Scope() == "" {
		scopes = []string{ScopeAll, ScopeAssigned, ScopeOwn}
	}
	for _, scope := range scopes {
		scoped := perm.WithScope(scope)
		if !Declared(scoped) || !g.matrix.HasPermission(p.Role, scoped) {
			continue
		}
		s := scope
		return func(ref ResourceRef) bool {
			return EvaluateScope(p, s, ref)
		}
	}
	return func(ResourceRef) bool { return false }
}
