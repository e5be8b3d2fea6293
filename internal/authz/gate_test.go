package authz

import "testing"

func newTestGate() *Gate {
	return NewGate(NewMatrix(), nil)
}

func TestAuthorizeOwnScope(t *testing.T) {
	g := newTestGate()
	tenant := &Principal{UserID: 10, Role: RoleTenant, TenantID: 3}

	own := &ResourceRef{OwnerUserID: 10, TenantID: 3}
	if d := g.Authorize(tenant, PermTenantRead, own); !d.Allowed {
		t.Fatalf("tenant reading own record denied: %+v", d)
	}

	other := &ResourceRef{OwnerUserID: 11, TenantID: 4}
	d := g.Authorize(tenant, PermTenantRead, other)
	if d.Allowed {
		t.Fatalf("tenant reading foreign record allowed")
	}
	if d.Reason != ReasonScopeViolation {
		t.Fatalf("reason = %s, want %s", d.Reason, ReasonScopeViolation)
	}
}

func TestAuthorizeAssignedScope(t *testing.T) {
	g := newTestGate()
	manager := &Principal{UserID: 5, Role: RolePropertyManager, AssignedPropertyIDs: []int64{1}}

	if d := g.Authorize(manager, PermPropertyUpdate, &ResourceRef{PropertyID: 1}); !d.Allowed {
		t.Fatalf("update on assigned property denied: %+v", d)
	}

	d := g.Authorize(manager, PermPropertyUpdate, &ResourceRef{PropertyID: 2})
	if d.Allowed {
		t.Fatalf("update on unassigned property allowed")
	}
	if d.Reason != ReasonScopeViolation {
		t.Fatalf("reason = %s, want %s", d.Reason, ReasonScopeViolation)
	}
}

func TestAuthorizeVendorAssignedScope(t *testing.T) {
	g := newTestGate()
	vendor := &Principal{UserID: 7, Role: RoleVendor, VendorID: 2}

	if d := g.Authorize(vendor, PermWorkOrderRead, &ResourceRef{VendorID: 2}); !d.Allowed {
		t.Fatalf("vendor reading assigned work order denied: %+v", d)
	}
	if d := g.Authorize(vendor, PermWorkOrderUpdate, &ResourceRef{VendorID: 9}); d.Allowed {
		t.Fatalf("vendor updating foreign work order allowed")
	}
}

func TestAuthorizeCompositeOr(t *testing.T) {
	g := newTestGate()
	manager := &Principal{UserID: 5, Role: RolePropertyManager}

	d := g.AuthorizeAny(manager, []Permission{PermTenantRead, PermTenantUpdate}, nil)
	if !d.Allowed {
		t.Fatalf("composite OR denied for role holding tenant:read")
	}

	vendor := &Principal{UserID: 7, Role: RoleVendor, VendorID: 2}
	d = g.AuthorizeAny(vendor, []Permission{PermTenantRead, PermTenantUpdate}, nil)
	if d.Allowed {
		t.Fatalf("composite OR allowed for role holding neither alternative")
	}
	if d.Reason != ReasonInsufficientPermission {
		t.Fatalf("reason = %s, want %s", d.Reason, ReasonInsufficientPermission)
	}
}

func TestAuthorizeMissingPrincipal(t *testing.T) {
	g := newTestGate()
	d := g.Authorize(nil, PermTenantRead, nil)
	if d.Allowed {
		t.Fatalf("nil principal allowed")
	}
	if d.Reason != ReasonPrincipalMissing {
		t.Fatalf("reason = %s, want %s", d.Reason, ReasonPrincipalMissing)
	}
}

func TestAuthorizeFinanceManagerEndToEnd(t *testing.T) {
	g := newTestGate()
	fm := &Principal{UserID: 3, Role: RoleFinanceManager}

	d := g.Authorize(fm, PermFinancialDelete, nil)
	if d.Allowed {
		t.Fatalf("financial:delete allowed for FINANCE_MANAGER")
	}
	if d.Reason != ReasonInsufficientPermission {
		t.Fatalf("reason = %s, want %s", d.Reason, ReasonInsufficientPermission)
	}

	if d := g.Authorize(fm, PermFinancialReport, nil); !d.Allowed {
		t.Fatalf("financial:report denied for FINANCE_MANAGER: %+v", d)
	}
}

func TestAuthorizeIdempotent(t *testing.T) {
	g := newTestGate()
	manager := &Principal{UserID: 5, Role: RolePropertyManager, AssignedPropertyIDs: []int64{1}}
	ref := &ResourceRef{PropertyID: 2}

	first := g.Authorize(manager, PermPropertyUpdate, ref)
	for i := 0; i < 100; i++ {
		if got := g.Authorize(manager, PermPropertyUpdate, ref); got != first {
			t.Fatalf("decision changed between identical calls: %+v vs %+v", got, first)
		}
	}
}

func TestAuthorizeUndeclaredPermissionPanics(t *testing.T) {
	g := newTestGate()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for undeclared permission")
		}
	}()
	g.Authorize(&Principal{UserID: 1, Role: RoleTenant}, Permission("tenant:export"), nil)
}

func TestScopePredicateFiltersVendorRows(t *testing.T) {
	g := newTestGate()
	vendor := &Principal{UserID: 7, Role: RoleVendor, VendorID: 1}

	// List-style check admits the class, rows are filtered.
	if d := g.Authorize(vendor, PermWorkOrderRead, nil); !d.Allowed {
		t.Fatalf("vendor list admission denied: %+v", d)
	}

	rows := []ResourceRef{
		{VendorID: 1}, {VendorID: 2}, {VendorID: 1}, {VendorID: 3},
		{VendorID: 1}, {VendorID: 4}, {VendorID: 5}, {VendorID: 6},
		{VendorID: 7}, {VendorID: 8},
	}
	keep := g.ScopePredicate(vendor, PermWorkOrderRead)
	var visible int
	for _, row := range rows {
		if keep(row) {
			visible++
		}
	}
	if visible != 3 {
		t.Fatalf("vendor sees %d of %d work orders, want 3", visible, len(rows))
	}
}

func TestScopePredicateUnscopedRoleSeesAll(t *testing.T) {
	g := newTestGate()
	supervisor := &Principal{UserID: 2, Role: RoleMaintenanceSupervisor}
	keep := g.ScopePredicate(supervisor, PermWorkOrderRead)
	for _, ref := range []ResourceRef{{VendorID: 1}, {TenantID: 9}, {}} {
		if !keep(ref) {
			t.Fatalf("supervisor filtered out row %+v", ref)
		}
	}
}

func TestScopePredicateDeniedRoleSeesNothing(t *testing.T) {
	g := newTestGate()
	fm := &Principal{UserID: 3, Role: RoleFinanceManager}
	keep := g.ScopePredicate(fm, PermWorkOrderRead)
	if keep(ResourceRef{TenantID: 1}) {
		t.Fatalf("finance manager passed work order filter")
	}
}
