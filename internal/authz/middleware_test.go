package authz_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ultra-bms/ultra-bms/internal/authz"
	"github.com/ultra-bms/ultra-bms/internal/platform/httpx"
	_ "github.com/ultra-bms/ultra-bms/testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestRequireWithoutPrincipal(t *testing.T) {
	mw := authz.Middleware{Gate: authz.NewGate(authz.NewMatrix(), nil)}
	handler := mw.Require(authz.PermTenantRead)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/tenants", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", res.Code)
	}
	var body httpx.ErrorBody
	if err := json.Unmarshal(res.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body.Status != http.StatusUnauthorized || body.Path != "/tenants" {
		t.Fatalf("unexpected error body: %+v", body)
	}
}

func TestRequireDeniesMissingPermission(t *testing.T) {
	mw := authz.Middleware{Gate: authz.NewGate(authz.NewMatrix(), nil)}
	handler := mw.Require(authz.PermVendorCreate)(okHandler())

	p := &authz.Principal{UserID: 9, Role: authz.RoleTenant}
	req := httptest.NewRequest(http.MethodPost, "/vendors", nil)
	req = req.WithContext(authz.ContextWithPrincipal(req.Context(), p))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", res.Code)
	}
}

func TestRequireAnyPassesOnAlternative(t *testing.T) {
	mw := authz.Middleware{Gate: authz.NewGate(authz.NewMatrix(), nil)}
	handler := mw.RequireAny(authz.PermTenantRead, authz.PermTenantUpdate)(okHandler())

	p := &authz.Principal{UserID: 5, Role: authz.RolePropertyManager}
	req := httptest.NewRequest(http.MethodGet, "/tenants", nil)
	req = req.WithContext(authz.ContextWithPrincipal(req.Context(), p))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", res.Code)
	}
}

func TestRequireAdmitsScopedVariantHolder(t *testing.T) {
	mw := authz.Middleware{Gate: authz.NewGate(authz.NewMatrix(), nil)}
	handler := mw.Require(authz.PermWorkOrderRead)(okHandler())

	p := &authz.Principal{UserID: 7, Role: authz.RoleVendor, VendorID: 2}
	req := httptest.NewRequest(http.MethodGet, "/workorders", nil)
	req = req.WithContext(authz.ContextWithPrincipal(req.Context(), p))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204 (rows filtered downstream)", res.Code)
	}
}
