package authz

import (
	"net/http"

	"github.com/ultra-bms/ultra-bms/internal/platform/httpx"
)

// Middleware wires authorization checks for HTTP handlers. Missing
// principals map to 401, refusals to 403 with the standard error body.
// The message never reveals more than "insufficient permissions" plus
// the permission key.
type Middleware struct {
	Gate *Gate
}

// Require ensures the current principal holds the permission (or a
// scoped variant; scoped single-target checks still happen in services
// once the entity is loaded).
func (m Middleware) Require(perm Permission) func(http.Handler) http.Handler {
	return m.RequireAny(perm)
}

// RequireAny ensures the principal satisfies at least one of the
// alternative permissions.
func (m Middleware) RequireAny(perms ...Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(perms) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			p := PrincipalFromContext(r.Context())
			if p == nil {
				httpx.Error(w, r, http.StatusUnauthorized, "authentication required")
				return
			}
			decision := m.Gate.AuthorizeAny(p, perms, nil)
			if !decision.Allowed {
				httpx.Error(w, r, http.StatusForbidden, "insufficient permissions: "+string(decision.Permission))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RespondDeny writes the HTTP mapping for a gate refusal reached inside
// a handler (scoped single-target checks).
func RespondDeny(w http.ResponseWriter, r *http.Request, d Decision) {
	if d.Reason == ReasonPrincipalMissing {
		httpx.Error(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	httpx.Error(w, r, http.StatusForbidden, "insufficient permissions: "+string(d.Permission))
}
