package authz

import (
	"fmt"
	"log/slog"
)

// DenyReason classifies why the gate refused an operation. The two
// reasons are logged distinctly for audit granularity but surfaced to
// callers with identical wording.
type DenyReason string

const (
	ReasonInsufficientPermission DenyReason = "insufficient_permission"
	ReasonScopeViolation         DenyReason = "scope_violation"
	ReasonPrincipalMissing       DenyReason = "principal_missing"
)

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed    bool
	Reason     DenyReason
	Permission Permission
}

// Allow is the affirmative decision.
func Allow(perm Permission) Decision {
	return Decision{Allowed: true, Permission: perm}
}

// Deny builds a negative decision.
func Deny(perm Permission, reason DenyReason) Decision {
	return Decision{Reason: reason, Permission: perm}
}

// Gate is the single authorization entry point invoked before business
// logic executes. It is stateless apart from audit logging: a pure
// function of (principal, permission, target) safe for concurrent use.
type Gate struct {
	matrix *Matrix
	logger *slog.Logger
}

// NewGate constructs a Gate over the immutable matrix.
func NewGate(matrix *Matrix, logger *slog.Logger) *Gate {
	if matrix == nil {
		matrix = NewMatrix()
	}
	return &Gate{matrix: matrix, logger: logger}
}

// Authorize decides whether the principal may perform the operation
// guarded by perm against the target described by ref.
//
// An undeclared permission is a configuration error and panics (matrix
// lookup fails fast). When the role lacks the plain permission the gate
// falls back to the role's scoped variants of the same resource:action
// and delegates to the scope evaluator. A nil ref on a scoped grant
// means a list-style operation: the gate admits the class and the
// caller must apply ScopePredicate to every returned row.
func (g *Gate) Authorize(p *Principal, perm Permission, ref *ResourceRef) Decision {
	decision := g.decide(p, perm, ref)
	if !decision.Allowed {
		g.logDeny(p, decision)
	}
	return decision
}

// AuthorizeAny is the composite OR predicate: the operation proceeds if
// any of the alternative permissions authorizes it. Only the final
// refusal is logged.
func (g *Gate) AuthorizeAny(p *Principal, perms []Permission, ref *ResourceRef) Decision {
	if len(perms) == 0 {
		return Allow("")
	}
	last := Decision{}
	for _, perm := range perms {
		last = g.decide(p, perm, ref)
		if last.Allowed {
			return last
		}
	}
	g.logDeny(p, last)
	return last
}

func (g *Gate) decide(p *Principal, perm Permission, ref *ResourceRef) Decision {
	if p == nil {
		return Deny(perm, ReasonPrincipalMissing)
	}
	if !Declared(perm) {
		panic(fmt.Sprintf("authz: authorize called with undeclared permission %q", perm))
	}

	if g.matrix.HasPermission(p.Role, perm) {
		if scope := perm.Scope(); scope != "" && ref != nil {
			if !EvaluateScope(p, scope, *ref) {
				return Deny(perm, ReasonScopeViolation)
			}
		}
		return Allow(perm)
	}

	// Fall back to the role's scoped variants of the same action.
	if perm.Scope() == "" {
		scopedHeld := false
		for _, scope := range []string{ScopeAll, ScopeAssigned, ScopeOwn} {
			scoped := perm.WithScope(scope)
			if !Declared(scoped) || !g.matrix.HasPermission(p.Role, scoped) {
				continue
			}
			scopedHeld = true
			if ref == nil {
				// List-style operation: admit, rows are filtered.
				return Allow(scoped)
			}
			if EvaluateScope(p, scope, *ref) {
				return Allow(scoped)
			}
		}
		if scopedHeld {
			return Deny(perm, ReasonScopeViolation)
		}
	}

	return Deny(perm, ReasonInsufficientPermission)
}

func (g *Gate) logDeny(p *Principal, d Decision) {
	if g.logger == nil {
		return
	}
	var userID int64
	var role Role
	if p != nil {
		userID = p.UserID
		role = p.Role
	}
	g.logger.Warn("authorization denied",
		slog.Int64("user_id", userID),
		slog.String("role", string(role)),
		slog.String("permission", string(d.Permission)),
		slog.String("reason", string(d.Reason)),
	)
}
