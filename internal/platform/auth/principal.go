package auth

import (
	"context"

	"github.com/google/uuid"
)

// Tenant user roles. RoleSuperAdmin exists only on legacy tenant rows; at
// authentication time it is normalized into KindSuperAdmin so downstream
// code never re-derives the distinction from role strings.
const (
	RolePracticeAdmin = "ADMIN"
	RoleUser          = "USER"
	RoleSuperAdmin    = "SUPER_ADMIN"
)

// PrincipalKind discriminates the two identity spaces.
type PrincipalKind int

const (
	// KindTenantUser is a practice-scoped user; PracticeID and Role are set.
	KindTenantUser PrincipalKind = iota
	// KindSuperAdmin is a global principal; PracticeID is uuid.Nil and the
	// device trust gate never applies.
	KindSuperAdmin
)

// Principal is the caller identity resolved once per request by the auth
// middleware. Handlers and the device policy evaluator match on Kind.
type Principal struct {
	Kind       PrincipalKind
	UserID     uuid.UUID
	PracticeID uuid.UUID
	Role       string
}

// IsSuperAdmin reports whether the principal bypasses tenant scoping.
func (p Principal) IsSuperAdmin() bool { return p.Kind == KindSuperAdmin }

// IsPracticeAdmin reports whether the principal can manage its practice.
// Super-admins administer every practice.
func (p Principal) IsPracticeAdmin() bool {
	return p.Kind == KindSuperAdmin || p.Role == RolePracticeAdmin
}

type contextKey string

const principalKey contextKey = "principal"

// WithPrincipal returns a context carrying the resolved principal.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext retrieves the principal resolved by the middleware.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}
