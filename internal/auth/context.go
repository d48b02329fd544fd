package auth

import "context"

// Identity is the authenticated caller. It is attached to the request context
// by the bearer middleware and handed explicitly to service operations; there
// is no ambient security holder.
type Identity struct {
	UserID string
	Role   Role
}

// IsAdmin reports whether the identity carries the ADMIN role.
func (id Identity) IsAdmin() bool { return id.Role == RoleAdmin }

// IsOperator reports whether the identity carries the OPERATOR role.
func (id Identity) IsOperator() bool { return id.Role == RoleOperator }

type identityContextKey struct{}

// ContextWithIdentity attaches the authenticated identity to the context.
func ContextWithIdentity(ctx context.Context, ident Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, &ident)
}

// IdentityFromContext extracts the authenticated identity from the context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	v, ok := ctx.Value(identityContextKey{}).(*Identity)
	if !ok || v == nil {
		return Identity{}, false
	}
	return *v, true
}
