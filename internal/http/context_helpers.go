package httpx

import (
	"context"

	domainauth "github.com/akredia/akredia-api/internal/domain/auth"
)

// claimsKey is an unexported context key type to avoid collisions across packages.
// Centralized in this file so all handlers/middleware use the same key.
type claimsKey struct{}

// SetClaimsInContext returns a child context carrying the verified token claims.
// If claims is nil, the original ctx is returned unchanged.
func SetClaimsInContext(ctx context.Context, claims *domainauth.Claims) context.Context {
	if claims == nil {
		return ctx
	}
	return context.WithValue(ctx, claimsKey{}, claims)
}

// GetClaimsFromContext returns the verified claims from context and a boolean
// indicating presence. Handlers use this to authorize per-resource ownership
// without re-verifying the token.
func GetClaimsFromContext(ctx context.Context) (*domainauth.Claims, bool) {
	if claims, ok := ctx.Value(claimsKey{}).(*domainauth.Claims); ok && claims != nil {
		return claims, true
	}
	return nil, false
}

// RoleFromContext returns the principal's role, or empty when unauthenticated.
func RoleFromContext(ctx context.Context) domainauth.Role {
	if claims, ok := GetClaimsFromContext(ctx); ok {
		return claims.Role
	}
	return ""
}
