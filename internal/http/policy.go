package httpx

import (
	"strings"

	domainauth "github.com/akredia/akredia-api/internal/domain/auth"
)

// Route paths shared by the policy, handlers, and middleware.
const (
	LoginPath          = "/login"
	RegisterPath       = "/register"
	ForgotPasswordPath = "/forgot-password"
	UnauthorizedPath   = "/unauthorized"
	AuthAPIPrefix      = "/api/auth/"
	SSOPrefix          = "/auth/"

	AdminHomePath    = "/admin"
	ProdiHomePath    = "/prodi"
	LecturerHomePath = "/dashboard"
)

// routeRule permits a set of roles on a path prefix.
type routeRule struct {
	prefix string
	roles  map[domainauth.Role]struct{}
}

// RoutePolicy is the static table mapping path prefixes to the roles permitted
// to access them, plus the public allowlist the gate passes unconditionally.
// It holds no mutable state and is safe under arbitrary request concurrency.
type RoutePolicy struct {
	publicExact    map[string]struct{}
	publicPrefixes []string
	rules          []routeRule
}

// DefaultRoutePolicy returns the application's route policy:
//
//	/admin     → ADMIN
//	/prodi     → PRODI, ADMIN
//	/dashboard → LECTURER, PRODI, ADMIN
//
// Login, registration, password reset, the unauthorized page, home, static
// assets, health, and every authentication endpoint are public.
func DefaultRoutePolicy() *RoutePolicy {
	return &RoutePolicy{
		publicExact: map[string]struct{}{
			"/":                {},
			LoginPath:          {},
			RegisterPath:       {},
			ForgotPasswordPath: {},
			UnauthorizedPath:   {},
			"/healthz":         {},
			"/favicon.ico":     {},
		},
		publicPrefixes: []string{AuthAPIPrefix, SSOPrefix, "/static/"},
		rules: []routeRule{
			{prefix: AdminHomePath, roles: roleSet(domainauth.RoleAdmin)},
			{prefix: ProdiHomePath, roles: roleSet(domainauth.RoleProdi, domainauth.RoleAdmin)},
			{prefix: LecturerHomePath, roles: roleSet(
				domainauth.RoleLecturer, domainauth.RoleProdi, domainauth.RoleAdmin)},
		},
	}
}

func roleSet(roles ...domainauth.Role) map[domainauth.Role]struct{} {
	set := make(map[domainauth.Role]struct{}, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

// IsPublic reports whether the path is on the public allowlist.
func (p *RoutePolicy) IsPublic(path string) bool {
	if _, ok := p.publicExact[path]; ok {
		return true
	}
	for _, prefix := range p.publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Allows reports whether the role may access the path. Paths matching no rule
// are protected-but-unrestricted: any authenticated role passes, matching how
// the rest of the application mounts behind the gate.
func (p *RoutePolicy) Allows(path string, role domainauth.Role) bool {
	for _, rule := range p.rules {
		if pathHasPrefix(path, rule.prefix) {
			_, ok := rule.roles[role]
			return ok
		}
	}
	return true
}

// pathHasPrefix matches on path-segment boundaries so /admin matches /admin
// and /admin/users but not /administrivia.
func pathHasPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}

// LandingRoute is the pure role → default landing route mapping, applied after
// login and when an authenticated principal revisits a public-only route.
func LandingRoute(role domainauth.Role) string {
	switch role {
	case domainauth.RoleAdmin:
		return AdminHomePath
	case domainauth.RoleProdi:
		return ProdiHomePath
	default:
		return LecturerHomePath
	}
}

// isEntryRoute reports whether the path is a public route an authenticated
// principal should be bounced off (back to their dashboard).
func isEntryRoute(path string) bool {
	return path == LoginPath || path == RegisterPath
}
