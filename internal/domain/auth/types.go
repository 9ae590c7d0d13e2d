package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

import (
	"strings"
	"time"
)

// Role represents an application's authorization role.
// The canonical form is upper-case; NormalizeRole is the single place raw
// strings (tokens, database rows, SSO group mappings) become a Role. Downstream
// code never compares raw casing.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleProdi    Role = "PRODI"
	RoleLecturer Role = "LECTURER"
)

// NormalizeRole maps a raw role string to its canonical Role.
// Unknown or empty values default to RoleLecturer, the least-privileged role.
func NormalizeRole(raw string) Role {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case string(RoleAdmin):
		return RoleAdmin
	case string(RoleProdi):
		return RoleProdi
	default:
		return RoleLecturer
	}
}

// Identity represents a principal as stored by the user-management collaborator.
// ProgramID is set only for PRODI identities tied to a home study program.
type Identity struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	ProgramID string `json:"programId,omitempty"`
}

// Claims is the payload carried inside a signed session token.
// Exactly one validity window [IssuedAt, ExpiresAt); tokens are never mutated
// or revoked server-side, they lapse by time alone.
type Claims struct {
	UserID    string
	Username  string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// IsAdmin reports whether the claims carry the administrator role.
func (c Claims) IsAdmin() bool { return c.Role == RoleAdmin }

// StoredUser is the credential-store record for a username. PasswordHash never
// leaves the verification boundary: it is not serialized into tokens or
// responses.
type StoredUser struct {
	Identity
	PasswordHash string `json:"-"`
}
