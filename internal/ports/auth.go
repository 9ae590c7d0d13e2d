package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters and internal/data; orchestration in
// internal/service.

import (
	"context"

	domainauth "github.com/akredia/akredia-api/internal/domain/auth"
)

// UserStore is the read-only user/credential lookup the authentication core
// calls during login. The user-management collaborator owns writes; this core
// only registers new lecturer accounts and reads.
type UserStore interface {
	// FindByUsername returns the stored record for the username, or a NotFound
	// error when no such user exists. Case handling is the store's concern.
	FindByUsername(ctx context.Context, username string) (domainauth.StoredUser, error)

	// FindByID resolves an identity by its stable identifier.
	FindByID(ctx context.Context, id string) (domainauth.Identity, error)

	// Create inserts a new account and returns the stored identity.
	Create(ctx context.Context, user domainauth.StoredUser) (domainauth.Identity, error)
}

// PasswordHasher hashes plaintext passwords and compares them against stored
// hashes in constant time.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Compare returns nil when the password matches the hash.
	Compare(hash, password string) error
}

// TokenCodec issues and verifies signed, time-bounded session tokens.
// Verification is a pure local cryptographic check; it runs on the hot path of
// every request and must never touch network or storage.
type TokenCodec interface {
	// Issue signs a token for the identity with the codec's fixed lifetime.
	Issue(identity domainauth.Identity) (token string, claims domainauth.Claims, err error)

	// Verify validates signature integrity first, then the validity window.
	Verify(token string) (domainauth.Claims, error)
}

// GrantStore supplies the set of program identifiers a principal may act on.
type GrantStore interface {
	GrantsFor(ctx context.Context, userID string) ([]string, error)
}

// IdentityProvider resolves an external (campus SSO) identity. It never mints
// session tokens itself: every session goes through the one TokenCodec.
type IdentityProvider interface {
	// Begin starts the login flow and returns the provider auth URL, an opaque
	// state, and a nonce.
	Begin(ctx context.Context, redirectURL string) (authURL, state, nonce string, err error)

	// Exchange completes the flow, verifying state and nonce, and returns the
	// provider identity: a username/email plus raw group memberships.
	Exchange(ctx context.Context, in ExchangeInput) (ProviderIdentity, error)
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// ProviderIdentity is the shape an SSO provider resolves before role mapping
// and local identity resolution.
type ProviderIdentity struct {
	Username string
	Email    string
	Groups   []string
}

// RoleMapper maps provider groups to application roles.
type RoleMapper interface {
	Map(groups []string) domainauth.Role
}
