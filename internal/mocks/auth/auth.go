package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domainauth "github.com/akredia/akredia-api/internal/domain/auth"
	apperrors "github.com/akredia/akredia-api/internal/errors"
	"github.com/akredia/akredia-api/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.UserStore        = (*MemoryUserStore)(nil)
	_ ports.PasswordHasher   = (*PlainHasher)(nil)
	_ ports.TokenCodec       = (*FakeTokenCodec)(nil)
	_ ports.GrantStore       = (*MemoryGrantStore)(nil)
	_ ports.IdentityProvider = (*MockIdentityProvider)(nil)
)

// MemoryUserStore is an in-memory user store for unit tests. Username lookup
// is case-insensitive, matching the production repository.
type MemoryUserStore struct {
	users map[string]domainauth.StoredUser // keyed by lowercased username

	// FindErr, when set, is returned by every lookup. Simulates storage
	// outages.
	FindErr error
	// CreateErr, when set, is returned by Create.
	CreateErr error
}

// NewMemoryUserStore creates a store seeded with the given users.
func NewMemoryUserStore(users ...domainauth.StoredUser) *MemoryUserStore {
	s := &MemoryUserStore{users: make(map[string]domainauth.StoredUser)}
	for _, u := range users {
		s.users[strings.ToLower(u.Username)] = u
	}
	return s
}

func (s *MemoryUserStore) FindByUsername(_ context.Context, username string) (domainauth.StoredUser, error) {
	if s.FindErr != nil {
		return domainauth.StoredUser{}, s.FindErr
	}
	u, ok := s.users[strings.ToLower(username)]
	if !ok {
		return domainauth.StoredUser{}, apperrors.NotFound("user")
	}
	return u, nil
}

func (s *MemoryUserStore) FindByID(_ context.Context, id string) (domainauth.Identity, error) {
	if s.FindErr != nil {
		return domainauth.Identity{}, s.FindErr
	}
	for _, u := range s.users {
		if u.ID == id {
			return u.Identity, nil
		}
	}
	return domainauth.Identity{}, apperrors.NotFound("user")
}

func (s *MemoryUserStore) Create(_ context.Context, user domainauth.StoredUser) (domainauth.Identity, error) {
	if s.CreateErr != nil {
		return domainauth.Identity{}, s.CreateErr
	}
	key := strings.ToLower(user.Username)
	if _, exists := s.users[key]; exists {
		return domainauth.Identity{}, apperrors.Conflict("username already exists")
	}
	if user.ID == "" {
		user.ID = fmt.Sprintf("user-%d", len(s.users)+1)
	}
	s.users[key] = user
	return user.Identity, nil
}

// PlainHasher "hashes" by prefixing the plaintext. Only for tests.
type PlainHasher struct{}

func (PlainHasher) Hash(password string) (string, error) {
	return "plain:" + password, nil
}

func (PlainHasher) Compare(hash, password string) error {
	if hash != "plain:"+password {
		return errors.New("password mismatch")
	}
	return nil
}

// FakeTokenCodec issues predictable tokens of the form "token-<userID>" and
// verifies from an in-memory table.
type FakeTokenCodec struct {
	// IssueErr, when set, is returned by Issue.
	IssueErr error
	// VerifyErr, when set, is returned by Verify for any token.
	VerifyErr error
	// TTL defaults to 24h.
	TTL time.Duration

	issued map[string]domainauth.Claims
}

func (f *FakeTokenCodec) Issue(identity domainauth.Identity) (string, domainauth.Claims, error) {
	if f.IssueErr != nil {
		return "", domainauth.Claims{}, f.IssueErr
	}
	ttl := f.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	now := time.Now()
	claims := domainauth.Claims{
		UserID:    identity.ID,
		Username:  identity.Username,
		Role:      identity.Role,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	token := "token-" + identity.ID
	if f.issued == nil {
		f.issued = make(map[string]domainauth.Claims)
	}
	f.issued[token] = claims
	return token, claims, nil
}

func (f *FakeTokenCodec) Verify(token string) (domainauth.Claims, error) {
	if f.VerifyErr != nil {
		return domainauth.Claims{}, f.VerifyErr
	}
	claims, ok := f.issued[token]
	if !ok {
		return domainauth.Claims{}, apperrors.TokenMalformed(errors.New("unknown token"))
	}
	return claims, nil
}

// Seed registers a token/claims pair without going through Issue.
func (f *FakeTokenCodec) Seed(token string, claims domainauth.Claims) {
	if f.issued == nil {
		f.issued = make(map[string]domainauth.Claims)
	}
	f.issued[token] = claims
}

// MemoryGrantStore is an in-memory grant store for unit tests.
type MemoryGrantStore struct {
	Grants map[string][]string // userID -> program IDs
	// Err, when set, is returned by every lookup.
	Err error
	// Calls counts GrantsFor invocations, for cache tests.
	Calls int
}

func (s *MemoryGrantStore) GrantsFor(_ context.Context, userID string) ([]string, error) {
	s.Calls++
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Grants[userID], nil
}

// MockIdentityProvider simulates a campus SSO provider with deterministic
// state/nonce handling.
type MockIdentityProvider struct {
	BeginFunc    func(ctx context.Context, redirectURL string) (authURL, state, nonce string, err error)
	ExchangeFunc func(ctx context.Context, in ports.ExchangeInput) (ports.ProviderIdentity, error)

	// Deterministic values for predictable testing
	AuthURL         string
	DefaultIdentity ports.ProviderIdentity

	callCount int
}

// NewMockIdentityProvider creates a MockIdentityProvider with sensible defaults.
func NewMockIdentityProvider() *MockIdentityProvider {
	return &MockIdentityProvider{
		AuthURL: "https://mock-idp/auth",
		DefaultIdentity: ports.ProviderIdentity{
			Username: "mock.lecturer",
			Email:    "mock.lecturer@example.ac.id",
			Groups:   []string{"lecturers"},
		},
	}
}

func (m *MockIdentityProvider) Begin(ctx context.Context, redirectURL string) (string, string, string, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, redirectURL)
	}

	m.callCount++
	authURL := m.AuthURL
	if authURL == "" {
		authURL = "https://mock-idp/auth"
	}
	state := fmt.Sprintf("state-%d", m.callCount)
	nonce := fmt.Sprintf("nonce-%d", m.callCount)
	return authURL, state, nonce, nil
}

func (m *MockIdentityProvider) Exchange(ctx context.Context, in ports.ExchangeInput) (ports.ProviderIdentity, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, in)
	}
	return m.DefaultIdentity, nil
}
