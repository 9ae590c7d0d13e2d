package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domainauth "github.com/akredia/akredia-api/internal/domain/auth"
	apperrors "github.com/akredia/akredia-api/internal/errors"
	"github.com/akredia/akredia-api/internal/ports"
)

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Users    ports.UserStore
	Hasher   ports.PasswordHasher
	Tokens   ports.TokenCodec
	Provider ports.IdentityProvider // optional campus SSO
	Roles    ports.RoleMapper       // required when Provider is set
}

// AuthService orchestrates authentication: credential verification, token
// issuance, and (optionally) SSO identity resolution. All flows converge on
// the single token codec; nothing else mints trusted sessions.
type AuthService struct {
	users    ports.UserStore
	hasher   ports.PasswordHasher
	tokens   ports.TokenCodec
	provider ports.IdentityProvider
	roles    ports.RoleMapper
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	return &AuthService{
		users:    opts.Users,
		hasher:   opts.Hasher,
		tokens:   opts.Tokens,
		provider: opts.Provider,
		roles:    opts.Roles,
	}
}

// LoginResult carries a freshly minted session.
type LoginResult struct {
	User   domainauth.Identity
	Token  string
	Claims domainauth.Claims
}

// Login verifies a username/password pair and issues a session token.
// Unknown user and wrong password collapse into the same InvalidCredentials
// error; infrastructure failures stay distinct so the handler can answer 5xx
// instead of 401.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	identity, err := s.authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return s.issueFor(identity)
}

// authenticate looks up the stored record and compares the password against
// the stored hash. Pure read and compare, no side effects.
func (s *AuthService) authenticate(ctx context.Context, username, password string) (domainauth.Identity, error) {
	if username == "" || password == "" {
		return domainauth.Identity{}, apperrors.InvalidCredentials()
	}

	stored, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if apperrors.IsNotFound(err) {
			// Same failure as a wrong password so the response cannot reveal
			// whether the username exists.
			return domainauth.Identity{}, apperrors.InvalidCredentials()
		}
		return domainauth.Identity{}, apperrors.Storage(err)
	}

	if compareErr := s.hasher.Compare(stored.PasswordHash, password); compareErr != nil {
		return domainauth.Identity{}, apperrors.InvalidCredentials()
	}

	stored.Role = domainauth.NormalizeRole(string(stored.Role))
	return stored.Identity, nil
}

func (s *AuthService) issueFor(identity domainauth.Identity) (*LoginResult, error) {
	token, claims, err := s.tokens.Issue(identity)
	if err != nil {
		if apperrors.IsSigning(err) {
			return nil, err
		}
		return nil, apperrors.Signing(err)
	}
	return &LoginResult{User: identity, Token: token, Claims: claims}, nil
}

// RegisterInput carries the fields for lecturer self-registration.
type RegisterInput struct {
	Username string
	Password string
	Name     string
	Email    string
}

// Register creates a lecturer account. Role is never caller-supplied:
// self-registration always yields the least-privileged role; coordinators and
// administrators are provisioned by the user-management collaborator.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (domainauth.Identity, error) {
	if strings.TrimSpace(in.Username) == "" {
		return domainauth.Identity{}, apperrors.ValidationField("username", "username is required")
	}
	if in.Password == "" {
		return domainauth.Identity{}, apperrors.ValidationField("password", "password is required")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return domainauth.Identity{}, apperrors.ValidationField("password", err.Error())
	}

	identity, err := s.users.Create(ctx, domainauth.StoredUser{
		Identity: domainauth.Identity{
			Username: strings.TrimSpace(in.Username),
			Name:     strings.TrimSpace(in.Name),
			Email:    strings.TrimSpace(in.Email),
			Role:     domainauth.RoleLecturer,
		},
		PasswordHash: hash,
	})
	if err != nil {
		return domainauth.Identity{}, err
	}
	return identity, nil
}

// Status re-verifies a presented token and resolves the identity behind it.
// Used by the session-status endpoint; a token that verifies but whose user no
// longer resolves is treated as not logged in.
func (s *AuthService) Status(ctx context.Context, token string) (domainauth.Identity, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return domainauth.Identity{}, err
	}

	identity, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return domainauth.Identity{}, err
		}
		return domainauth.Identity{}, apperrors.Storage(err)
	}
	return identity, nil
}

// BeginSSOLogin starts the campus SSO flow and returns the provider auth URL
// with state and nonce. Errors when no provider is configured.
func (s *AuthService) BeginSSOLogin(ctx context.Context, redirectURL string) (authURL, state, nonce string, err error) {
	if s.provider == nil {
		return "", "", "", errors.New("sso provider is not configured")
	}
	if redirectURL == "" {
		return "", "", "", errors.New("redirect URL is required")
	}
	authURL, state, nonce, err = s.provider.Begin(ctx, redirectURL)
	if err != nil {
		return "", "", "", fmt.Errorf("begin sso flow: %w", err)
	}
	return authURL, state, nonce, nil
}

// CompleteSSOLogin finishes the SSO flow. The provider only resolves who the
// principal is; the local store remains authoritative for the identity, and
// the session token comes from the same codec as password logins. A provider
// identity with no matching local account falls back to the group-mapped role
// so campus accounts work without pre-provisioning.
func (s *AuthService) CompleteSSOLogin(ctx context.Context, in ports.ExchangeInput) (*LoginResult, error) {
	if s.provider == nil {
		return nil, errors.New("sso provider is not configured")
	}

	provided, err := s.provider.Exchange(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("exchange sso code: %w", err)
	}

	identity, err := s.resolveSSOIdentity(ctx, provided)
	if err != nil {
		return nil, err
	}
	return s.issueFor(identity)
}

func (s *AuthService) resolveSSOIdentity(ctx context.Context, provided ports.ProviderIdentity) (domainauth.Identity, error) {
	stored, err := s.users.FindByUsername(ctx, provided.Username)
	if err == nil {
		stored.Role = domainauth.NormalizeRole(string(stored.Role))
		return stored.Identity, nil
	}
	if !apperrors.IsNotFound(err) {
		return domainauth.Identity{}, apperrors.Storage(err)
	}

	if s.roles == nil {
		return domainauth.Identity{}, errors.New("sso role mapper is not configured")
	}
	role := s.roles.Map(provided.Groups)

	// No local record: register the campus account on first login.
	identity, err := s.users.Create(ctx, domainauth.StoredUser{
		Identity: domainauth.Identity{
			Username: provided.Username,
			Name:     provided.Username,
			Email:    provided.Email,
			Role:     role,
		},
		// SSO accounts have no local password; an empty hash never compares
		// equal under bcrypt, so the password flow stays closed for them.
		PasswordHash: "!sso",
	})
	if err != nil {
		return domainauth.Identity{}, err
	}
	return identity, nil
}
