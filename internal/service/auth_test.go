package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/akredia/akredia-api/internal/domain/auth"
	apperrors "github.com/akredia/akredia-api/internal/errors"
	mockauth "github.com/akredia/akredia-api/internal/mocks/auth"
	"github.com/akredia/akredia-api/internal/ports"
)

func storedLecturer() domainauth.StoredUser {
	return domainauth.StoredUser{
		Identity: domainauth.Identity{
			ID:       "user-1",
			Username: "budi",
			Name:     "Budi Santoso",
			Email:    "budi@example.ac.id",
			Role:     domainauth.RoleLecturer,
		},
		PasswordHash: "plain:rahasia-123",
	}
}

func newTestAuthService(users *mockauth.MemoryUserStore, codec *mockauth.FakeTokenCodec) *AuthService {
	return NewAuthService(AuthServiceOptions{
		Users:  users,
		Hasher: mockauth.PlainHasher{},
		Tokens: codec,
	})
}

func TestAuthService_Login_Success(t *testing.T) {
	users := mockauth.NewMemoryUserStore(storedLecturer())
	svc := newTestAuthService(users, &mockauth.FakeTokenCodec{})

	result, err := svc.Login(context.Background(), "budi", "rahasia-123")
	require.NoError(t, err)

	assert.Equal(t, "user-1", result.User.ID)
	assert.Equal(t, domainauth.RoleLecturer, result.User.Role)
	assert.Equal(t, "token-user-1", result.Token)
	assert.Equal(t, "user-1", result.Claims.UserID)
}

func TestAuthService_Login_CaseInsensitiveUsername(t *testing.T) {
	users := mockauth.NewMemoryUserStore(storedLecturer())
	svc := newTestAuthService(users, &mockauth.FakeTokenCodec{})

	result, err := svc.Login(context.Background(), "BUDI", "rahasia-123")
	require.NoError(t, err)
	assert.Equal(t, "user-1", result.User.ID)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	users := mockauth.NewMemoryUserStore(storedLecturer())
	svc := newTestAuthService(users, &mockauth.FakeTokenCodec{})

	_, err := svc.Login(context.Background(), "budi", "wrong")
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidCredentials(err))
}

func TestAuthService_Login_UnknownUserIndistinguishable(t *testing.T) {
	users := mockauth.NewMemoryUserStore(storedLecturer())
	svc := newTestAuthService(users, &mockauth.FakeTokenCodec{})

	_, unknownErr := svc.Login(context.Background(), "nobody", "rahasia-123")
	_, wrongErr := svc.Login(context.Background(), "budi", "wrong")

	require.Error(t, unknownErr)
	require.Error(t, wrongErr)
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())
	assert.True(t, apperrors.IsInvalidCredentials(unknownErr))
	assert.True(t, apperrors.IsInvalidCredentials(wrongErr))
}

func TestAuthService_Login_EmptyFields(t *testing.T) {
	users := mockauth.NewMemoryUserStore(storedLecturer())
	svc := newTestAuthService(users, &mockauth.FakeTokenCodec{})

	for _, tc := range []struct{ username, password string }{
		{"", "rahasia-123"},
		{"budi", ""},
		{"", ""},
	} {
		_, err := svc.Login(context.Background(), tc.username, tc.password)
		assert.True(t, apperrors.IsInvalidCredentials(err))
	}
}

func TestAuthService_Login_StorageFailureIsNotCredentialFailure(t *testing.T) {
	users := mockauth.NewMemoryUserStore(storedLecturer())
	users.FindErr = errors.New("connection refused")
	svc := newTestAuthService(users, &mockauth.FakeTokenCodec{})

	_, err := svc.Login(context.Background(), "budi", "rahasia-123")
	require.Error(t, err)
	assert.True(t, apperrors.IsStorage(err))
	assert.False(t, apperrors.IsInvalidCredentials(err))
}

func TestAuthService_Login_SigningFailure(t *testing.T) {
	users := mockauth.NewMemoryUserStore(storedLecturer())
	codec := &mockauth.FakeTokenCodec{IssueErr: apperrors.Signing(errors.New("no secret"))}
	svc := newTestAuthService(users, codec)

	_, err := svc.Login(context.Background(), "budi", "rahasia-123")
	require.Error(t, err)
	assert.True(t, apperrors.IsSigning(err))
}

func TestAuthService_Register(t *testing.T) {
	users := mockauth.NewMemoryUserStore()
	svc := newTestAuthService(users, &mockauth.FakeTokenCodec{})

	identity, err := svc.Register(context.Background(), RegisterInput{
		Username: "  siti  ",
		Password: "rahasia-456",
		Name:     "Siti Aminah",
		Email:    "siti@example.ac.id",
	})
	require.NoError(t, err)

	assert.Equal(t, "siti", identity.Username)
	// Self-registration never grants anything above lecturer.
	assert.Equal(t, domainauth.RoleLecturer, identity.Role)

	// The stored hash must let the new account log in.
	result, err := svc.Login(context.Background(), "siti", "rahasia-456")
	require.NoError(t, err)
	assert.Equal(t, identity.ID, result.User.ID)
}

func TestAuthService_Register_Validation(t *testing.T) {
	users := mockauth.NewMemoryUserStore()
	svc := newTestAuthService(users, &mockauth.FakeTokenCodec{})

	_, err := svc.Register(context.Background(), RegisterInput{Username: "", Password: "x"})
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "username", apperrors.GetField(err))

	_, err = svc.Register(context.Background(), RegisterInput{Username: "siti", Password: ""})
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "password", apperrors.GetField(err))
}

func TestAuthService_Register_DuplicateUsername(t *testing.T) {
	users := mockauth.NewMemoryUserStore(storedLecturer())
	svc := newTestAuthService(users, &mockauth.FakeTokenCodec{})

	_, err := svc.Register(context.Background(), RegisterInput{Username: "budi", Password: "rahasia-789"})
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
}

func TestAuthService_Status(t *testing.T) {
	users := mockauth.NewMemoryUserStore(storedLecturer())
	codec := &mockauth.FakeTokenCodec{}
	svc := newTestAuthService(users, codec)

	result, err := svc.Login(context.Background(), "budi", "rahasia-123")
	require.NoError(t, err)

	identity, err := svc.Status(context.Background(), result.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", identity.ID)
}

func TestAuthService_Status_BadToken(t *testing.T) {
	users := mockauth.NewMemoryUserStore(storedLecturer())
	svc := newTestAuthService(users, &mockauth.FakeTokenCodec{})

	_, err := svc.Status(context.Background(), "garbage")
	require.Error(t, err)
	assert.True(t, apperrors.IsTokenError(err))
}

func TestAuthService_Status_DeletedUser(t *testing.T) {
	users := mockauth.NewMemoryUserStore()
	codec := &mockauth.FakeTokenCodec{}
	codec.Seed("token-ghost", domainauth.Claims{UserID: "ghost", Role: domainauth.RoleLecturer})
	svc := newTestAuthService(users, codec)

	_, err := svc.Status(context.Background(), "token-ghost")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestAuthService_BeginSSOLogin_NoProvider(t *testing.T) {
	svc := newTestAuthService(mockauth.NewMemoryUserStore(), &mockauth.FakeTokenCodec{})

	_, _, _, err := svc.BeginSSOLogin(context.Background(), "/dashboard")
	assert.Error(t, err)
}

func TestAuthService_CompleteSSOLogin_ExistingUserKeepsLocalRole(t *testing.T) {
	// A locally provisioned PRODI account logging in over SSO keeps PRODI even
	// when the provider groups would map to lecturer.
	prodi := storedLecturer()
	prodi.ID = "user-2"
	prodi.Username = "wati"
	prodi.Role = domainauth.RoleProdi

	users := mockauth.NewMemoryUserStore(prodi)
	provider := mockauth.NewMockIdentityProvider()
	provider.DefaultIdentity = ports.ProviderIdentity{Username: "wati", Groups: []string{"lecturers"}}

	svc := NewAuthService(AuthServiceOptions{
		Users:    users,
		Hasher:   mockauth.PlainHasher{},
		Tokens:   &mockauth.FakeTokenCodec{},
		Provider: provider,
		Roles:    roleMapperFunc(func([]string) domainauth.Role { return domainauth.RoleLecturer }),
	})

	result, err := svc.CompleteSSOLogin(context.Background(), ports.ExchangeInput{Code: "c", State: "s", Nonce: "n"})
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleProdi, result.User.Role)
	assert.Equal(t, "token-user-2", result.Token)
}

func TestAuthService_CompleteSSOLogin_FirstLoginRegisters(t *testing.T) {
	users := mockauth.NewMemoryUserStore()
	provider := mockauth.NewMockIdentityProvider()
	provider.DefaultIdentity = ports.ProviderIdentity{
		Username: "dewi",
		Email:    "dewi@example.ac.id",
		Groups:   []string{"akreditasi-prodi"},
	}

	svc := NewAuthService(AuthServiceOptions{
		Users:    users,
		Hasher:   mockauth.PlainHasher{},
		Tokens:   &mockauth.FakeTokenCodec{},
		Provider: provider,
		Roles: roleMapperFunc(func(groups []string) domainauth.Role {
			for _, g := range groups {
				if g == "akreditasi-prodi" {
					return domainauth.RoleProdi
				}
			}
			return domainauth.RoleLecturer
		}),
	})

	result, err := svc.CompleteSSOLogin(context.Background(), ports.ExchangeInput{Code: "c", State: "s", Nonce: "n"})
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleProdi, result.User.Role)

	// The registered account exists but its sentinel hash keeps the password
	// flow closed.
	_, err = svc.Login(context.Background(), "dewi", "!sso")
	assert.True(t, apperrors.IsInvalidCredentials(err))
}

func TestAuthService_CompleteSSOLogin_ExchangeFailure(t *testing.T) {
	provider := mockauth.NewMockIdentityProvider()
	provider.ExchangeFunc = func(context.Context, ports.ExchangeInput) (ports.ProviderIdentity, error) {
		return ports.ProviderIdentity{}, errors.New("invalid grant")
	}

	svc := NewAuthService(AuthServiceOptions{
		Users:    mockauth.NewMemoryUserStore(),
		Hasher:   mockauth.PlainHasher{},
		Tokens:   &mockauth.FakeTokenCodec{},
		Provider: provider,
		Roles:    roleMapperFunc(func([]string) domainauth.Role { return domainauth.RoleLecturer }),
	})

	_, err := svc.CompleteSSOLogin(context.Background(), ports.ExchangeInput{Code: "c", State: "s", Nonce: "n"})
	assert.Error(t, err)
}

// roleMapperFunc adapts a function to ports.RoleMapper.
type roleMapperFunc func(groups []string) domainauth.Role

func (f roleMapperFunc) Map(groups []string) domainauth.Role { return f(groups) }
