package bootstrap

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/akredia/akredia-api/config"
	"github.com/akredia/akredia-api/internal/adapters/authroles"
	"github.com/akredia/akredia-api/internal/adapters/credentials"
	"github.com/akredia/akredia-api/internal/adapters/oidc"
	redisadapter "github.com/akredia/akredia-api/internal/adapters/redis"
	"github.com/akredia/akredia-api/internal/adapters/token"
	"github.com/akredia/akredia-api/internal/data"
	"github.com/akredia/akredia-api/internal/ports"
	"github.com/akredia/akredia-api/internal/service"
)

// ServiceContainer holds the constructed application services and the shared
// token codec the HTTP edge gate verifies with.
type ServiceContainer struct {
	Auth          *service.AuthService
	ProgramAccess *service.ProgramAccessService
	Tokens        ports.TokenCodec
}

// ServiceDeps contains dependencies for building services.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// NewServices wires repositories, adapters, and services together. The token
// codec built here is the only component that mints session tokens; SSO and
// password logins both route through it.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	cfg := deps.Config

	codec, err := token.NewCodec(token.CodecOptions{
		Secret: []byte(cfg.Auth.TokenSecret),
		TTL:    cfg.Auth.TokenTTL,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build token codec: %w", err)
	}

	hasher := &credentials.BcryptHasher{Cost: cfg.Auth.BcryptCost}
	users := data.NewUserRepo(deps.DB)

	var grants ports.GrantStore = data.NewGrantRepo(deps.DB)
	if deps.RedisClient != nil {
		grants = redisadapter.NewGrantCacheWithTTL(deps.RedisClient, grants, cfg.Redis.GrantTTL)
	}

	var provider ports.IdentityProvider
	var roles ports.RoleMapper
	if cfg.Auth.SSO.Enabled() {
		provider, err = oidc.NewProvider(oidc.ProviderConfig{
			ClientID:        cfg.Auth.SSO.ClientID,
			ClientSecret:    cfg.Auth.SSO.ClientSecret,
			RedirectURL:     cfg.Auth.SSO.RedirectURL,
			Scope:           cfg.Auth.SSO.Scope,
			DiscoveryURL:    cfg.Auth.SSO.DiscoveryURL,
			GroupsClaimPath: cfg.Auth.SSO.GroupsClaimPath,
		})
		if err != nil {
			return ServiceContainer{}, fmt.Errorf("build sso provider: %w", err)
		}
		roles = &authroles.StaticRoleMapper{
			AdminGroup: cfg.Auth.SSO.AdminGroup,
			ProdiGroup: cfg.Auth.SSO.ProdiGroup,
		}
		if deps.Logger != nil {
			deps.Logger.Info("sso enabled", "discovery_url", cfg.Auth.SSO.DiscoveryURL)
		}
	}

	auth := service.NewAuthService(service.AuthServiceOptions{
		Users:    users,
		Hasher:   hasher,
		Tokens:   codec,
		Provider: provider,
		Roles:    roles,
	})

	return ServiceContainer{
		Auth:          auth,
		ProgramAccess: service.NewProgramAccessService(grants),
		Tokens:        codec,
	}, nil
}
