package config

import "time"

// SSOConfig contains OAuth/OIDC configuration for campus single sign-on.
// SSO is optional: the provider is only constructed when DiscoveryURL is set.
type SSOConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://localhost:8080/auth/sso/callback"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email groups"`
	DiscoveryURL string `env:"DISCOVERY_URL"`

	// GroupsClaimPath is a JMESPath expression selecting the group list from
	// the ID token claims. Providers that nest groups (e.g. Keycloak realm
	// roles) override the default.
	GroupsClaimPath string `env:"GROUPS_CLAIM_PATH" envDefault:"groups"`

	// AdminGroup and ProdiGroup map provider groups onto application roles.
	// Users in neither group become lecturers.
	AdminGroup string `env:"ADMIN_GROUP" envDefault:"akredia-admins"`
	ProdiGroup string `env:"PRODI_GROUP" envDefault:"akredia-prodi"`
}

// Enabled reports whether SSO login should be offered.
func (s SSOConfig) Enabled() bool {
	return s.DiscoveryURL != ""
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// TokenSecret is the HMAC signing secret for session tokens.
	// Required; the server refuses to start without it.
	TokenSecret string `env:"TOKEN_SECRET,required"`

	// TokenTTL is the session token lifetime.
	TokenTTL time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	// BcryptCost is the password hashing cost. Zero selects the library
	// default.
	BcryptCost int `env:"BCRYPT_COST" envDefault:"0"`

	// SSO configuration (campus identity provider).
	SSO SSOConfig `envPrefix:"SSO_"`
}

// Sanitize applies guardrails to authentication configuration values.
func (a *AuthConfig) Sanitize() {
	if a.TokenTTL <= 0 {
		a.TokenTTL = 24 * time.Hour
	}
	if a.BcryptCost < 0 {
		a.BcryptCost = 0
	}
}
