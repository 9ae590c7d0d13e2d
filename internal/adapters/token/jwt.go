package token

// Package token implements the session token codec on HS256 JWTs.

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	domainauth "github.com/akredia/akredia-api/internal/domain/auth"
	apperrors "github.com/akredia/akredia-api/internal/errors"
)

// DefaultTTL is the fixed session token lifetime. Policy, not configuration:
// every issued token lives exactly this long and logout does not shorten it.
const DefaultTTL = 24 * time.Hour

// sessionClaims is the wire shape of the token payload.
type sessionClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Codec issues and verifies HS256-signed session tokens.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// CodecOptions groups constructor parameters for Codec.
type CodecOptions struct {
	// Secret is the server-held HMAC key. Required.
	Secret []byte
	// TTL overrides DefaultTTL when positive.
	TTL time.Duration
	// Now overrides the clock. Tests only.
	Now func() time.Time
}

// NewCodec constructs a Codec. An empty secret is a configuration fault:
// issuance must abort rather than degrade to an unsigned token, so the error
// surfaces here and again on every Issue call.
func NewCodec(opts CodecOptions) (*Codec, error) {
	if len(opts.Secret) == 0 {
		return nil, apperrors.Signing(errors.New("token secret is not configured"))
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Codec{secret: opts.Secret, ttl: ttl, now: now}, nil
}

// Issue builds claims with issuedAt = now and expiresAt = now + TTL and signs
// them with the server secret.
func (c *Codec) Issue(identity domainauth.Identity) (string, domainauth.Claims, error) {
	if len(c.secret) == 0 {
		return "", domainauth.Claims{}, apperrors.Signing(errors.New("token secret is not configured"))
	}

	issuedAt := c.now().Truncate(time.Second)
	expiresAt := issuedAt.Add(c.ttl)

	wire := sessionClaims{
		Username: identity.Username,
		Role:     string(identity.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, wire).SignedString(c.secret)
	if err != nil {
		return "", domainauth.Claims{}, apperrors.Signing(fmt.Errorf("sign token: %w", err))
	}

	return signed, domainauth.Claims{
		UserID:    identity.ID,
		Username:  identity.Username,
		Role:      domainauth.NormalizeRole(string(identity.Role)),
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// Verify validates the signature, then the validity window, and returns
// normalized claims. Verification is idempotent: repeated calls against the
// same token at the same instant yield the same result.
func (c *Codec) Verify(tokenString string) (domainauth.Claims, error) {
	var wire sessionClaims
	parsed, err := jwt.ParseWithClaims(tokenString, &wire, c.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return domainauth.Claims{}, classifyParseError(err)
	}
	if !parsed.Valid {
		return domainauth.Claims{}, apperrors.TokenSignature(errors.New("token is not valid"))
	}

	claims := domainauth.Claims{
		UserID:   wire.Subject,
		Username: wire.Username,
		Role:     domainauth.NormalizeRole(wire.Role),
	}
	if wire.IssuedAt != nil {
		claims.IssuedAt = wire.IssuedAt.Time
	}
	if wire.ExpiresAt != nil {
		claims.ExpiresAt = wire.ExpiresAt.Time
	}
	return claims, nil
}

func (c *Codec) keyFunc(_ *jwt.Token) (any, error) {
	return c.secret, nil
}

// classifyParseError maps jwt/v5 sentinel errors onto the token error taxonomy.
// Signature checks run before window checks in jwt/v5, matching the required
// verification order.
func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return apperrors.TokenExpired(err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.Is(err, jwt.ErrSignatureInvalid):
		return apperrors.TokenSignature(err)
	default:
		return apperrors.TokenMalformed(err)
	}
}
