package oidc

// Package oidc provides the campus SSO identity adapter. It resolves who the
// principal is; session tokens are always minted by the token codec, never
// here.

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	jmespath "github.com/jmespath-community/go-jmespath"
	"golang.org/x/oauth2"

	"github.com/akredia/akredia-api/internal/ports"
)

// Provider implements ports.IdentityProvider using OIDC/OAuth2.
type Provider struct {
	config     *oauth2.Config
	httpClient *http.Client

	oidcProvider *gooidc.Provider
	verifier     *gooidc.IDTokenVerifier

	// groupsPath selects the group list out of the ID-token claims. Campus
	// identity providers disagree on where groups live ("groups", "memberof",
	// "realm_access.roles"), so the path is configuration.
	groupsPath string
}

// ProviderConfig holds configuration for the OIDC provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scope        string
	DiscoveryURL string
	// GroupsClaimPath is a JMESPath expression over the ID-token claims that
	// yields the group membership list. Defaults to "groups".
	GroupsClaimPath string
	HTTPClient      *http.Client // Optional, defaults to a 30s-timeout client
}

// NewProvider creates a new OIDC provider from a discovery URL.
func NewProvider(config ProviderConfig) (*Provider, error) {
	if config.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if config.ClientSecret == "" {
		return nil, errors.New("client secret is required")
	}
	if config.RedirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}
	if config.DiscoveryURL == "" {
		return nil, errors.New("discovery URL is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	groupsPath := config.GroupsClaimPath
	if groupsPath == "" {
		groupsPath = "groups"
	}
	if _, err := jmespath.Compile(groupsPath); err != nil {
		return nil, fmt.Errorf("compile groups claim path %q: %w", groupsPath, err)
	}

	p := &Provider{
		httpClient: httpClient,
		groupsPath: groupsPath,
	}

	// Single discovery fetch at construction time.
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
	issuer := strings.TrimSuffix(config.DiscoveryURL, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
	op, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}
	p.oidcProvider = op
	p.verifier = op.Verifier(&gooidc.Config{ClientID: config.ClientID})

	p.config = &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		RedirectURL:  config.RedirectURL,
		Scopes:       strings.Fields(config.Scope),
		Endpoint:     op.Endpoint(),
	}

	return p, nil
}

// Begin returns the provider auth URL plus cryptographically secure state and nonce.
func (p *Provider) Begin(_ context.Context, redirectURL string) (string, string, string, error) {
	if redirectURL == "" {
		return "", "", "", errors.New("redirect URL is required")
	}

	state, err := generateRandomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := generateRandomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}

	authURL := p.config.AuthCodeURL(state,
		oauth2.SetAuthURLParam("nonce", nonce),
		oauth2.SetAuthURLParam("response_type", "code"),
	)
	return authURL, state, nonce, nil
}

// Exchange completes the flow: code for token, ID-token verification, nonce
// check, then claim extraction.
func (p *Provider) Exchange(ctx context.Context, in ports.ExchangeInput) (ports.ProviderIdentity, error) {
	if in.Code == "" {
		return ports.ProviderIdentity{}, errors.New("authorization code is required")
	}
	if in.State == "" {
		return ports.ProviderIdentity{}, errors.New("state is required")
	}
	if in.Nonce == "" {
		return ports.ProviderIdentity{}, errors.New("nonce is required")
	}

	token, err := p.config.Exchange(ctx, in.Code)
	if err != nil {
		return ports.ProviderIdentity{}, fmt.Errorf("exchange code for token: %w", err)
	}

	rawID, err := idTokenFromToken(token)
	if err != nil {
		return ports.ProviderIdentity{}, err
	}
	idTok, err := p.verifier.Verify(ctx, rawID)
	if err != nil {
		return ports.ProviderIdentity{}, fmt.Errorf("verify id_token: %w", err)
	}
	if idTok.Nonce != in.Nonce {
		return ports.ProviderIdentity{}, errors.New("invalid nonce")
	}

	var rawClaims json.RawMessage
	if claimsErr := idTok.Claims(&rawClaims); claimsErr != nil {
		return ports.ProviderIdentity{}, fmt.Errorf("parse id_token claims: %w", claimsErr)
	}
	return MapClaims(rawClaims, p.groupsPath)
}

// standardClaims is the subset of ID-token claims with fixed locations.
type standardClaims struct {
	Sub               string `json:"sub"`
	PreferredUsername string `json:"preferred_username"`
	Email             string `json:"email"`
}

// MapClaims extracts a provider identity from raw ID-token claims, selecting
// groups via the given JMESPath expression. Exported for direct testing
// without a live provider.
func MapClaims(raw json.RawMessage, groupsPath string) (ports.ProviderIdentity, error) {
	var std standardClaims
	if err := json.Unmarshal(raw, &std); err != nil {
		return ports.ProviderIdentity{}, fmt.Errorf("decode id_token claims: %w", err)
	}

	username := firstNonEmpty(std.PreferredUsername, std.Email, std.Sub)
	if username == "" {
		return ports.ProviderIdentity{}, errors.New("id_token carries no usable username claim")
	}

	groups, err := extractGroups(raw, groupsPath)
	if err != nil {
		return ports.ProviderIdentity{}, err
	}

	return ports.ProviderIdentity{
		Username: username,
		Email:    std.Email,
		Groups:   groups,
	}, nil
}

// extractGroups evaluates the JMESPath expression against the claim document.
// A missing claim yields no groups (the role mapper then defaults to the
// least-privileged role); a claim of the wrong shape is an error.
func extractGroups(raw json.RawMessage, groupsPath string) ([]string, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode id_token claims: %w", err)
	}

	result, err := jmespath.Search(groupsPath, doc)
	if err != nil {
		return nil, fmt.Errorf("evaluate groups claim path: %w", err)
	}
	if result == nil {
		return []string{}, nil
	}

	items, ok := result.([]any)
	if !ok {
		// A single string group is tolerated; anything else is misconfiguration.
		if s, isString := result.(string); isString {
			return []string{s}, nil
		}
		return nil, fmt.Errorf("groups claim path yielded %T, want a list of strings", result)
	}

	groups := make([]string, 0, len(items))
	for _, item := range items {
		s, isString := item.(string)
		if !isString {
			return nil, fmt.Errorf("groups claim list contains %T, want string", item)
		}
		groups = append(groups, s)
	}
	return groups, nil
}

// firstNonEmpty returns the first non-empty string from vals, or empty string if none.
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// idTokenFromToken extracts the id_token from the oauth2 token response.
func idTokenFromToken(tok *oauth2.Token) (string, error) {
	if tok == nil {
		return "", errors.New("nil token")
	}
	raw, ok := tok.Extra("id_token").(string)
	if !ok || raw == "" {
		return "", errors.New("missing id_token in token response")
	}
	return raw, nil
}

// generateRandomString generates a cryptographically secure URL-safe random string of exact length.
func generateRandomString(length int) (string, error) {
	if length <= 0 {
		return "", nil
	}
	nBytes := (length*3 + 3) / 4
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := base64.RawURLEncoding.EncodeToString(b)
	if len(s) < length {
		extra := make([]byte, 1)
		if _, err := rand.Read(extra); err != nil {
			return "", err
		}
		s += base64.RawURLEncoding.EncodeToString(extra)
	}
	return s[:length], nil
}
