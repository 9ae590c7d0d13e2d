package httpx

import (
	"net/http"
	"strings"
	"time"
)

// TokenCookieName is the session token cookie.
const TokenCookieName = "token"

// TokenCookieMaxAge matches the token lifetime so the cookie and the token
// lapse together.
const TokenCookieMaxAge = 24 * 60 * 60 // seconds

// requestIsSecure reports whether the request arrived over TLS, directly or
// behind a terminating proxy.
func requestIsSecure(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

// SetTokenCookie writes the session token cookie with the fixed attribute
// policy: HttpOnly, SameSite=Lax, Path=/, Secure when the request is.
func SetTokenCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   requestIsSecure(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   TokenCookieMaxAge,
	})
}

// ClearTokenCookie expires the session token cookie immediately, mirroring the
// attributes used when setting it for cross-browser deletion compatibility.
func ClearTokenCookie(w http.ResponseWriter, r *http.Request) {
	clearCookie(w, r, TokenCookieName)
}

func clearCookie(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   requestIsSecure(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

// setFlowCookie stores a short-lived value used by the SSO flow (state, nonce,
// post-login destination).
func setFlowCookie(w http.ResponseWriter, r *http.Request, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   requestIsSecure(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600, // 10 minutes
	})
}

// BearerToken extracts a token from the Authorization header, or "" when the
// header is absent or not a Bearer scheme.
func BearerToken(r *http.Request) string {
	authz := r.Header.Get("Authorization")
	if authz == "" {
		return ""
	}
	const prefix = "Bearer "
	if len(authz) <= len(prefix) || !strings.EqualFold(authz[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(authz[len(prefix):])
}

// RequestToken extracts the session token, preferring the same-origin cookie
// and falling back to the Authorization header.
func RequestToken(r *http.Request) string {
	if c, err := r.Cookie(TokenCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	return BearerToken(r)
}
