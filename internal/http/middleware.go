package httpx

import (
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	apperrors "github.com/akredia/akredia-api/internal/errors"
	"github.com/akredia/akredia-api/internal/ports"
)

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// EdgeGateOptions groups dependencies for EdgeGate.
type EdgeGateOptions struct {
	Tokens ports.TokenCodec
	Policy *RoutePolicy
	Logger *slog.Logger
}

// EdgeGate returns the per-request authentication and authorization gate. It
// runs before every business handler:
//
//  1. Public-allowlist paths pass through, except that an authenticated
//     principal hitting the login or registration page is bounced to their
//     dashboard.
//  2. Otherwise a token is extracted from the cookie or Authorization header.
//     No token: API requests get 401 JSON, page requests redirect to the login
//     route with the original path preserved as callbackUrl.
//  3. A present token is verified locally. Any verification failure clears the
//     cookie and is handled like a missing token; the raw failure never
//     reaches the caller.
//  4. The verified role is checked against the route policy. A disallowed role
//     lands on the unauthorized page (403 JSON for API requests), distinct
//     from not being authenticated.
//  5. On success the verified claims are attached to the request context.
//
// The gate is stateless beyond the redirect/cookie-clear writes and safe under
// arbitrary request concurrency.
func EdgeGate(opts EdgeGateOptions) func(http.Handler) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	policy := opts.Policy
	if policy == nil {
		policy = DefaultRoutePolicy()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path

			if policy.IsPublic(path) {
				// An authenticated principal revisiting login/registration is
				// bounced to their dashboard instead of re-authenticating.
				if isEntryRoute(path) {
					if token := RequestToken(r); token != "" {
						if claims, err := opts.Tokens.Verify(token); err == nil {
							http.Redirect(w, r, LandingRoute(claims.Role), http.StatusSeeOther)
							return
						}
					}
				}
				next.ServeHTTP(w, r)
				return
			}

			token := RequestToken(r)
			if token == "" {
				denyUnauthenticated(w, r)
				return
			}

			claims, err := opts.Tokens.Verify(token)
			if err != nil {
				// Recovered locally: clear the stale cookie and restart the
				// login flow. Expired tokens are routine and logged at debug.
				if apperrors.IsTokenExpired(err) {
					logger.Debug("expired token", slog.String("path", path))
				} else {
					logger.Warn("token verification failed",
						slog.String("path", path),
						slog.String("code", string(apperrors.GetCode(err))))
				}
				ClearTokenCookie(w, r)
				denyUnauthenticated(w, r)
				return
			}

			if !policy.Allows(path, claims.Role) {
				denyForbidden(w, r)
				return
			}

			ctx := SetClaimsInContext(r.Context(), &claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// denyUnauthenticated answers a request with no usable token: JSON for API
// paths, redirect to login with callbackUrl for page navigation.
func denyUnauthenticated(w http.ResponseWriter, r *http.Request) {
	if isAPIPath(r.URL.Path) {
		WriteJSON(w, http.StatusUnauthorized, map[string]any{
			"error":   "authentication_required",
			"message": "authentication required",
		})
		return
	}
	target := LoginPath + "?callbackUrl=" + url.QueryEscape(safeCallbackURL(r))
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// denyForbidden answers an authenticated principal whose role is not permitted
// for the path. Distinct from not being authenticated.
func denyForbidden(w http.ResponseWriter, r *http.Request) {
	if isAPIPath(r.URL.Path) {
		WriteJSON(w, http.StatusForbidden, map[string]any{
			"error":   "insufficient_role",
			"message": "insufficient permissions",
		})
		return
	}
	http.Redirect(w, r, UnauthorizedPath, http.StatusSeeOther)
}

func isAPIPath(path string) bool {
	return strings.HasPrefix(path, "/api/")
}

// safeCallbackURL returns the request's path-and-query for use as a post-login
// destination, restricted to same-origin relative form.
func safeCallbackURL(r *http.Request) string {
	return safeRedirectPath(r.URL.RequestURI())
}

// safeRedirectPath ensures the provided redirect is a same-origin relative path
// starting with "/" and not an absolute URL. Returns "/" when invalid.
func safeRedirectPath(candidate string) string {
	if candidate == "" {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return "/"
	}
	return candidate
}
