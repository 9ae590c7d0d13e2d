package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	domainauth "github.com/akredia/akredia-api/internal/domain/auth"
	apperrors "github.com/akredia/akredia-api/internal/errors"
	"github.com/akredia/akredia-api/internal/ports"
	"github.com/akredia/akredia-api/internal/service"
)

// AuthServiceInterface defines the interface for auth service operations.
type AuthServiceInterface interface {
	Login(ctx context.Context, username, password string) (*service.LoginResult, error)
	Register(ctx context.Context, in service.RegisterInput) (domainauth.Identity, error)
	Status(ctx context.Context, token string) (domainauth.Identity, error)
	BeginSSOLogin(ctx context.Context, redirectURL string) (authURL, state, nonce string, err error)
	CompleteSSOLogin(ctx context.Context, in ports.ExchangeInput) (*service.LoginResult, error)
}

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Svc    AuthServiceInterface
	Logger *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles the credential login endpoint.
// POST /api/auth/login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_fields",
			Err:     errors.New("username and password are required"),
		})
		return
	}

	result, err := h.Svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeLoginError(w, r, err)
		return
	}

	SetTokenCookie(w, r, result.Token)
	WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"token":   result.Token,
		"user":    result.User,
	})
}

// writeLoginError maps service failures onto the login contract: one generic
// 401 for anything credential-shaped, 500 for storage and signing faults.
func (h *AuthHandlers) writeLoginError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case apperrors.IsInvalidCredentials(err):
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "invalid_credentials",
			Err:     errors.New("invalid username or password"),
		})
	case apperrors.IsSigning(err):
		// Configuration fault: the signing secret is missing or unusable.
		// Logged loudly, never retried automatically.
		h.logger().ErrorContext(r.Context(), "token signing unavailable", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_failed",
			Err:     errors.New("unable to complete login"),
		})
	default:
		h.logger().ErrorContext(r.Context(), "login failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_failed",
			Err:     errors.New("unable to complete login"),
		})
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

// Register handles lecturer self-registration.
// POST /api/auth/register.
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	identity, err := h.Svc.Register(r.Context(), service.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Name:     req.Name,
		Email:    req.Email,
	})
	if err != nil {
		switch {
		case apperrors.IsValidation(err):
			WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation", Err: err})
		case apperrors.IsConflict(err):
			WriteError(w, ErrorParams{
				Code:    http.StatusConflict,
				ErrCode: "username_taken",
				Err:     errors.New("username is already registered"),
			})
		default:
			h.logger().ErrorContext(r.Context(), "registration failed", "error", err)
			WriteError(w, ErrorParams{
				Code:    http.StatusInternalServerError,
				ErrCode: "registration_failed",
				Err:     errors.New("unable to complete registration"),
			})
		}
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"user":    identity,
	})
}

// Logout handles the logout endpoint. There is no server-side session to
// destroy; the token lapses by time alone, so logout only removes the client's
// copy. Always succeeds.
// POST /api/auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	ClearTokenCookie(w, r)
	WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Session reports the current authentication status.
// GET /api/auth/session.
func (h *AuthHandlers) Session(w http.ResponseWriter, r *http.Request) {
	token := RequestToken(r)
	if token == "" {
		WriteJSON(w, http.StatusUnauthorized, map[string]any{"isLoggedIn": false})
		return
	}

	user, err := h.Svc.Status(r.Context(), token)
	if err != nil {
		if apperrors.IsTokenError(err) {
			ClearTokenCookie(w, r)
		}
		WriteJSON(w, http.StatusUnauthorized, map[string]any{"isLoggedIn": false})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"isLoggedIn": true,
		"user":       user,
	})
}

// SSO flow cookies.
const (
	ssoStateCookie    = "sso_state"
	ssoNonceCookie    = "sso_nonce"
	ssoRedirectCookie = "sso_redirect"
)

// SSOLogin initiates the campus SSO flow.
// GET /auth/sso/login?callbackUrl=<optional_redirect>.
func (h *AuthHandlers) SSOLogin(w http.ResponseWriter, r *http.Request) {
	callback := safeRedirectPath(r.URL.Query().Get("callbackUrl"))

	authURL, state, nonce, err := h.Svc.BeginSSOLogin(r.Context(), callback)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "sso begin failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "sso_unavailable",
			Err:     errors.New("single sign-on is unavailable"),
		})
		return
	}

	setFlowCookie(w, r, ssoStateCookie, state)
	setFlowCookie(w, r, ssoNonceCookie, nonce)
	setFlowCookie(w, r, ssoRedirectCookie, callback)

	http.Redirect(w, r, authURL, http.StatusFound)
}

// SSOCallback completes the campus SSO flow and mints the session token
// through the same codec as password logins.
// GET /auth/sso/callback?code=<code>&state=<state>.
func (h *AuthHandlers) SSOCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_params",
			Err:     errors.New("code and state are required"),
		})
		return
	}

	stateCookie, err := r.Cookie(ssoStateCookie)
	if err != nil || stateCookie.Value != state {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_state",
			Err:     errors.New("invalid or missing state parameter"),
		})
		return
	}
	nonceCookie, err := r.Cookie(ssoNonceCookie)
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_nonce",
			Err:     errors.New("missing nonce"),
		})
		return
	}

	result, err := h.Svc.CompleteSSOLogin(r.Context(), ports.ExchangeInput{
		Code:  code,
		State: state,
		Nonce: nonceCookie.Value,
	})
	if err != nil {
		h.logger().ErrorContext(r.Context(), "sso completion failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "sso_failed",
			Err:     errors.New("unable to complete single sign-on"),
		})
		return
	}

	SetTokenCookie(w, r, result.Token)
	clearCookie(w, r, ssoStateCookie)
	clearCookie(w, r, ssoNonceCookie)

	target := LandingRoute(result.User.Role)
	if redirectCookie, cerr := r.Cookie(ssoRedirectCookie); cerr == nil {
		if candidate := safeRedirectPath(redirectCookie.Value); candidate != "/" {
			target = candidate
		}
		clearCookie(w, r, ssoRedirectCookie)
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// PostLoginTarget resolves where a fresh login should land: a valid
// callbackUrl when one was carried through the flow, else the role's default
// landing route.
func PostLoginTarget(role domainauth.Role, callbackURL string) string {
	if callbackURL != "" {
		if candidate := safeRedirectPath(callbackURL); candidate != "/" {
			if u, err := url.Parse(candidate); err == nil && u.Path != LoginPath {
				return candidate
			}
		}
	}
	return LandingRoute(role)
}
