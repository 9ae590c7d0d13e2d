package httpx

import (
	"log/slog"
	"net/http"

	"github.com/akredia/akredia-api/internal/ports"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth   AuthServiceInterface
	Tokens ports.TokenCodec
	Policy *RoutePolicy // nil selects DefaultRoutePolicy
	Logger *slog.Logger
}

// NewRouter creates the HTTP handler: route registration wrapped in the edge
// gate. Every request passes the gate before any handler runs.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	authHandlers := &AuthHandlers{Svc: services.Auth, Logger: services.Logger}
	registerAuthRoutes(mux, authHandlers)
	registerPageRoutes(mux)

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	gate := EdgeGate(EdgeGateOptions{
		Tokens: services.Tokens,
		Policy: services.Policy,
		Logger: services.Logger,
	})
	return gate(mux)
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.Handle("POST /api/auth/login", http.HandlerFunc(h.Login))
	mux.Handle("POST /api/auth/register", http.HandlerFunc(h.Register))
	mux.Handle("POST /api/auth/logout", http.HandlerFunc(h.Logout))
	mux.Handle("GET /api/auth/session", http.HandlerFunc(h.Session))
	mux.Handle("GET /auth/sso/login", http.HandlerFunc(h.SSOLogin))
	mux.Handle("GET /auth/sso/callback", http.HandlerFunc(h.SSOCallback))
}

func registerPageRoutes(mux *http.ServeMux) {
	mux.Handle("GET /{$}", http.HandlerFunc(homePage))
	mux.Handle("GET "+LoginPath, http.HandlerFunc(loginPage))
	mux.Handle("GET "+RegisterPath, http.HandlerFunc(registerPage))
	mux.Handle("GET "+ForgotPasswordPath, http.HandlerFunc(forgotPasswordPage))
	mux.Handle("GET "+UnauthorizedPath, http.HandlerFunc(unauthorizedPage))

	mux.Handle("GET "+LecturerHomePath, dashboardPage("Lecturer dashboard"))
	mux.Handle("GET "+LecturerHomePath+"/", dashboardPage("Lecturer dashboard"))
	mux.Handle("GET "+ProdiHomePath, dashboardPage("Program coordinator dashboard"))
	mux.Handle("GET "+ProdiHomePath+"/", dashboardPage("Program coordinator dashboard"))
	mux.Handle("GET "+AdminHomePath, dashboardPage("Administrator dashboard"))
	mux.Handle("GET "+AdminHomePath+"/", dashboardPage("Administrator dashboard"))
}
