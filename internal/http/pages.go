package httpx

// Minimal page handlers for the routes the gate protects. The real record and
// document views are separate collaborators mounted behind the same gate;
// these stand in at the same paths so the route policy is exercised end to end.

import (
	"fmt"
	"net/http"
)

func writePage(w http.ResponseWriter, code int, title, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	fmt.Fprintf(w, "<!doctype html><html><head><title>%s</title></head><body><h1>%s</h1>%s</body></html>", title, title, body)
}

func loginPage(w http.ResponseWriter, _ *http.Request) {
	writePage(w, http.StatusOK, "Sign in", `<form method="post" action="/api/auth/login"></form>`)
}

func registerPage(w http.ResponseWriter, _ *http.Request) {
	writePage(w, http.StatusOK, "Register", `<form method="post" action="/api/auth/register"></form>`)
}

func forgotPasswordPage(w http.ResponseWriter, _ *http.Request) {
	writePage(w, http.StatusOK, "Reset password", "<p>Contact your administrator to reset your password.</p>")
}

func unauthorizedPage(w http.ResponseWriter, _ *http.Request) {
	writePage(w, http.StatusForbidden, "Not permitted",
		"<p>You are signed in, but your role does not permit this page.</p>")
}

func homePage(w http.ResponseWriter, _ *http.Request) {
	writePage(w, http.StatusOK, "Akredia", `<p><a href="/login">Sign in</a></p>`)
}

// dashboardPage renders the landing page for whichever role reached it. The
// gate has already verified the token; claims come from the request context.
func dashboardPage(title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := GetClaimsFromContext(r.Context())
		if !ok {
			// Only reachable if the page is mounted outside the gate.
			http.Redirect(w, r, LoginPath, http.StatusSeeOther)
			return
		}
		writePage(w, http.StatusOK, title,
			fmt.Sprintf("<p>Signed in as %s (%s)</p>", claims.Username, claims.Role))
	}
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
