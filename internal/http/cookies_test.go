package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetTokenCookie_Attributes(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)

	SetTokenCookie(w, r, "abc123")

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]

	assert.Equal(t, TokenCookieName, c.Name)
	assert.Equal(t, "abc123", c.Value)
	assert.Equal(t, "/", c.Path)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, TokenCookieMaxAge, c.MaxAge)
	assert.False(t, c.Secure, "plain HTTP request should not set Secure")
}

func TestSetTokenCookie_SecureBehindProxy(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	r.Header.Set("X-Forwarded-Proto", "https")

	SetTokenCookie(w, r, "abc123")

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].Secure)
}

func TestClearTokenCookie(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)

	ClearTokenCookie(w, r)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, TokenCookieName, c.Name)
	assert.Empty(t, c.Value)
	assert.Equal(t, -1, c.MaxAge)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		expected string
	}{
		{"standard bearer", "Bearer tok123", "tok123"},
		{"lowercase scheme", "bearer tok123", "tok123"},
		{"no header", "", ""},
		{"wrong scheme", "Basic dXNlcg==", ""},
		{"bare scheme", "Bearer ", ""},
		{"surrounding whitespace", "Bearer  tok123 ", "tok123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.expected, BearerToken(r))
		})
	}
}

func TestRequestToken_CookieWinsOverHeader(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	r.AddCookie(&http.Cookie{Name: TokenCookieName, Value: "from-cookie"})
	r.Header.Set("Authorization", "Bearer from-header")

	assert.Equal(t, "from-cookie", RequestToken(r))
}

func TestRequestToken_FallsBackToHeader(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	r.Header.Set("Authorization", "Bearer from-header")

	assert.Equal(t, "from-header", RequestToken(r))
}

func TestRequestToken_Empty(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	assert.Empty(t, RequestToken(r))
}
