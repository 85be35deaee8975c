package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/blazzica/marketplace-api/app"
	"github.com/blazzica/marketplace-api/config"
	"github.com/blazzica/marketplace-api/supabase/supabasetest"
)

type testAPI struct {
	handler http.Handler
	key     supabasetest.Keypair
}

func newTestAPI(t *testing.T) *testAPI {
	key := supabasetest.GenerateKeypair(t, "key-1")
	srv := supabasetest.NewJWKSServer(t, key)
	srv.Handle("/rest/v1/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodHead {
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})

	cfg := &config.Config{
		Environment: "test",
		DataBackend: config.DataBackendREST,
		Server:      config.ServerConfig{RequestTimeout: 5 * time.Second},
		Supabase: config.SupabaseConfig{
			URL:                    srv.URL,
			Key:                    "anon-key",
			JWKSPath:               supabasetest.JWKSPath,
			Audience:               "authenticated",
			JWKSRefreshInterval:    time.Minute,
			JWKSMinRefreshInterval: time.Second,
			HTTPTimeout:            2 * time.Second,
		},
		CORS: config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}, MaxAge: 300},
	}

	deps, err := app.NewDependencies(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = deps.Close(context.Background()) })

	return &testAPI{handler: SetupRoutes(deps), key: key}
}

func (a *testAPI) token(t *testing.T, role string) string {
	claims := supabasetest.Claims(uuid.NewString(), time.Now())
	if role != "" {
		claims["role"] = role
	}
	return supabasetest.Mint(t, a.key, claims)
}

func (a *testAPI) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	return w
}

func TestHealthRoutes(t *testing.T) {
	api := newTestAPI(t)

	for _, path := range []string{"/", "/health", "/health/ready"} {
		t.Run(path, func(t *testing.T) {
			w := api.do(http.MethodGet, path, "", "")
			assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
		})
	}
}

func TestRouteProtection(t *testing.T) {
	api := newTestAPI(t)
	client := api.token(t, "client")
	admin := api.token(t, "admin")

	tests := []struct {
		name     string
		method   string
		path     string
		token    string
		wantCode int
	}{
		{name: "catalog is public", method: http.MethodGet, path: "/api/services", wantCode: http.StatusOK},
		{name: "provider reviews are public", method: http.MethodGet, path: "/api/reviews/provider/" + uuid.NewString(), wantCode: http.StatusOK},
		{name: "creating a service needs a session", method: http.MethodPost, path: "/api/services", wantCode: http.StatusUnauthorized},
		{name: "bookings need a session", method: http.MethodGet, path: "/api/bookings", wantCode: http.StatusUnauthorized},
		{name: "reviews need a session to write", method: http.MethodPost, path: "/api/reviews", wantCode: http.StatusUnauthorized},
		{name: "review permission admits clients", method: http.MethodPost, path: "/api/reviews", token: client, wantCode: http.StatusBadRequest},
		{name: "profile needs a session", method: http.MethodGet, path: "/api/auth/me", wantCode: http.StatusUnauthorized},
		{name: "provider profile edits need a session", method: http.MethodPut, path: "/api/providers", wantCode: http.StatusUnauthorized},
		{name: "garbage token is rejected", method: http.MethodGet, path: "/api/bookings", token: "not.a.jwt", wantCode: http.StatusUnauthorized},
		{name: "admin area rejects anonymous callers", method: http.MethodGet, path: "/api/admin", wantCode: http.StatusUnauthorized},
		{name: "admin area rejects clients", method: http.MethodGet, path: "/api/admin", token: client, wantCode: http.StatusForbidden},
		{name: "admin area rejects case-variant role claims", method: http.MethodGet, path: "/api/admin", token: api.token(t, "ADMIN"), wantCode: http.StatusForbidden},
		{name: "admin area admits admins", method: http.MethodGet, path: "/api/admin", token: admin, wantCode: http.StatusOK},
		{name: "admin user list", method: http.MethodGet, path: "/api/admin/users", token: admin, wantCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(tt.method, tt.path, tt.token, "")
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
		})
	}
}

func TestUnauthorizedResponseIsUniform(t *testing.T) {
	api := newTestAPI(t)
	expired := supabasetest.Claims(uuid.NewString(), time.Now().Add(-2*time.Hour))

	missing := api.do(http.MethodGet, "/api/bookings", "", "")
	stale := api.do(http.MethodGet, "/api/bookings", supabasetest.Mint(t, api.key, expired), "")

	assert.Equal(t, http.StatusUnauthorized, missing.Code)
	assert.Equal(t, http.StatusUnauthorized, stale.Code)
	assert.Equal(t, missing.Body.String(), stale.Body.String())
	assert.Contains(t, stale.Body.String(), "invalid authentication credentials")
}

func TestCORSPreflight(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/services", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	api.handler.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestUnknownRoute(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodGet, "/api/nope", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
