package gateway

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/estatehub/admin-gateway/internal/app"
	"github.com/estatehub/admin-gateway/internal/config"
	"github.com/estatehub/admin-gateway/internal/db"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upstream struct {
	lock         sync.Mutex
	headers      []http.Header
	paths        []string
	bodies       []string
	rejectAll    atomic.Bool
	refreshCalls atomic.Int32
}

func (u *upstream) handler() http.Handler {
	writeJSON := func(w http.ResponseWriter, status int, body any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":            true,
			"access_token":  "token-1",
			"refresh_token": "refresh-1",
			"user":          map[string]any{"id": 1, "username": "admin", "role": "admin"},
		})
	})
	mux.HandleFunc("POST /api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		u.refreshCalls.Add(1)
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"ok": false, "error": "Invalid refresh token"})
	})
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		u.lock.Lock()
		u.headers = append(u.headers, r.Header.Clone())
		u.paths = append(u.paths, r.URL.Path)
		u.bodies = append(u.bodies, string(body))
		u.lock.Unlock()
		if u.rejectAll.Load() {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"ok": false, "error": "Token has expired"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "data": []any{}})
	})
	return mux
}

func newTestServer(t *testing.T, u *upstream) *Server {
	srv := httptest.NewServer(u.handler())
	t.Cleanup(srv.Close)
	baseURL, err := url.Parse(srv.URL + "/api")
	require.NoError(t, err)
	gwConfig := config.Config{
		RunningEnvironment: config.Development,
		API:                config.APIConfig{BaseURL: baseURL, AuthPathPrefix: "/auth/", RequestTimeout: 5 * time.Second},
		Session:            config.SessionConfig{TokenTTL: time.Hour, OnAuthFailure: config.PolicyRedirect},
		Server:             config.ServerConfig{Host: "127.0.0.1", Port: 8080},
	}
	repo, err := db.NewRedisAdapter(db.WithRedisClient(db.NewMockRedisClient()))
	require.NoError(t, err)
	application, err := app.New(
		app.WithConfig(gwConfig),
		app.WithRepository(repo),
		app.WithAuthFailureHandler(RedirectToLogin),
	)
	require.NoError(t, err)
	t.Cleanup(func() { application.Close() })
	server, err := NewServer(gwConfig, application, "v1.2.3", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return server
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

// csrfCookie loads a page the way the console does on start and returns the CSRF cookie it sets.
func csrfCookie(t *testing.T, s *Server) *http.Cookie {
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/auth/status", nil))
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == CSRFCookieName {
			return cookie
		}
	}
	require.FailNow(t, "the gateway did not set a CSRF cookie")
	return nil
}

func withCSRF(req *http.Request, cookie *http.Cookie) *http.Request {
	req.AddCookie(cookie)
	req.Header.Set(echo.HeaderXCSRFToken, cookie.Value)
	return req
}

func loginSession(t *testing.T, s *Server) *http.Cookie {
	cookie := csrfCookie(t, s)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"admin","password":"secret"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := serve(s, withCSRF(req, cookie))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return cookie
}

func TestHealthAndVersion(t *testing.T) {
	s := newTestServer(t, &upstream{})

	assert.Equal(t, http.StatusOK, serve(s, httptest.NewRequest(http.MethodGet, "/health", nil)).Code)
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/version", nil))
	assert.Equal(t, "v1.2.3", rec.Body.String())
}

func TestProxyAttachesTheSessionToken(t *testing.T) {
	u := &upstream{}
	s := newTestServer(t, u)
	cookie := loginSession(t, s)
	req := httptest.NewRequest(http.MethodPost, "/api/companies", strings.NewReader(`{"slug":"emaar","name":"Emaar"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderAuthorization, "Bearer from-the-browser")
	req.AddCookie(&http.Cookie{Name: "tracking", Value: "1"})

	rec := serve(s, withCSRF(req, cookie))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, u.headers, 1)
	assert.Equal(t, "/api/companies", u.paths[0])
	assert.Equal(t, `{"slug":"emaar","name":"Emaar"}`, u.bodies[0])
	assert.Equal(t, "Bearer token-1", u.headers[0].Get("Authorization"))
	assert.Empty(t, u.headers[0].Get("Cookie"))
	assert.Equal(t, rec.Header().Get(echo.HeaderXRequestID), u.headers[0].Get(echo.HeaderXRequestID))
}

func TestProxyWithoutSession(t *testing.T) {
	u := &upstream{}
	s := newTestServer(t, u)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/units?page=2", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, u.headers, 1)
	assert.Empty(t, u.headers[0].Get("Authorization"))
}

func TestTokenEndpointsAreNotProxied(t *testing.T) {
	u := &upstream{}
	s := newTestServer(t, u)
	cookie := csrfCookie(t, s)

	for _, path := range []string{"/api/auth/login", "/api/auth/refresh", "/api/auth/logout"} {
		rec := serve(s, withCSRF(httptest.NewRequest(http.MethodPost, path, nil), cookie))
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
	assert.Zero(t, u.refreshCalls.Load())
}

func TestFailedRenewalRedirectsToLogin(t *testing.T) {
	u := &upstream{}
	s := newTestServer(t, u)
	loginSession(t, s)
	u.rejectAll.Store(true)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/projects", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, LoginPath, rec.Header().Get(echo.HeaderLocation))
	assert.Equal(t, int32(1), u.refreshCalls.Load())
	rec = serve(s, httptest.NewRequest(http.MethodGet, "/auth/status", nil))
	assert.JSONEq(t, `{"authenticated":false}`, rec.Body.String())
}

func TestNewGatewayValidation(t *testing.T) {
	_, err := NewGateway()

	assert.ErrorContains(t, err, "API URL not provided")
}

func TestLoginPageIsServed(t *testing.T) {
	s := newTestServer(t, &upstream{})

	rec := serve(s, httptest.NewRequest(http.MethodGet, LoginPath, nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<form method="post" action="/auth/login">`)
}

func TestCrossSiteRequestsAreRejected(t *testing.T) {
	u := &upstream{}
	s := newTestServer(t, u)
	cookie := loginSession(t, s)

	// a form another site submits: the browser sends no CSRF cookie and the site cannot know the token
	upload := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader("--x\r\n"))
	upload.Header.Set(echo.HeaderContentType, echo.MIMEMultipartForm+"; boundary=x")
	upload.Header.Set(echo.HeaderOrigin, "https://attacker.example")
	rec := serve(s, upload)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	logout := httptest.NewRequest(http.MethodPost, "/auth/logout", strings.NewReader("x=1"))
	logout.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec = serve(s, logout)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// a guessed token does not match the cookie
	forged := httptest.NewRequest(http.MethodDelete, "/api/companies/emaar", nil)
	forged.AddCookie(cookie)
	forged.Header.Set(echo.HeaderXCSRFToken, "guessed")
	rec = serve(s, forged)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	assert.Empty(t, u.paths)
	rec = serve(s, httptest.NewRequest(http.MethodGet, "/auth/status", nil))
	assert.Contains(t, rec.Body.String(), `"authenticated":true`)
}

func TestLoginFormCarriesTheCSRFToken(t *testing.T) {
	s := newTestServer(t, &upstream{})
	cookie := csrfCookie(t, s)
	page := httptest.NewRequest(http.MethodGet, LoginPath, nil)
	page.AddCookie(cookie)

	rec := serve(s, page)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="_csrf" value="`+cookie.Value+`"`)

	form := url.Values{"username": {"admin"}, "password": {"secret"}, "_csrf": {cookie.Value}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	req.AddCookie(cookie)
	rec = serve(s, req)
	assert.Equal(t, http.StatusFound, rec.Code)
}
