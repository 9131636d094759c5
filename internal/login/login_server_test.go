package login

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/estatehub/admin-gateway/internal/gwerrors"
	"github.com/estatehub/admin-gateway/internal/views"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, f *fixture) *echo.Echo {
	loginServer, err := NewLoginServer(WithService(f.service))
	require.NoError(t, err)
	e := echo.New()
	tr, err := views.NewTemplateRenderer()
	require.NoError(t, err)
	tr.Register(e)
	loginServer.RegisterHandlers(e)
	loginServer.RegisterPages(e)
	return e
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestPostLoginJSON(t *testing.T) {
	f := newFixture(t)
	e := newTestServer(t, f)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"admin","password":"secret"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	rec := serve(e, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-cache, no-store, must-revalidate, max-age=0", rec.Header().Get("Cache-Control"))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "admin", body["user"].(map[string]any)["username"])
	assert.NotContains(t, rec.Body.String(), "access-token")
}

func TestPostLoginForm(t *testing.T) {
	f := newFixture(t)
	e := newTestServer(t, f)
	form := url.Values{"username": {"admin"}, "password": {"secret"}, "redirect_url": {"/projects"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)

	rec := serve(e, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/projects", rec.Header().Get(echo.HeaderLocation))
}

func TestPostLoginFormRejected(t *testing.T) {
	f := newFixture(t)
	f.auth.loginErr = &gwerrors.APIError{Status: http.StatusUnauthorized, Message: "Invalid credentials"}
	e := newTestServer(t, f)
	form := url.Values{"username": {"admin"}, "password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)

	rec := serve(e, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid credentials")
	assert.Contains(t, rec.Body.String(), `value="admin"`)
}

func TestLoginPage(t *testing.T) {
	e := newTestServer(t, newFixture(t))

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/login?redirect_url=//evil.example.org", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `action="/auth/login"`)
	assert.Contains(t, rec.Body.String(), `name="redirect_url" value="/"`)
}

func TestSafeRedirect(t *testing.T) {
	assert.Equal(t, "/units?page=2", safeRedirect("/units?page=2"))
	assert.Equal(t, "/", safeRedirect(""))
	assert.Equal(t, "/", safeRedirect("https://evil.example.org"))
	assert.Equal(t, "/", safeRedirect("//evil.example.org"))
}

func TestPostLoginErrors(t *testing.T) {
	f := newFixture(t)
	e := newTestServer(t, f)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"admin"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := serve(e, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	f.auth.loginErr = &gwerrors.APIError{Status: http.StatusUnauthorized, Message: "Invalid credentials"}
	req = httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"admin","password":"x"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = serve(e, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"ok":false,"error":"Invalid credentials"}`, rec.Body.String())
}

func TestStatusAndLogoutRoutes(t *testing.T) {
	f := newFixture(t)
	e := newTestServer(t, f)
	_, err := f.service.Login(httptest.NewRequest(http.MethodGet, "/", nil).Context(), "admin", "secret")
	require.NoError(t, err)

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/auth/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var status Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.Authenticated)

	rec = serve(e, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/auth/user-profile", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
