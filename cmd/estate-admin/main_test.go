package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/estatehub/admin-gateway/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type api struct {
	expired atomic.Bool
}

func (a *api) handler() http.Handler {
	writeJSON := func(w http.ResponseWriter, status int, body any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"ok": false, "error": "Invalid credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":            true,
			"access_token":  "token-1",
			"refresh_token": "refresh-1",
			"user":          map[string]any{"id": 1, "username": body["username"], "role": "admin"},
		})
	})
	mux.HandleFunc("POST /api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	mux.HandleFunc("POST /api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"ok": false, "error": "Invalid refresh token"})
	})
	mux.HandleFunc("GET /api/companies", func(w http.ResponseWriter, r *http.Request) {
		if a.expired.Load() || r.Header.Get("Authorization") != "Bearer token-1" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"ok": false, "error": "Token has expired"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "data": []map[string]any{{"id": 1, "slug": "emaar", "name": "Emaar"}}})
	})
	return mux
}

func setup(t *testing.T, a *api) string {
	srv := httptest.NewServer(a.handler())
	t.Cleanup(srv.Close)
	dir := t.TempDir()
	t.Setenv("ESTATE_CONFIG_LOCATION", dir)
	contents := fmt.Sprintf(`---
runningEnvironment: development
api:
  baseUrl: %s/api
storage:
  type: sqlite
  sqlitePath: %s
`, srv.URL, filepath.Join(dir, "session.db"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(contents), 0600))
	return dir
}

func run(t *testing.T, configDir string, args ...string) (string, string, error) {
	c := &cli{logLevel: &slog.LevelVar{}, logOutput: io.Discard}
	root := c.rootCmd()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(errOut)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(append([]string{"--config-dir", configDir}, args...))
	err := root.Execute()
	c.close()
	return out.String(), errOut.String(), err
}

func TestSessionLifecycle(t *testing.T) {
	dir := setup(t, &api{})

	out, _, err := run(t, dir, "login", "-u", "admin", "-p", "secret", "-o", "json")
	require.NoError(t, err)
	var user models.User
	require.NoError(t, json.Unmarshal([]byte(out), &user))
	assert.Equal(t, models.User{ID: "1", Username: "admin", Role: "admin"}, user)

	out, _, err = run(t, dir, "companies", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "slug: emaar")

	out, _, err = run(t, dir, "status", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"authenticated": true`)

	_, _, err = run(t, dir, "logout")
	require.NoError(t, err)
	out, _, err = run(t, dir, "status", "-o", "json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"authenticated":false}`, out)
}

func TestLoginReadsPasswordFromStdin(t *testing.T) {
	dir := setup(t, &api{})
	c := &cli{logLevel: &slog.LevelVar{}, logOutput: io.Discard}
	root := c.rootCmd()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader("secret\n"))
	root.SetArgs([]string{"--config-dir", dir, "login", "-u", "admin"})

	require.NoError(t, root.Execute())
	c.close()
	assert.Contains(t, out.String(), "username: admin")
}

func TestLoginRejected(t *testing.T) {
	dir := setup(t, &api{})

	_, _, err := run(t, dir, "login", "-u", "admin", "-p", "wrong")

	assert.ErrorContains(t, err, "Invalid credentials")
}

func TestExpiredSessionPrintsHint(t *testing.T) {
	a := &api{}
	dir := setup(t, a)
	_, _, err := run(t, dir, "login", "-u", "admin", "-p", "secret")
	require.NoError(t, err)
	a.expired.Store(true)

	_, errOut, err := run(t, dir, "companies", "list")

	assert.Error(t, err)
	assert.Contains(t, errOut, "run 'estate-admin login'")
	out, _, err := run(t, dir, "status", "-o", "json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"authenticated":false}`, out)
}

func TestInvalidArguments(t *testing.T) {
	dir := setup(t, &api{})

	_, _, err := run(t, dir, "units", "get", "abc")
	assert.ErrorContains(t, err, `"abc" is not a valid id`)

	_, _, err = run(t, dir, "status", "-o", "xml")
	assert.ErrorContains(t, err, `unknown output format "xml"`)
}

func TestVersionNeedsNoConfig(t *testing.T) {
	_, _, err := run(t, t.TempDir(), "version")

	assert.NoError(t, err)
}
