package views

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTemplates(t *testing.T) {
	templates, err := getTemplates()
	require.NoError(t, err)
	assert.NotNil(t, templates.Lookup("login"))
	assert.NotNil(t, templates.Lookup("logout"))
}

func TestLoginTemplate(t *testing.T) {
	templates, err := getTemplates()
	require.NoError(t, err)
	buf := new(bytes.Buffer)
	data := map[string]any{
		"action":      "/auth/login",
		"error":       "Invalid credentials",
		"username":    "admin<script>",
		"redirectURL": "/projects",
	}

	err = templates.ExecuteTemplate(buf, "login", data)

	require.NoError(t, err)
	html := buf.String()
	assert.Contains(t, html, "<!DOCTYPE html>")
	assert.Contains(t, html, `<form method="post" action="/auth/login">`)
	assert.Contains(t, html, `<p class="error">Invalid credentials</p>`)
	assert.Contains(t, html, `value="/projects"`)
	assert.NotContains(t, html, "admin<script>")
	assert.NotContains(t, html, `class="notice"`)
}

func TestLogoutTemplate(t *testing.T) {
	templates, err := getTemplates()
	require.NoError(t, err)
	buf := new(bytes.Buffer)

	err = templates.ExecuteTemplate(buf, "logout", map[string]any{"loginURL": "/login"})

	require.NoError(t, err)
	assert.Contains(t, buf.String(), `<a class="btn-sign-in" href="/login">`)
}
