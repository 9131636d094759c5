package gwerrors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIErrorPrefersErrorField(t *testing.T) {
	err := NewAPIError(http.StatusConflict, []byte(`{"ok": false, "error": "slug exists", "message": "ignored"}`))

	assert.Equal(t, "slug exists", err.Message)
	assert.Equal(t, "slug exists (status 409)", err.Error())
}

func TestAPIErrorFallsBackToMessageField(t *testing.T) {
	err := NewAPIError(http.StatusInternalServerError, []byte(`{"ok": false, "message": "database is down"}`))

	assert.Equal(t, "database is down", err.Message)
}

func TestAPIErrorGenericMessage(t *testing.T) {
	err := NewAPIError(http.StatusBadGateway, []byte("<html>bad gateway</html>"))

	assert.Equal(t, GenericErrorMessage, err.Message)
}

func TestAPIErrorUnwrap(t *testing.T) {
	unauthorized := NewAPIError(http.StatusUnauthorized, []byte(`{"error": "Token missing or invalid"}`))
	notFound := NewAPIError(http.StatusNotFound, nil)
	badRequest := NewAPIError(http.StatusBadRequest, nil)

	assert.True(t, errors.Is(unauthorized, ErrUnauthorized))
	assert.True(t, errors.Is(notFound, ErrNotFound))
	assert.False(t, errors.Is(badRequest, ErrUnauthorized))
	var apiErr *APIError
	assert.True(t, errors.As(unauthorized, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
}
