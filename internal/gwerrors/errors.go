// Package gwerrors contains all common errors used by the gateway and its clients.
package gwerrors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

var ErrUnauthenticated = fmt.Errorf("there is no valid session, please log in")
var ErrUnauthorized = fmt.Errorf("the request was rejected as unauthorized")
var ErrRefreshFailed = fmt.Errorf("the access token could not be refreshed")
var ErrStorageUnavailable = fmt.Errorf("the session storage is unavailable")
var ErrTokenNotFound = fmt.Errorf("the token cannot be found")
var ErrTokenExpired = fmt.Errorf("the token is expired")
var ErrNotFound = fmt.Errorf("the requested resource cannot be found")
var ErrMissingCredentials = fmt.Errorf("the required credentials cannot be found")
var ErrMissingDBResource = fmt.Errorf("the requested resource cannot be found in the DB")

// GenericErrorMessage is shown when the server did not say what went wrong.
const GenericErrorMessage = "something went wrong, please try again"

// APIError is a failed call to the REST API. Message is meant for humans.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// Unwrap maps the HTTP status onto the sentinel errors so that callers can use errors.Is.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return nil
	}
}

// NewAPIError builds an APIError from a response status and its raw body. The message is taken
// from the "error" field of the body, then from "message", then falls back to a generic text.
func NewAPIError(status int, body []byte) *APIError {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	msg := ""
	if err := json.Unmarshal(body, &payload); err == nil {
		msg = strings.TrimSpace(payload.Error)
		if msg == "" {
			msg = strings.TrimSpace(payload.Message)
		}
	}
	if msg == "" {
		msg = GenericErrorMessage
	}
	return &APIError{Status: status, Message: msg}
}
