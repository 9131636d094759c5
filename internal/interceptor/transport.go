// Package interceptor implements the http.RoundTripper every REST API call goes through.
// It attaches the bearer token, and on a 401 refreshes the token once and retries the request.
package interceptor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/estatehub/admin-gateway/internal/config"
	"github.com/estatehub/admin-gateway/internal/models"
	"github.com/estatehub/admin-gateway/internal/utils"
	"github.com/labstack/echo/v4"
)

type TokenSource interface {
	GetValidToken(ctx context.Context) (string, bool)
}

type Refresher interface {
	RequestRefresh(ctx context.Context) bool
}

// AuthFailureHandler is called with the rejected request and the 401 the caller will receive.
// It may adjust the response headers.
type AuthFailureHandler func(req *http.Request, res *http.Response)

type Transport struct {
	base           http.RoundTripper
	tokens         TokenSource
	refresher      Refresher
	authPathPrefix string
	policy         config.AuthFailurePolicy
	onAuthFailure  AuthFailureHandler
	ids            models.IDGenerator
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	getBody, err := replayableBody(req)
	if err != nil {
		return nil, err
	}
	outgoing, err := t.prepare(req, req.Context(), getBody)
	if err != nil {
		return nil, err
	}
	res, err := t.base.RoundTrip(outgoing)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusUnauthorized || HasRetryMarker(req.Context()) || t.isAuthPath(req) {
		return res, nil
	}

	ctx := WithRetryMarker(req.Context())
	if !t.refresher.RequestRefresh(ctx) {
		// a caller that stopped waiting has not seen the refresh fail
		if err := ctx.Err(); err != nil {
			discard(res)
			return nil, err
		}
		t.authFailed(outgoing, res)
		return res, nil
	}
	discard(res)
	retry, err := t.prepare(req, ctx, getBody)
	if err != nil {
		return nil, err
	}
	res, err = t.base.RoundTrip(retry)
	if err != nil {
		return nil, err
	}
	if res.StatusCode == http.StatusUnauthorized {
		t.authFailed(retry, res)
	}
	return res, nil
}

// prepare clones the request for one attempt, RoundTrip must not modify the caller's request.
func (t *Transport) prepare(req *http.Request, ctx context.Context, getBody func() (io.ReadCloser, error)) (*http.Request, error) {
	outgoing := req.Clone(ctx)
	if getBody != nil {
		body, err := getBody()
		if err != nil {
			return nil, fmt.Errorf("cannot replay the request body: %w", err)
		}
		outgoing.Body = body
		outgoing.GetBody = getBody
	}
	if outgoing.Header.Get(echo.HeaderXRequestID) == "" {
		id, err := t.ids.ID()
		if err == nil {
			outgoing.Header.Set(echo.HeaderXRequestID, id)
		}
	}
	if outgoing.Header.Get(utils.SentryTraceHeader) == "" {
		if trace := utils.GetSentryTrace(ctx); trace != "" {
			outgoing.Header.Set(utils.SentryTraceHeader, trace)
		}
	}
	outgoing.Header.Del("Authorization")
	if token, ok := t.tokens.GetValidToken(ctx); ok {
		models.BearerToken(token).SetAuthHeader(outgoing)
	}
	return outgoing, nil
}

func (t *Transport) isAuthPath(req *http.Request) bool {
	return strings.Contains(req.URL.Path, t.authPathPrefix)
}

func (t *Transport) authFailed(req *http.Request, res *http.Response) {
	slog.Warn(
		"INTERCEPTOR",
		"message",
		"request rejected and the session could not be renewed",
		"method",
		req.Method,
		"path",
		req.URL.Path,
		"requestID",
		req.Header.Get(echo.HeaderXRequestID),
		"policy",
		t.policy,
	)
	if t.policy == config.PolicyRedirect && t.onAuthFailure != nil {
		t.onAuthFailure(req, res)
	}
}

// replayableBody returns a function producing fresh copies of the request body. Bodies
// without GetBody are buffered in memory.
func replayableBody(req *http.Request) (func() (io.ReadCloser, error), error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	if req.GetBody != nil {
		return req.GetBody, nil
	}
	raw, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("cannot buffer the request body: %w", err)
	}
	return func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(raw)), nil
	}, nil
}

func discard(res *http.Response) {
	io.Copy(io.Discard, io.LimitReader(res.Body, 64<<10))
	res.Body.Close()
}

type TransportOption func(*Transport) error

func WithBase(base http.RoundTripper) TransportOption {
	return func(t *Transport) error {
		t.base = base
		return nil
	}
}

func WithTokenSource(tokens TokenSource) TransportOption {
	return func(t *Transport) error {
		t.tokens = tokens
		return nil
	}
}

func WithRefresher(refresher Refresher) TransportOption {
	return func(t *Transport) error {
		t.refresher = refresher
		return nil
	}
}

func WithAuthPathPrefix(prefix string) TransportOption {
	return func(t *Transport) error {
		t.authPathPrefix = prefix
		return nil
	}
}

// WithFailurePolicy sets what happens when a 401 cannot be recovered. The handler only runs
// with the redirect policy.
func WithFailurePolicy(policy config.AuthFailurePolicy, handler AuthFailureHandler) TransportOption {
	return func(t *Transport) error {
		t.policy = policy
		t.onAuthFailure = handler
		return nil
	}
}

func WithIDGenerator(ids models.IDGenerator) TransportOption {
	return func(t *Transport) error {
		t.ids = ids
		return nil
	}
}

func NewTransport(options ...TransportOption) (*Transport, error) {
	t := Transport{
		base:           http.DefaultTransport,
		authPathPrefix: "/auth/",
		policy:         config.PolicySilent,
		ids:            models.ULIDGenerator{},
	}
	for _, opt := range options {
		err := opt(&t)
		if err != nil {
			return nil, err
		}
	}
	if t.tokens == nil {
		return nil, fmt.Errorf("token source not initialized")
	}
	if t.refresher == nil {
		return nil, fmt.Errorf("refresher not initialized")
	}
	if t.base == nil {
		return nil, fmt.Errorf("base transport not initialized")
	}
	return &t, nil
}
