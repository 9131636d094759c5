// Package gateway serves the admin console locally. It owns the login routes and proxies
// /api to the REST API, attaching the session token on the way out.
package gateway

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/estatehub/admin-gateway/internal/login"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// LoginPath is where the console sends users whose session could not be renewed.
const LoginPath = "/login"

type Gateway struct {
	apiURL         *url.URL
	authPathPrefix string
	transport      http.RoundTripper
	loginServer    *login.LoginServer
}

// proxyFromURL creates a proxy that forwards requests to the REST API through the given transport
func proxyFromURL(target *url.URL, transport http.RoundTripper) echo.MiddlewareFunc {
	return middleware.ProxyWithConfig(middleware.ProxyConfig{
		Balancer: middleware.NewRoundRobinBalancer([]*middleware.ProxyTarget{
			{
				Name: target.String(),
				URL:  target,
			}}),
		Transport: transport,
	})
}

func (g *Gateway) RegisterHandlers(e *echo.Echo, commonMiddlewares ...echo.MiddlewareFunc) {
	g.loginServer.RegisterHandlers(e, commonMiddlewares...)
	g.loginServer.RegisterPages(e, commonMiddlewares...)

	apiProxy := proxyFromURL(g.apiURL, g.transport)
	apiHost := setHost(g.apiURL.Host)

	// Token endpoints are only used by the gateway itself, their responses must not reach the browser
	for _, name := range []string{"login", "refresh", "logout"} {
		deny := e.Group("/api"+g.authPathPrefix+name, commonMiddlewares...)
		deny.Any("", echo.NotFoundHandler)
	}
	e.Group("/api", append(commonMiddlewares, noCookies, noAuthorization, forwardRequestID, stripPrefix("/api"), apiHost, apiProxy)...)
}

type GatewayOption func(*Gateway) error

// WithAPIURL sets the REST API base URL, including its path.
func WithAPIURL(apiURL *url.URL) GatewayOption {
	return func(g *Gateway) error {
		g.apiURL = apiURL
		return nil
	}
}

func WithAuthPathPrefix(prefix string) GatewayOption {
	return func(g *Gateway) error {
		g.authPathPrefix = prefix
		return nil
	}
}

// WithTransport sets the round tripper proxied requests go through, normally the interceptor.
func WithTransport(transport http.RoundTripper) GatewayOption {
	return func(g *Gateway) error {
		g.transport = transport
		return nil
	}
}

func WithLoginServer(loginServer *login.LoginServer) GatewayOption {
	return func(g *Gateway) error {
		g.loginServer = loginServer
		return nil
	}
}

func NewGateway(options ...GatewayOption) (*Gateway, error) {
	g := Gateway{authPathPrefix: "/auth/"}
	for _, opt := range options {
		err := opt(&g)
		if err != nil {
			return nil, err
		}
	}
	if g.apiURL == nil {
		return nil, fmt.Errorf("API URL not provided")
	}
	if g.transport == nil {
		return nil, fmt.Errorf("transport not initialized")
	}
	if g.loginServer == nil {
		return nil, fmt.Errorf("login server not initialized")
	}
	slog.Debug("GATEWAY", "message", "proxying the REST API", "target", g.apiURL.String())
	return &g, nil
}

// RedirectToLogin is the auth failure handler of the gateway: the console follows the
// Location header of the rejected response back to the login page.
func RedirectToLogin(req *http.Request, res *http.Response) {
	res.Header.Set("Location", LoginPath)
}
