package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/estatehub/admin-gateway/internal/app"
	"github.com/estatehub/admin-gateway/internal/config"
	"github.com/estatehub/admin-gateway/internal/gwerrors"
	"github.com/estatehub/admin-gateway/internal/login"
	"github.com/estatehub/admin-gateway/internal/views"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// Server is the echo server of the gateway together with its optional metrics server.
type Server struct {
	Echo    *echo.Echo
	metrics *echo.Echo
	config  config.Config
}

// NewServer sets up the routes and middlewares of the gateway for an initialized application.
func NewServer(gwConfig config.Config, application *app.App, version string, logger *slog.Logger) (*Server, error) {
	e := echo.New()
	e.Pre(middleware.RequestID(), middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	// The banner and the port do not respect the logger formatting
	e.HideBanner = true
	e.HidePort = true
	tr, err := views.NewTemplateRenderer()
	if err != nil {
		return nil, err
	}
	tr.Register(e)
	// Sentry has to come first so that the hub is available to every other middleware
	if gwConfig.Monitoring.Sentry.Enabled {
		e.Use(sentryecho.New(sentryecho.Options{Repanic: true}))
	}
	if gwConfig.Server.RateLimits.Enabled {
		e.Use(middleware.RateLimiter(
			middleware.NewRateLimiterMemoryStoreWithConfig(
				middleware.RateLimiterMemoryStoreConfig{
					Rate:      rate.Limit(gwConfig.Server.RateLimits.Rate),
					Burst:     gwConfig.Server.RateLimits.Burst,
					ExpiresIn: 3 * time.Minute,
				}),
		))
	}
	if len(gwConfig.Server.AllowOrigin) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     gwConfig.Server.AllowOrigin,
			AllowCredentials: true,
			ExposeHeaders:    []string{echo.HeaderLocation, echo.HeaderXRequestID},
		}))
	}
	if gwConfig.Monitoring.Prometheus.Enabled {
		e.Use(echoprometheus.NewMiddleware("estate_admin_gateway"))
	}
	// The gateway attaches the admin token to everything under /api, so unsafe requests
	// have to prove they come from the console
	e.Use(csrfProtection())

	e.GET("/health", func(c echo.Context) error {
		if _, err := application.Repository.Get(c.Request().Context(), "health"); err != nil && !isMissing(err) {
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})
	e.GET("/version", func(c echo.Context) error {
		return c.String(http.StatusOK, version)
	})

	loginServer, err := login.NewLoginServer(login.WithService(application.Login), login.WithPagePath(LoginPath))
	if err != nil {
		return nil, err
	}
	gw, err := NewGateway(
		WithAPIURL(gwConfig.API.BaseURL),
		WithAuthPathPrefix(gwConfig.API.AuthPathPrefix),
		WithTransport(application.Transport),
		WithLoginServer(loginServer),
	)
	if err != nil {
		return nil, err
	}
	gw.RegisterHandlers(e, requestLogger(logger))

	server := Server{Echo: e, config: gwConfig}
	if gwConfig.Monitoring.Prometheus.Enabled {
		metrics := echo.New()
		metrics.HideBanner = true
		metrics.HidePort = true
		metrics.GET("/metrics", echoprometheus.NewHandler())
		server.metrics = metrics
	}
	return &server, nil
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	if s.metrics != nil {
		go func() {
			err := s.metrics.Start(fmt.Sprintf(":%d", s.config.Monitoring.Prometheus.Port))
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("GATEWAY", "message", "prometheus server failed", "error", err)
			}
		}()
	}
	address := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	slog.Info("GATEWAY", "message", "starting the server on address "+address)
	err := s.Echo.Start(address)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.metrics != nil {
		if err := s.metrics.Shutdown(ctx); err != nil {
			slog.Warn("GATEWAY", "message", "shutting down the prometheus server failed", "error", err)
		}
	}
	return s.Echo.Shutdown(ctx)
}

func isMissing(err error) bool {
	return errors.Is(err, gwerrors.ErrMissingDBResource)
}
