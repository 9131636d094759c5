package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/estatehub/admin-gateway/internal/login"
	"github.com/estatehub/admin-gateway/internal/utils"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// CSRFCookieName holds the token the console has to send back in the X-CSRF-Token header
// (or the login form field) on every unsafe request.
const CSRFCookieName = "_csrf"

// csrfProtection rejects unsafe requests that do not echo the CSRF cookie. Other sites can
// make the browser send requests to the gateway but cannot read the cookie.
func csrfProtection() echo.MiddlewareFunc {
	return middleware.CSRFWithConfig(middleware.CSRFConfig{
		TokenLookup:    "header:" + echo.HeaderXCSRFToken + ",form:" + login.CSRFFormField,
		ContextKey:     login.CSRFContextKey,
		CookieName:     CSRFCookieName,
		CookiePath:     "/",
		CookieSameSite: http.SameSiteStrictMode,
		ErrorHandler: func(err error, c echo.Context) error {
			slog.Warn(
				"GATEWAY",
				"message", "rejected a request without a valid CSRF token",
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"origin", c.Request().Header.Get(echo.HeaderOrigin),
				"error", err,
			)
			return echo.NewHTTPError(http.StatusForbidden, "cross-site request rejected")
		},
	})
}

// noCookies removes all cookies from a request, the REST API does not use them
func noCookies(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Request().Header.Del("Cookie")
		return next(c)
	}
}

// noAuthorization drops credentials sent by the browser so only the session token is used
func noAuthorization(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Request().Header.Del(echo.HeaderAuthorization)
		return next(c)
	}
}

// forwardRequestID copies the request ID generated for the response onto the proxied request.
func forwardRequestID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if id := utils.GetRequestID(c); id != "" {
			c.Request().Header.Set(echo.HeaderXRequestID, id)
		}
		return next(c)
	}
}

// stripPrefix removes a prefix from a request's path
func stripPrefix(prefix string) echo.MiddlewareFunc {
	return middleware.RewriteWithConfig(middleware.RewriteConfig{
		RegexRules: map[*regexp.Regexp]string{
			regexp.MustCompile(fmt.Sprintf("^%s/(.+)", prefix)): "/$1",
			regexp.MustCompile(fmt.Sprintf("^%s$", prefix)):     "/",
		},
	})
}

// setHost sets the host of a request, proxying to a server on another host fails without it.
func setHost(host string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Request().Host = host
			return next(c)
		}
	}
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogError:     true,
		LogRequestID: true,
		LogRoutePath: true,
		LogMethod:    true,
		LogUserAgent: true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.String("requestID", v.RequestID),
				slog.String("traceID", utils.GetTraceID(c)),
				slog.String("method", v.Method),
				slog.String("handler", v.RoutePath),
				slog.String("userAgent", v.UserAgent),
			}
			if v.Error == nil {
				logger.LogAttrs(context.Background(), slog.LevelInfo, "REQUEST", attrs...)
			} else {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
				logger.LogAttrs(context.Background(), slog.LevelError, "REQUEST_ERROR", attrs...)
			}
			return nil
		},
	})
}
