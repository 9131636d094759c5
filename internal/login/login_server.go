package login

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/estatehub/admin-gateway/internal/gwerrors"
	"github.com/labstack/echo/v4"
)

// LoginServer exposes the session lifecycle over HTTP for the local admin console.
type LoginServer struct {
	service  *Service
	basePath string
	pagePath string
}

// The login form posts back the token the CSRF middleware stored under CSRFContextKey.
const (
	CSRFContextKey = "csrf"
	CSRFFormField  = "_csrf"
)

type loginRequest struct {
	Username    string `json:"username" form:"username"`
	Password    string `json:"password" form:"password"`
	RedirectURL string `json:"-" form:"redirect_url"`
}

type errorBody struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func (l *LoginServer) RegisterHandlers(server *echo.Echo, commonMiddlewares ...echo.MiddlewareFunc) {
	e := server.Group(l.basePath)
	e.Use(commonMiddlewares...)
	e.POST("/login", l.PostLogin, NoCaching)
	e.POST("/logout", l.PostLogout, NoCaching)
	e.GET("/status", l.GetStatus, NoCaching)
	e.GET("/user-profile", l.GetUserProfile, NoCaching)
	e.GET("/verify", l.GetVerify, NoCaching)
}

// RegisterPages adds the HTML login page, the echo server needs a renderer with the
// "login" and "logout" templates.
func (l *LoginServer) RegisterPages(server *echo.Echo, commonMiddlewares ...echo.MiddlewareFunc) {
	server.GET(l.pagePath, l.GetLoginPage, append(commonMiddlewares, NoCaching)...)
}

func (l *LoginServer) GetLoginPage(c echo.Context) error {
	return l.renderLoginPage(c, http.StatusOK, "", c.QueryParam("redirect_url"), "")
}

func (l *LoginServer) renderLoginPage(c echo.Context, status int, username, redirectURL, message string) error {
	csrf, _ := c.Get(CSRFContextKey).(string)
	return c.Render(status, "login", map[string]any{
		"action":      l.basePath + "/login",
		"csrf":        csrf,
		"csrfField":   CSRFFormField,
		"username":    username,
		"redirectURL": safeRedirect(redirectURL),
		"error":       message,
	})
}

// safeRedirect only allows paths on the gateway itself.
func safeRedirect(target string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return "/"
	}
	return target
}

func isForm(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationForm)
}

func (l *LoginServer) PostLogin(c echo.Context) error {
	var body loginRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "the login request cannot be parsed"})
	}
	user, err := l.service.Login(c.Request().Context(), body.Username, body.Password)
	if isForm(c) {
		if err != nil {
			status, message := errorStatus(err)
			return l.renderLoginPage(c, status, body.Username, body.RedirectURL, message)
		}
		return c.Redirect(http.StatusFound, safeRedirect(body.RedirectURL))
	}
	if err != nil {
		return respondWithError(c, err)
	}
	status := l.service.Status(c.Request().Context())
	return c.JSON(http.StatusOK, map[string]any{"ok": true, "user": user, "expires_at": status.ExpiresAt})
}

func (l *LoginServer) PostLogout(c echo.Context) error {
	l.service.Logout(c.Request().Context())
	if isForm(c) {
		return c.Render(http.StatusOK, "logout", map[string]any{"loginURL": l.pagePath})
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true})
}

func (l *LoginServer) GetStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, l.service.Status(c.Request().Context()))
}

func (l *LoginServer) GetUserProfile(c echo.Context) error {
	user, err := l.service.CurrentUser(c.Request().Context())
	if err != nil {
		return respondWithError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true, "user": user})
}

func (l *LoginServer) GetVerify(c echo.Context) error {
	user, err := l.service.Verify(c.Request().Context())
	if err != nil {
		return respondWithError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true, "user": user})
}

func errorStatus(err error) (int, string) {
	var apiErr *gwerrors.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Status, apiErr.Message
	case errors.Is(err, gwerrors.ErrMissingCredentials):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, gwerrors.ErrUnauthenticated):
		return http.StatusUnauthorized, err.Error()
	default:
		return http.StatusBadGateway, gwerrors.GenericErrorMessage
	}
}

func respondWithError(c echo.Context, err error) error {
	status, message := errorStatus(err)
	if status == http.StatusBadGateway {
		return err
	}
	return c.JSON(status, errorBody{Error: message})
}

type LoginServerOption func(*LoginServer) error

func WithService(service *Service) LoginServerOption {
	return func(l *LoginServer) error {
		l.service = service
		return nil
	}
}

// WithBasePath sets the group the routes are registered under, "/auth" by default.
func WithBasePath(basePath string) LoginServerOption {
	return func(l *LoginServer) error {
		l.basePath = basePath
		return nil
	}
}

// WithPagePath sets where the HTML login page is served, "/login" by default.
func WithPagePath(pagePath string) LoginServerOption {
	return func(l *LoginServer) error {
		l.pagePath = pagePath
		return nil
	}
}

// NewLoginServer creates the HTTP handlers of the login service.
func NewLoginServer(options ...LoginServerOption) (*LoginServer, error) {
	server := LoginServer{basePath: "/auth", pagePath: "/login"}
	for _, opt := range options {
		err := opt(&server)
		if err != nil {
			return &LoginServer{}, err
		}
	}
	if server.service == nil {
		return &LoginServer{}, fmt.Errorf("login service not initialized")
	}
	return &server, nil
}
