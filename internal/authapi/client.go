// Package authapi talks to the authentication endpoints of the REST API. Its requests never
// go through the request interceptor, so a failing refresh cannot trigger another refresh.
package authapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/estatehub/admin-gateway/internal/config"
	"github.com/estatehub/admin-gateway/internal/models"
	"github.com/estatehub/admin-gateway/internal/restapi"
)

type LoginResult struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         models.User `json:"user"`
}

type Client struct {
	api        config.APIConfig
	httpClient *http.Client
}

func (c *Client) endpoint(name string) string {
	return c.api.Endpoint(c.api.AuthPathPrefix + name).String()
}

func (c *Client) do(req *http.Request, token string, out any) error {
	if token != "" {
		models.BearerToken(token).SetAuthHeader(req)
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	return restapi.Decode(res, out)
}

// Login exchanges the credentials for an access token, a refresh token and the user profile.
func (c *Client) Login(ctx context.Context, username, password string) (LoginResult, error) {
	req, err := restapi.NewJSONRequest(ctx, http.MethodPost, c.endpoint("login"), map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return LoginResult{}, err
	}
	var output LoginResult
	err = c.do(req, "", &output)
	if err != nil {
		return LoginResult{}, err
	}
	if output.AccessToken == "" {
		return LoginResult{}, fmt.Errorf("the login response does not contain an access token")
	}
	return output, nil
}

// Refresh obtains a new access token, the refresh token is sent as the bearer credential.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (string, error) {
	req, err := restapi.NewJSONRequest(ctx, http.MethodPost, c.endpoint("refresh"), nil)
	if err != nil {
		return "", err
	}
	var output struct {
		AccessToken string `json:"access_token"`
	}
	err = c.do(req, refreshToken, &output)
	if err != nil {
		return "", err
	}
	if output.AccessToken == "" {
		return "", fmt.Errorf("the refresh response does not contain an access token")
	}
	return output.AccessToken, nil
}

// Logout tells the server the access token is not used anymore.
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	req, err := restapi.NewJSONRequest(ctx, http.MethodPost, c.endpoint("logout"), nil)
	if err != nil {
		return err
	}
	return c.do(req, accessToken, nil)
}

// Verify returns the user the access token was issued for.
func (c *Client) Verify(ctx context.Context, accessToken string) (models.User, error) {
	req, err := restapi.NewJSONRequest(ctx, http.MethodGet, c.endpoint("verify"), nil)
	if err != nil {
		return models.User{}, err
	}
	var output struct {
		User models.User `json:"user"`
	}
	err = c.do(req, accessToken, &output)
	if err != nil {
		return models.User{}, err
	}
	return output.User, nil
}

type ClientOption func(*Client) error

func WithAPIConfig(api config.APIConfig) ClientOption {
	return func(c *Client) error {
		c.api = api
		return nil
	}
}

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) error {
		c.httpClient = httpClient
		return nil
	}
}

func NewClient(options ...ClientOption) (*Client, error) {
	c := Client{}
	for _, opt := range options {
		err := opt(&c)
		if err != nil {
			return nil, err
		}
	}
	if c.api.BaseURL == nil {
		return nil, fmt.Errorf("API base URL not initialized")
	}
	if c.api.AuthPathPrefix == "" {
		c.api.AuthPathPrefix = "/auth/"
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.api.RequestTimeout}
	}
	return &c, nil
}
