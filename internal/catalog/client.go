// Package catalog is the typed client of the companies, projects and units REST API.
// All of its requests go through the http.Client it is given, which is expected to
// carry the authenticating interceptor.
package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/estatehub/admin-gateway/internal/config"
	"github.com/estatehub/admin-gateway/internal/models"
	"github.com/estatehub/admin-gateway/internal/restapi"
)

type Client struct {
	api               config.APIConfig
	httpClient        *http.Client
	uploadConcurrency int
}

func (c *Client) url(path string, query url.Values) string {
	endpoint := c.api.Endpoint(path)
	if len(query) > 0 {
		endpoint.RawQuery = query.Encode()
	}
	return endpoint.String()
}

// call sends a JSON request and decodes the data field of the response envelope into out.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, body, out any) (restapi.Envelope, error) {
	req, err := restapi.NewJSONRequest(ctx, method, c.url(path, query), body)
	if err != nil {
		return restapi.Envelope{}, err
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		return restapi.Envelope{}, err
	}
	return restapi.DecodeData(res, out)
}

func idPath(collection string, id int) string {
	return collection + "/" + strconv.Itoa(id)
}

func (c *Client) ListCompanies(ctx context.Context) ([]models.Company, error) {
	output := []models.Company{}
	_, err := c.call(ctx, http.MethodGet, "companies", nil, nil, &output)
	return output, err
}

func (c *Client) GetCompany(ctx context.Context, slug string) (models.Company, error) {
	var output models.Company
	_, err := c.call(ctx, http.MethodGet, "companies/"+url.PathEscape(slug), nil, nil, &output)
	return output, err
}

func (c *Client) CreateCompany(ctx context.Context, input models.CompanyInput) (models.Company, error) {
	if input.Slug == "" || input.Name == "" {
		return models.Company{}, fmt.Errorf("a company needs a slug and a name")
	}
	var output models.Company
	_, err := c.call(ctx, http.MethodPost, "companies", nil, input, &output)
	return output, err
}

func (c *Client) UpdateCompany(ctx context.Context, id int, input models.CompanyInput) (models.Company, error) {
	var output models.Company
	_, err := c.call(ctx, http.MethodPut, idPath("companies", id), nil, input, &output)
	return output, err
}

func (c *Client) DeleteCompany(ctx context.Context, id int) error {
	_, err := c.call(ctx, http.MethodDelete, idPath("companies", id), nil, nil, nil)
	return err
}

func (c *Client) ListProjects(ctx context.Context, filter models.ProjectFilter) ([]models.Project, error) {
	output := []models.Project{}
	_, err := c.call(ctx, http.MethodGet, "projects", filter.Values(), nil, &output)
	return output, err
}

func (c *Client) GetProject(ctx context.Context, id int) (models.Project, error) {
	var output models.Project
	_, err := c.call(ctx, http.MethodGet, idPath("projects", id), nil, nil, &output)
	return output, err
}

func (c *Client) CreateProject(ctx context.Context, input models.ProjectInput) (models.Project, error) {
	if input.CompanySlug == "" || input.Slug == "" || input.Title == "" {
		return models.Project{}, fmt.Errorf("a project needs a company slug, a slug and a title")
	}
	var output models.Project
	_, err := c.call(ctx, http.MethodPost, "projects", nil, input, &output)
	return output, err
}

func (c *Client) UpdateProject(ctx context.Context, id int, input models.ProjectInput) (models.Project, error) {
	var output models.Project
	_, err := c.call(ctx, http.MethodPut, idPath("projects", id), nil, input, &output)
	return output, err
}

func (c *Client) DeleteProject(ctx context.Context, id int) error {
	_, err := c.call(ctx, http.MethodDelete, idPath("projects", id), nil, nil, nil)
	return err
}

func (c *Client) ListUnits(ctx context.Context, filter models.UnitFilter) (models.UnitPage, error) {
	output := models.UnitPage{Units: []models.Unit{}}
	envelope, err := c.call(ctx, http.MethodGet, "units", filter.Values(), nil, &output.Units)
	if err != nil {
		return models.UnitPage{}, err
	}
	if envelope.Pagination != nil {
		output.Pagination = *envelope.Pagination
	}
	return output, nil
}

func (c *Client) GetUnit(ctx context.Context, id int) (models.Unit, error) {
	var output models.Unit
	_, err := c.call(ctx, http.MethodGet, idPath("units", id), nil, nil, &output)
	return output, err
}

func (c *Client) CreateUnit(ctx context.Context, input models.UnitInput) (models.Unit, error) {
	if input.ProjectID == 0 || input.Code == "" || input.Sqm <= 0 || input.PricePerSqm <= 0 || input.Floor == "" {
		return models.Unit{}, fmt.Errorf("a unit needs a project id, a code, sqm, a price per sqm and a floor")
	}
	if input.Status != "" && !input.Status.Valid() {
		return models.Unit{}, fmt.Errorf("unknown unit status %q", input.Status)
	}
	var output models.Unit
	_, err := c.call(ctx, http.MethodPost, "units", nil, input, &output)
	return output, err
}

func (c *Client) UpdateUnit(ctx context.Context, id int, input models.UnitInput) (models.Unit, error) {
	if input.Status != "" && !input.Status.Valid() {
		return models.Unit{}, fmt.Errorf("unknown unit status %q", input.Status)
	}
	var output models.Unit
	_, err := c.call(ctx, http.MethodPut, idPath("units", id), nil, input, &output)
	return output, err
}

func (c *Client) DeleteUnit(ctx context.Context, id int) error {
	_, err := c.call(ctx, http.MethodDelete, idPath("units", id), nil, nil, nil)
	return err
}

// RegisterUser creates a console user, only admins are allowed to.
func (c *Client) RegisterUser(ctx context.Context, username, password, role string) (models.User, error) {
	if role == "" {
		role = "user"
	}
	req, err := restapi.NewJSONRequest(ctx, http.MethodPost, c.url(c.api.AuthPathPrefix+"register", nil), map[string]string{
		"username": username,
		"password": password,
		"role":     role,
	})
	if err != nil {
		return models.User{}, err
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		return models.User{}, err
	}
	var output models.User
	err = restapi.Decode(res, &output)
	return output, err
}

type ClientOption func(*Client) error

func WithAPIConfig(api config.APIConfig) ClientOption {
	return func(c *Client) error {
		c.api = api
		return nil
	}
}

// WithHTTPClient sets the client used for every call, normally one wrapping the interceptor.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) error {
		c.httpClient = httpClient
		return nil
	}
}

func WithUploadConcurrency(n int) ClientOption {
	return func(c *Client) error {
		if n <= 0 {
			return fmt.Errorf("invalid upload concurrency (%d)", n)
		}
		c.uploadConcurrency = n
		return nil
	}
}

func NewClient(options ...ClientOption) (*Client, error) {
	c := Client{uploadConcurrency: 4}
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
		return nil, fmt.Errorf("http client not initialized")
	}
	return &c, nil
}
