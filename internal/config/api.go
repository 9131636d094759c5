package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

type APIConfig struct {
	BaseURL *url.URL
	// Requests whose path contains this prefix are never retried after a refresh
	AuthPathPrefix string
	RequestTimeout time.Duration
}

func (c APIConfig) Validate() error {
	if c.BaseURL == nil {
		return fmt.Errorf("the API base URL is not set")
	}
	if c.BaseURL.Scheme != "http" && c.BaseURL.Scheme != "https" {
		return fmt.Errorf("the API base URL scheme %q is not supported (must be http or https)", c.BaseURL.Scheme)
	}
	if c.AuthPathPrefix == "" || !strings.HasPrefix(c.AuthPathPrefix, "/") || !strings.HasSuffix(c.AuthPathPrefix, "/") {
		return fmt.Errorf("the auth path prefix %q has to start and end with a slash", c.AuthPathPrefix)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("the request timeout (%s) needs to be greater than 0", c.RequestTimeout)
	}
	return nil
}

// Endpoint resolves a path relative to the API base URL, keeping any base path.
func (c APIConfig) Endpoint(path string) *url.URL {
	output := *c.BaseURL
	output.Path = strings.TrimSuffix(output.Path, "/") + "/" + strings.TrimPrefix(path, "/")
	output.RawPath = ""
	return &output
}
