package config

import "fmt"

type ServerConfig struct {
	Host        string
	Port        int
	RateLimits  RateLimits
	AllowOrigin []string
}

func (c ServerConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("server port %d is out of range", c.Port)
	}
	if c.RateLimits.Enabled && (c.RateLimits.Rate <= 0 || c.RateLimits.Burst <= 0) {
		return fmt.Errorf("rate limits need a positive rate and burst when enabled")
	}
	return nil
}

type SentryConfig struct {
	Enabled     bool
	Dsn         RedactedString
	Environment string
	SampleRate  float64
}

type PrometheusConfig struct {
	Enabled bool
	Port    int
}

type PosthogConfig struct {
	Enabled     bool
	ApiKey      RedactedString
	Host        string
	Environment string
}

type MonitoringConfig struct {
	Sentry     SentryConfig
	Prometheus PrometheusConfig
	Posthog    PosthogConfig
}

func (c MonitoringConfig) Validate() error {
	if c.Sentry.Enabled && c.Sentry.Dsn == "" {
		return fmt.Errorf("sentry is enabled but the dsn is not set")
	}
	if c.Posthog.Enabled && c.Posthog.ApiKey == "" {
		return fmt.Errorf("posthog is enabled but the api key is not set")
	}
	return nil
}

type RateLimits struct {
	Enabled bool
	Rate    float64
	Burst   int
}
