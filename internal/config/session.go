package config

import (
	"fmt"
	"time"
)

type AuthFailurePolicy string

const (
	// PolicyRedirect hands the failure to the application, which sends the user back to login
	PolicyRedirect AuthFailurePolicy = "redirect"
	// PolicySilent only logs the failure
	PolicySilent AuthFailurePolicy = "silent"
)

type ProactiveRefreshConfig struct {
	Enabled       bool
	ExpiryMargin  time.Duration
	CheckInterval time.Duration
}

type SessionConfig struct {
	TokenTTL         time.Duration
	OnAuthFailure    AuthFailurePolicy
	ProactiveRefresh ProactiveRefreshConfig
}

func (c SessionConfig) Validate() error {
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token TTL (%s) needs to be greater than 0", c.TokenTTL)
	}
	switch c.OnAuthFailure {
	case PolicyRedirect, PolicySilent:
	default:
		return fmt.Errorf("unknown auth failure policy %q (must be one of %s or %s)", c.OnAuthFailure, PolicyRedirect, PolicySilent)
	}
	if !c.ProactiveRefresh.Enabled {
		return nil
	}
	if c.ProactiveRefresh.CheckInterval < time.Second {
		return fmt.Errorf("proactive refresh check interval (%s) cannot be less than a second", c.ProactiveRefresh.CheckInterval)
	}
	if c.ProactiveRefresh.ExpiryMargin <= 0 || c.ProactiveRefresh.ExpiryMargin >= c.TokenTTL {
		return fmt.Errorf("proactive refresh expiry margin (%s) has to be between 0 and the token TTL (%s)", c.ProactiveRefresh.ExpiryMargin, c.TokenTTL)
	}
	return nil
}
