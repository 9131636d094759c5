package config

import "fmt"

type RunningEnvironment string

const Development RunningEnvironment = "development"
const Production RunningEnvironment = "production"

type Config struct {
	RunningEnvironment RunningEnvironment
	DebugMode          bool
	API                APIConfig
	Session            SessionConfig
	Storage            StorageConfig
	Server             ServerConfig
	Monitoring         MonitoringConfig
}

func (c *Config) Validate() error {
	switch c.RunningEnvironment {
	case Development, Production:
	default:
		return fmt.Errorf("unknown running environment %q (must be one of %s or %s)", c.RunningEnvironment, Development, Production)
	}
	err := c.API.Validate()
	if err != nil {
		return err
	}
	err = c.Session.Validate()
	if err != nil {
		return err
	}
	err = c.Storage.Validate(c.RunningEnvironment)
	if err != nil {
		return err
	}
	err = c.Server.Validate()
	if err != nil {
		return err
	}
	return c.Monitoring.Validate()
}
