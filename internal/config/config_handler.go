package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const envPrefix = "ESTATE"

type ConfigHandler struct {
	mainViper   *viper.Viper
	secretViper *viper.Viper
	lock        *sync.Mutex
}

func (c *ConfigHandler) HandleChanges(callback func(Config, error)) {
	c.mainViper.OnConfigChange(func(e fsnotify.Event) {
		slog.Info("CONFIG", "message", "main config file changed", "path", e.Name)
		callback(c.Config())
	})
	c.secretViper.OnConfigChange(func(e fsnotify.Event) {
		slog.Info("CONFIG", "message", "secret config file changed", "path", e.Name)
		callback(c.Config())
	})
}

// NewConfigHandler creates a configuration handler that reads config.yaml and secret_config.yaml,
// merges them and can watch them for changes. Merges replace whole arrays. The order of preference
// from most preferred to least is environment variables (ESTATE_ prefix), secret config,
// non-secret config and finally the built-in defaults. Files are optional.
func NewConfigHandler(locations ...string) *ConfigHandler {
	main := viper.New()
	main.SetConfigType("yaml")
	main.SetConfigName("config")
	secret := viper.New()
	secret.SetConfigType("yaml")
	secret.SetConfigName("secret_config")
	// Viper uses the first path where a file exists so the explicit locations come first
	configPaths := []string{}
	for _, location := range locations {
		if location != "" {
			configPaths = append(configPaths, location)
		}
	}
	configPathEnv := os.Getenv(envPrefix + "_CONFIG_LOCATION")
	if configPathEnv != "" {
		configPaths = append(configPaths, configPathEnv)
	}
	configPaths = append(configPaths, "/etc/estate-admin", ".")
	for _, path := range configPaths {
		main.AddConfigPath(path)
		secret.AddConfigPath(path)
	}
	setDefaults(main)
	main.SetEnvPrefix(envPrefix)
	main.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	main.AutomaticEnv()
	return &ConfigHandler{secretViper: secret, mainViper: main, lock: &sync.Mutex{}}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("runningEnvironment", string(Production))
	v.SetDefault("debugMode", false)
	v.SetDefault("api.baseUrl", "http://localhost:5000/api")
	v.SetDefault("api.authPathPrefix", "/auth/")
	v.SetDefault("api.requestTimeout", "30s")
	v.SetDefault("session.tokenTTL", "24h")
	v.SetDefault("session.onAuthFailure", string(PolicyRedirect))
	v.SetDefault("session.proactiveRefresh.enabled", false)
	v.SetDefault("session.proactiveRefresh.expiryMargin", "5m")
	v.SetDefault("session.proactiveRefresh.checkInterval", "1m")
	v.SetDefault("storage.type", DBTypeSQLite)
	v.SetDefault("storage.sqlitePath", defaultSQLitePath())
	v.SetDefault("storage.keyPrefix", "")
	v.SetDefault("storage.redis.addresses", []string{})
	v.SetDefault("storage.redis.isSentinel", false)
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.masterName", "")
	v.SetDefault("storage.redis.dbIndex", 0)
	v.SetDefault("storage.tokenEncryption.enabled", false)
	v.SetDefault("storage.tokenEncryption.secretKey", "")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rateLimits.enabled", false)
	v.SetDefault("server.rateLimits.rate", 20)
	v.SetDefault("server.rateLimits.burst", 40)
	v.SetDefault("server.allowOrigin", []string{})
	v.SetDefault("monitoring.sentry.enabled", false)
	v.SetDefault("monitoring.sentry.dsn", "")
	v.SetDefault("monitoring.sentry.environment", "")
	v.SetDefault("monitoring.sentry.sampleRate", 0.2)
	v.SetDefault("monitoring.prometheus.enabled", false)
	v.SetDefault("monitoring.prometheus.port", 8765)
	v.SetDefault("monitoring.posthog.enabled", false)
	v.SetDefault("monitoring.posthog.apiKey", "")
	v.SetDefault("monitoring.posthog.host", "https://eu.posthog.com")
	v.SetDefault("monitoring.posthog.environment", "")
}

func defaultSQLitePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".estate-admin.db"
	}
	return filepath.Join(dir, "estate-admin", "session.db")
}

func readOptional(v *viper.Viper, name string) error {
	err := v.ReadInConfig()
	if err == nil {
		return nil
	}
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		slog.Debug("CONFIG", "message", "could not find a config file, using defaults and environment variables", "file", name)
		return nil
	}
	return err
}

func (c *ConfigHandler) getConfig() (Config, error) {
	var output Config
	err := readOptional(c.mainViper, "config.yaml")
	if err != nil {
		return Config{}, err
	}
	err = readOptional(c.secretViper, "secret_config.yaml")
	if err != nil {
		return Config{}, err
	}
	// the secret config overwrites anything from the non-secret configuration,
	// env variables are looked up last so they overwrite both
	err = c.mainViper.MergeConfigMap(c.secretViper.AllSettings())
	if err != nil {
		return Config{}, err
	}
	err = c.mainViper.Unmarshal(
		&output,
		viper.DecodeHook(
			mapstructure.ComposeDecodeHookFunc(
				parseStringAsURL(),
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		),
	)
	if err != nil {
		return Config{}, err
	}
	err = output.Validate()
	if err != nil {
		return Config{}, err
	}
	return output, nil
}

func (c *ConfigHandler) Config() (Config, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.getConfig()
}

func (c *ConfigHandler) Watch() {
	c.mainViper.WatchConfig()
	c.secretViper.WatchConfig()
}

func parseStringAsURL() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (interface{}, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		if t != reflect.TypeOf(url.URL{}) && t != reflect.TypeOf(&url.URL{}) {
			return data, nil
		}
		dataStr, ok := data.(string)
		if !ok {
			return nil, fmt.Errorf("cannot cast URL value to string")
		}
		if dataStr == "" {
			return nil, fmt.Errorf("empty values are not allowed for URLs")
		}
		parsed, err := url.Parse(dataStr)
		if err != nil {
			return nil, err
		}
		if t.Kind() == reflect.Struct {
			return *parsed, nil
		}
		return parsed, nil
	}
}
