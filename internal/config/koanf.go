package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the files searched, in order, when CONFIG_PATH is
// not set. The first one that exists is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
}

const (
	// ConfigPathEnvVar overrides the config file path.
	ConfigPathEnvVar = "CONFIG_PATH"

	// EnvPrefix marks environment variables read as configuration.
	// TRIPRECO_GEOCODING__API_KEY sets geocoding.api_key.
	EnvPrefix = "TRIPRECO_"
)

// Load builds the configuration from defaults, then the config file if one
// is found, then TRIPRECO_* environment variables.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(NewDefaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		return path
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransform maps TRIPRECO_SERVER__READ_TIMEOUT to server.read_timeout.
func envTransform(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// Validate rejects configurations the services cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port == "" {
		errs = append(errs, errors.New("server.port is required"))
	}
	if c.Geocoding.Timeout <= 0 {
		errs = append(errs, errors.New("geocoding.timeout must be positive"))
	}
	if c.Recommend.TransportBoundaryKm <= 0 || c.Recommend.LodgingBoundaryKm <= 0 || c.Recommend.SecondRadiusKm <= 0 {
		errs = append(errs, errors.New("recommend boundaries must be positive"))
	}
	if c.Recommend.FirstTopN <= 0 || c.Recommend.SecondTopN <= 0 || c.Recommend.FoodTopN <= 0 {
		errs = append(errs, errors.New("recommend top-n values must be positive"))
	}
	if c.Session.IdleTTL < 0 {
		errs = append(errs, errors.New("session.idle_ttl must not be negative"))
	}
	if c.Session.IdleTTL > 0 && c.Session.SweepInterval <= 0 {
		errs = append(errs, errors.New("session.sweep_interval must be positive when idle_ttl is set"))
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q is not json or console", c.Logging.Format))
	}
	for name, t := range c.Data.Tables {
		switch strings.ToLower(t.Encoding) {
		case "", "utf-8", "utf8", "euc-kr", "cp949", "auto":
		default:
			errs = append(errs, fmt.Errorf("data.tables.%s.encoding %q is not supported", name, t.Encoding))
		}
	}
	return errors.Join(errs...)
}
