package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	defaultBackendOrigin     = "http://localhost:8000"
	defaultBackendTimeoutSec = 10
	defaultAuthRateLimit     = 15
)

type Config struct {
	Environment string `toml:"-"`

	Host string `toml:"host"`
	Port int    `toml:"port"`

	// backend (the ReBuild API)
	BackendOrigin     string `toml:"backend_origin"`
	BackendSchema     string `toml:"backend_schema"`
	BackendTimeoutSec int    `toml:"backend_timeout_sec"`
	LoginFormEncoded  bool   `toml:"login_form_encoded"`

	// calendar days are resolved in this location
	Timezone string `toml:"timezone"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// redis, used for auth forms rate limiting
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`

	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	AuthRateLimitAllowedPerMin int  `toml:"auth_rate_limit_allowed_per_min"`
	CSRFSecure                 bool `toml:"csrf_secure"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}

	if cfg == nil {
		return nil, fmt.Errorf("config for env [%s] missing", env)
	}

	return cfg, nil
}

// Load reads the TOML config file and returns the section for the given environment,
// with defaults applied and env var overrides on top.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file [%s]: %w", path, err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}

	if strings.HasPrefix(strings.ToLower(env), "prod") {
		cfg.Environment = "production"
	} else {
		cfg.Environment = "development"
	}

	if backendURL := os.Getenv("REBUILD_BACKEND_URL"); backendURL != "" {
		cfg.BackendOrigin = backendURL
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.BackendOrigin == "" {
		c.BackendOrigin = defaultBackendOrigin
	}
	if c.BackendSchema == "" {
		c.BackendSchema = "v2"
	}
	if c.BackendTimeoutSec <= 0 {
		c.BackendTimeoutSec = defaultBackendTimeoutSec
	}
	if c.AuthRateLimitAllowedPerMin <= 0 {
		c.AuthRateLimitAllowedPerMin = defaultAuthRateLimit
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid timezone [%s]: %w", c.Timezone, err)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(c.BackendTimeoutSec) * time.Second
}

// Location returns the configured timezone, or the process local one when unset.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}
