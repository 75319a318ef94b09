package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

// Config holds all application configuration.
type Config struct {
	Server        ServerConfig
	Store         StoreConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Shortener     ShortenerConfig
	App           AppConfig
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"SERVER_PORT" required:"true"`
	Host            string        `envconfig:"SERVER_HOST" required:"true"`
	BaseURL         string        `envconfig:"SERVER_BASE_URL" required:"true"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" required:"true"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" required:"true"`
	IdleTimeout     time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" required:"true"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" required:"true"`
}

// Validate validates the server configuration.
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port cannot be empty")
	}
	if c.Host == "" {
		return fmt.Errorf("host cannot be empty")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("base URL must be an absolute http(s) URL, got %q", c.BaseURL)
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be positive")
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("write timeout must be positive")
	}
	if c.IdleTimeout <= 0 {
		return fmt.Errorf("idle timeout must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive")
	}
	return nil
}

// Addr returns the listen address.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// ShortLinkPrefix is BaseURL without a trailing slash; a short link is the prefix,
// a slash and the code.
func (c *ServerConfig) ShortLinkPrefix() string {
	return strings.TrimRight(c.BaseURL, "/")
}

// StoreConfig selects the link store backend.
type StoreConfig struct {
	Driver    string        `envconfig:"STORE_DRIVER" default:"postgres"`
	OpTimeout time.Duration `envconfig:"STORE_OP_TIMEOUT" default:"3s"`
}

// Validate validates the store configuration.
func (c *StoreConfig) Validate() error {
	switch c.Driver {
	case DriverPostgres, DriverRedis, DriverMemory:
	default:
		return fmt.Errorf("invalid store driver: %s (must be one of: postgres, redis, memory)", c.Driver)
	}
	if c.OpTimeout <= 0 {
		return fmt.Errorf("store operation timeout must be positive")
	}
	return nil
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" required:"true"`
	Port     string `envconfig:"DB_PORT" required:"true"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	Name     string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSLMODE" required:"true"`
	MaxConns int32  `envconfig:"DB_MAX_CONNS" required:"true"`
	MinConns int32  `envconfig:"DB_MIN_CONNS" required:"true"`
}

// Validate validates the database configuration.
func (c *DatabaseConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host cannot be empty")
	}
	if c.Port == "" {
		return fmt.Errorf("port cannot be empty")
	}
	if c.User == "" {
		return fmt.Errorf("user cannot be empty")
	}
	if c.Password == "" {
		return fmt.Errorf("password cannot be empty")
	}
	if c.Name == "" {
		return fmt.Errorf("database name cannot be empty")
	}
	if c.MaxConns <= 0 {
		return fmt.Errorf("max connections must be positive")
	}
	if c.MinConns <= 0 {
		return fmt.Errorf("min connections must be positive")
	}
	if c.MinConns > c.MaxConns {
		return fmt.Errorf("min connections (%d) cannot be greater than max connections (%d)", c.MinConns, c.MaxConns)
	}

	validSSLModes := map[string]bool{
		"disable":     true,
		"require":     true,
		"verify-ca":   true,
		"verify-full": true,
	}
	if !validSSLModes[c.SSLMode] {
		return fmt.Errorf("invalid SSL mode: %s (must be one of: disable, require, verify-ca, verify-full)", c.SSLMode)
	}
	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr      string `envconfig:"REDIS_ADDR" required:"true"`
	Password  string `envconfig:"REDIS_PASSWORD"`
	DB        int    `envconfig:"REDIS_DB" default:"0"`
	KeyPrefix string `envconfig:"REDIS_KEY_PREFIX" default:"link:"`
}

// Validate validates the redis configuration.
func (c *RedisConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("address cannot be empty")
	}
	if c.DB < 0 {
		return fmt.Errorf("db index must not be negative")
	}
	if c.KeyPrefix == "" {
		return fmt.Errorf("key prefix cannot be empty")
	}
	return nil
}

// ShortenerConfig tunes code allocation.
type ShortenerConfig struct {
	CodeLength  int `envconfig:"SHORTENER_CODE_LENGTH" default:"7"`
	MaxAttempts int `envconfig:"SHORTENER_MAX_ATTEMPTS" default:"5"`
}

// Validate validates the shortener configuration.
func (c *ShortenerConfig) Validate() error {
	if c.CodeLength < 5 || c.CodeLength > 32 {
		return fmt.Errorf("code length must be between 5 and 32, got %d", c.CodeLength)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1, got %d", c.MaxAttempts)
	}
	return nil
}

// AppConfig holds application-specific configuration.
type AppConfig struct {
	Environment string `envconfig:"APP_ENV" required:"true"`   // development, staging, production, test
	LogLevel    string `envconfig:"LOG_LEVEL" required:"true"` // debug, info, warn, error
}

// Validate validates the app configuration.
func (c *AppConfig) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
		"test":        true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("invalid environment: %s (must be one of: development, staging, production, test)", c.Environment)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}
	return nil
}

// ObservabilityConfig holds configuration for tracing/metrics.
type ObservabilityConfig struct {
	Enabled           bool    `envconfig:"OTEL_ENABLED" required:"true"`
	ServiceName       string  `envconfig:"OTEL_SERVICE_NAME" default:"linkshortener"`
	ServiceVersion    string  `envconfig:"OTEL_SERVICE_VERSION" default:"dev"`
	OTelEndpoint      string  `envconfig:"OTEL_ENDPOINT"`
	OTelInsecure      bool    `envconfig:"OTEL_INSECURE"`
	TracingSampleRate float64 `envconfig:"OTEL_TRACING_SAMPLE_RATE" default:"1.0"`
	MetricsEnabled    bool    `envconfig:"METRICS_ENABLED" default:"true"`
}

// Validate validates the observability configuration.
func (c *ObservabilityConfig) Validate() error {
	if c.TracingSampleRate < 0 || c.TracingSampleRate > 1 {
		return fmt.Errorf("tracing sample rate must be between 0 and 1, got %f", c.TracingSampleRate)
	}

	// Only require these when observability is enabled.
	if c.Enabled {
		if c.ServiceName == "" {
			return fmt.Errorf("service name is required when observability is enabled")
		}
		if c.OTelEndpoint == "" {
			return fmt.Errorf("OTEL endpoint is required when observability is enabled")
		}
		if c.ServiceVersion == "" {
			return fmt.Errorf("service version is required when observability is enabled")
		}
	}

	return nil
}

type section struct {
	name     string
	spec     any
	validate func() error
}

// Load loads configuration from environment variables only.
// (Do .env loading in cmd/server/main.go for dev, not here.)
// Database and Redis settings are read only for the driver that needs them.
func Load() (*Config, error) {
	cfg := &Config{}

	sections := []section{
		{"Server", &cfg.Server, cfg.Server.Validate},
		{"Store", &cfg.Store, cfg.Store.Validate},
	}
	if err := load(sections); err != nil {
		return nil, err
	}

	switch cfg.Store.Driver {
	case DriverPostgres:
		sections = []section{{"Database", &cfg.Database, cfg.Database.Validate}}
	case DriverRedis:
		sections = []section{{"Redis", &cfg.Redis, cfg.Redis.Validate}}
	default:
		sections = nil
	}

	sections = append(sections,
		section{"Shortener", &cfg.Shortener, cfg.Shortener.Validate},
		section{"App", &cfg.App, cfg.App.Validate},
		section{"Observability", &cfg.Observability, cfg.Observability.Validate},
	)
	if err := load(sections); err != nil {
		return nil, err
	}

	return cfg, nil
}

func load(sections []section) error {
	for _, s := range sections {
		if err := envconfig.Process("", s.spec); err != nil {
			return fmt.Errorf("failed to load %s config: %w", s.name, err)
		}
		if err := s.validate(); err != nil {
			return fmt.Errorf("invalid %s config: %w", s.name, err)
		}
	}
	return nil
}
