// Package config loads service and client configuration from the environment.
//
// A .env file in the working directory is loaded first when present; real
// environment variables always take precedence over it.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the portfolio API server configuration.
type Config struct {
	Service   ServiceConfig
	Logging   LoggingConfig
	Tracing   TracingConfig
	Profiling ProfilingConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Storage   StorageConfig
	Shutdown  ShutdownConfig
}

// ServiceConfig identifies the running service.
type ServiceConfig struct {
	Name    string `env:"SERVICE_NAME" envDefault:"portfolio-service"`
	Version string `env:"SERVICE_VERSION" envDefault:"dev"`
	Env     string `env:"ENV" envDefault:"development"`
	Port    string `env:"PORT" envDefault:"8080"`
	// CORSOrigins lists the browser origins allowed to call the API.
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`
}

type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type TracingConfig struct {
	Enabled    bool    `env:"TRACING_ENABLED" envDefault:"false"`
	Endpoint   string  `env:"OTEL_COLLECTOR_ENDPOINT" envDefault:"http://localhost:4318"`
	SampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

type ProfilingConfig struct {
	Enabled  bool   `env:"PROFILING_ENABLED" envDefault:"false"`
	Endpoint string `env:"PYROSCOPE_ENDPOINT" envDefault:"http://localhost:4040"`
}

// DatabaseConfig selects the persistence backend. Driver "memory" keeps
// everything in process and is meant for local runs and tests.
type DatabaseConfig struct {
	Driver   string `env:"DB_DRIVER" envDefault:"postgres"`
	URL      string `env:"DATABASE_URL"`
	MaxConns int32  `env:"DB_MAX_CONNS" envDefault:"10"`
}

type AuthConfig struct {
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"JWT_TTL" envDefault:"720h"`
	Issuer    string        `env:"JWT_ISSUER" envDefault:"portfolio-service"`
}

// StorageConfig configures the local object store used for uploaded images.
type StorageConfig struct {
	UploadDir     string `env:"UPLOAD_DIR" envDefault:"./uploads"`
	PublicBaseURL string `env:"UPLOAD_PUBLIC_BASE_URL" envDefault:"http://localhost:8080/uploads"`
	MaxUploadMB   int64  `env:"UPLOAD_MAX_MB" envDefault:"5"`
}

type ShutdownConfig struct {
	ReadinessDrainDelay string `env:"READINESS_DRAIN_DELAY" envDefault:"5s"`
	Timeout             string `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load reads the server configuration. It panics only when the environment
// contains values that cannot be parsed into their declared types.
func Load() *Config {
	loadDotEnv()
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		panic(fmt.Sprintf("parse env: %v", err))
	}
	return cfg
}

// Validate reports configuration that would make the service unusable.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Service.Port) == "" {
		errs = append(errs, errors.New("PORT is required"))
	}
	switch c.Database.Driver {
	case "postgres":
		if c.Database.URL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when DB_DRIVER=postgres"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver))
	}
	if len(c.Auth.JWTSecret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 16 characters"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		errs = append(errs, errors.New("OTEL_SAMPLE_RATE must be within [0, 1]"))
	}
	if c.Storage.MaxUploadMB <= 0 {
		errs = append(errs, errors.New("UPLOAD_MAX_MB must be positive"))
	}
	if _, err := time.ParseDuration(c.Shutdown.ReadinessDrainDelay); err != nil {
		errs = append(errs, fmt.Errorf("READINESS_DRAIN_DELAY: %w", err))
	}
	if _, err := time.ParseDuration(c.Shutdown.Timeout); err != nil {
		errs = append(errs, fmt.Errorf("SHUTDOWN_TIMEOUT: %w", err))
	}
	return errors.Join(errs...)
}

// GetReadinessDrainDelayDuration returns how long /ready reports shutting_down
// before the HTTP server stops accepting requests.
func (c *Config) GetReadinessDrainDelayDuration() time.Duration {
	d, err := time.ParseDuration(c.Shutdown.ReadinessDrainDelay)
	if err != nil {
		return 0
	}
	return d
}

// GetShutdownTimeoutDuration returns the graceful shutdown budget.
func (c *Config) GetShutdownTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Shutdown.Timeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// ClientConfig configures portfolioctl and any other consumer of the client SDK.
type ClientConfig struct {
	APIURL  string        `env:"PORTFOLIO_API_URL" envDefault:"http://localhost:8080/api"`
	Timeout time.Duration `env:"PORTFOLIO_TIMEOUT" envDefault:"15s"`
	// StaticToken is a diagnostic override used when no session token exists.
	StaticToken string `env:"PORTFOLIO_AUTH_TOKEN"`
	StateDB     string `env:"PORTFOLIO_STATE_DB"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"warn"`
}

// LoadClient reads the client configuration.
func LoadClient() (*ClientConfig, error) {
	loadDotEnv()
	cfg := &ClientConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if _, err := url.ParseRequestURI(cfg.APIURL); err != nil {
		return nil, fmt.Errorf("PORTFOLIO_API_URL: %w", err)
	}
	if cfg.Timeout <= 0 {
		return nil, errors.New("PORTFOLIO_TIMEOUT must be positive")
	}
	return cfg, nil
}

func loadDotEnv() {
	// Missing .env is the normal case outside local development.
	_ = godotenv.Load()
}
