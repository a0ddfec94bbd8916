package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Events backends
const (
	EventsBackendMemory = "memory"
	EventsBackendRedis  = "redis"
)

// Config holds all configuration for the Seismo Cardio API
type Config struct {
	// Server configuration
	HTTPHost     string `env:"SEISMO_HTTP_HOST" envDefault:"0.0.0.0"`
	HTTPPort     int    `env:"SEISMO_HTTP_PORT" envDefault:"8080"`
	APIVersion   string `env:"SEISMO_API_VERSION" envDefault:"1.0.0"`
	MaxBodyBytes int64  `env:"SEISMO_MAX_BODY_BYTES" envDefault:"10485760"` // 10 MiB
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`

	// Optional surfaces
	MetricsEnabled bool `env:"SEISMO_METRICS_ENABLED" envDefault:"true"`
	StreamEnabled  bool `env:"SEISMO_STREAM_ENABLED" envDefault:"true"`

	// CORS configuration
	CORS CORSConfig

	// Event fan-out configuration
	Events EventsConfig

	// Redis configuration
	Redis RedisConfig

	// gRPC health server
	GRPC GRPCConfig

	// Timeouts
	Timeouts TimeoutConfig
}

// CORSConfig holds cross-origin policy. A single "*" allows any origin.
type CORSConfig struct {
	AllowedOrigins []string `env:"SEISMO_CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// EventsConfig selects the event bus implementation
type EventsConfig struct {
	Backend string `env:"SEISMO_EVENTS_BACKEND" envDefault:"memory"`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASS"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`

	// Connection pool settings
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	MaxRetries   int           `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// GRPCConfig holds gRPC health server configuration
type GRPCConfig struct {
	Enabled bool `env:"SEISMO_GRPC_ENABLED" envDefault:"false"`
	Port    int  `env:"SEISMO_GRPC_PORT" envDefault:"9090"`
}

// TimeoutConfig holds server lifecycle timeouts
type TimeoutConfig struct {
	ShutdownTimeout   time.Duration `env:"TIMEOUT_SHUTDOWN" envDefault:"30s"`
	ReadHeaderTimeout time.Duration `env:"TIMEOUT_READ_HEADER" envDefault:"10s"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server ports
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.GRPC.Enabled && (c.GRPC.Port < 1 || c.GRPC.Port > 65535) {
		return fmt.Errorf("invalid gRPC port: %d", c.GRPC.Port)
	}
	if c.GRPC.Enabled && c.GRPC.Port == c.HTTPPort {
		return fmt.Errorf("gRPC port %d collides with HTTP port", c.GRPC.Port)
	}

	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("max body bytes must be positive, got %d", c.MaxBodyBytes)
	}

	if len(c.CORS.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one CORS origin is required")
	}
	for _, o := range c.CORS.AllowedOrigins {
		if o != "*" && !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			return fmt.Errorf("invalid CORS origin: %q (must be * or start with http:// or https://)", o)
		}
	}

	// Validate events config
	switch c.Events.Backend {
	case EventsBackendMemory:
	case EventsBackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis address is required for the redis events backend")
		}
	default:
		return fmt.Errorf("unsupported events backend: %s (must be memory or redis)", c.Events.Backend)
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// AnyOrigin reports whether an origin list leaves cross-origin access
// unrestricted. An empty list or a "*" entry allows any origin.
func AnyOrigin(origins []string) bool {
	if len(origins) == 0 {
		return true
	}
	for _, o := range origins {
		if strings.TrimSpace(o) == "*" {
			return true
		}
	}
	return false
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return net.JoinHostPort(c.HTTPHost, strconv.Itoa(c.HTTPPort))
}

// GetGRPCAddr returns the gRPC server address
func (c *Config) GetGRPCAddr() string {
	return net.JoinHostPort(c.HTTPHost, strconv.Itoa(c.GRPC.Port))
}
