package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Server    ServerConfig
	Pool      PoolConfig
	Telemetry TelemetryConfig

	// Directory is the served directory for /files/. Empty disables the route.
	Directory string
	LogLevel  slog.Level
}

type ServerConfig struct {
	Host string
	Port int
}

type PoolConfig struct {
	Workers   int
	QueueSize int
}

type TelemetryConfig struct {
	ServiceName string
	// Endpoint is the OTLP gRPC collector address. Empty disables export.
	Endpoint string
}

// Load returns the defaults overridden by environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnvOrDefault("SERVER_HOST", "127.0.0.1"),
			Port: getEnvAsIntOrDefault("PORT", 4221),
		},
		Pool: PoolConfig{
			Workers:   getEnvAsIntOrDefault("WORKERS", 4),
			QueueSize: getEnvAsIntOrDefault("QUEUE_SIZE", 64),
		},
		Telemetry: TelemetryConfig{
			ServiceName: getEnvOrDefault("OTEL_SERVICE_NAME", "codecrafters-http-server"),
			Endpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		},
		Directory: os.Getenv("SERVED_DIRECTORY"),
		LogLevel:  slog.LevelInfo,
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("config: invalid LOG_LEVEL %q: %w", level, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if strings.TrimSpace(c.Server.Host) == "" {
		return fmt.Errorf("empty host")
	}
	if c.Pool.Workers < 1 {
		return fmt.Errorf("invalid worker count: %d", c.Pool.Workers)
	}
	if c.Pool.QueueSize < 1 {
		return fmt.Errorf("invalid queue size: %d", c.Pool.QueueSize)
	}

	return nil
}

func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
