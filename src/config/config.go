package config

import (
	"fmt"
	"os"
	"strings"

	"chart-stream/src/models"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. CHART_PORT.
const EnvPrefix = "CHART_"

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{MConfig: &models.MConfig{
		Name:      "chart-stream",
		Host:      "0.0.0.0",
		Port:      9001,
		LogLevel:  "INFO",
		LogFormat: "json",
		GrpcHost:  "0.0.0.0",
		Session: models.MSessionConfig{
			RefreshIntervalSeconds: 10,
			MaxMessagesPerSecond:   20,
			MessageBurst:           40,
			SendTimeoutSeconds:     5,
		},
		Data: models.MDataConfig{
			Provider:         "json",
			TimeValuesSource: "data/time_values.json",
			OhlcSource:       "data/ohlc.json",
			MarketMIC:        "xnys",
			RequestTimeout:   10,
			MaxRetries:       2,
		},
		Storage: models.MStorageConfig{
			DBPath: "data/chart.db",
		},
	}}
}

// -----------------------------------------------------------------------------

// NewConfig loads the YAML file at configPath on top of the defaults, applies
// CHART_* environment overrides (a .env file is honoured) and validates.
// An empty path skips the file.
func NewConfig(configPath string) (*Config, error) {
	config := Default()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
		}
		if err := yaml.Unmarshal(data, config.MConfig); err != nil {
			return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
		}
	}

	_ = godotenv.Load()
	if err := env.ParseWithOptions(config.MConfig, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("failed to parse environment overrides: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}
	switch strings.ToUpper(c.LogLevel) {
	case "", "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
	default:
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}
	if c.LogFormat != "" && c.LogFormat != "json" && c.LogFormat != "console" {
		return fmt.Errorf("invalid log format: %s (json or console)", c.LogFormat)
	}

	// Server
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}
	if c.GrpcPort != 0 && (c.GrpcPort <= 1024 || c.GrpcPort > 65535 || c.GrpcPort == c.Port) {
		return fmt.Errorf("invalid grpc port number: %d", c.GrpcPort)
	}

	for _, origin := range c.AllowedOrigins {
		if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("allowed origin %q must start with http:// or https://", origin)
		}
	}

	// Session
	if c.Session.RefreshIntervalSeconds <= 0 {
		return fmt.Errorf("refresh interval must be greater than 0")
	}
	if c.Session.MaxMessagesPerSecond < 0 {
		return fmt.Errorf("max messages per second cannot be negative")
	}
	if c.Session.MaxMessagesPerSecond > 0 && c.Session.MessageBurst <= 0 {
		c.Session.MessageBurst = int(c.Session.MaxMessagesPerSecond)
		if c.Session.MessageBurst < 1 {
			c.Session.MessageBurst = 1
		}
	}
	if c.Session.SendTimeoutSeconds <= 0 {
		return fmt.Errorf("send timeout must be greater than 0")
	}

	// Data
	switch c.Data.Provider {
	case "json":
	case "sqlite":
		if c.Storage.DBPath == "" {
			return fmt.Errorf("database path cannot be empty for sqlite")
		}
	case "postgres":
		if c.Storage.DBConnectionString == "" {
			return fmt.Errorf("database connection string cannot be empty for postgres")
		}
	default:
		return fmt.Errorf("unknown data provider: %q (json, sqlite or postgres)", c.Data.Provider)
	}
	if c.Data.TimeValuesSource == "" && c.Data.OhlcSource == "" {
		return fmt.Errorf("at least one of time_values_source and ohlc_source must be set")
	}
	if c.Data.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}
	if c.Data.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.Data.WatchFiles && c.Data.Provider != "json" {
		return fmt.Errorf("watch_files only applies to the json provider")
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
