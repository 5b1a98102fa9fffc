package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Outbox    OutboxConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port int
	Env  string
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	Schema   string
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RateLimitConfig holds rate limiting settings
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerWindow int
	WindowSeconds     int
}

// OutboxConfig holds outbox worker settings
type OutboxConfig struct {
	PollInterval time.Duration
	BatchSize    int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.env", "development")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.database", "stockledger")
	v.SetDefault("database.schema", "public")

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Rate limit defaults
	v.SetDefault("ratelimit.enabled", false)
	v.SetDefault("ratelimit.requests_per_window", 100)
	v.SetDefault("ratelimit.window_seconds", 60)

	// Outbox defaults
	v.SetDefault("outbox.poll_interval", "2s")
	v.SetDefault("outbox.batch_size", 50)

	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetInt("server.port"),
			Env:  v.GetString("server.env"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("database.host"),
			Port:     v.GetInt("database.port"),
			User:     v.GetString("database.user"),
			Password: v.GetString("database.password"),
			Database: v.GetString("database.database"),
			Schema:   v.GetString("database.schema"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		RateLimit: RateLimitConfig{
			Enabled:           v.GetBool("ratelimit.enabled"),
			RequestsPerWindow: v.GetInt("ratelimit.requests_per_window"),
			WindowSeconds:     v.GetInt("ratelimit.window_seconds"),
		},
		Outbox: OutboxConfig{
			PollInterval: v.GetDuration("outbox.poll_interval"),
			BatchSize:    v.GetInt("outbox.batch_size"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Outbox.BatchSize <= 0 {
		return fmt.Errorf("outbox batch size must be positive: %d", c.Outbox.BatchSize)
	}
	if c.Outbox.PollInterval <= 0 {
		return fmt.Errorf("outbox poll interval must be positive: %s", c.Outbox.PollInterval)
	}
	return nil
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s search_path=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Database, c.Schema,
	)
}

// IsDevelopment reports whether the server runs in development mode
func (c *ServerConfig) IsDevelopment() bool {
	return c.Env == "development"
}
