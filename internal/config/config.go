package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Gateway backends
const (
	BackendREST     = "rest"
	BackendPostgres = "postgres"
)

// AppConfig holds the complete configuration for the service
type AppConfig struct {
	Environment string         `mapstructure:"environment"`
	LogLevel    string         `mapstructure:"log_level"`
	ServiceName string         `mapstructure:"service_name"`
	Server      ServerConfig   `mapstructure:"server"`
	Gateway     GatewayConfig  `mapstructure:"gateway"`
	Postgres    PostgresConfig `mapstructure:"postgres"`
	Redis       RedisConfig    `mapstructure:"redis"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr        string   `mapstructure:"addr"`
	Title       string   `mapstructure:"title"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// GatewayConfig selects and configures the players collection backend
type GatewayConfig struct {
	Backend    string        `mapstructure:"backend"`
	URL        string        `mapstructure:"url"`
	Key        string        `mapstructure:"key"`
	Collection string        `mapstructure:"collection"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// PostgresConfig holds direct database connection settings
type PostgresConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RedisConfig holds the roster change stream settings.
// An empty URL disables cross-instance fan-out. ConsumerID names this
// instance; it defaults to the hostname.
type RedisConfig struct {
	URL           string `mapstructure:"url"`
	Stream        string `mapstructure:"stream"`
	ConsumerGroup string `mapstructure:"consumer_group"`
	ConsumerID    string `mapstructure:"consumer_id"`
}

// Enabled reports whether a Redis URL is configured
func (r RedisConfig) Enabled() bool {
	return r.URL != ""
}

// Load loads configuration from an optional file and environment variables
func Load(path string) (*AppConfig, error) {
	v := viper.New()

	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("service_name", "batting-dashboard")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.title", "Batting Dashboard")
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("gateway.backend", BackendREST)
	v.SetDefault("gateway.collection", "players")
	v.SetDefault("gateway.timeout", 10*time.Second)
	v.SetDefault("postgres.max_open_conns", 25)
	v.SetDefault("postgres.max_idle_conns", 5)
	v.SetDefault("postgres.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("redis.stream", "players.changes")
	v.SetDefault("redis.consumer_group", "batting-dashboard")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	// Explicit bindings so Unmarshal sees env-only values for nested keys
	v.BindEnv("environment", "ENVIRONMENT")
	v.BindEnv("log_level", "LOG_LEVEL")
	v.BindEnv("service_name", "SERVICE_NAME")
	v.BindEnv("server.addr", "SERVER_ADDR")
	v.BindEnv("server.title", "DASHBOARD_TITLE")
	v.BindEnv("server.cors_origins", "CORS_ORIGINS")
	v.BindEnv("gateway.backend", "GATEWAY_BACKEND")
	v.BindEnv("gateway.url", "GATEWAY_URL")
	v.BindEnv("gateway.key", "GATEWAY_KEY")
	v.BindEnv("gateway.collection", "GATEWAY_COLLECTION")
	v.BindEnv("gateway.timeout", "GATEWAY_TIMEOUT")
	v.BindEnv("postgres.dsn", "POSTGRES_DSN")
	v.BindEnv("postgres.max_open_conns", "POSTGRES_MAX_OPEN_CONNS")
	v.BindEnv("postgres.max_idle_conns", "POSTGRES_MAX_IDLE_CONNS")
	v.BindEnv("redis.url", "REDIS_URL")
	v.BindEnv("redis.stream", "REDIS_STREAM")
	v.BindEnv("redis.consumer_group", "REDIS_CONSUMER_GROUP")
	v.BindEnv("redis.consumer_id", "REDIS_CONSUMER_ID")

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// CORS_ORIGINS arrives as a single comma-separated string from env
	cfg.Server.CORSOrigins = splitList(strings.Join(cfg.Server.CORSOrigins, ","))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks if the configuration is usable
func (c *AppConfig) Validate() error {
	if c.ServiceName == "" {
		return errors.New("service_name is required")
	}
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if c.Gateway.Collection == "" {
		return errors.New("gateway.collection is required")
	}

	switch c.Gateway.Backend {
	case BackendREST:
		if c.Gateway.URL == "" {
			return errors.New("gateway.url is required for the rest backend")
		}
	case BackendPostgres:
		if c.Postgres.DSN == "" {
			return errors.New("postgres.dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("gateway.backend must be %q or %q, got %q", BackendREST, BackendPostgres, c.Gateway.Backend)
	}

	if c.Redis.Enabled() && c.Redis.Stream == "" {
		return errors.New("redis.stream is required when redis.url is set")
	}
	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
