package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Engine   EngineConfig
	Store    StoreConfig
	Postgres PostgresConfig
	Kuiper   KuiperConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `envconfig:"PORT" default:"8080"`
	Environment  string        `envconfig:"ENV" default:"development"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"30s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"30s"`
	IdleTimeout  time.Duration `envconfig:"IDLE_TIMEOUT" default:"60s"`
}

// EngineConfig holds alert engine tuning
type EngineConfig struct {
	EvaluationInterval time.Duration `envconfig:"EVALUATION_INTERVAL" default:"10s"`
	HistoryLimit       int           `envconfig:"HISTORY_LIMIT" default:"1000"`
	AutoStart          bool          `envconfig:"AUTO_START" default:"true"`
}

// StoreConfig selects the persistence backend for engine state
type StoreConfig struct {
	Backend  string `envconfig:"STORE_BACKEND" default:"file"` // 'file' or 'postgres'
	FilePath string `envconfig:"STORE_FILE_PATH" default:"streamguard-state.json"`
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	Host            string        `envconfig:"POSTGRES_HOST" default:"localhost"`
	Port            int           `envconfig:"POSTGRES_PORT" default:"5432"`
	User            string        `envconfig:"POSTGRES_USER" default:"streamguard"`
	Password        string        `envconfig:"POSTGRES_PASSWORD" default:"streamguard"`
	Database        string        `envconfig:"POSTGRES_DB" default:"streamguard"`
	SSLMode         string        `envconfig:"POSTGRES_SSLMODE" default:"disable"`
	MaxOpenConns    int           `envconfig:"POSTGRES_MAX_OPEN_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"POSTGRES_CONN_MAX_LIFETIME" default:"5m"`
}

// DSN returns the PostgreSQL connection string
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// URL returns the PostgreSQL connection URL used by migrations
func (c PostgresConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

// KuiperConfig holds the metric snapshot source configuration
type KuiperConfig struct {
	BaseURL string        `envconfig:"KUIPER_BASE_URL" default:"http://localhost:9081"`
	Timeout time.Duration `envconfig:"KUIPER_TIMEOUT" default:"5s"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("STREAMGUARD", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	return &cfg, nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
