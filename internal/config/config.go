// Package config loads application configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var ErrMissingEnvironmentVariables = errors.New("missing required environment variables")

// Config holds every knob described in the external interfaces of the
// notification scheduler.
type Config struct {
	TelegramAPIToken   string
	DatabaseURL        string
	RedisURL           string
	WebhookSecret      string
	WebhookBaseURL     string
	LogLevel           string        `mapstructure:"log_level"`
	DispatchWindow     time.Duration `mapstructure:"dispatch_window"`
	Workers            int           `mapstructure:"workers"`
	HTTPAddr           string        `mapstructure:"http_addr"`
	DBMaxConns         int32         `mapstructure:"db_max_conns"`
	DBConnLifetime     time.Duration `mapstructure:"db_conn_lifetime"`
}

// Load reads a local .env file (if present), then binds the flat
// environment variables from §6 of the spec, applying defaults.
func Load() (*Config, error) {
	_ = godotenv.Load() // optional in containerized deployments

	v := viper.New()
	v.SetEnvKeyReplacer(nil)
	v.AutomaticEnv()

	v.SetDefault("log_level", "INFO")
	v.SetDefault("dispatch_window_minutes", 10)
	v.SetDefault("workers", 4)
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("db_max_conns", 10)
	v.SetDefault("db_conn_lifetime_minutes", 60)

	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	dbURL := os.Getenv("DATABASE_URL")
	redisURL := os.Getenv("REDIS_URL")

	if token == "" || dbURL == "" || redisURL == "" {
		return nil, ErrMissingEnvironmentVariables
	}

	window := v.GetInt("dispatch_window_minutes")
	if window < 1 {
		window = 1
	}

	workers := v.GetInt("workers")
	if workers < 1 {
		workers = 1
	}

	dbMaxConns := v.GetInt("db_max_conns")
	if dbMaxConns < 1 {
		dbMaxConns = 1
	}
	dbConnLifetime := v.GetInt("db_conn_lifetime_minutes")
	if dbConnLifetime < 1 {
		dbConnLifetime = 1
	}

	cfg := &Config{
		TelegramAPIToken: token,
		DatabaseURL:      dbURL,
		RedisURL:         redisURL,
		WebhookSecret:    os.Getenv("WEBHOOK_SECRET"),
		WebhookBaseURL:   os.Getenv("WEBHOOK_BASE_URL"),
		LogLevel:         envOrDefault("LOG_LEVEL", "INFO"),
		DispatchWindow:   time.Duration(window) * time.Minute,
		Workers:          workers,
		HTTPAddr:         envOrDefault("HTTP_ADDR", ":8080"),
		DBMaxConns:       int32(dbMaxConns),
		DBConnLifetime:   time.Duration(dbConnLifetime) * time.Minute,
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// DSN validates and returns the database URL; kept as a method so callers
// match the teacher's `cfg.DB.DSN()` calling convention.
func (c *Config) DSN() (string, error) {
	if c.DatabaseURL == "" {
		return "", fmt.Errorf("database url is empty")
	}
	return c.DatabaseURL, nil
}
