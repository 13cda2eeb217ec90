// Package config loads runtime settings from config.toml and RETAILOPS_* env vars.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App      AppConfig
	Log      LogConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Revenue  RevenueConfig
	HTTP     HTTPConfig
}

type AppConfig struct {
	Name string
	Env  string
	Port string
}

type LogConfig struct {
	Level       string
	Development bool
}

// DatabaseConfig holds PostgreSQL settings. An empty URL selects the
// in-memory store.
type DatabaseConfig struct {
	URL      string
	MaxConns int32
	MinConns int32
}

// RedisConfig holds the revenue cache backend. An empty Addr disables it.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret         string
	Issuer         string
	AccessTokenTTL time.Duration
}

type RevenueConfig struct {
	CacheTTL time.Duration
}

type HTTPConfig struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

const envPrefix = "RETAILOPS"

const devJWTSecret = "retailops-dev-secret-change-me"

var defaults = map[string]any{
	"app.name": "retailops",
	"app.env":  "development",
	"app.port": "8080",

	"log.level":       "info",
	"log.development": false,

	"database.url":       "",
	"database.max_conns": 20,
	"database.min_conns": 2,

	"redis.addr":     "",
	"redis.password": "",
	"redis.db":       0,

	"jwt.secret":           devJWTSecret,
	"jwt.issuer":           "retailops",
	"jwt.access_token_ttl": "12h",

	"revenue.cache_ttl": "5m",

	"http.read_timeout":  "15s",
	"http.write_timeout": "15s",
	"http.idle_timeout":  "60s",
}

// Load reads configuration.
//
// Priority (highest to lowest):
// 1. Environment variables with RETAILOPS_ prefix (e.g. RETAILOPS_DATABASE_URL)
// 2. config.toml in one of paths (or ".", "/app" when none are given)
// 3. Built-in defaults
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("config")
	v.SetConfigType("toml")
	if len(paths) == 0 {
		paths = []string{".", "/app"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:       v.GetString("log.level"),
			Development: v.GetBool("log.development"),
		},
		Database: DatabaseConfig{
			URL:      v.GetString("database.url"),
			MaxConns: v.GetInt32("database.max_conns"),
			MinConns: v.GetInt32("database.min_conns"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:         v.GetString("jwt.secret"),
			Issuer:         v.GetString("jwt.issuer"),
			AccessTokenTTL: v.GetDuration("jwt.access_token_ttl"),
		},
		Revenue: RevenueConfig{
			CacheTTL: v.GetDuration("revenue.cache_ttl"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:  v.GetDuration("http.read_timeout"),
			WriteTimeout: v.GetDuration("http.write_timeout"),
			IdleTimeout:  v.GetDuration("http.idle_timeout"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if c.App.Port == "" {
		return errors.New("config: app.port is required")
	}
	if c.JWT.Secret == "" {
		return errors.New("config: jwt.secret is required")
	}
	if c.IsProduction() && c.JWT.Secret == devJWTSecret {
		return errors.New("config: jwt.secret must be set in production")
	}
	if c.JWT.AccessTokenTTL <= 0 {
		return errors.New("config: jwt.access_token_ttl must be positive")
	}
	if c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("config: database.max_conns (%d) < database.min_conns (%d)",
			c.Database.MaxConns, c.Database.MinConns)
	}
	if c.Revenue.CacheTTL < 0 {
		return errors.New("config: revenue.cache_ttl must not be negative")
	}
	return nil
}

func (c *Config) IsProduction() bool { return c.App.Env == "production" }

// UseMemoryStore reports whether no database is configured.
func (c *Config) UseMemoryStore() bool { return c.Database.URL == "" }

// UseRedis reports whether the revenue cache is backed by Redis.
func (c *Config) UseRedis() bool { return c.Redis.Addr != "" }

// Addr is the HTTP listen address.
func (c *Config) Addr() string { return ":" + c.App.Port }
