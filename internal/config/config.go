package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// HTTPConfig holds listener settings.
type HTTPConfig struct {
	Port string `yaml:"port" env:"LANCAFE_HTTP_PORT"`
}

// DatabaseConfig holds postgres settings.
type DatabaseConfig struct {
	DSN string `yaml:"dsn" env:"LANCAFE_POSTGRES_DSN"`
}

// RedisConfig holds cache backend settings.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"LANCAFE_REDIS_ADDR"`
	Password string `yaml:"password" env:"LANCAFE_REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"LANCAFE_REDIS_DB"`
	TTL      int    `yaml:"ttlSeconds" env:"LANCAFE_REDIS_TTL"`
}

// AuthConfig holds token and password hashing settings.
type AuthConfig struct {
	JWTSecret       string `yaml:"jwtSecret" env:"LANCAFE_JWT_SECRET"`
	TokenTTLMinutes int    `yaml:"tokenTtlMinutes" env:"LANCAFE_TOKEN_TTL_MINUTES"`
	BcryptCost      int    `yaml:"bcryptCost" env:"LANCAFE_BCRYPT_COST"`
}

// SessionConfig gathers the session timing constants in one place instead of
// per-call-site literals.
type SessionConfig struct {
	GraceMinutes         int   `yaml:"graceMinutes" env:"LANCAFE_SESSION_GRACE_MINUTES"`
	StartBufferSeconds   int   `yaml:"startBufferSeconds" env:"LANCAFE_SESSION_START_BUFFER_SECONDS"`
	SweepIntervalSeconds int   `yaml:"sweepIntervalSeconds" env:"LANCAFE_SESSION_SWEEP_INTERVAL_SECONDS"`
	WelcomeBonus         int64 `yaml:"welcomeBonus" env:"LANCAFE_WELCOME_BONUS"`
}

// CacheConfig selects the active-session cache backend.
type CacheConfig struct {
	Backend string `yaml:"backend" env:"LANCAFE_CACHE_BACKEND"` // memory | redis
}

// Config defines lancafe service configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	Session  SessionConfig  `yaml:"session"`
	Cache    CacheConfig    `yaml:"cache"`
}

// Load reads configuration from YAML file and environment.
func Load() (*Config, error) {
	cfg := &Config{
		HTTP: HTTPConfig{Port: "8080"},
		Redis: RedisConfig{
			Addr: "localhost:6379",
			TTL:  86400,
		},
		Auth: AuthConfig{
			TokenTTLMinutes: 720,
		},
		Session: SessionConfig{
			GraceMinutes:         5,
			StartBufferSeconds:   10,
			SweepIntervalSeconds: 30,
			WelcomeBonus:         100,
		},
		Cache: CacheConfig{Backend: "memory"},
	}

	if err := load(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return nil, errors.New("config: database dsn required")
	}
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return nil, errors.New("config: jwt secret required")
	}
	switch cfg.Cache.Backend {
	case "memory", "redis":
	default:
		return nil, fmt.Errorf("config: unknown cache backend %q", cfg.Cache.Backend)
	}
	if cfg.Cache.Backend == "redis" && strings.TrimSpace(cfg.Redis.Addr) == "" {
		return nil, errors.New("config: redis addr required for redis cache backend")
	}
	if cfg.Session.GraceMinutes < 0 || cfg.Session.StartBufferSeconds < 0 || cfg.Session.SweepIntervalSeconds < 0 || cfg.Session.WelcomeBonus < 0 {
		return nil, errors.New("config: session constants must not be negative")
	}
	return cfg, nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// GraceWindow returns the extension grace window as a duration.
func (c *Config) GraceWindow() time.Duration {
	return time.Duration(c.Session.GraceMinutes) * time.Minute
}

// StartBuffer returns the unbilled slack added to a session end time at start.
func (c *Config) StartBuffer() time.Duration {
	return time.Duration(c.Session.StartBufferSeconds) * time.Second
}

// SweepInterval returns the expiry watcher tick interval.
func (c *Config) SweepInterval() time.Duration {
	if c.Session.SweepIntervalSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Session.SweepIntervalSeconds) * time.Second
}

// TokenTTL returns JWT lifetime as a duration.
func (c *Config) TokenTTL() time.Duration {
	if c.Auth.TokenTTLMinutes <= 0 {
		return 12 * time.Hour
	}
	return time.Duration(c.Auth.TokenTTLMinutes) * time.Minute
}

// CacheTTL returns the redis cache entry lifetime.
func (c *Config) CacheTTL() time.Duration {
	if c.Redis.TTL <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Redis.TTL) * time.Second
}
