package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Auth modes
const (
	AuthModeRemote = "remote"
	AuthModeLocal  = "local"
)

type Config struct {
	Server       ServerConfig
	Log          LogConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Auth         AuthConfig
	LocalStorage LocalStorageConfig
	Security     SecurityConfig
	RateLimit    RateLimitConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type LogConfig struct {
	Level string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Schema   string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr returns host:port
func (c RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

type JWTConfig struct {
	Secret        string
	AccessExpiry  int // in minutes
	RefreshExpiry int // in days
}

type AuthConfig struct {
	Mode          string
	RemoteTimeout time.Duration
}

type LocalStorageConfig struct {
	Driver string
	Path   string
	Prefix string
}

type SecurityConfig struct {
	SessionKey     []byte
	CSRFKey        []byte
	CookieSecure   bool
	AllowedOrigins []string
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// IsProduction reports whether the service runs with SERVER_ENV=production
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Load reads the configuration from the environment, after loading an
// optional .env file from the working directory
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not read .env file: %v", err)
	}

	v := viper.New()
	v.AutomaticEnv()

	// Set defaults
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SCHEMA", "public")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("JWT_ACCESS_EXPIRY", 15)
	v.SetDefault("JWT_REFRESH_EXPIRY", 7)
	v.SetDefault("AUTH_MODE", AuthModeRemote)
	v.SetDefault("REMOTE_TIMEOUT", 10)
	v.SetDefault("LOCAL_STORAGE_DRIVER", "badger")
	v.SetDefault("LOCAL_STORAGE_PATH", "data/local")
	v.SetDefault("LOCAL_STORAGE_PREFIX", "tanepro")
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_REQUESTS", 10)
	v.SetDefault("RATE_LIMIT_WINDOW", 60)

	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetString("SERVER_PORT"),
			Env:  v.GetString("SERVER_ENV"),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Database: v.GetString("DB_DATABASE"),
			Schema:   v.GetString("DB_SCHEMA"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:        v.GetString("JWT_SECRET"),
			AccessExpiry:  v.GetInt("JWT_ACCESS_EXPIRY"),
			RefreshExpiry: v.GetInt("JWT_REFRESH_EXPIRY"),
		},
		Auth: AuthConfig{
			Mode:          strings.ToLower(v.GetString("AUTH_MODE")),
			RemoteTimeout: time.Duration(v.GetInt("REMOTE_TIMEOUT")) * time.Second,
		},
		LocalStorage: LocalStorageConfig{
			Driver: v.GetString("LOCAL_STORAGE_DRIVER"),
			Path:   v.GetString("LOCAL_STORAGE_PATH"),
			Prefix: v.GetString("LOCAL_STORAGE_PREFIX"),
		},
		Security: SecurityConfig{
			CookieSecure:   v.GetBool("COOKIE_SECURE"),
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		RateLimit: RateLimitConfig{
			Requests: v.GetInt("RATE_LIMIT_REQUESTS"),
			Window:   time.Duration(v.GetInt("RATE_LIMIT_WINDOW")) * time.Second,
		},
	}

	if cfg.Auth.Mode != AuthModeRemote && cfg.Auth.Mode != AuthModeLocal {
		return nil, fmt.Errorf("invalid AUTH_MODE %q: must be %s or %s", cfg.Auth.Mode, AuthModeRemote, AuthModeLocal)
	}

	var err error
	if cfg.Security.SessionKey, err = secretKey(cfg, "SESSION_KEY", v.GetString("SESSION_KEY")); err != nil {
		return nil, err
	}
	if cfg.Security.CSRFKey, err = secretKey(cfg, "CSRF_KEY", v.GetString("CSRF_KEY")); err != nil {
		return nil, err
	}
	if cfg.Auth.Mode == AuthModeRemote && cfg.JWT.Secret == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("JWT_SECRET is required in production")
		}
		cfg.JWT.Secret = "development-secret"
		log.Printf("Warning: JWT_SECRET not set, using a development secret")
	}

	return cfg, nil
}

// secretKey decodes a 32-byte hex key. Development runs get a random key
// when none is configured; sessions then do not survive a restart.
func secretKey(cfg *Config, name, value string) ([]byte, error) {
	if value != "" {
		key, err := hex.DecodeString(value)
		if err != nil || len(key) != 32 {
			return nil, fmt.Errorf("%s must be 64 hex characters", name)
		}
		return key, nil
	}
	if cfg.IsProduction() {
		return nil, fmt.Errorf("%s is required in production", name)
	}

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate %s: %w", name, err)
	}
	log.Printf("Warning: %s not set, generated a random key", name)
	return key, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
