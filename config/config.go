package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Server     ServerConfig     `toml:"server"`
	Database   DatabaseConfig   `toml:"database"`
	JWT        JWTConfig        `toml:"jwt"`
	OAuth      OAuthConfig      `toml:"oauth"`
	Cloudinary CloudinaryConfig `toml:"cloudinary"`
	Spotify    SpotifyConfig    `toml:"spotify"`
	Admin      AdminConfig      `toml:"admin"`
	Log        LogConfig        `toml:"log"`
	RateLimit  RateLimitConfig  `toml:"ratelimit"`
	Redis      RedisConfig      `toml:"redis"`
}

type ServerConfig struct {
	Port         string        `toml:"port"`
	Env          string        `toml:"env"`
	ReadTimeout  time.Duration `toml:"read_timeout"`
	WriteTimeout time.Duration `toml:"write_timeout"`
}

type DatabaseConfig struct {
	Driver          string        `toml:"driver"` // mysql | postgres | sqlite
	DSN             string        `toml:"dsn"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	MaxOpenConns    int           `toml:"max_open_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
}

type JWTConfig struct {
	AccessSecret  string        `toml:"access_secret"`
	RefreshSecret string        `toml:"refresh_secret"`
	AccessExpiry  time.Duration `toml:"access_expiry"`
	RefreshExpiry time.Duration `toml:"refresh_expiry"`
	Issuer        string        `toml:"issuer"`
}

type OAuthConfig struct {
	GoogleClientID     string `toml:"google_client_id"`
	GoogleClientSecret string `toml:"google_client_secret"`
	GoogleRedirectURL  string `toml:"google_redirect_url"`
}

type CloudinaryConfig struct {
	CloudName string `toml:"cloud_name"`
	APIKey    string `toml:"api_key"`
	APISecret string `toml:"api_secret"`
	Folder    string `toml:"folder"`
}

// SpotifyConfig enables catalog lookups for approved releases. Empty client id disables it.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// AdminConfig holds the admin allow-list. Matching is case-insensitive.
type AdminConfig struct {
	Emails []string `toml:"emails"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // auto | json | text
}

type RateLimitConfig struct {
	Requests int           `toml:"requests"`
	Window   time.Duration `toml:"window"`
}

// RedisConfig switches rate limiting to a shared Redis window when Addr is set.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// Load returns defaults overlaid with the TOML file named by MELODIST_CONFIG (if any)
// and then MELODIST_* environment variables.
func Load() (*Config, error) {
	cfg := Default()
	if path := os.Getenv("MELODIST_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8099",
			Env:          "development",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:          "mysql",
			DSN:             "melodist:melodist@tcp(localhost:3306)/melodist?charset=utf8mb4&parseTime=True&loc=Local",
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			AccessSecret:  "change-me-in-production",
			RefreshSecret: "change-me-refresh",
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: 168 * time.Hour,
			Issuer:        "melodist",
		},
		Cloudinary: CloudinaryConfig{
			Folder: "melodist",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
		RateLimit: RateLimitConfig{
			Requests: 100,
			Window:   60 * time.Second,
		},
	}
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	setString := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	setString("MELODIST_PORT", &c.Server.Port)
	setString("MELODIST_ENV", &c.Server.Env)
	setString("MELODIST_DB_DRIVER", &c.Database.Driver)
	setString("MELODIST_DB_DSN", &c.Database.DSN)
	setString("MELODIST_JWT_ACCESS_SECRET", &c.JWT.AccessSecret)
	setString("MELODIST_JWT_REFRESH_SECRET", &c.JWT.RefreshSecret)
	setString("MELODIST_GOOGLE_CLIENT_ID", &c.OAuth.GoogleClientID)
	setString("MELODIST_GOOGLE_CLIENT_SECRET", &c.OAuth.GoogleClientSecret)
	setString("MELODIST_GOOGLE_REDIRECT_URL", &c.OAuth.GoogleRedirectURL)
	setString("MELODIST_CLOUDINARY_CLOUD_NAME", &c.Cloudinary.CloudName)
	setString("MELODIST_CLOUDINARY_API_KEY", &c.Cloudinary.APIKey)
	setString("MELODIST_CLOUDINARY_API_SECRET", &c.Cloudinary.APISecret)
	setString("MELODIST_SPOTIFY_CLIENT_ID", &c.Spotify.ClientID)
	setString("MELODIST_SPOTIFY_CLIENT_SECRET", &c.Spotify.ClientSecret)
	setString("MELODIST_LOG_LEVEL", &c.Log.Level)
	setString("MELODIST_LOG_FORMAT", &c.Log.Format)
	setString("MELODIST_REDIS_ADDR", &c.Redis.Addr)
	setString("MELODIST_REDIS_PASSWORD", &c.Redis.Password)
	if v := getenv("MELODIST_ADMIN_EMAILS"); v != "" {
		c.Admin.Emails = splitList(v)
	}
	if v := getenv("MELODIST_RATELIMIT_REQUESTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RateLimit.Requests = n
		}
	}
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver: unsupported value %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.Server.Env == "production" && c.JWT.AccessSecret == Default().JWT.AccessSecret {
		return fmt.Errorf("jwt.access_secret must be set in production")
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
