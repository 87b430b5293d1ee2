package config

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Config holds every externally supplied value the server needs. Absence of
// the image-host block degrades upload signing only; the server still boots.
type Config struct {
	Port      string `env:"PORT, default=8080"`
	Env       string `env:"ENV, default=development"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`

	JWTSecret  string        `env:"JWT_SECRET"`
	AccessTTL  time.Duration `env:"ACCESS_TOKEN_TTL, default=24h"`
	RefreshTTL time.Duration `env:"REFRESH_TOKEN_TTL, default=168h"`

	CORSOrigins []string `env:"CORS_ORIGINS, default=http://localhost:5173"`

	AuditRetentionDays int `env:"AUDIT_RETENTION_DAYS, default=90"`

	DB         DBConfig
	Redis      RedisConfig
	Cloudinary CloudinaryConfig
}

type DBConfig struct {
	Host     string `env:"DB_HOST, default=localhost"`
	Port     string `env:"DB_PORT, default=5432"`
	User     string `env:"DB_USER, default=postgres"`
	Password string `env:"DB_PASSWORD, default=postgres"`
	Name     string `env:"DB_NAME, default=shopadmin"`
	SSLMode  string `env:"DB_SSLMODE, default=disable"`
}

// DSN renders the postgres connection string.
func (d DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
}

// CloudinaryConfig carries the image-host credentials used to sign direct
// browser uploads.
type CloudinaryConfig struct {
	CloudName string `env:"CLOUDINARY_CLOUD_NAME"`
	APIKey    string `env:"CLOUDINARY_API_KEY"`
	APISecret string `env:"CLOUDINARY_API_SECRET"`
}

// Configured reports whether upload signing is usable.
func (c CloudinaryConfig) Configured() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

// Load reads configs/.env when present, then resolves the configuration from
// environment variables.
func Load(ctx context.Context) (*Config, error) {
	_ = godotenv.Load("configs/.env")

	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if cfg.JWTSecret == "" {
		if cfg.Env == "production" {
			return nil, fmt.Errorf("JWT_SECRET is required in production")
		}
		cfg.JWTSecret = "dev-only-insecure-secret"
	}

	return &cfg, nil
}
