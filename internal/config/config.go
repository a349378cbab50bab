package config

import (
	"fmt"
	"os"
	"time"

	"github.com/banghwa/staffboard/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	Keycloak  KeycloakConfig
	JWT       JWTConfig
	Admin     AdminConfig
	RateLimit RateLimitConfig
	MinIO     MinIOConfig
	Export    ExportConfig
	Menu      MenuConfig
	Calendar  CalendarConfig
	LogLevel  string
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// MongoDBConfig: an empty URI selects the in-memory store.
type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
	Attempts int
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	// Channel carries change notifications between instances.
	Channel string
}

func (r RedisConfig) Addr() string { return r.Host + ":" + r.Port }

type KeycloakConfig struct {
	URL          string
	Realm        string
	ClientID     string
	ClientSecret string
	// AdminRole grants the admin capability to OIDC tokens carrying it.
	AdminRole string
}

type JWTConfig struct {
	Secret          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

type AdminConfig struct {
	// PasswordHash is an encoded argon2id hash, see `boardctl hash-password`.
	PasswordHash string
	TokenTTL     time.Duration
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

type ExportConfig struct {
	// Cron is a robfig/cron spec; empty disables scheduled publishing.
	Cron      string
	ObjectKey string
	URLExpiry time.Duration
}

type MenuConfig struct {
	File string
}

type CalendarConfig struct {
	Timezone string
}

// Location resolves the configured timezone, falling back to UTC.
func (c CalendarConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		logger.Warnf("unknown CALENDAR_TIMEZONE %q, using UTC", c.Timezone)
		return time.UTC
	}
	return loc
}

// LoadConfig loads configuration from environment variables and an optional
// .env file (STAFFBOARD_ENV_FILE, default ".env").
func LoadConfig() (*Config, error) {
	envFile := os.Getenv("STAFFBOARD_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	_ = godotenv.Load(envFile)

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "5001")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_ENVIRONMENT", "development")
	v.SetDefault("MONGODB_DATABASE", "staffboard")
	v.SetDefault("MONGODB_TIMEOUT", 10)
	v.SetDefault("MONGODB_CONNECT_ATTEMPTS", 5)
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_CHANNEL", "staffboard:changes")
	v.SetDefault("KEYCLOAK_ADMIN_ROLE", "staffboard-admin")
	v.SetDefault("JWT_ACCESS_TOKEN_TTL", 15)
	v.SetDefault("JWT_REFRESH_TOKEN_TTL", 10080)
	v.SetDefault("ADMIN_TOKEN_TTL", 60)
	v.SetDefault("RATE_LIMIT_ENABLED", false)
	v.SetDefault("RATE_LIMIT_USE_REDIS", false)
	v.SetDefault("RATE_LIMIT_RPS", 10)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)
	v.SetDefault("MINIO_BUCKET", "staffboard")
	v.SetDefault("EXPORT_OBJECT_KEY", "calendar/schedules.ics")
	v.SetDefault("EXPORT_URL_EXPIRY", 1440)
	v.SetDefault("CALENDAR_TIMEZONE", "Asia/Seoul")
	v.SetDefault("LOG_LEVEL", "info")

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("SERVER_PORT"),
			Host:         v.GetString("SERVER_HOST"),
			Environment:  v.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:      v.GetString("MONGODB_URI"),
			Database: v.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(v.GetInt("MONGODB_TIMEOUT")) * time.Second,
			Attempts: v.GetInt("MONGODB_CONNECT_ATTEMPTS"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			Channel:  v.GetString("REDIS_CHANNEL"),
		},
		Keycloak: KeycloakConfig{
			URL:          v.GetString("KEYCLOAK_URL"),
			Realm:        v.GetString("KEYCLOAK_REALM"),
			ClientID:     v.GetString("KEYCLOAK_CLIENT_ID"),
			ClientSecret: v.GetString("KEYCLOAK_CLIENT_SECRET"),
			AdminRole:    v.GetString("KEYCLOAK_ADMIN_ROLE"),
		},
		JWT: JWTConfig{
			Secret:          os.Getenv("JWT_SECRET"),
			AccessTokenTTL:  time.Duration(v.GetInt("JWT_ACCESS_TOKEN_TTL")) * time.Minute,
			RefreshTokenTTL: time.Duration(v.GetInt("JWT_REFRESH_TOKEN_TTL")) * time.Minute,
		},
		Admin: AdminConfig{
			PasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
			TokenTTL:     time.Duration(v.GetInt("ADMIN_TOKEN_TTL")) * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Enabled:       v.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      v.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         v.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		MinIO: MinIOConfig{
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
			Bucket:    v.GetString("MINIO_BUCKET"),
		},
		Export: ExportConfig{
			Cron:      v.GetString("EXPORT_CRON"),
			ObjectKey: v.GetString("EXPORT_OBJECT_KEY"),
			URLExpiry: time.Duration(v.GetInt("EXPORT_URL_EXPIRY")) * time.Minute,
		},
		Menu:     MenuConfig{File: v.GetString("MENU_FILE")},
		Calendar: CalendarConfig{Timezone: v.GetString("CALENDAR_TIMEZONE")},
		LogLevel: v.GetString("LOG_LEVEL"),
	}

	if cfg.Server.Port == "" {
		return nil, fmt.Errorf("SERVER_PORT must not be empty")
	}
	if cfg.RateLimit.Enabled && cfg.RateLimit.RPS <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_RPS must be positive when rate limiting is enabled")
	}

	// Basic validation
	if cfg.JWT.Secret == "" {
		logger.Warn("JWT_SECRET is not set; set a secure value in production")
	}
	if cfg.Admin.PasswordHash == "" {
		logger.Warn("ADMIN_PASSWORD_HASH is not set; password admin login is disabled")
	}
	if cfg.MongoDB.URI == "" {
		logger.Warn("MONGODB_URI is not set; using the in-memory store (data is lost on restart)")
	}

	return cfg, nil
}
