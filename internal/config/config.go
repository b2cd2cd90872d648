package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joshua-takyi/eventhub/internal/services"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

type Config struct {
	Port                string
	Environment         string
	LogLevel            string
	StoreDriver         string
	MongoDBURI          string
	MongoDBPassword     string
	MongoDBDatabase     string
	MongoDBTransactions bool
	SupabaseURL         string
	SupabaseAnonKey     string
	JWTSecret           string
	RedisURL            string
	NotificationChannel string
	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	CORSOrigins         []string
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:                getEnvWithDefault("PORT", "8080"),
		Environment:         getEnvWithDefault("ENVIRONMENT", "development"),
		LogLevel:            getEnvWithDefault("LOG_LEVEL", "info"),
		StoreDriver:         strings.ToLower(getEnvWithDefault("STORE_DRIVER", StoreMongo)),
		MongoDBURI:          os.Getenv("MONGODB_URI"),
		MongoDBPassword:     os.Getenv("MONGODB_PASSWORD"),
		MongoDBDatabase:     os.Getenv("MONGODB_DATABASE"),
		SupabaseURL:         os.Getenv("SUPABASE_URL"),
		SupabaseAnonKey:     os.Getenv("SUPABASE_URL_ANON_KEY"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		RedisURL:            os.Getenv("REDIS_URL"),
		NotificationChannel: getEnvWithDefault("NOTIFICATION_CHANNEL", services.DefaultNotificationChannel),
		CloudinaryCloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:    os.Getenv("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret: os.Getenv("CLOUDINARY_API_SECRET"),
		CORSOrigins:         splitList(getEnvWithDefault("CORS_ORIGINS", "http://localhost:3000")),
	}

	var err error
	cfg.MongoDBTransactions, err = strconv.ParseBool(getEnvWithDefault("MONGODB_TRANSACTIONS", "false"))
	if err != nil {
		return nil, fmt.Errorf("MONGODB_TRANSACTIONS must be a boolean: %w", err)
	}

	// Validate required fields
	if cfg.SupabaseURL == "" {
		return nil, fmt.Errorf("SUPABASE_URL is required")
	}
	if cfg.SupabaseAnonKey == "" {
		return nil, fmt.Errorf("SUPABASE_URL_ANON_KEY is required")
	}
	switch cfg.StoreDriver {
	case StoreMongo:
		if cfg.MongoDBURI == "" {
			return nil, fmt.Errorf("MONGODB_URI is required")
		}
		if strings.Contains(cfg.MongoDBURI, "<password>") && cfg.MongoDBPassword == "" {
			return nil, fmt.Errorf("MONGODB_PASSWORD is required")
		}
	case StoreMemory:
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	return cfg, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) CloudinaryEnabled() bool {
	return c.CloudinaryCloudName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

// SlogLevel maps LOG_LEVEL onto slog; unknown values fall back to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
