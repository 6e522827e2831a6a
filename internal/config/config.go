package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the service.
type Config struct {
	Port        string
	Env         string
	DatabaseURL string // empty selects the volatile in-memory store
	RedisURL    string // empty disables redis-backed rate limiting
	JWTSecret   string
}

// Load reads configuration from environment variables.
// In development, it loads from a .env file if present.
// In production, it panics on missing required variables.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
	}

	if cfg.Env == "production" {
		if cfg.JWTSecret == "" {
			panic("JWT_SECRET is required in production")
		}
		if cfg.DatabaseURL == "" {
			panic("DATABASE_URL is required in production")
		}
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "worklink-dev-secret"
	}

	return cfg
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
