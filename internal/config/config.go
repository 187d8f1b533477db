package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

type Config struct {
	DatabaseDSN   string
	Addr          string
	Environment   string
	LogLevel      string
	EnableMetrics bool
	ImportMapping string

	AuthEnabled bool
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
	JWTExpiry   time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	config := &Config{
		DatabaseDSN:   os.Getenv("DB_DSN"),
		Addr:          getEnv("ADDR", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		EnableMetrics: getEnv("ENABLE_METRICS", "false") == "true",
		ImportMapping: getEnv("IMPORT_MAPPING", "configs/mapping/purchase_orders.yaml"),
		AuthEnabled:   getEnv("AUTH_ENABLED", "false") == "true",
		JWTSecret:     getEnv("JWT_SECRET", defaultJWTSecret),
		JWTIssuer:     getEnv("JWT_ISS", "vendor-management-api"),
		JWTAudience:   getEnv("JWT_AUD", "vendor-management-api"),
		JWTExpiry:     24 * time.Hour,
	}

	if expiryStr := os.Getenv("JWT_EXPIRY"); expiryStr != "" {
		if expiry, err := time.ParseDuration(expiryStr); err == nil {
			config.JWTExpiry = expiry
		}
	}

	return config
}

// Validate checks the settings the server cannot run without. JWT settings
// are only checked when auth is enabled.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.DatabaseDSN) == "" {
		errs = append(errs, errors.New("DB_DSN is required"))
	}
	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, errors.New("ADDR must not be empty"))
	}
	if c.AuthEnabled {
		if err := c.validateJWT(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Config) validateJWT() error {
	switch {
	case c.JWTSecret == "":
		return errors.New("JWT_SECRET is required")
	case len(c.JWTSecret) < 32:
		return fmt.Errorf("JWT_SECRET must be at least 32 characters, got %d", len(c.JWTSecret))
	case c.Environment == "production" && c.JWTSecret == defaultJWTSecret:
		return errors.New("JWT_SECRET must be changed in production")
	case c.JWTIssuer == "":
		return errors.New("JWT_ISS is required")
	case c.JWTAudience == "":
		return errors.New("JWT_AUD is required")
	case c.JWTExpiry < time.Minute:
		return fmt.Errorf("JWT_EXPIRY must be at least 1m, got %v", c.JWTExpiry)
	case c.JWTExpiry > 30*24*time.Hour:
		return fmt.Errorf("JWT_EXPIRY must be at most 720h, got %v", c.JWTExpiry)
	}
	return nil
}

// LoadAndValidate loads the configuration and validates it.
func LoadAndValidate() (*Config, error) {
	cfg := Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
