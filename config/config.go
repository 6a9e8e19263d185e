// Package config loads runtime configuration from the environment.
package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is populated from PURCHASING_-prefixed environment variables.
// A .env file is honored in development.
type Config struct {
	HTTPAddr       string   `envconfig:"HTTP_ADDR" default:":8000"`
	DatabaseDSN    string   `envconfig:"DATABASE_DSN" required:"true"`
	JWTSecret      string   `envconfig:"JWT_SECRET" required:"true"`
	JWTTTLHours    int      `envconfig:"JWT_TTL_HOURS" default:"24"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
	LogLevel       string   `envconfig:"LOG_LEVEL" default:"info"`

	// Optional idempotent admin seed, applied at startup when both are
	// set and no such account exists yet.
	AdminEmail    string `envconfig:"ADMIN_EMAIL"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD"`
}

// Load reads .env (when present) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("purchasing", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
