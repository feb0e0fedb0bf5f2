package config

import (
	"errors"
	"time"
)

// ErrMissingSecret is returned by FromEnv when JWT_SECRET is unset outside
// local and testing environments.
var ErrMissingSecret = errors.New("config: JWT_SECRET is required")

// Config is the resolved application configuration. It is built once at
// startup and passed to the constructors that need it.
type Config struct {
	Env  string
	Port string

	MongoURI      string
	MongoDatabase string

	JWTSecret    string
	TokenTTL     time.Duration
	CookieSecure bool

	CORSAllowedOrigins []string
	CatalogRequireAuth bool

	LogMongoCollection string
}

// FromEnv loads every source and returns the resolved Config.
func FromEnv() (*Config, error) {
	if err := Load(); err != nil {
		return nil, err
	}

	cfg := &Config{
		Env:                AppEnv(),
		Port:               AppPort(),
		MongoURI:           MongoURI(),
		MongoDatabase:      MongoDatabase(),
		JWTSecret:          JWTSecret(),
		TokenTTL:           TokenTTL(),
		CookieSecure:       CookieSecure(),
		CORSAllowedOrigins: CORSAllowedOrigins(),
		CatalogRequireAuth: CatalogRequireAuth(),
		LogMongoCollection: LogMongoCollection(),
	}

	if cfg.JWTSecret == "" {
		if !cfg.IsDevelopment() {
			return nil, ErrMissingSecret
		}
		cfg.JWTSecret = defaultJWTSecret
	}

	return cfg, nil
}

// IsDevelopment reports whether the app runs in a local or testing env.
func (c *Config) IsDevelopment() bool {
	switch c.Env {
	case "local", "dev", "development", "testing", "test":
		return true
	}
	return false
}

// IsProduction reports whether structured production defaults apply.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}
