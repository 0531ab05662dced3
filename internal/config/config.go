// Package config loads application configuration from environment variables.
//
// Configuration is read ONCE at startup and passed down explicitly — no
// package reads os.Getenv at request time. The signing key and token TTL in
// particular are held by the TokenService for the life of the process; key
// rotation requires a restart.
//
// During development, a .env file in the working directory is loaded first
// (via godotenv) so you don't have to export variables by hand. In
// production the variables come from the real environment and no .env file
// exists — that's fine, the load is skipped.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config holds every tunable of the server. The `env:"..."` struct tags are
// read by caarlos0/env — each field maps to one environment variable, with
// envDefault applied when the variable is unset.
type Config struct {
	Port   int    `env:"PORT" envDefault:"8080"`
	DBPath string `env:"DB_PATH" envDefault:"data/vault.db"`

	// JWTSecret signs session tokens (HMAC-SHA256). Required, no default —
	// a hardcoded fallback secret would make every deployment forgeable.
	// Generate one with: openssl rand -hex 32
	JWTSecret string `env:"JWT_SECRET,required"`

	// TokenTTL is how long issued tokens stay valid. There is no refresh
	// flow; after expiry the client must log in again.
	TokenTTL time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	// BcryptCost is the password hashing work factor. 0 means "use the
	// package default" (currently 12).
	BcryptCost int `env:"BCRYPT_COST"`
}

// Load reads the .env file (if present) and parses the environment into a
// Config. Returns an error if a required variable is missing or malformed.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); !os.IsNotExist(err) {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("config: loading .env file: %w", err)
		}
	}

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("config: parsing environment: %w", err)
	}

	return &cfg, nil
}
