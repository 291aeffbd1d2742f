// Package config loads process settings from the environment.
//
// A .env file in the working directory is read first when present; values
// already set in the environment win over the file. Command-line flags are
// applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all server settings
type Config struct {
	Host          string `env:"DUEL_HOST" envDefault:"localhost"`
	Port          int    `env:"DUEL_PORT" envDefault:"8080"`
	StaticDir     string `env:"DUEL_STATIC_DIR" envDefault:"static"`
	StartRedirect string `env:"DUEL_START_REDIRECT" envDefault:"/game.html"`
	PublicURL     string `env:"DUEL_PUBLIC_URL"`
	Debug         bool   `env:"DUEL_DEBUG" envDefault:"false"`

	Ngrok Ngrok
}

// Ngrok configures the optional public tunnel
type Ngrok struct {
	Enabled   bool   `env:"NGROK_ENABLED" envDefault:"false"`
	AuthToken string `env:"NGROK_AUTHTOKEN"`
	Domain    string `env:"NGROK_DOMAIN"`
}

// Load reads the given .env files (default ".env"), then parses the environment.
// Missing files are skipped.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	return Parse()
}

// Parse builds a Config from the current environment only
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values the environment parser cannot
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.StartRedirect == "" {
		return errors.New("start redirect must not be empty")
	}
	return nil
}

// Addr is the host:port the HTTP server listens on
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
