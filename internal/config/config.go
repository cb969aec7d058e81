// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/evcraddock/shepherd/internal/db"
)

// DefaultPort is the HTTP port used when SHEP_PORT is unset.
const DefaultPort = 8080

// Config holds the settings for `shep serve` and the local database.
type Config struct {
	DBDriver string
	DBDSN    string
	Port     int
	Dev      bool
}

// Load reads an optional .env file from the working directory and then the
// SHEP_* environment variables. Real environment variables win over .env.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	} else {
		slog.Debug("loaded .env file")
	}
	return FromEnv()
}

// FromEnv builds a Config from the environment alone.
func FromEnv() (Config, error) {
	cfg := Config{
		DBDriver: strings.TrimSpace(os.Getenv("SHEP_DB_DRIVER")),
		DBDSN:    strings.TrimSpace(os.Getenv("SHEP_DB_DSN")),
		Port:     DefaultPort,
	}

	if cfg.DBDriver == "" {
		cfg.DBDriver = db.DriverSQLite
	}
	if cfg.DBDriver != db.DriverSQLite && cfg.DBDriver != db.DriverPostgres {
		return Config{}, fmt.Errorf("SHEP_DB_DRIVER: unsupported driver %q", cfg.DBDriver)
	}

	if cfg.DBDSN == "" && cfg.DBDriver == db.DriverPostgres {
		cfg.DBDSN = os.Getenv("DATABASE_URL")
	}
	if cfg.DBDSN == "" && cfg.DBDriver == db.DriverSQLite {
		p, err := db.DefaultPath()
		if err != nil {
			return Config{}, err
		}
		cfg.DBDSN = p
	}
	if cfg.DBDSN == "" {
		return Config{}, fmt.Errorf("SHEP_DB_DSN or DATABASE_URL is required for %s", cfg.DBDriver)
	}

	if v := os.Getenv("SHEP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return Config{}, fmt.Errorf("SHEP_PORT: invalid port %q", v)
		}
		cfg.Port = port
	}

	if v := os.Getenv("SHEP_DEV"); v != "" {
		dev, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("SHEP_DEV: %w", err)
		}
		cfg.Dev = dev
	}

	return cfg, nil
}

// Addr returns the listen address for Port.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
