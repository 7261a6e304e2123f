package config

import (
	"log"
	"os"

	"github.com/subosito/gotenv"
)

const (
	defaultDBPath = "./dev.db"
	defaultPort   = "8080"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	Env            string
	AdminEmail     string
	AdminPassword  string
	SessionSecret  string
	DBPath         string
	Port           string
	MetricsEnabled bool
}

// Load reads environment variables and returns a populated Config.
func Load() Config {
	// Best-effort: gotenv skips a missing .env and never overwrites
	// variables that are already set; production uses real env injection.
	_ = gotenv.Load()

	cfg := Config{
		Env:            os.Getenv("APP_ENV"),
		AdminEmail:     os.Getenv("ADMIN_EMAIL"),
		AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
		SessionSecret:  os.Getenv("SESSION_SECRET"),
		DBPath:         os.Getenv("DB_PATH"),
		Port:           os.Getenv("PORT"),
		MetricsEnabled: os.Getenv("METRICS_ENABLED") == "1",
	}

	if cfg.Env == "" {
		cfg.Env = "dev"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath
	}
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}

	if cfg.AdminEmail == "" {
		log.Print("warning: ADMIN_EMAIL is not set")
	}
	if cfg.AdminPassword == "" {
		log.Print("warning: ADMIN_PASSWORD is not set")
	}
	if cfg.SessionSecret == "" {
		log.Print("warning: SESSION_SECRET is not set")
	}

	return cfg
}

// IsDev reports whether the process runs in development mode.
// Migrations are applied on startup only then.
func (c Config) IsDev() bool {
	return c.Env != "production"
}
