// Package config loads server settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Port          int
	DBDriver      string // sqlite or postgres
	DBPath        string // sqlite file, or ":memory:"
	DatabaseURL   string // postgres connection string
	RedisURL      string // empty disables the token cache
	TokenCacheTTL time.Duration
	BcryptCost    int
	LogLevel      slog.Level
	LogFormat     string // text or json
	CORSOrigins   []string
}

func Default() Config {
	return Config{
		Port:          8080,
		DBDriver:      DriverSQLite,
		DBPath:        "data/chess.db",
		TokenCacheTTL: 30 * time.Second,
		BcryptCost:    12,
		LogLevel:      slog.LevelInfo,
		LogFormat:     "text",
		CORSOrigins:   []string{"*"},
	}
}

// LoadDotEnv loads variables from path if the file exists. Variables already
// set in the environment win.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

// Load starts from Default and applies environment overrides. Unset or empty
// variables keep the default; malformed ones are an error.
func Load() (Config, error) {
	cfg := Default()

	if raw := os.Getenv("PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port <= 0 || port > 65535 {
			return cfg, fmt.Errorf("config: invalid PORT %q", raw)
		}
		cfg.Port = port
	}
	if raw := os.Getenv("DB_DRIVER"); raw != "" {
		switch d := strings.ToLower(raw); d {
		case DriverSQLite, DriverPostgres:
			cfg.DBDriver = d
		default:
			return cfg, fmt.Errorf("config: DB_DRIVER must be %q or %q, got %q", DriverSQLite, DriverPostgres, raw)
		}
	}
	if raw := os.Getenv("DB_PATH"); raw != "" {
		cfg.DBPath = raw
	}
	if raw := os.Getenv("DATABASE_URL"); raw != "" {
		cfg.DatabaseURL = raw
	}
	if raw := os.Getenv("REDIS_URL"); raw != "" {
		cfg.RedisURL = raw
	}
	if raw := os.Getenv("TOKEN_CACHE_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil || ttl <= 0 {
			return cfg, fmt.Errorf("config: invalid TOKEN_CACHE_TTL %q", raw)
		}
		cfg.TokenCacheTTL = ttl
	}
	if raw := os.Getenv("BCRYPT_COST"); raw != "" {
		cost, err := strconv.Atoi(raw)
		if err != nil {
			return cfg, fmt.Errorf("config: invalid BCRYPT_COST %q", raw)
		}
		cfg.BcryptCost = cost
	}
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(raw)); err != nil {
			return cfg, fmt.Errorf("config: invalid LOG_LEVEL %q", raw)
		}
	}
	if raw := os.Getenv("LOG_FORMAT"); raw != "" {
		switch f := strings.ToLower(raw); f {
		case "text", "json":
			cfg.LogFormat = f
		default:
			return cfg, fmt.Errorf("config: LOG_FORMAT must be text or json, got %q", raw)
		}
	}
	if raw := os.Getenv("CORS_ORIGINS"); raw != "" {
		var origins []string
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.CORSOrigins = origins
	}

	if cfg.DBDriver == DriverPostgres && cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("config: DATABASE_URL is required when DB_DRIVER=postgres")
	}
	return cfg, nil
}

// NewLogger builds the process logger described by cfg.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
