package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allVars = []string{
	"PORT", "DB_DRIVER", "DB_PATH", "DATABASE_URL", "REDIS_URL", "TOKEN_CACHE_TTL",
	"BCRYPT_COST", "LOG_LEVEL", "LOG_FORMAT", "CORS_ORIGINS",
}

// clearEnv blanks every variable Load reads; t.Setenv restores them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allVars {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/chess")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("TOKEN_CACHE_TTL", "1m")
	t.Setenv("BCRYPT_COST", "10")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "JSON")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test ,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.Equal(t, "postgres://localhost/chess", cfg.DatabaseURL)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, time.Minute, cfg.TokenCacheTTL)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"PORT", "eighty"},
		{"PORT", "70000"},
		{"DB_DRIVER", "mysql"},
		{"TOKEN_CACHE_TTL", "soon"},
		{"BCRYPT_COST", "high"},
		{"LOG_LEVEL", "loud"},
		{"LOG_FORMAT", "xml"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_PostgresNeedsURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DRIVER", "postgres")
	_, err := Load()
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")), "missing file is fine")

	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("PORT=7070\nDB_PATH=from-file.db\n"), 0o600))
	t.Setenv("DB_PATH", "from-env.db")
	// Unset PORT entirely so godotenv is allowed to fill it.
	os.Unsetenv("PORT")

	require.NoError(t, LoadDotEnv(path))
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, "from-env.db", cfg.DBPath, "existing env wins over the file")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.LogFormat = "json"
	cfg.LogLevel = slog.LevelWarn

	logger := cfg.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}
