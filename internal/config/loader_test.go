package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var plannerKeys = []string{
	"PLANNER_ENV_FILE",
	"PLANNER_CONFIG_FILE",
	"PLANNER_HTTP_PORT",
	"PLANNER_SQLITE_DSN",
	"PLANNER_LOG_LEVEL",
	"PLANNER_LOG_FORMAT",
	"PLANNER_OWNER_HEADER",
	"PLANNER_RATE_LIMIT_REQUESTS",
	"PLANNER_RATE_LIMIT_WINDOW",
	"PLANNER_SHUTDOWN_TIMEOUT",
	"PLANNER_MAX_EXPANSION_DAYS",
}

// clearEnv unsets every planner variable for the duration of the test and
// points the .env lookup at a file that does not exist.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range plannerKeys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	t.Setenv("PLANNER_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoader_ParseEnvironment(t *testing.T) {
	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, Defaults(), cfg)
		assert.Equal(t, ":8080", cfg.Addr())
	})

	t.Run("environment overrides defaults", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PLANNER_HTTP_PORT", "9090")
		t.Setenv("PLANNER_SQLITE_DSN", "/var/lib/planner/planner.db")
		t.Setenv("PLANNER_LOG_LEVEL", "debug")
		t.Setenv("PLANNER_LOG_FORMAT", "TEXT")
		t.Setenv("PLANNER_OWNER_HEADER", "X-Student")
		t.Setenv("PLANNER_RATE_LIMIT_REQUESTS", "0")
		t.Setenv("PLANNER_RATE_LIMIT_WINDOW", "30s")
		t.Setenv("PLANNER_SHUTDOWN_TIMEOUT", "3s")
		t.Setenv("PLANNER_MAX_EXPANSION_DAYS", "31")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, Config{
			HTTPPort:          9090,
			SQLiteDSN:         "/var/lib/planner/planner.db",
			LogLevel:          "debug",
			LogFormat:         "text",
			OwnerHeader:       "X-Student",
			RateLimitRequests: 0,
			RateLimitWindow:   30 * time.Second,
			ShutdownTimeout:   3 * time.Second,
			MaxExpansionDays:  31,
		}, cfg)
	})

	t.Run("reports every invalid value", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PLANNER_HTTP_PORT", "http")
		t.Setenv("PLANNER_LOG_FORMAT", "xml")
		t.Setenv("PLANNER_RATE_LIMIT_WINDOW", "-1s")

		_, err := Load()
		require.Error(t, err)
		assert.Equal(t, "invalid configuration values: PLANNER_HTTP_PORT, PLANNER_LOG_FORMAT, PLANNER_RATE_LIMIT_WINDOW", err.Error())
	})
}

func TestLoader_Files(t *testing.T) {
	t.Run("yaml file sits below the environment", func(t *testing.T) {
		clearEnv(t)
		path := writeFile(t, "planner.yaml", `
http_port: 7070
sqlite_dsn: data/planner.db
log:
  level: warn
  format: text
rate_limit:
  requests: 5
  window: 10s
shutdown_timeout: 1s
`)
		t.Setenv("PLANNER_CONFIG_FILE", path)
		t.Setenv("PLANNER_HTTP_PORT", "6060")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 6060, cfg.HTTPPort)
		assert.Equal(t, "data/planner.db", cfg.SQLiteDSN)
		assert.Equal(t, "warn", cfg.LogLevel)
		assert.Equal(t, "text", cfg.LogFormat)
		assert.Equal(t, 5, cfg.RateLimitRequests)
		assert.Equal(t, 10*time.Second, cfg.RateLimitWindow)
		assert.Equal(t, time.Second, cfg.ShutdownTimeout)
		assert.Equal(t, "X-Owner-ID", cfg.OwnerHeader)
	})

	t.Run("malformed yaml is an error", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PLANNER_CONFIG_FILE", writeFile(t, "bad.yaml", "http_port: [1, 2"))

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse config file")
	})

	t.Run("missing yaml file is an error", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PLANNER_CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

		_, err := Load()
		require.Error(t, err)
	})

	t.Run("dotenv fills unset variables only", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PLANNER_ENV_FILE", writeFile(t, "planner.env", "PLANNER_OWNER_HEADER=X-From-Dotenv\nPLANNER_HTTP_PORT=1111\n"))
		t.Setenv("PLANNER_HTTP_PORT", "2222")
		// godotenv sets variables on the process; clean up after it.
		t.Cleanup(func() { _ = os.Unsetenv("PLANNER_OWNER_HEADER") })

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "X-From-Dotenv", cfg.OwnerHeader)
		assert.Equal(t, 2222, cfg.HTTPPort)
	})
}
