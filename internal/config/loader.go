// Package config loads planner settings from an optional YAML file, a .env
// file and PLANNER_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config captures configuration values for the planner service.
type Config struct {
	HTTPPort          int
	SQLiteDSN         string
	LogLevel          string
	LogFormat         string
	OwnerHeader       string
	RateLimitRequests int
	RateLimitWindow   time.Duration
	ShutdownTimeout   time.Duration
	MaxExpansionDays  int
}

// fileConfig mirrors Config in the YAML file. Zero values leave defaults in
// place.
type fileConfig struct {
	HTTPPort  int    `yaml:"http_port"`
	SQLiteDSN string `yaml:"sqlite_dsn"`
	Log       struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	OwnerHeader string `yaml:"owner_header"`
	RateLimit   struct {
		Requests int    `yaml:"requests"`
		Window   string `yaml:"window"`
	} `yaml:"rate_limit"`
	ShutdownTimeout  string `yaml:"shutdown_timeout"`
	MaxExpansionDays int    `yaml:"max_expansion_days"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		HTTPPort:          8080,
		SQLiteDSN:         "planner.db",
		LogLevel:          "info",
		LogFormat:         "json",
		OwnerHeader:       "X-Owner-ID",
		RateLimitRequests: 120,
		RateLimitWindow:   time.Minute,
		ShutdownTimeout:   10 * time.Second,
		MaxExpansionDays:  366,
	}
}

// Load resolves configuration from, in order, defaults, the YAML file named by
// PLANNER_CONFIG_FILE, the .env file (PLANNER_ENV_FILE, default ".env") and
// the process environment. Variables already set in the environment win over
// .env entries.
func Load() (Config, error) {
	envFile := strings.TrimSpace(os.Getenv("PLANNER_ENV_FILE"))
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("read env file %s: %w", envFile, err)
	}

	cfg := Defaults()
	invalid := make([]string, 0, 4)

	if path := strings.TrimSpace(os.Getenv("PLANNER_CONFIG_FILE")); path != "" {
		fileInvalid, err := applyFile(&cfg, path)
		if err != nil {
			return Config{}, err
		}
		invalid = append(invalid, fileInvalid...)
	}

	if portValue := strings.TrimSpace(os.Getenv("PLANNER_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "PLANNER_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("PLANNER_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if level := strings.TrimSpace(os.Getenv("PLANNER_LOG_LEVEL")); level != "" {
		cfg.LogLevel = level
	}
	if !validLevel(cfg.LogLevel) {
		invalid = append(invalid, "PLANNER_LOG_LEVEL")
	}

	if format := strings.TrimSpace(os.Getenv("PLANNER_LOG_FORMAT")); format != "" {
		cfg.LogFormat = strings.ToLower(format)
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" && cfg.LogFormat != "auto" {
		invalid = append(invalid, "PLANNER_LOG_FORMAT")
	}

	if header := strings.TrimSpace(os.Getenv("PLANNER_OWNER_HEADER")); header != "" {
		cfg.OwnerHeader = header
	}

	if requestsValue := strings.TrimSpace(os.Getenv("PLANNER_RATE_LIMIT_REQUESTS")); requestsValue != "" {
		requests, err := strconv.Atoi(requestsValue)
		if err != nil || requests < 0 {
			invalid = append(invalid, "PLANNER_RATE_LIMIT_REQUESTS")
		} else {
			cfg.RateLimitRequests = requests
		}
	}

	if windowValue := strings.TrimSpace(os.Getenv("PLANNER_RATE_LIMIT_WINDOW")); windowValue != "" {
		window, err := time.ParseDuration(windowValue)
		if err != nil || window <= 0 {
			invalid = append(invalid, "PLANNER_RATE_LIMIT_WINDOW")
		} else {
			cfg.RateLimitWindow = window
		}
	}

	if timeoutValue := strings.TrimSpace(os.Getenv("PLANNER_SHUTDOWN_TIMEOUT")); timeoutValue != "" {
		timeout, err := time.ParseDuration(timeoutValue)
		if err != nil || timeout <= 0 {
			invalid = append(invalid, "PLANNER_SHUTDOWN_TIMEOUT")
		} else {
			cfg.ShutdownTimeout = timeout
		}
	}

	if daysValue := strings.TrimSpace(os.Getenv("PLANNER_MAX_EXPANSION_DAYS")); daysValue != "" {
		days, err := strconv.Atoi(daysValue)
		if err != nil || days < 0 {
			invalid = append(invalid, "PLANNER_MAX_EXPANSION_DAYS")
		} else {
			cfg.MaxExpansionDays = days
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid configuration values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// applyFile overlays the YAML file at path onto cfg and reports the keys whose
// values could not be used.
func applyFile(cfg *Config, path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	invalid := make([]string, 0)
	if file.HTTPPort != 0 {
		if file.HTTPPort < 0 || file.HTTPPort > 65535 {
			invalid = append(invalid, "http_port")
		} else {
			cfg.HTTPPort = file.HTTPPort
		}
	}
	if dsn := strings.TrimSpace(file.SQLiteDSN); dsn != "" {
		cfg.SQLiteDSN = dsn
	}
	if level := strings.TrimSpace(file.Log.Level); level != "" {
		cfg.LogLevel = level
	}
	if format := strings.TrimSpace(file.Log.Format); format != "" {
		cfg.LogFormat = strings.ToLower(format)
	}
	if header := strings.TrimSpace(file.OwnerHeader); header != "" {
		cfg.OwnerHeader = header
	}
	if file.RateLimit.Requests != 0 {
		if file.RateLimit.Requests < 0 {
			invalid = append(invalid, "rate_limit.requests")
		} else {
			cfg.RateLimitRequests = file.RateLimit.Requests
		}
	}
	if value := strings.TrimSpace(file.RateLimit.Window); value != "" {
		window, err := time.ParseDuration(value)
		if err != nil || window <= 0 {
			invalid = append(invalid, "rate_limit.window")
		} else {
			cfg.RateLimitWindow = window
		}
	}
	if value := strings.TrimSpace(file.ShutdownTimeout); value != "" {
		timeout, err := time.ParseDuration(value)
		if err != nil || timeout <= 0 {
			invalid = append(invalid, "shutdown_timeout")
		} else {
			cfg.ShutdownTimeout = timeout
		}
	}
	if file.MaxExpansionDays != 0 {
		if file.MaxExpansionDays < 0 {
			invalid = append(invalid, "max_expansion_days")
		} else {
			cfg.MaxExpansionDays = file.MaxExpansionDays
		}
	}
	return invalid, nil
}

func validLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}

// Addr returns the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
