package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds runtime settings for the ordersync binary.
type Config struct {
	DBPath         string
	DefaultVersion string
	LogUseCases    bool
	LogLevel       slog.Level
	MetricsDump    bool
	NoColor        bool
}

// DefaultConfig returns a Config with the database under the user's home
// directory and every optional output turned off.
func DefaultConfig() Config {
	return Config{
		DBPath:         defaultDBPath(),
		DefaultVersion: "base",
		LogLevel:       slog.LevelInfo,
	}
}

// LoadConfig reads configuration from environment variables,
// falling back to defaults for any unset or malformed values.
func LoadConfig() Config {
	cfg := DefaultConfig()

	if v := os.Getenv("ORDERSYNC_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := strings.TrimSpace(os.Getenv("ORDERSYNC_DEFAULT_VERSION")); v != "" {
		cfg.DefaultVersion = v
	}
	applyBoolEnv(&cfg.LogUseCases, "ORDERSYNC_LOG_USE_CASES")
	applyBoolEnv(&cfg.MetricsDump, "ORDERSYNC_METRICS_DUMP")
	applyBoolEnv(&cfg.NoColor, "ORDERSYNC_NO_COLOR")
	if v := os.Getenv("ORDERSYNC_LOG_LEVEL"); v != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(v)); err == nil {
			cfg.LogLevel = lvl
		}
	}
	if os.Getenv("NO_COLOR") != "" {
		cfg.NoColor = true
	}

	return cfg
}

func applyBoolEnv(dst *bool, envName string) {
	v := os.Getenv(envName)
	if v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return
	}
	*dst = b
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "ordersync.db"
	}
	return filepath.Join(home, ".ordersync", "ordersync.db")
}
