// Package config provides environment-driven configuration for the API server.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Version is the release of the API. It is reported by /version and embedded
// in the log file name.
const Version = "1.0.1"

// Config holds all server settings. Load reads them from the environment;
// command-line flags may override individual fields before Validate.
type Config struct {
	Host string
	Port int

	APIKeysFile string

	LogLevel      string
	LogFormat     string
	LogDir        string // empty disables file logging
	LogMaxSizeMB  int
	LogMaxAgeDays int

	TableStrategy   string // "pattern" or "markup"
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64

	RateLimit RateLimitConfig
}

// RateLimitConfig controls per-client request limits. DefaultLimit and
// DefaultWindow apply to paths without an endpoint-specific limit.
type RateLimitConfig struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	Whitelist       []string
	Blacklist       []string
}

// Load builds a Config from environment variables with defaults.
func Load() *Config {
	return &Config{
		Host:            getEnvString("HOST", "0.0.0.0"),
		Port:            getEnvInt("PORT", 2458),
		APIKeysFile:     getEnvString("API_KEYS_FILE", "/config/API_KEYS"),
		LogLevel:        getEnvString("LOG_LEVEL", "info"),
		LogFormat:       getEnvString("LOG_FORMAT", "text"),
		LogDir:          getEnvStringAllowEmpty("LOG_DIR", "/logs/"),
		LogMaxSizeMB:    getEnvInt("LOG_MAX_SIZE_MB", 100),
		LogMaxAgeDays:   getEnvInt("LOG_MAX_AGE_DAYS", 1),
		TableStrategy:   getEnvString("TABLE_STRATEGY", "pattern"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		MaxBodyBytes:    int64(getEnvInt("MAX_BODY_BYTES", 5<<20)),
		RateLimit: RateLimitConfig{
			Enabled:         getEnvBool("RATE_LIMIT_ENABLED", true),
			DefaultLimit:    getEnvInt("RATE_LIMIT_DEFAULT_LIMIT", 1000),
			DefaultWindow:   getEnvDuration("RATE_LIMIT_DEFAULT_WINDOW", time.Minute),
			CleanupInterval: getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
			Whitelist:       getEnvList("RATE_LIMIT_WHITELIST"),
			Blacklist:       getEnvList("RATE_LIMIT_BLACKLIST"),
		},
	}
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("config error: PORT must be between 1 and 65535, got: %d", c.Port)
	}
	if c.APIKeysFile == "" {
		return fmt.Errorf("config error: API_KEYS_FILE is required")
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("config error: LOG_LEVEL must be one of debug, info, warn, error, got: %q", c.LogLevel)
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("config error: LOG_FORMAT must be text or json, got: %q", c.LogFormat)
	}

	if c.LogMaxSizeMB < 1 {
		return fmt.Errorf("config error: LOG_MAX_SIZE_MB must be at least 1, got: %d", c.LogMaxSizeMB)
	}
	if c.LogMaxAgeDays < 0 {
		return fmt.Errorf("config error: LOG_MAX_AGE_DAYS must be non-negative, got: %d", c.LogMaxAgeDays)
	}

	switch c.TableStrategy {
	case "pattern", "markup":
	default:
		return fmt.Errorf("config error: TABLE_STRATEGY must be pattern or markup, got: %q", c.TableStrategy)
	}

	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("config error: SHUTDOWN_TIMEOUT must be positive")
	}
	if c.MaxBodyBytes < 1 {
		return fmt.Errorf("config error: MAX_BODY_BYTES must be positive")
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.DefaultLimit < 1 {
			return fmt.Errorf("config error: RATE_LIMIT_DEFAULT_LIMIT must be at least 1, got: %d", c.RateLimit.DefaultLimit)
		}
		if c.RateLimit.DefaultWindow <= 0 {
			return fmt.Errorf("config error: RATE_LIMIT_DEFAULT_WINDOW must be positive")
		}
	}

	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LogFileName returns the name of the log file written under LogDir.
func LogFileName() string {
	return fmt.Sprintf("power_automate_api%s.log", Version)
}

// getEnvString gets an environment variable as a string with a default value.
func getEnvString(key string, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvStringAllowEmpty is like getEnvString but an explicitly empty variable
// overrides the default.
func getEnvStringAllowEmpty(key string, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

// getEnvInt gets an environment variable as an integer with a default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool gets an environment variable as a boolean with a default value.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated environment variable, dropping blanks.
func getEnvList(key string) []string {
	var list []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}

// getEnvDuration gets an environment variable as a duration with a default value.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
