// Package config contains everything related to configuration
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/j-veylop/quonitor/internal/apperr"
)

// Config holds the application configuration.
type Config struct {
	DataDir              string
	DatabasePath         string
	KeyFilePath          string
	EnvFile              string // .env file that was loaded, if any
	GoogleClientID       string
	GoogleClientSecret   string
	GoogleRedirectURL    string
	LogLevel             string
	LogFile              string
	QuotaRefreshInterval time.Duration
	ProviderTimeout      time.Duration
	FetchConcurrency     int
	RetentionDays        int
	Headless             bool // log notifications instead of showing them
}

// Default values
const (
	defaultQuotaRefreshInterval = 300 * time.Second
	defaultProviderTimeout      = 30 * time.Second
	defaultFetchConcurrency     = 5
	defaultRedirectURL          = "http://localhost:8085/callback"

	// MinRefreshInterval is the shortest accepted polling interval.
	MinRefreshInterval = 10 * time.Second
)

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	var envFile string
	for _, path := range getEnvPaths() {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			envFile = path
			break
		}
	}

	cfg, err := fromEnv()
	if err != nil {
		return nil, err
	}
	cfg.EnvFile = envFile

	if err := ensureDir(cfg.DataDir); err != nil {
		return nil, apperr.Config("failed to create data directory: %v", err)
	}
	if err := ensureDir(filepath.Dir(cfg.DatabasePath)); err != nil {
		return nil, apperr.Config("failed to create database directory: %v", err)
	}

	return cfg, nil
}

// fromEnv builds a validated config from the current environment.
func fromEnv() (*Config, error) {
	dataDir := getEnvString("QUONITOR_DATA_DIR", getDefaultDataDir())

	cfg := &Config{
		DataDir:              dataDir,
		DatabasePath:         getEnvString("DATABASE_PATH", filepath.Join(dataDir, "quonitor.db")),
		KeyFilePath:          getEnvString("KEY_FILE_PATH", filepath.Join(dataDir, "master.key")),
		GoogleClientID:       getEnvString("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:   getEnvString("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:    getEnvString("GOOGLE_REDIRECT_URL", defaultRedirectURL),
		LogLevel:             getEnvString("LOG_LEVEL", "info"),
		LogFile:              getEnvString("LOG_FILE", ""),
		QuotaRefreshInterval: getEnvDuration("QUOTA_REFRESH_INTERVAL", defaultQuotaRefreshInterval),
		ProviderTimeout:      getEnvDuration("PROVIDER_TIMEOUT", defaultProviderTimeout),
		FetchConcurrency:     getEnvInt("FETCH_CONCURRENCY", defaultFetchConcurrency),
		RetentionDays:        getEnvInt("RETENTION_DAYS", 0),
		Headless:             getEnvBool("QUONITOR_HEADLESS", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the services cannot run with.
func (c *Config) Validate() error {
	if c.QuotaRefreshInterval < MinRefreshInterval {
		return apperr.Config("QUOTA_REFRESH_INTERVAL must be at least %s, got %s", MinRefreshInterval, c.QuotaRefreshInterval)
	}
	if c.ProviderTimeout <= 0 {
		return apperr.Config("PROVIDER_TIMEOUT must be positive, got %s", c.ProviderTimeout)
	}
	if c.FetchConcurrency < 1 {
		return apperr.Config("FETCH_CONCURRENCY must be at least 1, got %d", c.FetchConcurrency)
	}
	if c.RetentionDays < 0 {
		return apperr.Config("RETENTION_DAYS must not be negative, got %d", c.RetentionDays)
	}
	return nil
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	// Current directory
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	// Data directory, which may itself come from the environment
	dataDir := getEnvString("QUONITOR_DATA_DIR", getDefaultDataDir())
	paths = append(paths, filepath.Join(dataDir, ".env"))

	if def := getDefaultDataDir(); def != dataDir {
		paths = append(paths, filepath.Join(def, ".env"))
	}

	return paths
}

// getDefaultDataDir returns the default directory for the database and key file.
func getDefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".quonitor"
	}
	return filepath.Join(home, ".config", "quonitor")
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s", "1m", "500ms".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// Try parsing as seconds if no unit specified
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns the default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns the default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
