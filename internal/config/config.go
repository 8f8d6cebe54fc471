// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkordes/slugkeeper/internal/domain"
	"github.com/pkordes/slugkeeper/migrations"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the connection string. Required.
	// postgres:// and postgresql:// URLs select Postgres; sqlite://path,
	// file:path, or a bare path select SQLite.
	DatabaseURL string

	// Database is DatabaseURL split into driver and driver-specific DSN.
	Database Database

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"].
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// SubjectTypesFile is an optional YAML file describing subject types.
	// When empty a single "article" type with history is registered.
	SubjectTypesFile string

	// Separator is the default separator for types that do not set one.
	Separator string

	// MaxAttempts bounds conflict retries per slug assignment.
	MaxAttempts int

	// CacheSize is the number of cached resolutions; 0 disables the cache.
	CacheSize int
	CacheTTL  time.Duration

	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64
}

// Database identifies a backend and its DSN.
type Database struct {
	Driver string
	DSN    string
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing any required variables that are not set or any
// values that do not parse.
func Load() (Config, error) {
	cfg := Config{
		Port:             getEnv("PORT", "8080"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		CORSOrigins:      splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		SubjectTypesFile: os.Getenv("SUBJECT_TYPES_FILE"),
		Separator:        getEnv("SLUG_SEPARATOR", domain.DefaultSeparator),
	}

	var missing, invalid []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	} else if db, err := ParseDatabaseURL(cfg.DatabaseURL); err != nil {
		invalid = append(invalid, "DATABASE_URL: "+err.Error())
	} else {
		cfg.Database = db
	}

	var err error
	if cfg.MaxAttempts, err = getInt("SLUG_MAX_ATTEMPTS", 3); err != nil || cfg.MaxAttempts < 1 {
		invalid = append(invalid, "SLUG_MAX_ATTEMPTS")
	}
	if cfg.CacheSize, err = getInt("RESOLVE_CACHE_SIZE", 0); err != nil || cfg.CacheSize < 0 {
		invalid = append(invalid, "RESOLVE_CACHE_SIZE")
	}
	if cfg.CacheTTL, err = time.ParseDuration(getEnv("RESOLVE_CACHE_TTL", "30s")); err != nil {
		invalid = append(invalid, "RESOLVE_CACHE_TTL")
	}
	maxBody, err := getInt("MAX_BODY_BYTES", 1<<20)
	if err != nil || maxBody < 1 {
		invalid = append(invalid, "MAX_BODY_BYTES")
	}
	cfg.MaxBodyBytes = int64(maxBody)

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// ParseDatabaseURL picks the backend for a connection string.
func ParseDatabaseURL(raw string) (Database, error) {
	switch {
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		return Database{Driver: migrations.Postgres, DSN: raw}, nil
	case strings.HasPrefix(raw, "sqlite://"):
		return sqliteDatabase(strings.TrimPrefix(raw, "sqlite://"))
	case strings.HasPrefix(raw, "file:"):
		return sqliteDatabase(strings.TrimPrefix(raw, "file:"))
	case strings.Contains(raw, "://"):
		return Database{}, fmt.Errorf("unsupported scheme in %q", raw)
	default:
		return sqliteDatabase(raw)
	}
}

func sqliteDatabase(path string) (Database, error) {
	if path == "" {
		return Database{}, fmt.Errorf("empty sqlite path")
	}
	return Database{Driver: migrations.SQLite, DSN: path}, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
