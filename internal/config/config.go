package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr              string
	DatabaseURL       string
	AuthSecret        string
	Environment       string
	Timezone          string
	SyncInterval      time.Duration
	ProbeTimeout      time.Duration
	BreakThreshold    time.Duration
	MaxSessionSpan    time.Duration
	MaxBodyBytes      int64
	RunMigrations     bool
	ExportDir         string
	MetricsEnabled    bool
	DefaultPolicyName string
}

func Load() Config {
	return Config{
		Addr:              getEnv("APP_ADDR", ":8080"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		AuthSecret:        getEnv("AUTH_SECRET", ""),
		Environment:       getEnv("APP_ENV", "development"),
		Timezone:          getEnv("ATTENDANCE_TZ", "Local"),
		SyncInterval:      getEnvDuration("SYNC_INTERVAL", 10*time.Minute),
		ProbeTimeout:      getEnvDuration("PROBE_TIMEOUT", 5*time.Second),
		BreakThreshold:    getEnvDuration("ATTENDANCE_BREAK_THRESHOLD", 4*time.Hour),
		MaxSessionSpan:    getEnvDuration("MAX_SESSION_SPAN", 48*time.Hour),
		MaxBodyBytes:      int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		RunMigrations:     getEnvBool("RUN_MIGRATIONS", true),
		ExportDir:         getEnv("EXPORT_DIR", "storage/exports"),
		MetricsEnabled:    getEnvBool("METRICS_ENABLED", true),
		DefaultPolicyName: getEnv("DEFAULT_POLICY_NAME", "Standard"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Environment == "production" && strings.TrimSpace(c.AuthSecret) == "" {
		return fmt.Errorf("AUTH_SECRET must be set to a strong value in production")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.BreakThreshold <= 0 {
		return fmt.Errorf("ATTENDANCE_BREAK_THRESHOLD must be positive")
	}
	if c.ProbeTimeout <= 0 {
		return fmt.Errorf("PROBE_TIMEOUT must be positive")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("ATTENDANCE_TZ is not a valid timezone: %w", err)
	}
	return nil
}

// Location resolves the tenant timezone. All punch instants and policy
// times live in this single zone.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
