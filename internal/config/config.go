package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database   DatabaseConfig
	App        AppConfig
	Ingest     IngestConfig
	Derivation DerivationConfig
	Operator   OperatorConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port     int
	Env      string
	LogLevel string
}

// IngestConfig controls the device-facing ingestion pipeline.
type IngestConfig struct {
	// DeviceTimezone is the wall-clock zone punches arrive in.
	DeviceTimezone string
	// RequestTimeout is the wall-clock budget for one cdata batch.
	RequestTimeout time.Duration
	// StoreRetryAttempts is how often a transient store failure is retried.
	StoreRetryAttempts int
	// ReplayInterval is how often the background job retries failed batches.
	ReplayInterval time.Duration
}

// DerivationConfig holds the overtime and late/early rules. Immutable after Load.
type DerivationConfig struct {
	// EveningCutoffMinutes and NightCutoffMinutes are minutes from local midnight.
	EveningCutoffMinutes int
	NightCutoffMinutes   int
	// EarlyOvertimeThreshold: check-in must precede work start by at least this much.
	EarlyOvertimeThreshold time.Duration
	// LateAfternoonFallbackMinutes: naive lateness at or beyond this is re-based
	// against the afternoon interval.
	LateAfternoonFallbackMinutes int
	// EarlyAllowedCodes are the employee codes allowed to accrue early overtime.
	EarlyAllowedCodes []string
	// ExemptDepartments: employees whose department or parent department name is
	// listed accrue no overtime at all.
	ExemptDepartments []string
}

type OperatorConfig struct {
	JWTSecret string
}

func Load() (*Config, error) {
	// A missing .env is fine in production; env vars take over.
	_ = godotenv.Load()

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "attendance-ingest"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:     appPort,
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	// Ingestion configuration
	requestTimeout, err := time.ParseDuration(getEnv("INGEST_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid INGEST_TIMEOUT: %w", err)
	}
	retryAttempts, err := strconv.Atoi(getEnv("STORE_RETRY_ATTEMPTS", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid STORE_RETRY_ATTEMPTS: %w", err)
	}
	replayInterval, err := time.ParseDuration(getEnv("REPLAY_INTERVAL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid REPLAY_INTERVAL: %w", err)
	}

	config.Ingest = IngestConfig{
		DeviceTimezone:     getEnv("DEVICE_TIMEZONE", "Asia/Ho_Chi_Minh"),
		RequestTimeout:     requestTimeout,
		StoreRetryAttempts: retryAttempts,
		ReplayInterval:     replayInterval,
	}

	// Derivation configuration
	eveningCutoff, err := parseClock(getEnv("OT_EVENING_CUTOFF", "18:00"))
	if err != nil {
		return nil, fmt.Errorf("invalid OT_EVENING_CUTOFF: %w", err)
	}
	nightCutoff, err := parseClock(getEnv("OT_NIGHT_CUTOFF", "21:00"))
	if err != nil {
		return nil, fmt.Errorf("invalid OT_NIGHT_CUTOFF: %w", err)
	}
	earlyThreshold, err := time.ParseDuration(getEnv("OT_EARLY_THRESHOLD", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid OT_EARLY_THRESHOLD: %w", err)
	}
	lateFallback, err := strconv.Atoi(getEnv("LATE_AFTERNOON_FALLBACK_MINUTES", "240"))
	if err != nil {
		return nil, fmt.Errorf("invalid LATE_AFTERNOON_FALLBACK_MINUTES: %w", err)
	}

	config.Derivation = DerivationConfig{
		EveningCutoffMinutes:         eveningCutoff,
		NightCutoffMinutes:           nightCutoff,
		EarlyOvertimeThreshold:       earlyThreshold,
		LateAfternoonFallbackMinutes: lateFallback,
		EarlyAllowedCodes:            getEnvSlice("OT_EARLY_ALLOWED_CODES", "240064,190124"),
		ExemptDepartments:            getEnvSlice("OT_EXEMPT_DEPARTMENTS", "Văn phòng,Bảo vệ"),
	}

	config.Operator = OperatorConfig{
		JWTSecret: getEnv("OPERATOR_JWT_SECRET", ""),
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.Operator.JWTSecret == "" {
		return fmt.Errorf("OPERATOR_JWT_SECRET is required")
	}
	if c.Ingest.RequestTimeout <= 0 {
		return fmt.Errorf("INGEST_TIMEOUT must be positive")
	}
	if c.Ingest.StoreRetryAttempts < 1 {
		return fmt.Errorf("STORE_RETRY_ATTEMPTS must be at least 1")
	}
	if c.Derivation.NightCutoffMinutes < c.Derivation.EveningCutoffMinutes {
		return fmt.Errorf("OT_NIGHT_CUTOFF must not precede OT_EVENING_CUTOFF")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// parseClock converts an "HH:MM" string to minutes from midnight.
func parseClock(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	hh, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	mm, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return 0, fmt.Errorf("clock value out of range: %q", s)
	}
	return hh*60 + mm, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(env string, fallback string) []string {
	value := getEnv(env, fallback)
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
