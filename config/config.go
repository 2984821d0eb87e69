// Package config provides configuration management for the accounts service.
// It handles loading and validation of configuration values from environment variables,
// with support for required variables, default values, and collective error reporting.
// Each command loads only the section it needs, so `run` never asks for database secrets.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/user/accounts-go/apperror"
)

// DatabaseConfig represents configuration for the PostgreSQL connection pool.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	// AutoMigrate applies pending migrations when the server starts.
	AutoMigrate bool
}

// DSN returns a postgres URL usable by both pgx and golang-migrate.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	JWTSecret            string        // Secret key for signing tokens
	AccessTokenDuration  time.Duration // Lifetime of tokens issued by the token endpoint
	RefreshTokenDuration time.Duration
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           string
	AllowedOrigins []string
}

// GateConfig configures the lint-then-test gate.
type GateConfig struct {
	Target            string
	AnalyzerCmd       string
	TestCmd           string
	FailOnTestFailure bool
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text or json
}

// AppConfig is the top-level configuration of the `serve` command.
type AppConfig struct {
	DB     *DatabaseConfig
	Auth   *AuthConfig
	Server *ServerConfig
}

// Defaults for the gate tools. The gate inspects this Go module by default.
const (
	DefaultAnalyzerCmd = "go vet ./..."
	DefaultTestCmd     = "go test ./..."
)

// Helper function to get a required environment variable.
// Appends an error to the errors slice if the variable is not set.
func getRequiredEnv(key string, errors *[]string) string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		*errors = append(*errors, fmt.Sprintf("missing required environment variable: %s", key))
		return ""
	}
	return value
}

// Helper function to get an optional environment variable with a default string value.
func getOptionalEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

// Helper function to get an optional environment variable parsed as an int.
// Uses defaultValue if not set or if parsing fails. Appends an error if parsing fails.
func getOptionalEnvInt(key string, defaultValue int, errors *[]string) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return defaultValue
	}
	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: expected integer, got '%s': %v", key, valueStr, err))
		return defaultValue
	}
	return valueInt
}

// Helper function to get an optional environment variable parsed as time.Duration.
// `time.ParseDuration` expects a string like "15m", "1h30s".
func getOptionalEnvDuration(key string, defaultValue time.Duration, errors *[]string) time.Duration {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return defaultValue
	}
	valueDuration, err := time.ParseDuration(valueStr)
	if err != nil {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: expected duration string, got '%s': %v", key, valueStr, err))
		return defaultValue
	}
	if valueDuration <= 0 {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: duration must be positive, got '%s'", key, valueStr))
		return defaultValue
	}
	return valueDuration
}

// Helper function to get an optional boolean environment variable ("true", "1", "false", ...).
func getOptionalEnvBool(key string, defaultValue bool, errors *[]string) bool {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return defaultValue
	}
	valueBool, err := strconv.ParseBool(valueStr)
	if err != nil {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: expected boolean, got '%s'", key, valueStr))
		return defaultValue
	}
	return valueBool
}

// clampPoolSize keeps the pool size between 5 and 100, recording a note when it has to clamp.
func clampPoolSize(size int, varName string, errors *[]string) int {
	if size < 5 {
		*errors = append(*errors, fmt.Sprintf("pool size for %s (%d) is less than minimum 5", varName, size))
		return 5
	}
	if size > 100 {
		*errors = append(*errors, fmt.Sprintf("pool size for %s (%d) is greater than maximum 100", varName, size))
		return 100
	}
	return size
}

// joinErrors turns collected messages into the single ConfigError returned by the loaders.
func joinErrors(errors []string) error {
	if len(errors) == 0 {
		return nil
	}
	return apperror.NewConfigError("configuration errors",
		fmt.Errorf("\n- %s", strings.Join(errors, "\n- ")))
}

func loadDatabase(errors *[]string) *DatabaseConfig {
	return &DatabaseConfig{
		User:        getRequiredEnv("DB_USER", errors),
		Password:    getRequiredEnv("DB_PASSWORD", errors),
		DBName:      getRequiredEnv("DB_NAME", errors),
		Host:        getOptionalEnv("DB_HOST", "localhost"),
		Port:        getOptionalEnvInt("DB_PORT", 5432, errors),
		SSLMode:     getOptionalEnv("DB_SSLMODE", "disable"),
		MaxConns:    clampPoolSize(getOptionalEnvInt("DB_MAX_CONNS", 10, errors), "DB_MAX_CONNS", errors),
		AutoMigrate: getOptionalEnvBool("DB_AUTO_MIGRATE", false, errors),
	}
}

// LoadDatabaseConfig reads only the database section (used by `migrate`).
func LoadDatabaseConfig() (*DatabaseConfig, error) {
	var errors []string
	cfg := loadDatabase(&errors)
	if err := joinErrors(errors); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig creates and returns an AppConfig by reading and validating environment variables.
// It collects all errors encountered during loading and returns a single error if any exist.
func LoadConfig() (*AppConfig, error) {
	var errors []string

	dbConfig := loadDatabase(&errors)

	authConfig := &AuthConfig{
		JWTSecret:            getRequiredEnv("JWT_SECRET", &errors),
		AccessTokenDuration:  getOptionalEnvDuration("JWT_ACCESS_TOKEN_DURATION", 24*time.Hour, &errors),
		RefreshTokenDuration: getOptionalEnvDuration("JWT_REFRESH_TOKEN_DURATION", 168*time.Hour, &errors), // 7 days
	}

	serverConfig := &ServerConfig{
		// Server port stays a string because it's used directly in the listen address.
		Port:           getOptionalEnv("PORT", "8080"),
		AllowedOrigins: splitList(getOptionalEnv("CORS_ALLOWED_ORIGINS", "*")),
	}

	if err := joinErrors(errors); err != nil {
		return nil, err
	}

	return &AppConfig{
		DB:     dbConfig,
		Auth:   authConfig,
		Server: serverConfig,
	}, nil
}

// LoadGateConfig reads the gate section (used by `run`). Nothing here is required.
func LoadGateConfig() (*GateConfig, error) {
	var errors []string
	cfg := &GateConfig{
		Target:            getOptionalEnv("GATE_TARGET", "."),
		AnalyzerCmd:       getOptionalEnv("GATE_ANALYZER_CMD", DefaultAnalyzerCmd),
		TestCmd:           getOptionalEnv("GATE_TEST_CMD", DefaultTestCmd),
		FailOnTestFailure: getOptionalEnvBool("GATE_FAIL_ON_TEST_FAILURE", false, &errors),
	}
	if err := joinErrors(errors); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadLogConfig reads LOG_LEVEL and LOG_FORMAT.
func LoadLogConfig() (*LogConfig, error) {
	var errors []string
	cfg := &LogConfig{
		Level:  strings.ToLower(getOptionalEnv("LOG_LEVEL", "info")),
		Format: strings.ToLower(getOptionalEnv("LOG_FORMAT", "text")),
	}
	switch cfg.Level {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid value for LOG_LEVEL: '%s'", cfg.Level))
	}
	switch cfg.Format {
	case "text", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid value for LOG_FORMAT: '%s'", cfg.Format))
	}
	if err := joinErrors(errors); err != nil {
		return nil, err
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
