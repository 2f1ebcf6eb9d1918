package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Store drivers
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	APIPort   int
	AuthToken string

	// Database configuration
	DBDriver   string
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBMigrate  bool

	// Accounting
	ExpiryWarningDays int

	// Logging
	LogLevel string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	apiPort, err := strconv.Atoi(getEnv("API_PORT", "8888"))
	if err != nil {
		return nil, fmt.Errorf("invalid API_PORT: %v", err)
	}

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %v", err)
	}

	dbMigrate, err := strconv.ParseBool(getEnv("DB_MIGRATE", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIGRATE: %v", err)
	}

	warningDays, err := strconv.Atoi(getEnv("EXPIRY_WARNING_DAYS", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid EXPIRY_WARNING_DAYS: %v", err)
	}
	if warningDays < 0 {
		return nil, fmt.Errorf("invalid EXPIRY_WARNING_DAYS: must not be negative")
	}

	driver := getEnv("DB_DRIVER", DriverPostgres)
	if driver != DriverPostgres && driver != DriverMemory {
		return nil, fmt.Errorf("invalid DB_DRIVER: %q", driver)
	}

	return &Config{
		// Server configuration
		APIPort:   apiPort,
		AuthToken: getEnv("AUTH_TOKEN", ""),

		// Database configuration
		DBDriver:   driver,
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "purifier"),
		DBSSLMode:  getEnv("DB_SSL_MODE", "disable"),
		DBMigrate:  dbMigrate,

		ExpiryWarningDays: warningDays,

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}, nil
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// SetupLogger configures the global logger
func (c *Config) SetupLogger() {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}

// Helper function to get environment variables with fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
