package config

import (
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Config holds all configuration for the marketplace core server.
type Config struct {
	// Server configuration
	ServerAddr string
	ServerPort string

	// Soft hold configuration
	HoldTTL       time.Duration
	SweepInterval time.Duration

	// Provider freeze configuration
	ProviderLockDuration time.Duration

	// Catalog cache configuration
	CatalogTTL time.Duration

	// Search index configuration
	SearchCacheSize int

	// Platform commission
	CommissionRate         float64
	CommissionType         string // "percentage" or "fixed"
	CommissionIncludesFees bool

	// Service identification
	ServiceName string
	InstanceID  string
	Environment string
}

// LoadConfig loads configuration from environment variables with
// sensible defaults for local development.
func LoadConfig() *Config {
	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", "0.0.0.0"),
		ServerPort: getEnv("SERVER_PORT", "8080"),

		HoldTTL:       time.Duration(getEnvAsInt("HOLD_TTL_SEC", 900)) * time.Second,
		SweepInterval: time.Duration(getEnvAsInt("SWEEP_INTERVAL_SEC", 60)) * time.Second,

		ProviderLockDuration: time.Duration(getEnvAsInt("PROVIDER_LOCK_MIN", 15)) * time.Minute,

		CatalogTTL: time.Duration(getEnvAsInt("CATALOG_TTL_SEC", 300)) * time.Second,

		SearchCacheSize: getEnvAsInt("SEARCH_CACHE_SIZE", 100),

		CommissionRate:         getEnvAsFloat("COMMISSION_RATE", 0.05),
		CommissionType:         getEnv("COMMISSION_TYPE", "percentage"),
		CommissionIncludesFees: getEnvAsBool("COMMISSION_INCLUDES_FEES", true),

		ServiceName: getEnv("SERVICE_NAME", "marketplace-core"),
		InstanceID:  getEnv("INSTANCE_ID", uuid.New().String()[:8]),
		Environment: getEnv("ENVIRONMENT", "development"),
	}
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}
