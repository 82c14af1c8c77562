// Package config loads engine configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	Addr   string
	DBPath string

	// BillingURL is the entitlement endpoint of the remote billing
	// service. Empty disables remote checks and the engine stays writable.
	BillingURL   string
	BillingToken string

	// EntitlementRefresh is the background poll interval.
	EntitlementRefresh time.Duration

	// DefaultNumberPrefix seeds the settings singleton on first start.
	DefaultNumberPrefix string

	PerfRingSize int
}

// Load reads configuration from COURSEDESK_* environment variables.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using system environment")
	}

	return Config{
		Addr:                getEnv("COURSEDESK_ADDR", ":8090"),
		DBPath:              getEnv("COURSEDESK_DB", "coursedesk.db"),
		BillingURL:          getEnv("COURSEDESK_BILLING_URL", ""),
		BillingToken:        getEnv("COURSEDESK_BILLING_TOKEN", ""),
		EntitlementRefresh:  time.Duration(getEnvInt("COURSEDESK_ENTITLEMENT_REFRESH_SEC", 120)) * time.Second,
		DefaultNumberPrefix: getEnv("COURSEDESK_NUMBER_PREFIX", "3534"),
		PerfRingSize:        getEnvInt("COURSEDESK_PERF_RING", 0),
	}
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the
// default.
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("bad integer in %s: %v", key, err)
		return defaultValue
	}
	return intValue
}
