// Package env provides centralized environment variable management.
package env

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration from environment variables.
type Config struct {
	// Server configuration
	Port      string
	RateLimit int
	JWTSecret string

	// Board/fleet defaults (spec §3)
	BoardWidth      int
	BoardHeight     int
	ShipMargin      int
	FleetDefinition string

	// Connection tracker / cleaner (spec §6)
	DisconnectGracePeriod    time.Duration
	ConnectionCleanupInterval time.Duration
	ConnectionStaleThreshold  time.Duration
	SchedulerPoolSize         int
}

// LoadServerConfig loads configuration required for the HTTP server.
func LoadServerConfig() (*Config, error) {
	cfg := &Config{
		Port:      getEnvOrDefault("PORT", "8080"),
		RateLimit: getEnvAsIntOrDefault("RATE_LIMIT", 20),
		JWTSecret: getEnvOrDefault("JWT_SECRET", "secret"),

		BoardWidth:      getEnvAsIntOrDefault("BOARD_WIDTH", 10),
		BoardHeight:     getEnvAsIntOrDefault("BOARD_HEIGHT", 10),
		ShipMargin:      getEnvAsIntOrDefault("SHIP_MARGIN", 2),
		FleetDefinition: getEnvOrDefault("FLEET_DEFINITION", "2x2,2x3,1x4,1x5"),

		DisconnectGracePeriod:     time.Duration(getEnvAsIntOrDefault("DISCONNECT_GRACE_PERIOD_MS", 10_000)) * time.Millisecond,
		ConnectionCleanupInterval: time.Duration(getEnvAsIntOrDefault("CONNECTION_CLEANUP_INTERVAL_MS", 3_600_000)) * time.Millisecond,
		ConnectionStaleThreshold:  time.Duration(getEnvAsIntOrDefault("CONNECTION_CLEANUP_THRESHOLD_HOURS", 24)) * time.Hour,
		SchedulerPoolSize:         getEnvAsIntOrDefault("SCHEDULER_POOL_SIZE", 5),
	}

	return cfg, nil
}

// Helper functions

func getEnvOrDefault(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultValue
}
