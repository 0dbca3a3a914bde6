package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds all configuration for the dataset pipeline
type Config struct {
	// Generation settings
	OutputDir          string
	TargetCount        int
	MaxAttempts        int
	Seed               int64 // 0 means seed from the clock
	StabilityThreshold float64
	SamplingFile       string

	// Dataset preparation settings
	WindowSize           int
	TestFraction         float64
	Downcast             bool
	PerSimulationWindows bool
	AssembleWorkers      int

	// Storage and serving
	DBPath   string
	HTTPPort int

	// Remote publishing
	SupabaseURL string
	SupabaseKey string

	// Logging
	LogLevel string
}

// Load reads configuration from environment variables with defaults
func Load() (*Config, error) {
	cfg := &Config{
		// Generation settings
		OutputDir:          getEnvOrDefault("OUTPUT_DIR", "dataset"),
		TargetCount:        getEnvAsIntOrDefault("TARGET_COUNT", 5),
		MaxAttempts:        getEnvAsIntOrDefault("MAX_ATTEMPTS", 0),
		Seed:               getEnvAsInt64OrDefault("SEED", 0),
		StabilityThreshold: getEnvAsFloatOrDefault("STABILITY_THRESHOLD", 1.0),
		SamplingFile:       getEnvOrDefault("SAMPLING_FILE", ""),

		// Dataset preparation settings
		WindowSize:           getEnvAsIntOrDefault("WINDOW_SIZE", 30),
		TestFraction:         getEnvAsFloatOrDefault("TEST_FRACTION", 0.2),
		Downcast:             getEnvAsBoolOrDefault("DOWNCAST", true),
		PerSimulationWindows: getEnvAsBoolOrDefault("PER_SIMULATION_WINDOWS", false),
		AssembleWorkers:      getEnvAsIntOrDefault("ASSEMBLE_WORKERS", 4),

		// Storage and serving
		DBPath:   getEnvOrDefault("DB_PATH", "rockets.db"),
		HTTPPort: getEnvAsIntOrDefault("HTTP_PORT", 8081),

		// Remote publishing
		SupabaseURL: getEnvOrDefault("SUPABASE_URL", ""),
		SupabaseKey: getEnvOrDefault("SUPABASE_KEY", ""),

		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
