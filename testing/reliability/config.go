package reliability

import (
	"os"
	"strconv"
	"time"
)

// ReliabilityConfig holds configuration for reliability testing.
type ReliabilityConfig struct {
	Level    string        // "basic" or "stress"
	Duration time.Duration // Upper bound for stress loops
	MaxDepth int           // Deepest nesting exercised
	Seed     int64         // Seed for random operation sequences
}

// getReliabilityConfig reads configuration from environment variables.
func getReliabilityConfig() ReliabilityConfig {
	return ReliabilityConfig{
		Level:    getEnv("SPANZ_RELIABILITY_LEVEL", ""),
		Duration: parseDuration(getEnv("SPANZ_RELIABILITY_DURATION", "5s")),
		MaxDepth: parseInt(getEnv("SPANZ_RELIABILITY_MAX_DEPTH", "10000"), 10000),
		Seed:     int64(parseInt(getEnv("SPANZ_RELIABILITY_SEED", "1"), 1)),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(s string, fallback int) int {
	if value, err := strconv.Atoi(s); err == nil {
		return value
	}
	return fallback
}

func parseDuration(s string) time.Duration {
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return 5 * time.Second
}

// isStressTestEnabled reports whether the long-running variants should run.
func isStressTestEnabled() bool {
	return os.Getenv("SPANZ_RELIABILITY_LEVEL") == "stress"
}

// shouldSkipReliabilityTests reports whether no reliability level is set.
func shouldSkipReliabilityTests() bool {
	return os.Getenv("SPANZ_RELIABILITY_LEVEL") == ""
}
