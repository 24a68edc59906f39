package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Database configuration
	DatabaseHost     string
	DatabasePort     string
	DatabaseName     string
	DatabaseUser     string
	DatabasePassword string

	// Redis configuration
	RedisHost     string
	RedisPassword string
	RedisPort     string

	// Provider configuration
	Providers ProviderConfig

	// Analysis configuration
	Analysis AnalysisConfig
}

// ProviderConfig holds upstream data source settings
type ProviderConfig struct {
	AlphaVantageAPIKey string
	AlphaVantageBudget int // requests per day allowed by the free tier

	// Retry policy
	MaxAttempts       int
	BaseDelay         time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
	JitterFactor      float64

	// Circuit breaker
	FailureThreshold int
	RecoveryTime     time.Duration
}

// AnalysisConfig holds quantitative engine parameters and thresholds
type AnalysisConfig struct {
	// Streak detection. DeclineTolerance is the primary non-decrease
	// tolerance; NoiseTolerance is the secondary threshold under which a
	// single-year dip followed by a recovery is treated as data noise.
	DeclineTolerance float64
	NoiseTolerance   float64

	// Valuation
	RequiredReturn float64

	// Close-price history window for indicators (EMA200 needs ~1 year)
	PriceLookbackYears int

	// Cache freshness
	CacheMaxAge time.Duration
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	// Load .env file if exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		// Database configuration
		DatabaseHost:     getEnvOrDefault("DB_HOST", "localhost"),
		DatabasePort:     getEnvOrDefault("DB_PORT", "5432"),
		DatabaseName:     getEnvOrDefault("DB_NAME", "divscope"),
		DatabaseUser:     getEnvOrDefault("DB_USER", "divscope"),
		DatabasePassword: getEnvOrDefault("DB_PASSWORD", "divscope123"),

		// Redis configuration
		RedisHost:     getEnvOrDefault("REDIS_HOST", "localhost"),
		RedisPort:     getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword: getEnvOrDefault("REDIS_PASSWORD", ""),

		Providers: ProviderConfig{
			AlphaVantageAPIKey: os.Getenv("ALPHAVANTAGE_API_KEY"),
			AlphaVantageBudget: getEnvInt("ALPHAVANTAGE_DAILY_BUDGET", 25),

			MaxAttempts:       getEnvInt("PROVIDER_MAX_ATTEMPTS", 3),
			BaseDelay:         time.Duration(getEnvInt("PROVIDER_BASE_DELAY_MS", 500)) * time.Millisecond,
			MaxDelay:          time.Duration(getEnvInt("PROVIDER_MAX_DELAY_MS", 8000)) * time.Millisecond,
			BackoffMultiplier: getEnvFloat("PROVIDER_BACKOFF_MULTIPLIER", 2.0),
			JitterFactor:      getEnvFloat("PROVIDER_JITTER_FACTOR", 0.25),

			FailureThreshold: getEnvInt("BREAKER_FAILURE_THRESHOLD", 5),
			RecoveryTime:     time.Duration(getEnvInt("BREAKER_RECOVERY_SECONDS", 60)) * time.Second,
		},

		Analysis: AnalysisConfig{
			DeclineTolerance:   getEnvFloat("ANALYSIS_DECLINE_TOLERANCE", 0.02),
			NoiseTolerance:     getEnvFloat("ANALYSIS_NOISE_TOLERANCE", 0.05),
			RequiredReturn:     getEnvFloat("ANALYSIS_REQUIRED_RETURN", 0.09),
			PriceLookbackYears: getEnvInt("ANALYSIS_PRICE_LOOKBACK_YEARS", 2),
			CacheMaxAge:        time.Duration(getEnvInt("CACHE_MAX_AGE_HOURS", 24)) * time.Hour,
		},
	}
}

// getEnvInt gets environment variable as int or returns default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var intValue int
	if _, err := fmt.Sscanf(value, "%d", &intValue); err != nil {
		return defaultValue
	}
	return intValue
}

// getEnvFloat gets environment variable as float64 or returns default value
func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var floatValue float64
	if _, err := fmt.Sscanf(value, "%f", &floatValue); err != nil {
		return defaultValue
	}
	return floatValue
}

// getEnvOrDefault gets environment variable or returns default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
