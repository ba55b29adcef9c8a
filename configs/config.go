package configs

import (
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	MarketData MarketDataConfig
	Trading    TradingConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// MarketDataConfig holds market data provider configuration
type MarketDataConfig struct {
	BaseURL  string
	APIKey   string
	QuoteTTL time.Duration
}

// TradingConfig holds trading defaults
type TradingConfig struct {
	StartingCash decimal.Decimal
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("GO_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		MarketData: MarketDataConfig{
			BaseURL:  getEnv("ALPHA_VANTAGE_BASE_URL", "https://www.alphavantage.co/query"),
			APIKey:   getEnv("ALPHA_VANTAGE_API_KEY", ""),
			QuoteTTL: time.Duration(getEnvInt("QUOTE_CACHE_TTL_SECONDS", 60)) * time.Second,
		},
		Trading: TradingConfig{
			StartingCash: getEnvDecimal("STARTING_CASH_BALANCE", decimal.NewFromInt(100000)),
		},
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// getEnvDecimal gets a decimal environment variable or returns a default value
func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := decimal.NewFromString(value)
	if err != nil || parsed.LessThanOrEqual(decimal.Zero) {
		return defaultValue
	}
	return parsed
}
