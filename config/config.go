package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"orbbot/internal/adapters/logger" // Import the logger package for LogLevel
	"orbbot/internal/session"
)

// Config holds all application configuration.
type Config struct {
	// Binance API
	APIKey    string
	SecretKey string
	IsTestnet bool

	// Market
	Symbol         string
	CandleInterval string
	PollInterval   time.Duration
	Timezone       *time.Location

	// Session boundaries, minutes since midnight in the trading timezone
	CalcStart    int
	CalcEnd      int
	NoNewEntries int
	ResetTime    int

	// Range validity band in quote-asset price units
	MinRange float64
	MaxRange float64

	// Trading Parameters
	MaxBreakoutsPerDay int
	BaseCapital        float64

	// Leverage tiers
	BaseLeverage       int
	AggressiveLeverage int
	ReducedLeverage    int
	AdaptiveLeverage   bool

	// Gateway recovery
	ReconnectDelay       time.Duration
	MaxReconnectAttempts int

	// Persistence
	DBPath       string
	SnapshotPath string

	// Logging
	LogLevel logger.LogLevel // Use the LogLevel type from the logger adapter
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	// Binance API
	cfg.APIKey = getEnv("BINANCE_API_KEY", "")
	cfg.SecretKey = getEnv("BINANCE_API_SECRET", "")
	cfg.IsTestnet = getEnvAsBool("IS_TESTNET", true) // Default to testnet for safety

	if cfg.APIKey == "" {
		errs = append(errs, "BINANCE_API_KEY must be set")
	}
	if cfg.SecretKey == "" {
		errs = append(errs, "BINANCE_API_SECRET must be set")
	}

	// Market
	cfg.Symbol = getEnv("SYMBOL", "BTCUSDT")
	if cfg.Symbol == "" {
		errs = append(errs, "SYMBOL must be set")
	}
	cfg.CandleInterval = getEnv("CANDLE_INTERVAL", "5m")

	pollSeconds := getEnvAsInt("POLL_INTERVAL_SECONDS", 30)
	if pollSeconds <= 0 {
		errs = append(errs, "POLL_INTERVAL_SECONDS must be positive")
	}
	cfg.PollInterval = time.Duration(pollSeconds) * time.Second

	tzName := getEnv("TIMEZONE", "Asia/Kolkata")
	cfg.Timezone, err = time.LoadLocation(tzName)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid TIMEZONE %q: %v", tzName, err))
	}

	// Session boundaries
	cfg.CalcStart = parseClock("CALC_START", "05:30", &errs)
	cfg.CalcEnd = parseClock("CALC_END", "06:00", &errs)
	cfg.NoNewEntries = parseClock("NO_NEW_ENTRIES", "14:00", &errs)
	cfg.ResetTime = parseClock("RESET_TIME", "05:00", &errs)

	// Range validity band
	cfg.MinRange, err = getEnvAsFloatRequired("MIN_RANGE", 300.0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MIN_RANGE: %v", err))
	} else if cfg.MinRange < 0 {
		errs = append(errs, "MIN_RANGE cannot be negative")
	}

	cfg.MaxRange, err = getEnvAsFloatRequired("MAX_RANGE", 900.0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MAX_RANGE: %v", err))
	} else if cfg.MaxRange < cfg.MinRange {
		errs = append(errs, "MAX_RANGE must be at least MIN_RANGE")
	}

	// Trading Parameters
	cfg.MaxBreakoutsPerDay, err = getEnvAsIntRequired("MAX_BREAKOUTS_PER_DAY", 4)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MAX_BREAKOUTS_PER_DAY: %v", err))
	} else if cfg.MaxBreakoutsPerDay <= 0 {
		errs = append(errs, "MAX_BREAKOUTS_PER_DAY must be positive")
	}

	cfg.BaseCapital, err = getEnvAsFloatRequired("BASE_CAPITAL", 1000.0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid BASE_CAPITAL: %v", err))
	} else if cfg.BaseCapital <= 0 {
		errs = append(errs, "BASE_CAPITAL must be positive")
	}

	// Leverage tiers
	cfg.BaseLeverage, err = getEnvAsIntRequired("BASE_LEVERAGE", 10)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid BASE_LEVERAGE: %v", err))
	}
	cfg.AggressiveLeverage, err = getEnvAsIntRequired("AGGRESSIVE_LEVERAGE", 15)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid AGGRESSIVE_LEVERAGE: %v", err))
	}
	cfg.ReducedLeverage, err = getEnvAsIntRequired("REDUCED_LEVERAGE", 5)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid REDUCED_LEVERAGE: %v", err))
	}
	if cfg.BaseLeverage <= 0 || cfg.AggressiveLeverage <= 0 || cfg.ReducedLeverage <= 0 {
		errs = append(errs, "leverage tiers must be positive")
	}
	cfg.AdaptiveLeverage = getEnvAsBool("ADAPTIVE_LEVERAGE", false)

	// Gateway recovery
	reconnectSeconds := getEnvAsInt("RECONNECT_DELAY_SECONDS", 5)
	if reconnectSeconds <= 0 {
		errs = append(errs, "RECONNECT_DELAY_SECONDS must be positive")
	}
	cfg.ReconnectDelay = time.Duration(reconnectSeconds) * time.Second
	cfg.MaxReconnectAttempts = getEnvAsInt("MAX_RECONNECT_ATTEMPTS", 5)
	if cfg.MaxReconnectAttempts <= 0 {
		errs = append(errs, "MAX_RECONNECT_ATTEMPTS must be positive")
	}

	// Persistence
	cfg.DBPath = getEnv("DB_PATH", "./data/orb_bot.db")
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}
	cfg.SnapshotPath = getEnv("SNAPSHOT_PATH", "./data/state_snapshot.json")
	if cfg.SnapshotPath == "" {
		errs = append(errs, "SNAPSHOT_PATH must be set")
	}

	// Logging
	logLevelStr := getEnv("LOG_LEVEL", "INFO")
	cfg.LogLevel = logger.ParseLevel(logLevelStr) // Use the parser from the logger package

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// parseClock reads an "HH:MM" boundary, collecting any parse error.
func parseClock(key, defaultValue string, errs *[]string) int {
	valueStr := getEnv(key, defaultValue)
	minutes, err := session.ParseClockTime(valueStr)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("invalid %s: %v", key, err))
		return 0
	}
	return minutes
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		// Use default if env var is not set at all
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		// Return error if env var is set but invalid
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsFloatRequired(key string, defaultValue float64) (float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
