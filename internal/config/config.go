package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Common
	Environment string
	LogLevel    string

	// Redis
	Redis RedisConfig

	// Market Data
	Upbit UpbitConfig

	// Services
	Scanner   ScannerConfig
	PriceSync PriceSyncConfig
	Store     StoreConfig
	API       APIConfig
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host         string
	Port         int
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
}

// UpbitConfig holds exchange REST and websocket configuration
type UpbitConfig struct {
	BaseURL            string
	WebSocketURL       string
	QuoteCurrency      string
	RequestTimeout     time.Duration
	MinRequestInterval time.Duration // Spacing between consecutive REST calls
}

// ScannerConfig holds market scan configuration
type ScannerConfig struct {
	Port              int
	ScanInterval      time.Duration
	MaxScanTime       time.Duration
	WorkerCount       int
	SnapshotBatchSize int
	ChangeRateBand    float64 // Stage 1 keeps |signed_change_rate| <= band
	DailyCandles      int
	HourlyCandles     int
	MAWindow          int
	TopN              int
	ExcludeMarkets    []string // Markets never scanned, e.g. delisting candidates
}

// PriceSyncConfig holds live price refresh configuration
type PriceSyncConfig struct {
	Enabled  bool
	Interval time.Duration
	Mode     string // "poll" or "stream"
}

// StoreConfig holds recommendation snapshot store configuration
type StoreConfig struct {
	Type string // "memory" or "redis"
	TTL  time.Duration
}

// APIConfig holds REST API configuration
type APIConfig struct {
	Port         int
	RateLimitRPS int
}

// Load loads configuration from environment variables
// It automatically loads .env file if it exists in the current directory
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnvAsInt("REDIS_PORT", 6379),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvAsInt("REDIS_MIN_IDLE_CONNS", 2),
		},
		Upbit: UpbitConfig{
			BaseURL:            getEnv("UPBIT_BASE_URL", "https://api.upbit.com"),
			WebSocketURL:       getEnv("UPBIT_WS_URL", "wss://api.upbit.com/websocket/v1"),
			QuoteCurrency:      getEnv("UPBIT_QUOTE_CURRENCY", "KRW"),
			RequestTimeout:     getEnvAsDuration("UPBIT_REQUEST_TIMEOUT", 10*time.Second),
			MinRequestInterval: getEnvAsDuration("UPBIT_MIN_REQUEST_INTERVAL", 120*time.Millisecond),
		},
		Scanner: ScannerConfig{
			Port:              getEnvAsInt("SCANNER_PORT", 8086),
			ScanInterval:      getEnvAsDuration("SCANNER_SCAN_INTERVAL", 1*time.Hour),
			MaxScanTime:       getEnvAsDuration("SCANNER_MAX_SCAN_TIME", 10*time.Minute),
			WorkerCount:       getEnvAsInt("SCANNER_WORKER_COUNT", 8),
			SnapshotBatchSize: getEnvAsInt("SCANNER_SNAPSHOT_BATCH_SIZE", 100),
			ChangeRateBand:    getEnvAsFloat("SCANNER_CHANGE_RATE_BAND", 0.02),
			DailyCandles:      getEnvAsInt("SCANNER_DAILY_CANDLES", 50),
			HourlyCandles:     getEnvAsInt("SCANNER_HOURLY_CANDLES", 20),
			MAWindow:          getEnvAsInt("SCANNER_MA_WINDOW", 10),
			TopN:              getEnvAsInt("SCANNER_TOP_N", 5),
			ExcludeMarkets:    getEnvAsStringSlice("SCANNER_EXCLUDE_MARKETS", []string{}),
		},
		PriceSync: PriceSyncConfig{
			Enabled:  getEnvAsBool("PRICE_SYNC_ENABLED", true),
			Interval: getEnvAsDuration("PRICE_SYNC_INTERVAL", 30*time.Second),
			Mode:     getEnv("PRICE_SYNC_MODE", "poll"),
		},
		Store: StoreConfig{
			Type: getEnv("STORE_TYPE", "memory"),
			TTL:  getEnvAsDuration("STORE_TTL", 2*time.Hour),
		},
		API: APIConfig{
			Port:         getEnvAsInt("API_PORT", 8090),
			RateLimitRPS: getEnvAsInt("API_RATE_LIMIT_RPS", 100),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Upbit.BaseURL == "" {
		return fmt.Errorf("UPBIT_BASE_URL is required")
	}
	if c.Upbit.QuoteCurrency == "" {
		return fmt.Errorf("UPBIT_QUOTE_CURRENCY is required")
	}
	if c.Scanner.WorkerCount < 1 {
		return fmt.Errorf("SCANNER_WORKER_COUNT must be at least 1")
	}
	if c.Scanner.SnapshotBatchSize < 1 || c.Scanner.SnapshotBatchSize > 100 {
		return fmt.Errorf("SCANNER_SNAPSHOT_BATCH_SIZE must be between 1 and 100")
	}
	if c.Scanner.ChangeRateBand < 0 {
		return fmt.Errorf("SCANNER_CHANGE_RATE_BAND must not be negative")
	}
	if c.Scanner.HourlyCandles < c.Scanner.MAWindow+1 {
		return fmt.Errorf("SCANNER_HOURLY_CANDLES must exceed SCANNER_MA_WINDOW")
	}
	if c.Scanner.DailyCandles < 2 {
		return fmt.Errorf("SCANNER_DAILY_CANDLES must be at least 2")
	}
	if c.Scanner.TopN < 1 {
		return fmt.Errorf("SCANNER_TOP_N must be at least 1")
	}
	if c.PriceSync.Mode != "poll" && c.PriceSync.Mode != "stream" {
		return fmt.Errorf("PRICE_SYNC_MODE must be \"poll\" or \"stream\"")
	}
	if c.Store.Type != "memory" && c.Store.Type != "redis" {
		return fmt.Errorf("STORE_TYPE must be \"memory\" or \"redis\"")
	}
	if c.Store.Type == "redis" && c.Redis.Host == "" {
		return fmt.Errorf("REDIS_HOST is required when STORE_TYPE=redis")
	}
	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return floatValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}

func getEnvAsStringSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
