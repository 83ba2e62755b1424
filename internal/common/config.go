package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	Redis     RedisConfig
	STT       STTConfig
	LLM       LLMConfig
	Assets    AssetConfig
	RateLimit RateLimitConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr            string
	JWTSecret       string
	ShutdownTimeout time.Duration
}

// RedisConfig holds the rate limiter backend configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// STTConfig holds speech-to-text provider configuration
type STTConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// LLMConfig holds text-generation provider configuration
type LLMConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// AssetConfig holds audio asset store configuration
type AssetConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// RateLimitConfig bounds the provider-calling stages per user.
type RateLimitConfig struct {
	MaxCalls int
	Window   time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:             getEnv("DB_URL", ""),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Server: ServerConfig{
			Addr:            getEnv("HTTP_ADDR", ":8080"),
			JWTSecret:       getEnv("JWT_SECRET", ""),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		STT: STTConfig{
			BaseURL: getEnv("STT_BASE_URL", "https://api.openai.com/v1"),
			APIKey:  getEnv("STT_API_KEY", os.Getenv("OPENAI_API_KEY")),
			Model:   getEnv("STT_MODEL", "whisper-1"),
			Timeout: getEnvAsDuration("STT_TIMEOUT", 60*time.Second),
		},
		LLM: LLMConfig{
			BaseURL:     getEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
			APIKey:      getEnv("LLM_API_KEY", os.Getenv("OPENAI_API_KEY")),
			Model:       getEnv("LLM_MODEL", "gpt-4o-mini"),
			Temperature: getEnvAsFloat32("LLM_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("LLM_TIMEOUT", 45*time.Second),
		},
		Assets: AssetConfig{
			BaseURL: getEnv("ASSET_BASE_URL", ""),
			Token:   getEnv("ASSET_TOKEN", ""),
			Timeout: getEnvAsDuration("ASSET_TIMEOUT", 30*time.Second),
		},
		RateLimit: RateLimitConfig{
			MaxCalls: getEnvAsInt("RATE_LIMIT_MAX_CALLS", 10),
			Window:   getEnvAsDuration("RATE_LIMIT_WINDOW", 10*time.Minute),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError(CodeConfigError, "DB_URL is required", ErrInvalidInput)
	}
	if c.Server.JWTSecret == "" {
		return NewAppError(CodeConfigError, "JWT_SECRET is required", ErrInvalidInput)
	}
	if c.LLM.APIKey == "" {
		return NewAppError(CodeConfigError, "LLM_API_KEY is required", ErrInvalidInput)
	}
	if c.STT.APIKey == "" {
		return NewAppError(CodeConfigError, "STT_API_KEY is required", ErrInvalidInput)
	}
	return nil
}
