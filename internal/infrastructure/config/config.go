// internal/infrastructure/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// App
	AppVersion string

	// Metrics server
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// RabbitMQ
	AMQPHost     string
	AMQPPort     int
	AMQPUser     string
	AMQPPassword string
	AMQPQueue    string
	Prefetch     int

	// Inventory provider
	ProviderBaseURL  string
	ProviderLogin    string
	ProviderPassword string

	// Backoffice
	BackofficeURL string
	BackofficeKey string

	// Provider client behavior
	RateQuota      int
	RateWindow     time.Duration
	RatePoll       time.Duration
	MaxRetries     int
	RequestTimeout time.Duration

	// Logging
	LogLevel string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	// Set defaults and override with env vars
	config := &Config{
		AppVersion:   getEnv("APP_VERSION", "1.0.0"),
		Port:         getEnv("PORT", "8080"),
		ReadTimeout:  time.Duration(getEnvAsInt("READ_TIMEOUT", 30)) * time.Second,
		WriteTimeout: time.Duration(getEnvAsInt("WRITE_TIMEOUT", 30)) * time.Second,

		AMQPHost:     getEnv("AMQP_HOST", "localhost"),
		AMQPPort:     getEnvAsInt("AMQP_PORT", 5672),
		AMQPUser:     getEnv("AMQP_USER", "guest"),
		AMQPPassword: getEnv("AMQP_PASSWORD", "guest"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "booking-requests"),
		Prefetch:     getEnvAsInt("AMQP_PREFETCH", 8),

		ProviderBaseURL:  getEnv("PROVIDER_BASE_URL", "http://84.252.135.231"),
		ProviderLogin:    getEnv("PROVIDER_LOGIN", ""),
		ProviderPassword: getEnv("PROVIDER_PASSWORD", ""),

		BackofficeURL: getEnv("BACKOFFICE_URL", "https://api.t-app.ru/ax-train/booked-tickets/"),
		BackofficeKey: getEnv("BACKOFFICE_X_KEY", ""),

		RateQuota:      getEnvAsInt("RATE_QUOTA", 2),
		RateWindow:     time.Duration(getEnvAsInt("RATE_WINDOW_MS", 1000)) * time.Millisecond,
		RatePoll:       time.Duration(getEnvAsInt("RATE_POLL_MS", 100)) * time.Millisecond,
		MaxRetries:     getEnvAsInt("MAX_RETRY_COUNT", 5),
		RequestTimeout: time.Duration(getEnvAsInt("REQUEST_TIMEOUT", 60)) * time.Second,

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return config, nil
}

// AMQPURL composes the broker connection URL from its parts
func (c *Config) AMQPURL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d", c.AMQPUser, c.AMQPPassword, c.AMQPHost, c.AMQPPort)
}

// Helper functions to get environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
