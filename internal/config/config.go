package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port      int
	LogLevel  string
	Env       string
	DB        DBConfig
	Kafka     KafkaConfig
	Inventory InventoryConfig
	RateLimit RateLimitConfig
}

// DBConfig holds the database configuration
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// KafkaConfig holds the Kafka broker and topic configuration
type KafkaConfig struct {
	Brokers            []string
	EventsTopic        string
	NotificationsTopic string
	ConsumerGroup      string
}

// InventoryConfig points at the external inventory service used for
// material reservations
type InventoryConfig struct {
	BaseURL string
}

// RateLimitConfig holds the HTTP rate limiting knobs
type RateLimitConfig struct {
	GlobalMaxTokens  float64
	GlobalRefillRate float64
	ClientMaxTokens  float64
	ClientRefillRate float64
}

// getEnv retrieves the value of an environment variable or returns a default value if not set.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	raw, exists := os.LookupEnv(key)

	if !exists {
		return defaultValue, nil
	}

	value, err := strconv.ParseFloat(raw, 64)

	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return value, nil
}

// Load reads the configuration from environment variables and returns a Config struct.
func Load() (*Config, error) {
	port, err := strconv.Atoi(getEnv("PORT", "8080"))

	if err != nil {
		return nil, fmt.Errorf("invalid port: %w", err)
	}

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))

	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	globalTokens, err := getEnvFloat("RATE_LIMIT_GLOBAL_TOKENS", 200)

	if err != nil {
		return nil, err
	}

	globalRefill, err := getEnvFloat("RATE_LIMIT_GLOBAL_REFILL", 100)

	if err != nil {
		return nil, err
	}

	clientTokens, err := getEnvFloat("RATE_LIMIT_CLIENT_TOKENS", 20)

	if err != nil {
		return nil, err
	}

	clientRefill, err := getEnvFloat("RATE_LIMIT_CLIENT_REFILL", 10)

	if err != nil {
		return nil, err
	}

	return &Config{
		Port:     port,
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Env:      getEnv("APP_ENV", "development"),
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "printshop"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Kafka: KafkaConfig{
			Brokers:            strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			EventsTopic:        getEnv("KAFKA_EVENTS_TOPIC", "workflow-events"),
			NotificationsTopic: getEnv("KAFKA_NOTIFICATIONS_TOPIC", "user-notifications"),
			ConsumerGroup:      getEnv("KAFKA_CONSUMER_GROUP", "order-workflow-api"),
		},
		Inventory: InventoryConfig{
			BaseURL: getEnv("INVENTORY_SERVICE_URL", "http://localhost:8081"),
		},
		RateLimit: RateLimitConfig{
			GlobalMaxTokens:  globalTokens,
			GlobalRefillRate: globalRefill,
			ClientMaxTokens:  clientTokens,
			ClientRefillRate: clientRefill,
		},
	}, nil
}

// GetDBConnString returns the database connection string
func (c *Config) GetDBConnString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Name, c.DB.SSLMode)
}
