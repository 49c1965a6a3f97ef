// Package config loads the service settings from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	ServiceName string
	Env         string
	LogLevel    string
	HTTPAddr    string

	Storage     string
	DatabaseURL string

	// RedisAddr enables the customer cache when set.
	RedisAddr        string
	CustomerCacheTTL time.Duration

	// KafkaBrokers enables relaying outbox events to KafkaTopic when set.
	KafkaBrokers []string
	KafkaTopic   string

	OTLPEndpoint string

	LowStockThreshold int
	ShutdownTimeout   time.Duration
}

// Load reads the configuration once at startup. Unset variables take their defaults;
// malformed numbers and durations are errors.
func Load() (*Config, error) {
	cfg := &Config{
		ServiceName:  getenvDefault("SERVICE_NAME", "minishop-orders"),
		Env:          getenvDefault("ENV", "dev"),
		LogLevel:     getenvDefault("LOG_LEVEL", "info"),
		HTTPAddr:     getenvDefault("HTTP_ADDR", ":8080"),
		Storage:      strings.ToLower(getenvDefault("STORAGE", StorageMemory)),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		KafkaBrokers: splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   getenvDefault("KAFKA_TOPIC", "orders.created"),
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	var err error
	if cfg.CustomerCacheTTL, err = durationEnv("CUSTOMER_CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = durationEnv("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.LowStockThreshold, err = intEnv("LOW_STOCK_THRESHOLD", 5); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Storage {
	case StorageMemory:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config: DATABASE_URL is required when STORAGE=%s", StoragePostgres)
		}
	default:
		return fmt.Errorf("config: unknown STORAGE %q", c.Storage)
	}
	if c.LowStockThreshold < 0 {
		return fmt.Errorf("config: LOW_STOCK_THRESHOLD must not be negative")
	}
	if c.CustomerCacheTTL <= 0 {
		return fmt.Errorf("config: CUSTOMER_CACHE_TTL must be positive")
	}
	return nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
