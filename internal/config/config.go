package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Snapshot persistence
	DataBackend  string
	SQLiteDBPath string

	// Remote budgeting service
	ServiceBaseURL string
	ServiceToken   string
	ServiceTimeout time.Duration

	// AMQP
	AMQPURL          string
	AMQPExchange     string
	AMQPRequestQueue string
	AMQPSyncedQueue  string

	// Worker
	SyncInterval time.Duration
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8081"),

		DataBackend:  getEnv("DATA_BACKEND", "memory"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/budgetview.db"),

		ServiceBaseURL: getEnv("SERVICE_BASE_URL", "https://api.youneedabudget.com/v1"),
		ServiceToken:   getEnv("SERVICE_TOKEN", ""),
		ServiceTimeout: getEnvDuration("SERVICE_TIMEOUT", 30*time.Second),

		AMQPURL:          getEnv("AMQP_URL", ""),
		AMQPExchange:     getEnv("AMQP_EXCHANGE", "budgetview"),
		AMQPRequestQueue: getEnv("AMQP_REQUEST_QUEUE", "refresh_requests"),
		AMQPSyncedQueue:  getEnv("AMQP_SYNCED_QUEUE", "budget_synced"),

		SyncInterval: getEnvDuration("SYNC_INTERVAL", 15*time.Minute),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DataBackend {
	case "memory", "sqlite":
	default:
		errs = append(errs, fmt.Sprintf("invalid data backend '%s': must be one of [memory sqlite]", c.DataBackend))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errs = append(errs, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errs = append(errs, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.ServiceToken == "" {
		errs = append(errs, "SERVICE_TOKEN is required to talk to the budgeting service")
	}
	if parsed, err := url.Parse(c.ServiceBaseURL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		errs = append(errs, fmt.Sprintf("invalid service base URL '%s'", c.ServiceBaseURL))
	}
	if c.ServiceTimeout < time.Second || c.ServiceTimeout > 5*time.Minute {
		errs = append(errs, fmt.Sprintf("invalid service timeout %v: must be between 1s and 5m", c.ServiceTimeout))
	}

	if c.AMQPURL != "" {
		if parsed, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsed.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPRequestQueue == "" || c.AMQPSyncedQueue == "" {
			errs = append(errs, "AMQP queue names cannot be empty when AMQP URL is provided")
		}
	}

	if c.SyncInterval < time.Second {
		errs = append(errs, fmt.Sprintf("invalid sync interval %v: must be at least 1 second", c.SyncInterval))
	} else if c.SyncInterval > 24*time.Hour {
		errs = append(errs, fmt.Sprintf("invalid sync interval %v: must be at most 24 hours", c.SyncInterval))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
