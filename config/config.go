// Package config loads server configuration from the environment.
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
	StorageDynamo = "dynamo"

	QueueMemory = "memory"
	QueueSQS    = "sqs"

	BrokerMemory = "memory"
	BrokerRedis  = "redis"
)

type Config struct {
	Port          string
	DevMode       bool
	AllowedOrigin string

	StorageBackend string
	QueueBackend   string
	BrokerBackend  string

	RedisEndpoint    string
	DynamoDBEndpoint string
	DynamoDBTable    string
	SQSEndpoint      string
	SQSReplyQueue    string

	// ShareSecret signs share links. Base64 in SHARE_SECRET.
	ShareSecret []byte
	ReplyDelay  time.Duration
}

// Load reads configuration from environment variables. Callers that want
// a .env file should load it with godotenv first.
func Load() (*Config, error) {
	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		DevMode:          getEnvBool("DEV_MODE", false),
		AllowedOrigin:    getEnv("ALLOWED_ORIGIN", ""),
		StorageBackend:   strings.ToLower(getEnv("STORAGE_BACKEND", StorageMemory)),
		QueueBackend:     strings.ToLower(getEnv("QUEUE_BACKEND", QueueMemory)),
		BrokerBackend:    strings.ToLower(getEnv("BROKER_BACKEND", BrokerMemory)),
		RedisEndpoint:    getEnv("REDIS_ENDPOINT", ""),
		DynamoDBEndpoint: getEnv("DYNAMODB_ENDPOINT", ""),
		DynamoDBTable:    getEnv("DYNAMODB_TABLE", "Cocreate"),
		SQSEndpoint:      getEnv("SQS_ENDPOINT", ""),
		SQSReplyQueue:    getEnv("SQS_REPLY_QUEUE", "CocreateReplyQueue"),
		ReplyDelay:       getEnvDuration("REPLY_DELAY", time.Second),
	}

	if raw := getEnv("SHARE_SECRET", ""); raw != "" {
		secret, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid configuration: SHARE_SECRET is not base64: %w", err)
		}
		cfg.ShareSecret = secret
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.ReplyDelay < 0 {
		return fmt.Errorf("REPLY_DELAY cannot be negative")
	}

	switch c.StorageBackend {
	case StorageMemory:
	case StorageRedis:
		if c.RedisEndpoint == "" {
			return fmt.Errorf("REDIS_ENDPOINT is required for redis storage")
		}
	case StorageDynamo:
		if c.DynamoDBTable == "" {
			return fmt.Errorf("DYNAMODB_TABLE is required for dynamo storage")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}

	switch c.QueueBackend {
	case QueueMemory:
	case QueueSQS:
		if c.SQSReplyQueue == "" {
			return fmt.Errorf("SQS_REPLY_QUEUE is required for sqs queue")
		}
	default:
		return fmt.Errorf("unknown QUEUE_BACKEND %q", c.QueueBackend)
	}

	switch c.BrokerBackend {
	case BrokerMemory:
	case BrokerRedis:
		if c.RedisEndpoint == "" {
			return fmt.Errorf("REDIS_ENDPOINT is required for redis broker")
		}
	default:
		return fmt.Errorf("unknown BROKER_BACKEND %q", c.BrokerBackend)
	}

	return nil
}

// UsesRedis reports whether any backend needs a redis client.
func (c *Config) UsesRedis() bool {
	return c.StorageBackend == StorageRedis || c.BrokerBackend == BrokerRedis
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value = strings.TrimSpace(value)
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	// Bare integers are milliseconds
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}
