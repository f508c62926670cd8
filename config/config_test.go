package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "DEV_MODE", "ALLOWED_ORIGIN", "STORAGE_BACKEND", "QUEUE_BACKEND",
		"BROKER_BACKEND", "REDIS_ENDPOINT", "DYNAMODB_TABLE", "SQS_REPLY_QUEUE",
		"SHARE_SECRET", "REPLY_DELAY",
	} {
		t.Setenv(key, "")
	}
	// t.Setenv cannot unset, so restore the defaults that empty strings break
	t.Setenv("PORT", "8080")
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("QUEUE_BACKEND", "memory")
	t.Setenv("BROKER_BACKEND", "memory")
	t.Setenv("DYNAMODB_TABLE", "Cocreate")
	t.Setenv("SQS_REPLY_QUEUE", "CocreateReplyQueue")
	t.Setenv("REPLY_DELAY", "1s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, StorageMemory, cfg.StorageBackend)
	assert.Equal(t, QueueMemory, cfg.QueueBackend)
	assert.Equal(t, BrokerMemory, cfg.BrokerBackend)
	assert.Equal(t, time.Second, cfg.ReplyDelay)
	assert.Empty(t, cfg.ShareSecret)
	assert.False(t, cfg.UsesRedis())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DEV_MODE", "yes")
	t.Setenv("STORAGE_BACKEND", "Redis")
	t.Setenv("QUEUE_BACKEND", "sqs")
	t.Setenv("BROKER_BACKEND", "redis")
	t.Setenv("REDIS_ENDPOINT", "localhost:6379")
	t.Setenv("SQS_REPLY_QUEUE", "Replies")
	t.Setenv("SHARE_SECRET", "c2VjcmV0")
	t.Setenv("REPLY_DELAY", "250")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, StorageRedis, cfg.StorageBackend)
	assert.Equal(t, QueueSQS, cfg.QueueBackend)
	assert.Equal(t, "Replies", cfg.SQSReplyQueue)
	assert.Equal(t, []byte("secret"), cfg.ShareSecret)
	assert.Equal(t, 250*time.Millisecond, cfg.ReplyDelay)
	assert.True(t, cfg.UsesRedis())
}

func TestLoad_RejectsBadSecret(t *testing.T) {
	t.Setenv("SHARE_SECRET", "not base64!")

	_, err := Load()
	assert.ErrorContains(t, err, "SHARE_SECRET")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port:           "8080",
			StorageBackend: StorageMemory,
			QueueBackend:   QueueMemory,
			BrokerBackend:  BrokerMemory,
			DynamoDBTable:  "Cocreate",
			SQSReplyQueue:  "CocreateReplyQueue",
			ReplyDelay:     time.Second,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"empty port", func(c *Config) { c.Port = "" }, "PORT"},
		{"negative delay", func(c *Config) { c.ReplyDelay = -time.Second }, "REPLY_DELAY"},
		{"unknown storage", func(c *Config) { c.StorageBackend = "sqlite" }, "STORAGE_BACKEND"},
		{"redis storage without endpoint", func(c *Config) { c.StorageBackend = StorageRedis }, "REDIS_ENDPOINT"},
		{"dynamo without table", func(c *Config) { c.StorageBackend = StorageDynamo; c.DynamoDBTable = "" }, "DYNAMODB_TABLE"},
		{"unknown queue", func(c *Config) { c.QueueBackend = "kafka" }, "QUEUE_BACKEND"},
		{"sqs without queue", func(c *Config) { c.QueueBackend = QueueSQS; c.SQSReplyQueue = "" }, "SQS_REPLY_QUEUE"},
		{"unknown broker", func(c *Config) { c.BrokerBackend = "nats" }, "BROKER_BACKEND"},
		{"redis broker without endpoint", func(c *Config) { c.BrokerBackend = BrokerRedis }, "REDIS_ENDPOINT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestGetEnvDuration_FallsBackOnGarbage(t *testing.T) {
	t.Setenv("TEST_DURATION", "soon")
	assert.Equal(t, 3*time.Second, getEnvDuration("TEST_DURATION", 3*time.Second))

	t.Setenv("TEST_DURATION", "1m")
	assert.Equal(t, time.Minute, getEnvDuration("TEST_DURATION", 3*time.Second))
}
