package redis

import (
	"context"
	"crypto/tls"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zlnvch/cocreate/store"
)

// NewClient connects to redis and pings it. The client is shared between
// the key-value store and the pub/sub broker.
func NewClient(ctx context.Context, devMode bool, redisEndpoint string) (redis.UniversalClient, error) {
	var client redis.UniversalClient
	if devMode {
		client = redis.NewClient(&redis.Options{
			Addr: redisEndpoint,
		})
	} else {
		client = redis.NewClient(&redis.Options{
			Addr: redisEndpoint,
			// AWS elasticache endpoints require TLS
			TLSConfig: &tls.Config{},
		})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

type RedisStore struct {
	client redis.UniversalClient
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

// Keys carry a hash tag on their namespace, everything before the last
// colon, so the keys of one workspace share a cluster slot.
func buildKey(key string) string {
	i := strings.LastIndexByte(key, ':')
	if i <= 0 {
		return "kv:{" + key + "}"
	}
	return "kv:{" + key[:i] + "}" + key[i:]
}

func buildLeaseKey(key string) string {
	return "lease:{" + key + "}"
}

// Renews when owner already holds the key, otherwise claims it only if free.
var acquireLeaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
if redis.call("SET", KEYS[1], ARGV[1], "NX", "PX", ARGV[2]) then
	return 1
end
return 0
`)

var releaseLeaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (redisStore *RedisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := redisStore.client.Get(ctx, buildKey(key)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", store.ErrItemNotFound
		}
		return "", err
	}
	return val, nil
}

// Set writes without expiry; persisted workspace state lives until removed.
func (redisStore *RedisStore) Set(ctx context.Context, key string, value string) error {
	return redisStore.client.Set(ctx, buildKey(key), value, 0).Err()
}

func (redisStore *RedisStore) Remove(ctx context.Context, key string) error {
	return redisStore.client.Del(ctx, buildKey(key)).Err()
}

func (redisStore *RedisStore) AcquireLease(ctx context.Context, key string, owner string, ttl time.Duration) (bool, error) {
	granted, err := acquireLeaseScript.Run(ctx, redisStore.client, []string{buildLeaseKey(key)}, owner, ttl.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return granted == 1, nil
}

func (redisStore *RedisStore) ReleaseLease(ctx context.Context, key string, owner string) error {
	return releaseLeaseScript.Run(ctx, redisStore.client, []string{buildLeaseKey(key)}, owner).Err()
}
