package store

import (
	"context"
	"errors"
	"time"
)

// KVStore is the string key-value store workspace state is persisted in.
// Values are opaque strings (JSON blobs or flags); writes are last-write-wins.
type KVStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
	Remove(ctx context.Context, key string) error
}

// Leaser grants a key to one owner at a time. A lease lapses after ttl
// unless its owner acquires it again first.
type Leaser interface {
	AcquireLease(ctx context.Context, key string, owner string, ttl time.Duration) (bool, error)
	// ReleaseLease is a no-op when owner no longer holds the lease.
	ReleaseLease(ctx context.Context, key string, owner string) error
}

// Backend is a workspace store that can also hold the instance lease.
type Backend interface {
	KVStore
	Leaser
}

var ErrItemNotFound = errors.New("item does not exist")
