package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key does not exist
var ErrNotFound = errors.New("key not found")

// RedisClient defines the interface for Redis operations
type RedisClient interface {
	// Key-value operations
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	GetJSON(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)

	// Sorted set operations
	ReplaceSortedSet(ctx context.Context, key string, members []ScoredMember, ttl time.Duration) error
	RangeByScoreDesc(ctx context.Context, key string, limit int64) ([]ScoredMember, error)

	// Pub/Sub operations
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channels ...string) (<-chan PubSubMessage, error)

	Ping(ctx context.Context) error

	// Close closes the Redis connection
	Close() error
}

// ScoredMember is one member of a sorted set
type ScoredMember struct {
	Member string
	Score  float64
}

// PubSubMessage represents a message from Redis pub/sub
type PubSubMessage struct {
	Channel string
	Message string
}
