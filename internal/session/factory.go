package session

import (
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// StoreType selects the storage driver.
type StoreType string

const (
	StoreTypeMemory StoreType = "memory"
	StoreTypeRedis  StoreType = "redis"
)

var (
	ErrInvalidStoreType = errors.New("invalid store type")
	ErrInvalidConfig    = errors.New("redis store requires a client")
)

// StoreOption is a functional option for configuring a store.
type StoreOption func(*storeConfig)

type storeConfig struct {
	redisClient *redis.Client
	redisTTL    time.Duration
	keyPrefix   string
}

// WithRedisClient sets the Redis client for the Redis driver.
func WithRedisClient(client *redis.Client) StoreOption {
	return func(c *storeConfig) {
		c.redisClient = client
	}
}

// WithRedisTTL sets the sliding TTL for Redis keys.
func WithRedisTTL(ttl time.Duration) StoreOption {
	return func(c *storeConfig) {
		c.redisTTL = ttl
	}
}

// WithKeyPrefix namespaces keys, e.g. per environment.
func WithKeyPrefix(prefix string) StoreOption {
	return func(c *storeConfig) {
		c.keyPrefix = prefix
	}
}

func applyOptions(opts []StoreOption) *storeConfig {
	cfg := &storeConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.redisTTL <= 0 {
		cfg.redisTTL = 24 * time.Hour
	}
	return cfg
}

// NewContextStore creates a ContextStore for the given driver.
// The Redis driver requires WithRedisClient.
func NewContextStore(storeType StoreType, opts ...StoreOption) (ContextStore, error) {
	cfg := applyOptions(opts)

	switch storeType {
	case StoreTypeMemory:
		return newMemoryContextStore(), nil
	case StoreTypeRedis:
		if cfg.redisClient == nil {
			return nil, ErrInvalidConfig
		}
		return &redisContextStore{
			client: cfg.redisClient,
			ttl:    cfg.redisTTL,
			prefix: cfg.keyPrefix,
		}, nil
	default:
		return nil, ErrInvalidStoreType
	}
}

// NewWebStore creates a WebStore for the given driver.
func NewWebStore(storeType StoreType, opts ...StoreOption) (WebStore, error) {
	cfg := applyOptions(opts)

	switch storeType {
	case StoreTypeMemory:
		return newMemoryWebStore(cfg.redisTTL), nil
	case StoreTypeRedis:
		if cfg.redisClient == nil {
			return nil, ErrInvalidConfig
		}
		return &redisWebStore{
			client: cfg.redisClient,
			ttl:    cfg.redisTTL,
			prefix: cfg.keyPrefix,
		}, nil
	default:
		return nil, ErrInvalidStoreType
	}
}
