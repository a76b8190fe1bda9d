package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisDeviceBranchCache caches the device-GUID-to-branch mapping in Redis
// so that scope resolution for shared terminals does not hit the directory
// tables on every request. Entries expire after the configured TTL; a
// reassigned terminal is picked up on the next cache miss.
type RedisDeviceBranchCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	logger    *zap.Logger
}

// NewRedisDeviceBranchCache creates a cache backed by an existing client
func NewRedisDeviceBranchCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisDeviceBranchCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisDeviceBranchCache{
		client:    client,
		keyPrefix: "directory:device:",
		ttl:       ttl,
		logger:    logger,
	}
}

// Get returns the cached branch for a device GUID. Cache trouble reads as
// a miss so the caller falls through to the directory.
func (c *RedisDeviceBranchCache) Get(ctx context.Context, guid string) (uuid.UUID, bool) {
	val, err := c.client.Get(ctx, c.keyPrefix+guid).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("device cache read failed", zap.String("guid", guid), zap.Error(err))
		}
		return uuid.Nil, false
	}

	branchID, err := uuid.Parse(val)
	if err != nil {
		c.logger.Warn("device cache holds malformed branch ID", zap.String("guid", guid))
		return uuid.Nil, false
	}
	return branchID, true
}

// Set stores the branch for a device GUID. Failures are logged and
// swallowed; the cache is an optimization, not a source of truth.
func (c *RedisDeviceBranchCache) Set(ctx context.Context, guid string, branchID uuid.UUID) {
	if err := c.client.Set(ctx, c.keyPrefix+guid, branchID.String(), c.ttl).Err(); err != nil {
		c.logger.Warn("device cache write failed", zap.String("guid", guid), zap.Error(err))
	}
}

// Close closes the underlying Redis client
func (c *RedisDeviceBranchCache) Close() error {
	return c.client.Close()
}
