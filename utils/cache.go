// File: utils/cache.go
package utils

import (
	"context"
	"fmt"
	"time"

	"bloodsync/config"

	"github.com/go-redis/redis/v8"
)

// CacheClient backs the proximity result cache and the verified-token cache.
// It stays nil when Redis is unreachable; callers skip caching then.
var CacheClient *redis.Client

// InitCache connects the Redis cache client (REDIS_CACHE_DB).
func InitCache() error {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisCacheDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return fmt.Errorf("failed to connect to Redis (cache): %w", err)
	}
	CacheClient = client
	return nil
}

// GetCacheClient returns the cache client, or nil when caching is disabled.
func GetCacheClient() *redis.Client {
	return CacheClient
}
