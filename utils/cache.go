package utils

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"voicedesk/config"
)

// CacheClient backs the conversation context store.
var CacheClient *redis.Client

// InitCache connects the Redis cache client. Returns false when Redis is
// unreachable so the caller can fall back to the in-memory store.
func InitCache() bool {
	CacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisCacheDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := CacheClient.Ping(ctx).Err(); err != nil {
		GetLogger().Warn("Redis unreachable, conversation context will stay in memory", zap.Error(err))
		CacheClient = nil
		return false
	}
	return true
}

// GetCacheClient returns the cache client, nil when Redis is not in use.
func GetCacheClient() *redis.Client {
	return CacheClient
}
