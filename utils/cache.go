package utils

import (
	"context"
	"fmt"
	"sync"
	"time"

	"blueridge/config"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

var (
	// CacheClient backs slot holds and chat session context.
	CacheClient *redis.Client
	cacheOnce   sync.Once
)

// NewCacheClient dials Redis and verifies the connection with a short ping.
func NewCacheClient(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

// GetCacheClient returns the shared cache client, or nil when Redis is not
// configured or unreachable. Callers treat a nil client as "no cache".
func GetCacheClient() *redis.Client {
	cacheOnce.Do(func() {
		if config.AppConfig.RedisAddr == "" {
			GetLogger().Info("REDIS_ADDR not set; holds and chat context disabled")
			return
		}
		client, err := NewCacheClient(config.AppConfig.RedisAddr, config.AppConfig.RedisPassword, config.AppConfig.RedisCacheDB)
		if err != nil {
			GetLogger().Warn("Redis unavailable; continuing without cache", zap.Error(err))
			return
		}
		CacheClient = client
	})
	return CacheClient
}

// CloseCache releases the shared cache client.
func CloseCache() {
	if CacheClient != nil {
		_ = CacheClient.Close()
	}
}
