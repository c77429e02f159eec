package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"pantry-matcher/internal/pkg/common"
)

// RedisCache 以 Redis 保存的快取，值以 JSON 序列化
type RedisCache[V any] struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache 創建 Redis 快取，client 由呼叫端負責關閉
func NewRedisCache[V any](client *redis.Client, prefix string, ttl time.Duration) *RedisCache[V] {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisCache[V]{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisCache[V]) key(key string) string {
	return fmt.Sprintf("%s:%s", c.prefix, key)
}

// Get 獲取緩存，Redis 錯誤一律視為未命中
func (c *RedisCache[V]) Get(ctx context.Context, key string) (V, bool) {
	var v V
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if err != redis.Nil {
			common.LogWarn("讀取 Redis 快取失敗", zap.Error(err))
		}
		common.LogCacheMiss(c.prefix, key)
		return v, false
	}
	if err := json.Unmarshal(data, &v); err != nil {
		common.LogWarn("快取資料解析失敗", zap.String("key", key), zap.Error(err))
		return v, false
	}
	common.LogCacheHit(c.prefix, key)
	return v, true
}

// Set 設置緩存
func (c *RedisCache[V]) Set(ctx context.Context, key string, value V) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	if err := c.client.Set(ctx, c.key(key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}
