package pantry

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"

	"pantry-matcher/internal/pkg/common"
)

// RedisOptions Redis 商品儲存設定
type RedisOptions struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// RedisStore 以 Redis list 保存商品，RPUSH 本身即保證同 session 的順序
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	owned     bool
}

// NewRedisStore 創建 Redis 商品儲存並測試連接，Close 時一併關閉連線
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	s, err := NewRedisStoreWithClient(ctx, client, opts.KeyPrefix)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	s.owned = true
	return s, nil
}

// NewRedisStoreWithClient 使用既有連線，client 由呼叫端負責關閉
func NewRedisStoreWithClient(ctx context.Context, client *redis.Client, keyPrefix string) (*RedisStore, error) {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if keyPrefix == "" {
		keyPrefix = "pantry"
	}
	return &RedisStore{client: client, keyPrefix: keyPrefix}, nil
}

func (s *RedisStore) key(sessionID string) string {
	return fmt.Sprintf("%s:%s", s.keyPrefix, encodeSession(sessionID))
}

// Append 實作 Store
func (s *RedisStore) Append(ctx context.Context, sessionID string, product common.ProductRecord) error {
	if err := validateSession(sessionID); err != nil {
		return err
	}
	data, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}
	if err := s.client.RPush(ctx, s.key(sessionID), data).Err(); err != nil {
		return common.ErrStoreUnavailable.Wrap(err)
	}
	return nil
}

// Snapshot 實作 Store
func (s *RedisStore) Snapshot(ctx context.Context, sessionID string) ([]common.ProductRecord, error) {
	if err := validateSession(sessionID); err != nil {
		return nil, err
	}
	items, err := s.client.LRange(ctx, s.key(sessionID), 0, -1).Result()
	if err != nil {
		return nil, common.ErrStoreUnavailable.Wrap(err)
	}

	products := make([]common.ProductRecord, 0, len(items))
	for _, item := range items {
		var p common.ProductRecord
		if err := json.Unmarshal([]byte(item), &p); err != nil {
			return nil, fmt.Errorf("decode product: %w", err)
		}
		products = append(products, p)
	}
	return products, nil
}

// Close 實作 Store
func (s *RedisStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
}
