package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gameshop/gateway/internal/model"
)

// RedisCache caches cart state per account with a jittered TTL so entries
// for many accounts do not expire in one burst.
type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

// NewRedisCache wraps the given redis client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: 15 * time.Minute,
	}
}

// Get returns the cached cart or ErrCacheMiss.
func (r *RedisCache) Get(ctx context.Context, accountID string) (model.Cart, error) {
	data, err := r.client.Get(ctx, cacheKey(accountID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var c model.Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}

	return c, nil
}

// Set stores the cart for the account.
func (r *RedisCache) Set(ctx context.Context, accountID string, c model.Cart) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}

	jitter := time.Duration(rand.Intn(5)) * time.Minute
	if err := r.client.Set(ctx, cacheKey(accountID), payload, r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete drops the cached cart for the account.
func (r *RedisCache) Delete(ctx context.Context, accountID string) error {
	if err := r.client.Del(ctx, cacheKey(accountID)).Err(); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

func cacheKey(accountID string) string {
	return fmt.Sprintf("cart_%s", accountID)
}
