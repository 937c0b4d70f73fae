package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const blacklistKeyPrefix = "blacklist:"

type redisBlacklist struct {
	client *redis.Client
}

// NewRedisBlacklist wraps a redis client as a revocation store. Entries
// carry a per-key TTL so revoked tokens disappear from the store as soon
// as they would have expired anyway.
func NewRedisBlacklist(client *redis.Client) (Blacklist, error) {
	if client == nil {
		return nil, errors.New("redis client cannot be nil")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &redisBlacklist{client: client}, nil
}

func (b *redisBlacklist) Add(ctx context.Context, tokenString string, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("ttl must be positive")
	}
	key := blacklistKeyPrefix + hashToken(tokenString)
	if err := b.client.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (b *redisBlacklist) Contains(ctx context.Context, tokenString string) (bool, error) {
	key := blacklistKeyPrefix + hashToken(tokenString)
	n, err := b.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return n > 0, nil
}
