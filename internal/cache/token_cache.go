package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"accountd/internal/model"
)

// TokenCache keeps a short-lived token → user snapshot in redis so the
// request gate can skip the store lookup on hot tokens. Every invalidation
// point (token replace, revoke, user update, user delete) must evict the
// affected tokens; the TTL is only a safety net.
type TokenCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewTokenCache(client *redisv9.Client, ttl time.Duration) *TokenCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &TokenCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *TokenCache) Get(ctx context.Context, token string) (*model.User, bool, error) {
	raw, err := c.client.Get(ctx, tokenKey(token)).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get token failed: %w", err)
	}

	var user model.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached user failed: %w", err)
	}
	return &user, true, nil
}

func (c *TokenCache) Set(ctx context.Context, token string, user *model.User) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal cached user failed: %w", err)
	}
	if err := c.client.Set(ctx, tokenKey(token), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set token failed: %w", err)
	}
	return nil
}

func (c *TokenCache) Delete(ctx context.Context, tokens ...string) error {
	if len(tokens) == 0 {
		return nil
	}
	keys := make([]string, len(tokens))
	for i, token := range tokens {
		keys[i] = tokenKey(token)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete tokens failed: %w", err)
	}
	return nil
}

func tokenKey(token string) string {
	return "auth:token:" + token
}
