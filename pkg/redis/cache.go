package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrDisabled Redis 비활성 상태에서 쓰기/읽기를 요구하는 경우
var ErrDisabled = errors.New("redis is disabled")

// Cache provides prefixed blob and JSON helpers
// ⭐ SSOT: 캐시 헬퍼는 여기서만
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a new cache helper
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

// Key returns the fully prefixed key
func (c *Cache) Key(key string) string {
	if c.prefix == "" {
		return key
	}
	return fmt.Sprintf("%s:%s", c.prefix, key)
}

// GetBytes retrieves a raw value; found=false on a missing key
func (c *Cache) GetBytes(ctx context.Context, key string) ([]byte, bool, error) {
	if !c.client.Enabled() {
		return nil, false, nil
	}

	data, err := c.client.Redis().Get(ctx, c.Key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", c.Key(key), err)
	}
	return data, true, nil
}

// SetBytes stores a raw value; ttl 0 keeps it forever
func (c *Cache) SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if !c.client.Enabled() {
		return ErrDisabled
	}
	if err := c.client.Redis().Set(ctx, c.Key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", c.Key(key), err)
	}
	return nil
}

// Get retrieves a JSON value
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, found, err := c.GetBytes(ctx, key)
	if err != nil || !found {
		return false, err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}

	return true, nil
}

// Set stores a JSON value with TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}
	return c.SetBytes(ctx, key, data, ttl)
}

// Delete removes a cached value
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.client.Enabled() {
		return nil
	}
	return c.client.Redis().Del(ctx, c.Key(key)).Err()
}

// Common key generators

// ModelKey 모델 fingerprint 별 스냅샷 키
func ModelKey(fingerprint string) string {
	return fmt.Sprintf("model:%s", fingerprint)
}

// LatestModelKey 가장 최근 저장된 모델 키
func LatestModelKey() string {
	return "model:latest"
}
