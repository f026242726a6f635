package modelstore

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/aegis-credit/internal/model"
	"github.com/wonny/aegis-credit/pkg/redis"
)

// RedisStore keeps snapshots keyed by fingerprint plus a "latest" pointer
type RedisStore struct {
	cache *redis.Cache
	ttl   time.Duration
}

// NewRedisStore creates a store on top of a prefixed cache
func NewRedisStore(cache *redis.Cache, ttl time.Duration) *RedisStore {
	return &RedisStore{cache: cache, ttl: ttl}
}

// Save writes the blob under its fingerprint and moves the latest pointer
func (s *RedisStore) Save(ctx context.Context, snap *model.Snapshot) (string, error) {
	data, err := Encode(snap)
	if err != nil {
		return "", err
	}

	key := redis.ModelKey(Fingerprint(snap))
	if err := s.cache.SetBytes(ctx, key, data, s.ttl); err != nil {
		return "", err
	}
	if err := s.cache.SetBytes(ctx, redis.LatestModelKey(), data, s.ttl); err != nil {
		return "", err
	}

	return "redis://" + s.cache.Key(key), nil
}

// Load returns the latest snapshot
func (s *RedisStore) Load(ctx context.Context) (*model.Snapshot, error) {
	return s.get(ctx, redis.LatestModelKey())
}

// LoadFingerprint returns a specific snapshot
func (s *RedisStore) LoadFingerprint(ctx context.Context, fingerprint string) (*model.Snapshot, error) {
	return s.get(ctx, redis.ModelKey(fingerprint))
}

func (s *RedisStore) get(ctx context.Context, key string) (*model.Snapshot, error) {
	data, found, err := s.cache.GetBytes(ctx, key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, s.cache.Key(key))
	}
	return Decode(data)
}

// Tiered saves to every store and loads from the first that has a model
type Tiered []Store

// Save writes to all stores; the first location is returned
func (t Tiered) Save(ctx context.Context, snap *model.Snapshot) (string, error) {
	var first string
	for i, s := range t {
		loc, err := s.Save(ctx, snap)
		if err != nil {
			return "", err
		}
		if i == 0 {
			first = loc
		}
	}
	return first, nil
}

// Load tries each store in order; only ErrModelNotFound falls through
func (t Tiered) Load(ctx context.Context) (*model.Snapshot, error) {
	for _, s := range t {
		snap, err := s.Load(ctx)
		if err == nil {
			return snap, nil
		}
		if !isNotFound(err) {
			return nil, err
		}
	}
	return nil, ErrModelNotFound
}
