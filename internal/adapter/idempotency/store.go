package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domainErrors "github.com/polkiloo/eventreg/internal/domain/errors"
	"github.com/polkiloo/eventreg/internal/domain/model"
	"github.com/polkiloo/eventreg/internal/domain/repository"
)

const (
	keyPrefix     = "eventreg:idem:"
	pendingMarker = "pending"
)

type redisClient interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// RedisStore keeps checkout results in Redis under a TTL.
// A key holds a pending marker while its checkout runs and the JSON result afterwards.
// The marker expires after the lease so a crashed checkout does not block retries for the full TTL.
type RedisStore struct {
	client redisClient
	ttl    time.Duration
	lease  time.Duration
}

var _ repository.IdempotencyStore = (*RedisStore)(nil)

const (
	defaultTTL   = 24 * time.Hour
	defaultLease = time.Minute
)

// NewRedisStore wraps client. Non-positive ttl falls back to one day and non-positive
// lease to one minute. The lease never outlives ttl.
func NewRedisStore(client redisClient, ttl, lease time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if lease <= 0 {
		lease = defaultLease
	}
	return &RedisStore{client: client, ttl: ttl, lease: min(lease, ttl)}
}

func (s *RedisStore) Acquire(ctx context.Context, key string) (*model.CheckoutResult, error) {
	redisKey := keyPrefix + key
	for range 2 {
		acquired, err := s.client.SetNX(ctx, redisKey, pendingMarker, s.lease).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire idempotency key: %w", err)
		}
		if acquired {
			return nil, nil
		}

		val, err := s.client.Get(ctx, redisKey).Result()
		if errors.Is(err, redis.Nil) {
			// expired between SETNX and GET
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read idempotency key: %w", err)
		}
		if val == pendingMarker {
			return nil, domainErrors.ErrRequestInFlight
		}

		var result model.CheckoutResult
		if err := json.Unmarshal([]byte(val), &result); err != nil {
			return nil, fmt.Errorf("decode idempotency result: %w", err)
		}
		return &result, nil
	}
	return nil, domainErrors.ErrRequestInFlight
}

func (s *RedisStore) Complete(ctx context.Context, key string, result *model.CheckoutResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode idempotency result: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("store idempotency result: %w", err)
	}
	return nil
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}

// Close releases the Redis connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
