package idempotency

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/polkiloo/eventreg/internal/config"
	"github.com/polkiloo/eventreg/internal/domain/model"
	"github.com/polkiloo/eventreg/internal/domain/repository"
)

// Module provides the checkout idempotency store. Without a Redis address keys are ignored.
var Module = fx.Provide(newStore)

// disabledStore hands every request ownership of its key and remembers nothing.
type disabledStore struct{}

func (disabledStore) Acquire(context.Context, string) (*model.CheckoutResult, error) { return nil, nil }
func (disabledStore) Complete(context.Context, string, *model.CheckoutResult) error  { return nil }
func (disabledStore) Release(context.Context, string) error                          { return nil }

var newRedisClient = func(opts *redis.Options) redisClient {
	return redis.NewClient(opts)
}

type storeParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *slog.Logger
}

func newStore(p storeParams) (repository.IdempotencyStore, error) {
	if p.Config.RedisAddr == "" {
		p.Logger.Info("idempotency store disabled", slog.String("reason", "no redis address"))
		return disabledStore{}, nil
	}

	client := newRedisClient(&redis.Options{Addr: p.Config.RedisAddr})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	store := NewRedisStore(client, p.Config.IdempotencyTTL, p.Config.IdempotencyLease)
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return store.Close()
		},
	})
	p.Logger.Info("idempotency store ready", slog.String("redis", p.Config.RedisAddr))
	return store, nil
}
