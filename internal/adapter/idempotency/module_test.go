package idempotency

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx/fxtest"

	"github.com/polkiloo/eventreg/internal/config"
)

func swapRedisClient(t *testing.T, client redisClient) {
	t.Helper()
	prev := newRedisClient
	t.Cleanup(func() { newRedisClient = prev })
	newRedisClient = func(*redis.Options) redisClient { return client }
}

func TestNewStoreDisabledWithoutAddress(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	store, err := newStore(storeParams{Lifecycle: fxtest.NewLifecycle(t), Config: &config.Config{}, Logger: logger})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := store.(disabledStore); !ok {
		t.Fatalf("expected disabled store, got %T", store)
	}
	if stored, err := store.Acquire(context.Background(), "k"); stored != nil || err != nil {
		t.Fatalf("disabled store must grant ownership, got %+v err=%v", stored, err)
	}
}

func TestNewStoreUsesRedis(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	client := newFakeRedis()
	swapRedisClient(t, client)

	lc := fxtest.NewLifecycle(t)
	store, err := newStore(storeParams{Lifecycle: lc, Config: &config.Config{RedisAddr: "localhost:6379"}, Logger: logger})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := store.(*RedisStore); !ok {
		t.Fatalf("expected redis store, got %T", store)
	}

	lc.RequireStart()
	lc.RequireStop()
	if !client.closed {
		t.Fatal("expected client closed on stop")
	}
}

func TestNewStorePingFailure(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	client := newFakeRedis()
	client.pingErr = errors.New("refused")
	swapRedisClient(t, client)

	if _, err := newStore(storeParams{Lifecycle: fxtest.NewLifecycle(t), Config: &config.Config{RedisAddr: "localhost:6379"}, Logger: logger}); err == nil {
		t.Fatal("expected ping error")
	}
	if !client.closed {
		t.Fatal("expected client closed after failed ping")
	}
}
