package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/eventreg/internal/domain/errors"
	"github.com/polkiloo/eventreg/internal/domain/model"
)

type fakeRedis struct {
	values  map[string]string
	ttls    map[string]time.Duration
	err     error
	pingErr error
	// expireOnGet drops the key right before the next GET.
	expireOnGet bool
	closed      bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) SetNX(_ context.Context, key string, value any, ttl time.Duration) *redis.BoolCmd {
	if f.err != nil {
		return redis.NewBoolResult(false, f.err)
	}
	if _, ok := f.values[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.values[key] = value.(string)
	f.ttls[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.expireOnGet {
		f.expireOnGet = false
		delete(f.values, key)
	}
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	f.values[key] = string(value.([]byte))
	f.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.values[k]; ok {
			delete(f.values, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) Ping(context.Context) *redis.StatusCmd {
	if f.pingErr != nil {
		return redis.NewStatusResult("", f.pingErr)
	}
	return redis.NewStatusResult("PONG", nil)
}

func (f *fakeRedis) Close() error {
	f.closed = true
	return nil
}

func TestRedisStoreLifecycle(t *testing.T) {
	client := newFakeRedis()
	store := NewRedisStore(client, time.Hour, 30*time.Second)
	ctx := context.Background()

	stored, err := store.Acquire(ctx, "checkout:1:abc")
	if err != nil || stored != nil {
		t.Fatalf("expected first caller to own key, got %+v err=%v", stored, err)
	}
	if client.ttls[keyPrefix+"checkout:1:abc"] != 30*time.Second {
		t.Fatalf("expected pending marker to carry the lease, got %v", client.ttls)
	}

	if _, err := store.Acquire(ctx, "checkout:1:abc"); !errors.Is(err, domainErrors.ErrRequestInFlight) {
		t.Fatalf("expected in flight error, got %v", err)
	}

	result := &model.CheckoutResult{
		OrderID: 7,
		EventID: 1,
		Total:   decimal.RequireFromString("72.50"),
		Status:  model.PaymentStatusPaid,
		Tickets: []model.IssuedTicket{{AttendeeID: 3, Code: "AB12CD"}},
	}
	if err := store.Complete(ctx, "checkout:1:abc", result); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if client.ttls[keyPrefix+"checkout:1:abc"] != time.Hour {
		t.Fatalf("expected stored result to carry the full ttl, got %v", client.ttls)
	}

	replay, err := store.Acquire(ctx, "checkout:1:abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if replay == nil || replay.OrderID != 7 || !replay.Total.Equal(result.Total) || len(replay.Tickets) != 1 {
		t.Fatalf("expected stored result, got %+v", replay)
	}
}

func TestRedisStoreReleaseFreesKey(t *testing.T) {
	store := NewRedisStore(newFakeRedis(), 0, 0)
	ctx := context.Background()

	if store.ttl != 24*time.Hour || store.lease != time.Minute {
		t.Fatalf("expected default ttl and lease, got %v/%v", store.ttl, store.lease)
	}
	if _, err := store.Acquire(ctx, "k"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Release(ctx, "k"); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if stored, err := store.Acquire(ctx, "k"); err != nil || stored != nil {
		t.Fatalf("expected key to be free again, got %+v err=%v", stored, err)
	}
}

func TestRedisStoreLeaseNeverOutlivesTTL(t *testing.T) {
	client := newFakeRedis()
	store := NewRedisStore(client, 10*time.Second, time.Minute)
	if _, err := store.Acquire(context.Background(), "k"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := client.ttls[keyPrefix+"k"]; got != 10*time.Second {
		t.Fatalf("expected lease capped at ttl, got %v", got)
	}
}

func TestRedisStoreAbandonedMarkerFreesAfterLease(t *testing.T) {
	client := newFakeRedis()
	store := NewRedisStore(client, time.Hour, time.Minute)
	ctx := context.Background()

	if _, err := store.Acquire(ctx, "k"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// the owning process died: no Complete or Release follows
	if got := client.ttls[keyPrefix+"k"]; got != time.Minute {
		t.Fatalf("expected abandoned marker to expire after the lease, got %v", got)
	}
	delete(client.values, keyPrefix+"k")

	if stored, err := store.Acquire(ctx, "k"); err != nil || stored != nil {
		t.Fatalf("expected retry to own the key once the lease lapsed, got %+v err=%v", stored, err)
	}
}

func TestRedisStoreRetriesExpiredKey(t *testing.T) {
	client := newFakeRedis()
	store := NewRedisStore(client, time.Minute, 0)
	ctx := context.Background()

	client.values[keyPrefix+"k"] = pendingMarker
	client.expireOnGet = true

	stored, err := store.Acquire(ctx, "k")
	if err != nil || stored != nil {
		t.Fatalf("expected ownership after expiry, got %+v err=%v", stored, err)
	}
}

func TestRedisStoreErrors(t *testing.T) {
	client := newFakeRedis()
	store := NewRedisStore(client, time.Minute, 0)
	ctx := context.Background()

	client.values[keyPrefix+"broken"] = "{not json"
	if _, err := store.Acquire(ctx, "broken"); err == nil {
		t.Fatal("expected decode error")
	}

	client.err = errors.New("down")
	if _, err := store.Acquire(ctx, "k"); err == nil {
		t.Fatal("expected acquire error")
	}
	if err := store.Complete(ctx, "k", &model.CheckoutResult{}); err == nil {
		t.Fatal("expected complete error")
	}
	if err := store.Release(ctx, "k"); err == nil {
		t.Fatal("expected release error")
	}

	if err := store.Close(); err != nil || !client.closed {
		t.Fatalf("expected client closed, err=%v", err)
	}
}
