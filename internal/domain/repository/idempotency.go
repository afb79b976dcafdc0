package repository

import (
	"context"

	"github.com/polkiloo/eventreg/internal/domain/model"
)

// IdempotencyStore remembers checkout results per client supplied key.
type IdempotencyStore interface {
	// Acquire returns the stored result for a completed key, nil when the caller now owns the key,
	// or ErrRequestInFlight when another request holds it.
	Acquire(ctx context.Context, key string) (*model.CheckoutResult, error)
	Complete(ctx context.Context, key string, result *model.CheckoutResult) error
	Release(ctx context.Context, key string) error
}
