package repository

import (
	"context"

	"github.com/polkiloo/eventreg/internal/domain/model"
)

// OutboxRepository hands pending domain events to the relay.
type OutboxRepository interface {
	// ClaimPending locks up to limit unsent events so concurrent relays do not publish the same row.
	ClaimPending(ctx context.Context, limit int) ([]model.OutboxEvent, error)
	MarkSent(ctx context.Context, id int64) error
}
