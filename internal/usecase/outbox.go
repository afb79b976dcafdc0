package usecase

import (
	"context"

	"github.com/polkiloo/eventreg/internal/domain/model"
	"github.com/polkiloo/eventreg/internal/domain/repository"
)

// OutboxUseCase exposes pending domain events to the relay worker.
type OutboxUseCase struct {
	outbox repository.OutboxRepository
}

// NewOutboxUseCase constructs OutboxUseCase.
func NewOutboxUseCase(outbox repository.OutboxRepository) *OutboxUseCase {
	return &OutboxUseCase{outbox: outbox}
}

// ClaimPending returns up to limit unsent events.
func (u *OutboxUseCase) ClaimPending(ctx context.Context, limit int) ([]model.OutboxEvent, error) {
	return u.outbox.ClaimPending(ctx, limit)
}

// MarkSent flags an event as delivered.
func (u *OutboxUseCase) MarkSent(ctx context.Context, id int64) error {
	return u.outbox.MarkSent(ctx, id)
}
