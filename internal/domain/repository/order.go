package repository

import (
	"context"

	"github.com/polkiloo/eventreg/internal/domain/model"
)

// OrderRepository serves read-only order history outside of checkout transactions.
type OrderRepository interface {
	ListByUser(ctx context.Context, userID int64) ([]model.Order, error)
	GetByID(ctx context.Context, orderID int64) (*model.Order, error)
}
