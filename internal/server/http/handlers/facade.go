package handlers

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/eventreg/internal/domain/model"
)

// AuthFacade describes authentication operations needed by handlers.
type AuthFacade interface {
	Register(ctx context.Context, email, password string) (string, error)
	Authenticate(ctx context.Context, email, password string) (string, error)
	ParseToken(token string) (model.Principal, error)
}

// CheckoutFacade commits carts.
type CheckoutFacade interface {
	Checkout(ctx context.Context, buyer model.Principal, cart model.Cart, idempotencyKey string) (*model.CheckoutResult, error)
}

// OrderFacade describes order history and cancellation.
type OrderFacade interface {
	Orders(ctx context.Context, userID int64) ([]model.Order, error)
	Order(ctx context.Context, caller model.Principal, orderID int64) (*model.Order, error)
	CancelOrder(ctx context.Context, caller model.Principal, orderID int64) error
}

// AvailabilityFacade answers public availability queries.
type AvailabilityFacade interface {
	CampsiteAvailability(ctx context.Context, campsiteID int64, stay model.DateRange) (bool, error)
	AssetAvailability(ctx context.Context, assetTypeID int64, stay model.DateRange) (int64, bool, error)
}

// AdminFacade describes staff operations.
type AdminFacade interface {
	SettleOrder(ctx context.Context, staff model.Principal, orderID int64, amount decimal.Decimal, reference string) (*model.Order, error)
	RefundItem(ctx context.Context, staff model.Principal, orderID, itemID int64) (*model.OrderItem, error)
	AutoAssignRoster(ctx context.Context, staff model.Principal, eventID int64, replace bool) (*model.RosterResult, error)
}

// RegistrationFacade aggregates all behaviours required by HTTP layer.
type RegistrationFacade interface {
	AuthFacade
	CheckoutFacade
	OrderFacade
	AvailabilityFacade
	AdminFacade
}
