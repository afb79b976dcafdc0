package app

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/fx"

	"github.com/polkiloo/eventreg/internal/domain/model"
	"github.com/polkiloo/eventreg/internal/usecase"
)

// RegistrationFacade is the single entry point transports and workers use to reach the engine.
type RegistrationFacade struct {
	auth         *usecase.AuthUseCase
	orders       *usecase.OrderUseCase
	availability *usecase.AvailabilityUseCase
	checkout     *usecase.CheckoutUseCase
	reversal     *usecase.ReversalUseCase
	settlement   *usecase.SettlementUseCase
	roster       *usecase.RosterUseCase
	outbox       *usecase.OutboxUseCase
}

type facadeParams struct {
	fx.In

	Auth         *usecase.AuthUseCase
	Orders       *usecase.OrderUseCase
	Availability *usecase.AvailabilityUseCase
	Checkout     *usecase.CheckoutUseCase
	Reversal     *usecase.ReversalUseCase
	Settlement   *usecase.SettlementUseCase
	Roster       *usecase.RosterUseCase
	Outbox       *usecase.OutboxUseCase
}

// NewRegistrationFacade bundles the use cases.
func NewRegistrationFacade(p facadeParams) *RegistrationFacade {
	return &RegistrationFacade{
		auth:         p.Auth,
		orders:       p.Orders,
		availability: p.Availability,
		checkout:     p.Checkout,
		reversal:     p.Reversal,
		settlement:   p.Settlement,
		roster:       p.Roster,
		outbox:       p.Outbox,
	}
}

func (f *RegistrationFacade) Register(ctx context.Context, email, password string) (string, error) {
	_, token, err := f.auth.Register(ctx, email, password)
	return token, err
}

func (f *RegistrationFacade) Authenticate(ctx context.Context, email, password string) (string, error) {
	_, token, err := f.auth.Authenticate(ctx, email, password)
	return token, err
}

func (f *RegistrationFacade) ParseToken(token string) (model.Principal, error) {
	return f.auth.ParseToken(token)
}

func (f *RegistrationFacade) Checkout(ctx context.Context, buyer model.Principal, cart model.Cart, idempotencyKey string) (*model.CheckoutResult, error) {
	return f.checkout.Checkout(ctx, buyer, cart, idempotencyKey)
}

func (f *RegistrationFacade) Orders(ctx context.Context, userID int64) ([]model.Order, error) {
	return f.orders.ListByUser(ctx, userID)
}

func (f *RegistrationFacade) Order(ctx context.Context, caller model.Principal, orderID int64) (*model.Order, error) {
	return f.orders.Get(ctx, caller, orderID)
}

func (f *RegistrationFacade) CancelOrder(ctx context.Context, caller model.Principal, orderID int64) error {
	return f.reversal.CancelOrder(ctx, caller, orderID)
}

func (f *RegistrationFacade) CampsiteAvailability(ctx context.Context, campsiteID int64, stay model.DateRange) (bool, error) {
	return f.availability.Campsite(ctx, campsiteID, stay)
}

func (f *RegistrationFacade) AssetAvailability(ctx context.Context, assetTypeID int64, stay model.DateRange) (int64, bool, error) {
	return f.availability.Asset(ctx, assetTypeID, stay)
}

func (f *RegistrationFacade) SettleOrder(ctx context.Context, staff model.Principal, orderID int64, amount decimal.Decimal, reference string) (*model.Order, error) {
	return f.settlement.SettleOrder(ctx, staff, orderID, amount, reference)
}

func (f *RegistrationFacade) RefundItem(ctx context.Context, staff model.Principal, orderID, itemID int64) (*model.OrderItem, error) {
	return f.settlement.RefundItem(ctx, staff, orderID, itemID)
}

func (f *RegistrationFacade) AutoAssignRoster(ctx context.Context, staff model.Principal, eventID int64, replace bool) (*model.RosterResult, error) {
	return f.roster.AutoAssign(ctx, staff, eventID, replace)
}

func (f *RegistrationFacade) PendingEvents(ctx context.Context, limit int) ([]model.OutboxEvent, error) {
	return f.outbox.ClaimPending(ctx, limit)
}

func (f *RegistrationFacade) MarkEventSent(ctx context.Context, id int64) error {
	return f.outbox.MarkSent(ctx, id)
}
