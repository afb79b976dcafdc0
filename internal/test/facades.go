package test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/eventreg/internal/domain/model"
)

// CheckoutFacadeStub provides controllable behaviour for the checkout endpoint.
type CheckoutFacadeStub struct {
	CheckoutFn func(context.Context, model.Principal, model.Cart, string) (*model.CheckoutResult, error)
}

// Checkout delegates to provided function or returns a pending order for the cart's event.
func (s CheckoutFacadeStub) Checkout(ctx context.Context, buyer model.Principal, cart model.Cart, key string) (*model.CheckoutResult, error) {
	if s.CheckoutFn != nil {
		return s.CheckoutFn(ctx, buyer, cart, key)
	}
	return &model.CheckoutResult{OrderID: 1, EventID: cart.EventID, Total: decimal.Zero, Status: model.PaymentStatusPending}, nil
}

// OrderFacadeStub provides controllable behaviour for order endpoints.
type OrderFacadeStub struct {
	OrdersFn func(context.Context, int64) ([]model.Order, error)
	OrderFn  func(context.Context, model.Principal, int64) (*model.Order, error)
	CancelFn func(context.Context, model.Principal, int64) error
}

// Orders returns predefined orders for given user.
func (s OrderFacadeStub) Orders(ctx context.Context, userID int64) ([]model.Order, error) {
	if s.OrdersFn != nil {
		return s.OrdersFn(ctx, userID)
	}
	return []model.Order{{ID: 1, UserID: userID, EventID: 1, Total: decimal.NewFromInt(10), Status: model.PaymentStatusPaid}}, nil
}

// Order returns a single order owned by the caller.
func (s OrderFacadeStub) Order(ctx context.Context, caller model.Principal, orderID int64) (*model.Order, error) {
	if s.OrderFn != nil {
		return s.OrderFn(ctx, caller, orderID)
	}
	return &model.Order{ID: orderID, UserID: caller.UserID, EventID: 1, Status: model.PaymentStatusPending}, nil
}

// CancelOrder executes configured cancellation handler.
func (s OrderFacadeStub) CancelOrder(ctx context.Context, caller model.Principal, orderID int64) error {
	if s.CancelFn != nil {
		return s.CancelFn(ctx, caller, orderID)
	}
	return nil
}

// AvailabilityFacadeStub answers availability queries.
type AvailabilityFacadeStub struct {
	CampsiteFn func(context.Context, int64, model.DateRange) (bool, error)
	AssetFn    func(context.Context, int64, model.DateRange) (int64, bool, error)
}

// CampsiteAvailability reports every campsite free unless overridden.
func (s AvailabilityFacadeStub) CampsiteAvailability(ctx context.Context, campsiteID int64, stay model.DateRange) (bool, error) {
	if s.CampsiteFn != nil {
		return s.CampsiteFn(ctx, campsiteID, stay)
	}
	return true, nil
}

// AssetAvailability reports item 1 free unless overridden.
func (s AvailabilityFacadeStub) AssetAvailability(ctx context.Context, assetTypeID int64, stay model.DateRange) (int64, bool, error) {
	if s.AssetFn != nil {
		return s.AssetFn(ctx, assetTypeID, stay)
	}
	return 1, true, nil
}

// AdminFacadeStub simulates staff operations.
type AdminFacadeStub struct {
	SettleFn func(context.Context, model.Principal, int64, decimal.Decimal, string) (*model.Order, error)
	RefundFn func(context.Context, model.Principal, int64, int64) (*model.OrderItem, error)
	RosterFn func(context.Context, model.Principal, int64, bool) (*model.RosterResult, error)
}

// SettleOrder returns a paid order unless overridden.
func (s AdminFacadeStub) SettleOrder(ctx context.Context, staff model.Principal, orderID int64, amount decimal.Decimal, reference string) (*model.Order, error) {
	if s.SettleFn != nil {
		return s.SettleFn(ctx, staff, orderID, amount, reference)
	}
	return &model.Order{ID: orderID, Total: amount, Status: model.PaymentStatusPaid}, nil
}

// RefundItem returns a refunded item unless overridden.
func (s AdminFacadeStub) RefundItem(ctx context.Context, staff model.Principal, orderID, itemID int64) (*model.OrderItem, error) {
	if s.RefundFn != nil {
		return s.RefundFn(ctx, staff, orderID, itemID)
	}
	now := time.Unix(0, 0).UTC()
	return &model.OrderItem{ID: itemID, OrderID: orderID, Kind: model.ItemKindMerchandise, RefundedAt: &now}, nil
}

// AutoAssignRoster returns an empty result unless overridden.
func (s AdminFacadeStub) AutoAssignRoster(ctx context.Context, staff model.Principal, eventID int64, replace bool) (*model.RosterResult, error) {
	if s.RosterFn != nil {
		return s.RosterFn(ctx, staff, eventID, replace)
	}
	return &model.RosterResult{}, nil
}

// OutboxFacadeStub mimics the relay's view of the outbox.
type OutboxFacadeStub struct {
	Batches   [][]model.OutboxEvent
	PendingFn func(context.Context, int) ([]model.OutboxEvent, error)
	MarkFn    func(context.Context, int64) error
	Sent      []int64

	mu        sync.Mutex
	callCount int32
}

// PendingEvents returns batches from configured queue.
func (s *OutboxFacadeStub) PendingEvents(ctx context.Context, limit int) ([]model.OutboxEvent, error) {
	if s.PendingFn != nil {
		return s.PendingFn(ctx, limit)
	}
	call := atomic.AddInt32(&s.callCount, 1)
	if int(call) <= len(s.Batches) {
		return s.Batches[call-1], nil
	}
	return nil, nil
}

// MarkEventSent records delivered event ids.
func (s *OutboxFacadeStub) MarkEventSent(ctx context.Context, id int64) error {
	if s.MarkFn != nil {
		return s.MarkFn(ctx, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Sent = append(s.Sent, id)
	return nil
}

// SentIDs returns a copy of recorded ids.
func (s *OutboxFacadeStub) SentIDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.Sent...)
}

// PublisherStub records published events.
type PublisherStub struct {
	PublishFn func(context.Context, model.OutboxEvent) error

	mu        sync.Mutex
	Published []model.OutboxEvent
}

// Publish delegates to override or records the event.
func (s *PublisherStub) Publish(ctx context.Context, event model.OutboxEvent) error {
	if s.PublishFn != nil {
		if err := s.PublishFn(ctx, event); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Published = append(s.Published, event)
	return nil
}

// Events returns a copy of published events.
func (s *PublisherStub) Events() []model.OutboxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.OutboxEvent(nil), s.Published...)
}

// HealthCheckerStub returns Err from every check.
type HealthCheckerStub struct {
	Err error
}

func (s HealthCheckerStub) HealthCheck(context.Context) error {
	return s.Err
}
