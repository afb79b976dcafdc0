package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/eventreg/internal/domain/errors"
	"github.com/polkiloo/eventreg/internal/domain/model"
	testhelpers "github.com/polkiloo/eventreg/internal/test"
	"github.com/polkiloo/eventreg/internal/usecase"
)

const eventID int64 = 1

var (
	buyer = model.Principal{UserID: 7, Email: "ada@example.com", Role: model.RoleUser}
	staff = model.Principal{UserID: 1, Email: "ops@example.com", Role: model.RoleAdmin}
)

type facadeFixture struct {
	facade *RegistrationFacade
	store  *testhelpers.MemoryStore
	users  *testhelpers.UserRepositoryStub
	orders *testhelpers.OrderRepositoryStub
	outbox *testhelpers.OutboxRepositoryStub
}

func newFacade() facadeFixture {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	store := testhelpers.NewMemoryStore()
	users := testhelpers.NewUserRepositoryStub()
	orders := &testhelpers.OrderRepositoryStub{}
	outbox := &testhelpers.OutboxRepositoryStub{}

	policy := usecase.DefaultPolicy()
	policy.SettleOnCheckout = false
	policy.AdminEmails = []string{staff.Email}

	facade := NewRegistrationFacade(facadeParams{
		Auth:         usecase.NewAuthUseCase(users, testhelpers.HasherStub{}, testhelpers.StrategyStub{}, policy),
		Orders:       usecase.NewOrderUseCase(orders),
		Availability: usecase.NewAvailabilityUseCase(store),
		Checkout:     usecase.NewCheckoutUseCase(store, policy, nil, nil, logger),
		Reversal:     usecase.NewReversalUseCase(store, nil, logger),
		Settlement:   usecase.NewSettlementUseCase(store, logger),
		Roster:       usecase.NewRosterUseCase(store, policy, logger),
		Outbox:       usecase.NewOutboxUseCase(outbox),
	})
	return facadeFixture{facade: facade, store: store, users: users, orders: orders, outbox: outbox}
}

func stay(t *testing.T) model.DateRange {
	t.Helper()
	r, err := model.ParseDateRange("2026-07-04", "2026-07-06")
	if err != nil {
		t.Fatalf("parse stay: %v", err)
	}
	return r
}

func TestRegistrationFacadeAuth(t *testing.T) {
	fx := newFacade()
	ctx := context.Background()

	token, err := fx.facade.Register(ctx, "Ada@Example.com", "secret-pass")
	if err != nil || token != "token" {
		t.Fatalf("unexpected register result %q err=%v", token, err)
	}
	if _, err := fx.users.GetByEmail(ctx, "ada@example.com"); err != nil {
		t.Fatalf("user not stored: %v", err)
	}

	token, err = fx.facade.Authenticate(ctx, "ada@example.com", "secret-pass")
	if err != nil || token != "token" {
		t.Fatalf("unexpected authenticate result %q err=%v", token, err)
	}

	principal, err := fx.facade.ParseToken("anything")
	if err != nil || principal.UserID != 1 {
		t.Fatalf("unexpected principal %+v err=%v", principal, err)
	}
}

func TestRegistrationFacadeCheckoutAndCancel(t *testing.T) {
	fx := newFacade()
	ctx := context.Background()
	ticket := fx.store.AddTicketType(eventID, "Adult", "50")
	site := fx.store.AddCampsite(eventID, "35", "")

	available, err := fx.facade.CampsiteAvailability(ctx, site.ID, stay(t))
	if err != nil || !available {
		t.Fatalf("expected free campsite, got %v err=%v", available, err)
	}

	result, err := fx.facade.Checkout(ctx, buyer, model.Cart{
		EventID: eventID,
		Lines: []model.CartLine{
			model.TicketLine{TicketTypeID: ticket.ID, Quantity: 1},
			model.CampsiteLine{CampsiteID: site.ID, Stay: stay(t), ClientPrice: decimal.NewFromInt(70)},
		},
	}, "")
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if !result.Total.Equal(decimal.NewFromInt(120)) || result.Status != model.PaymentStatusPending {
		t.Fatalf("unexpected result %+v", result)
	}

	available, err = fx.facade.CampsiteAvailability(ctx, site.ID, stay(t))
	if err != nil || available {
		t.Fatalf("expected booked campsite, got %v err=%v", available, err)
	}

	if err := fx.facade.CancelOrder(ctx, buyer, result.OrderID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if fx.store.OrderCount() != 0 {
		t.Fatalf("expected order removed, got %d", fx.store.OrderCount())
	}
}

func TestRegistrationFacadeStaffOperations(t *testing.T) {
	fx := newFacade()
	ctx := context.Background()
	ticket := fx.store.AddTicketType(eventID, "Adult", "50")
	pool := fx.store.AddAssetType(eventID, "5", "", 1)

	itemID, ok, err := fx.facade.AssetAvailability(ctx, pool.ID, stay(t))
	if err != nil || !ok || itemID == 0 {
		t.Fatalf("expected free asset, got %d/%v err=%v", itemID, ok, err)
	}

	result, err := fx.facade.Checkout(ctx, buyer, model.Cart{
		EventID: eventID,
		Lines:   []model.CartLine{model.TicketLine{TicketTypeID: ticket.ID, Quantity: 1}},
	}, "")
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	if _, err := fx.facade.SettleOrder(ctx, buyer, result.OrderID, decimal.NewFromInt(50), "bank"); !errors.Is(err, domainErrors.ErrForbidden) {
		t.Fatalf("expected buyer to be refused, got %v", err)
	}
	order, err := fx.facade.SettleOrder(ctx, staff, result.OrderID, decimal.NewFromInt(50), "bank")
	if err != nil || order.Status != model.PaymentStatusPaid {
		t.Fatalf("unexpected settle result %+v err=%v", order, err)
	}

	stored, _ := fx.store.Order(result.OrderID)
	item, err := fx.facade.RefundItem(ctx, staff, result.OrderID, stored.Items[0].ID)
	if err != nil || item.RefundedAt == nil {
		t.Fatalf("unexpected refund result %+v err=%v", item, err)
	}

	fx.store.AddDutySlot(eventID, time.Date(2026, 7, 4, 0, 0, 0, 0, time.UTC), "09:00", "11:00")
	roster, err := fx.facade.AutoAssignRoster(ctx, staff, eventID, false)
	if err != nil || roster.UnassignedCount != 1 {
		t.Fatalf("expected one open slot without volunteers, got %+v err=%v", roster, err)
	}
}

func TestRegistrationFacadeOrderHistory(t *testing.T) {
	fx := newFacade()
	ctx := context.Background()
	fx.orders.Orders = []model.Order{{ID: 1, UserID: buyer.UserID}, {ID: 2, UserID: 99}}

	listed, err := fx.facade.Orders(ctx, buyer.UserID)
	if err != nil || len(listed) != 1 {
		t.Fatalf("unexpected orders %v err=%v", listed, err)
	}
	if _, err := fx.facade.Order(ctx, buyer, 2); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected foreign order hidden, got %v", err)
	}
	if order, err := fx.facade.Order(ctx, staff, 2); err != nil || order.ID != 2 {
		t.Fatalf("expected staff to see order, got %+v err=%v", order, err)
	}
}

func TestRegistrationFacadeOutbox(t *testing.T) {
	fx := newFacade()
	ctx := context.Background()
	fx.outbox.Pending = []model.OutboxEvent{{ID: 1}, {ID: 2}, {ID: 3}}

	batch, err := fx.facade.PendingEvents(ctx, 2)
	if err != nil || len(batch) != 2 {
		t.Fatalf("unexpected batch %v err=%v", batch, err)
	}
	if err := fx.facade.MarkEventSent(ctx, 1); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if sent := fx.outbox.SentIDs(); len(sent) != 1 || sent[0] != 1 {
		t.Fatalf("unexpected sent ids %v", sent)
	}
}
