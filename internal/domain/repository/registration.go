package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/eventreg/internal/domain/model"
)

// AvailabilityReader answers overlap questions about date-range holds.
type AvailabilityReader interface {
	CampsiteExists(ctx context.Context, campsiteID int64) (bool, error)
	CampsiteOverlaps(ctx context.Context, campsiteID int64, stay model.DateRange) (int, error)
	// AssetItemLoads lists every item of the pool ordered by ascending id with its overlapping hire count.
	AssetItemLoads(ctx context.Context, assetTypeID int64, stay model.DateRange) ([]model.AssetItemLoad, error)
}

// PersonStore resolves durable person records.
type PersonStore interface {
	PersonForUser(ctx context.Context, userID int64) (*model.Person, error)
	ManagedPersonByEmail(ctx context.Context, managerUserID int64, email string) (*model.Person, error)
	CreatePerson(ctx context.Context, person *model.Person) error
}

// CatalogStore reads priced resources and reserves contended ones.
// Lock* methods hold a row lock on the resource until the transaction ends.
type CatalogStore interface {
	TicketType(ctx context.Context, eventID, ticketTypeID int64) (*model.TicketType, error)
	DefaultTicketType(ctx context.Context, eventID int64) (*model.TicketType, error)
	LockCampsite(ctx context.Context, eventID, campsiteID int64) (*model.Campsite, error)
	Sku(ctx context.Context, eventID, skuID int64) (*model.Sku, error)
	// ReserveStock atomically decrements stock by quantity and reports false when not enough is left.
	ReserveStock(ctx context.Context, skuID int64, quantity int) (bool, error)
	RestoreStock(ctx context.Context, skuID int64, quantity int) error
	LockAssetType(ctx context.Context, eventID, assetTypeID int64) (*model.AssetType, error)
	LockSubevent(ctx context.Context, eventID, subeventID int64) (*model.Subevent, error)
	SubeventRegistrationCount(ctx context.Context, subeventID int64) (int, error)
}

// AttendeeStore issues and cancels registrations.
type AttendeeStore interface {
	// CreateAttendee returns false without error when the ticket code is already taken.
	CreateAttendee(ctx context.Context, attendee *model.Attendee) (bool, error)
	ActiveAttendee(ctx context.Context, eventID, personID int64) (*model.Attendee, error)
	CancelAttendees(ctx context.Context, attendeeIDs []int64) error
}

// OrderStore writes order headers, items and payments.
type OrderStore interface {
	CreateOrder(ctx context.Context, order *model.Order) error
	CreateOrderItem(ctx context.Context, item *model.OrderItem) error
	FinalizeOrder(ctx context.Context, orderID int64, total decimal.Decimal, status model.PaymentStatus) error
	LockOrder(ctx context.Context, orderID int64) (*model.Order, error)
	OrderItems(ctx context.Context, orderID int64) ([]model.OrderItem, error)
	DeleteOrder(ctx context.Context, orderID int64) error
	RecordPayment(ctx context.Context, payment *model.Payment) error
	PaidAmount(ctx context.Context, orderID int64) (decimal.Decimal, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, status model.PaymentStatus) error
	MarkItemRefunded(ctx context.Context, itemID int64, at time.Time) error
}

// HoldStore creates and releases date-range and capacity holds linked to order items.
type HoldStore interface {
	CreateCampsiteBooking(ctx context.Context, booking *model.CampsiteBooking) error
	CreateAssetHire(ctx context.Context, hire *model.AssetHire) error
	CreateSubeventRegistration(ctx context.Context, registration *model.SubeventRegistration) error
	ReleaseOrderHolds(ctx context.Context, orderID int64) error
	ReleaseItemHold(ctx context.Context, itemID int64) error
}

// OutboxWriter records domain events inside the current transaction.
type OutboxWriter interface {
	Enqueue(ctx context.Context, event *model.OutboxEvent) error
}

// RosterStore reads and writes duty slot assignments.
type RosterStore interface {
	DutySlots(ctx context.Context, eventID int64) ([]model.DutySlot, error)
	DutyParticipants(ctx context.Context, eventID int64) ([]model.DutyParticipant, error)
	AssignDutySlot(ctx context.Context, slotID int64, attendeeID *int64) error
}

// Tx is the full set of operations available inside one registration transaction.
type Tx interface {
	AvailabilityReader
	PersonStore
	CatalogStore
	AttendeeStore
	OrderStore
	HoldStore
	OutboxWriter
	RosterStore
}

// Transactor runs units of work atomically. Any error returned by fn rolls back every write.
type Transactor interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
	ReadOnly(ctx context.Context, fn func(r AvailabilityReader) error) error
}
