package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus describes settlement state of an order.
type PaymentStatus string

const (
	PaymentStatusPending       PaymentStatus = "Pending"
	PaymentStatusPartiallyPaid PaymentStatus = "Partially Paid"
	PaymentStatusPaid          PaymentStatus = "Paid"
)

// ItemKind tells which catalog table an order item's RefID points to.
type ItemKind string

const (
	ItemKindTicket      ItemKind = "Ticket"
	ItemKindCampsite    ItemKind = "Campsite"
	ItemKindMerchandise ItemKind = "Merchandise"
	ItemKindAsset       ItemKind = "Asset"
	ItemKindSubevent    ItemKind = "Subevent"
)

// Order is a single checkout by one buyer for one event.
type Order struct {
	ID        int64
	UserID    int64
	EventID   int64
	Total     decimal.Decimal
	Status    PaymentStatus
	CreatedAt time.Time
	UpdatedAt time.Time
	Items     []OrderItem
}

// Cancellable reports whether the order may still be reversed by deletion.
func (o *Order) Cancellable() bool {
	return o.Status == PaymentStatusPending
}

// Settled reports whether at least part of the order has been paid.
func (o *Order) Settled() bool {
	return o.Status == PaymentStatusPaid || o.Status == PaymentStatusPartiallyPaid
}

// OrderItem is one purchased unit. Price is captured at purchase time and never rewritten.
type OrderItem struct {
	ID         int64
	OrderID    int64
	AttendeeID int64
	Kind       ItemKind
	RefID      int64
	Price      decimal.Decimal
	RefundedAt *time.Time
}

// Payment records money received against an order.
type Payment struct {
	ID        int64
	OrderID   int64
	Amount    decimal.Decimal
	Reference string
	CreatedAt time.Time
}
