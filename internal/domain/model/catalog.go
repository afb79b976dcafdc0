package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TicketType is a priced admission class of an event.
type TicketType struct {
	ID      int64
	EventID int64
	Name    string
	Price   decimal.Decimal
	Role    string
}

// StayPricing holds the price facts of a resource booked for a date range.
type StayPricing struct {
	NightlyRate   decimal.Decimal
	FullEventRate decimal.NullDecimal
}

// Campsite is a single physical pitch.
type Campsite struct {
	ID      int64
	EventID int64
	Name    string
	StayPricing
}

// CampsiteBooking holds a campsite for a date range.
type CampsiteBooking struct {
	ID          int64
	CampsiteID  int64
	OrderItemID int64
	Stay        DateRange
}

// Sku is a purchasable merchandise line with a stock counter.
type Sku struct {
	ID           int64
	EventID      int64
	Name         string
	Price        decimal.Decimal
	CurrentStock int
	Active       bool
}

// AssetType is a pool of interchangeable hireable items.
type AssetType struct {
	ID      int64
	EventID int64
	Name    string
	StayPricing
}

// AssetItem is one physical instance from an asset type pool.
type AssetItem struct {
	ID          int64
	AssetTypeID int64
	Label       string
}

// AssetItemLoad pairs a pool item with the number of hires overlapping a queried range.
type AssetItemLoad struct {
	Item     AssetItem
	Overlaps int
}

// AssetHire holds one asset item for a date range.
type AssetHire struct {
	ID          int64
	AssetItemID int64
	OrderItemID int64
	Stay        DateRange
}

// Subevent is a bookable session within an event. A nil Capacity means unlimited.
type Subevent struct {
	ID       int64
	EventID  int64
	Name     string
	Price    decimal.Decimal
	Capacity *int
	StartsAt time.Time
	EndsAt   time.Time
}

// SubeventRegistration links a subevent to the order item that paid for it.
type SubeventRegistration struct {
	ID          int64
	SubeventID  int64
	OrderItemID int64
}
