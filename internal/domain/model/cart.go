package model

import "github.com/shopspring/decimal"

// CartLine is one requested purchase. The set of variants is closed:
// TicketLine, CampsiteLine, MerchandiseLine, AssetLine and SubeventLine.
type CartLine interface {
	cartLine()
}

// TicketLine requests Quantity seats of a ticket type. Attendees may be shorter than
// Quantity; missing seats are filled with empty details.
type TicketLine struct {
	TicketTypeID int64
	Quantity     int
	Attendees    []AttendeeDetails
}

// CampsiteLine requests a campsite for a stay at the client's quoted price.
type CampsiteLine struct {
	CampsiteID  int64
	Stay        DateRange
	ClientPrice decimal.Decimal
}

// MerchandiseLine requests Quantity units of a SKU at the server price.
type MerchandiseLine struct {
	SkuID    int64
	Quantity int
}

// AssetLine requests any free item of an asset type for a stay.
type AssetLine struct {
	AssetTypeID int64
	Stay        DateRange
	ClientPrice decimal.Decimal
}

// SubeventLine requests a place in a subevent. A zero ClientPrice skips the price check.
type SubeventLine struct {
	SubeventID  int64
	ClientPrice decimal.Decimal
}

func (TicketLine) cartLine()      {}
func (CampsiteLine) cartLine()    {}
func (MerchandiseLine) cartLine() {}
func (AssetLine) cartLine()       {}
func (SubeventLine) cartLine()    {}

// Cart is the client-built set of lines committed by one checkout.
type Cart struct {
	EventID int64
	Lines   []CartLine
}

// IssuedTicket describes an attendee minted by checkout.
type IssuedTicket struct {
	AttendeeID   int64
	PersonID     int64
	TicketTypeID int64
	Code         string
}

// CheckoutResult is returned to the buyer after a committed checkout.
type CheckoutResult struct {
	OrderID int64
	EventID int64
	Total   decimal.Decimal
	Status  PaymentStatus
	Tickets []IssuedTicket
}
