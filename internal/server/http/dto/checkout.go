package dto

import "github.com/shopspring/decimal"

// CheckoutRequest is a cart grouped by line kind. Dates use YYYY-MM-DD.
type CheckoutRequest struct {
	EventID     int64             `json:"event_id" binding:"required"`
	Tickets     []TicketLine      `json:"tickets"`
	Campsites   []StayLine        `json:"campsites"`
	Merchandise []MerchandiseLine `json:"merchandise"`
	Assets      []StayLine        `json:"assets"`
	Subevents   []SubeventLine    `json:"subevents"`
}

// TicketLine requests seats of one ticket type.
type TicketLine struct {
	TicketTypeID int64             `json:"ticket_type_id"`
	Quantity     int               `json:"quantity"`
	Attendees    []AttendeeDetails `json:"attendees,omitempty"`
}

// AttendeeDetails names the person sitting in one seat.
type AttendeeDetails struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// StayLine requests a campsite or an asset of a type for a stay.
// ID is the campsite id or the asset type id depending on the list it appears in.
type StayLine struct {
	ID       int64           `json:"id"`
	CheckIn  string          `json:"check_in"`
	CheckOut string          `json:"check_out"`
	Price    decimal.Decimal `json:"price"`
}

// MerchandiseLine requests units of a SKU.
type MerchandiseLine struct {
	SkuID    int64 `json:"sku_id"`
	Quantity int   `json:"quantity"`
}

// SubeventLine requests a place in a subevent.
type SubeventLine struct {
	SubeventID int64           `json:"subevent_id"`
	Price      decimal.Decimal `json:"price"`
}

// IssuedTicket is an attendee minted by checkout.
type IssuedTicket struct {
	AttendeeID   int64  `json:"attendee_id"`
	PersonID     int64  `json:"person_id"`
	TicketTypeID int64  `json:"ticket_type_id"`
	Code         string `json:"code"`
}

// CheckoutResponse confirms a committed order.
type CheckoutResponse struct {
	OrderID int64           `json:"order_id"`
	EventID int64           `json:"event_id"`
	Total   decimal.Decimal `json:"total"`
	Status  string          `json:"status"`
	Tickets []IssuedTicket  `json:"tickets"`
}
