package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderResponse represents order information returned to the client.
type OrderResponse struct {
	ID        int64               `json:"id"`
	EventID   int64               `json:"event_id"`
	Total     decimal.Decimal     `json:"total"`
	Status    string              `json:"status"`
	CreatedAt time.Time           `json:"created_at"`
	Items     []OrderItemResponse `json:"items,omitempty"`
}

// OrderItemResponse is one purchased unit with its captured price.
type OrderItemResponse struct {
	ID         int64           `json:"id"`
	AttendeeID int64           `json:"attendee_id"`
	Kind       string          `json:"kind"`
	RefID      int64           `json:"ref_id"`
	Price      decimal.Decimal `json:"price"`
	RefundedAt *time.Time      `json:"refunded_at,omitempty"`
}
