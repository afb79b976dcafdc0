package model

import (
	"encoding/json"
	"time"
)

const (
	EventOrderPlaced       = "order.placed"
	EventOrderCancelled    = "order.cancelled"
	EventOrderSettled      = "order.settled"
	EventOrderItemRefunded = "order.item_refunded"
	EventRosterAssigned    = "roster.assigned"
)

// OutboxEvent is a domain event written in the same transaction as the change it reports.
type OutboxEvent struct {
	ID        int64
	EventID   string
	Type      string
	Key       string
	Payload   json.RawMessage
	CreatedAt time.Time
	SentAt    *time.Time
}
